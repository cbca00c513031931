// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package github

import (
	"context"
	"sync"
)

// MockResponse is one scripted reply of a MockTransport.
type MockResponse struct {
	StatusCode int
	Body       string
	Err        error
}

// MockTransport is a Transport that replays scripted responses in order.
// Once the script is exhausted the last response repeats.
type MockTransport struct {
	mu        sync.Mutex
	responses []MockResponse
	requests  []*Request
}

// NewMockTransport creates a mock that answers with the given responses.
func NewMockTransport(responses ...MockResponse) *MockTransport {
	return &MockTransport{responses: responses}
}

// OK is a 200 response carrying body.
func OK(body string) MockResponse {
	return MockResponse{StatusCode: 200, Body: body}
}

// Status is a bodyless response with the given status code.
func Status(code int) MockResponse {
	return MockResponse{StatusCode: code}
}

// Failure is a transport-level error.
func Failure(err error) MockResponse {
	return MockResponse{Err: err}
}

// Do implements Transport.
func (m *MockTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(m.responses) == 0 {
		return &Response{StatusCode: 200, Body: []byte(`{"data":null}`)}, nil
	}

	idx := len(m.requests) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	r := m.responses[idx]
	if r.Err != nil {
		return nil, r.Err
	}
	return &Response{StatusCode: r.StatusCode, Body: []byte(r.Body)}, nil
}

// Calls returns how many requests were made.
func (m *MockTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the requests received so far.
func (m *MockTransport) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.requests))
	copy(out, m.requests)
	return out
}
