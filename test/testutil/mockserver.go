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

// Package testutil provides common test helpers for sirseer-insight
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// MockServer wraps an httptest.Server and counts the requests it served.
type MockServer struct {
	*httptest.Server
	requests atomic.Int32
}

// RequestCount returns how many requests reached the server.
func (m *MockServer) RequestCount() int {
	return int(m.requests.Load())
}

// GraphQLURL is the endpoint clients should be pointed at.
func (m *MockServer) GraphQLURL() string {
	return m.URL + "/graphql"
}

// NewMockServer creates a server that counts requests and delegates to handler.
// The server is closed when the test finishes.
func NewMockServer(t *testing.T, handler http.HandlerFunc) *MockServer {
	t.Helper()
	m := &MockServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// NewPagedServer serves pages[i] to the request carrying cursor "cursor<i>"
// (no cursor selects pages[0]). Pages are raw JSON response bodies.
func NewPagedServer(t *testing.T, pages []string) *MockServer {
	t.Helper()
	return NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, vars := DecodeGraphQLRequest(t, r)
		idx := 0
		if c, ok := vars["cursor"].(string); ok {
			n, err := strconv.Atoi(strings.TrimPrefix(c, "cursor"))
			if err != nil || n < 0 || n >= len(pages) {
				http.Error(w, "unknown cursor "+c, http.StatusBadRequest)
				return
			}
			idx = n
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pages[idx]))
	})
}

// NewErrorServer creates a mock server that always returns the specified status
func NewErrorServer(t *testing.T, statusCode int) *MockServer {
	t.Helper()
	return NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(http.StatusText(statusCode)))
	})
}

// NewTransientErrorServer creates a mock server that fails failCount times
// with errorCode, then answers every request with body.
func NewTransientErrorServer(t *testing.T, failCount, errorCode int, body string) *MockServer {
	t.Helper()
	var count atomic.Int32
	return NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if int(count.Add(1)) <= failCount {
			w.WriteHeader(errorCode)
			_, _ = w.Write([]byte(http.StatusText(errorCode)))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

// NewSlowServer sleeps delay before answering the first slowCount requests.
func NewSlowServer(t *testing.T, slowCount int, delay time.Duration, body string) *MockServer {
	t.Helper()
	var count atomic.Int32
	return NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if int(count.Add(1)) <= slowCount {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

// GenerateRepositoryPages builds pageCount search pages of perPage
// repositories each, chained by cursors "cursor1", "cursor2", ...
func GenerateRepositoryPages(pageCount, perPage int) []string {
	pages := make([]string, 0, pageCount)
	for p := 0; p < pageCount; p++ {
		b := NewSearchResponseBuilder()
		for i := 0; i < perPage; i++ {
			n := p*perPage + i + 1
			b.WithNodes(NewRepositoryBuilder(fmt.Sprintf("org%d", n), fmt.Sprintf("repo%d", n)).
				WithStars(100000 - n).Build())
		}
		hasNext := p < pageCount-1
		cursor := ""
		if hasNext {
			cursor = fmt.Sprintf("cursor%d", p+1)
		}
		pages = append(pages, b.WithPagination(hasNext, cursor).BuildJSON())
	}
	return pages
}

// GeneratePullRequestPages builds pageCount pull request pages of perPage
// PRs each for nameWithOwner, chained like GenerateRepositoryPages.
// Every PR stays open for two hours.
func GeneratePullRequestPages(nameWithOwner string, pageCount, perPage int) []string {
	pages := make([]string, 0, pageCount)
	for p := 0; p < pageCount; p++ {
		b := NewPullRequestResponseBuilder(nameWithOwner)
		for i := 0; i < perPage; i++ {
			b.WithNodes(NewPullRequestBuilder(p*perPage + i + 1).Build())
		}
		hasNext := p < pageCount-1
		cursor := ""
		if hasNext {
			cursor = fmt.Sprintf("cursor%d", p+1)
		}
		pages = append(pages, b.WithPagination(hasNext, cursor).BuildJSON())
	}
	return pages
}

// MustJSON marshals v or panics; test fixtures only.
func MustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal fixture: %v", err))
	}
	return string(data)
}

// DecodeGraphQLRequest reads the query and variables from a request body.
func DecodeGraphQLRequest(t *testing.T, r *http.Request) (string, map[string]interface{}) {
	t.Helper()
	var body struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("Failed to decode GraphQL request: %v", err)
	}
	return body.Query, body.Variables
}

// AssertGraphQLRequest validates a GraphQL request structure
func AssertGraphQLRequest(t *testing.T, r *http.Request) {
	t.Helper()
	if r.URL.Path != "/graphql" {
		t.Errorf("Unexpected path: %s", r.URL.Path)
	}
	if r.Method != http.MethodPost {
		t.Errorf("Expected POST method, got: %s", r.Method)
	}
	if ct := r.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type: application/json, got: %s", ct)
	}
	if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
		t.Errorf("Expected bearer Authorization header, got: %q", auth)
	}
}
