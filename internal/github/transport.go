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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	insighterrors "github.com/sirseerhq/sirseer-insight/internal/errors"
	"github.com/sirseerhq/sirseer-insight/pkg/version"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 10 * 1024 * 1024

// Transport performs a single round trip to the GraphQL endpoint. It never
// retries; that is the Fetcher's job.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Throttler is implemented by transports that pace their requests. The
// Fetcher calls Throttle before starting an attempt's timeout so time
// spent waiting for a request slot never counts against the attempt.
type Throttler interface {
	// Throttle blocks until a request may be sent. The returned context
	// marks the slot as taken for requests made with it.
	Throttle(ctx context.Context) (context.Context, error)
}

// errThrottled marks a request that could not get a slot from the limiter.
var errThrottled = errors.New("request throttle")

// throttledKey marks a context whose request slot was already taken.
type throttledKey struct{}

// HTTPTransport posts GraphQL requests over HTTP with bearer authentication
// and an optional proactive request throttle.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*transportOptions)

type transportOptions struct {
	requestsPerSecond float64
	base              http.RoundTripper
}

// WithRequestsPerSecond throttles outgoing requests. Zero or negative means unthrottled.
func WithRequestsPerSecond(rps float64) TransportOption {
	return func(o *transportOptions) {
		o.requestsPerSecond = rps
	}
}

// WithBaseTransport replaces the pooled network transport, mostly for tests.
func WithBaseTransport(rt http.RoundTripper) TransportOption {
	return func(o *transportOptions) {
		o.base = rt
	}
}

// NewHTTPTransport creates a transport for the given endpoint.
// The token is required; every request carries it as a bearer credential.
func NewHTTPTransport(token, endpoint string, opts ...TransportOption) (*HTTPTransport, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not found. Set GITHUB_TOKEN or use --token flag: %w", insighterrors.ErrInvalidToken)
	}
	if endpoint == "" {
		return nil, fmt.Errorf("GitHub GraphQL endpoint cannot be empty")
	}

	o := &transportOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.base == nil {
		o.base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		}
	}

	limit := rate.Inf
	if o.requestsPerSecond > 0 {
		limit = rate.Limit(o.requestsPerSecond)
	}

	var rt http.RoundTripper = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   o.base,
	}
	limiter := rate.NewLimiter(limit, 1)
	rt = &headerTransport{base: rt}
	rt = &throttleTransport{base: rt, limiter: limiter}

	return &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Transport: rt},
		limiter:  limiter,
	}, nil
}

// Throttle implements Throttler.
func (t *HTTPTransport) Throttle(ctx context.Context) (context.Context, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return ctx, fmt.Errorf("%w: %w", errThrottled, err)
	}
	return context.WithValue(ctx, throttledKey{}, true), nil
}

// HTTPClient returns the authenticated, throttled client so other GraphQL
// callers share the same credentials and request budget.
func (t *HTTPTransport) HTTPClient() *http.Client {
	return t.client
}

// Endpoint returns the GraphQL endpoint URL.
func (t *HTTPTransport) Endpoint() string {
	return t.endpoint
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement. A body of exactly
// limit bytes reads cleanly; only a byte past the limit is an error.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		var extra [1]byte
		m, rerr := lr.ReadCloser.Read(extra[:])
		if m > 0 {
			return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
		}
		return 0, rerr
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// headerTransport stamps the User-Agent and caps the response size.
type headerTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", fmt.Sprintf("sirseer-insight/%s", version.Version))

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Body != nil {
		resp.Body = &limitedReader{
			ReadCloser: resp.Body,
			limit:      maxResponseBytes,
		}
	}

	return resp, nil
}

// throttleTransport waits on a token bucket before every request whose
// slot was not already taken through Throttle.
type throttleTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// RoundTrip implements http.RoundTripper
func (t *throttleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if taken, _ := req.Context().Value(throttledKey{}).(bool); !taken {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("%w: %w", errThrottled, err)
		}
	}
	return t.base.RoundTrip(req)
}
