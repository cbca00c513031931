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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	insighterrors "github.com/sirseerhq/sirseer-insight/internal/errors"
	"github.com/sirseerhq/sirseer-insight/internal/giterror"
	"github.com/sirseerhq/sirseer-insight/internal/logging"
)

// OutcomeKind classifies the result of a fetch.
type OutcomeKind int

// Fetch outcomes. OutcomeTransientError is only observed per attempt; Fetch
// itself escalates it to OutcomeFatalError once attempts run out.
const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeApplicationError
	OutcomeTransientError
	OutcomeFatalError
)

// String returns the outcome name used in logs.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeApplicationError:
		return "application-error"
	case OutcomeTransientError:
		return "transient-error"
	case OutcomeFatalError:
		return "fatal-error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is what a fetch produced. Data is set only for OutcomeSuccess;
// Err is set for every other kind.
type Outcome struct {
	Kind     OutcomeKind
	Data     json.RawMessage
	Err      error
	Attempts int
}

// GraphQLError is one entry of a response's "errors" list.
type GraphQLError struct {
	Message string        `json:"message"`
	Type    string        `json:"type,omitempty"`
	Path    []interface{} `json:"path,omitempty"`
}

// ApplicationError reports that GitHub rejected the query itself.
type ApplicationError struct {
	Errors []GraphQLError
}

func (e *ApplicationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is match ErrApplication.
func (e *ApplicationError) Unwrap() error {
	return insighterrors.ErrApplication
}

// IsNotFoundError reports whether GitHub could not resolve a named object.
func (e *ApplicationError) IsNotFoundError() bool {
	for _, ge := range e.Errors {
		if ge.Type == "NOT_FOUND" {
			return true
		}
	}
	return false
}

// IsRateLimitError reports whether the query was rejected by the rate limiter.
func (e *ApplicationError) IsRateLimitError() bool {
	for _, ge := range e.Errors {
		if ge.Type == "RATE_LIMITED" {
			return true
		}
	}
	return false
}

// RetryConfig bounds the Fetcher's retry behavior.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first. At least 1.
	MaxAttempts int
	// BaseBackoff is multiplied by the attempt number to get the delay
	// before the next attempt.
	BaseBackoff time.Duration
	// RequestTimeout bounds each attempt. Zero disables the bound.
	RequestTimeout time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		BaseBackoff:    time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Fetcher wraps a Transport with bounded retry and linear backoff, and
// classifies each response.
type Fetcher struct {
	transport Transport
	config    RetryConfig
	inspector giterror.Inspector
	sleep     Sleeper
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithSleeper replaces the backoff wait, mostly for tests.
func WithSleeper(s Sleeper) FetcherOption {
	return func(f *Fetcher) {
		f.sleep = s
	}
}

// NewFetcher creates a Fetcher. MaxAttempts below 1 is raised to 1 and a
// negative backoff is treated as zero.
func NewFetcher(transport Transport, config RetryConfig, opts ...FetcherOption) *Fetcher {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.BaseBackoff < 0 {
		config.BaseBackoff = 0
	}
	f := &Fetcher{
		transport: transport,
		config:    config,
		inspector: giterror.NewErrorChainInspector(giterror.NewInspector()),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch runs the request until it succeeds, fails for good, or the
// attempts are used up. The returned Outcome is never OutcomeTransientError.
func (f *Fetcher) Fetch(ctx context.Context, req *Request) Outcome {
	logger := logging.FromContext(ctx)
	var last Outcome

	for attempt := 1; attempt <= f.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome{Kind: OutcomeFatalError, Err: err, Attempts: attempt - 1}
		}

		out := f.attempt(ctx, req)
		out.Attempts = attempt
		if out.Kind != OutcomeTransientError {
			return out
		}
		last = out

		if attempt == f.config.MaxAttempts {
			break
		}

		backoff := f.config.BaseBackoff * time.Duration(attempt)
		logger.Warn("transient failure, retrying",
			"attempt", attempt, "max", f.config.MaxAttempts, "backoff", backoff, "err", out.Err)
		if err := f.sleep(ctx, backoff); err != nil {
			return Outcome{Kind: OutcomeFatalError, Err: err, Attempts: attempt}
		}
	}

	return Outcome{
		Kind:     OutcomeFatalError,
		Err:      fmt.Errorf("%w after %d attempts: %w", insighterrors.ErrRetriesExhausted, f.config.MaxAttempts, last.Err),
		Attempts: f.config.MaxAttempts,
	}
}

// attempt performs one bounded round trip. The request slot is taken
// before the attempt's timeout starts.
func (f *Fetcher) attempt(ctx context.Context, req *Request) Outcome {
	if throttler, ok := f.transport.(Throttler); ok {
		throttled, err := throttler.Throttle(ctx)
		if err != nil {
			return f.classifyError(ctx, err)
		}
		ctx = throttled
	}

	attemptCtx := ctx
	if f.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, f.config.RequestTimeout)
		defer cancel()
	}

	resp, err := f.transport.Do(attemptCtx, req)
	if err != nil {
		return f.classifyError(ctx, err)
	}
	return f.classifyResponse(resp)
}

// classifyError decides whether a transport failure is worth another attempt.
func (f *Fetcher) classifyError(ctx context.Context, err error) Outcome {
	switch {
	case ctx.Err() != nil:
		return Outcome{Kind: OutcomeFatalError, Err: fmt.Errorf("request canceled: %w", ctx.Err())}
	case errors.Is(err, insighterrors.ErrInvalidToken):
		return Outcome{Kind: OutcomeFatalError, Err: err}
	case errors.Is(err, errThrottled):
		return Outcome{Kind: OutcomeTransientError, Err: fmt.Errorf("%w: %w", insighterrors.ErrRateLimit, err)}
	case f.inspector.IsTimeoutError(err), f.inspector.IsNetworkError(err):
		return Outcome{Kind: OutcomeTransientError, Err: fmt.Errorf("%w: %w", insighterrors.ErrNetworkFailure, err)}
	default:
		return Outcome{Kind: OutcomeFatalError, Err: fmt.Errorf("request failed: %w", err)}
	}
}

// envelope is the top level of every GraphQL response.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// classifyResponse checks the status, then "errors", then "data".
func (f *Fetcher) classifyResponse(resp *Response) Outcome {
	code := resp.StatusCode
	switch {
	case code == http.StatusTooManyRequests:
		return Outcome{Kind: OutcomeTransientError, Err: fmt.Errorf("%w: received status %d", insighterrors.ErrRateLimit, code)}
	case giterror.IsTransientStatus(code):
		return Outcome{Kind: OutcomeTransientError, Err: fmt.Errorf("%w: received status %d", insighterrors.ErrNetworkFailure, code)}
	case code == http.StatusForbidden && f.inspector.IsRateLimitError(errors.New(string(resp.Body))):
		return Outcome{Kind: OutcomeTransientError, Err: fmt.Errorf("%w: received status %d", insighterrors.ErrRateLimit, code)}
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return Outcome{Kind: OutcomeFatalError, Err: fmt.Errorf("GitHub API authentication failed (status %d): %w", code, insighterrors.ErrInvalidToken)}
	case code < 200 || code > 299:
		return Outcome{Kind: OutcomeFatalError, Err: fmt.Errorf("%w: received status %d", insighterrors.ErrUnexpectedStatus, code)}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return Outcome{Kind: OutcomeFatalError, Err: fmt.Errorf("%w: failed to decode response: %v", insighterrors.ErrSchema, err)}
	}
	if len(env.Errors) > 0 {
		return Outcome{Kind: OutcomeApplicationError, Err: &ApplicationError{Errors: env.Errors}}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return Outcome{Kind: OutcomeFatalError, Err: fmt.Errorf("%w: response has no data", insighterrors.ErrSchema)}
	}

	return Outcome{Kind: OutcomeSuccess, Data: env.Data}
}

// sleepContext waits for d with context cancellation support.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
