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

package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	insighterrors "github.com/sirseerhq/sirseer-insight/internal/errors"
	"github.com/sirseerhq/sirseer-insight/internal/github"
	"github.com/sirseerhq/sirseer-insight/internal/logging"
	"github.com/sirseerhq/sirseer-insight/internal/metrics"
)

// State is a step of the driver's state machine.
type State int

// Driver states. Done and Aborted are terminal.
const (
	StateStart State = iota
	StateFetching
	StateAccumulating
	StateDone
	StateAborted
)

// String returns the state name used in logs and reports.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFetching:
		return "fetching"
	case StateAccumulating:
		return "accumulating"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Source is one paginated connection: how to ask for a page and how to read it.
type Source interface {
	github.QueryBuilder
	github.Normalizer
}

// PageFetcher runs a request to a final outcome. *github.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, req *github.Request) github.Outcome
}

// Config parameterizes one run.
type Config struct {
	Filters  github.Filters
	PageSize int
	// RecordCap bounds the number of included records. Zero or negative
	// means no cap.
	RecordCap int
}

// Result is the ResultCollection of a run plus how the run ended.
type Result struct {
	// Records are the included records in arrival order.
	Records []metrics.Record
	// Pages is the number of pages normalized.
	Pages int
	// Attempts is the number of requests made, retries included.
	Attempts int
	// Excluded counts records dropped by the derivation policy.
	Excluded int
	// Truncated counts records dropped from the last page by the cap.
	Truncated int
	// State is StateDone or StateAborted.
	State State
	// Cancelled is set when the caller stopped the run early.
	Cancelled bool
	// Err is the abort cause; nil unless State is StateAborted.
	Err error
	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Incomplete reports whether the run aborted, making Records a partial result.
func (r *Result) Incomplete() bool {
	return r.State == StateAborted
}

// AbortError reports a run stopped by a failed page.
type AbortError struct {
	// Page is the 1-based number of the page that failed.
	Page int
	// Collected is the number of records kept from earlier pages.
	Collected int
	Err       error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("aborted at page %d with %d records collected: %v", e.Page, e.Collected, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// Driver owns one cursor and one result collection per Drive call. A Driver
// may run several Drive calls concurrently; runs share nothing.
type Driver struct {
	fetcher PageFetcher
	source  Source
	deriver *metrics.Deriver
}

// NewDriver creates a Driver over source.
func NewDriver(fetcher PageFetcher, source Source, deriver *metrics.Deriver) *Driver {
	return &Driver{
		fetcher: fetcher,
		source:  source,
		deriver: deriver,
	}
}

// Drive runs the state machine to a terminal state. The returned Result is
// never nil. On abort the error is an *AbortError and Result holds every
// record accumulated before the failing page. Cancellation is not an error:
// the run ends in StateDone with Cancelled set.
func (d *Driver) Drive(ctx context.Context, cfg Config) (*Result, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()
	result := &Result{State: StateStart}

	var (
		cursor string
		page   *github.Page
	)

	state := StateFetching
	for state != StateDone && state != StateAborted {
		switch state {
		case StateFetching:
			if ctx.Err() != nil {
				result.Cancelled = true
				state = StateDone
				continue
			}

			var err error
			page, err = d.fetchPage(ctx, cursor, cfg, result)
			switch {
			case err == nil:
				state = StateAccumulating
			case ctx.Err() != nil:
				result.Cancelled = true
				state = StateDone
			default:
				result.Err = &AbortError{Page: result.Pages + 1, Collected: len(result.Records), Err: err}
				state = StateAborted
			}

		case StateAccumulating:
			result.Pages++
			capped := d.accumulate(page, cfg.RecordCap, result)
			logger.Debug("page accumulated",
				"page", result.Pages, "records", len(result.Records), "has_next", page.HasNextPage)

			if capped || !page.HasNextPage {
				state = StateDone
				continue
			}
			if page.EndCursor == "" || page.EndCursor == cursor {
				result.Err = &AbortError{
					Page:      result.Pages,
					Collected: len(result.Records),
					Err:       fmt.Errorf("%w: got %q after %q", insighterrors.ErrCursorStalled, page.EndCursor, cursor),
				}
				state = StateAborted
				continue
			}
			cursor = page.EndCursor
			state = StateFetching
		}
	}

	result.State = state
	result.Elapsed = time.Since(start)

	if state == StateAborted {
		logger.Error("run aborted", "records", len(result.Records), "err", result.Err)
		return result, result.Err
	}
	if result.Cancelled {
		logger.Warn("run cancelled", "records", len(result.Records), "pages", result.Pages)
	}
	return result, nil
}

// fetchPage performs the Fetching step: build, fetch and normalize one page.
func (d *Driver) fetchPage(ctx context.Context, cursor string, cfg Config, result *Result) (*github.Page, error) {
	req, err := d.source.Build(cursor, cfg.PageSize, cfg.Filters)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	out := d.fetcher.Fetch(ctx, req)
	result.Attempts += out.Attempts
	if out.Kind != github.OutcomeSuccess {
		return nil, out.Err
	}

	return d.source.Normalize(out.Data)
}

// accumulate derives and appends the page's records, truncating at the cap.
// It reports whether the cap was reached.
func (d *Driver) accumulate(page *github.Page, recordCap int, result *Result) bool {
	for i, raw := range page.Records {
		if recordCap > 0 && len(result.Records) >= recordCap {
			result.Truncated += len(page.Records) - i
			return true
		}
		rec, ok := d.deriver.Derive(raw)
		if !ok {
			result.Excluded++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return recordCap > 0 && len(result.Records) >= recordCap
}

// IsAbort reports whether err came from an aborted run.
func IsAbort(err error) bool {
	var abort *AbortError
	return errors.As(err, &abort)
}
