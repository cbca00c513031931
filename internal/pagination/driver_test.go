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
	"net/http"
	"testing"
	"time"

	insighterrors "github.com/sirseerhq/sirseer-insight/internal/errors"
	"github.com/sirseerhq/sirseer-insight/internal/github"
	"github.com/sirseerhq/sirseer-insight/internal/metrics"
	"github.com/sirseerhq/sirseer-insight/test/testutil"
)

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func newRepositoryDriver(responses ...github.MockResponse) (*Driver, *github.MockTransport) {
	transport := github.NewMockTransport(responses...)
	fetcher := github.NewFetcher(transport, github.RetryConfig{MaxAttempts: 3}, github.WithSleeper(noSleep))
	return NewDriver(fetcher, github.RepositorySearch{}, metrics.NewDeriver(metrics.DefaultPolicy())), transport
}

func okPages(pages []string) []github.MockResponse {
	out := make([]github.MockResponse, len(pages))
	for i, p := range pages {
		out[i] = github.OK(p)
	}
	return out
}

func TestDrive_Termination(t *testing.T) {
	driver, transport := newRepositoryDriver(okPages(testutil.GenerateRepositoryPages(3, 10))...)

	result, err := driver.Drive(context.Background(), Config{PageSize: 10, RecordCap: 1000})
	if err != nil {
		t.Fatalf("Drive() error = %v", err)
	}

	if result.State != StateDone {
		t.Errorf("State = %v, want done", result.State)
	}
	if len(result.Records) != 30 || result.Pages != 3 {
		t.Errorf("got %d records over %d pages, want 30 over 3", len(result.Records), result.Pages)
	}
	if transport.Calls() != 3 || result.Attempts != 3 {
		t.Errorf("calls = %d, attempts = %d, want 3", transport.Calls(), result.Attempts)
	}
	if result.Incomplete() || result.Cancelled {
		t.Error("complete run flagged incomplete or cancelled")
	}
}

func TestDrive_FollowsCursorChain(t *testing.T) {
	driver, transport := newRepositoryDriver(okPages(testutil.GenerateRepositoryPages(3, 2))...)

	if _, err := driver.Drive(context.Background(), Config{PageSize: 2}); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}

	want := []interface{}{nil, "cursor1", "cursor2"}
	reqs := transport.Requests()
	if len(reqs) != len(want) {
		t.Fatalf("got %d requests, want %d", len(reqs), len(want))
	}
	for i, req := range reqs {
		if got := req.Variables["cursor"]; got != want[i] {
			t.Errorf("request %d cursor = %v, want %v", i, got, want[i])
		}
	}
}

func TestDrive_CapTruncation(t *testing.T) {
	driver, transport := newRepositoryDriver(okPages(testutil.GenerateRepositoryPages(5, 10))...)

	result, err := driver.Drive(context.Background(), Config{PageSize: 10, RecordCap: 25})
	if err != nil {
		t.Fatalf("Drive() error = %v", err)
	}

	if len(result.Records) != 25 {
		t.Fatalf("got %d records, want 25", len(result.Records))
	}
	if transport.Calls() != 3 {
		t.Errorf("fetched %d pages, want 3", transport.Calls())
	}
	if result.Truncated != 5 {
		t.Errorf("Truncated = %d, want 5", result.Truncated)
	}
	// All of pages 1 and 2, then the first 5 of page 3, in arrival order.
	for i, rec := range result.Records {
		want := fmt.Sprintf("org%d/repo%d", i+1, i+1)
		if rec.Key != want {
			t.Errorf("record %d = %s, want %s", i, rec.Key, want)
		}
	}
}

func TestDrive_CapOnPageBoundary(t *testing.T) {
	driver, transport := newRepositoryDriver(okPages(testutil.GenerateRepositoryPages(5, 10))...)

	result, err := driver.Drive(context.Background(), Config{PageSize: 10, RecordCap: 20})
	if err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if len(result.Records) != 20 || transport.Calls() != 2 {
		t.Errorf("got %d records from %d pages, want 20 from 2", len(result.Records), transport.Calls())
	}
}

func TestDrive_PartialResultPreserved(t *testing.T) {
	pages := testutil.GenerateRepositoryPages(5, 10)
	driver, _ := newRepositoryDriver(
		github.OK(pages[0]),
		github.OK(pages[1]),
		github.Status(http.StatusUnauthorized),
	)

	result, err := driver.Drive(context.Background(), Config{PageSize: 10, RecordCap: 1000})

	var abort *AbortError
	if !errors.As(err, &abort) {
		t.Fatalf("expected AbortError, got %v", err)
	}
	if abort.Page != 3 || abort.Collected != 20 {
		t.Errorf("AbortError = page %d collected %d, want page 3 collected 20", abort.Page, abort.Collected)
	}
	if !errors.Is(err, insighterrors.ErrInvalidToken) {
		t.Errorf("abort cause %v should be ErrInvalidToken", err)
	}
	if result.State != StateAborted || !result.Incomplete() {
		t.Errorf("State = %v, want aborted", result.State)
	}
	if len(result.Records) != 20 {
		t.Errorf("got %d records, want exactly pages 1-2", len(result.Records))
	}
	if result.Records[19].Key != "org20/repo20" {
		t.Errorf("last record = %s", result.Records[19].Key)
	}
	if result.Err != err {
		t.Error("Result.Err should hold the returned error")
	}
}

func TestDrive_ApplicationErrorAborts(t *testing.T) {
	pages := testutil.GenerateRepositoryPages(2, 4)
	errPage := testutil.NewSearchResponseBuilder().WithError("INVALID", "invalid search qualifier").BuildJSON()
	driver, transport := newRepositoryDriver(github.OK(pages[0]), github.OK(errPage))

	result, err := driver.Drive(context.Background(), Config{PageSize: 4})

	var appErr *github.ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected ApplicationError cause, got %v", err)
	}
	if transport.Calls() != 2 {
		t.Errorf("transport called %d times, want 2 (no retry)", transport.Calls())
	}
	if len(result.Records) != 4 {
		t.Errorf("got %d records, want 4", len(result.Records))
	}
}

func TestDrive_SchemaErrorAborts(t *testing.T) {
	pages := testutil.GenerateRepositoryPages(2, 3)
	bad := testutil.NewSearchResponseBuilder().
		WithNodes(testutil.NewRepositoryBuilder("x", "y").Without("nameWithOwner").Build()).
		BuildJSON()
	driver, _ := newRepositoryDriver(github.OK(pages[0]), github.OK(bad))

	result, err := driver.Drive(context.Background(), Config{PageSize: 3})

	var schemaErr *github.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError cause, got %v", err)
	}
	if len(result.Records) != 3 {
		t.Errorf("got %d records, want 3 from the first page", len(result.Records))
	}
}

func TestDrive_TransientRetriedWithinPage(t *testing.T) {
	pages := testutil.GenerateRepositoryPages(2, 5)
	driver, transport := newRepositoryDriver(
		github.OK(pages[0]),
		github.Status(http.StatusBadGateway),
		github.OK(pages[1]),
	)

	result, err := driver.Drive(context.Background(), Config{PageSize: 5})
	if err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if len(result.Records) != 10 || result.Pages != 2 {
		t.Errorf("got %d records over %d pages", len(result.Records), result.Pages)
	}
	if result.Attempts != 3 || transport.Calls() != 3 {
		t.Errorf("Attempts = %d, calls = %d, want 3", result.Attempts, transport.Calls())
	}
}

func TestDrive_StalledCursorAborts(t *testing.T) {
	stalled := testutil.NewSearchResponseBuilder().
		WithNodes(testutil.NewRepositoryBuilder("a", "b").Build()).
		WithPagination(true, "").
		BuildJSON()
	driver, transport := newRepositoryDriver(github.OK(stalled))

	result, err := driver.Drive(context.Background(), Config{PageSize: 1})

	if !errors.Is(err, insighterrors.ErrCursorStalled) {
		t.Fatalf("expected ErrCursorStalled, got %v", err)
	}
	if transport.Calls() != 1 || len(result.Records) != 1 {
		t.Errorf("calls = %d, records = %d", transport.Calls(), len(result.Records))
	}
}

func TestDrive_ExcludedRecordsDoNotCountTowardCap(t *testing.T) {
	page := testutil.NewPullRequestResponseBuilder("o/r").
		WithNodes(
			testutil.NewPullRequestBuilder(1).WithReviewTime(30*time.Minute).Build(),
			testutil.NewPullRequestBuilder(2).WithReviewTime(2*time.Hour).Build(),
			testutil.NewPullRequestBuilder(3).Without("closedAt").Build(),
			testutil.NewPullRequestBuilder(4).WithReviewTime(90*time.Minute).Build(),
			testutil.NewPullRequestBuilder(5).WithReviewTime(5*time.Hour).Build(),
		).
		BuildJSON()

	transport := github.NewMockTransport(github.OK(page))
	fetcher := github.NewFetcher(transport, github.RetryConfig{MaxAttempts: 1})
	driver := NewDriver(fetcher, github.PullRequests{}, metrics.NewDeriver(metrics.DefaultPolicy()))

	result, err := driver.Drive(context.Background(), Config{
		Filters:   github.Filters{Owner: "o", Repo: "r"},
		PageSize:  5,
		RecordCap: 2,
	})
	if err != nil {
		t.Fatalf("Drive() error = %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(result.Records))
	}
	if result.Records[0].Number != 2 || result.Records[1].Number != 4 {
		t.Errorf("kept #%d and #%d, want #2 and #4", result.Records[0].Number, result.Records[1].Number)
	}
	if result.Excluded != 2 || result.Truncated != 1 {
		t.Errorf("Excluded = %d, Truncated = %d, want 2 and 1", result.Excluded, result.Truncated)
	}
}

// cancellingFetcher cancels the run once it has served `after` pages.
type cancellingFetcher struct {
	inner  PageFetcher
	after  int
	cancel context.CancelFunc
	served int
}

func (c *cancellingFetcher) Fetch(ctx context.Context, req *github.Request) github.Outcome {
	out := c.inner.Fetch(ctx, req)
	c.served++
	if c.served == c.after {
		c.cancel()
	}
	return out
}

func TestDrive_CancellationIsGraceful(t *testing.T) {
	transport := github.NewMockTransport(okPages(testutil.GenerateRepositoryPages(5, 10))...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &cancellingFetcher{
		inner:  github.NewFetcher(transport, github.RetryConfig{MaxAttempts: 1}),
		after:  2,
		cancel: cancel,
	}
	driver := NewDriver(fetcher, github.RepositorySearch{}, metrics.NewDeriver(metrics.DefaultPolicy()))

	result, err := driver.Drive(ctx, Config{PageSize: 10})
	if err != nil {
		t.Fatalf("cancellation should not be an error, got %v", err)
	}
	if result.State != StateDone || !result.Cancelled {
		t.Errorf("State = %v, Cancelled = %v, want done and cancelled", result.State, result.Cancelled)
	}
	if len(result.Records) != 20 {
		t.Errorf("got %d records, want 20", len(result.Records))
	}
	if transport.Calls() != 2 {
		t.Errorf("transport called %d times, want 2", transport.Calls())
	}
}

func TestDrive_CancelledBeforeStart(t *testing.T) {
	driver, transport := newRepositoryDriver(okPages(testutil.GenerateRepositoryPages(1, 1))...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := driver.Drive(ctx, Config{})
	if err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if !result.Cancelled || len(result.Records) != 0 || transport.Calls() != 0 {
		t.Errorf("Cancelled = %v, records = %d, calls = %d", result.Cancelled, len(result.Records), transport.Calls())
	}
}

func TestDrive_BuildErrorAborts(t *testing.T) {
	driver := NewDriver(github.NewFetcher(github.NewMockTransport(), github.DefaultRetryConfig()),
		github.PullRequests{}, metrics.NewDeriver(metrics.DefaultPolicy()))

	result, err := driver.Drive(context.Background(), Config{})
	if !IsAbort(err) {
		t.Fatalf("expected abort, got %v", err)
	}
	if result.State != StateAborted || result.Attempts != 0 {
		t.Errorf("State = %v, Attempts = %d", result.State, result.Attempts)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateStart:        "start",
		StateFetching:     "fetching",
		StateAccumulating: "accumulating",
		StateDone:         "done",
		StateAborted:      "aborted",
		State(9):          "state(9)",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("String() = %q, want %q", s.String(), want)
		}
	}
}
