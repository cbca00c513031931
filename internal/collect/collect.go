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

package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sirseerhq/sirseer-insight/internal/config"
	insighterrors "github.com/sirseerhq/sirseer-insight/internal/errors"
	"github.com/sirseerhq/sirseer-insight/internal/github"
	"github.com/sirseerhq/sirseer-insight/internal/logging"
	"github.com/sirseerhq/sirseer-insight/internal/metadata"
	"github.com/sirseerhq/sirseer-insight/internal/metrics"
	"github.com/sirseerhq/sirseer-insight/internal/pagination"
	"golang.org/x/sync/errgroup"
)

// SearchSource names the repository search run in reports.
const SearchSource = "search"

// SelectionPageSize is the search page size used to pick pull request
// targets. Selection asks for the largest page regardless of the
// configured repository page size.
const SelectionPageSize = github.MaxPageSize

// InfoLookup answers repository totals before a pull request run.
// *github.InfoClient implements it.
type InfoLookup interface {
	GetRepositoryInfo(ctx context.Context, owner, repo string) (*github.RepositoryInfo, error)
}

// Target is a repository whose pull requests are collected.
type Target struct {
	Owner string
	Name  string
}

// String returns "owner/name".
func (t Target) String() string {
	return t.Owner + "/" + t.Name
}

// ParseTarget parses "owner/name".
func ParseTarget(s string) (Target, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Target{}, fmt.Errorf("invalid repository format %q: expected owner/repo", s)
	}
	return Target{Owner: owner, Name: name}, nil
}

// TargetResult is the outcome of one target's pull request run.
type TargetResult struct {
	Target Target
	// Info is nil when no lookup was configured or the lookup failed.
	Info   *github.RepositoryInfo
	Result *pagination.Result
	Err    error
}

// Collector runs pagination for the configured sources and records every
// run on its tracker.
type Collector struct {
	cfg     *config.Config
	fetcher pagination.PageFetcher
	info    InfoLookup
	tracker *metadata.Tracker
}

// New builds the production pipeline: an authenticated, throttled HTTP
// transport, a retrying fetcher over it, and a typed info client sharing
// the same HTTP client.
func New(cfg *config.Config, token string, tracker *metadata.Tracker) (*Collector, error) {
	transport, err := github.NewHTTPTransport(token, cfg.GitHub.GraphQLEndpoint,
		github.WithRequestsPerSecond(cfg.Fetch.RequestsPerSecond))
	if err != nil {
		return nil, err
	}

	fetcher := github.NewFetcher(transport, cfg.RetryConfig())
	info := github.NewInfoClient(transport.HTTPClient(), transport.Endpoint())
	return NewWithFetcher(cfg, fetcher, info, tracker), nil
}

// NewWithFetcher creates a Collector over an existing fetcher. info may be nil.
func NewWithFetcher(cfg *config.Config, fetcher pagination.PageFetcher, info InfoLookup, tracker *metadata.Tracker) *Collector {
	if tracker == nil {
		tracker = metadata.New()
	}
	return &Collector{
		cfg:     cfg,
		fetcher: fetcher,
		info:    info,
		tracker: tracker,
	}
}

// Tracker returns the tracker runs are recorded on.
func (c *Collector) Tracker() *metadata.Tracker {
	return c.tracker
}

// Info returns the repository lookup, or nil when none is configured.
func (c *Collector) Info() InfoLookup {
	return c.info
}

// Repositories runs the repository search. Repositories with fewer than
// minPullRequests pull requests are excluded; recordCap bounds the number
// kept. The result is never nil.
func (c *Collector) Repositories(ctx context.Context, recordCap, minPullRequests int) (*pagination.Result, error) {
	return c.search(ctx, c.cfg.Fetch.PageSize.Repositories, recordCap, minPullRequests)
}

func (c *Collector) search(ctx context.Context, pageSize, recordCap, minPullRequests int) (*pagination.Result, error) {
	logger := logging.FromContext(ctx).With("source", SearchSource)
	ctx = logging.WithLogger(ctx, logger)

	policy := c.cfg.MetricsPolicy()
	policy.MinPullRequests = minPullRequests

	driver := pagination.NewDriver(c.fetcher, github.RepositorySearch{}, metrics.NewDeriver(policy))
	logger.Info("Searching repositories", "query", github.SearchString(c.cfg.SearchFilters()), "cap", recordCap)

	progress := logging.NewProgress(logger)
	result, err := driver.Drive(ctx, pagination.Config{
		Filters:   c.cfg.SearchFilters(),
		PageSize:  pageSize,
		RecordCap: recordCap,
	})
	c.tracker.RecordRun(SearchSource, result)
	if err == nil {
		progress.Done(fmt.Sprintf("Collected %d repositories", len(result.Records)),
			"pages", result.Pages, "excluded", result.Excluded)
	}
	return result, err
}

// SelectTargets picks up to count popular repositories with at least the
// configured number of pull requests, most starred first.
func (c *Collector) SelectTargets(ctx context.Context, count int) ([]Target, *pagination.Result, error) {
	result, err := c.search(ctx, SelectionPageSize, count, c.cfg.Policy.MinPullRequests)

	targets := make([]Target, 0, len(result.Records))
	for _, rec := range result.Records {
		targets = append(targets, Target{Owner: rec.Owner, Name: rec.Name})
	}
	return targets, result, err
}

// PullRequests collects the pull requests of every target. Runs execute
// concurrently, at most fetch.concurrency at a time; results come back in
// target order. Per-target failures are reported in TargetResult.Err and
// never stop the other runs.
func (c *Collector) PullRequests(ctx context.Context, targets []Target) []TargetResult {
	logger := logging.FromContext(ctx)
	results := make([]TargetResult, len(targets))

	limit := c.cfg.Fetch.Concurrency
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, target := range targets {
		g.Go(func() error {
			results[i] = c.collectTarget(ctx, logger.With("repo", target.String()), target)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// collectTarget runs one target's pull request pagination.
func (c *Collector) collectTarget(ctx context.Context, logger *log.Logger, target Target) TargetResult {
	ctx = logging.WithLogger(ctx, logger)
	tr := TargetResult{Target: target}
	source := target.String()

	if c.info != nil {
		info, err := c.info.GetRepositoryInfo(ctx, target.Owner, target.Name)
		switch {
		case err == nil:
			tr.Info = info
			logger.Info("Collecting pull requests", "total", info.TotalPullRequests)
		case errors.Is(err, insighterrors.ErrRepoNotFound), errors.Is(err, insighterrors.ErrInvalidToken):
			logger.Error("Skipping repository", "err", err)
			tr.Err = err
			tr.Result = &pagination.Result{State: pagination.StateAborted, Err: err}
			c.tracker.RecordFailure(source, err)
			return tr
		default:
			logger.Warn("Repository lookup failed, collecting anyway", "err", err)
		}
	}

	pageSize, recordCap := c.cfg.RepositoryRun(source)
	driver := pagination.NewDriver(c.fetcher, github.PullRequests{}, metrics.NewDeriver(c.cfg.MetricsPolicy()))

	progress := logging.NewProgress(logger)
	result, err := driver.Drive(ctx, pagination.Config{
		Filters:   c.cfg.PullRequestFilters(target.Owner, target.Name),
		PageSize:  pageSize,
		RecordCap: recordCap,
	})
	c.tracker.RecordRun(source, result)

	tr.Result = result
	tr.Err = err
	if err == nil {
		progress.Done(fmt.Sprintf("Collected %d pull requests", len(result.Records)),
			"pages", result.Pages, "excluded", result.Excluded)
	}
	return tr
}

// Merge concatenates the records of every target in target order and
// reports the first failure, if any.
func Merge(results []TargetResult) ([]metrics.Record, error) {
	var (
		records []metrics.Record
		errs    []error
	)
	for _, r := range results {
		if r.Result != nil {
			records = append(records, r.Result.Records...)
		}
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Target, r.Err))
		}
	}
	return records, errors.Join(errs...)
}
