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

package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/sirseerhq/sirseer-insight/internal/github"
	"github.com/sirseerhq/sirseer-insight/internal/metrics"
)

// column renders one CSV cell of a record.
type column struct {
	name  string
	value func(*metrics.Record) string
}

var repositoryColumns = []column{
	{"name", func(r *metrics.Record) string { return r.Name }},
	{"owner", func(r *metrics.Record) string { return r.Owner }},
	{"url", func(r *metrics.Record) string { return r.URL }},
	{"description", func(r *metrics.Record) string { return r.Description }},
	{"language", func(r *metrics.Record) string { return r.Language }},
	{"stars", func(r *metrics.Record) string { return strconv.Itoa(r.Stars) }},
	{"forks", func(r *metrics.Record) string { return strconv.Itoa(r.Forks) }},
	{"issues", func(r *metrics.Record) string { return strconv.Itoa(r.Issues) }},
	{"closed_issues", func(r *metrics.Record) string { return strconv.Itoa(r.ClosedIssues) }},
	{"issue_ratio", func(r *metrics.Record) string { return formatFloat(r.IssueRatio) }},
	{"pull_requests", func(r *metrics.Record) string { return strconv.Itoa(r.PullRequests) }},
	{"merged_pull_requests", func(r *metrics.Record) string { return strconv.Itoa(r.MergedPullRequests) }},
	{"releases", func(r *metrics.Record) string { return strconv.Itoa(r.Releases) }},
	{"commits", func(r *metrics.Record) string { return strconv.Itoa(r.Commits) }},
	{"engagement_score", func(r *metrics.Record) string { return strconv.Itoa(r.EngagementScore) }},
	{"created_at", func(r *metrics.Record) string { return formatTime(&r.CreatedAt) }},
	{"updated_at", func(r *metrics.Record) string { return formatTime(&r.UpdatedAt) }},
}

var pullRequestColumns = []column{
	{"repository", func(r *metrics.Record) string { return r.Repository }},
	{"number", func(r *metrics.Record) string { return strconv.Itoa(r.Number) }},
	{"title", func(r *metrics.Record) string { return r.Title }},
	{"url", func(r *metrics.Record) string { return r.URL }},
	{"author", func(r *metrics.Record) string { return r.Author }},
	{"created_at", func(r *metrics.Record) string { return formatTime(&r.CreatedAt) }},
	{"closed_at", func(r *metrics.Record) string { return formatTime(r.ClosedAt) }},
	{"merged_at", func(r *metrics.Record) string { return formatTime(r.MergedAt) }},
	{"review_time_hours", func(r *metrics.Record) string { return formatFloat(r.ReviewTimeHours) }},
	{"body_length", func(r *metrics.Record) string { return strconv.Itoa(r.BodyLength) }},
	{"additions", func(r *metrics.Record) string { return strconv.Itoa(r.Additions) }},
	{"deletions", func(r *metrics.Record) string { return strconv.Itoa(r.Deletions) }},
	{"changed_files", func(r *metrics.Record) string { return strconv.Itoa(r.ChangedFiles) }},
	{"reviews", func(r *metrics.Record) string { return strconv.Itoa(r.Reviews) }},
	{"comments", func(r *metrics.Record) string { return strconv.Itoa(r.Comments) }},
	{"participants", func(r *metrics.Record) string { return strconv.Itoa(r.Participants) }},
}

// Columns returns the CSV header for a record kind.
func Columns(kind github.Kind) ([]string, error) {
	cols, err := columnsFor(kind)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names, nil
}

func columnsFor(kind github.Kind) ([]column, error) {
	switch kind {
	case github.KindRepository:
		return repositoryColumns, nil
	case github.KindPullRequest:
		return pullRequestColumns, nil
	default:
		return nil, fmt.Errorf("no CSV layout for record kind %q", kind)
	}
}

// CSVWriter writes records of one kind as CSV rows. The header row is
// written before the first record, or on Close if no record was written.
type CSVWriter struct {
	mu          sync.Mutex
	kind        github.Kind
	columns     []column
	csv         *csv.Writer
	wroteHeader bool
	count       int
	closeFunc   func() error
}

// NewCSVWriter creates a CSV writer for records of the given kind.
func NewCSVWriter(w io.Writer, kind github.Kind) (*CSVWriter, error) {
	cols, err := columnsFor(kind)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{
		kind:    kind,
		columns: cols,
		csv:     csv.NewWriter(w),
	}, nil
}

// Write writes one record as a CSV row and flushes it.
func (w *CSVWriter) Write(record metrics.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if record.Kind != w.kind {
		return fmt.Errorf("cannot write %s record to %s CSV", record.Kind, w.kind)
	}
	if err := w.writeHeader(); err != nil {
		return err
	}

	row := make([]string, len(w.columns))
	for i, c := range w.columns {
		row[i] = c.value(&record)
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	w.count++
	return nil
}

func (w *CSVWriter) writeHeader() error {
	if w.wroteHeader {
		return nil
	}
	header := make([]string, len(w.columns))
	for i, c := range w.columns {
		header[i] = c.name
	}
	if err := w.csv.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.wroteHeader = true
	return nil
}

// Count returns the number of records written.
func (w *CSVWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close writes the header if nothing else was written, flushes, and closes
// the underlying file when the writer owns one.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writeHeader(); err != nil {
		return err
	}
	w.csv.Flush()
	flushErr := w.csv.Error()

	if w.closeFunc != nil {
		closeErr := w.closeFunc()
		w.closeFunc = nil
		if flushErr == nil {
			flushErr = closeErr
		}
	}
	return flushErr
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatTime renders RFC 3339 in UTC, empty for a missing or zero time.
func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
