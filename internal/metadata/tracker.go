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

// Package metadata provides functionality for tracking and persisting
// metadata about collection runs. It records how each pagination run ended,
// the number of records kept, API calls made, and the date range covered.
//
// The metadata system serves several purposes:
//   - Makes partial results visible: every aborted run keeps its cause
//   - Enables troubleshooting by recording run parameters
//   - Records API usage for rate limit planning
//
// Metadata is saved as JSON next to the export, so external tools can tell
// a complete export from a partial one.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirseerhq/sirseer-insight/internal/metrics"
	"github.com/sirseerhq/sirseer-insight/internal/pagination"
)

const (
	// MethodVersion identifies the query and derivation scheme in use.
	MethodVersion = "graphql-cursor-derive-v1"

	// FileSuffix is appended to the export path to name the metadata file.
	FileSuffix = ".metadata.json"
)

// Tracker collects statistics across the pagination runs of one command.
// Runs may finish concurrently, so every method is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	runID     string
	startTime time.Time
	runs      []RunSummary
	stats     recordStats
}

// recordStats holds the running totals of exported records.
type recordStats struct {
	total  int
	oldest time.Time
	newest time.Time
}

// New creates a new metadata tracker with a fresh run ID and initializes it
// with the current time. Call this at the beginning of a command.
func New() *Tracker {
	return &Tracker{
		runID:     uuid.NewString(),
		startTime: time.Now(),
	}
}

// RunID returns the identifier stamped on this command's metadata.
func (t *Tracker) RunID() string {
	return t.runID
}

// RecordRun adds the outcome of one pagination run.
func (t *Tracker) RecordRun(source string, result *pagination.Result) {
	summary := RunSummary{
		Source:     source,
		State:      result.State.String(),
		Records:    len(result.Records),
		Pages:      result.Pages,
		Attempts:   result.Attempts,
		Excluded:   result.Excluded,
		Truncated:  result.Truncated,
		Cancelled:  result.Cancelled,
		Incomplete: result.Incomplete(),
		Duration:   result.Elapsed.Round(time.Millisecond).String(),
	}
	if result.Err != nil {
		summary.Error = result.Err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs = append(t.runs, summary)
}

// RecordFailure adds a run that could not start, such as a target whose
// query could not be built.
func (t *Tracker) RecordFailure(source string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs = append(t.runs, RunSummary{
		Source:     source,
		State:      pagination.StateAborted.String(),
		Incomplete: true,
		Error:      err.Error(),
		Duration:   "0s",
	})
}

// UpdateRecordStats updates the running totals with the exported records.
// It tracks the oldest creation date and the newest update date seen.
func (t *Tracker) UpdateRecordStats(records []metrics.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range records {
		r := &records[i]
		t.stats.total++
		if !r.CreatedAt.IsZero() && (t.stats.oldest.IsZero() || r.CreatedAt.Before(t.stats.oldest)) {
			t.stats.oldest = r.CreatedAt
		}
		newest := r.UpdatedAt
		if r.ClosedAt != nil && r.ClosedAt.After(newest) {
			newest = *r.ClosedAt
		}
		if newest.After(t.stats.newest) {
			t.stats.newest = newest
		}
	}
}

// GenerateMetadata creates a RunMetadata instance capturing every run
// recorded so far. Call this once all runs have finished.
//
// Parameters:
//   - insightVersion: The version of sirseer-insight (from version.Version)
//   - command: The command that ran ("repos" or "prs")
//   - params: The parameters used for this command
//
// Returns a complete metadata record ready for persistence.
func (t *Tracker) GenerateMetadata(insightVersion, command string, params RunParams) *RunMetadata {
	t.mu.Lock()
	defer t.mu.Unlock()

	completedAt := time.Now()
	runs := make([]RunSummary, len(t.runs))
	copy(runs, t.runs)

	results := RunResults{
		TotalRecords: t.stats.total,
		Duration:     completedAt.Sub(t.startTime).Round(time.Millisecond).String(),
		StartedAt:    t.startTime,
		CompletedAt:  completedAt,
	}
	for _, r := range runs {
		results.TotalPages += r.Pages
		results.APICallCount += r.Attempts
		if r.Incomplete {
			results.FailedRuns++
			results.Incomplete = true
		}
	}
	if !t.stats.oldest.IsZero() {
		oldest := t.stats.oldest
		results.OldestRecord = &oldest
	}
	if !t.stats.newest.IsZero() {
		newest := t.stats.newest
		results.NewestRecord = &newest
	}

	return &RunMetadata{
		InsightVersion: insightVersion,
		MethodVersion:  MethodVersion,
		RunID:          t.runID,
		Command:        command,
		Parameters:     params,
		Runs:           runs,
		Results:        results,
	}
}

// PathFor returns the metadata path belonging to an export file.
func PathFor(outputPath string) string {
	return outputPath + FileSuffix
}

// SaveMetadata persists a RunMetadata record to path as JSON. The file is
// written atomically using a temporary file and rename to prevent corruption.
//
// Returns an error if the save operation fails.
func SaveMetadata(metadata *RunMetadata, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	if err := WriteMetadataToWriter(metadata, file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		return fmt.Errorf("failed to save metadata file: %w", err)
	}

	return nil
}

// LoadMetadata reads a metadata file written by SaveMetadata.
func LoadMetadata(path string) (*RunMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	var metadata RunMetadata
	if err := json.NewDecoder(file).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &metadata, nil
}

// WriteMetadataToWriter serializes metadata to JSON and writes it to the
// provided io.Writer. The output is formatted with indentation for readability.
func WriteMetadataToWriter(metadata *RunMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}
