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

// Package metadata types define the structures used for tracking and
// persisting information about collection runs. These types capture the
// parameters, per-run outcomes and totals needed to audit an export.
package metadata

import (
	"time"
)

// RunMetadata represents the complete metadata record for one command
// invocation. It captures what was asked for, how every pagination run
// ended, and the totals that reached the export.
type RunMetadata struct {
	InsightVersion string       `json:"insight_version"`
	MethodVersion  string       `json:"method_version"`
	RunID          string       `json:"run_id"`
	Command        string       `json:"command"`
	Output         string       `json:"output,omitempty"`
	Parameters     RunParams    `json:"parameters"`
	Runs           []RunSummary `json:"runs"`
	Results        RunResults   `json:"results"`
}

// RunParams captures the input parameters of a command so an export can
// be reproduced.
type RunParams struct {
	MinStars      int      `json:"min_stars,omitempty"`
	Language      string   `json:"language,omitempty"`
	States        []string `json:"states,omitempty"`
	Targets       []string `json:"targets,omitempty"`
	PageSize      int      `json:"page_size"`
	RecordCap     int      `json:"record_cap"`
	MaxAttempts   int      `json:"max_attempts"`
	BaseBackoffMS int      `json:"base_backoff_ms"`
	Sort          string   `json:"sort,omitempty"`
}

// RunSummary describes how one pagination run ended.
type RunSummary struct {
	// Source names the connection walked: "search" or "owner/name".
	Source     string `json:"source"`
	State      string `json:"state"`
	Records    int    `json:"records"`
	Pages      int    `json:"pages"`
	Attempts   int    `json:"attempts"`
	Excluded   int    `json:"excluded"`
	Truncated  int    `json:"truncated"`
	Cancelled  bool   `json:"cancelled"`
	Incomplete bool   `json:"incomplete"`
	Error      string `json:"error,omitempty"`
	Duration   string `json:"duration"`
}

// RunResults contains totals across every run of the command.
type RunResults struct {
	TotalRecords int        `json:"total_records"`
	TotalPages   int        `json:"total_pages"`
	APICallCount int        `json:"api_calls_made"`
	FailedRuns   int        `json:"failed_runs"`
	Incomplete   bool       `json:"incomplete"`
	OldestRecord *time.Time `json:"oldest_record_date,omitempty"`
	NewestRecord *time.Time `json:"newest_record_date,omitempty"`
	Duration     string     `json:"duration"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  time.Time  `json:"completed_at"`
}
