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

package metrics

import (
	"time"

	"github.com/sirseerhq/sirseer-insight/internal/github"
)

// Record is a derived repository or pull request record. It is created by
// Deriver.Derive from exactly one github.RawRecord and is not modified after.
// Fields that do not apply to the record's Kind hold their zero value.
type Record struct {
	Kind github.Kind `json:"kind"`
	Key  string      `json:"key"`

	Name        string `json:"name"`
	Owner       string `json:"owner"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`

	Stars              int `json:"stars,omitempty"`
	Forks              int `json:"forks,omitempty"`
	Issues             int `json:"issues,omitempty"`
	ClosedIssues       int `json:"closed_issues,omitempty"`
	PullRequests       int `json:"pull_requests,omitempty"`
	MergedPullRequests int `json:"merged_pull_requests,omitempty"`
	Releases           int `json:"releases,omitempty"`
	Commits            int `json:"commits,omitempty"`

	Repository   string `json:"repository,omitempty"`
	Number       int    `json:"number,omitempty"`
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Additions    int    `json:"additions,omitempty"`
	Deletions    int    `json:"deletions,omitempty"`
	ChangedFiles int    `json:"changed_files,omitempty"`
	Reviews      int    `json:"reviews,omitempty"`
	Comments     int    `json:"comments,omitempty"`
	Participants int    `json:"participants,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`

	EngagementScore int     `json:"engagement_score"`
	IssueRatio      float64 `json:"issue_ratio"`
	ReviewTimeHours float64 `json:"review_time_hours"`
	BodyLength      int     `json:"body_length"`
}

// IsRepository reports whether the record describes a repository.
func (r *Record) IsRepository() bool {
	return r.Kind == github.KindRepository
}
