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
	"unicode/utf8"

	"github.com/sirseerhq/sirseer-insight/internal/github"
)

// DefaultMinReviewTime is the review time below which a pull request is
// treated as noise and excluded.
const DefaultMinReviewTime = time.Hour

// DefaultMinPullRequests is the pull request total a repository needs to be
// selected as a collection target.
const DefaultMinPullRequests = 100

// Policy holds the inclusion thresholds applied after derivation.
type Policy struct {
	// MinReviewTime excludes pull requests closed sooner after creation.
	// Pull requests without a close time are excluded as well.
	MinReviewTime time.Duration

	// MinPullRequests excludes repositories with fewer pull requests in total.
	// Zero keeps every repository.
	MinPullRequests int
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MinReviewTime:   DefaultMinReviewTime,
		MinPullRequests: 0,
	}
}

// Deriver computes derived fields and applies a Policy. It holds no state
// beyond its policy and is safe for concurrent use.
type Deriver struct {
	policy Policy
}

// NewDeriver creates a Deriver for the given policy.
func NewDeriver(policy Policy) *Deriver {
	return &Deriver{policy: policy}
}

// Policy returns the deriver's inclusion policy.
func (d *Deriver) Policy() Policy {
	return d.policy
}

// Derive builds the Record for raw. The second result is false when the
// record is excluded by the policy; the returned Record is then still fully
// populated so callers can log what was dropped.
func (d *Deriver) Derive(raw github.RawRecord) (Record, bool) {
	rec := Record{
		Kind:               raw.Kind,
		Key:                raw.Key,
		Name:               raw.Name,
		Owner:              raw.Owner,
		URL:                raw.URL,
		Description:        raw.Description,
		Language:           raw.Language,
		Stars:              raw.Stars,
		Forks:              raw.Forks,
		Issues:             raw.Issues,
		ClosedIssues:       raw.ClosedIssues,
		PullRequests:       raw.PullRequests,
		MergedPullRequests: raw.MergedPullRequests,
		Releases:           raw.Releases,
		Commits:            raw.Commits,
		Repository:         raw.Repository,
		Number:             raw.Number,
		Title:              raw.Title,
		Author:             raw.Author,
		Additions:          raw.Additions,
		Deletions:          raw.Deletions,
		ChangedFiles:       raw.ChangedFiles,
		Reviews:            raw.Reviews,
		Comments:           raw.Comments,
		Participants:       raw.Participants,
		CreatedAt:          raw.CreatedAt,
		UpdatedAt:          raw.UpdatedAt,
		ClosedAt:           raw.ClosedAt,
		MergedAt:           raw.MergedAt,
	}

	rec.EngagementScore = EngagementScore(raw)
	rec.IssueRatio = IssueRatio(raw.ClosedIssues, raw.Issues)
	rec.BodyLength = utf8.RuneCountInString(raw.Body)

	reviewTime, closed := ReviewTime(raw)
	rec.ReviewTimeHours = reviewTime.Hours()

	switch raw.Kind {
	case github.KindPullRequest:
		if !closed || reviewTime < d.policy.MinReviewTime {
			return rec, false
		}
	case github.KindRepository:
		if raw.PullRequests < d.policy.MinPullRequests {
			return rec, false
		}
	}
	return rec, true
}

// EngagementScore sums commits, merged pull requests and closed issues.
func EngagementScore(raw github.RawRecord) int {
	return raw.Commits + raw.MergedPullRequests + raw.ClosedIssues
}

// IssueRatio returns closed/total, or 0 when total is not positive.
func IssueRatio(closed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(closed) / float64(total)
}

// ReviewTime returns how long the record stayed open. The second result is
// false when either timestamp is missing, in which case the duration is 0.
func ReviewTime(raw github.RawRecord) (time.Duration, bool) {
	if raw.ClosedAt == nil || raw.ClosedAt.IsZero() || raw.CreatedAt.IsZero() {
		return 0, false
	}
	return raw.ClosedAt.Sub(raw.CreatedAt), true
}
