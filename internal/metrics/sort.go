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
	"fmt"
	"sort"
	"strings"

	"github.com/sirseerhq/sirseer-insight/internal/github"
)

// SortKey names a metric a ResultCollection can be ranked by.
type SortKey string

// Supported sort keys.
const (
	SortNone       SortKey = ""
	SortEngagement SortKey = "engagement"
	SortIssueRatio SortKey = "issue-ratio"
	SortStars      SortKey = "stars"
	SortForks      SortKey = "forks"
	SortReviewTime SortKey = "review-time"
	SortBodyLength SortKey = "body-length"
)

var sortValues = map[SortKey]func(*Record) float64{
	SortEngagement: func(r *Record) float64 { return float64(r.EngagementScore) },
	SortIssueRatio: func(r *Record) float64 { return r.IssueRatio },
	SortStars:      func(r *Record) float64 { return float64(r.Stars) },
	SortForks:      func(r *Record) float64 { return float64(r.Forks) },
	SortReviewTime: func(r *Record) float64 { return r.ReviewTimeHours },
	SortBodyLength: func(r *Record) float64 { return float64(r.BodyLength) },
}

// sortKeysByKind lists the keys that rank records of each kind, in the
// order they are suggested to the user.
var sortKeysByKind = map[github.Kind][]SortKey{
	github.KindRepository:  {SortEngagement, SortIssueRatio, SortStars, SortForks},
	github.KindPullRequest: {SortReviewTime, SortBodyLength},
}

// ParseSortKey validates a user-supplied sort key for records of kind.
// A key that only ranks the other kind is rejected.
func ParseSortKey(s string, kind github.Kind) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if key == SortNone {
		return SortNone, nil
	}

	valid := sortKeysByKind[kind]
	for _, k := range valid {
		if k == key {
			return key, nil
		}
	}

	names := make([]string, len(valid))
	for i, k := range valid {
		names[i] = string(k)
	}
	return SortNone, fmt.Errorf("unknown sort key %q for %s records (want %s)", s, kind, strings.Join(names, ", "))
}

// Sort orders records by key, highest first. Ties keep arrival order.
// SortNone leaves the slice untouched.
func Sort(records []Record, key SortKey) {
	value, ok := sortValues[key]
	if !ok {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		return value(&records[i]) > value(&records[j])
	})
}
