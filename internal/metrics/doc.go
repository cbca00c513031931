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

// Package metrics derives ranking metrics from normalized GitHub records
// and applies the record-level inclusion policy.
//
// A Deriver turns each github.RawRecord into a Record carrying the raw
// counters plus four computed fields:
//
//   - EngagementScore: commits + merged pull requests + closed issues
//   - IssueRatio: closed issues / total issues, 0 when there are no issues
//   - ReviewTimeHours: hours between creation and close of a pull request
//   - BodyLength: characters in the pull request body
//
// Records failing the Policy are excluded rather than zeroed.
package metrics
