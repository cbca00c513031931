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

// Package main implements the sirseer-insight command-line interface.
// It walks GitHub GraphQL connections page by page, derives metrics for
// every record and exports the result as CSV or NDJSON together with a
// JSON run report.
//
// Commands:
//   - repos: popular repositories with engagement and issue ratio
//   - prs: merged or closed pull requests of given or selected repositories
//   - info: pull request total of a single repository
//
// Usage:
//
//	sirseer-insight repos [flags]
//	sirseer-insight prs [owner/repo ...] [flags]
//	sirseer-insight info <owner>/<repo>
//
// Example:
//
//	export GITHUB_TOKEN=your_token
//	sirseer-insight repos --min-stars 1000 --sort engagement --output repos.csv
//	sirseer-insight prs golang/go --format ndjson --output prs.ndjson
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication, lookup, rate limit or rejected query
//   - 3: Network error or retries exhausted
//   - 4: Partial result written after a run aborted or was interrupted
package main
