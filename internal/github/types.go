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

package github

import (
	"net/http"
	"time"
)

// Kind identifies which GitHub entity a record describes.
type Kind string

// Record kinds produced by the normalizers.
const (
	KindRepository  Kind = "repository"
	KindPullRequest Kind = "pull_request"
)

// Page size limits. GitHub rejects connections asking for more than 100 nodes.
const (
	MaxPageSize                = 100
	DefaultRepositoryPageSize  = 10
	DefaultPullRequestPageSize = 50
)

// NoLanguage marks a repository whose primary language GitHub could not detect.
const NoLanguage = ""

// Filters are the caller-declared criteria rendered into a query.
// Only the fields relevant to the query being built are consulted.
type Filters struct {
	// MinStars restricts repository search to repositories with more stars.
	MinStars int

	// Language restricts repository search to a primary language.
	// Empty means any language.
	Language string

	// States restricts pull requests to the given states (OPEN, CLOSED, MERGED).
	// Empty means all states.
	States []string

	// Owner and Repo identify the repository whose pull requests are listed.
	Owner string
	Repo  string
}

// Request is the JSON body posted to the GraphQL endpoint.
type Request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// Response is the raw result of one round trip. The body is fully read so
// an attempt is all-or-nothing.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RawRecord is one node of a page after normalization. Optional fields the
// API omitted hold their zero value; required fields are always set.
type RawRecord struct {
	Kind Kind

	// Key identifies the record within a run: "owner/name" for repositories,
	// "owner/name#number" for pull requests.
	Key string

	// Repository fields.
	Name               string
	Owner              string
	URL                string
	Description        string
	Language           string
	Stars              int
	Forks              int
	Issues             int
	ClosedIssues       int
	PullRequests       int
	MergedPullRequests int
	Releases           int
	Commits            int

	// Pull request fields.
	Repository   string
	Number       int
	Title        string
	Body         string
	Author       string
	Additions    int
	Deletions    int
	ChangedFiles int
	Reviews      int
	Comments     int
	Participants int

	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
	MergedAt  *time.Time
}

// Page is a normalized page of records plus its pagination envelope.
// EndCursor is meaningless when HasNextPage is false.
type Page struct {
	Records     []RawRecord
	HasNextPage bool
	EndCursor   string
}
