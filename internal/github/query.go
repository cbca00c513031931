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
	"fmt"
	"strings"
)

// QueryBuilder renders the query for one page. Implementations are pure:
// the cursor and filter values travel as GraphQL variables, never spliced
// into the query text.
type QueryBuilder interface {
	Build(cursor string, pageSize int, filters Filters) (*Request, error)
}

// pullRequestStates is the set of PullRequestState enum values GitHub accepts.
var pullRequestStates = map[string]bool{
	"OPEN":   true,
	"CLOSED": true,
	"MERGED": true,
}

const repositorySearchQuery = `query($q: String!, $cursor: String) {
  search(query: $q, type: REPOSITORY, first: %d, after: $cursor) {
    pageInfo { hasNextPage endCursor }
    nodes {
      ... on Repository {
        name
        nameWithOwner
        description
        url
        stargazerCount
        forkCount
        createdAt
        updatedAt
        owner { login }
        primaryLanguage { name }
        issues { totalCount }
        closedIssues: issues(states: CLOSED) { totalCount }
        pullRequests { totalCount }
        mergedPullRequests: pullRequests(states: MERGED) { totalCount }
        releases { totalCount }
        defaultBranchRef { target { ... on Commit { history { totalCount } } } }
      }
    }
  }
}`

const pullRequestQuery = `query($owner: String!, $name: String!, $cursor: String) {
  repository(owner: $owner, name: $name) {
    nameWithOwner
    pullRequests(first: %d, after: $cursor%s, orderBy: {field: CREATED_AT, direction: DESC}) {
      pageInfo { hasNextPage endCursor }
      nodes {
        number
        title
        url
        bodyText
        createdAt
        updatedAt
        closedAt
        mergedAt
        additions
        deletions
        changedFiles
        author { login }
        reviews { totalCount }
        comments { totalCount }
        participants { totalCount }
      }
    }
  }
}`

// RepositorySearch lists repositories matching a star/language search,
// most starred first.
type RepositorySearch struct{}

// Build implements QueryBuilder.
func (RepositorySearch) Build(cursor string, pageSize int, filters Filters) (*Request, error) {
	if filters.MinStars < 0 {
		return nil, fmt.Errorf("minimum stars must not be negative, got: %d", filters.MinStars)
	}
	first := clampPageSize(pageSize, DefaultRepositoryPageSize)

	return &Request{
		Query: fmt.Sprintf(repositorySearchQuery, first),
		Variables: map[string]interface{}{
			"q":      SearchString(filters),
			"cursor": cursorVariable(cursor),
		},
	}, nil
}

// SearchString renders the repository search qualifiers,
// e.g. `stars:>100 language:Go sort:stars-desc`.
func SearchString(filters Filters) string {
	parts := []string{fmt.Sprintf("stars:>%d", filters.MinStars)}
	if lang := strings.TrimSpace(filters.Language); lang != "" {
		if strings.ContainsAny(lang, " \t") {
			lang = `"` + strings.ReplaceAll(lang, `"`, "") + `"`
		}
		parts = append(parts, "language:"+lang)
	}
	parts = append(parts, "sort:stars-desc")
	return strings.Join(parts, " ")
}

// PullRequests lists the pull requests of one repository, newest first.
type PullRequests struct{}

// Build implements QueryBuilder.
func (PullRequests) Build(cursor string, pageSize int, filters Filters) (*Request, error) {
	if filters.Owner == "" || filters.Repo == "" {
		return nil, fmt.Errorf("pull request query needs owner and repository, got %q/%q", filters.Owner, filters.Repo)
	}
	states, err := statesArgument(filters.States)
	if err != nil {
		return nil, err
	}
	first := clampPageSize(pageSize, DefaultPullRequestPageSize)

	return &Request{
		Query: fmt.Sprintf(pullRequestQuery, first, states),
		Variables: map[string]interface{}{
			"owner":  filters.Owner,
			"name":   filters.Repo,
			"cursor": cursorVariable(cursor),
		},
	}, nil
}

// ValidateStates reports the first state that is not a PullRequestState.
func ValidateStates(states []string) error {
	_, err := statesArgument(states)
	return err
}

// statesArgument renders `, states: [MERGED, CLOSED]` from validated enum values.
func statesArgument(states []string) (string, error) {
	if len(states) == 0 {
		return "", nil
	}
	values := make([]string, 0, len(states))
	for _, s := range states {
		v := strings.ToUpper(strings.TrimSpace(s))
		if !pullRequestStates[v] {
			return "", fmt.Errorf("unknown pull request state %q (want OPEN, CLOSED or MERGED)", s)
		}
		values = append(values, v)
	}
	return ", states: [" + strings.Join(values, ", ") + "]", nil
}

func clampPageSize(pageSize, fallback int) int {
	if pageSize <= 0 {
		return fallback
	}
	if pageSize > MaxPageSize {
		return MaxPageSize
	}
	return pageSize
}

// cursorVariable maps the start-of-sequence cursor to JSON null.
func cursorVariable(cursor string) interface{} {
	if cursor == "" {
		return nil
	}
	return cursor
}
