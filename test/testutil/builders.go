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

package testutil

import (
	"fmt"
	"time"
)

// BaseTime is the fixed instant builders count from, so generated pages are
// deterministic across runs.
var BaseTime = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// PullRequestBuilder provides a fluent API for creating pull request nodes
// as GitHub's GraphQL API returns them.
type PullRequestBuilder struct {
	number       int
	title        string
	body         *string
	author       *string
	createdAt    time.Time
	closedAt     *time.Time
	mergedAt     *time.Time
	additions    int
	deletions    int
	changedFiles int
	reviews      int
	comments     int
	participants int
	omit         map[string]bool
}

// NewPullRequestBuilder creates a PR builder with defaults: created at
// BaseTime and closed two hours later.
func NewPullRequestBuilder(number int) *PullRequestBuilder {
	body := fmt.Sprintf("This is the body of PR %d", number)
	author := fmt.Sprintf("user%d", number)
	closed := BaseTime.Add(2 * time.Hour)
	return &PullRequestBuilder{
		number:       number,
		title:        fmt.Sprintf("PR %d", number),
		body:         &body,
		author:       &author,
		createdAt:    BaseTime,
		closedAt:     &closed,
		additions:    10,
		deletions:    5,
		changedFiles: 2,
		reviews:      1,
		comments:     2,
		participants: 2,
		omit:         map[string]bool{},
	}
}

// WithTitle sets the PR title
func (b *PullRequestBuilder) WithTitle(title string) *PullRequestBuilder {
	b.title = title
	return b
}

// WithBody sets the PR body text
func (b *PullRequestBuilder) WithBody(body string) *PullRequestBuilder {
	b.body = &body
	return b
}

// WithoutBody makes bodyText null
func (b *PullRequestBuilder) WithoutBody() *PullRequestBuilder {
	b.body = nil
	return b
}

// WithoutAuthor makes author null, as GitHub does for deleted accounts
func (b *PullRequestBuilder) WithoutAuthor() *PullRequestBuilder {
	b.author = nil
	return b
}

// WithReviewTime sets closedAt relative to createdAt
func (b *PullRequestBuilder) WithReviewTime(d time.Duration) *PullRequestBuilder {
	closed := b.createdAt.Add(d)
	b.closedAt = &closed
	return b
}

// WithMergedAt marks the PR as merged at the given time
func (b *PullRequestBuilder) WithMergedAt(t time.Time) *PullRequestBuilder {
	b.mergedAt = &t
	if b.closedAt == nil {
		b.closedAt = &t
	}
	return b
}

// WithChanges sets the additions/deletions/files
func (b *PullRequestBuilder) WithChanges(additions, deletions, files int) *PullRequestBuilder {
	b.additions = additions
	b.deletions = deletions
	b.changedFiles = files
	return b
}

// WithActivity sets the review, comment and participant totals
func (b *PullRequestBuilder) WithActivity(reviews, comments, participants int) *PullRequestBuilder {
	b.reviews = reviews
	b.comments = comments
	b.participants = participants
	return b
}

// Without drops a field from the built node entirely
func (b *PullRequestBuilder) Without(field string) *PullRequestBuilder {
	b.omit[field] = true
	return b
}

// Build returns the node map
func (b *PullRequestBuilder) Build() map[string]interface{} {
	node := map[string]interface{}{
		"number":       b.number,
		"title":        b.title,
		"url":          fmt.Sprintf("https://github.com/octo/repo/pull/%d", b.number),
		"bodyText":     nullableString(b.body),
		"createdAt":    b.createdAt.Format(time.RFC3339),
		"updatedAt":    b.createdAt.Format(time.RFC3339),
		"closedAt":     nullableTime(b.closedAt),
		"mergedAt":     nullableTime(b.mergedAt),
		"additions":    b.additions,
		"deletions":    b.deletions,
		"changedFiles": b.changedFiles,
		"author":       nil,
		"reviews":      map[string]interface{}{"totalCount": b.reviews},
		"comments":     map[string]interface{}{"totalCount": b.comments},
		"participants": map[string]interface{}{"totalCount": b.participants},
	}
	if b.author != nil {
		node["author"] = map[string]interface{}{"login": *b.author}
	}
	for field := range b.omit {
		delete(node, field)
	}
	return node
}

// RepositoryBuilder provides a fluent API for creating repository search nodes.
type RepositoryBuilder struct {
	owner        string
	name         string
	stars        int
	forks        int
	language     *string
	issues       int
	closedIssues int
	pullRequests int
	mergedPRs    int
	releases     int
	commits      *int
	omit         map[string]bool
}

// NewRepositoryBuilder creates a repository builder with defaults.
func NewRepositoryBuilder(owner, name string) *RepositoryBuilder {
	lang := "Go"
	commits := 500
	return &RepositoryBuilder{
		owner:        owner,
		name:         name,
		stars:        1000,
		forks:        100,
		language:     &lang,
		issues:       40,
		closedIssues: 30,
		pullRequests: 150,
		mergedPRs:    120,
		releases:     10,
		commits:      &commits,
		omit:         map[string]bool{},
	}
}

// WithStars sets the stargazer count
func (b *RepositoryBuilder) WithStars(stars int) *RepositoryBuilder {
	b.stars = stars
	return b
}

// WithIssues sets total and closed issue counts
func (b *RepositoryBuilder) WithIssues(total, closed int) *RepositoryBuilder {
	b.issues = total
	b.closedIssues = closed
	return b
}

// WithPullRequests sets total and merged pull request counts
func (b *RepositoryBuilder) WithPullRequests(total, merged int) *RepositoryBuilder {
	b.pullRequests = total
	b.mergedPRs = merged
	return b
}

// WithCommits sets the default branch history length
func (b *RepositoryBuilder) WithCommits(commits int) *RepositoryBuilder {
	b.commits = &commits
	return b
}

// WithoutDefaultBranch makes defaultBranchRef null, as for empty repositories
func (b *RepositoryBuilder) WithoutDefaultBranch() *RepositoryBuilder {
	b.commits = nil
	return b
}

// WithoutLanguage makes primaryLanguage null
func (b *RepositoryBuilder) WithoutLanguage() *RepositoryBuilder {
	b.language = nil
	return b
}

// Without drops a field from the built node entirely
func (b *RepositoryBuilder) Without(field string) *RepositoryBuilder {
	b.omit[field] = true
	return b
}

// Build returns the node map
func (b *RepositoryBuilder) Build() map[string]interface{} {
	node := map[string]interface{}{
		"name":               b.name,
		"nameWithOwner":      b.owner + "/" + b.name,
		"description":        fmt.Sprintf("The %s project", b.name),
		"url":                fmt.Sprintf("https://github.com/%s/%s", b.owner, b.name),
		"stargazerCount":     b.stars,
		"forkCount":          b.forks,
		"createdAt":          BaseTime.AddDate(-3, 0, 0).Format(time.RFC3339),
		"updatedAt":          BaseTime.Format(time.RFC3339),
		"owner":              map[string]interface{}{"login": b.owner},
		"primaryLanguage":    nil,
		"issues":             map[string]interface{}{"totalCount": b.issues},
		"closedIssues":       map[string]interface{}{"totalCount": b.closedIssues},
		"pullRequests":       map[string]interface{}{"totalCount": b.pullRequests},
		"mergedPullRequests": map[string]interface{}{"totalCount": b.mergedPRs},
		"releases":           map[string]interface{}{"totalCount": b.releases},
		"defaultBranchRef":   nil,
	}
	if b.language != nil {
		node["primaryLanguage"] = map[string]interface{}{"name": *b.language}
	}
	if b.commits != nil {
		node["defaultBranchRef"] = map[string]interface{}{
			"target": map[string]interface{}{
				"history": map[string]interface{}{"totalCount": *b.commits},
			},
		}
	}
	for field := range b.omit {
		delete(node, field)
	}
	return node
}

// GraphQLResponseBuilder assembles a full response body around a set of nodes.
type GraphQLResponseBuilder struct {
	repository string
	nodes      []map[string]interface{}
	hasNext    bool
	cursor     string
	errors     []map[string]interface{}
}

// NewSearchResponseBuilder builds a repository search response.
func NewSearchResponseBuilder() *GraphQLResponseBuilder {
	return &GraphQLResponseBuilder{}
}

// NewPullRequestResponseBuilder builds a repository.pullRequests response.
func NewPullRequestResponseBuilder(nameWithOwner string) *GraphQLResponseBuilder {
	return &GraphQLResponseBuilder{repository: nameWithOwner}
}

// WithNodes appends nodes to the page
func (b *GraphQLResponseBuilder) WithNodes(nodes ...map[string]interface{}) *GraphQLResponseBuilder {
	b.nodes = append(b.nodes, nodes...)
	return b
}

// WithPagination sets the pageInfo envelope
func (b *GraphQLResponseBuilder) WithPagination(hasNext bool, cursor string) *GraphQLResponseBuilder {
	b.hasNext = hasNext
	b.cursor = cursor
	return b
}

// WithError adds an entry to the errors list
func (b *GraphQLResponseBuilder) WithError(errType, message string) *GraphQLResponseBuilder {
	b.errors = append(b.errors, map[string]interface{}{
		"type":    errType,
		"message": message,
	})
	return b
}

// Build returns the response map
func (b *GraphQLResponseBuilder) Build() map[string]interface{} {
	if len(b.errors) > 0 {
		return map[string]interface{}{"data": nil, "errors": b.errors}
	}

	nodes := b.nodes
	if nodes == nil {
		nodes = []map[string]interface{}{}
	}
	var cursor interface{}
	if b.cursor != "" {
		cursor = b.cursor
	}
	conn := map[string]interface{}{
		"pageInfo": map[string]interface{}{
			"hasNextPage": b.hasNext,
			"endCursor":   cursor,
		},
		"nodes": nodes,
	}

	if b.repository == "" {
		return map[string]interface{}{"data": map[string]interface{}{"search": conn}}
	}
	return map[string]interface{}{
		"data": map[string]interface{}{
			"repository": map[string]interface{}{
				"nameWithOwner": b.repository,
				"pullRequests":  conn,
			},
		},
	}
}

// BuildJSON returns the response as a JSON string
func (b *GraphQLResponseBuilder) BuildJSON() string {
	return MustJSON(b.Build())
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
