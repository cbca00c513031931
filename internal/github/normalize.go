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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	insighterrors "github.com/sirseerhq/sirseer-insight/internal/errors"
)

// Normalizer turns the "data" object of a successful response into records.
// A node missing a required field rejects the whole page; absent optional
// fields resolve to zero values.
type Normalizer interface {
	Normalize(data json.RawMessage) (*Page, error)
}

// SchemaError reports a page that does not have the shape the query asked for.
type SchemaError struct {
	// Node is the index of the offending node, or -1 for the envelope.
	Node  int
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString(insighterrors.ErrSchema.Error())
	if e.Node >= 0 {
		b.WriteString(": node ")
		b.WriteString(strconv.Itoa(e.Node))
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": missing required field %q", e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap lets errors.Is match ErrSchema.
func (e *SchemaError) Unwrap() error {
	return insighterrors.ErrSchema
}

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

func (p *pageInfo) cursor() string {
	if p == nil || p.EndCursor == nil {
		return ""
	}
	return *p.EndCursor
}

type connectionCount struct {
	TotalCount int `json:"totalCount"`
}

// count returns the total, or 0 when the connection is absent.
func (c *connectionCount) count() int {
	if c == nil {
		return 0
	}
	return c.TotalCount
}

type login struct {
	Login string `json:"login"`
}

func (l *login) value() string {
	if l == nil {
		return ""
	}
	return l.Login
}

// branchRef is defaultBranchRef → target → history. Any level may be null:
// empty repositories have no default branch, and a target that is not a
// commit decodes without history.
type branchRef struct {
	Target *struct {
		History *connectionCount `json:"history"`
	} `json:"target"`
}

func (b *branchRef) commits() int {
	if b == nil || b.Target == nil {
		return 0
	}
	return b.Target.History.count()
}

type repositoryNode struct {
	Name               *string                `json:"name"`
	NameWithOwner      *string                `json:"nameWithOwner"`
	Description        *string                `json:"description"`
	URL                string                 `json:"url"`
	StargazerCount     int                    `json:"stargazerCount"`
	ForkCount          int                    `json:"forkCount"`
	CreatedAt          *time.Time             `json:"createdAt"`
	UpdatedAt          *time.Time             `json:"updatedAt"`
	Owner              *login                 `json:"owner"`
	PrimaryLanguage    *struct{ Name string } `json:"primaryLanguage"`
	Issues             *connectionCount       `json:"issues"`
	ClosedIssues       *connectionCount       `json:"closedIssues"`
	PullRequests       *connectionCount       `json:"pullRequests"`
	MergedPullRequests *connectionCount       `json:"mergedPullRequests"`
	Releases           *connectionCount       `json:"releases"`
	DefaultBranchRef   *branchRef             `json:"defaultBranchRef"`
}

type searchData struct {
	Search *struct {
		PageInfo *pageInfo        `json:"pageInfo"`
		Nodes    []repositoryNode `json:"nodes"`
	} `json:"search"`
}

// Normalize implements Normalizer for repository search pages.
func (RepositorySearch) Normalize(data json.RawMessage) (*Page, error) {
	var d searchData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &SchemaError{Node: -1, Err: err}
	}
	if d.Search == nil {
		return nil, &SchemaError{Node: -1, Field: "search"}
	}
	if d.Search.PageInfo == nil {
		return nil, &SchemaError{Node: -1, Field: "search.pageInfo"}
	}

	page := &Page{
		HasNextPage: d.Search.PageInfo.HasNextPage,
		EndCursor:   d.Search.PageInfo.cursor(),
		Records:     make([]RawRecord, 0, len(d.Search.Nodes)),
	}

	for i := range d.Search.Nodes {
		n := &d.Search.Nodes[i]
		if n.Name == nil || *n.Name == "" {
			return nil, &SchemaError{Node: i, Field: "name"}
		}
		if n.NameWithOwner == nil || *n.NameWithOwner == "" {
			return nil, &SchemaError{Node: i, Field: "nameWithOwner"}
		}

		owner := n.Owner.value()
		if owner == "" {
			owner, _, _ = strings.Cut(*n.NameWithOwner, "/")
		}

		rec := RawRecord{
			Kind:               KindRepository,
			Key:                *n.NameWithOwner,
			Name:               *n.Name,
			Owner:              owner,
			URL:                n.URL,
			Description:        stringOrEmpty(n.Description),
			Language:           NoLanguage,
			Stars:              n.StargazerCount,
			Forks:              n.ForkCount,
			Issues:             n.Issues.count(),
			ClosedIssues:       n.ClosedIssues.count(),
			PullRequests:       n.PullRequests.count(),
			MergedPullRequests: n.MergedPullRequests.count(),
			Releases:           n.Releases.count(),
			Commits:            n.DefaultBranchRef.commits(),
			CreatedAt:          timeOrZero(n.CreatedAt),
			UpdatedAt:          timeOrZero(n.UpdatedAt),
		}
		if n.PrimaryLanguage != nil {
			rec.Language = n.PrimaryLanguage.Name
		}
		page.Records = append(page.Records, rec)
	}

	return page, nil
}

type pullRequestNode struct {
	Number       *int             `json:"number"`
	Title        *string          `json:"title"`
	URL          string           `json:"url"`
	BodyText     *string          `json:"bodyText"`
	CreatedAt    *time.Time       `json:"createdAt"`
	UpdatedAt    *time.Time       `json:"updatedAt"`
	ClosedAt     *time.Time       `json:"closedAt"`
	MergedAt     *time.Time       `json:"mergedAt"`
	Additions    int              `json:"additions"`
	Deletions    int              `json:"deletions"`
	ChangedFiles int              `json:"changedFiles"`
	Author       *login           `json:"author"`
	Reviews      *connectionCount `json:"reviews"`
	Comments     *connectionCount `json:"comments"`
	Participants *connectionCount `json:"participants"`
}

type repositoryData struct {
	Repository *struct {
		NameWithOwner string `json:"nameWithOwner"`
		PullRequests  *struct {
			PageInfo *pageInfo         `json:"pageInfo"`
			Nodes    []pullRequestNode `json:"nodes"`
		} `json:"pullRequests"`
	} `json:"repository"`
}

// Normalize implements Normalizer for pull request pages.
func (PullRequests) Normalize(data json.RawMessage) (*Page, error) {
	var d repositoryData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &SchemaError{Node: -1, Err: err}
	}
	if d.Repository == nil {
		return nil, &SchemaError{Node: -1, Field: "repository"}
	}
	if d.Repository.NameWithOwner == "" {
		return nil, &SchemaError{Node: -1, Field: "repository.nameWithOwner"}
	}
	conn := d.Repository.PullRequests
	if conn == nil {
		return nil, &SchemaError{Node: -1, Field: "repository.pullRequests"}
	}
	if conn.PageInfo == nil {
		return nil, &SchemaError{Node: -1, Field: "repository.pullRequests.pageInfo"}
	}

	repo := d.Repository.NameWithOwner
	owner, name, _ := strings.Cut(repo, "/")
	page := &Page{
		HasNextPage: conn.PageInfo.HasNextPage,
		EndCursor:   conn.PageInfo.cursor(),
		Records:     make([]RawRecord, 0, len(conn.Nodes)),
	}

	for i := range conn.Nodes {
		n := &conn.Nodes[i]
		if n.Number == nil {
			return nil, &SchemaError{Node: i, Field: "number"}
		}

		page.Records = append(page.Records, RawRecord{
			Kind:         KindPullRequest,
			Key:          fmt.Sprintf("%s#%d", repo, *n.Number),
			Name:         name,
			Owner:        owner,
			Repository:   repo,
			Number:       *n.Number,
			Title:        stringOrEmpty(n.Title),
			URL:          n.URL,
			Body:         stringOrEmpty(n.BodyText),
			Author:       n.Author.value(),
			Additions:    n.Additions,
			Deletions:    n.Deletions,
			ChangedFiles: n.ChangedFiles,
			Reviews:      n.Reviews.count(),
			Comments:     n.Comments.count(),
			Participants: n.Participants.count(),
			CreatedAt:    timeOrZero(n.CreatedAt),
			UpdatedAt:    timeOrZero(n.UpdatedAt),
			ClosedAt:     n.ClosedAt,
			MergedAt:     n.MergedAt,
		})
	}

	return page, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
