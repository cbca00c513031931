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
	"context"
	"fmt"
	"net/http"

	"github.com/shurcooL/graphql"
	insighterrors "github.com/sirseerhq/sirseer-insight/internal/errors"
	"github.com/sirseerhq/sirseer-insight/internal/giterror"
)

// RepositoryInfo contains basic repository metadata.
// Used to size pull request collection before it starts.
type RepositoryInfo struct {
	NameWithOwner     string
	Stars             int
	TotalPullRequests int
}

// InfoClient answers single-object lookups with typed queries. It shares the
// HTTP client of the Transport so credentials and throttling are the same.
type InfoClient struct {
	client    *graphql.Client
	inspector giterror.Inspector
}

// NewInfoClient creates an InfoClient for the given endpoint.
func NewInfoClient(httpClient *http.Client, endpoint string) *InfoClient {
	return &InfoClient{
		client:    graphql.NewClient(endpoint, httpClient),
		inspector: giterror.NewInspector(),
	}
}

// GetRepositoryInfo retrieves the repository's star count and the number of
// merged or closed pull requests, the population pull request collection walks.
func (c *InfoClient) GetRepositoryInfo(ctx context.Context, owner, repo string) (*RepositoryInfo, error) {
	var query struct {
		Repository struct {
			NameWithOwner  graphql.String
			StargazerCount graphql.Int
			PullRequests   struct {
				TotalCount graphql.Int
			} `graphql:"pullRequests(states: [MERGED, CLOSED])"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	variables := map[string]interface{}{
		"owner": graphql.String(owner),
		"repo":  graphql.String(repo),
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, c.mapError(err, owner, repo)
	}

	return &RepositoryInfo{
		NameWithOwner:     string(query.Repository.NameWithOwner),
		Stars:             int(query.Repository.StargazerCount),
		TotalPullRequests: int(query.Repository.PullRequests.TotalCount),
	}, nil
}

// mapError maps GraphQL errors to our domain errors with actionable messages
func (c *InfoClient) mapError(err error, owner, repo string) error {
	// Check rate limit first, as 403 can be both auth and rate limit
	if c.inspector.IsRateLimitError(err) {
		return fmt.Errorf("GitHub API rate limit exceeded. Please wait before retrying: %w", insighterrors.ErrRateLimit)
	}

	if c.inspector.IsAuthError(err) {
		return fmt.Errorf("GitHub API authentication failed. Please provide a valid token via --token flag or GITHUB_TOKEN environment variable: %w", insighterrors.ErrInvalidToken)
	}

	if c.inspector.IsNotFoundError(err) {
		return fmt.Errorf("repository '%s/%s' not found. Please check the repository name and your access permissions: %w", owner, repo, insighterrors.ErrRepoNotFound)
	}

	if c.inspector.IsNetworkError(err) {
		return fmt.Errorf("network error connecting to GitHub API. Please check your internet connection and try again: %w", insighterrors.ErrNetworkFailure)
	}

	return fmt.Errorf("failed to fetch repository info: %w", err)
}
