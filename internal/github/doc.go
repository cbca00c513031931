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

// Package github talks to GitHub's GraphQL API one page at a time. It
// renders queries, performs round trips, retries transient failures and
// normalizes response pages into flat records.
//
// The package includes:
//   - QueryBuilder implementations for repository search and pull requests
//   - An HTTP Transport with bearer auth, throttling and response size limits
//   - A Fetcher that retries transient failures with linear backoff and
//     classifies every response as success, application error or fatal error
//   - Normalizers that tolerate missing optional fields and reject pages
//     missing required ones
//   - A typed repository info lookup built on shurcooL/graphql
//   - A scripted MockTransport for tests
//
// Basic usage:
//
//	transport, err := github.NewHTTPTransport(token, "https://api.github.com/graphql")
//	if err != nil {
//	    // Handle error
//	}
//	fetcher := github.NewFetcher(transport, github.DefaultRetryConfig())
//	req, _ := github.RepositorySearch{}.Build("", 10, github.Filters{MinStars: 100})
//	out := fetcher.Fetch(ctx, req)
//	if out.Kind == github.OutcomeSuccess {
//	    page, err := github.RepositorySearch{}.Normalize(out.Data)
//	    // ...
//	}
package github
