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

// Package config types define the configuration structures used throughout
// sirseer-insight. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

import (
	"time"

	"github.com/sirseerhq/sirseer-insight/internal/github"
	"github.com/sirseerhq/sirseer-insight/internal/metrics"
)

// Config represents the complete configuration for sirseer-insight.
// It consolidates settings from various sources and provides a unified
// interface for accessing configuration values throughout the application.
type Config struct {
	GitHub       GitHubConfig          `yaml:"github"`
	Filters      FiltersConfig         `yaml:"filters"`
	Fetch        FetchConfig           `yaml:"fetch"`
	Policy       PolicyConfig          `yaml:"policy"`
	Output       OutputConfig          `yaml:"output"`
	Repositories map[string]RepoConfig `yaml:"repositories"`
}

// GitHubConfig contains GitHub-specific settings including the GraphQL
// endpoint and the environment variable holding the token. Point the
// endpoint at a GitHub Enterprise server to collect from it instead.
type GitHubConfig struct {
	GraphQLEndpoint string `yaml:"graphql_endpoint"`
	TokenEnv        string `yaml:"token_env"`
}

// FiltersConfig are the search criteria rendered into queries.
type FiltersConfig struct {
	MinStars int      `yaml:"min_stars"`
	Language string   `yaml:"language"`
	States   []string `yaml:"states"`
}

// FetchConfig controls paging, retry and request pacing.
type FetchConfig struct {
	PageSize PageSizeConfig `yaml:"page_size"`
	// RecordCap bounds the records kept per run. Zero means no cap.
	RecordCap         int           `yaml:"record_cap"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	// Concurrency bounds how many pull request runs are in flight at once.
	Concurrency int         `yaml:"concurrency"`
	Retry       RetryConfig `yaml:"retry"`
}

// PageSizeConfig holds one page size per connection.
type PageSizeConfig struct {
	Repositories int `yaml:"repositories"`
	PullRequests int `yaml:"pull_requests"`
}

// RetryConfig bounds retries of transient failures.
type RetryConfig struct {
	MaxAttempts   int `yaml:"max_attempts"`
	BaseBackoffMS int `yaml:"base_backoff_ms"`
}

// PolicyConfig holds the record inclusion thresholds.
type PolicyConfig struct {
	MinReviewHours  float64 `yaml:"min_review_hours"`
	MinPullRequests int     `yaml:"min_pull_requests"`
}

// OutputConfig selects where and how results are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// RepoConfig contains repository-specific overrides for pull request
// collection. This is useful for repositories with very large pull requests
// that need smaller pages, or for capping a single noisy repository.
type RepoConfig struct {
	PageSize  int `yaml:"page_size"`
	RecordCap int `yaml:"record_cap"`
}

// Output formats.
const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases. These defaults are tuned for public GitHub.com usage but
// can be overridden for GitHub Enterprise or special requirements.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
		},
		Filters: FiltersConfig{
			MinStars: 100,
			States:   []string{"MERGED", "CLOSED"},
		},
		Fetch: FetchConfig{
			PageSize: PageSizeConfig{
				Repositories: github.DefaultRepositoryPageSize,
				PullRequests: github.DefaultPullRequestPageSize,
			},
			RecordCap:      1000,
			RequestTimeout: 30 * time.Second,
			Concurrency:    4,
			Retry: RetryConfig{
				MaxAttempts:   3,
				BaseBackoffMS: 1000,
			},
		},
		Policy: PolicyConfig{
			MinReviewHours:  metrics.DefaultMinReviewTime.Hours(),
			MinPullRequests: metrics.DefaultMinPullRequests,
		},
		Output: OutputConfig{
			Dir:    ".",
			Format: FormatCSV,
		},
		Repositories: make(map[string]RepoConfig),
	}
}
