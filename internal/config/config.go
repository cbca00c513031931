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

// Package config provides configuration management for sirseer-insight with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Repository-specific configuration
//  4. Global configuration file
//  5. Built-in defaults
//
// Configuration files are YAML and are discovered in standard locations
// when no explicit path is given.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirseerhq/sirseer-insight/internal/github"
	"github.com/sirseerhq/sirseer-insight/internal/metrics"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .sirseer-insight.yaml (current directory)
//   - .sirseer-insight.yml (current directory)
//   - ~/.sirseer/insight.yaml
//   - ~/.sirseer/insight.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides. Path expansion (~ and environment variables) is performed
// on the output directory.
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".sirseer-insight.yaml",
			".sirseer-insight.yml",
			filepath.Join(os.Getenv("HOME"), ".sirseer", "insight.yaml"),
			filepath.Join(os.Getenv("HOME"), ".sirseer", "insight.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Output.Dir = expandPath(cfg.Output.Dir)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.Repositories == nil {
		cfg.Repositories = make(map[string]RepoConfig)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
// A malformed numeric value is an error rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	if endpoint := os.Getenv("GITHUB_GRAPHQL_ENDPOINT"); endpoint != "" {
		cfg.GitHub.GraphQLEndpoint = endpoint
	}

	if v := os.Getenv("INSIGHT_PAGE_SIZE"); v != "" {
		size, err := parsePositiveInt(v)
		if err != nil {
			return fmt.Errorf("INSIGHT_PAGE_SIZE: %w", err)
		}
		cfg.Fetch.PageSize.Repositories = size
		cfg.Fetch.PageSize.PullRequests = size
	}
	if v := os.Getenv("INSIGHT_RECORD_CAP"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("INSIGHT_RECORD_CAP: failed to parse integer from '%s': %w", v, err)
		}
		cfg.Fetch.RecordCap = n
	}
	if v := os.Getenv("INSIGHT_MAX_ATTEMPTS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return fmt.Errorf("INSIGHT_MAX_ATTEMPTS: %w", err)
		}
		cfg.Fetch.Retry.MaxAttempts = n
	}
	if v := os.Getenv("INSIGHT_BASE_BACKOFF_MS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("INSIGHT_BASE_BACKOFF_MS: failed to parse integer from '%s': %w", v, err)
		}
		cfg.Fetch.Retry.BaseBackoffMS = n
	}
	if v := os.Getenv("INSIGHT_CONCURRENCY"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return fmt.Errorf("INSIGHT_CONCURRENCY: %w", err)
		}
		cfg.Fetch.Concurrency = n
	}
	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// Token returns the GitHub token from the configured environment variable.
func (c *Config) Token() string {
	env := c.GitHub.TokenEnv
	if env == "" {
		env = "GITHUB_TOKEN"
	}
	return os.Getenv(env)
}

// RepositoryRun returns the page size and record cap for a pull request run
// against repo ("owner/name"), applying repository-specific overrides.
func (c *Config) RepositoryRun(repo string) (pageSize, recordCap int) {
	pageSize, recordCap = c.Fetch.PageSize.PullRequests, c.Fetch.RecordCap
	if repoConfig, ok := c.Repositories[repo]; ok {
		if repoConfig.PageSize > 0 {
			pageSize = repoConfig.PageSize
		}
		if repoConfig.RecordCap > 0 {
			recordCap = repoConfig.RecordCap
		}
	}
	return pageSize, recordCap
}

// RetryConfig converts the retry settings for the fetcher.
func (c *Config) RetryConfig() github.RetryConfig {
	return github.RetryConfig{
		MaxAttempts:    c.Fetch.Retry.MaxAttempts,
		BaseBackoff:    time.Duration(c.Fetch.Retry.BaseBackoffMS) * time.Millisecond,
		RequestTimeout: c.Fetch.RequestTimeout,
	}
}

// MetricsPolicy converts the policy thresholds for the deriver. The pull
// request floor is left to the caller, which applies it only when selecting
// target repositories.
func (c *Config) MetricsPolicy() metrics.Policy {
	hours := c.Policy.MinReviewHours
	return metrics.Policy{
		MinReviewTime: time.Duration(math.Round(hours * float64(time.Hour))),
	}
}

// SearchFilters converts the filter settings for repository search.
func (c *Config) SearchFilters() github.Filters {
	return github.Filters{
		MinStars: c.Filters.MinStars,
		Language: c.Filters.Language,
	}
}

// PullRequestFilters converts the filter settings for the pull requests of
// one repository.
func (c *Config) PullRequestFilters(owner, repo string) github.Filters {
	states := make([]string, len(c.Filters.States))
	copy(states, c.Filters.States)
	return github.Filters{
		States: states,
		Owner:  owner,
		Repo:   repo,
	}
}

// Validate checks if the configuration contains valid values. It ensures
// page sizes are within GitHub's limits, endpoints are not empty, and
// other constraints are met. This should be called after loading configuration
// to catch invalid settings early.
func (c *Config) Validate() error {
	if c.GitHub.GraphQLEndpoint == "" {
		return fmt.Errorf("GitHub GraphQL endpoint cannot be empty")
	}
	if err := validatePageSize("repositories", c.Fetch.PageSize.Repositories); err != nil {
		return err
	}
	if err := validatePageSize("pull_requests", c.Fetch.PageSize.PullRequests); err != nil {
		return err
	}
	for repo, rc := range c.Repositories {
		if rc.PageSize != 0 {
			if err := validatePageSize(repo, rc.PageSize); err != nil {
				return err
			}
		}
	}
	if c.Fetch.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1, got: %d", c.Fetch.Retry.MaxAttempts)
	}
	if c.Fetch.Retry.BaseBackoffMS < 0 {
		return fmt.Errorf("retry base_backoff_ms must not be negative, got: %d", c.Fetch.Retry.BaseBackoffMS)
	}
	if c.Fetch.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got: %s", c.Fetch.RequestTimeout)
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got: %d", c.Fetch.Concurrency)
	}
	if c.Filters.MinStars < 0 {
		return fmt.Errorf("min_stars must not be negative, got: %d", c.Filters.MinStars)
	}
	if err := github.ValidateStates(c.Filters.States); err != nil {
		return err
	}
	if c.Policy.MinReviewHours < 0 {
		return fmt.Errorf("min_review_hours must not be negative, got: %g", c.Policy.MinReviewHours)
	}
	switch c.Output.Format {
	case FormatCSV, FormatNDJSON:
	default:
		return fmt.Errorf("unknown output format %q (want csv or ndjson)", c.Output.Format)
	}
	return nil
}

func validatePageSize(name string, size int) error {
	if size <= 0 {
		return fmt.Errorf("page size for %s must be positive, got: %d", name, size)
	}
	if size > github.MaxPageSize {
		return fmt.Errorf("page size %d for %s exceeds GitHub API limit of %d", size, name, github.MaxPageSize)
	}
	return nil
}
