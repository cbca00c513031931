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

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GitHub.GraphQLEndpoint != "https://api.github.com/graphql" {
		t.Errorf("GraphQLEndpoint = %s, want https://api.github.com/graphql", cfg.GitHub.GraphQLEndpoint)
	}
	if cfg.GitHub.TokenEnv != "GITHUB_TOKEN" {
		t.Errorf("TokenEnv = %s, want GITHUB_TOKEN", cfg.GitHub.TokenEnv)
	}

	if cfg.Filters.MinStars != 100 {
		t.Errorf("MinStars = %d, want 100", cfg.Filters.MinStars)
	}
	if !reflect.DeepEqual(cfg.Filters.States, []string{"MERGED", "CLOSED"}) {
		t.Errorf("States = %v, want [MERGED CLOSED]", cfg.Filters.States)
	}

	if cfg.Fetch.PageSize.Repositories != 10 || cfg.Fetch.PageSize.PullRequests != 50 {
		t.Errorf("PageSize = %+v, want 10/50", cfg.Fetch.PageSize)
	}
	if cfg.Fetch.RecordCap != 1000 {
		t.Errorf("RecordCap = %d, want 1000", cfg.Fetch.RecordCap)
	}
	if cfg.Fetch.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.Fetch.RequestTimeout)
	}
	if cfg.Fetch.Retry.MaxAttempts != 3 || cfg.Fetch.Retry.BaseBackoffMS != 1000 {
		t.Errorf("Retry = %+v, want 3 attempts / 1000ms", cfg.Fetch.Retry)
	}
	if cfg.Fetch.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Fetch.Concurrency)
	}

	if cfg.Policy.MinReviewHours != 1.0 || cfg.Policy.MinPullRequests != 100 {
		t.Errorf("Policy = %+v, want 1h / 100 PRs", cfg.Policy)
	}
	if cfg.Output.Format != FormatCSV {
		t.Errorf("Format = %s, want csv", cfg.Output.Format)
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
github:
  graphql_endpoint: https://github.enterprise.com/api/graphql
  token_env: GITHUB_ENTERPRISE_TOKEN

filters:
  min_stars: 500
  language: Rust
  states: [MERGED]

fetch:
  page_size:
    repositories: 20
    pull_requests: 25
  record_cap: 200
  request_timeout: 10s
  requests_per_second: 2.5
  concurrency: 8
  retry:
    max_attempts: 5
    base_backoff_ms: 250

policy:
  min_review_hours: 2
  min_pull_requests: 50

output:
  dir: /tmp/out
  format: ndjson

repositories:
  "org/repo":
    page_size: 10
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.GitHub.GraphQLEndpoint != "https://github.enterprise.com/api/graphql" {
		t.Errorf("GraphQLEndpoint = %s", cfg.GitHub.GraphQLEndpoint)
	}
	if cfg.GitHub.TokenEnv != "GITHUB_ENTERPRISE_TOKEN" {
		t.Errorf("TokenEnv = %s, want GITHUB_ENTERPRISE_TOKEN", cfg.GitHub.TokenEnv)
	}
	if cfg.Filters.MinStars != 500 || cfg.Filters.Language != "Rust" {
		t.Errorf("Filters = %+v", cfg.Filters)
	}
	if !reflect.DeepEqual(cfg.Filters.States, []string{"MERGED"}) {
		t.Errorf("States = %v, want [MERGED]", cfg.Filters.States)
	}
	if cfg.Fetch.PageSize.Repositories != 20 || cfg.Fetch.PageSize.PullRequests != 25 {
		t.Errorf("PageSize = %+v", cfg.Fetch.PageSize)
	}
	if cfg.Fetch.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.Fetch.RequestTimeout)
	}
	if cfg.Fetch.RequestsPerSecond != 2.5 || cfg.Fetch.Concurrency != 8 {
		t.Errorf("RequestsPerSecond = %v, Concurrency = %d", cfg.Fetch.RequestsPerSecond, cfg.Fetch.Concurrency)
	}
	if cfg.Fetch.Retry.MaxAttempts != 5 || cfg.Fetch.Retry.BaseBackoffMS != 250 {
		t.Errorf("Retry = %+v", cfg.Fetch.Retry)
	}
	if cfg.Policy.MinReviewHours != 2 || cfg.Policy.MinPullRequests != 50 {
		t.Errorf("Policy = %+v", cfg.Policy)
	}
	if cfg.Output.Dir != "/tmp/out" || cfg.Output.Format != FormatNDJSON {
		t.Errorf("Output = %+v", cfg.Output)
	}

	if repoConfig, ok := cfg.Repositories["org/repo"]; !ok {
		t.Error("Repository org/repo not found")
	} else if repoConfig.PageSize != 10 {
		t.Errorf("Repository PageSize = %d, want 10", repoConfig.PageSize)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("fetch: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadConfig_HomeLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".sirseer")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "insight.yaml"), []byte("filters:\n  min_stars: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Filters.MinStars != 7 {
		t.Errorf("MinStars = %d, want 7 from ~/.sirseer/insight.yaml", cfg.Filters.MinStars)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GITHUB_GRAPHQL_ENDPOINT", "https://custom.graphql.com")
	t.Setenv("INSIGHT_PAGE_SIZE", "75")
	t.Setenv("INSIGHT_RECORD_CAP", "0")
	t.Setenv("INSIGHT_MAX_ATTEMPTS", "6")
	t.Setenv("INSIGHT_BASE_BACKOFF_MS", "10")
	t.Setenv("INSIGHT_CONCURRENCY", "2")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.GitHub.GraphQLEndpoint != "https://custom.graphql.com" {
		t.Errorf("GraphQLEndpoint = %s, want https://custom.graphql.com", cfg.GitHub.GraphQLEndpoint)
	}
	if cfg.Fetch.PageSize.Repositories != 75 || cfg.Fetch.PageSize.PullRequests != 75 {
		t.Errorf("PageSize = %+v, want 75/75", cfg.Fetch.PageSize)
	}
	if cfg.Fetch.RecordCap != 0 {
		t.Errorf("RecordCap = %d, want 0", cfg.Fetch.RecordCap)
	}
	if cfg.Fetch.Retry.MaxAttempts != 6 || cfg.Fetch.Retry.BaseBackoffMS != 10 {
		t.Errorf("Retry = %+v", cfg.Fetch.Retry)
	}
	if cfg.Fetch.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Fetch.Concurrency)
	}
}

func TestEnvironmentOverrides_Invalid(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"INSIGHT_PAGE_SIZE", "zero"},
		{"INSIGHT_MAX_ATTEMPTS", "0"},
		{"INSIGHT_CONCURRENCY", "-2"},
		{"INSIGHT_RECORD_CAP", "lots"},
		{"INSIGHT_BASE_BACKOFF_MS", "1s"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv(tt.env, tt.value)

			_, err := LoadConfig("")
			if err == nil || !strings.Contains(err.Error(), tt.env) {
				t.Errorf("expected error naming %s, got %v", tt.env, err)
			}
		})
	}
}

func TestRepositoryRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Repositories = map[string]RepoConfig{
		"org/repo1": {PageSize: 25},
		"org/repo2": {RecordCap: 10},
		"org/repo3": {},
	}

	tests := []struct {
		repo     string
		wantSize int
		wantCap  int
	}{
		{"org/repo1", 25, 1000},
		{"org/repo2", 50, 10},
		{"org/repo3", 50, 1000},
		{"org/other", 50, 1000},
	}

	for _, tt := range tests {
		size, capacity := cfg.RepositoryRun(tt.repo)
		if size != tt.wantSize || capacity != tt.wantCap {
			t.Errorf("RepositoryRun(%s) = %d/%d, want %d/%d", tt.repo, size, capacity, tt.wantSize, tt.wantCap)
		}
	}
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.MinReviewHours = 1.5
	cfg.Filters.Language = "Go"

	retry := cfg.RetryConfig()
	if retry.MaxAttempts != 3 || retry.BaseBackoff != time.Second || retry.RequestTimeout != 30*time.Second {
		t.Errorf("RetryConfig() = %+v", retry)
	}

	policy := cfg.MetricsPolicy()
	if policy.MinReviewTime != 90*time.Minute {
		t.Errorf("MinReviewTime = %v, want 1h30m", policy.MinReviewTime)
	}
	if policy.MinPullRequests != 0 {
		t.Errorf("MinPullRequests = %d, want 0", policy.MinPullRequests)
	}

	search := cfg.SearchFilters()
	if search.MinStars != 100 || search.Language != "Go" || len(search.States) != 0 {
		t.Errorf("SearchFilters() = %+v", search)
	}

	prs := cfg.PullRequestFilters("golang", "go")
	if prs.Owner != "golang" || prs.Repo != "go" || len(prs.States) != 2 {
		t.Errorf("PullRequestFilters() = %+v", prs)
	}
	prs.States[0] = "OPEN"
	if cfg.Filters.States[0] != "MERGED" {
		t.Error("PullRequestFilters should copy the states slice")
	}
}

func TestToken(t *testing.T) {
	t.Setenv("CUSTOM_TOKEN", "secret")
	cfg := DefaultConfig()
	cfg.GitHub.TokenEnv = "CUSTOM_TOKEN"
	if got := cfg.Token(); got != "secret" {
		t.Errorf("Token() = %q, want secret", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "negative page size",
			modify:  func(c *Config) { c.Fetch.PageSize.Repositories = -1 },
			wantErr: "page size for repositories must be positive",
		},
		{
			name:    "page size too large",
			modify:  func(c *Config) { c.Fetch.PageSize.PullRequests = 150 },
			wantErr: "exceeds GitHub API limit of 100",
		},
		{
			name:    "repository page size too large",
			modify:  func(c *Config) { c.Repositories["org/big"] = RepoConfig{PageSize: 101} },
			wantErr: "for org/big exceeds",
		},
		{
			name:    "empty GraphQL endpoint",
			modify:  func(c *Config) { c.GitHub.GraphQLEndpoint = "" },
			wantErr: "GitHub GraphQL endpoint cannot be empty",
		},
		{
			name:    "zero attempts",
			modify:  func(c *Config) { c.Fetch.Retry.MaxAttempts = 0 },
			wantErr: "max_attempts must be at least 1",
		},
		{
			name:    "negative backoff",
			modify:  func(c *Config) { c.Fetch.Retry.BaseBackoffMS = -5 },
			wantErr: "base_backoff_ms must not be negative",
		},
		{
			name:    "unknown state",
			modify:  func(c *Config) { c.Filters.States = []string{"MERGED", "DRAFT"} },
			wantErr: "unknown pull request state",
		},
		{
			name:    "zero concurrency",
			modify:  func(c *Config) { c.Fetch.Concurrency = 0 },
			wantErr: "concurrency must be at least 1",
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "unknown output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() error = nil, want %s", tt.wantErr)
				} else if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Validate() error = %v, want containing %s", err, tt.wantErr)
				}
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := os.Getenv("HOME")
	if home == "" {
		home = os.Getenv("USERPROFILE")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%s) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParsePositiveInt(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"50", 50, false},
		{" 1 ", 1, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parsePositiveInt(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePositiveInt(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePositiveInt(%s) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
