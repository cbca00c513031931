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

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirseerhq/sirseer-insight/internal/config"
	insighterrors "github.com/sirseerhq/sirseer-insight/internal/errors"
	"github.com/sirseerhq/sirseer-insight/internal/github"
	"github.com/sirseerhq/sirseer-insight/internal/logging"
	"github.com/sirseerhq/sirseer-insight/internal/metadata"
	"github.com/sirseerhq/sirseer-insight/internal/metrics"
	"github.com/sirseerhq/sirseer-insight/internal/output"
	"github.com/sirseerhq/sirseer-insight/pkg/version"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	token      string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sirseer-insight",
		Short: "Collect GitHub repository and pull request metrics",
		Long: `SirSeer Insight walks GitHub's GraphQL API page by page, derives
engagement and code review metrics for every repository or pull request it
sees, and exports them as CSV or NDJSON with a JSON run report.`,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file path (default: .sirseer-insight.yaml or ~/.sirseer/insight.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", "", "GitHub personal access token (overrides the token environment variable)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every page and retry")

	rootCmd.AddCommand(newReposCommand(opts))
	rootCmd.AddCommand(newPRsCommand(opts))
	rootCmd.AddCommand(newInfoCommand(opts))

	return rootCmd
}

// setup loads the configuration and attaches a logger writing to the
// command's stderr to its context.
func (o *globalOptions) setup(cmd *cobra.Command) (context.Context, *config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(cmd.ErrOrStderr(), logging.Level(o.verbose))
	return logging.WithLogger(cmd.Context(), logger), cfg, nil
}

// resolveToken returns the token flag, falling back to the configured
// environment variable.
func (o *globalOptions) resolveToken(cfg *config.Config) (string, error) {
	if o.token != "" {
		return o.token, nil
	}
	if token := cfg.Token(); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("GitHub token not found. Set %s or use --token flag: %w", cfg.GitHub.TokenEnv, insighterrors.ErrInvalidToken)
}

// exportFlags are the flags shared by the collecting commands.
type exportFlags struct {
	output    string
	format    string
	sort      string
	recordCap int
	pageSize  int
	minStars  int
	language  string
}

func (f *exportFlags) register(cmd *cobra.Command, sortHelp string) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file path, relative to output.dir (default: stdout)")
	cmd.Flags().StringVar(&f.format, "format", "", "Output format: csv or ndjson (default from config)")
	cmd.Flags().StringVar(&f.sort, "sort", "", sortHelp)
	cmd.Flags().IntVar(&f.recordCap, "cap", 0, "Maximum records kept per run, 0 for no cap (default from config)")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "Records requested per page, 1-100 (default from config)")
	cmd.Flags().IntVar(&f.minStars, "min-stars", 0, "Only search repositories with more stars (default from config)")
	cmd.Flags().StringVar(&f.language, "language", "", "Only search repositories with this primary language")
}

// apply overrides cfg with the flags the user set and validates the result.
// It returns the parsed sort key.
func (f *exportFlags) apply(cmd *cobra.Command, cfg *config.Config, kind github.Kind) (metrics.SortKey, error) {
	flags := cmd.Flags()
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	// Flags also win over per-repository overrides.
	if flags.Changed("cap") {
		cfg.Fetch.RecordCap = f.recordCap
		for repo, rc := range cfg.Repositories {
			rc.RecordCap = 0
			cfg.Repositories[repo] = rc
		}
	}
	if flags.Changed("page-size") {
		if kind == github.KindRepository {
			cfg.Fetch.PageSize.Repositories = f.pageSize
		} else {
			cfg.Fetch.PageSize.PullRequests = f.pageSize
			for repo, rc := range cfg.Repositories {
				rc.PageSize = 0
				cfg.Repositories[repo] = rc
			}
		}
	}
	if flags.Changed("min-stars") {
		cfg.Filters.MinStars = f.minStars
	}
	if flags.Changed("language") {
		cfg.Filters.Language = f.language
	}

	if err := cfg.Validate(); err != nil {
		return metrics.SortNone, fmt.Errorf("invalid configuration: %w", err)
	}
	return metrics.ParseSortKey(f.sort, kind)
}

// outputPath resolves --output against output.dir. Empty means stdout.
func (f *exportFlags) outputPath(cfg *config.Config) string {
	switch {
	case f.output == "" || f.output == "-":
		return ""
	case filepath.IsAbs(f.output):
		return f.output
	}
	return filepath.Join(cfg.Output.Dir, f.output)
}

// export sorts and writes records, then saves the run report next to the
// output file. Stdout exports carry no report.
func export(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string, kind github.Kind,
	records []metrics.Record, key metrics.SortKey, tracker *metadata.Tracker, command string, params metadata.RunParams) error {
	logger := logging.FromContext(ctx)
	metrics.Sort(records, key)

	var (
		w   output.OutputWriter
		err error
	)
	if path == "" {
		w, err = output.New(cmd.OutOrStdout(), cfg.Output.Format, kind)
	} else {
		w, err = output.Create(path, cfg.Output.Format, kind)
	}
	if err != nil {
		return err
	}

	if err := output.WriteAll(w, records); err != nil {
		w.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	tracker.UpdateRecordStats(records)

	if path == "" {
		logger.Info("Export complete", "records", w.Count())
		return nil
	}

	meta := tracker.GenerateMetadata(version.Version, command, params)
	meta.Output = path
	metaPath := metadata.PathFor(path)
	if err := metadata.SaveMetadata(meta, metaPath); err != nil {
		return err
	}
	logger.Info("Export complete", "records", w.Count(), "output", path, "report", metaPath)
	return nil
}

// baseParams captures the settings every collecting command reports.
func baseParams(cfg *config.Config, pageSize int, key metrics.SortKey) metadata.RunParams {
	return metadata.RunParams{
		MinStars:      cfg.Filters.MinStars,
		Language:      cfg.Filters.Language,
		PageSize:      pageSize,
		RecordCap:     cfg.Fetch.RecordCap,
		MaxAttempts:   cfg.Fetch.Retry.MaxAttempts,
		BaseBackoffMS: cfg.Fetch.Retry.BaseBackoffMS,
		Sort:          string(key),
	}
}

// partialError reports that records were exported although at least one
// run did not finish.
type partialError struct {
	collected int
	err       error
}

func (e *partialError) Error() string {
	return fmt.Sprintf("partial result with %d records: %v", e.collected, e.err)
}

func (e *partialError) Unwrap() error {
	return e.err
}

// outcomeError turns the run outcome into the command error. Exported
// records after an abort or interruption make the result partial.
func outcomeError(err error, collected int, cancelled bool) error {
	switch {
	case err != nil && collected > 0:
		return &partialError{collected: collected, err: err}
	case err != nil:
		return err
	case cancelled:
		return &partialError{collected: collected, err: context.Canceled}
	}
	return nil
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	var partial *partialError
	if errors.As(err, &partial) {
		return 4 // Partial result
	}

	if errors.Is(err, insighterrors.ErrInvalidToken) ||
		errors.Is(err, insighterrors.ErrRepoNotFound) ||
		errors.Is(err, insighterrors.ErrRateLimit) ||
		errors.Is(err, insighterrors.ErrApplication) {
		return 2 // Authentication/authorization errors
	}

	if errors.Is(err, insighterrors.ErrNetworkFailure) ||
		errors.Is(err, insighterrors.ErrRetriesExhausted) {
		return 3 // Network errors
	}

	return 1 // General error
}
