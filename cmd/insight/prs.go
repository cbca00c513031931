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
	"errors"
	"fmt"
	"strings"

	"github.com/sirseerhq/sirseer-insight/internal/collect"
	"github.com/sirseerhq/sirseer-insight/internal/github"
	"github.com/sirseerhq/sirseer-insight/internal/logging"
	"github.com/sirseerhq/sirseer-insight/internal/metadata"
	"github.com/spf13/cobra"
)

// defaultTop matches the number of popular repositories studied per run.
const defaultTop = 200

type prsFlags struct {
	exportFlags
	top            int
	states         []string
	minReviewHours float64
	minPRs         int
}

func newPRsCommand(opts *globalOptions) *cobra.Command {
	var flags prsFlags

	cmd := &cobra.Command{
		Use:   "prs [<owner>/<repo> ...]",
		Short: "Collect pull requests with code review metrics",
		Long: `Collect the pull requests of each repository given on the command line.
Without arguments, the --top most starred repositories with at least
policy.min_pull_requests pull requests are selected first.

For every pull request the review time (closedAt - createdAt, in hours) and
the body length are derived. Pull requests reviewed faster than
--min-review-hours, or never closed, are excluded.

Repositories are collected concurrently (fetch.concurrency). A repository
that fails does not stop the others; its records collected so far are kept
and the command exits with code 4.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPRs(cmd, opts, &flags, args)
		},
	}

	flags.register(cmd, "Sort descending by review-time or body-length (default: per repository, newest first)")
	cmd.Flags().IntVar(&flags.top, "top", defaultTop, "Number of repositories to select when none are given")
	cmd.Flags().StringSliceVar(&flags.states, "states", nil, "Pull request states: OPEN, CLOSED, MERGED (default from config)")
	cmd.Flags().Float64Var(&flags.minReviewHours, "min-review-hours", 0, "Exclude pull requests closed faster than this (default from config)")
	cmd.Flags().IntVar(&flags.minPRs, "min-prs", 0, "Pull requests a selected repository needs (default from config)")

	return cmd
}

// runPRs executes the prs command
func runPRs(cmd *cobra.Command, opts *globalOptions, flags *prsFlags, args []string) error {
	targets := make([]collect.Target, 0, len(args))
	for _, arg := range args {
		target, err := collect.ParseTarget(arg)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}

	ctx, cfg, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("states") {
		cfg.Filters.States = make([]string, len(flags.states))
		for i, s := range flags.states {
			cfg.Filters.States[i] = strings.ToUpper(strings.TrimSpace(s))
		}
	}
	if cmd.Flags().Changed("min-review-hours") {
		cfg.Policy.MinReviewHours = flags.minReviewHours
	}
	if cmd.Flags().Changed("min-prs") {
		cfg.Policy.MinPullRequests = flags.minPRs
	}
	key, err := flags.apply(cmd, cfg, github.KindPullRequest)
	if err != nil {
		return err
	}
	if len(targets) == 0 && flags.top < 1 {
		return fmt.Errorf("--top must be at least 1, got: %d", flags.top)
	}
	token, err := opts.resolveToken(cfg)
	if err != nil {
		return err
	}

	collector, err := collect.New(cfg, token, metadata.New())
	if err != nil {
		return err
	}
	logger := logging.FromContext(ctx)

	var selectErr error
	if len(targets) == 0 {
		selected, _, err := collector.SelectTargets(ctx, flags.top)
		if err != nil {
			if len(selected) == 0 {
				return fmt.Errorf("failed to select repositories: %w", err)
			}
			logger.Warn("Repository selection incomplete", "selected", len(selected), "err", err)
			selectErr = err
		}
		targets = selected
	}

	results := collector.PullRequests(ctx, targets)
	records, runErr := collect.Merge(results)
	runErr = errors.Join(selectErr, runErr)

	cancelled := false
	names := make([]string, len(targets))
	for i, r := range results {
		names[i] = r.Target.String()
		if r.Result != nil && r.Result.Cancelled {
			cancelled = true
		}
	}
	if runErr != nil && len(records) == 0 {
		return runErr
	}

	params := baseParams(cfg, cfg.Fetch.PageSize.PullRequests, key)
	params.States = cfg.Filters.States
	params.Targets = names

	if err := export(ctx, cmd, cfg, flags.outputPath(cfg), github.KindPullRequest,
		records, key, collector.Tracker(), "prs", params); err != nil {
		return err
	}
	return outcomeError(runErr, len(records), cancelled)
}
