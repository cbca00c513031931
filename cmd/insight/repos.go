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
	"github.com/sirseerhq/sirseer-insight/internal/collect"
	"github.com/sirseerhq/sirseer-insight/internal/github"
	"github.com/sirseerhq/sirseer-insight/internal/metadata"
	"github.com/spf13/cobra"
)

func newReposCommand(opts *globalOptions) *cobra.Command {
	var (
		flags  exportFlags
		minPRs int
	)

	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Collect popular repositories with engagement metrics",
		Long: `Search GitHub for repositories above a star threshold, most starred
first, and derive for each one:

  - engagement score: commits + merged pull requests + closed issues
  - issue ratio: closed issues / total issues

Results are exported as CSV (default) or NDJSON. When --output names a file,
a <output>.metadata.json run report is written next to it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepos(cmd, opts, &flags, minPRs)
		},
	}

	flags.register(cmd, "Sort descending by engagement, issue-ratio, stars or forks (default: API order)")
	cmd.Flags().IntVar(&minPRs, "min-prs", 0, "Exclude repositories with fewer pull requests")

	return cmd
}

// runRepos executes the repos command
func runRepos(cmd *cobra.Command, opts *globalOptions, flags *exportFlags, minPRs int) error {
	ctx, cfg, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	key, err := flags.apply(cmd, cfg, github.KindRepository)
	if err != nil {
		return err
	}
	token, err := opts.resolveToken(cfg)
	if err != nil {
		return err
	}

	collector, err := collect.New(cfg, token, metadata.New())
	if err != nil {
		return err
	}

	result, runErr := collector.Repositories(ctx, cfg.Fetch.RecordCap, minPRs)
	if runErr != nil && len(result.Records) == 0 {
		return runErr
	}

	params := baseParams(cfg, cfg.Fetch.PageSize.Repositories, key)
	if err := export(ctx, cmd, cfg, flags.outputPath(cfg), github.KindRepository,
		result.Records, key, collector.Tracker(), "repos", params); err != nil {
		return err
	}
	return outcomeError(runErr, len(result.Records), result.Cancelled)
}
