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
	"fmt"

	"github.com/sirseerhq/sirseer-insight/internal/collect"
	"github.com/sirseerhq/sirseer-insight/internal/metadata"
	"github.com/spf13/cobra"
)

func newInfoCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <owner>/<repo>",
		Short: "Show the number of merged or closed pull requests of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, opts, args[0])
		},
	}
}

// runInfo executes the info command
func runInfo(cmd *cobra.Command, opts *globalOptions, arg string) error {
	target, err := collect.ParseTarget(arg)
	if err != nil {
		return err
	}
	ctx, cfg, err := opts.setup(cmd)
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

	info, err := collector.Info().GetRepositoryInfo(ctx, target.Owner, target.Name)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stars, %d merged or closed pull requests\n",
		info.NameWithOwner, info.Stars, info.TotalPullRequests)
	return nil
}
