// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/walteh/vfsops/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

// NewListCmd creates the ls command
func NewListCmd(get Opts) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "ls [PATH]",
		Short: "List a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := get()
			ctx := cmd.Context()

			arg := "."
			if len(args) == 1 {
				arg = args[0]
			}
			fs, dir, err := o.Resolve(ctx, arg)
			if err != nil {
				return err
			}

			list := o.Explorer.List
			if refresh {
				list = o.Explorer.Refresh
			}
			items, err := list(ctx, fs, dir)
			if err != nil {
				return errors.Errorf("listing %s: %w", arg, err)
			}

			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-read the directory as an update of an open listing")

	return cmd
}

// NewFindCmd creates the find command
func NewFindCmd(get Opts) *cobra.Command {
	return &cobra.Command{
		Use:   "find ROOT PATTERN",
		Short: "Find paths below ROOT matching a doublestar pattern",
		Long: `Find walks ROOT and prints every item whose path relative to ROOT
matches PATTERN, for example "**/*.go" or "docs/*.md".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := get()
			ctx := cmd.Context()

			fs, root, err := o.Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			items, err := o.Explorer.Search(ctx, fs, root, args[1])
			if err != nil {
				return errors.Errorf("searching %s: %w", args[0], err)
			}

			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func printItems(w io.Writer, items []provider.Item) {
	for _, item := range items {
		if item.IsDir {
			fmt.Fprintf(w, "%10s  %s\n", "-", color.New(color.FgBlue, color.Bold).Sprint(item.Path+"/"))
			continue
		}
		fmt.Fprintf(w, "%10s  %s\n", humanize.Bytes(uint64(item.Size)), item.Path)
	}
}
