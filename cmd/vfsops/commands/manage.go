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
	"github.com/spf13/cobra"
	"github.com/walteh/vfsops/pkg/transaction"
)

// NewRemoveCmd creates the rm command
func NewRemoveCmd(get Opts) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rm PATH...",
		Short: "Delete files and directories",
		Long: `Rm deletes each PATH. Directories with contents need --recursive.
The root of a source is never deleted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := get()
			ctx := cmd.Context()

			fs, paths, err := resolveAll(ctx, o, args)
			if err != nil {
				return err
			}

			return o.Track(ctx, "rm", func() (*transaction.Transaction, error) {
				return o.Explorer.Delete(ctx, fs, paths, recursive, o.Parallel)
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "delete directories and their contents")

	return cmd
}

// NewMakeDirCmd creates the mkdir command
func NewMakeDirCmd(get Opts) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir PATH...",
		Short: "Create directories and their parents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := get()
			ctx := cmd.Context()

			fs, paths, err := resolveAll(ctx, o, args)
			if err != nil {
				return err
			}

			return o.Track(ctx, "mkdir", func() (*transaction.Transaction, error) {
				return o.Explorer.MakeDir(ctx, fs, paths)
			})
		},
	}
}
