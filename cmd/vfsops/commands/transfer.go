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
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/vfsops/cmd/vfsops/opts"
	"github.com/walteh/vfsops/pkg/explorer"
	"github.com/walteh/vfsops/pkg/provider"
	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
)

// Opts returns the shared options once the root command has initialized them
type Opts func() *opts.RootOpts

// NewCopyCmd creates the copy command
func NewCopyCmd(get Opts) *cobra.Command {
	return newTransferCmd(get, "copy", "cp", "Copy files between sources", false)
}

// NewMoveCmd creates the move command
func NewMoveCmd(get Opts) *cobra.Command {
	return newTransferCmd(get, "move", "mv", "Move files between sources", true)
}

func newTransferCmd(get Opts, use, alias, short string, move bool) *cobra.Command {
	var copyOpts explorer.CopyOptions

	cmd := &cobra.Command{
		Use:     use + " SRC... DST",
		Aliases: []string{alias},
		Short:   short,
		Long: fmt.Sprintf(`%s each SRC into the directory DST.
Paths are written as source:path, where source is declared in the config
file. A path with no source is relative to the working directory.
Every file becomes one operation of a single transaction.`, short),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := get()
			ctx := cmd.Context()

			if copyOpts.Parallelism == 0 {
				copyOpts.Parallelism = o.Parallel
			}

			src, paths, err := resolveAll(ctx, o, args[:len(args)-1])
			if err != nil {
				return err
			}
			dst, dir, err := o.Resolve(ctx, args[len(args)-1])
			if err != nil {
				return err
			}

			return o.Track(ctx, use, func() (*transaction.Transaction, error) {
				if move {
					return o.Explorer.Move(ctx, src, paths, dst, dir, copyOpts)
				}
				return o.Explorer.Copy(ctx, src, paths, dst, dir, copyOpts)
			})
		},
	}

	cmd.Flags().BoolVarP(&copyOpts.Recursive, "recursive", "r", false, "copy directories and their contents")
	cmd.Flags().BoolVar(&copyOpts.Overwrite, "overwrite", false, "replace existing files")

	return cmd
}

// resolveAll resolves args that must all point at the same source
func resolveAll(ctx context.Context, o *opts.RootOpts, args []string) (provider.FileSystem, []string, error) {
	var (
		fs    provider.FileSystem
		name  string
		paths []string
	)
	for i, arg := range args {
		n, p := opts.SplitRef(arg)
		if i > 0 && n != name {
			return nil, nil, errors.Errorf("all paths must share one source, got %q and %q", name, n)
		}
		name = n
		paths = append(paths, p)

		if fs == nil {
			f, err := o.FileSystem(ctx, n)
			if err != nil {
				return nil, nil, err
			}
			fs = f
		}
	}
	return fs, paths, nil
}
