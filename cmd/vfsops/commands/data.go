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
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/vfsops/pkg/log"
	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
)

// NewGetCmd creates the get command
func NewGetCmd(get Opts) *cobra.Command {
	return &cobra.Command{
		Use:   "get SRC LOCAL",
		Short: "Download one file to a local path",
		Long: `Get streams SRC into the local file LOCAL. When LOCAL is an existing
directory the file keeps its name inside it. A failed download removes
the partial file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := get()
			ctx := cmd.Context()

			fs, p, err := o.Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			dest := args[1]
			if info, err := os.Stat(dest); err == nil && info.IsDir() {
				dest = filepath.Join(dest, path.Base(p))
			}

			f, err := os.Create(dest)
			if err != nil {
				return errors.Errorf("creating %s: %w", dest, err)
			}

			err = o.Track(ctx, "get", func() (*transaction.Transaction, error) {
				return o.Explorer.Download(ctx, fs, p, f)
			})
			if cerr := f.Close(); err == nil && cerr != nil {
				err = errors.Errorf("closing %s: %w", dest, cerr)
			}
			if err != nil {
				_ = os.Remove(dest)
				return err
			}
			return nil
		},
	}
}

// NewPutCmd creates the put command
func NewPutCmd(get Opts) *cobra.Command {
	return &cobra.Command{
		Use:   "put LOCAL DST",
		Short: "Upload one local file",
		Long: `Put writes the local file LOCAL to DST. A DST ending in "/" or naming a
source root keeps the local file name. An existing target is updated.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := get()
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return errors.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return errors.Errorf("stat %s: %w", args[0], err)
			}
			if info.IsDir() {
				return errors.Errorf("%s is a directory", args[0])
			}

			fs, p, err := o.Resolve(ctx, args[1])
			if err != nil {
				return err
			}
			if p == "" || strings.HasSuffix(p, "/") {
				p += filepath.Base(args[0])
			}

			return o.Track(ctx, "put", func() (*transaction.Transaction, error) {
				return o.Explorer.Upload(ctx, fs, p, f, info.Size())
			})
		},
	}
}

// NewThumbnailsCmd creates the thumbs command
func NewThumbnailsCmd(get Opts) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "thumbs SRC...",
		Short: "Fetch previews of files into a local directory",
		Long: `Thumbs fetches a preview of every SRC and writes it under --out with the
file's name. Sources without previews return the file itself. All SRC
must belong to the same source.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := get()
			ctx := cmd.Context()

			fs, paths, err := resolveAll(ctx, o, args)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return errors.Errorf("creating %s: %w", out, err)
			}

			var previews map[string][]byte
			err = o.Track(ctx, "thumbs", func() (*transaction.Transaction, error) {
				res, tx, err := o.Explorer.Thumbnails(ctx, fs, paths, o.Parallel)
				previews = res
				return tx, err
			})

			for p, data := range previews {
				dest := filepath.Join(out, path.Base(p))
				if werr := os.WriteFile(dest, data, 0o644); werr != nil {
					return errors.Errorf("writing %s: %w", dest, werr)
				}
			}
			log.FromContext(ctx).Infof("%d of %d previews written to %s", len(previews), len(paths), out)
			return err
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", ".", "directory the previews are written to")

	return cmd
}

// NewCatCmd creates the cat command
func NewCatCmd(get Opts) *cobra.Command {
	return &cobra.Command{
		Use:   "cat PATH",
		Short: "Print the contents of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := get()
			ctx := cmd.Context()

			fs, p, err := o.Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			data, err := o.Explorer.ReadFile(ctx, fs, p)
			if err != nil {
				return errors.Errorf("reading %s: %w", args[0], err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
