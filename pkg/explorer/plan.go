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

package explorer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/vfsops/pkg/provider"
	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 📋 entry pairs a source item with the path it maps to on the destination
type entry struct {
	item provider.Item
	dst  string
}

// 🗺️ plan is what a transfer will touch, in a stable order
type plan struct {
	roots []entry // the paths as given, after stat
	dirs  []entry // directories to create on the destination, parents first
	files []entry // files to transfer
}

// scan stats the given paths and, when recursive, expands directories level by level
func (e *Explorer) scan(ctx context.Context, fs provider.FileSystem, paths []string, dstDir string, recursive bool) (*plan, error) {
	desc := fmt.Sprintf("scan %s: %s", fs.Name(), strings.Join(paths, ", "))

	return transaction.DoValue(ctx, e.manager, transaction.KindLoading, desc, func(ctx context.Context) (*plan, error) {
		roots := make([]entry, len(paths))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.walkLimit())
		for i, p := range paths {
			g.Go(func() error {
				item, err := fs.Stat(gctx, p)
				if err != nil {
					return errors.Errorf("stat %q: %w", p, err)
				}
				if item.IsDir && !recursive {
					return errors.Errorf("%q: %w", p, ErrIsDirectory)
				}
				name := item.Name
				if name == "" {
					name = fs.Name()
				}
				roots[i] = entry{item: item, dst: provider.Join(dstDir, name)}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		out := &plan{roots: roots}
		var level []entry
		for _, r := range roots {
			if r.item.IsDir {
				out.dirs = append(out.dirs, r)
				level = append(level, r)
			} else {
				out.files = append(out.files, r)
			}
		}

		for len(level) > 0 {
			dirs, files, err := e.expand(ctx, fs, level)
			if err != nil {
				return nil, err
			}
			out.dirs = append(out.dirs, dirs...)
			out.files = append(out.files, files...)
			level = dirs
		}

		zerolog.Ctx(ctx).Debug().
			Str("source", fs.Name()).
			Int("dirs", len(out.dirs)).
			Int("files", len(out.files)).
			Msg("scanned transfer plan")

		return out, nil
	})
}

// expand lists one level of directories concurrently and returns their children sorted by path
func (e *Explorer) expand(ctx context.Context, fs provider.FileSystem, level []entry) ([]entry, []entry, error) {
	var (
		mu    sync.Mutex
		dirs  []entry
		files []entry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.walkLimit())
	for _, parent := range level {
		g.Go(func() error {
			children, err := fs.List(gctx, parent.item.Path)
			if err != nil {
				return errors.Errorf("listing %q: %w", parent.item.Path, err)
			}

			mu.Lock()
			defer mu.Unlock()
			for _, child := range children {
				ent := entry{item: child, dst: provider.Join(parent.dst, child.Name)}
				if child.IsDir {
					dirs = append(dirs, ent)
				} else {
					files = append(files, ent)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].item.Path < dirs[j].item.Path })
	sort.Slice(files, func(i, j int) bool { return files[i].item.Path < files[j].item.Path })
	return dirs, files, nil
}

// walk returns every item below root, directories included, sorted by path
func (e *Explorer) walk(ctx context.Context, fs provider.FileSystem, root string) ([]provider.Item, error) {
	rootItem, err := fs.Stat(ctx, root)
	if err != nil {
		return nil, errors.Errorf("stat %q: %w", root, err)
	}
	if !rootItem.IsDir {
		return []provider.Item{rootItem}, nil
	}

	var all []provider.Item
	level := []entry{{item: rootItem}}
	for len(level) > 0 {
		dirs, files, err := e.expand(ctx, fs, level)
		if err != nil {
			return nil, err
		}
		for _, d := range dirs {
			all = append(all, d.item)
		}
		for _, f := range files {
			all = append(all, f.item)
		}
		level = dirs
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })
	return all, nil
}

func (e *Explorer) walkLimit() int {
	if e.parallelism > 0 {
		return e.parallelism
	}
	return transaction.DefaultMaxParallel
}
