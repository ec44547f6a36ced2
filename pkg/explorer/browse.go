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
	"io"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/vfsops/pkg/provider"
	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
)

// 📂 List returns the children of dir as one OpenDirectory operation
func (e *Explorer) List(ctx context.Context, fs provider.FileSystem, dir string) ([]provider.Item, error) {
	desc := fmt.Sprintf("open %s:%s", fs.Name(), dir)
	return transaction.DoValue(ctx, e.manager, transaction.KindOpenDirectory, desc, func(ctx context.Context) ([]provider.Item, error) {
		return fs.List(ctx, dir)
	})
}

// 🔄 Refresh re-reads a directory that is already open
func (e *Explorer) Refresh(ctx context.Context, fs provider.FileSystem, dir string) ([]provider.Item, error) {
	desc := fmt.Sprintf("refresh %s:%s", fs.Name(), dir)
	return transaction.DoValue(ctx, e.manager, transaction.KindUpdateDirectory, desc, func(ctx context.Context) ([]provider.Item, error) {
		return fs.List(ctx, dir)
	})
}

// 📄 ReadFile returns the whole contents of a file
func (e *Explorer) ReadFile(ctx context.Context, fs provider.FileSystem, p string) ([]byte, error) {
	desc := fmt.Sprintf("read %s:%s", fs.Name(), p)
	return transaction.DoValue(ctx, e.manager, transaction.KindDownloadData, desc, func(ctx context.Context) ([]byte, error) {
		rc, err := fs.Open(ctx, p)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		data, err := io.ReadAll(provider.ContextReader(ctx, rc))
		if err != nil {
			return nil, errors.Errorf("reading %q: %w", p, err)
		}
		return data, nil
	})
}

// 🔍 Search walks root and returns items whose path below root matches the doublestar pattern
func (e *Explorer) Search(ctx context.Context, fs provider.FileSystem, root, pattern string) ([]provider.Item, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("invalid pattern %q", pattern)
	}

	desc := fmt.Sprintf("search %s:%s for %s", fs.Name(), root, pattern)
	return transaction.DoValue(ctx, e.manager, transaction.KindSearch, desc, func(ctx context.Context) ([]provider.Item, error) {
		base, err := provider.Clean(root)
		if err != nil {
			return nil, err
		}

		items, err := e.walk(ctx, fs, base)
		if err != nil {
			return nil, err
		}

		var matches []provider.Item
		for _, item := range items {
			rel := strings.TrimPrefix(strings.TrimPrefix(item.Path, base), "/")
			if rel == "" {
				rel = item.Name
			}
			ok, err := doublestar.Match(pattern, rel)
			if err != nil {
				return nil, errors.Errorf("matching %q: %w", rel, err)
			}
			if ok {
				matches = append(matches, item)
			}
		}
		return matches, nil
	})
}

// 🖼️ Thumbnails fetches a preview of each path, one DownloadThumbnail operation per path
func (e *Explorer) Thumbnails(ctx context.Context, fs provider.FileSystem, paths []string, parallelism int) (map[string][]byte, *transaction.Transaction, error) {
	tx := e.manager.CreateTransaction(e.capFor(parallelism))
	defer tx.Dispose()

	var mu sync.Mutex
	out := make(map[string][]byte, len(paths))

	for _, p := range paths {
		desc := fmt.Sprintf("thumbnail %s:%s", fs.Name(), p)
		if _, err := tx.Enqueue(transaction.KindDownloadThumbnail, desc, nil, ctx, func(ctx context.Context) error {
			data, err := preview(ctx, fs, p)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			out[p] = data
			return nil
		}); err != nil {
			return nil, tx, err
		}
	}

	err := tx.Run()

	mu.Lock()
	defer mu.Unlock()
	return out, tx, err
}

func preview(ctx context.Context, fs provider.FileSystem, p string) ([]byte, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if pv, ok := fs.(provider.Previewer); ok {
		rc, err = pv.Preview(ctx, p)
	} else {
		rc, err = fs.Open(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(provider.ContextReader(ctx, rc), ThumbnailSize))
	if err != nil {
		return nil, errors.Errorf("reading preview of %q: %w", p, err)
	}
	return data, nil
}
