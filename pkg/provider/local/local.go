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

package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/vfsops/pkg/config"
	"github.com/walteh/vfsops/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

func init() {
	provider.Register("local", New)
}

// 🎯 FS is a file system rooted at a local directory
type FS struct {
	name string
	root string
}

var _ provider.FileSystem = (*FS)(nil)

// 🏭 New creates a local file system from a source
func New(ctx context.Context, src config.Source) (provider.FileSystem, error) {
	return Open(ctx, src.Name, src.Root)
}

// 🔓 Open roots a file system at dir, which must exist
func Open(ctx context.Context, name, dir string) (*FS, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Errorf("resolving root %q: %w", dir, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Errorf("checking root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("root %q is not a directory", root)
	}

	zerolog.Ctx(ctx).Debug().Str("source", name).Str("root", root).Msg("opened local file system")

	return &FS{name: name, root: root}, nil
}

func (l *FS) Name() string { return l.name }

// Root returns the absolute directory the file system is rooted at
func (l *FS) Root() string { return l.root }

// resolve maps a relative path to an absolute one inside the root
func (l *FS) resolve(p string) (string, string, error) {
	rel, err := provider.Clean(p)
	if err != nil {
		return "", "", err
	}
	return rel, filepath.Join(l.root, filepath.FromSlash(rel)), nil
}

func (l *FS) Stat(ctx context.Context, p string) (provider.Item, error) {
	if err := ctx.Err(); err != nil {
		return provider.Item{}, err
	}

	rel, full, err := l.resolve(p)
	if err != nil {
		return provider.Item{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return provider.Item{}, wrap(rel, err)
	}
	return item(rel, info), nil
}

func (l *FS) List(ctx context.Context, dir string) ([]provider.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, full, err := l.resolve(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, wrap(rel, err)
	}

	items := make([]provider.Item, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Errorf("reading %q: %w", entry.Name(), err)
		}
		items = append(items, item(provider.Join(rel, entry.Name()), info))
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (l *FS) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, full, err := l.resolve(p)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, wrap(rel, err)
	}
	if info.IsDir() {
		return nil, errors.Errorf("opening %q: %w", rel, provider.ErrIsDirectory)
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, wrap(rel, err)
	}
	return f, nil
}

// Create writes through a temporary file in the target directory and renames it into place
func (l *FS) Create(ctx context.Context, p string, r io.Reader, size int64) error {
	rel, full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if rel == "" {
		return errors.Errorf("creating root: %w", provider.ErrIsDirectory)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.Errorf("creating parent of %q: %w", rel, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), "."+filepath.Base(full)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file for %q: %w", rel, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, provider.ContextReader(ctx, r))
	if err != nil {
		tmp.Close()
		return errors.Errorf("writing %q: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing %q: %w", rel, err)
	}
	if size >= 0 && n != size {
		return errors.Errorf("writing %q: wrote %d bytes, expected %d", rel, n, size)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		return errors.Errorf("renaming into %q: %w", rel, err)
	}
	return nil
}

func (l *FS) MakeDir(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel, full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return errors.Errorf("creating directory %q: %w", rel, err)
	}
	return nil
}

func (l *FS) Remove(ctx context.Context, p string, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel, full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if rel == "" {
		return errors.New("refusing to remove the root")
	}

	info, err := os.Stat(full)
	if err != nil {
		return wrap(rel, err)
	}

	if info.IsDir() && !recursive {
		entries, err := os.ReadDir(full)
		if err != nil {
			return wrap(rel, err)
		}
		if len(entries) > 0 {
			return errors.Errorf("removing %q: %w", rel, provider.ErrNotEmpty)
		}
	}

	if recursive {
		err = os.RemoveAll(full)
	} else {
		err = os.Remove(full)
	}
	if err != nil {
		return errors.Errorf("removing %q: %w", rel, err)
	}
	return nil
}

func item(rel string, info fs.FileInfo) provider.Item {
	size := info.Size()
	if info.IsDir() {
		size = 0
	}
	return provider.Item{
		Path:    rel,
		Name:    provider.BaseName(rel),
		Size:    size,
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}
}

func wrap(rel string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Errorf("%q: %w", rel, provider.ErrNotFound)
	}
	return errors.Errorf("%q: %w", rel, err)
}
