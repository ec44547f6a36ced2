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

package provider

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/walteh/vfsops/pkg/config"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotFound is returned when a path does not exist
	ErrNotFound = errors.New("not found")

	// ErrReadOnly is returned by file systems that cannot be written
	ErrReadOnly = errors.New("read only file system")

	// ErrNotEmpty is returned when removing a non empty directory without recursion
	ErrNotEmpty = errors.New("directory not empty")

	// ErrEscape is returned for paths that leave the file system root
	ErrEscape = errors.New("path escapes root")

	// ErrIsDirectory is returned when a file operation is given a directory
	ErrIsDirectory = errors.New("is a directory")
)

// 📄 Item describes one entry of a file system
type Item struct {
	Path    string    // slash separated, relative to the root, "" is the root itself
	Name    string    // last element of Path
	Size    int64     // -1 when unknown
	IsDir   bool      // true for directories and prefixes
	ModTime time.Time // zero when unknown
}

// 🔌 FileSystem is the boundary every storage adapter implements
type FileSystem interface {
	// 🏷️ Name returns the source name the file system was opened under
	Name() string

	// 🔍 Stat describes a single path
	Stat(ctx context.Context, p string) (Item, error)

	// 📂 List returns the direct children of a directory sorted by name
	List(ctx context.Context, dir string) ([]Item, error)

	// 📄 Open returns the contents of a file
	Open(ctx context.Context, p string) (io.ReadCloser, error)

	// ✍️ Create writes r to p, replacing what is there, size is -1 when unknown
	Create(ctx context.Context, p string, r io.Reader, size int64) error

	// 📁 MakeDir creates a directory and its parents
	MakeDir(ctx context.Context, p string) error

	// 🗑️ Remove deletes a file, or a directory when recursive or empty
	Remove(ctx context.Context, p string, recursive bool) error
}

// 🖼️ Previewer is implemented by file systems that can produce a small preview of a file
type Previewer interface {
	Preview(ctx context.Context, p string) (io.ReadCloser, error)
}

// 🏭 Factory creates a file system for a configured source
type Factory func(ctx context.Context, src config.Source) (FileSystem, error)

var (
	mu sync.RWMutex

	// 🗺️ providers is a map of provider names to factories
	providers = make(map[string]Factory)
)

// 📝 Register registers a provider factory
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// 🎯 Get returns a provider factory by name
func Get(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := providers[name]
	return f, ok
}

// Names returns the registered provider names, sorted
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 🔓 Open creates the file system for src using its registered provider
func Open(ctx context.Context, src config.Source) (FileSystem, error) {
	factory, ok := Get(src.Provider)
	if !ok {
		return nil, errors.Errorf("unknown provider %q for source %q", src.Provider, src.Name)
	}

	fs, err := factory(ctx, src)
	if err != nil {
		return nil, errors.Errorf("opening source %q: %w", src.Name, err)
	}
	return fs, nil
}

// 🧹 Clean normalizes p to a slash separated path relative to the root
func Clean(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return "", nil
	}

	rooted := strings.HasPrefix(p, "/")
	p = path.Clean(p)
	if rooted {
		p = strings.TrimPrefix(p, "/")
	}

	switch {
	case p == "." || p == "":
		return "", nil
	case p == ".." || strings.HasPrefix(p, "../"):
		return "", errors.Errorf("%q: %w", p, ErrEscape)
	}
	return p, nil
}

// Join joins elements into a cleaned relative path
func Join(elem ...string) string {
	joined := path.Join(elem...)
	if joined == "." {
		return ""
	}
	return strings.TrimPrefix(joined, "/")
}

// 📄 BaseName returns the last element of a relative path
func BaseName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// 📖 ContextReader returns a reader that fails once ctx is done
func ContextReader(ctx context.Context, r io.Reader) io.Reader {
	return &contextReader{ctx: ctx, r: r}
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
