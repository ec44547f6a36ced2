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

	"github.com/rs/zerolog"
	"github.com/walteh/vfsops/pkg/provider"
	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
)

// 🔧 CopyOptions tunes Copy and Move
type CopyOptions struct {
	// Recursive expands directories into their contents
	Recursive bool
	// Overwrite replaces existing destination files instead of failing them
	Overwrite bool
	// Parallelism caps concurrent operations, 0 uses the explorer default
	Parallelism int
}

// 📋 Copy copies paths from src into dstDir on dst, one CopyFile operation per file
func (e *Explorer) Copy(ctx context.Context, src provider.FileSystem, paths []string, dst provider.FileSystem, dstDir string, opts CopyOptions) (*transaction.Transaction, error) {
	p, err := e.scan(ctx, src, paths, dstDir, opts.Recursive)
	if err != nil {
		return nil, errors.Errorf("planning copy: %w", err)
	}

	tx := e.manager.CreateTransaction(e.capFor(opts.Parallelism))
	defer tx.Dispose()

	if err := e.enqueueDirs(ctx, tx, transaction.KindCopyDirectory, dst, p.dirs); err != nil {
		return tx, err
	}
	for _, f := range p.files {
		if err := e.enqueueTransfer(ctx, tx, transaction.KindCopyFile, src, f, dst, opts.Overwrite, false); err != nil {
			return tx, err
		}
	}

	return tx, tx.Run()
}

// 🚚 Move is Copy followed by removing each source, directories go once their files are moved
func (e *Explorer) Move(ctx context.Context, src provider.FileSystem, paths []string, dst provider.FileSystem, dstDir string, opts CopyOptions) (*transaction.Transaction, error) {
	p, err := e.scan(ctx, src, paths, dstDir, opts.Recursive)
	if err != nil {
		return nil, errors.Errorf("planning move: %w", err)
	}

	tx := e.manager.CreateTransaction(e.capFor(opts.Parallelism))
	defer tx.Dispose()

	if err := e.enqueueDirs(ctx, tx, transaction.KindCreateDirectory, dst, p.dirs); err != nil {
		return tx, err
	}
	for _, f := range p.files {
		if err := e.enqueueTransfer(ctx, tx, transaction.KindMoveFile, src, f, dst, opts.Overwrite, true); err != nil {
			return tx, err
		}
	}

	if err := tx.Run(); err != nil {
		return tx, err
	}

	for _, r := range p.roots {
		if !r.item.IsDir {
			continue
		}
		desc := fmt.Sprintf("remove moved %s:%s", src.Name(), r.item.Path)
		if _, err := tx.Enqueue(transaction.KindMoveDirectory, desc, nil, ctx, func(ctx context.Context) error {
			return src.Remove(ctx, r.item.Path, true)
		}); err != nil {
			return tx, err
		}
	}

	return tx, tx.Run()
}

// 📥 Download streams one file into w
func (e *Explorer) Download(ctx context.Context, fs provider.FileSystem, p string, w io.Writer) (*transaction.Transaction, error) {
	item, err := fs.Stat(ctx, p)
	if err != nil {
		return nil, errors.Errorf("stat %q: %w", p, err)
	}
	if item.IsDir {
		return nil, errors.Errorf("%q: %w", p, ErrIsDirectory)
	}

	tx := e.manager.CreateTransaction(1)
	defer tx.Dispose()

	desc := fmt.Sprintf("download %s:%s", fs.Name(), item.Path)
	if _, err := tx.EnqueueWithProgress(transaction.KindDownloadFile, desc, weightOf(item.Size), ctx, func(ctx context.Context, report transaction.ProgressFunc) error {
		rc, err := fs.Open(ctx, item.Path)
		if err != nil {
			return err
		}
		defer rc.Close()

		pr := newProgressReader(ctx, rc, item.Size, report, e.interval)
		if _, err := io.Copy(w, pr); err != nil {
			return errors.Errorf("downloading %q: %w", item.Path, err)
		}
		pr.finish()
		return nil
	}); err != nil {
		return tx, err
	}

	return tx, tx.Run()
}

// 📤 Upload writes r to p, an existing target makes it an UpdateFile operation
func (e *Explorer) Upload(ctx context.Context, fs provider.FileSystem, p string, r io.Reader, size int64) (*transaction.Transaction, error) {
	kind := transaction.KindUploadFile
	existing, err := fs.Stat(ctx, p)
	switch {
	case err == nil && existing.IsDir:
		return nil, errors.Errorf("%q: %w", p, provider.ErrIsDirectory)
	case err == nil:
		kind = transaction.KindUpdateFile
	case !errors.Is(err, provider.ErrNotFound):
		return nil, errors.Errorf("stat %q: %w", p, err)
	}

	tx := e.manager.CreateTransaction(1)
	defer tx.Dispose()

	desc := fmt.Sprintf("upload %s:%s", fs.Name(), p)
	if _, err := tx.EnqueueWithProgress(kind, desc, weightOf(size), ctx, func(ctx context.Context, report transaction.ProgressFunc) error {
		pr := newProgressReader(ctx, r, size, report, e.interval)
		if err := fs.Create(ctx, p, pr, size); err != nil {
			return err
		}
		pr.finish()
		return nil
	}); err != nil {
		return tx, err
	}

	return tx, tx.Run()
}

func (e *Explorer) enqueueDirs(ctx context.Context, tx *transaction.Transaction, kind transaction.Kind, dst provider.FileSystem, dirs []entry) error {
	for _, d := range dirs {
		desc := fmt.Sprintf("create %s:%s", dst.Name(), d.dst)
		if _, err := tx.Enqueue(kind, desc, nil, ctx, func(ctx context.Context) error {
			return dst.MakeDir(ctx, d.dst)
		}); err != nil {
			return err
		}
	}
	return nil
}

// enqueueTransfer adds one file copy, removing the source afterwards when move is set
func (e *Explorer) enqueueTransfer(ctx context.Context, tx *transaction.Transaction, kind transaction.Kind, src provider.FileSystem, f entry, dst provider.FileSystem, overwrite, move bool) error {
	desc := fmt.Sprintf("%s %s:%s -> %s:%s", kind, src.Name(), f.item.Path, dst.Name(), f.dst)

	_, err := tx.EnqueueWithProgress(kind, desc, weightOf(f.item.Size), ctx, func(ctx context.Context, report transaction.ProgressFunc) error {
		if !overwrite {
			_, err := dst.Stat(ctx, f.dst)
			if err == nil {
				return errors.Errorf("%s:%s: %w", dst.Name(), f.dst, ErrExists)
			}
			if !errors.Is(err, provider.ErrNotFound) {
				return errors.Errorf("checking target %q: %w", f.dst, err)
			}
		}

		rc, err := src.Open(ctx, f.item.Path)
		if err != nil {
			return err
		}
		defer rc.Close()

		pr := newProgressReader(ctx, rc, f.item.Size, report, e.interval)
		if err := dst.Create(ctx, f.dst, pr, f.item.Size); err != nil {
			return err
		}
		pr.finish()

		if move {
			if err := src.Remove(ctx, f.item.Path, false); err != nil {
				return errors.Errorf("removing moved source %q: %w", f.item.Path, err)
			}
		}

		zerolog.Ctx(ctx).Debug().Str("from", f.item.Path).Str("to", f.dst).Int64("bytes", pr.transferred()).Msg("transferred file")
		return nil
	})
	return err
}
