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

	"github.com/walteh/vfsops/pkg/provider"
	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
)

// 🗑️ Delete removes paths, directories need recursive unless they are empty
func (e *Explorer) Delete(ctx context.Context, fs provider.FileSystem, paths []string, recursive bool, parallelism int) (*transaction.Transaction, error) {
	items := make([]provider.Item, 0, len(paths))
	for _, p := range paths {
		item, err := fs.Stat(ctx, p)
		if err != nil {
			return nil, errors.Errorf("stat %q: %w", p, err)
		}
		if item.Path == "" {
			return nil, errors.Errorf("refusing to delete the root of %s", fs.Name())
		}
		items = append(items, item)
	}

	tx := e.manager.CreateTransaction(e.capFor(parallelism))
	defer tx.Dispose()

	for _, item := range items {
		kind := transaction.KindDeleteFile
		if item.IsDir {
			kind = transaction.KindDeleteDirectory
		}
		desc := fmt.Sprintf("delete %s:%s", fs.Name(), item.Path)
		if _, err := tx.Enqueue(kind, desc, nil, ctx, func(ctx context.Context) error {
			return fs.Remove(ctx, item.Path, recursive && item.IsDir)
		}); err != nil {
			return tx, err
		}
	}

	return tx, tx.Run()
}

// 📁 MakeDir creates each path and its parents
func (e *Explorer) MakeDir(ctx context.Context, fs provider.FileSystem, paths []string) (*transaction.Transaction, error) {
	tx := e.manager.CreateTransaction(e.capFor(0))
	defer tx.Dispose()

	for _, p := range paths {
		desc := fmt.Sprintf("create %s:%s", fs.Name(), p)
		if _, err := tx.Enqueue(transaction.KindCreateDirectory, desc, nil, ctx, func(ctx context.Context) error {
			return fs.MakeDir(ctx, p)
		}); err != nil {
			return tx, err
		}
	}

	return tx, tx.Run()
}
