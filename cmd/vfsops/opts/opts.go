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

package opts

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/walteh/vfsops/pkg/config"
	"github.com/walteh/vfsops/pkg/explorer"
	"github.com/walteh/vfsops/pkg/log"
	"github.com/walteh/vfsops/pkg/provider"
	"github.com/walteh/vfsops/pkg/provider/local"
	"github.com/walteh/vfsops/pkg/status"
	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
)

// 🎯 RootOpts holds the dependencies shared by every command
type RootOpts struct {
	Config   *config.Config
	Manager  *transaction.Manager
	Explorer *explorer.Explorer
	Tracker  *status.Tracker

	// Parallel overrides the engine default when positive
	Parallel int
	// Progress draws a bar for transfers instead of one line per operation
	Progress bool
	// Console is where the bar is drawn
	Console io.Writer

	logger *log.Logger
	mu     sync.Mutex
	title  string
	fss    map[string]provider.FileSystem
	bars   map[string]*status.ProgressBar
}

// 🏭 New wires the manager, explorer and tracker for cfg. ctx must carry a
// logger from log.NewContext.
func New(ctx context.Context, cfg *config.Config, console io.Writer, parallel int, progress bool) (*RootOpts, error) {
	if parallel < 0 {
		return nil, errors.Errorf("parallel must not be negative, got %d", parallel)
	}

	defaultParallel := cfg.Engine.DefaultParallelism
	if parallel > 0 {
		defaultParallel = parallel
	}

	m := transaction.NewManager(ctx,
		transaction.WithDefaultParallelism(defaultParallel),
		transaction.WithStartedFractionThreshold(cfg.Engine.StartedFractionThreshold),
	)

	ex, err := explorer.New(explorer.Options{
		Manager:          m,
		Parallelism:      defaultParallel,
		ProgressInterval: cfg.Engine.Interval(),
	})
	if err != nil {
		return nil, errors.Errorf("creating explorer: %w", err)
	}

	o := &RootOpts{
		Config:   cfg,
		Manager:  m,
		Explorer: ex,
		logger:   log.FromContext(ctx),
		Parallel: parallel,
		Progress: progress,
		Console:  console,
		fss:      make(map[string]provider.FileSystem),
		bars:     make(map[string]*status.ProgressBar),
	}

	o.Tracker = status.NewTracker(ctx, m, status.Options{
		OnStarted: func(tx status.TransactionStatus) {
			if !hasVisible(tx.Operations) {
				return
			}
			o.logger.StartTransaction(ctx, o.currentTitle(), tx)
			if o.Progress && hasTransfer(tx.Operations) {
				o.startBar(ctx, tx.ID)
			}
		},
		OnEnded: func(tx status.TransactionStatus, op status.OperationStatus) {
			if !visible(op.Kind) {
				return
			}
			if o.Progress && op.Kind.IsDataTransfer() && !op.Faulted {
				return
			}
			o.logger.LogOperation(ctx, tx, op)
		},
	})

	return o, nil
}

// Close stops the tracker
func (o *RootOpts) Close() {
	o.Tracker.Close()
}

// 🔍 FileSystem resolves a source name from the config, "local" for the
// working directory or any other name as an error
func (o *RootOpts) FileSystem(ctx context.Context, name string) (provider.FileSystem, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if fs, ok := o.fss[name]; ok {
		return fs, nil
	}

	var (
		fs  provider.FileSystem
		err error
	)
	if src, ok := o.Config.Source(name); ok {
		fs, err = provider.Open(ctx, src)
	} else if name == "" || name == "local" {
		fs, err = workingDir(ctx)
	} else {
		return nil, errors.Errorf("unknown source %q, declared sources: %s", name, strings.Join(o.sourceNames(), ", "))
	}
	if err != nil {
		return nil, errors.Errorf("opening source %q: %w", name, err)
	}

	o.fss[name] = fs
	return fs, nil
}

// 📍 Resolve splits "source:path" and opens the source. A bare path is
// relative to the working directory.
func (o *RootOpts) Resolve(ctx context.Context, arg string) (provider.FileSystem, string, error) {
	name, p := SplitRef(arg)
	fs, err := o.FileSystem(ctx, name)
	if err != nil {
		return nil, "", err
	}
	return fs, p, nil
}

// 🏁 Track runs fn under title and waits for its transaction to be fully
// reported before logging the outcome
func (o *RootOpts) Track(ctx context.Context, title string, fn func() (*transaction.Transaction, error)) error {
	o.mu.Lock()
	o.title = title
	o.mu.Unlock()

	tx, err := fn()
	if tx == nil {
		return err
	}

	if werr := o.Tracker.Wait(ctx, tx.ID()); werr != nil {
		return errors.Errorf("waiting for %s: %w", title, werr)
	}
	o.stopBar(tx.ID())

	s, _ := o.Tracker.Transaction(tx.ID())
	o.logger.EndTransaction(ctx, s, err)
	o.Tracker.Forget(tx.ID())
	return err
}

// 🧩 SplitRef splits "name:path" into its parts. Paths with no source, a
// single letter drive prefix or a separator before the colon belong to the
// working directory.
func SplitRef(arg string) (string, string) {
	i := strings.Index(arg, ":")
	if i <= 1 || strings.ContainsAny(arg[:i], `/\.`) {
		return "", arg
	}
	return arg[:i], arg[i+1:]
}

func workingDir(ctx context.Context) (provider.FileSystem, error) {
	dir, err := filepath.Abs(".")
	if err != nil {
		return nil, errors.Errorf("resolving working directory: %w", err)
	}
	return local.Open(ctx, "local", dir)
}

func (o *RootOpts) sourceNames() []string {
	names := []string{"local"}
	for _, s := range o.Config.Sources {
		names = append(names, s.Name)
	}
	return names
}

func (o *RootOpts) currentTitle() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.title
}

func (o *RootOpts) startBar(ctx context.Context, id string) {
	for _, tx := range o.Manager.Transactions() {
		if tx.ID() != id {
			continue
		}
		bar, err := status.StartProgressBar(ctx, tx, o.currentTitle(), o.Console, 0)
		if err != nil {
			o.logger.Warningf("progress bar: %v", err)
			return
		}
		o.mu.Lock()
		o.bars[id] = bar
		o.mu.Unlock()
		return
	}
}

func (o *RootOpts) stopBar(id string) {
	o.mu.Lock()
	bar, ok := o.bars[id]
	delete(o.bars, id)
	o.mu.Unlock()

	if ok {
		if err := bar.Stop(); err != nil {
			o.logger.Warningf("progress bar: %v", err)
		}
	}
}

// visible reports whether operations of kind are worth a console line
func visible(kind transaction.Kind) bool {
	switch kind {
	case transaction.KindLoading, transaction.KindOpenDirectory, transaction.KindUpdateDirectory,
		transaction.KindDownloadData, transaction.KindSearch:
		return false
	default:
		return true
	}
}

func hasVisible(ops []status.OperationStatus) bool {
	for _, op := range ops {
		if visible(op.Kind) {
			return true
		}
	}
	return false
}

func hasTransfer(ops []status.OperationStatus) bool {
	for _, op := range ops {
		if op.Kind.IsDataTransfer() {
			return true
		}
	}
	return false
}
