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

package status

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/vfsops/pkg/transaction"
)

// 📄 OperationStatus is the last observed state of one operation
type OperationStatus struct {
	ID          string
	Kind        transaction.Kind
	Description string
	State       transaction.State
	Faulted     bool
	Canceled    bool
	Err         error
	HasProgress bool
	Transferred int64
	Total       int64
}

// 📦 TransactionStatus is the last observed state of one transaction.
// Operations are kept in the order they were added.
type TransactionStatus struct {
	ID            string
	MaxParallel   int
	Operations    []OperationStatus
	Added         int
	Ended         int
	Faulted       int
	Canceled      int
	Runs          int
	Disposed      bool
	Progress      float64
	ProgressKnown bool
}

// Transferred sums the bytes reported by every operation
func (s TransactionStatus) Transferred() int64 {
	var n int64
	for _, op := range s.Operations {
		n += op.Transferred
	}
	return n
}

// 🔧 Options configures a Tracker
type Options struct {
	// Formatter renders lines written to Out, nil uses DefaultFileFormatter
	Formatter FileFormatter
	// Out receives one line per ended operation, nil disables console output
	Out io.Writer
	// OnStarted is called the first time a transaction runs
	OnStarted func(tx TransactionStatus)
	// OnEnded is called once per ended operation
	OnEnded func(tx TransactionStatus, op OperationStatus)
}

// 👀 Tracker follows a manager's change stream and keeps a snapshot of every
// transaction it has seen. Snapshots outlive the transaction until Forget.
type Tracker struct {
	formatter FileFormatter
	out       io.Writer
	onStarted func(TransactionStatus)
	onEnded   func(TransactionStatus, OperationStatus)
	logger    zerolog.Logger

	mu      sync.Mutex
	txs     map[string]*TransactionStatus
	ops     map[string]map[string]int
	order   []string
	ended   map[string]chan struct{}
	stopped bool

	unsubscribe func()
}

// NewTracker subscribes a Tracker to m. The logger comes from ctx.
func NewTracker(ctx context.Context, m *transaction.Manager, opts Options) *Tracker {
	formatter := opts.Formatter
	if formatter == nil {
		formatter = NewDefaultFileFormatter()
	}

	t := &Tracker{
		formatter: formatter,
		out:       opts.Out,
		onStarted: opts.OnStarted,
		onEnded:   opts.OnEnded,
		logger:    zerolog.Ctx(ctx).With().Str("component", "status").Logger(),
		txs:       make(map[string]*TransactionStatus),
		ops:       make(map[string]map[string]int),
		ended:     make(map[string]chan struct{}),
	}
	t.unsubscribe = m.Subscribe(t.handle)
	return t
}

// 🛑 Close stops following the change stream. Snapshots stay readable.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()

	t.unsubscribe()
}

// Transaction returns a copy of the snapshot for id
func (t *Tracker) Transaction(id string) (TransactionStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.txs[id]
	if !ok {
		return TransactionStatus{}, false
	}
	return s.clone(), true
}

// Transactions returns copies of every snapshot in the order first seen
func (t *Tracker) Transactions() []TransactionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TransactionStatus, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.txs[id].clone())
	}
	return out
}

// ⏳ Wait blocks until the tracker has handled the end of transaction id
func (t *Tracker) Wait(ctx context.Context, id string) error {
	select {
	case <-t.endedChan(id):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// 🧹 Forget drops the snapshot of id. A later Wait on id blocks until ctx is done.
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.txs[id]; !ok {
		return
	}
	delete(t.txs, id)
	delete(t.ops, id)
	delete(t.ended, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *Tracker) endedChan(id string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.ended[id]
	if !ok {
		ch = make(chan struct{})
		t.ended[id] = ch
	}
	return ch
}

func (t *Tracker) handle(change transaction.Change) {
	tx := change.Transaction
	if tx == nil {
		return
	}

	var (
		line    string
		ended   OperationStatus
		started bool
	)

	t.mu.Lock()
	s := t.snapshot(tx)

	switch change.Kind {
	case transaction.ChangeOperationAdded:
		s.Added++
		t.upsert(s, change.Operation)
	case transaction.ChangeOperationStatusChanged:
		t.upsert(s, change.Operation)
	case transaction.ChangeOperationEnded:
		op := t.upsert(s, change.Operation)
		s.Ended++
		switch {
		case op.Faulted:
			s.Faulted++
		case op.Canceled:
			s.Canceled++
		}
		line = t.formatter.FormatOperation(op)
		ended = op
	case transaction.ChangeTransactionStarted:
		s.Runs++
		started = s.Runs == 1
	case transaction.ChangeTransactionEnded:
		s.Disposed = true
	}
	s.Progress, s.ProgressKnown = tx.ProgressValue()
	summary := s.clone()
	t.mu.Unlock()

	if started && t.onStarted != nil {
		t.onStarted(summary)
	}
	if line != "" {
		if t.out != nil {
			fmt.Fprintln(t.out, line)
		}
		if t.onEnded != nil {
			t.onEnded(summary, ended)
		}
	}

	t.log(change, summary)

	if change.Kind == transaction.ChangeTransactionEnded {
		ch := t.endedChan(tx.ID())
		select {
		case <-ch:
		default:
			close(ch)
		}
	}
}

// snapshot returns the status of tx, creating it on first sight. Callers hold mu.
func (t *Tracker) snapshot(tx *transaction.Transaction) *TransactionStatus {
	s, ok := t.txs[tx.ID()]
	if !ok {
		s = &TransactionStatus{ID: tx.ID(), MaxParallel: tx.MaxParallel()}
		t.txs[tx.ID()] = s
		t.ops[tx.ID()] = make(map[string]int)
		t.order = append(t.order, tx.ID())
	}
	return s
}

// upsert refreshes the entry of op in s. Callers hold mu.
func (t *Tracker) upsert(s *TransactionStatus, op *transaction.Operation) OperationStatus {
	if op == nil {
		return OperationStatus{}
	}

	st := observe(op)
	idx := t.ops[s.ID]
	if i, ok := idx[op.ID()]; ok {
		s.Operations[i] = st
	} else {
		idx[op.ID()] = len(s.Operations)
		s.Operations = append(s.Operations, st)
	}
	return st
}

func (t *Tracker) log(change transaction.Change, s TransactionStatus) {
	switch change.Kind {
	case transaction.ChangeOperationEnded:
		op := change.Operation
		ev := t.logger.Debug()
		if op.IsFaulted() {
			ev = t.logger.Warn().Err(op.Err())
		}
		ev.Str("transaction", s.ID).
			Str("operation", op.ID()).
			Str("kind", op.Kind().String()).
			Str("description", op.Description()).
			Msg("operation ended")
	case transaction.ChangeTransactionEnded:
		t.logger.Debug().
			Str("transaction", s.ID).
			Int("operations", s.Added).
			Int("faulted", s.Faulted).
			Int("canceled", s.Canceled).
			Int64("bytes", s.Transferred()).
			Msg("transaction ended")
	}
}

func observe(op *transaction.Operation) OperationStatus {
	st := OperationStatus{
		ID:          op.ID(),
		Kind:        op.Kind(),
		Description: op.Description(),
		State:       op.State(),
		Faulted:     op.IsFaulted(),
		Canceled:    op.IsCanceled(),
		Err:         op.Err(),
	}
	if p, ok := op.Progress(); ok {
		st.HasProgress = true
		st.Transferred = p.Transferred
		st.Total = p.Total
	}
	return st
}

func (s *TransactionStatus) clone() TransactionStatus {
	out := *s
	out.Operations = make([]OperationStatus, len(s.Operations))
	copy(out.Operations, s.Operations)
	return out
}
