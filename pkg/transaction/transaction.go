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

package transaction

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// 📦 Transaction is an ordered group of operations sharing a cancellation
// scope and a concurrency cap
type Transaction struct {
	id          string
	manager     *Manager
	clock       clock.Clock
	maxParallel int
	threshold   float64

	// gate bounds the number of started but not completed operations
	gate *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	canceled atomic.Bool

	mu        sync.Mutex
	ops       []*Operation
	completed bool
}

func newTransaction(m *Manager, maxParallel int) *Transaction {
	ctx, cancel := context.WithCancel(m.ctx)
	return &Transaction{
		id:          uuid.NewString(),
		manager:     m,
		clock:       m.clock,
		maxParallel: maxParallel,
		threshold:   m.threshold,
		gate:        semaphore.NewWeighted(int64(maxParallel)),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ID returns the transaction's unique id
func (tx *Transaction) ID() string { return tx.id }

// MaxParallel returns the concurrency cap
func (tx *Transaction) MaxParallel() int { return tx.maxParallel }

// ➕ Enqueue appends an operation to the transaction. weight may be nil when
// unknown and callerCtx may be nil when the caller has no cancellation of its own.
func (tx *Transaction) Enqueue(kind Kind, description string, weight *int64, callerCtx context.Context, work Work) (*Operation, error) {
	return tx.EnqueueWithProgress(kind, description, weight, callerCtx, func(ctx context.Context, _ ProgressFunc) error {
		return work(ctx)
	})
}

// ➕ EnqueueWithProgress appends an operation whose work reports byte progress
func (tx *Transaction) EnqueueWithProgress(kind Kind, description string, weight *int64, callerCtx context.Context, work ProgressWork) (*Operation, error) {
	if weight != nil && *weight < 0 {
		return nil, ErrNegativeWeight
	}

	tx.mu.Lock()
	if tx.completed {
		tx.mu.Unlock()
		return nil, ErrTransactionCompleted
	}
	op := newOperation(tx, kind, description, weight, callerCtx, work)
	tx.ops = append(tx.ops, op)
	tx.mu.Unlock()

	tx.report(ChangeOperationAdded, op)
	return op, nil
}

// 🏁 Run drives every pending operation to completion. Operations are started
// in enqueue order, each waiting for a slot of the gate; a failure to start one
// does not stop the others. The result is nil, a *CanceledError or an
// *AggregateError, checked in that order of precedence: transaction
// cancellation, faults, operation cancellations.
func (tx *Transaction) Run() error {
	logger := zerolog.Ctx(tx.ctx)
	tx.report(ChangeTransactionStarted, nil)

	var pending []*Operation
	for _, op := range tx.Operations() {
		if !op.IsCompleted() {
			pending = append(pending, op)
		}
	}

	logger.Debug().
		Str("transaction", tx.id).
		Int("pending", len(pending)).
		Int("max_parallel", tx.maxParallel).
		Msg("running transaction")

	for _, op := range pending {
		if op.IsQueued() {
			continue
		}
		if err := op.Start(); err != nil {
			logger.Debug().Str("operation", op.id).Err(err).Msg("operation did not start")
		}
	}
	for _, op := range pending {
		<-op.Done()
	}

	return tx.outcome()
}

// outcome treats any canceled scope (Cancel, Dispose, manager shutdown) as a
// transaction level cancellation
func (tx *Transaction) outcome() error {
	if tx.IsCanceled() || tx.ctx.Err() != nil {
		return &CanceledError{Transaction: true}
	}

	var faults []error
	canceled := 0
	for _, op := range tx.Operations() {
		switch {
		case op.IsFaulted():
			faults = append(faults, op.Err())
		case op.IsCanceled():
			canceled++
		}
	}
	if len(faults) > 0 {
		return &AggregateError{Errors: faults}
	}
	if canceled > 0 {
		return &CanceledError{Canceled: canceled}
	}
	return nil
}

// 🛑 Cancel cancels the transaction scope, and with it every current and
// future operation
func (tx *Transaction) Cancel() {
	tx.canceled.Store(true)
	tx.cancel()
}

// IsCanceled reports whether Cancel was called
func (tx *Transaction) IsCanceled() bool {
	return tx.canceled.Load()
}

// 🧹 Dispose marks the transaction completed and tells the manager, which
// evicts it. Pending operations are canceled. Calling it again does nothing.
func (tx *Transaction) Dispose() {
	tx.mu.Lock()
	if tx.completed {
		tx.mu.Unlock()
		return
	}
	tx.completed = true
	tx.mu.Unlock()

	tx.cancel()
	tx.report(ChangeTransactionEnded, nil)
}

// Close implements io.Closer on top of Dispose
func (tx *Transaction) Close() error {
	tx.Dispose()
	return nil
}

// IsCompleted reports whether the transaction was disposed
func (tx *Transaction) IsCompleted() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.completed
}

// IsActive reports whether any operation is not yet completed
func (tx *Transaction) IsActive() bool {
	for _, op := range tx.Operations() {
		if !op.IsCompleted() {
			return true
		}
	}
	return false
}

// CanBeCanceled reports whether at least one operation can still be canceled
func (tx *Transaction) CanBeCanceled() bool {
	for _, op := range tx.Operations() {
		if op.CanBeCanceled() {
			return true
		}
	}
	return false
}

// Operations returns a snapshot of the operations in enqueue order
func (tx *Transaction) Operations() []*Operation {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	out := make([]*Operation, len(tx.ops))
	copy(out, tx.ops)
	return out
}

func (tx *Transaction) report(kind ChangeKind, op *Operation) {
	tx.manager.ReportTransactionChanged(Change{Kind: kind, Transaction: tx, Operation: op})
}
