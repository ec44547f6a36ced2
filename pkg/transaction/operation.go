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
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏃 Work is a unit of asynchronous work run by an operation
type Work func(ctx context.Context) error

// 📈 ProgressFunc receives byte level progress from a unit of work
type ProgressFunc func(transferred, total int64)

// 🏃 ProgressWork is a unit of work that reports byte progress
type ProgressWork func(ctx context.Context, report ProgressFunc) error

// 📏 Progress is the last known byte progress of an operation
type Progress struct {
	Transferred int64
	Total       int64
}

// ⚙️ Operation is a single cancellable unit of work owned by a transaction
type Operation struct {
	id          string
	tx          *Transaction
	kind        Kind
	description string
	weight      int64
	hasWeight   bool
	work        ProgressWork

	// ctx is the effective scope: a child of the transaction's context,
	// canceled by Cancel and by the caller's context.
	ctx       context.Context
	cancel    context.CancelFunc
	callerCtx context.Context
	unlink    func() bool

	// startMu serializes Start for the whole Created -> Started transition
	startMu sync.Mutex

	mu          sync.Mutex
	state       State
	started     bool
	running     bool
	canceled    bool
	faulted     bool
	holdsSlot   bool
	err         error
	progress    *Progress
	queuedAt    time.Time
	startedAt   time.Time
	completedAt time.Time

	done chan struct{}
}

func newOperation(tx *Transaction, kind Kind, description string, weight *int64, callerCtx context.Context, work ProgressWork) *Operation {
	ctx, cancel := context.WithCancel(tx.ctx)
	op := &Operation{
		id:          uuid.NewString(),
		tx:          tx,
		kind:        kind,
		description: description,
		work:        work,
		ctx:         ctx,
		cancel:      cancel,
		callerCtx:   callerCtx,
		done:        make(chan struct{}),
	}
	if weight != nil {
		op.weight = *weight
		op.hasWeight = true
	}
	if callerCtx != nil {
		op.unlink = context.AfterFunc(callerCtx, cancel)
	}
	return op
}

// ID returns the operation's unique id
func (op *Operation) ID() string { return op.id }

// Kind returns what the operation does
func (op *Operation) Kind() Kind { return op.kind }

// Description returns the human readable description
func (op *Operation) Description() string { return op.description }

// Transaction returns the owning transaction
func (op *Operation) Transaction() *Transaction { return op.tx }

// Done is closed once the operation is completed
func (op *Operation) Done() <-chan struct{} { return op.done }

// 🚀 Start queues the operation, waits for a slot of the transaction's
// concurrency gate and launches the work. Only the first call transitions the
// operation; concurrent callers block until that transition is observable.
// The returned error is non-nil only when the operation was canceled before
// it could start.
func (op *Operation) Start() error {
	op.startMu.Lock()
	defer op.startMu.Unlock()

	op.mu.Lock()
	if op.state != StateCreated {
		op.mu.Unlock()
		return nil
	}
	op.state = StateQueued
	op.queuedAt = op.tx.clock.Now()
	op.mu.Unlock()

	logger := zerolog.Ctx(op.ctx)
	logger.Debug().
		Str("operation", op.id).
		Str("kind", op.kind.String()).
		Msg("operation queued")

	// AfterFunc runs asynchronously, so an already canceled caller would
	// otherwise race the acquire below.
	if op.callerCtx != nil && op.callerCtx.Err() != nil {
		op.cancel()
	}

	if op.ctx.Err() == nil {
		if err := op.tx.gate.Acquire(op.ctx, 1); err == nil {
			if op.ctx.Err() == nil {
				op.mu.Lock()
				op.state = StateStarted
				op.started = true
				op.running = true
				op.holdsSlot = true
				op.startedAt = op.tx.clock.Now()
				op.mu.Unlock()

				logger.Debug().Str("operation", op.id).Msg("operation started")
				go op.execute()
				return nil
			}
			// Acquire may succeed on an already canceled context
			op.tx.gate.Release(1)
		}
	}

	err := errors.Errorf("operation %s canceled before start: %w", op.description, context.Canceled)
	op.complete(err)
	return err
}

// 🏁 Run starts the operation if needed and waits for it to complete. It
// returns the error of the work, or a cancellation error.
func (op *Operation) Run() error {
	if err := op.Start(); err != nil {
		return err
	}
	<-op.done
	return op.Err()
}

// 🛑 Cancel cancels this operation's scope only
func (op *Operation) Cancel() {
	op.cancel()
}

func (op *Operation) execute() {
	op.complete(op.invoke())
}

func (op *Operation) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("operation %s panicked: %v", op.description, r)
		}
	}()
	return op.work(op.ctx, op.report)
}

// complete marks the operation completed exactly once and then releases its slot
func (op *Operation) complete(err error) {
	op.mu.Lock()
	if op.state == StateCompleted {
		op.mu.Unlock()
		return
	}
	op.state = StateCompleted
	op.running = false
	op.err = err
	switch {
	case err == nil:
	case isCancellation(err):
		op.canceled = true
	default:
		op.faulted = true
	}
	op.completedAt = op.tx.clock.Now()
	held := op.holdsSlot
	op.holdsSlot = false
	op.mu.Unlock()

	if op.unlink != nil {
		op.unlink()
	}
	op.cancel()
	close(op.done)
	if held {
		op.tx.gate.Release(1)
	}

	zerolog.Ctx(op.ctx).Debug().
		Str("operation", op.id).
		Bool("canceled", op.IsCanceled()).
		Bool("faulted", op.IsFaulted()).
		Err(err).
		Msg("operation ended")

	op.tx.report(ChangeOperationEnded, op)
}

func (op *Operation) report(transferred, total int64) {
	op.mu.Lock()
	if op.state == StateCompleted {
		op.mu.Unlock()
		return
	}
	op.progress = &Progress{Transferred: transferred, Total: total}
	op.mu.Unlock()

	op.tx.report(ChangeOperationStatusChanged, op)
}

// State returns the current lifecycle state
func (op *Operation) State() State {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.state
}

// IsQueued reports whether the operation has left the Created state
func (op *Operation) IsQueued() bool {
	return op.State() != StateCreated
}

// IsStarted reports whether the operation ever acquired a slot and launched its work
func (op *Operation) IsStarted() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.started
}

// IsCompleted reports whether the operation reached its terminal state
func (op *Operation) IsCompleted() bool {
	return op.State() == StateCompleted
}

// IsRunning reports whether the work is currently executing
func (op *Operation) IsRunning() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.running
}

// IsCanceled reports whether the operation ended because its scope was canceled
func (op *Operation) IsCanceled() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.canceled
}

// IsFaulted reports whether the work returned a non cancellation error
func (op *Operation) IsFaulted() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.faulted
}

// Err returns the stored fault or cancellation error
func (op *Operation) Err() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.err
}

// CanBeCanceled is true until the operation completes, is canceled or faults
func (op *Operation) CanBeCanceled() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.state != StateCompleted && !op.canceled && !op.faulted
}

// Progress returns the last reported progress snapshot
func (op *Operation) Progress() (Progress, bool) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.progress == nil {
		return Progress{}, false
	}
	return *op.progress, true
}

// ⚖️ Weight returns the declared weight, else the total of the last progress
// snapshot. The boolean is false when neither is known.
func (op *Operation) Weight() (int64, bool) {
	if op.hasWeight {
		return op.weight, true
	}
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.progress != nil {
		return op.progress.Total, true
	}
	return 0, false
}

// 📍 Offset returns how many weight units are consumed: the full weight once
// completed, otherwise the transferred bytes of the last snapshot.
func (op *Operation) Offset() (int64, bool) {
	if op.IsCompleted() {
		return op.Weight()
	}
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.progress != nil {
		return op.progress.Transferred, true
	}
	return 0, false
}

// Times returns when the operation was queued, started and completed. Zero
// values mean the transition did not happen.
func (op *Operation) Times() (queued, started, completed time.Time) {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.queuedAt, op.startedAt, op.completedAt
}
