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

	"github.com/juju/clock"
	"github.com/juju/pubsub/v2"
	"github.com/rs/zerolog"
)

// DefaultMaxParallel is the concurrency cap used when callers pass zero
const DefaultMaxParallel = 10

const changedTopic = "transaction.changed"

// 🗂️ Manager is the registry of live transactions. It creates them, relays
// their change notifications to subscribers and evicts completed ones.
type Manager struct {
	ctx             context.Context
	clock           clock.Clock
	defaultParallel int
	threshold       float64
	hub             *pubsub.SimpleHub

	mu           sync.Mutex
	transactions []*Transaction
}

// 🔧 Option configures a Manager
type Option func(*Manager)

// WithClock sets the clock used to stamp operation transitions
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithDefaultParallelism sets the cap used by CreateTransaction(0)
func WithDefaultParallelism(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.defaultParallel = n
		}
	}
}

// WithStartedFractionThreshold overrides DefaultStartedFractionThreshold
func WithStartedFractionThreshold(f float64) Option {
	return func(m *Manager) {
		if f >= 0 && f < 1 {
			m.threshold = f
		}
	}
}

// 🏭 NewManager creates a manager. Every transaction's scope derives from
// ctx, so canceling it cancels all work; the zerolog logger carried by ctx is
// used for engine logs.
func NewManager(ctx context.Context, opts ...Option) *Manager {
	m := &Manager{
		ctx:             ctx,
		clock:           clock.WallClock,
		defaultParallel: DefaultMaxParallel,
		threshold:       DefaultStartedFractionThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.hub = pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
		Logger: hubLogger{logger: zerolog.Ctx(ctx)},
	})
	return m
}

// ➕ CreateTransaction registers a new transaction with the given concurrency
// cap. Values below one use the default.
func (m *Manager) CreateTransaction(maxParallel int) *Transaction {
	if maxParallel <= 0 {
		maxParallel = m.defaultParallel
	}
	tx := newTransaction(m, maxParallel)

	m.mu.Lock()
	m.transactions = append(m.transactions, tx)
	m.mu.Unlock()

	zerolog.Ctx(m.ctx).Debug().
		Str("transaction", tx.id).
		Int("max_parallel", maxParallel).
		Msg("transaction created")
	return tx
}

// 📣 ReportTransactionChanged broadcasts a change to subscribers, then evicts
// the transaction if it is completed
func (m *Manager) ReportTransactionChanged(change Change) {
	m.hub.Publish(changedTopic, change)

	if change.Transaction != nil && change.Transaction.IsCompleted() {
		m.remove(change.Transaction)
	}
}

// 👂 Subscribe registers fn on the change stream and returns the function
// that unregisters it. Changes are delivered in order on a goroutine owned
// by the subscription.
func (m *Manager) Subscribe(fn func(Change)) (unsubscribe func()) {
	return m.hub.Subscribe(changedTopic, func(_ string, data interface{}) {
		if change, ok := data.(Change); ok {
			fn(change)
		}
	})
}

// Transactions returns the live transactions in creation order
func (m *Manager) Transactions() []*Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Transaction, len(m.transactions))
	copy(out, m.transactions)
	return out
}

// Len returns the number of live transactions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

func (m *Manager) remove(tx *Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.transactions {
		if t == tx {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			zerolog.Ctx(m.ctx).Debug().Str("transaction", tx.id).Msg("transaction evicted")
			return
		}
	}
}

// hubLogger routes the hub's diagnostics to zerolog
type hubLogger struct {
	logger *zerolog.Logger
}

func (l hubLogger) Criticalf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l hubLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l hubLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l hubLogger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

func (l hubLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l hubLogger) Tracef(format string, args ...interface{}) {
	l.logger.Trace().Msgf(format, args...)
}

func (l hubLogger) IsTraceEnabled() bool {
	return l.logger.GetLevel() <= zerolog.TraceLevel
}
