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
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(zerolog.New(io.Discard).WithContext(context.Background()))
	t.Cleanup(cancel)
	return ctx
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	return NewManager(testContext(t), opts...)
}

func int64Ptr(v int64) *int64 { return &v }

// 📼 recorder collects changes delivered to a subscription
type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func record(t *testing.T, m *Manager) *recorder {
	t.Helper()
	r := &recorder{}
	unsubscribe := m.Subscribe(func(c Change) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.changes = append(r.changes, c)
	})
	t.Cleanup(unsubscribe)
	return r
}

func (r *recorder) all() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Change, len(r.changes))
	copy(out, r.changes)
	return out
}

func (r *recorder) count(kind ChangeKind, op *Operation) int {
	n := 0
	for _, c := range r.all() {
		if c.Kind == kind && (op == nil || c.Operation == op) {
			n++
		}
	}
	return n
}

// 🚦 activeTracker records the highest number of concurrently running works
type activeTracker struct {
	mu     sync.Mutex
	active int
	max    int
}

func (a *activeTracker) enter() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active++
	if a.active > a.max {
		a.max = a.active
	}
}

func (a *activeTracker) leave() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active--
}

func (a *activeTracker) peak() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.max
}

func countStarted(tx *Transaction) int {
	n := 0
	for _, op := range tx.Operations() {
		if op.State() == StateStarted {
			n++
		}
	}
	return n
}
