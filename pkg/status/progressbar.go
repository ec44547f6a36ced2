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
	"io"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
)

// progressSteps is the resolution of the bar
const progressSteps = 1000

// DefaultRefresh is how often a ProgressBar samples its transaction
const DefaultRefresh = 100 * time.Millisecond

// 📊 ProgressBar renders the aggregate progress of one transaction
type ProgressBar struct {
	bar *pterm.ProgressbarPrinter

	mu      sync.Mutex
	current int

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartProgressBar begins sampling tx every refresh and drawing to w.
// Nothing is drawn while the progress is unknown.
func StartProgressBar(ctx context.Context, tx *transaction.Transaction, title string, w io.Writer, refresh time.Duration) (*ProgressBar, error) {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(progressSteps).
		WithTitle(title).
		WithWriter(w).
		WithShowCount(false).
		Start()
	if err != nil {
		return nil, errors.Errorf("starting progress bar: %w", err)
	}

	p := &ProgressBar{
		bar:  bar,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				p.sample(tx)
				return
			case <-ticker.C:
				p.sample(tx)
			}
		}
	}()

	return p, nil
}

// Current returns the drawn position in [0, 1]
func (p *ProgressBar) Current() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.current) / progressSteps
}

// 🏁 Stop takes a last sample and stops drawing. Calling it again does nothing.
func (p *ProgressBar) Stop() error {
	var err error
	p.once.Do(func() {
		close(p.stop)
		<-p.done
		_, err = p.bar.Stop()
	})
	return err
}

func (p *ProgressBar) sample(tx *transaction.Transaction) {
	value, ok := tx.ProgressValue()
	if !ok {
		return
	}

	target := int(value * progressSteps)
	if target > progressSteps {
		target = progressSteps
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if target > p.current {
		p.bar.Add(target - p.current)
		p.current = target
	}
}
