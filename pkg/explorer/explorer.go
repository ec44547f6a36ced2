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
	"time"

	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
)

// DefaultProgressInterval is the minimum time between two progress reports of one transfer
const DefaultProgressInterval = 250 * time.Millisecond

// ThumbnailSize is how many leading bytes make a preview when the file system has no Previewer
const ThumbnailSize = 64 * 1024

var (
	// ErrExists is returned when a transfer target already exists and overwriting is off
	ErrExists = errors.New("target already exists")

	// ErrIsDirectory is returned when a directory is given to a non recursive transfer
	ErrIsDirectory = errors.New("is a directory, recursion required")
)

// 🔧 Options contains configuration for the explorer
type Options struct {
	// Manager owns every transaction the explorer creates
	Manager *transaction.Manager
	// Parallelism caps operations per transaction when a call does not set its own
	Parallelism int
	// ProgressInterval throttles byte progress reports
	ProgressInterval time.Duration
}

// 🧭 Explorer runs file system actions as transactions of operations
type Explorer struct {
	manager     *transaction.Manager
	parallelism int
	interval    time.Duration
}

// 🏭 New creates a new explorer with the given options
func New(opts Options) (*Explorer, error) {
	if opts.Manager == nil {
		return nil, errors.Errorf("manager is required")
	}
	if opts.Parallelism < 0 {
		return nil, errors.Errorf("parallelism must not be negative, got %d", opts.Parallelism)
	}

	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	return &Explorer{
		manager:     opts.Manager,
		parallelism: opts.Parallelism,
		interval:    interval,
	}, nil
}

// Manager returns the transaction manager behind the explorer
func (e *Explorer) Manager() *transaction.Manager {
	return e.manager
}

// capFor picks the per call cap, falling back to the explorer's and then the manager's default
func (e *Explorer) capFor(n int) int {
	if n > 0 {
		return n
	}
	return e.parallelism
}

// weightOf returns the declared weight of a transfer, nil when the size is unknown
func weightOf(size int64) *int64 {
	if size < 0 {
		return nil
	}
	return &size
}
