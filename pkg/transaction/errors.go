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
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrTransactionCompleted is returned when work is enqueued on a disposed transaction
	ErrTransactionCompleted = errors.New("transaction is completed")
	// ErrNegativeWeight is returned when an operation declares a weight below zero
	ErrNegativeWeight = errors.New("operation weight must not be negative")
)

// ❌ AggregateError collects the faults of every failed operation in enqueue order
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d operation(s) failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the inner faults to errors.Is and errors.As
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// 🛑 CanceledError reports that a run ended because of cancellation.
// Transaction is true when the transaction itself was canceled, false when
// only individual operations were.
type CanceledError struct {
	Transaction bool
	Canceled    int
}

func (e *CanceledError) Error() string {
	if e.Transaction {
		return "transaction canceled"
	}
	return fmt.Sprintf("%d operation(s) canceled", e.Canceled)
}

// Unwrap makes errors.Is(err, context.Canceled) hold
func (e *CanceledError) Unwrap() error {
	return context.Canceled
}

// isCancellation reports whether err is the result of a canceled scope
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
