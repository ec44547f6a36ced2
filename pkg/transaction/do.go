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
)

// ⚡ Do runs work as the only operation of a throw-away transaction with a
// cap of one. The operation's own error is returned unwrapped.
func Do(ctx context.Context, m *Manager, kind Kind, description string, work Work) error {
	_, err := DoValue(ctx, m, kind, description, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, work(ctx)
	})
	return err
}

// ⚡ DoValue is Do for work that produces a value
func DoValue[T any](ctx context.Context, m *Manager, kind Kind, description string, work func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	tx := m.CreateTransaction(1)
	defer tx.Dispose()

	var result T
	op, err := tx.Enqueue(kind, description, nil, ctx, func(ctx context.Context) error {
		v, err := work(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return zero, err
	}

	tx.report(ChangeTransactionStarted, nil)
	if err := op.Run(); err != nil {
		return zero, err
	}
	return result, nil
}
