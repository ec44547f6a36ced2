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

// 🔔 ChangeKind identifies a lifecycle event relayed through the manager
type ChangeKind int

const (
	ChangeOperationAdded ChangeKind = iota
	ChangeOperationStatusChanged
	ChangeOperationEnded
	ChangeTransactionStarted
	ChangeTransactionEnded
)

// String returns a string representation of ChangeKind
func (c ChangeKind) String() string {
	switch c {
	case ChangeOperationAdded:
		return "operation_added"
	case ChangeOperationStatusChanged:
		return "operation_status_changed"
	case ChangeOperationEnded:
		return "operation_ended"
	case ChangeTransactionStarted:
		return "transaction_started"
	case ChangeTransactionEnded:
		return "transaction_ended"
	default:
		return "unknown"
	}
}

// 📨 Change is a single entry on the manager's change stream.
// Operation is nil for transaction level events.
type Change struct {
	Kind        ChangeKind
	Transaction *Transaction
	Operation   *Operation
}
