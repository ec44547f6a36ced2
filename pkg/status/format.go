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
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/walteh/vfsops/pkg/transaction"
)

// FileFormatter defines how operation and transaction status should be formatted
type FileFormatter interface {
	// FormatOperation formats the status line of one operation
	FormatOperation(op OperationStatus) string

	// FormatProgress formats the aggregate progress of a transaction
	FormatProgress(value float64, known bool) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatOperation formats an operation status message with emojis
func (f *DefaultFileFormatter) FormatOperation(op OperationStatus) string {
	switch {
	case op.Faulted:
		return fmt.Sprintf("❌ Failed %s", op.Description)
	case op.Canceled:
		return fmt.Sprintf("🚫 Canceled %s", op.Description)
	case op.State == transaction.StateCompleted:
		if op.HasProgress {
			return fmt.Sprintf("✅ Done %s (%s)", op.Description, humanize.Bytes(uint64(op.Transferred)))
		}
		return fmt.Sprintf("✅ Done %s", op.Description)
	case op.HasProgress:
		return fmt.Sprintf("⏳ %s %s/%s", op.Description, humanize.Bytes(uint64(op.Transferred)), humanize.Bytes(uint64(op.Total)))
	case op.State == transaction.StateStarted:
		return fmt.Sprintf("🏃 Running %s", op.Description)
	default:
		return fmt.Sprintf("💤 Waiting %s", op.Description)
	}
}

// FormatProgress formats a progress fraction as a percentage
func (f *DefaultFileFormatter) FormatProgress(value float64, known bool) string {
	if !known {
		return "⏳ Progress: unknown"
	}
	if value >= 1 {
		return fmt.Sprintf("✅ Progress: %.0f%%", value*100)
	}
	return fmt.Sprintf("⏳ Progress: %.0f%%", value*100)
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
