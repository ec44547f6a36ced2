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

// DefaultStartedFractionThreshold is the share of operations that must have
// reported progress before a byte based estimate is produced. Tunable.
const DefaultStartedFractionThreshold = 0.05

// 📊 ProgressValue returns the aggregate progress as a fraction in [0, 1].
// The boolean is false when the progress is unknown.
//
// Transactions holding data transfers use bytes consumed over bytes declared,
// once more than the threshold share of operations reported progress.
// Transactions of several thumbnail fetches use the completed ratio instead.
func (tx *Transaction) ProgressValue() (float64, bool) {
	ops := tx.Operations()
	if len(ops) == 0 {
		return 0, false
	}

	transfer := false
	for _, op := range ops {
		if op.Kind().IsDataTransfer() {
			transfer = true
			break
		}
	}

	if transfer {
		reporting := 0
		var offset, weight int64
		for _, op := range ops {
			if _, ok := op.Progress(); ok && op.IsStarted() {
				reporting++
			}
			w, ok := op.Weight()
			if !ok {
				continue
			}
			o, _ := op.Offset()
			weight += w
			offset += o
		}

		startedFraction := float64(reporting) / float64(len(ops))
		if startedFraction <= tx.threshold || weight <= 0 {
			return 0, false
		}
		return float64(offset) / float64(weight), true
	}

	thumbnails, completed := 0, 0
	for _, op := range ops {
		if op.Kind() != KindDownloadThumbnail {
			continue
		}
		thumbnails++
		if op.IsCompleted() {
			completed++
		}
	}
	if thumbnails > 1 {
		return float64(completed) / float64(thumbnails), true
	}
	return 0, false
}
