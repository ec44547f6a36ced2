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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressValueStartedFractionThreshold(t *testing.T) {
	mgr := newTestManager(t)
	tx := mgr.CreateTransaction(20)
	defer tx.Dispose()

	second := make(chan struct{})
	release := make(chan struct{})
	ops := make([]*Operation, 20)
	for i := range ops {
		op, err := tx.EnqueueWithProgress(KindDownloadFile, fmt.Sprintf("download %d", i), int64Ptr(100), nil, func(ctx context.Context, report ProgressFunc) error {
			switch i {
			case 0:
				report(50, 100)
			case 1:
				<-second
				report(50, 100)
			}
			<-release
			return nil
		})
		require.NoError(t, err)
		ops[i] = op
	}

	_, ok := tx.ProgressValue()
	assert.False(t, ok, "progress should be unknown before anything starts")

	done := make(chan error, 1)
	go func() { done <- tx.Run() }()

	require.Eventually(t, func() bool {
		_, ok := ops[0].Progress()
		return ok
	}, waitFor, tick)
	_, ok = tx.ProgressValue()
	assert.False(t, ok, "one of twenty reporting is exactly the threshold and stays unknown")

	close(second)
	require.Eventually(t, func() bool {
		_, ok := ops[1].Progress()
		return ok
	}, waitFor, tick)
	value, ok := tx.ProgressValue()
	require.True(t, ok, "two of twenty reporting is above the threshold")
	assert.InDelta(t, float64(50+50)/float64(100*20), value, 1e-9)

	close(release)
	require.NoError(t, <-done)
	value, ok = tx.ProgressValue()
	require.True(t, ok)
	assert.InDelta(t, 1.0, value, 1e-9, "completed operations count their full weight")
}

func TestProgressValueCustomThreshold(t *testing.T) {
	mgr := newTestManager(t, WithStartedFractionThreshold(0))
	tx := mgr.CreateTransaction(1)
	defer tx.Dispose()

	_, err := tx.EnqueueWithProgress(KindUploadFile, "upload", int64Ptr(10), nil, func(ctx context.Context, report ProgressFunc) error {
		report(5, 10)
		return nil
	})
	require.NoError(t, err)
	_, err = tx.Enqueue(KindUploadFile, "pending", int64Ptr(10), nil, func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	require.NoError(t, tx.Operations()[0].Run())
	value, ok := tx.ProgressValue()
	require.True(t, ok, "a zero threshold needs a single reporting operation")
	assert.InDelta(t, 0.5, value, 1e-9)
}

func TestProgressValueThumbnails(t *testing.T) {
	tests := []struct {
		name      string
		kinds     []Kind
		complete  int
		wantKnown bool
		want      float64
	}{
		{
			name:      "many_thumbnails_use_completion_ratio",
			kinds:     []Kind{KindDownloadThumbnail, KindDownloadThumbnail, KindDownloadThumbnail, KindDownloadThumbnail},
			complete:  1,
			wantKnown: true,
			want:      0.25,
		},
		{
			name:      "single_thumbnail_is_unknown",
			kinds:     []Kind{KindDownloadThumbnail},
			complete:  1,
			wantKnown: false,
		},
		{
			name:      "non_transfer_kinds_are_unknown",
			kinds:     []Kind{KindDeleteFile, KindCreateDirectory, KindSearch},
			complete:  2,
			wantKnown: false,
		},
		{
			name:      "thumbnails_mixed_with_other_kinds",
			kinds:     []Kind{KindDownloadThumbnail, KindOpenDirectory, KindDownloadThumbnail},
			complete:  2,
			wantKnown: true,
			want:      0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newTestManager(t)
			tx := mgr.CreateTransaction(1)
			defer tx.Dispose()

			for i, k := range tt.kinds {
				_, err := tx.Enqueue(k, fmt.Sprintf("%s %d", k, i), nil, nil, func(ctx context.Context) error { return nil })
				require.NoError(t, err)
			}
			for _, op := range tx.Operations()[:tt.complete] {
				require.NoError(t, op.Run())
			}

			value, ok := tx.ProgressValue()
			assert.Equal(t, tt.wantKnown, ok, "known")
			if tt.wantKnown {
				assert.InDelta(t, tt.want, value, 1e-9)
			}
		})
	}
}

func TestProgressValueTransferWithoutWeights(t *testing.T) {
	mgr := newTestManager(t)
	tx := mgr.CreateTransaction(1)
	defer tx.Dispose()

	_, ok := tx.ProgressValue()
	assert.False(t, ok, "empty transaction is unknown")

	_, err := tx.Enqueue(KindCopyFile, "copy", nil, nil, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, tx.Run())

	_, ok = tx.ProgressValue()
	assert.False(t, ok, "transfers without any weight are unknown")
}
