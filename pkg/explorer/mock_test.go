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
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/vfsops/pkg/provider"
	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
)

// mockFS is a provider.FileSystem driven by testify expectations
type mockFS struct {
	mock.Mock
}

func (m *mockFS) Name() string { return "mock" }

func (m *mockFS) Stat(ctx context.Context, p string) (provider.Item, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(provider.Item), args.Error(1)
}

func (m *mockFS) List(ctx context.Context, dir string) ([]provider.Item, error) {
	args := m.Called(ctx, dir)
	items, _ := args.Get(0).([]provider.Item)
	return items, args.Error(1)
}

func (m *mockFS) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	args := m.Called(ctx, p)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockFS) Create(ctx context.Context, p string, r io.Reader, size int64) error {
	return m.Called(ctx, p, r, size).Error(0)
}

func (m *mockFS) MakeDir(ctx context.Context, p string) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockFS) Remove(ctx context.Context, p string, recursive bool) error {
	return m.Called(ctx, p, recursive).Error(0)
}

// mockPreviewFS adds cheap previews to mockFS
type mockPreviewFS struct {
	mockFS
}

func (m *mockPreviewFS) Preview(ctx context.Context, p string) (io.ReadCloser, error) {
	args := m.Called(ctx, p)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func TestDeleteAggregatesFaults(t *testing.T) {
	ctx, ex := newTestExplorer(t)
	fs := &mockFS{}
	boom := errors.New("boom")

	fs.On("Stat", mock.Anything, "a.txt").Return(provider.Item{Path: "a.txt", Name: "a.txt"}, nil)
	fs.On("Stat", mock.Anything, "dir").Return(provider.Item{Path: "dir", Name: "dir", IsDir: true}, nil)
	fs.On("Remove", mock.Anything, "a.txt", false).Return(nil)
	fs.On("Remove", mock.Anything, "dir", true).Return(boom)

	tx, err := ex.Delete(ctx, fs, []string{"a.txt", "dir"}, true, 0)
	require.Error(t, err)

	var agg *transaction.AggregateError
	require.ErrorAs(t, err, &agg, "faults should be aggregated")
	require.Len(t, agg.Errors, 1)
	assert.ErrorIs(t, agg.Errors[0], boom)

	assert.Equal(t, 1, countKind(tx, transaction.KindDeleteFile))
	assert.Equal(t, 1, countKind(tx, transaction.KindDeleteDirectory))
	fs.AssertExpectations(t)
}

func TestDeleteRefusesRoot(t *testing.T) {
	ctx, ex := newTestExplorer(t)
	fs := &mockFS{}

	fs.On("Stat", mock.Anything, "/").Return(provider.Item{Path: "", IsDir: true}, nil)

	tx, err := ex.Delete(ctx, fs, []string{"/"}, true, 0)
	require.Error(t, err)
	assert.Nil(t, tx, "no transaction is created for a refused delete")
	assert.Contains(t, err.Error(), "refusing to delete the root")
	fs.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
}

func TestMakeDirFault(t *testing.T) {
	ctx, ex := newTestExplorer(t)
	fs := &mockFS{}

	fs.On("MakeDir", mock.Anything, "ok").Return(nil)
	fs.On("MakeDir", mock.Anything, "bad").Return(provider.ErrReadOnly)

	tx, err := ex.MakeDir(ctx, fs, []string{"ok", "bad"})
	require.ErrorIs(t, err, provider.ErrReadOnly, "aggregate should unwrap to the fault")
	assert.Equal(t, 2, countKind(tx, transaction.KindCreateDirectory))
	fs.AssertExpectations(t)
}

func TestThumbnailsPrefersPreview(t *testing.T) {
	ctx, ex := newTestExplorer(t)
	fs := &mockPreviewFS{}

	fs.On("Preview", mock.Anything, "a.png").Return(io.NopCloser(strings.NewReader("small a")), nil)
	fs.On("Preview", mock.Anything, "b.png").Return(io.NopCloser(strings.NewReader("small b")), nil)

	thumbs, tx, err := ex.Thumbnails(ctx, fs, []string{"a.png", "b.png"}, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		"a.png": []byte("small a"),
		"b.png": []byte("small b"),
	}, thumbs)

	value, ok := tx.ProgressValue()
	require.True(t, ok, "several thumbnails report a completed ratio")
	assert.Equal(t, 1.0, value)

	fs.AssertExpectations(t)
	fs.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}
