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

package opts

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/vfsops/pkg/config"
	"github.com/walteh/vfsops/pkg/log"
	"github.com/walteh/vfsops/pkg/transaction"
)

func TestSplitRef(t *testing.T) {
	tests := []struct {
		name     string
		arg      string
		wantName string
		wantPath string
	}{
		{name: "source_and_path", arg: "data:dir/a.txt", wantName: "data", wantPath: "dir/a.txt"},
		{name: "source_root", arg: "data:", wantName: "data", wantPath: ""},
		{name: "bare_path", arg: "dir/a.txt", wantName: "", wantPath: "dir/a.txt"},
		{name: "drive_letter", arg: `C:\work\a.txt`, wantName: "", wantPath: `C:\work\a.txt`},
		{name: "separator_before_colon", arg: "./odd:name", wantName: "", wantPath: "./odd:name"},
		{name: "path_with_colon", arg: "s3:logs/12:00.txt", wantName: "s3", wantPath: "logs/12:00.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, p := SplitRef(tt.arg)
			assert.Equal(t, tt.wantName, name, "source name should match")
			assert.Equal(t, tt.wantPath, p, "path should match")
		})
	}
}

func testContext() context.Context {
	return log.NewContext(context.Background(), log.NewWithZerolog(io.Discard, zerolog.New(io.Discard)))
}

func newTestOpts(t *testing.T, cfg *config.Config, parallel int) *RootOpts {
	t.Helper()
	ctx, cancel := context.WithCancel(testContext())
	t.Cleanup(cancel)

	o, err := New(ctx, cfg, io.Discard, parallel, false)
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o
}

func TestNewParallel(t *testing.T) {
	cfg := config.Default()

	o := newTestOpts(t, cfg, 0)
	assert.Equal(t, config.DefaultParallelism, o.Manager.CreateTransaction(0).MaxParallel(), "config default applies")

	o = newTestOpts(t, cfg, 3)
	assert.Equal(t, 3, o.Manager.CreateTransaction(0).MaxParallel(), "flag overrides config")

	_, err := New(testContext(), cfg, io.Discard, -1, false)
	assert.Error(t, err)
}

func TestFileSystem(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Sources: []config.Source{{Name: "data", Provider: "local", Root: dir}}}
	cfg.ApplyDefaults()
	o := newTestOpts(t, cfg, 0)
	ctx := context.Background()

	fs, err := o.FileSystem(ctx, "data")
	require.NoError(t, err)
	assert.Equal(t, "data", fs.Name())

	again, err := o.FileSystem(ctx, "data")
	require.NoError(t, err)
	assert.Same(t, fs, again, "sources are opened once")

	wd, err := o.FileSystem(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "local", wd.Name())

	_, err = o.FileSystem(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source "missing"`)
	assert.Contains(t, err.Error(), "local, data")
}

func TestTrack(t *testing.T) {
	o := newTestOpts(t, config.Default(), 0)
	ctx := context.Background()

	called := false
	err := o.Track(ctx, "noop", func() (*transaction.Transaction, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	err = o.Track(ctx, "mkdir", func() (*transaction.Transaction, error) {
		tx := o.Manager.CreateTransaction(1)
		defer tx.Dispose()
		if _, err := tx.Enqueue(transaction.KindCreateDirectory, "mkdir a", nil, ctx, func(ctx context.Context) error {
			return nil
		}); err != nil {
			return tx, err
		}
		return tx, tx.Run()
	})
	require.NoError(t, err)
	assert.Empty(t, o.Tracker.Transactions(), "tracked transaction is forgotten once reported")
}
