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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workspace struct {
	dir    string
	src    string
	out    string
	config string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()

	dir := t.TempDir()
	ws := workspace{
		dir:    dir,
		src:    filepath.Join(dir, "src"),
		out:    filepath.Join(dir, "out"),
		config: filepath.Join(dir, "vfsops.yaml"),
	}

	files := map[string]string{
		"a.txt":       "alpha",
		"sub/b.txt":   "bravo",
		"sub/c.md":    "charlie",
		"sub/d/e.txt": "echo",
	}
	for name, content := range files {
		path := filepath.Join(ws.src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	require.NoError(t, os.MkdirAll(ws.out, 0o755))

	cfg := `engine:
  default_parallelism: 2
sources:
  - name: data
    provider: local
    root: ` + ws.src + `
  - name: out
    provider: local
    root: ` + ws.out + `
jobs:
  - name: backup
    action: copy
    from: data
    to: out
    dir: backup
    paths: [sub]
    recursive: true
  - name: docs
    action: search
    from: data
    pattern: "**/*.md"
`
	require.NoError(t, os.WriteFile(ws.config, []byte(cfg), 0o644))
	return ws
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	buf := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name    string
		args    func(ws workspace) []string
		wantErr string
		check   func(t *testing.T, ws workspace, out string)
	}{
		{
			name: "copy_recursive",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "copy", "-r", "data:a.txt", "data:sub", "out:dest"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Equal(t, "alpha", readFile(t, filepath.Join(ws.out, "dest", "a.txt")))
				assert.Equal(t, "bravo", readFile(t, filepath.Join(ws.out, "dest", "sub", "b.txt")))
				assert.Equal(t, "echo", readFile(t, filepath.Join(ws.out, "dest", "sub", "d", "e.txt")))
				assert.Contains(t, out, "[copy]")
				assert.Contains(t, out, "operations done")
			},
		},
		{
			name: "copy_directory_without_recursive",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "copy", "data:sub", "out:dest"}
			},
			wantErr: "planning copy",
		},
		{
			name: "move_file",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "mv", "data:a.txt", "out:"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Equal(t, "alpha", readFile(t, filepath.Join(ws.out, "a.txt")))
				assert.NoFileExists(t, filepath.Join(ws.src, "a.txt"))
			},
		},
		{
			name: "rm_recursive",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "rm", "-r", "data:sub"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.NoDirExists(t, filepath.Join(ws.src, "sub"))
				assert.FileExists(t, filepath.Join(ws.src, "a.txt"))
			},
		},
		{
			name: "mkdir",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "mkdir", "out:x/y", "out:z"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.DirExists(t, filepath.Join(ws.out, "x", "y"))
				assert.DirExists(t, filepath.Join(ws.out, "z"))
			},
		},
		{
			name: "ls",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "ls", "data:sub"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Contains(t, out, "sub/b.txt")
				assert.Contains(t, out, "sub/c.md")
				assert.Contains(t, out, "sub/d/")
			},
		},
		{
			name: "find",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "find", "data:", "**/*.txt"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Contains(t, out, "a.txt")
				assert.Contains(t, out, "sub/d/e.txt")
				assert.NotContains(t, out, "c.md")
			},
		},
		{
			name: "run_all_jobs",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "run"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Equal(t, "bravo", readFile(t, filepath.Join(ws.out, "backup", "sub", "b.txt")))
				assert.Contains(t, out, "sub/c.md", "search job prints its matches")
			},
		},
		{
			name: "run_prints_job_headers",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "run", "docs"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Contains(t, out, "vfsops • job docs")
				assert.Contains(t, out, "1 matches for **/*.md")
				assert.Contains(t, out, "1 jobs done")
			},
		},
		{
			name: "ls_refresh",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "ls", "--refresh", "data:sub"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Contains(t, out, "sub/b.txt")
			},
		},
		{
			name: "cat",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "cat", "data:sub/b.txt"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Contains(t, out, "bravo")
				assert.NotContains(t, out, "[", "reads are not reported as transactions")
			},
		},
		{
			name: "get_into_directory",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "get", "data:sub/c.md", ws.out}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Equal(t, "charlie", readFile(t, filepath.Join(ws.out, "c.md")))
				assert.Contains(t, out, "[get]")
			},
		},
		{
			name: "get_missing_source",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "get", "data:nope.txt", filepath.Join(ws.out, "nope.txt")}
			},
			wantErr: "stat",
		},
		{
			name: "put_keeps_name",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "put", filepath.Join(ws.src, "a.txt"), "out:up/"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Equal(t, "alpha", readFile(t, filepath.Join(ws.out, "up", "a.txt")))
				assert.Contains(t, out, "upload_file")
			},
		},
		{
			name: "put_updates_existing",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "put", filepath.Join(ws.src, "a.txt"), "data:sub/b.txt"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Equal(t, "alpha", readFile(t, filepath.Join(ws.src, "sub", "b.txt")))
				assert.Contains(t, out, "update_file")
			},
		},
		{
			name: "thumbs",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "thumbs", "-o", filepath.Join(ws.out, "previews"), "data:a.txt", "data:sub/b.txt"}
			},
			check: func(t *testing.T, ws workspace, out string) {
				assert.Equal(t, "alpha", readFile(t, filepath.Join(ws.out, "previews", "a.txt")))
				assert.Equal(t, "bravo", readFile(t, filepath.Join(ws.out, "previews", "b.txt")))
				assert.Contains(t, out, "2 of 2 previews written")
			},
		},
		{
			name: "run_unknown_job",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "run", "nope"}
			},
			wantErr: `unknown job "nope"`,
		},
		{
			name: "unknown_source",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "ls", "nowhere:x"}
			},
			wantErr: `unknown source "nowhere"`,
		},
		{
			name: "negative_parallel",
			args: func(ws workspace) []string {
				return []string{"-c", ws.config, "--parallel=-1", "ls", "data:"}
			},
			wantErr: "parallel must not be negative",
		},
		{
			name: "missing_explicit_config",
			args: func(ws workspace) []string {
				return []string{"-c", filepath.Join(ws.dir, "missing.hcl"), "ls"}
			},
			wantErr: "reading config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newWorkspace(t)

			out, err := execute(t, tt.args(ws)...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err, "output: %s", out)
			if tt.check != nil {
				tt.check(t, ws, out)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "github.com/walteh/vfsops")
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)

	out, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var b Build
	require.NoError(t, json.Unmarshal([]byte(out), &b), "output: %s", out)
	assert.NotEmpty(t, b.Go)

	_, err = execute(t, "version", "--format", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}

func TestBuildFrom(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.25.0",
		Main:      debug.Module{Path: "github.com/walteh/vfsops", Version: "v1.2.3"},
		Deps: []*debug.Module{
			{Path: "github.com/spf13/cobra", Version: "v1.8.1"},
			{Path: "example.com/old", Version: "v0.1.0", Replace: &debug.Module{Path: "example.com/new", Version: "v0.2.0"}},
		},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2025-01-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	tests := []struct {
		name   string
		bi     *debug.BuildInfo
		deps   bool
		format string
		want   []string
		absent []string
	}{
		{
			name:   "text_with_vcs",
			bi:     bi,
			format: "text",
			want: []string{
				"github.com/walteh/vfsops v1.2.3 (go1.25.0, ",
				"commit 0123456789ab+dirty at 2025-01-01T00:00:00Z",
			},
			absent: []string{"cobra"},
		},
		{
			name:   "text_with_deps",
			bi:     bi,
			deps:   true,
			format: "text",
			want:   []string{"  github.com/spf13/cobra v1.8.1", "  example.com/new v0.2.0"},
			absent: []string{"example.com/old"},
		},
		{
			name:   "yaml",
			bi:     bi,
			format: "yaml",
			want:   []string{"version: v1.2.3", "commit: 0123456789abcdef0123", "dirty: true"},
		},
		{
			name:   "no_build_info",
			bi:     nil,
			format: "text",
			want:   []string{"github.com/walteh/vfsops (devel)"},
			absent: []string{"commit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, writeBuild(buf, buildFrom(tt.bi, tt.deps), tt.format))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
			for _, absent := range tt.absent {
				assert.NotContains(t, buf.String(), absent)
			}
		})
	}
}
