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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:     "hcl_full",
			filename: "vfsops.hcl",
			config: `
engine {
  default_parallelism        = 4
  started_fraction_threshold = 0.1
  progress_interval          = "1s"
}

source "docs" {
  provider = "local"
  root     = "/data/docs/"
}

source "upstream" {
  provider = "github"
  repo     = "github.com/walteh/vfsops"
}

source "backup" {
  provider = "s3"
  bucket   = "team-backup"
  prefix   = "/docs/"
  region   = "us-east-1"
}

job "nightly" {
  action    = "copy"
  from      = "docs"
  to        = "backup"
  paths     = ["reports", "notes.txt"]
  recursive = true
}

job "find_go" {
  action  = "search"
  from    = "upstream"
  pattern = "**/*.go"
}
`,
			check: func(t *testing.T, cfg *Config) {
				require.NotNil(t, cfg.Engine, "engine should be set")
				assert.Equal(t, 4, cfg.Engine.DefaultParallelism, "parallelism should match")
				assert.InDelta(t, 0.1, cfg.Engine.StartedFractionThreshold, 1e-9, "threshold should match")
				assert.Equal(t, time.Second, cfg.Engine.Interval(), "interval should match")

				require.Len(t, cfg.Sources, 3, "should have 3 sources")
				docs, ok := cfg.Source("docs")
				require.True(t, ok, "docs should exist")
				assert.Equal(t, "/data/docs", docs.Root, "root should be cleaned")

				upstream, ok := cfg.Source("upstream")
				require.True(t, ok)
				assert.Equal(t, "main", upstream.Ref, "ref should default to main")

				backup, ok := cfg.Source("backup")
				require.True(t, ok)
				assert.Equal(t, "docs", backup.Prefix, "prefix should be trimmed")

				nightly, ok := cfg.Job("nightly")
				require.True(t, ok, "nightly should exist")
				assert.Equal(t, []string{"reports", "notes.txt"}, nightly.Paths, "paths should match")
				assert.True(t, nightly.Recursive, "recursive should be set")
				assert.Equal(t, 4, nightly.Parallelism, "job parallelism should default to the engine")

				search, ok := cfg.Job("find_go")
				require.True(t, ok)
				assert.Equal(t, "**/*.go", search.Pattern)
			},
		},
		{
			name:     "yaml_minimal",
			filename: "vfsops.yaml",
			config: `
sources:
  - name: here
    provider: local
    root: .
jobs:
  - name: show
    action: list
    from: here
`,
			check: func(t *testing.T, cfg *Config) {
				require.NotNil(t, cfg.Engine, "engine should be defaulted")
				assert.Equal(t, DefaultParallelism, cfg.Engine.DefaultParallelism)
				assert.InDelta(t, DefaultStartedFractionThreshold, cfg.Engine.StartedFractionThreshold, 1e-9)
				assert.Equal(t, DefaultProgressInterval, cfg.Engine.Interval())

				job, ok := cfg.Job("show")
				require.True(t, ok)
				assert.Equal(t, []string{"."}, job.Paths, "list should default to the root")
				assert.Equal(t, DefaultParallelism, job.Parallelism)
			},
		},
		{
			name:     "json_minimal",
			filename: "vfsops.json",
			config:   `{"sources":[{"name":"bucket","provider":"s3","bucket":"b","endpoint":"http://localhost:9000"}]}`,
			check: func(t *testing.T, cfg *Config) {
				src, ok := cfg.Source("bucket")
				require.True(t, ok)
				assert.Equal(t, "http://localhost:9000", src.Endpoint)
				assert.Equal(t, "bucket (s3://b)", src.String())
			},
		},
		{
			name:        "json_unknown_field",
			filename:    "vfsops.json",
			config:      `{"sources":[],"bogus":true}`,
			wantErr:     true,
			errContains: "unknown field",
		},
		{
			name:     "yaml_unknown_field",
			filename: "vfsops.yml",
			config: `
sources: []
bogus: true
`,
			wantErr:     true,
			errContains: "bogus",
		},
		{
			name:        "unsupported_extension",
			filename:    "vfsops.toml",
			config:      ``,
			wantErr:     true,
			errContains: "unsupported file extension",
		},
		{
			name:     "local_without_root",
			filename: "vfsops.hcl",
			config: `
source "docs" {
  provider = "local"
}
`,
			wantErr:     true,
			errContains: "required_if",
		},
		{
			name:     "unknown_provider",
			filename: "vfsops.hcl",
			config: `
source "ftp" {
  provider = "ftp"
}
`,
			wantErr:     true,
			errContains: "oneof",
		},
		{
			name:     "duplicate_source",
			filename: "vfsops.hcl",
			config: `
source "docs" {
  provider = "local"
  root     = "/a"
}
source "docs" {
  provider = "local"
  root     = "/b"
}
`,
			wantErr:     true,
			errContains: "duplicate source name",
		},
		{
			name:     "job_unknown_source",
			filename: "vfsops.hcl",
			config: `
job "lost" {
  action = "delete"
  from   = "nowhere"
  paths  = ["a"]
}
`,
			wantErr:     true,
			errContains: "unknown source",
		},
		{
			name:     "copy_without_to",
			filename: "vfsops.hcl",
			config: `
source "docs" {
  provider = "local"
  root     = "/a"
}
job "copy" {
  action = "copy"
  from   = "docs"
  paths  = ["a"]
}
`,
			wantErr:     true,
			errContains: "needs a to source",
		},
		{
			name:     "search_without_pattern",
			filename: "vfsops.hcl",
			config: `
source "docs" {
  provider = "local"
  root     = "/a"
}
job "find" {
  action = "search"
  from   = "docs"
}
`,
			wantErr:     true,
			errContains: "Pattern",
		},
		{
			name:     "bad_interval",
			filename: "vfsops.hcl",
			config: `
engine {
  progress_interval = "soon"
}
`,
			wantErr:     true,
			errContains: "progress_interval",
		},
		{
			name:     "threshold_out_of_range",
			filename: "vfsops.hcl",
			config: `
engine {
  started_fraction_threshold = 1.5
}
`,
			wantErr:     true,
			errContains: "StartedFractionThreshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(testContext(t), tt.filename, []byte(tt.config))
			if tt.wantErr {
				require.Error(t, err, "parse should fail")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "parse should succeed")
			tt.check(t, cfg)
		})
	}
}

func TestParseHCLEnvironment(t *testing.T) {
	t.Setenv("VFSOPS_TEST_ROOT", "/srv/files")

	cfg, err := Parse(testContext(t), "vfsops.hcl", []byte(`
source "files" {
  provider = "local"
  root     = env.VFSOPS_TEST_ROOT
}
`))
	require.NoError(t, err, "parse should succeed")

	src, ok := cfg.Source("files")
	require.True(t, ok)
	assert.Equal(t, "/srv/files", src.Root, "root should come from the environment")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vfsops.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - name: here\n    provider: local\n    root: "+dir+"\n"), 0o644))

	cfg, err := Load(testContext(t), path)
	require.NoError(t, err, "load should succeed")
	assert.Equal(t, path, cfg.Location(), "location should be recorded")

	_, err = Load(testContext(t), filepath.Join(dir, "missing.yaml"))
	require.Error(t, err, "missing file should fail")
	assert.Contains(t, err.Error(), "reading config file")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg.Engine)
	assert.Equal(t, DefaultParallelism, cfg.Engine.DefaultParallelism)
	assert.Empty(t, cfg.Sources)
	require.NoError(t, Validate(cfg), "defaults should validate")
}
