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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultParallelism is used by jobs and commands that do not set their own cap
	DefaultParallelism = 10

	// DefaultStartedFractionThreshold is the share of transfers that must report before progress is known
	DefaultStartedFractionThreshold = 0.05

	// DefaultProgressInterval is the minimum time between two progress reports of one transfer
	DefaultProgressInterval = 250 * time.Millisecond
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes the config from bytes, filename is used for diagnostics
	Parse(ctx context.Context, filename string, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// ⚙️ Engine tunes the transaction manager
type Engine struct {
	DefaultParallelism       int     `hcl:"default_parallelism,optional" json:"default_parallelism,omitempty" yaml:"default_parallelism,omitempty" validate:"gte=0"`
	StartedFractionThreshold float64 `hcl:"started_fraction_threshold,optional" json:"started_fraction_threshold,omitempty" yaml:"started_fraction_threshold,omitempty" validate:"gte=0,lt=1"`
	ProgressInterval         string  `hcl:"progress_interval,optional" json:"progress_interval,omitempty" yaml:"progress_interval,omitempty"`
}

// 📦 Source names a file system the jobs can read from or write to
type Source struct {
	Name     string `hcl:"name,label" json:"name" yaml:"name" validate:"required"`
	Provider string `hcl:"provider" json:"provider" yaml:"provider" validate:"required,oneof=local github s3"`

	// local
	Root string `hcl:"root,optional" json:"root,omitempty" yaml:"root,omitempty" validate:"required_if=Provider local"`

	// github
	Repo string `hcl:"repo,optional" json:"repo,omitempty" yaml:"repo,omitempty" validate:"required_if=Provider github"`
	Ref  string `hcl:"ref,optional" json:"ref,omitempty" yaml:"ref,omitempty"`

	// s3
	Bucket   string `hcl:"bucket,optional" json:"bucket,omitempty" yaml:"bucket,omitempty" validate:"required_if=Provider s3"`
	Prefix   string `hcl:"prefix,optional" json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region   string `hcl:"region,optional" json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string `hcl:"endpoint,optional" json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
}

// 🔧 Job is one explorer action run by the run command
type Job struct {
	Name        string   `hcl:"name,label" json:"name" yaml:"name" validate:"required"`
	Action      string   `hcl:"action" json:"action" yaml:"action" validate:"required,oneof=copy move delete mkdir list search"`
	From        string   `hcl:"from" json:"from" yaml:"from" validate:"required"`
	To          string   `hcl:"to,optional" json:"to,omitempty" yaml:"to,omitempty"`
	Dir         string   `hcl:"dir,optional" json:"dir,omitempty" yaml:"dir,omitempty"`
	Paths       []string `hcl:"paths,optional" json:"paths,omitempty" yaml:"paths,omitempty"`
	Pattern     string   `hcl:"pattern,optional" json:"pattern,omitempty" yaml:"pattern,omitempty" validate:"required_if=Action search"`
	Recursive   bool     `hcl:"recursive,optional" json:"recursive,omitempty" yaml:"recursive,omitempty"`
	Parallelism int      `hcl:"parallelism,optional" json:"parallelism,omitempty" yaml:"parallelism,omitempty" validate:"gte=0"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Engine  *Engine  `hcl:"engine,block" json:"engine,omitempty" yaml:"engine,omitempty"`
	Sources []Source `hcl:"source,block" json:"sources" yaml:"sources" validate:"dive"`
	Jobs    []Job    `hcl:"job,block" json:"jobs,omitempty" yaml:"jobs,omitempty" validate:"dive"`

	location string
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(ctx, path, data)
	if err != nil {
		return nil, err
	}
	cfg.location = path

	logger.Debug().Int("sources", len(cfg.Sources)).Int("jobs", len(cfg.Jobs)).Msg("configuration loaded")
	return cfg, nil
}

// 📝 Parse decodes data with the parser matching filename, applies defaults and validates
func Parse(ctx context.Context, filename string, data []byte) (*Config, error) {
	p := GetParser(filename)
	if p == nil {
		return nil, errors.Errorf("unsupported file extension %q", filepath.Ext(filename))
	}

	cfg, err := p.Parse(ctx, filename, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := Validate(cfg); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🧰 Default returns a config with only engine defaults, used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in unset engine values and cleans paths
func (cfg *Config) ApplyDefaults() {
	if cfg.Engine == nil {
		cfg.Engine = &Engine{}
	}
	if cfg.Engine.DefaultParallelism == 0 {
		cfg.Engine.DefaultParallelism = DefaultParallelism
	}
	if cfg.Engine.StartedFractionThreshold == 0 {
		cfg.Engine.StartedFractionThreshold = DefaultStartedFractionThreshold
	}
	if cfg.Engine.ProgressInterval == "" {
		cfg.Engine.ProgressInterval = DefaultProgressInterval.String()
	}

	for i := range cfg.Sources {
		if cfg.Sources[i].Provider == "local" && cfg.Sources[i].Root != "" {
			cfg.Sources[i].Root = filepath.Clean(cfg.Sources[i].Root)
		}
		if cfg.Sources[i].Provider == "github" && cfg.Sources[i].Ref == "" {
			cfg.Sources[i].Ref = "main"
		}
		cfg.Sources[i].Prefix = strings.Trim(cfg.Sources[i].Prefix, "/")
	}

	for i := range cfg.Jobs {
		if cfg.Jobs[i].Parallelism == 0 {
			cfg.Jobs[i].Parallelism = cfg.Engine.DefaultParallelism
		}
		if cfg.Jobs[i].Action == "list" && len(cfg.Jobs[i].Paths) == 0 {
			cfg.Jobs[i].Paths = []string{"."}
		}
	}
}

// ⏱️ Interval returns the parsed progress interval
func (e *Engine) Interval() time.Duration {
	if e == nil || e.ProgressInterval == "" {
		return DefaultProgressInterval
	}
	d, err := time.ParseDuration(e.ProgressInterval)
	if err != nil {
		return DefaultProgressInterval
	}
	return d
}

// 🔍 Source returns the source with the given name
func (cfg *Config) Source(name string) (Source, bool) {
	for _, s := range cfg.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// 🔍 Job returns the job with the given name
func (cfg *Config) Job(name string) (Job, bool) {
	for _, j := range cfg.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

// Location returns the file the config was loaded from, empty for parsed data
func (cfg *Config) Location() string {
	return cfg.location
}

// 📝 String returns a string representation of the source
func (s Source) String() string {
	switch s.Provider {
	case "local":
		return fmt.Sprintf("%s (local %s)", s.Name, s.Root)
	case "github":
		return fmt.Sprintf("%s (github %s@%s)", s.Name, s.Repo, s.Ref)
	case "s3":
		if s.Prefix == "" {
			return fmt.Sprintf("%s (s3://%s)", s.Name, s.Bucket)
		}
		return fmt.Sprintf("%s (s3://%s/%s)", s.Name, s.Bucket, s.Prefix)
	default:
		return s.Name
	}
}
