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
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const modulePath = "github.com/walteh/vfsops"

// Build describes the running binary
type Build struct {
	Module   string       `json:"module" yaml:"module"`
	Version  string       `json:"version" yaml:"version"`
	Go       string       `json:"go" yaml:"go"`
	Platform string       `json:"platform" yaml:"platform"`
	Commit   string       `json:"commit,omitempty" yaml:"commit,omitempty"`
	Dirty    bool         `json:"dirty,omitempty" yaml:"dirty,omitempty"`
	Built    string       `json:"built,omitempty" yaml:"built,omitempty"`
	Deps     []Dependency `json:"deps,omitempty" yaml:"deps,omitempty"`
}

// Dependency is one module linked into the binary
type Dependency struct {
	Path    string `json:"path" yaml:"path"`
	Version string `json:"version" yaml:"version"`
}

// buildFrom reads bi, which may be nil when the binary carries no build info
func buildFrom(bi *debug.BuildInfo, withDeps bool) *Build {
	b := &Build{
		Module:   modulePath,
		Version:  "(devel)",
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi == nil {
		return b
	}

	if bi.Main.Path != "" {
		b.Module = bi.Main.Path
	}
	if bi.Main.Version != "" {
		b.Version = bi.Main.Version
	}
	if bi.GoVersion != "" {
		b.Go = bi.GoVersion
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Commit = s.Value
		case "vcs.time":
			b.Built = s.Value
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		}
	}

	if withDeps {
		for _, dep := range bi.Deps {
			if dep.Replace != nil {
				dep = dep.Replace
			}
			b.Deps = append(b.Deps, Dependency{Path: dep.Path, Version: dep.Version})
		}
	}
	return b
}

// shortCommit trims a revision to the 12 characters git prints
func (b *Build) shortCommit() string {
	if len(b.Commit) > 12 {
		return b.Commit[:12]
	}
	return b.Commit
}

// writeBuild prints b as text, json or yaml
func writeBuild(w io.Writer, b *Build, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
	default:
		return errors.Errorf("unknown format %q, want text, json or yaml", format)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s (%s, %s)\n", b.Module, b.Version, b.Go, b.Platform)
	if b.Commit != "" {
		dirty := ""
		if b.Dirty {
			dirty = "+dirty"
		}
		fmt.Fprintf(&sb, "commit %s%s", b.shortCommit(), dirty)
		if b.Built != "" {
			fmt.Fprintf(&sb, " at %s", b.Built)
		}
		sb.WriteString("\n")
	}
	for _, dep := range b.Deps {
		fmt.Fprintf(&sb, "  %s %s\n", dep.Path, dep.Version)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func newVersionCmd() *cobra.Command {
	var (
		format string
		deps   bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bi, _ := debug.ReadBuildInfo()
			return writeBuild(cmd.OutOrStdout(), buildFrom(bi, deps), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().BoolVar(&deps, "deps", false, "include linked module versions")

	return cmd
}
