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
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/vfsops/cmd/vfsops/commands"
	"github.com/walteh/vfsops/cmd/vfsops/opts"
	"github.com/walteh/vfsops/pkg/config"
	"github.com/walteh/vfsops/pkg/log"
	"gitlab.com/tozd/go/errors"

	_ "github.com/walteh/vfsops/pkg/provider/github"
	_ "github.com/walteh/vfsops/pkg/provider/local"
	_ "github.com/walteh/vfsops/pkg/provider/s3"
)

const defaultConfigFile = ".vfsops.hcl"

// rootFlags are the persistent flags shared by every command
type rootFlags struct {
	configFile string
	debug      bool
	parallel   int
	progress   bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var rootOpts *opts.RootOpts

	rootCmd := &cobra.Command{
		Use:   "vfsops",
		Short: "Copy, move and manage files across local, GitHub and S3 sources",
		Long: `vfsops runs file operations against virtual file systems. Each command
becomes a transaction of operations that run with bounded parallelism,
report byte progress and can be canceled with Ctrl-C.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}

			ctx := setupLogging(cmd.Context(), cmd, flags.debug)
			cmd.SetContext(ctx)

			o, err := newRootOpts(ctx, cmd, flags)
			if err != nil {
				return err
			}
			rootOpts = o
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rootOpts != nil {
				rootOpts.Close()
			}
		},
	}

	addRootFlags(rootCmd, flags)

	get := func() *opts.RootOpts { return rootOpts }
	rootCmd.AddCommand(
		commands.NewCopyCmd(get),
		commands.NewMoveCmd(get),
		commands.NewRemoveCmd(get),
		commands.NewMakeDirCmd(get),
		commands.NewListCmd(get),
		commands.NewFindCmd(get),
		commands.NewCatCmd(get),
		commands.NewGetCmd(get),
		commands.NewPutCmd(get),
		commands.NewThumbnailsCmd(get),
		commands.NewRunCmd(get),
		newVersionCmd(),
	)

	return rootCmd
}

// newRootOpts loads the config and wires the shared dependencies. A missing
// default config file falls back to engine defaults.
func newRootOpts(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*opts.RootOpts, error) {
	cfg, err := loadConfig(ctx, flags.configFile, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}

	o, err := opts.New(ctx, cfg, cmd.ErrOrStderr(), flags.parallel, flags.progress)
	if err != nil {
		return nil, errors.Errorf("initializing: %w", err)
	}
	return o, nil
}

func loadConfig(ctx context.Context, path string, explicit bool) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
			return config.Default(), nil
		}
		return nil, errors.Errorf("reading config %q: %w", path, err)
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", defaultConfigFile, "config file path (.hcl, .yaml or .json)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().IntVarP(&flags.parallel, "parallel", "p", 0, "operations run at once per transaction, 0 uses the config default")
	cmd.PersistentFlags().BoolVar(&flags.progress, "progress", false, "draw a progress bar for transfers")
}

// setupLogging installs the console logger on ctx. Command output goes to
// stdout, structured events to stderr at warn level or debug with -d.
func setupLogging(ctx context.Context, cmd *cobra.Command, debug bool) context.Context {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return log.NewContext(ctx, log.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), level))
}
