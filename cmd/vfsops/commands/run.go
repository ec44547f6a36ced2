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

package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/vfsops/cmd/vfsops/opts"
	"github.com/walteh/vfsops/pkg/config"
	"github.com/walteh/vfsops/pkg/explorer"
	"github.com/walteh/vfsops/pkg/log"
	"github.com/walteh/vfsops/pkg/transaction"
	"gitlab.com/tozd/go/errors"
)

// NewRunCmd creates the run command
func NewRunCmd(get Opts) *cobra.Command {
	var keepGoing bool

	cmd := &cobra.Command{
		Use:   "run [JOB...]",
		Short: "Run jobs from the config file",
		Long: `Run executes the named jobs, or every job in file order when none is named.
It will:
1. Resolve the from and to sources of each job
2. Run the job action as one transaction
3. Stop at the first failing job unless --keep-going is set`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o := get()
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			jobs, err := selectJobs(o.Config, args)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				logger.Warning("no jobs to run")
				return nil
			}

			var failed []string
			for _, job := range jobs {
				logger.Header(fmt.Sprintf("job %s", job.Name))
				jobCtx := zerolog.Ctx(ctx).With().Str("job", job.Name).Logger().WithContext(ctx)
				if err := runJob(jobCtx, o, cmd, job); err != nil {
					if !keepGoing {
						return errors.Errorf("job %q: %w", job.Name, err)
					}
					logger.Errorf("job %q: %v", job.Name, err)
					failed = append(failed, job.Name)
				}
			}
			if len(failed) > 0 {
				return errors.Errorf("%d of %d jobs failed: %v", len(failed), len(jobs), failed)
			}
			logger.LogNewline()
			logger.Successf("%d jobs done", len(jobs))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "run the remaining jobs after a failure")

	return cmd
}

func selectJobs(cfg *config.Config, names []string) ([]config.Job, error) {
	if len(names) == 0 {
		return cfg.Jobs, nil
	}
	jobs := make([]config.Job, 0, len(names))
	for _, name := range names {
		job, ok := cfg.Job(name)
		if !ok {
			return nil, errors.Errorf("unknown job %q", name)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func runJob(ctx context.Context, o *opts.RootOpts, cmd *cobra.Command, job config.Job) error {
	from, err := o.FileSystem(ctx, job.From)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s", job.Action, job.Name)
	parallel := job.Parallelism
	if o.Parallel > 0 {
		parallel = o.Parallel
	}

	switch job.Action {
	case "copy", "move":
		to, err := o.FileSystem(ctx, job.To)
		if err != nil {
			return err
		}
		copyOpts := explorer.CopyOptions{Recursive: job.Recursive, Parallelism: parallel}
		return o.Track(ctx, title, func() (*transaction.Transaction, error) {
			if job.Action == "move" {
				return o.Explorer.Move(ctx, from, job.Paths, to, job.Dir, copyOpts)
			}
			return o.Explorer.Copy(ctx, from, job.Paths, to, job.Dir, copyOpts)
		})
	case "delete":
		return o.Track(ctx, title, func() (*transaction.Transaction, error) {
			return o.Explorer.Delete(ctx, from, job.Paths, job.Recursive, parallel)
		})
	case "mkdir":
		return o.Track(ctx, title, func() (*transaction.Transaction, error) {
			return o.Explorer.MakeDir(ctx, from, job.Paths)
		})
	case "list":
		for _, p := range job.Paths {
			items, err := o.Explorer.List(ctx, from, p)
			if err != nil {
				return errors.Errorf("listing %s: %w", p, err)
			}
			printItems(cmd.OutOrStdout(), items)
			log.FromContext(ctx).Infof("%d items in %s:%s", len(items), job.From, p)
		}
		return nil
	case "search":
		root := job.Dir
		if root == "" {
			root = "."
		}
		items, err := o.Explorer.Search(ctx, from, root, job.Pattern)
		if err != nil {
			return errors.Errorf("searching %s: %w", root, err)
		}
		printItems(cmd.OutOrStdout(), items)
		log.FromContext(ctx).Infof("%d matches for %s", len(items), job.Pattern)
		return nil
	default:
		return errors.Errorf("unknown action %q", job.Action)
	}
}
