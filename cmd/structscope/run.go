package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"structscope/internal/analyzer"
	"structscope/internal/scan"
	"structscope/internal/watch"
)

func (c *cli) run(cmd *cobra.Command, names ...string) error {
	ctx := cmd.Context()
	opts := append(c.cfg.Analyzer.Options(), analyzer.WithFileSystem(c.fs), analyzer.WithLogger(c.log))

	jobs := make([]*job, 0, len(names))
	defer func() {
		for _, j := range jobs {
			_ = j.close()
		}
	}()
	for _, n := range names {
		j, err := jobSpecs[n].build(c, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", n, err)
		}
		jobs = append(jobs, j)
	}

	out := &output{w: cmd.OutOrStdout(), dir: c.cfg.Out, report: c.report, log: c.log}
	if err := c.runOnce(ctx, jobs, out); err != nil {
		return err
	}
	if !c.watch {
		return nil
	}

	w, err := watch.New(c.cfg.Root, func(ctx context.Context, paths []string) {
		c.log.Info("files changed", "count", len(paths))
		for _, j := range jobs {
			j.invalidate(paths...)
		}
		if err := c.runOnce(ctx, jobs, out); err != nil && ctx.Err() == nil {
			c.log.Error("re-analysis failed", "err", err)
		}
	}, watch.Options{IgnoreDirs: c.scanOptions().IgnoreDirs, Logger: c.log})
	if err != nil {
		return err
	}
	defer w.Close()

	c.log.Info("watching for changes", "root", c.cfg.Root)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runOnce lists the project and runs every job over the same file set.
func (c *cli) runOnce(ctx context.Context, jobs []*job, out *output) error {
	files, err := scan.Files(c.cfg.Root, c.scanOptions())
	if err != nil {
		return err
	}
	c.log.Info("scanned project", "root", c.cfg.Root, "files", len(files))

	results := make([]any, len(jobs))
	reports := make([]string, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			start := time.Now()
			res, md, err := j.run(gctx, files)
			if err != nil {
				return fmt.Errorf("%s: %w", j.name, err)
			}
			results[i], reports[i] = res, md
			c.log.Info("analysis complete", "analyzer", j.name, "elapsed", time.Since(start).Round(time.Millisecond))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return out.write(jobs, results, reports)
}
