package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"structscope/internal/config"
	"structscope/internal/safeio"
	"structscope/internal/scan"
)

// cli holds flag values and the state built from them in setup.
type cli struct {
	root       string
	out        string
	logLevel   string
	batchSize  int
	cacheSize  int
	ignore     []string
	watch      bool
	report     bool
	descriptor bool

	cfg *config.Config
	log *slog.Logger
	fs  *safeio.SafeFS
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "structscope",
		Short: "Static structure analysis for JavaScript and TypeScript projects",
		Long: `structscope reads a project tree and reports its module graph, HTTP API
surface, GraphQL schema, realtime events and translation coverage.

Settings come from flags, then STRUCTSCOPE_* environment variables, then .env.

Examples:
  structscope deps --root ./web
  structscope all --root . --out reports --report
  structscope i18n --watch`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.root, "root", "", "project root (default $STRUCTSCOPE_ROOT or .)")
	pf.StringVar(&c.out, "out", "", "output directory; results go to stdout when empty")
	pf.IntVar(&c.batchSize, "batch-size", 0, "files read concurrently per chunk")
	pf.IntVar(&c.cacheSize, "cache-size", 0, "maximum cached files per analyzer")
	pf.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringSliceVar(&c.ignore, "ignore", nil, "extra directory names to skip")
	pf.BoolVar(&c.watch, "watch", false, "re-run when files under root change")
	pf.BoolVar(&c.report, "report", false, "also write the markdown report where one exists")

	for _, name := range jobOrder {
		spec := jobSpecs[name]
		root.AddCommand(&cobra.Command{
			Use:   spec.use,
			Short: spec.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.run(cmd, name)
			},
		})
	}
	proto, _, _ := root.Find([]string{"proto"})
	proto.Flags().BoolVar(&c.descriptor, "descriptor", false, "emit a protobuf FileDescriptorSet as JSON instead of the summary")

	root.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Run every analyzer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, jobOrder...)
		},
	})
	return root
}

// setup merges configuration with flags that were set explicitly.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = c.root
	}
	if flags.Changed("out") {
		cfg.Out = c.out
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("batch-size") {
		cfg.Analyzer.BatchSize = c.batchSize
	}
	if flags.Changed("cache-size") {
		cfg.Analyzer.MaxCacheSize = c.cacheSize
	}
	cfg.Ignore = append(cfg.Ignore, c.ignore...)

	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	cfg.Root = abs
	if c.fs, err = safeio.NewSafeFS(abs); err != nil {
		return fmt.Errorf("root %s: %w", abs, err)
	}
	c.cfg = cfg
	c.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
	return nil
}

func (c *cli) scanOptions() scan.Options {
	return scan.Options{IgnoreDirs: append(append([]string{}, scan.DefaultIgnoreDirs...), c.cfg.Ignore...)}
}
