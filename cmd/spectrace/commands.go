package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/c360studio/spectrace/config"
	"github.com/c360studio/spectrace/corpus"
	"github.com/c360studio/spectrace/coverage"
	"github.com/c360studio/spectrace/identifier"
	"github.com/c360studio/spectrace/pipeline"
	"github.com/c360studio/spectrace/report"
	"github.com/c360studio/spectrace/ui"
	"github.com/spf13/cobra"
)

func buildCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Scan the corpus and write the traceability reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}
}

func runBuild(cmd *cobra.Command, opts *globalOptions) error {
	app, err := newApp(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := pipeline.New(app.cfg, app.logger)
	defer p.Close()

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	ui.PrintBuildSummary(cmd.OutOrStdout(), res.Report, app.thresholdMins(), res.Written)
	return nil
}

func checkCmd(opts *globalOptions) *cobra.Command {
	var (
		reportPath string
		minReq     float64
		minADR     float64
		minScen    float64
		minTest    float64
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Gate coverage in traceability.json against thresholds",
		Long: `Check reads an existing traceability.json and compares the requirement
coverage metrics against minimum percentages.

Exit codes:
  0  all thresholds met
  1  report missing, malformed, or without requirement coverage
  2  requirement coverage below minimum
  3  requirement to ADR coverage below minimum
  4  requirement to scenario coverage below minimum
  5  requirement to test coverage below minimum

When several thresholds fail the highest code is returned.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			cov := &app.cfg.Coverage
			flags := cmd.Flags()
			if flags.Changed("min-req") {
				cov.MinRequirement = minReq
			}
			if flags.Changed("min-req-adr") {
				cov.MinDecision = minADR
			}
			if flags.Changed("min-req-scenario") {
				cov.MinScenario = minScen
			}
			if flags.Changed("min-req-test") {
				cov.MinTest = minTest
			}

			path := reportPath
			if path == "" {
				path = filepath.Join(app.cfg.OutputDir(), report.TraceabilityFile)
			}
			metrics, err := report.LoadMetrics(path)
			if err != nil {
				return &exitError{code: coverage.ExitReportMissing, err: err}
			}

			results, code := coverage.Evaluate(metrics, app.cfg.Thresholds())
			ui.PrintGate(cmd.OutOrStdout(), results)
			if code != coverage.ExitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Path to traceability.json (default: <output>/traceability.json)")
	cmd.Flags().Float64Var(&minReq, "min-req", 80, "Minimum share of requirements linked to any other category")
	cmd.Flags().Float64Var(&minADR, "min-req-adr", 70, "Minimum requirement to ADR coverage")
	cmd.Flags().Float64Var(&minScen, "min-req-scenario", 60, "Minimum requirement to scenario coverage")
	cmd.Flags().Float64Var(&minTest, "min-req-test", 40, "Minimum requirement to test coverage")
	return cmd
}

func unlinkedCmd(opts *globalOptions) *cobra.Command {
	var (
		source   string
		target   string
		asJSON   bool
		markdown bool
	)

	cmd := &cobra.Command{
		Use:   "unlinked",
		Short: "List identifiers with no link to a target category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON && markdown {
				return errors.New("--json and --markdown are mutually exclusive")
			}
			pair, err := coverage.ParsePair(source, target)
			if err != nil {
				return err
			}
			app, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			r, err := pipeline.New(app.cfg, app.logger).Analyze(cmd.Context())
			if err != nil {
				return err
			}
			items := coverage.Unlinked(r.Graph, pair)

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				data, err := json.MarshalIndent(items, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal unlinked: %w", err)
				}
				fmt.Fprintln(out, string(data))
			case markdown:
				fmt.Fprint(out, ui.UnlinkedMarkdown(items))
			default:
				ui.PrintUnlinked(out, pair, items)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "requirement", "Source category")
	cmd.Flags().StringVar(&target, "target", "decision", "Target category (decision, scenario, test, component, ...)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Output a markdown table")
	return cmd
}

func nextIDCmd(opts *globalOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "next-id FAMILY",
		Short: "Print the next free identifiers of a family (REQ-F, ADR, StR-CORE, ...)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			r, err := pipeline.New(app.cfg, app.logger).Analyze(cmd.Context())
			if err != nil {
				return err
			}

			// Referenced but undeclared numbers are taken too.
			reg := identifier.NewRegistry()
			for _, n := range r.Graph.Nodes {
				reg.Declare(n.ID, n.Path)
			}
			for _, id := range r.Graph.Dangling {
				reg.Declare(id, "")
			}

			ids, err := reg.Next(args[0], count)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of identifiers to allocate")
	return cmd
}

func watchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild whenever a governed document changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runWatch(ctx, cmd, app)
		},
	}
}

func runWatch(ctx context.Context, cmd *cobra.Command, app *App) error {
	p := pipeline.New(app.cfg, app.logger)
	defer p.Close()

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ui.PrintBuildSummary(out, res.Report, app.thresholdMins(), nil)

	cfg := app.cfg
	exts := append(append([]string{}, cfg.Corpus.Extensions...), cfg.Corpus.TestExtensions...)
	w, err := corpus.NewWatcher(corpus.WatchOptions{
		BaseDir:     cfg.Corpus.BaseDir,
		Debounce:    cfg.Watch.Debounce,
		Extensions:  exts,
		ExcludeDirs: cfg.Corpus.ExcludeDirs,
	}, app.logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()

	w.Prime(res.Report.Scan.Items)
	roots := res.Report.Scan.Roots
	if len(roots) == 0 {
		roots = []string{cfg.Corpus.BaseDir}
	}
	if err := w.Start(ctx, roots); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	fmt.Fprintln(out, ui.RenderMuted("Watching for changes (Ctrl+C to stop)"))

	for {
		select {
		case <-ctx.Done():
			app.logger.Info("Watch stopped")
			return nil
		case batch, ok := <-w.Batches():
			if !ok {
				return nil
			}
			for _, c := range batch {
				app.logger.Info("Document changed", "path", c.Path, "op", c.Op)
			}
			res, err := p.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				app.logger.Error("Rebuild failed", "error", err)
				continue
			}
			w.Prime(res.Report.Scan.Items)
			fmt.Fprintln(out)
			ui.PrintBuildSummary(out, res.Report, app.thresholdMins(), nil)
		}
	}
}

func initConfigCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [PATH]",
		Short: "Write a default " + config.ProjectConfigFile,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ProjectConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			logger := newLogger(opts.logLevel, cmd.ErrOrStderr())
			if err := config.NewLoader(logger).WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", ui.RenderPass(ui.IconPass), path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
