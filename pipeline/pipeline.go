// Package pipeline runs one traceability build: scan the corpus, build the
// graph, measure coverage, emit the reports and notify collaborators.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/spectrace/config"
	"github.com/c360studio/spectrace/corpus"
	"github.com/c360studio/spectrace/coverage"
	"github.com/c360studio/spectrace/export"
	"github.com/c360studio/spectrace/graph"
	"github.com/c360studio/spectrace/report"
	"github.com/nats-io/nats.go"
)

// Result is the outcome of Run.
type Result struct {
	Report   *report.Report
	Written  []string
	Duration time.Duration
}

// Pipeline holds the per-process collaborators of repeated builds. Each Run
// scans from scratch; no scan state survives between runs.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS publishing, connected on first use when nats.url is set
	pubMu     sync.Mutex
	publisher graph.Publisher
	conn      *nats.Conn
	connErr   error

	metrics *report.Metrics
}

// New creates a pipeline for cfg. A nil logger uses slog.Default().
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// WithPublisher sets the build summary publisher, bypassing nats.url.
func (p *Pipeline) WithPublisher(pub graph.Publisher) *Pipeline {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	p.publisher = pub
	return p
}

// Config returns the configuration the pipeline runs with.
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// Analyze scans the corpus and computes the graph and coverage without
// writing anything.
func (p *Pipeline) Analyze(ctx context.Context) (*report.Report, error) {
	pairs, err := p.cfg.Pairs()
	if err != nil {
		return nil, err
	}

	scanner := corpus.NewScanner(p.cfg.ScanOptions(), p.logger)
	scan, err := scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan corpus: %w", err)
	}

	g := graph.Build(scan.Items)
	for _, c := range g.Duplicates {
		p.logger.Warn("Duplicate identifier",
			"id", c.ID,
			"kept", c.Kept,
			"paths", c.Paths)
	}
	if len(g.Dangling) > 0 {
		p.logger.Info("Undeclared identifiers referenced", "count", len(g.Dangling))
	}
	if len(g.Cycles) > 0 {
		p.logger.Info("Reference cycles detected", "count", len(g.Cycles))
	}

	r := &report.Report{
		Graph:           g,
		Analysis:        coverage.Analyze(g, pairs),
		Scan:            scan,
		IgnoredPatterns: p.ignoredPatterns(),
		Scaffold:        p.cfg.Corpus.AllowEmpty && g.Len() == 0,
	}
	if g.Len() == 0 {
		if r.Scaffold {
			p.logger.Info("No governed spec items found, emitting scaffold report")
		} else {
			p.logger.Warn("No governed spec items found")
		}
	}
	return r, nil
}

// Run performs a full build and writes the reports. Metrics and NATS
// failures are logged and do not fail the build.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	r, err := p.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	formats, err := p.cfg.Formats()
	if err != nil {
		return nil, err
	}
	profile, err := export.ParseProfile(p.cfg.Output.Profile)
	if err != nil {
		return nil, err
	}

	w := report.NewWriter(p.cfg.OutputDir(), p.logger)
	w.Formats = formats
	w.Profile = profile
	written, err := w.Write(r)
	if err != nil {
		return nil, err
	}

	res := &Result{Report: r, Written: written, Duration: time.Since(start)}

	p.writeMetrics(res)
	p.publish(ctx, res)

	p.logger.Info("Traceability build complete",
		"graph_id", r.Graph.ID,
		"identifiers", r.Graph.Len(),
		"orphans", r.Analysis.OrphanCount(),
		"duration", res.Duration)
	return res, nil
}

// Close releases the NATS connection, if one was opened.
func (p *Pipeline) Close() {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
		}
		p.conn = nil
	}
}

func (p *Pipeline) writeMetrics(res *Result) {
	path := p.cfg.MetricsTextfile()
	if path == "" {
		return
	}
	if p.metrics == nil {
		p.metrics = report.NewMetrics()
	}
	p.metrics.Observe(res.Report, res.Duration)
	if err := p.metrics.WriteTextfile(path); err != nil {
		p.logger.Warn("Failed to write metrics textfile", "path", path, "error", err)
		return
	}
	p.logger.Debug("Wrote metrics textfile", "path", path)
}

func (p *Pipeline) publish(ctx context.Context, res *Result) {
	pub := p.ensurePublisher()
	if pub == nil {
		return
	}

	r := res.Report
	docs := 0
	if r.Scan != nil {
		docs = len(r.Scan.Items)
	}
	summary := r.Graph.Summarize(docs)
	summary.Orphans = r.Analysis.OrphanCount()
	summary.Coverage = r.Analysis.Percentages()

	if err := graph.Publish(ctx, pub, p.cfg.NATS.Subject, summary); err != nil {
		p.logger.Warn("Failed to publish build summary", "error", err)
		return
	}
	p.logger.Debug("Published build summary", "subject", p.cfg.NATS.Subject, "graph_id", summary.GraphID)
}

// ensurePublisher connects once; a failed connection is not retried.
func (p *Pipeline) ensurePublisher() graph.Publisher {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	if p.publisher != nil {
		return p.publisher
	}
	if p.cfg.NATS.URL == "" || p.connErr != nil {
		return nil
	}

	conn, err := graph.Connect(p.cfg.NATS.URL, p.cfg.NATS.Timeout)
	if err != nil {
		p.connErr = err
		p.logger.Warn("NATS unavailable, build summaries will not be published",
			"url", p.cfg.NATS.URL,
			"error", err)
		return nil
	}
	p.logger.Info("Connected to NATS", "url", p.cfg.NATS.URL)
	p.conn = conn
	p.publisher = conn
	return conn
}

func (p *Pipeline) ignoredPatterns() []string {
	c := p.cfg.Corpus
	out := make([]string, 0, len(c.IgnoreFragments)+len(c.SkipNames)+len(c.Exclude))
	out = append(out, c.IgnoreFragments...)
	out = append(out, c.SkipNames...)
	out = append(out, c.Exclude...)
	return out
}
