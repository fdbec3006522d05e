package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/c360studio/spectrace/config"
	"github.com/c360studio/spectrace/corpus"
	"github.com/c360studio/spectrace/report"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	msgs []*nats.Msg
}

func (r *recordingPublisher) PublishMsg(m *nats.Msg) error {
	r.msgs = append(r.msgs, m)
	return nil
}

func writeFile(t *testing.T, base, rel, content string) {
	t.Helper()
	p := filepath.Join(base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func testConfig(base string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Corpus.BaseDir = base
	cfg.Corpus.Roots = []string{"02-requirements", "03-architecture"}
	return cfg
}

func loadTraceability(t *testing.T, dir string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, report.TraceabilityFile))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestRun_LinkedRequirement(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "02-requirements/boot.md", "---\nid: REQ-F-001\ntitle: Fast boot\n---\nSatisfied by ADR-001.\n")
	writeFile(t, base, "03-architecture/adr-001.md", "# ADR-001: Ring buffer\n")

	pub := &recordingPublisher{}
	p := New(testConfig(base), nil).WithPublisher(pub)
	defer p.Close()

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	r := res.Report
	assert.Equal(t, []string{"ADR-001"}, r.Graph.Forward["REQ-F-001"])
	assert.Equal(t, []string{"REQ-F-001"}, r.Graph.Backward["ADR-001"])
	assert.Equal(t, 100.0, r.Analysis.Pairs["requirement_to_ADR"].CoveragePct)
	assert.Empty(t, r.Analysis.Orphans["requirement"])
	assert.False(t, r.Scaffold)

	outDir := filepath.Join(base, "reports")
	assert.Contains(t, res.Written, filepath.Join(outDir, report.TraceabilityFile))
	assert.FileExists(t, filepath.Join(outDir, report.SpecIndexFile))
	assert.FileExists(t, filepath.Join(outDir, report.MatrixFile))
	assert.FileExists(t, filepath.Join(outDir, report.OrphansFile))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "spectrace.graph.built", pub.msgs[0].Subject)
	assert.Equal(t, r.Graph.ID, pub.msgs[0].Header.Get(nats.MsgIdHdr))
}

func TestRun_PlaceholderExcluded(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "03-architecture/adr-guide.md", "# Decisions\n\nName new records like ADR-XXX.\n\n## ADR-002: Real decision\n")

	res, err := New(testConfig(base), nil).Run(context.Background())
	require.NoError(t, err)

	g := res.Report.Graph
	_, ok := g.Node("ADR-XXX")
	assert.False(t, ok)
	_, ok = g.Node("ADR-002")
	assert.True(t, ok)
	assert.NotContains(t, g.Dangling, "ADR-XXX")
}

func TestRun_EmptyCorpusAllowEmpty(t *testing.T) {
	base := t.TempDir()
	cfg := testConfig(base)
	cfg.Corpus.AllowEmpty = true

	res, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Report.Scaffold)

	outDir := filepath.Join(base, "reports")
	trace := loadTraceability(t, outDir)
	assert.Equal(t, true, trace["scaffold"])

	matrix, err := os.ReadFile(filepath.Join(outDir, report.MatrixFile))
	require.NoError(t, err)
	assert.Contains(t, string(matrix), "empty scaffold mode")

	metrics, err := report.LoadMetrics(filepath.Join(outDir, report.TraceabilityFile))
	require.NoError(t, err)
	assert.Equal(t, 100.0, metrics["requirement"])
}

func TestRun_EmptyCorpusWithoutAllowEmpty(t *testing.T) {
	base := t.TempDir()

	res, err := New(testConfig(base), nil).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Report.Scaffold)
	assert.Equal(t, 0, res.Report.Graph.Len())
	assert.Len(t, res.Report.Scan.Missing, 3)

	trace := loadTraceability(t, filepath.Join(base, "reports"))
	assert.NotContains(t, trace, "scaffold")
	assert.Empty(t, trace["items"])
}

func TestRun_MetricsTextfile(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "02-requirements/boot.md", "## REQ-F-001: Boot\n")
	cfg := testConfig(base)
	cfg.Metrics.Textfile = "metrics/spectrace.prom"

	_, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(base, "metrics", "spectrace.prom"))
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `spectrace_identifiers{category="requirement"} 1`), text)
	assert.Contains(t, text, `spectrace_orphans{category="requirement"} 1`)
}

func TestRun_RDFFormats(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "02-requirements/boot.md", "## REQ-F-001: Boot\n")
	cfg := testConfig(base)
	cfg.Output.Formats = []string{"turtle", "jsonld"}

	res, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Written, 6)
	assert.FileExists(t, filepath.Join(base, "reports", "traceability.ttl"))
	assert.FileExists(t, filepath.Join(base, "reports", "traceability.jsonld"))
}

func TestRun_Idempotent(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "02-requirements/boot.md", "## REQ-F-001: Boot\nSee ADR-001.\n")
	writeFile(t, base, "03-architecture/adr.md", "## ADR-001: Decide\n")
	p := New(testConfig(base), nil)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(base, "reports", report.SpecIndexFile))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(base, "reports", report.SpecIndexFile))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestRun_CancelledContext(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "02-requirements/boot.md", "## REQ-F-001: Boot\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(base), nil).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_IgnoredPatterns(t *testing.T) {
	base := t.TempDir()
	cfg := testConfig(base)
	cfg.Corpus.Exclude = []string{"**/drafts/**"}

	r, err := New(cfg, nil).Analyze(context.Background())
	require.NoError(t, err)
	assert.Contains(t, r.IgnoredPatterns, ".github/prompts")
	assert.Contains(t, r.IgnoredPatterns, "*template*")
	assert.Contains(t, r.IgnoredPatterns, "**/drafts/**")
	assert.IsType(t, &corpus.Result{}, r.Scan)
}
