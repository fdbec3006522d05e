package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/c360studio/spectrace/corpus"
	"github.com/c360studio/spectrace/identifier"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// item builds a document declaring ids whose text is body.
func item(path, body string, ids ...string) *corpus.Item {
	it := &corpus.Item{
		Path:     path,
		Hash:     "h-" + path,
		Text:     body,
		Mentions: identifier.Extract(body),
	}
	for _, id := range ids {
		cat, ok := identifier.Classify(id)
		if !ok {
			panic("unclassified test id " + id)
		}
		it.Declarations = append(it.Declarations, corpus.Declaration{
			ID:    identifier.Identifier{Value: id, Category: cat},
			Title: id + " title",
		})
	}
	return it
}

func TestBuild_ForwardExcludesSelf(t *testing.T) {
	g := Build([]*corpus.Item{
		item("req.md", "REQ-F-001 Boot\nSee ADR-001 and REQ-F-001 again.", "REQ-F-001"),
	})

	n, ok := g.Node("REQ-F-001")
	require.True(t, ok)
	assert.Equal(t, []string{"ADR-001"}, n.Forward)
	assert.Equal(t, identifier.CategoryRequirement, n.Category)
	assert.Equal(t, "req.md", n.Path)
	assert.Equal(t, []string{"ADR-001"}, g.Dangling)
}

func TestBuild_ForwardBackwardRoundTrip(t *testing.T) {
	g := Build([]*corpus.Item{
		item("stk.md", "StR-001", "StR-001"),
		item("req.md", "REQ-F-001 traces StR-001; see ADR-001, QA-SC-001", "REQ-F-001"),
		item("adr.md", "ADR-001 decides REQ-F-001", "ADR-001"),
		item("qa.md", "QA-SC-001 for REQ-F-001 and REQ-NF-009", "QA-SC-001"),
	})

	for src, refs := range g.Forward {
		for _, ref := range refs {
			assert.Contains(t, g.Backward[ref], src, "%s -> %s must invert", src, ref)
		}
	}
	for ref, srcs := range g.Backward {
		for _, src := range srcs {
			assert.Contains(t, g.Forward[src], ref, "%s <- %s must invert", ref, src)
		}
	}

	assert.Equal(t, []string{"ADR-001", "QA-SC-001"}, g.Backward["REQ-F-001"])
	assert.Equal(t, []string{"REQ-NF-009"}, g.Dangling)
}

func TestBuild_DuplicateDeclarations(t *testing.T) {
	g := Build([]*corpus.Item{
		item("a.md", "REQ-F-007 first\nADR-001", "REQ-F-007"),
		item("b.md", "REQ-F-007 second\nADR-002", "REQ-F-007"),
	})

	require.Len(t, g.Duplicates, 1)
	assert.Equal(t, "REQ-F-007", g.Duplicates[0].ID)
	assert.Equal(t, "a.md", g.Duplicates[0].Kept)
	assert.Equal(t, []string{"a.md", "b.md"}, g.Duplicates[0].Paths)

	n, _ := g.Node("REQ-F-007")
	assert.Equal(t, "a.md", n.Path)
	assert.Equal(t, []string{"ADR-001"}, g.Forward["REQ-F-007"])
	assert.NotContains(t, g.Backward, "ADR-002")
	assert.Equal(t, 1, g.Len())
}

func TestBuild_MentionedIn(t *testing.T) {
	g := Build([]*corpus.Item{
		item("adr.md", "ADR-001", "ADR-001"),
		item("notes.md", "mentions ADR-001"),
		item("req.md", "REQ-F-001 uses ADR-001", "REQ-F-001"),
	})

	n, _ := g.Node("ADR-001")
	assert.Equal(t, []string{"adr.md", "notes.md", "req.md"}, n.MentionedIn)
}

func TestBuild_Deterministic(t *testing.T) {
	items := func() []*corpus.Item {
		return []*corpus.Item{
			item("req.md", "REQ-F-001 ADR-002 ADR-001 TEST-BOOT-001", "REQ-F-001"),
			item("adr1.md", "ADR-001 REQ-F-001", "ADR-001"),
			item("adr2.md", "ADR-002 REQ-F-001 ADR-001", "ADR-002"),
		}
	}

	a, err := json.Marshal(struct {
		F, B map[string][]string
	}{Build(items()).Forward, Build(items()).Backward})
	require.NoError(t, err)
	b, err := json.Marshal(struct {
		F, B map[string][]string
	}{Build(items()).Forward, Build(items()).Backward})
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
	assert.Equal(t, Build(items()).ID, Build(items()).ID)
	assert.NotEqual(t, Build(items()).ID, Build(items()[:2]).ID)
}

func TestBuild_Cycles(t *testing.T) {
	g := Build([]*corpus.Item{
		item("adr1.md", "ADR-001 supersedes ADR-002", "ADR-001"),
		item("adr2.md", "ADR-002 amends ADR-003", "ADR-002"),
		item("adr3.md", "ADR-003 refines ADR-001", "ADR-003"),
		item("req.md", "REQ-F-001 ADR-001", "REQ-F-001"),
		item("adr-other.md", "ADR-004 REQ-F-001", "ADR-004"),
	})

	require.Len(t, g.Cycles, 1)
	assert.Equal(t, []string{"ADR-001", "ADR-002", "ADR-003", "ADR-001"}, g.Cycles[0])
}

func TestBuild_NoCycleWithinOneDocument(t *testing.T) {
	g := Build([]*corpus.Item{
		item("list.md", "REQ-F-001, REQ-F-002", "REQ-F-001", "REQ-F-002"),
	})
	assert.Empty(t, g.Cycles)
	assert.Equal(t, []string{"REQ-F-002"}, g.Forward["REQ-F-001"])
}

func TestNodesOf(t *testing.T) {
	g := Build([]*corpus.Item{
		item("b.md", "REQ-F-002", "REQ-F-002"),
		item("a.md", "REQ-F-001", "REQ-F-001"),
		item("c.md", "ADR-001", "ADR-001"),
	})

	nodes := g.NodesOf(identifier.CategoryRequirement)
	require.Len(t, nodes, 2)
	assert.Equal(t, "REQ-F-001", nodes[0].ID)
	assert.Equal(t, identifier.CategoryDecision, g.CategoryOf("ADR-009"))
}

type recordingPublisher struct {
	msgs []*nats.Msg
	err  error
}

func (p *recordingPublisher) PublishMsg(m *nats.Msg) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, m)
	return nil
}

func TestPublish(t *testing.T) {
	g := Build([]*corpus.Item{item("req.md", "REQ-F-001 ADR-001", "REQ-F-001")})
	summary := g.Summarize(1)
	summary.Coverage["requirement_to_ADR"] = 0

	pub := &recordingPublisher{}
	require.NoError(t, Publish(context.Background(), pub, "", summary))
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	assert.Equal(t, DefaultSubject, msg.Subject)
	assert.Equal(t, g.ID, msg.Header.Get(nats.MsgIdHdr))

	var got BuildSummary
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, 1, got.Identifiers)
	assert.Equal(t, 1, got.Dangling)
}

func TestPublish_Errors(t *testing.T) {
	summary := Build(nil).Summarize(0)

	assert.NoError(t, Publish(context.Background(), nil, "x", summary))

	err := Publish(context.Background(), &recordingPublisher{err: errors.New("down")}, "x", summary)
	assert.ErrorContains(t, err, "publish build summary")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Publish(ctx, &recordingPublisher{}, "x", summary), context.Canceled)
}
