package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject build summaries are published to.
const DefaultSubject = "spectrace.graph.built"

// Publisher sends a message. *nats.Conn satisfies it.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// BuildSummary is the message published after every successful build.
type BuildSummary struct {
	GraphID     string             `json:"graph_id"`
	Identifiers int                `json:"identifiers"`
	Documents   int                `json:"documents"`
	Duplicates  int                `json:"duplicates"`
	Dangling    int                `json:"dangling"`
	Cycles      int                `json:"cycles"`
	Orphans     int                `json:"orphans"`
	Coverage    map[string]float64 `json:"coverage"`
	BuiltAt     time.Time          `json:"built_at"`
}

// Summarize fills the graph-level counts of a build summary.
func (g *Graph) Summarize(documents int) BuildSummary {
	return BuildSummary{
		GraphID:     g.ID,
		Identifiers: g.Len(),
		Documents:   documents,
		Duplicates:  len(g.Duplicates),
		Dangling:    len(g.Dangling),
		Cycles:      len(g.Cycles),
		Coverage:    make(map[string]float64),
		BuiltAt:     time.Now().UTC(),
	}
}

// Publish sends the summary to subject. The graph ID is used as the message
// ID so a JetStream stream drops repeated builds of the same graph.
func Publish(ctx context.Context, p Publisher, subject string, summary BuildSummary) error {
	if p == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if subject == "" {
		subject = DefaultSubject
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal build summary: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, summary.GraphID)

	if err := p.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish build summary: %w", err)
	}
	return nil
}

// Connect dials a NATS server for publishing build summaries.
func Connect(url string, timeout time.Duration) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("spectrace"),
		nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}
