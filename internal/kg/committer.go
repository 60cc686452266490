package kg

import (
	"context"
	"log/slog"
)

// Committer upserts triples into the graph store. Commit is decoupled from
// extraction so an extraction failure never touches graph state, and the
// store's merge semantics make repeated commits of the same triple no-ops.
type Committer struct {
	store GraphStore
}

func NewCommitter(store GraphStore) *Committer {
	return &Committer{store: store}
}

// Commit merges both endpoint nodes by name, then the directed labeled edge
// between them. Edges are identified by (subject, predicate, object), so
// re-extracting the same fact from any chunk cannot duplicate it.
func (c *Committer) Commit(ctx context.Context, triples []Triple) error {
	for _, t := range triples {
		if err := c.store.MergeNode(ctx, t.Subject); err != nil {
			return err
		}
		if err := c.store.MergeNode(ctx, t.Object); err != nil {
			return err
		}
		if err := c.store.MergeEdge(ctx, t.Subject, t.Predicate, t.Object, t.DocumentID); err != nil {
			return err
		}
	}
	if len(triples) > 0 {
		slog.DebugContext(ctx, "triples committed", "count", len(triples))
	}
	return nil
}
