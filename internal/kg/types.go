package kg

import "context"

// Triple is one (subject, predicate, object) fact pulled out of a chunk,
// tagged with the document it came from. Extraction is LLM-driven and noisy;
// the graph store deduplicates on node names and edge endpoints, so committing
// the same fact twice is a no-op.
type Triple struct {
	Subject    string
	Predicate  string
	Object     string
	DocumentID string
}

// GraphStore is the merge-create slice of the graph database.
type GraphStore interface {
	MergeNode(ctx context.Context, name string) error
	MergeEdge(ctx context.Context, subject, predicate, object, documentID string) error
}

// Completer is the non-streaming LLM call used for extraction.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}
