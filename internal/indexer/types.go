package indexer

import "context"

// Record is one chunk ready for the vector store: text, provenance and the
// embedding vector.
type Record struct {
	ID          string
	DocumentID  string
	ChunkIndex  int
	StartOffset int
	Content     string
	Vector      []float32
}

// VectorStore is the slice of the store the indexer drives: enumerate,
// delete-by-id and insert. Search lives with the fusion engine.
type VectorStore interface {
	ListIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, ids []string) error
	Upsert(ctx context.Context, records []Record) error
	Count(ctx context.Context) (int, error)
}

// Embedder turns chunk text into vectors, in batches.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
