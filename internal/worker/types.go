package worker

import (
	"context"

	"cineqa/internal/kg"
)

// KGExtractPayload is one chunk queued for knowledge extraction. Chunks are
// independent, so any number of consumers may process the topic concurrently;
// graph merges are commutative.
type KGExtractPayload struct {
	DocumentID    string `json:"document_id"`
	ChunkIndex    int    `json:"chunk_index"`
	Content       string `json:"content"`
	CorrelationID string `json:"correlation_id"`
}

type TripleExtractor interface {
	Extract(ctx context.Context, chunkText, documentID string) []kg.Triple
}

type TripleCommitter interface {
	Commit(ctx context.Context, triples []kg.Triple) error
}
