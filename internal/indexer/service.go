package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cineqa/internal/text"
)

// ErrIndexing marks any failure during the rebuild. The collection is left in
// whatever partial state the store guarantees; the next Reindex clears it
// again, so no rollback is attempted.
var ErrIndexing = errors.New("indexing failed")

const embedBatchSize = 32

// Service rebuilds the vector collection from a chunk set. Rebuilds are
// serialized by an in-process mutex: concurrent Reindex calls on the same
// collection are not supported. Readers during a rebuild may observe a
// transiently empty or partial collection; that window is accepted.
type Service struct {
	embedder Embedder
	store    VectorStore

	mu sync.Mutex
}

func NewService(embedder Embedder, store VectorStore) *Service {
	return &Service{embedder: embedder, store: store}
}

// Reindex clears every record in the collection, then embeds and inserts the
// incoming chunks. Returns the new total record count. Running it twice on
// the same chunk set yields the same count both times.
func (s *Service) Reindex(ctx context.Context, chunks []text.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	// Phase one: clear. A no-op when the collection is already empty.
	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list ids: %v", ErrIndexing, err)
	}
	if len(ids) > 0 {
		if err := s.store.Delete(ctx, ids); err != nil {
			return 0, fmt.Errorf("%w: clear collection: %v", ErrIndexing, err)
		}
	}

	if len(chunks) == 0 {
		slog.InfoContext(ctx, "reindex complete", "chunks", 0, "duration", time.Since(start))
		return 0, nil
	}

	// Phase two: populate, in embedding batches.
	for offset := 0; offset < len(chunks); offset += embedBatchSize {
		end := offset + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[offset:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("%w: embed batch at %d: %v", ErrIndexing, offset, err)
		}

		records := make([]Record, len(batch))
		for i, c := range batch {
			records[i] = Record{
				DocumentID:  c.DocumentID,
				ChunkIndex:  c.Index,
				StartOffset: c.StartOffset,
				Content:     c.Content,
				Vector:      vectors[i],
			}
		}

		if err := s.store.Upsert(ctx, records); err != nil {
			return 0, fmt.Errorf("%w: upsert batch at %d: %v", ErrIndexing, offset, err)
		}
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrIndexing, err)
	}

	slog.InfoContext(ctx, "reindex complete", "chunks", len(chunks), "total", count, "duration", time.Since(start))
	return count, nil
}
