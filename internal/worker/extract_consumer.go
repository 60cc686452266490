package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"cineqa/internal/middleware"
)

const extractTimeout = 60 * time.Second

// ExtractConsumer handles kg.extract messages: run triple extraction on the
// chunk, commit whatever parsed. Extraction itself never fails; only a graph
// commit error is returned for redelivery.
type ExtractConsumer struct {
	extractor TripleExtractor
	committer TripleCommitter
}

func NewExtractConsumer(extractor TripleExtractor, committer TripleCommitter) *ExtractConsumer {
	return &ExtractConsumer{extractor: extractor, committer: committer}
}

func (h *ExtractConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload KGExtractPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	triples := h.extractor.Extract(ctx, payload.Content, payload.DocumentID)
	if len(triples) == 0 {
		slog.DebugContext(ctx, "no triples extracted", "document_id", payload.DocumentID, "chunk_index", payload.ChunkIndex)
		return nil
	}

	if err := h.committer.Commit(ctx, triples); err != nil {
		slog.ErrorContext(ctx, "triple commit failed", "error", err, "document_id", payload.DocumentID, "chunk_index", payload.ChunkIndex)
		return err // Retry
	}

	slog.InfoContext(ctx, "triples committed", "document_id", payload.DocumentID, "chunk_index", payload.ChunkIndex, "count", len(triples))
	return nil
}
