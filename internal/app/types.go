package app

import (
	"context"

	"cineqa/internal/fusion"
	"cineqa/internal/indexer"
)

// Database is satisfied by *sql.DB; repositories receive the concrete type
// after a cast in New.
type Database interface {
	Ping() error
}

// VectorStore is the full weaviate surface the app needs: schema management,
// the indexer's write path and the fusion engine's read path.
type VectorStore interface {
	EnsureSchema(ctx context.Context) error
	ListIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, ids []string) error
	Upsert(ctx context.Context, records []indexer.Record) error
	Count(ctx context.Context) (int, error)
	SearchNearVector(ctx context.Context, vector []float32, limit int) ([]fusion.DocHit, error)
}

// TaskPublisher is satisfied by *nsq.Producer.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
}
