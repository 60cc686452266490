package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cineqa/internal/config"
	"cineqa/internal/middleware"
	"cineqa/internal/text"
	"cineqa/internal/worker"
)

// Source kinds.
const (
	KindUpload = "upload"
	KindURL    = "url"
)

var ErrNotFound = errors.New("document not found")

// Document is one ingested source unit. Content is immutable once chunked
// except through re-ingestion, which fully supersedes prior chunks and
// embeddings via the full-rebuild reindex.
type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	SourceURL string `json:"source_url,omitempty"`
	Content   string `json:"content,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type PageParams struct {
	Page     int
	PageSize int
	Keyword  string
}

type PageResult struct {
	Items []Document `json:"items"`
	Total int        `json:"total"`
}

type Repository interface {
	Save(ctx context.Context, doc *Document) error
	Update(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	Page(ctx context.Context, params PageParams) (*PageResult, error)
	// ListIDs returns id/name rows without content; content is fetched per
	// document so ingestion can parallelize the reads.
	ListIDs(ctx context.Context) ([]Document, error)
	GetContent(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Indexer rebuilds the vector collection from the full chunk set.
type Indexer interface {
	Reindex(ctx context.Context, chunks []text.Chunk) (int, error)
}

// EventPublisher fans chunk extraction out over NSQ.
type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// URLExtractor yields (text, provenance) from a web page.
type URLExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

type Service struct {
	repo      Repository
	splitter  *text.Splitter
	indexer   Indexer
	pub       EventPublisher
	extractor URLExtractor

	concurrency int
}

func NewService(repo Repository, splitter *text.Splitter, indexer Indexer, pub EventPublisher, extractor URLExtractor, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Service{
		repo:        repo,
		splitter:    splitter,
		indexer:     indexer,
		pub:         pub,
		extractor:   extractor,
		concurrency: concurrency,
	}
}

func (s *Service) Add(ctx context.Context, doc *Document) error {
	if doc.Kind == "" {
		doc.Kind = KindUpload
	}
	doc.Content = text.Normalize(doc.Content)
	return s.repo.Save(ctx, doc)
}

func (s *Service) Update(ctx context.Context, doc *Document) error {
	doc.Content = text.Normalize(doc.Content)
	return s.repo.Update(ctx, doc)
}

func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Page(ctx context.Context, params PageParams) (*PageResult, error) {
	return s.repo.Page(ctx, params)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// AddFromURL fetches the page, extracts and normalizes its text, and persists
// it as a url-kind document.
func (s *Service) AddFromURL(ctx context.Context, name, url string) (*Document, error) {
	raw, err := s.extractor.Extract(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("extract url text: %w", err)
	}

	doc := &Document{
		Name:      name,
		Kind:      KindURL,
		SourceURL: url,
		Content:   text.Normalize(raw),
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// VectorizeAll re-chunks every document, fully rebuilds the vector
// collection, and queues each chunk for knowledge extraction. Returns the new
// collection size. The reindex itself is serialized by the indexer; the
// extraction fan-out is asynchronous and idempotent on the graph side.
func (s *Service) VectorizeAll(ctx context.Context) (int, error) {
	docs, err := s.loadAll(ctx)
	if err != nil {
		return 0, err
	}

	chunks := s.splitter.Split(docs)
	count, err := s.indexer.Reindex(ctx, chunks)
	if err != nil {
		return 0, err
	}

	correlationID := middleware.GetCorrelationID(ctx)
	for _, c := range chunks {
		payload := worker.KGExtractPayload{
			DocumentID:    c.DocumentID,
			ChunkIndex:    c.Index,
			Content:       c.Content,
			CorrelationID: correlationID,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			continue
		}
		if err := s.pub.Publish(config.TopicKGExtract, body); err != nil {
			slog.WarnContext(ctx, "failed to queue chunk for extraction", "error", err, "document_id", c.DocumentID, "chunk_index", c.Index)
		}
	}

	slog.InfoContext(ctx, "vectorize-all finished", "documents", len(docs), "chunks", len(chunks), "indexed", count)
	return count, nil
}

// loadAll fetches every document's content over a bounded worker pool;
// the reads are independent and I/O-bound. A single failed read aborts the
// ingestion run.
func (s *Service) loadAll(ctx context.Context) ([]text.Document, error) {
	records, err := s.repo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]text.Document, len(records))
	errs := make([]error, len(records))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec Document) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			content, err := s.repo.GetContent(ctx, rec.ID)
			if err != nil {
				errs[i] = err
				return
			}
			out[i] = text.Document{ID: rec.ID, Name: rec.Name, Text: content}
		}(i, rec)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
