package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cineqa/features/chat"
	"cineqa/features/document"
	"cineqa/internal/adapter/gemini"
	"cineqa/internal/adapter/graphstore"
	"cineqa/internal/adapter/urltext"
	"cineqa/internal/adapter/websearch"
	"cineqa/internal/answer"
	"cineqa/internal/config"
	"cineqa/internal/fusion"
	"cineqa/internal/indexer"
	"cineqa/internal/kg"
	"cineqa/internal/middleware"
	"cineqa/internal/queryplan"
	"cineqa/internal/text"
	"cineqa/internal/worker"
)

type App struct {
	Handler         http.Handler
	DocumentService *document.Service
	ExtractConsumer *worker.ExtractConsumer

	port int
}

func New(
	cfg *config.Config,
	db Database,
	vecStore VectorStore,
	taskPub TaskPublisher,
	llm *gemini.Client,
	logger *slog.Logger,
) (*App, error) {

	// Cast db to *sql.DB for repositories that require it. Interfaces stay in
	// the signature so tests can substitute sqlmock.
	sqlDB := db.(*sql.DB)

	// Ingestion pipeline: split, embed, index, fan out extraction jobs.
	splitter := text.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	indexService := indexer.NewService(llm, vecStore)

	// Feature: Document
	docRepo := document.NewPostgresRepo(sqlDB)
	urlExtractor := urltext.NewExtractor()
	docService := document.NewService(docRepo, splitter, indexService, taskPub, urlExtractor, cfg.IngestionConcurrency)
	docHandler := document.NewHandler(docService, cfg.MaxUploadSizeMB)

	// Retrieval fusion: vector hits, graph triples and web results merged
	// into one grounded context.
	graph := graphstore.NewPostgresStore(sqlDB)
	web := websearch.NewClient(cfg.SearXNGURL)
	planner := queryplan.NewPlanner(llm)
	fusionTimeout := time.Duration(cfg.FusionTimeoutSeconds) * time.Second
	engine := fusion.NewEngine(planner, llm, vecStore, graph, web, fusionTimeout)

	chain := answer.NewChain(engine, llm)

	// Feature: Chat
	chatRepo := chat.NewPostgresRepo(sqlDB)
	chatService := chat.NewService(chatRepo, chain)
	chatHandler := chat.NewHandler(chatService, cfg.GeminiModel)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /documents", middleware.CorrelationID(enableCORS(docHandler.Create)))
	mux.Handle("POST /documents/upload", middleware.CorrelationID(enableCORS(docHandler.Upload)))
	mux.Handle("POST /documents/url", middleware.CorrelationID(enableCORS(docHandler.CreateFromURL)))
	mux.Handle("GET /documents", middleware.CorrelationID(enableCORS(docHandler.Page)))
	mux.Handle("GET /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Get)))
	mux.Handle("PUT /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Update)))
	mux.Handle("DELETE /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Delete)))
	mux.Handle("POST /documents/vectorize", middleware.CorrelationID(enableCORS(docHandler.VectorizeAll)))

	mux.Handle("POST /chat", middleware.CorrelationID(enableCORS(chatHandler.Ask)))
	mux.Handle("POST /chat/sessions", middleware.CorrelationID(enableCORS(chatHandler.CreateSession)))
	mux.Handle("GET /chat/sessions", middleware.CorrelationID(enableCORS(chatHandler.ListSessions)))
	mux.Handle("GET /chat/sessions/{id}/messages", middleware.CorrelationID(enableCORS(chatHandler.History)))
	mux.Handle("DELETE /chat/sessions/{id}", middleware.CorrelationID(enableCORS(chatHandler.DeleteSession)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Worker (KG Extract Consumer) Setup
	triples := kg.NewExtractor(llm)
	committer := kg.NewCommitter(graph)
	extractConsumer := worker.NewExtractConsumer(triples, committer)

	return &App{
		Handler:         mux,
		DocumentService: docService,
		ExtractConsumer: extractConsumer,
		port:            cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
