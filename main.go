package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"cineqa/internal/app"
	"cineqa/internal/config"
	"cineqa/internal/logger"
)

func main() {
	// Initialize structured logger with correlation id propagation
	handler := logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))
	log := slog.New(handler)
	slog.SetDefault(log)

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Bootstrap infrastructure (postgres, migrations, weaviate, gemini, nsq)
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	// 3. Wire the application
	application, err := app.New(cfg, deps.DB, deps.VectorStore, deps.NSQProducer, deps.LLM, log)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}

	// 4. KG Extract Consumer
	if cfg.EnableExtractWorker {
		nsqCfg := nsq.NewConfig()
		consumer, err := nsq.NewConsumer(config.TopicKGExtract, "backend", nsqCfg)
		if err != nil {
			slog.Error("failed to create NSQ consumer", "error", err, "topic", config.TopicKGExtract)
		} else {
			consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
				return application.ExtractConsumer.HandleMessage(m)
			}))
			if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
				slog.Error("failed to connect to NSQLookupd", "error", err)
			} else {
				slog.Info("KG extract consumer connected", "topic", config.TopicKGExtract)
			}
			defer consumer.Stop()
		}
	}

	// 5. Serve until interrupted
	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
