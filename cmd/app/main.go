// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"masumi-rag-agent/internal/config"
	"masumi-rag-agent/internal/domain/ports/adapter"
	aiAdapters "masumi-rag-agent/internal/infra/adapters/ai"
	payAdapters "masumi-rag-agent/internal/infra/adapters/payment"
	"masumi-rag-agent/internal/infra/ingest"
	"masumi-rag-agent/internal/infra/logging"
	"masumi-rag-agent/internal/infra/memory"
	"masumi-rag-agent/internal/infra/metrics"
	"masumi-rag-agent/internal/infra/vector"
	"masumi-rag-agent/internal/infra/web"
	"masumi-rag-agent/internal/infra/worker"
	"masumi-rag-agent/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, debug level)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()

	// ---- AI Adapter (Gemini -> OpenAI) ----
	var ai adapter.AIServiceAdapter
	if cfg.AI.GeminiKey != "" {
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.GenerationModel, cfg.AI.EmbeddingModel)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
		logger.Info().Str("model", cfg.AI.GenerationModel).Msg("AI adapter: Gemini")
	} else if cfg.AI.OpenAIKey != "" {
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.GenerationModel, cfg.AI.EmbeddingModel, cfg.AI.EmbeddingDim)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
		logger.Info().Str("model", cfg.AI.GenerationModel).Msg("AI adapter: OpenAI")
	} else {
		log.Fatalf("no AI provider configured: set ai.gemini_key or ai.openai_key in %s", *cfgPath)
	}

	// ---- Payment gateway ----
	gateway, err := payAdapters.NewMasumiGateway(cfg.Payment.ServiceURL, cfg.Payment.APIKey)
	if err != nil {
		log.Fatalf("masumi gateway: %v", err)
	}

	// ---- Storage + workers ----
	jobStore := memory.NewJobStore()
	index := vector.NewIndex(cfg.AI.EmbeddingDim)
	pool := worker.NewPool(cfg.RAG.Workers, logger)
	pool.Start(ctx)

	// ---- Use cases ----
	ragUC := usecase.NewRAGUseCase(ai, index, cfg.RAG.TopK, logger)
	jobUC := usecase.NewJobUseCase(jobStore, ragUC, gateway, pool, cfg.Payment, logger)
	ingestUC := usecase.NewIngestUseCase(
		ingest.NewPlainTextExtractor(),
		ingest.NewChunker(cfg.RAG.ChunkTokens),
		ai,
		index,
		cfg.RAG.UploadDir,
		logger,
	)

	// ---- HTTP server ----
	srv := web.NewServer(jobUC, ingestUC, cfg.Payment, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	jobUC.StopAll()
	cancel()
	pool.Stop()
}
