// Command server starts the AI talent ranker HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/ai-talent-ranker/internal/adapter/ai/real"
	"github.com/fairyhunter13/ai-talent-ranker/internal/adapter/ai/stub"
	httpserver "github.com/fairyhunter13/ai-talent-ranker/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-talent-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/ai-talent-ranker/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-talent-ranker/internal/app"
	"github.com/fairyhunter13/ai-talent-ranker/internal/config"
	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
	"github.com/fairyhunter13/ai-talent-ranker/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so that /metrics
	// exposes HTTP, AI, and pipeline instrumentation.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	profileRepo := postgres.NewProfileRepo(pool)
	vectorRepo := postgres.NewVectorRepo(pool)

	var aicl domain.AIClient = real.New(cfg)
	if cfg.IsDev() && cfg.ChatAPIKey == "" && cfg.EmbeddingsAPIKey == "" {
		slog.Warn("no provider credentials configured, using deterministic stub AI client")
		aicl = stub.New(cfg.EmbeddingsDim)
	}

	vocab, err := config.LoadKeywordVocabulary(cfg.KeywordVocabFile)
	if err != nil {
		slog.Error("keyword vocabulary load failed", slog.Any("error", err), slog.String("path", cfg.KeywordVocabFile))
		os.Exit(1)
	}

	searchSvc := usecase.NewSearchService(profileRepo, vectorRepo, aicl, usecase.Options{
		RerankConcurrency:   cfg.RerankConcurrency,
		BackfillConcurrency: cfg.BackfillConcurrency,
		ChatModel:           cfg.ChatModel,
		ChatMaxTokens:       cfg.ChatMaxTokens,
		EmbeddingDim:        cfg.EmbeddingsDim,
		Vocabulary:          vocab,
	})

	dbCheck := app.BuildReadinessCheck(pool)
	srv := httpserver.NewServer(cfg, searchSvc, dbCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
