package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/arena"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/llm"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/server"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/storage"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/task"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// No logger yet
		panic(err)
	}

	logger := setupLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	store, err := storage.NewStore(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	archive, err := storage.OpenArchive(filepath.Join(cfg.Storage.DataDir, "arena.db"), logger)
	if err != nil {
		logger.Fatal("Failed to open round archive", zap.Error(err))
	}
	defer archive.Close()

	client := llm.NewClient(cfg.API, logger)
	provider := llm.NewProvider(client, logger)
	seed := time.Now().UnixNano()
	deps := arena.Deps{
		Decisions: provider,
		Evaluator: &arena.FallbackEvaluator{
			Primary:  llm.NewJudge(client, logger),
			Fallback: task.NewHeuristicEvaluator(seed, 0.15, logger),
			Logger:   logger,
		},
		Tasks:    task.NewGenerator(seed, logger),
		Narrator: provider,
	}

	srv := server.New(cfg, store, archive, deps, logger)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
}

func setupLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := cfg.Build()
	return logger
}

func waitForShutdown(logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	logger.Info("Shutting down")
}
