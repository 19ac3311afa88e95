package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/busvote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/busvote/internal/config"
	"github.com/vncsmyrnk/busvote/internal/core/services"
	"github.com/vncsmyrnk/busvote/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	db, err := sql.Open("postgres", cfg.Postgres.ConnString())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Error("failed to reach database", slog.Any("error", err))
		os.Exit(1)
	}

	topicRepo := postgres.NewTopicRepository(db)
	sweepService := services.NewSweepService(topicRepo, log)

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepTimeout)
	defer cancel()

	log.Info("starting topic sweep")

	completed, err := sweepService.CompleteExpired(ctx)
	if err != nil {
		log.Error("topic sweep failed", slog.Int("completed", completed), slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("topic sweep completed", slog.Int("completed", completed))
}
