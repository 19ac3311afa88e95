package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/busvote/internal/adapters/auth/jwtauth"
	"github.com/vncsmyrnk/busvote/internal/adapters/handler/http"
	"github.com/vncsmyrnk/busvote/internal/adapters/notify"
	"github.com/vncsmyrnk/busvote/internal/adapters/notify/redisbus"
	"github.com/vncsmyrnk/busvote/internal/adapters/notify/telegram"
	"github.com/vncsmyrnk/busvote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/busvote/internal/config"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
	"github.com/vncsmyrnk/busvote/internal/core/services"
	"github.com/vncsmyrnk/busvote/internal/core/tally"
	"github.com/vncsmyrnk/busvote/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	slog.SetDefault(log)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redisbus.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, notifications deduplicated in memory only", slog.Any("error", err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var (
		notifiers []ports.Notifier
		ledger    ports.NotificationLedger = notify.NewMemoryLedger()
		feed      http.ChangeFeed
	)
	if cfg.Telegram.Enabled() {
		notifiers = append(notifiers, telegram.NewNotifier(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID, nil))
	} else {
		log.Warn("telegram credentials not set, drivers will not be messaged")
	}
	if redisClient != nil {
		publisher := redisbus.NewPublisher(redisClient)
		notifiers = append(notifiers, publisher)
		ledger = redisbus.NewLedger(redisClient)
		feed = publisher
	}

	userRepo := postgres.NewUserRepository(db)
	busRepo := postgres.NewBusRepository(db)
	topicRepo := postgres.NewTopicRepository(db)
	voteRepo := postgres.NewVoteRepository(db)

	userService := services.NewUserService(userRepo)
	votingService := services.NewVotingService(topicRepo, voteRepo, busRepo, notify.NewFanout(notifiers...), ledger, services.VotingConfig{
		Threshold: cfg.Voting.Threshold,
		Weights: tally.Weights{
			Same:  cfg.Voting.SameRegionWeight,
			Other: cfg.Voting.OtherRegionWeight,
		},
		NotificationTTL: cfg.Voting.NotificationTTL,
	}, log)

	handler := http.NewHandler(http.RouterConfig{
		Auth:           http.NewAuthenticator(jwtauth.NewVerifier(cfg.Auth.JWTSecret), userService, cfg.Auth.GuardGrace, log),
		Users:          http.NewUserHandler(userService),
		Voting:         http.NewVotingHandler(votingService),
		Stream:         http.NewStreamHandler(votingService, cfg.Voting.RefreshInterval, feed, cfg.CORSOrigins, log),
		AllowedOrigins: cfg.CORSOrigins,
		Log:            log,
	})
	server := &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", slog.String("addr", cfg.HTTPAddr), slog.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", slog.Any("error", err))
	}
}
