package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/busvote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/busvote/internal/config"
	"github.com/vncsmyrnk/busvote/internal/logger"
)

const usage = "usage: migrations up | down | steps <n> | force <version> | version"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

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

	m, err := postgres.NewMigrate(db)
	if err != nil {
		log.Error("failed to prepare migrations", slog.Any("error", err))
		os.Exit(1)
	}

	if err := run(m, os.Args[1:]); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to apply")
			return
		}
		log.Error("migration failed", slog.String("command", os.Args[1]), slog.Any("error", err))
		os.Exit(1)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Error("failed to read schema version", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("migrations executed successfully", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
}

func run(m *migrate.Migrate, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps", "force":
		if len(args) < 2 {
			return errors.New(usage)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", args[1], err)
		}
		if args[0] == "steps" {
			return m.Steps(n)
		}
		return m.Force(n)
	case "version":
		return nil
	default:
		return errors.New(usage)
	}
}
