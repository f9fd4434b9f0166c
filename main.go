// Command voca-app serves the spaced-repetition study API for every
// language domain and sends the daily review reminders.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/config"
	"github.com/wowoyong/voca-app/internal/database"
	"github.com/wowoyong/voca-app/internal/logging"
	"github.com/wowoyong/voca-app/internal/study"
	"github.com/wowoyong/voca-app/pkg/models"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "voca-app",
	Short: "Spaced-repetition vocabulary service",
	Long: `voca-app serves flashcards, reviews, quizzes and study statistics for the
English and Japanese domains, and sends daily review reminders.

Configuration is read from the environment (and .env when present).`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
}

// setup loads and validates the configuration and builds the logger.
func setup() (config.Config, *zap.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

// domainStore is the storage of one language domain.
type domainStore interface {
	study.Store
	UpsertItem(ctx context.Context, item *models.Item) (bool, error)
}

type storeHandle struct {
	store domainStore
	ping  func(ctx context.Context) error
	close func() error
}

// openStore opens the storage of lang and applies the schema.
func openStore(ctx context.Context, cfg config.Config, lang string) (*storeHandle, error) {
	if cfg.DBDriver == "memory" {
		return &storeHandle{store: database.NewMemoryStore(), close: func() error { return nil }}, nil
	}

	dsn := cfg.DatabaseURLs[lang]
	if dsn == "" {
		return nil, errors.Errorf("no database configured for language %q", lang)
	}
	if cfg.DBDriver == database.DriverSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
	}

	db, err := database.Open(ctx, cfg.DBDriver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", lang)
	}
	repo := database.NewRepository(db)
	return &storeHandle{store: repo, ping: repo.Ping, close: repo.Close}, nil
}
