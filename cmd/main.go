package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hitnote/internal/repositories"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/session"
	"github.com/desertthunder/hitnote/internal/shared"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	config.ApplyEnv()
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	storage := session.Storage(session.NewMemoryStorage())
	if db, err := shared.OpenSessionDatabase(config.Session.DatabasePath); err == nil {
		defer db.Close()
		storage = repositories.NewKVRepository(db)
	} else {
		logger.Warn("session database unavailable, session will not persist", "error", err)
	}

	store := session.NewStore(storage, shared.WithLogger(logger, "component", "session"))
	if err := store.Restore(); err != nil {
		logger.Warn("failed to restore session", "error", err)
	}

	httpClient := &http.Client{Timeout: config.API.Timeout()}
	apiService := services.NewAPIService(config.API.BaseURL, httpClient)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		API:        apiService,
		Backend:    services.NewHitnoteService(apiService),
		Session:    store,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "hitnote",
		Usage:    "Discover, rate and curate music on a HitNote server",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrLoginRequired):
			logger.Error("login required: run 'hitnote auth login' first")
			os.Exit(1)
		case errors.Is(err, shared.ErrCancelled):
			logger.Info("cancelled")
			os.Exit(0)
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
			os.Exit(0)
		default:
			logger.Fatalf("application error: %v", shared.UserMessage(err))
		}
	}
}
