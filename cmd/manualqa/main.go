// Command manualqa answers cited questions about PDF and HTML machine manuals.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/manualqa/internal/core/services"
	"github.com/custodia-labs/manualqa/internal/logger"
	"github.com/custodia-labs/manualqa/internal/normalisers"
	"github.com/custodia-labs/manualqa/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	// A missing .env is fine; keys usually come from the shell.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// bootstrap wires the service graph from stored settings.
func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, error) {
	dir := opts.ConfigDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".manualqa")
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if settings.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(settings.Log.File), 0o700); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	if err := logger.Configure(logger.Options{
		Level:  settings.Log.Level,
		Format: string(settings.Log.Format),
		File:   settings.Log.File,
	}); err != nil {
		return nil, err
	}
	logger.SetVerbose(opts.Verbose)

	components, err := ai.Build(*settings, filepath.Join(dir, "data"))
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("build adapters: %w", err)
	}

	nr := normalisers.NewRegistry()
	normalisers.RegisterDefaults(nr)

	pr := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(pr)
	pipeline, err := postprocessors.BuildPipeline(pr, settings.Chunking.PipelineConfig())
	if err != nil {
		_ = components.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		_ = components.Close()
		_ = logger.Close()
		return nil, err
	}

	sessions := services.NewSessionStore(components.IndexFactory)
	retriever := services.NewRetriever(sessions, components.Embedder, settings.Retrieval)
	answers := services.NewAnswerService(retriever, components.Providers, settings.Answer)
	answers.SetPromptStore(prompts)

	logger.Debug("config dir %s, embedder %s, index %s",
		dir, components.Embedder.ModelName(), settings.Index.Backend)

	return &cli.Services{
		Ingest:    services.NewIngestService(sessions, nr, pipeline, components.Embedder),
		Answer:    answers,
		Sessions:  sessions,
		Providers: services.NewProviderCatalog(components.Providers),
		Settings:  settingsService,
		Health:    services.NewHealthService(ai.NewHealthChecker(components)),
		Close: func() error {
			err := components.Close()
			if lerr := logger.Close(); err == nil {
				err = lerr
			}
			return err
		},
	}, nil
}
