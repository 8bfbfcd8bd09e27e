package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"papersum/internal/auth"
	"papersum/internal/config"
	"papersum/internal/database"
	"papersum/internal/metrics"
	"papersum/internal/pipeline"
	"papersum/internal/summarizer"
)

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	// Validate has already rejected bad levels.
	level, _ := config.ParseLogLevel(cfg.LogLevel)

	log := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	return log
}

// openUserStore returns the configured repository and a func releasing it.
func openUserStore(
	ctx context.Context,
	cfg config.Config,
	log *slog.Logger,
) (auth.Repository, func(), error) {
	if cfg.UserStore != config.StoreSQLite {
		log.InfoContext(ctx, "File user store is used",
			"usersFile", cfg.UsersFile)

		return auth.NewFileStore(cfg.UsersFile), func() {}, nil
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize db: %w", err)
	}
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", closeErr,
				"dbPath", cfg.DBPath)
		}
	}

	return db.Users(), closeDB, nil
}

// newPrimary returns nil when no provider is usable so every summary
// comes from the fallback.
func newPrimary(ctx context.Context, cfg config.Config, log *slog.Logger) summarizer.Summarizer {
	switch cfg.LLMProvider {
	case config.ProviderNone:
		log.InfoContext(ctx, "LLM provider is disabled so fallback will be used",
			"provider", cfg.LLMProvider)

		return nil

	case config.ProviderGemini:
		g, err := summarizer.NewGemini(ctx, summarizer.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to create Gemini summarizer so fallback will be used",
				"error", err,
				"envVar", "GEMINI_API_KEY")

			return nil
		}

		log.InfoContext(ctx, "Gemini summarizer is initialized",
			"provider", cfg.LLMProvider,
			"model", g.Model())

		return g

	default:
		c := summarizer.NewCompletions(summarizer.CompletionsConfig{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})

		log.InfoContext(ctx, "Completions summarizer is initialized",
			"provider", cfg.LLMProvider,
			"baseURL", cfg.LLMBaseURL,
			"model", c.Model(),
			"timeoutSeconds", cfg.LLMTimeout.Seconds())

		return c
	}
}

func newPipeline(
	ctx context.Context,
	cfg config.Config,
	m *metrics.Metrics,
	log *slog.Logger,
) (*pipeline.Pipeline, error) {
	return pipeline.New(newPrimary(ctx, cfg, log), summarizer.NewMock(cfg.MockDelay), m, log)
}
