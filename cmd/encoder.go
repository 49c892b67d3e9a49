package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nakarin/jobmatch/internal/embed"
	"github.com/nakarin/jobmatch/internal/embed/gemini"
	"github.com/nakarin/jobmatch/internal/marketplace"
	"github.com/nakarin/jobmatch/internal/secrets"
	"github.com/nakarin/jobmatch/internal/store"
)

// newEncoder builds the embedding encoder from the config, wrapped in the
// Postgres vector cache when one is configured. The returned cleanup is
// always safe to call.
func newEncoder(ctx context.Context, config *Config, logger *zap.Logger) (embed.Encoder, func(), error) {
	noop := func() {}

	if config.Embedding == nil || config.Embedding.Gemini == nil {
		return nil, noop, errors.New("embedding.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(config.Embedding.Provider))
	if provider != "" && provider != "gemini" {
		return nil, noop, fmt.Errorf("unsupported embedding provider: %s", config.Embedding.Provider)
	}

	gem := config.Embedding.Gemini

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gem.APIKeyFile,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("%w (set embedding.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	client, err := gemini.New(ctx, apiKey, gem.Model, gem.MaxRetries, logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", gem.Model),
	))
	if err != nil {
		return nil, noop, err
	}

	if config.Cache == nil || strings.TrimSpace(config.Cache.DSN) == "" {
		return client, noop, nil
	}

	cache, err := store.OpenVectorStore(ctx, config.Cache.DSN)
	if err != nil {
		// The cache is an optimization; a missing database must not take
		// down matching.
		logger.Warn("vector cache unavailable, embedding directly", zap.Error(err))
		return client, noop, nil
	}

	cleanup := func() {
		if err := cache.Close(); err != nil {
			logger.Warn("closing vector cache", zap.Error(err))
		}
	}

	return embed.NewCachedEncoder(client, cache, logger), cleanup, nil
}

// loadCollections reads and encodes both sides of the marketplace.
func loadCollections(ctx context.Context, config *Config, enc embed.Encoder, logger *zap.Logger) (*marketplace.Jobs, *marketplace.Workers, error) {
	if config.Data == nil || config.Data.Jobs == "" || config.Data.Workers == "" {
		return nil, nil, errors.New("data.jobs and data.workers paths are required")
	}

	jobs, err := store.LoadJobs(config.Data.Jobs)
	if err != nil {
		return nil, nil, fmt.Errorf("loading jobs: %w", err)
	}

	workers, err := store.LoadWorkers(config.Data.Workers)
	if err != nil {
		return nil, nil, fmt.Errorf("loading workers: %w", err)
	}

	logger.Info("loaded collections",
		zap.Int("jobs", jobs.Len()),
		zap.Int("workers", workers.Len()),
	)

	var jobFields, workerFields []string
	if config.Embedding != nil {
		jobFields = config.Embedding.JobFields
		workerFields = config.Embedding.WorkerFields
	}

	if err := embed.EncodeJobs(ctx, enc, jobs, jobFields); err != nil {
		return nil, nil, err
	}
	if err := embed.EncodeWorkers(ctx, enc, workers, workerFields); err != nil {
		return nil, nil, err
	}

	return jobs, workers, nil
}
