package main

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/storage"
	"github.com/ternarybob/foliogen/internal/storage/yamlfile"
)

// runSeed imports a YAML tenant file into the SQLite tenant store and returns the exit code.
func runSeed(ctx context.Context, config *common.Config, logger arbor.ILogger, path string) int {
	file, err := yamlfile.LoadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to load seed file")
		return 1
	}

	store, closeStore, err := storage.OpenTenantStore(&config.Tenants, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open tenant store")
		return 1
	}
	defer closeStore()

	result, err := yamlfile.Seed(ctx, store, file, logger)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Seeding failed")
		return 1
	}

	logger.Info().
		Str("path", path).
		Str("database", config.Tenants.SQLitePath).
		Int("tenants", result.Tenants).
		Int("portfolios", result.Portfolios).
		Int("assets", result.Assets).
		Int("skipped_portfolios", result.Skipped).
		Msg("Tenant store seeded")
	return 0
}
