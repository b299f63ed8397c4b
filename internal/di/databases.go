// Package di provides dependency injection for database connections.
package di

import (
	"context"
	"fmt"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/modules/features"
	"github.com/rs/zerolog"
)

// InitializeFeatureStore builds the feature lookup selected by FEATURE_STORE.
// The sqlite store is migrated and seeded with the reference tokens when empty.
func InitializeFeatureStore(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.FeatureStoreKind = cfg.FeatureStore

	if cfg.FeatureStore != config.FeatureStoreSQLite {
		container.FeatureLookup = features.DefaultTable()
		log.Info().Str("store", cfg.FeatureStore).Msg("Using static feature table")
		return nil
	}

	// features.db - Per-token model inputs, rewritten whenever candles are uploaded
	featureDB, err := database.New(database.Config{
		Path:    cfg.FeatureDBPath(),
		Profile: database.ProfileStandard,
		Name:    "features",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize features database: %w", err)
	}

	if err := featureDB.Migrate(); err != nil {
		featureDB.Close()
		return fmt.Errorf("failed to migrate features database: %w", err)
	}

	repo := features.NewRepository(featureDB.Conn(), log)
	seeded, err := repo.SeedIfEmpty(ctx, features.DefaultVectors())
	if err != nil {
		featureDB.Close()
		return fmt.Errorf("failed to seed features database: %w", err)
	}
	if seeded > 0 {
		log.Info().Int("tokens", seeded).Msg("Seeded feature store with reference tokens")
	}

	container.FeatureDB = featureDB
	container.FeatureLookup = repo
	log.Info().Str("path", featureDB.Path()).Msg("Using sqlite feature store")
	return nil
}
