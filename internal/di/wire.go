// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container
// This is the main entry point for dependency injection
// Order of operations:
// 1. Initialize the feature store
// 2. Load the return model
// 3. Initialize services
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// Step 1: Feature store
	if err := InitializeFeatureStore(ctx, container, cfg, log); err != nil {
		return nil, fmt.Errorf("failed to initialize feature store: %w", err)
	}

	// Step 2: Return model
	if err := InitializeModel(ctx, container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize model: %w", err)
	}

	// Step 3: Services
	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	log.Info().
		Str("feature_store", container.FeatureStoreKind).
		Bool("model_loaded", container.Model != nil).
		Msg("Dependency injection wiring completed successfully")

	return container, nil
}
