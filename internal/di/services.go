package di

import (
	"context"
	"fmt"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/metrics"
	"github.com/aristath/rebalancer/internal/modules/features"
	"github.com/aristath/rebalancer/internal/modules/prediction"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/redistribution"
	"github.com/rs/zerolog"
)

// InitializeModel loads the return model named by MODEL_URI.
// An empty URI leaves the container without a model.
func InitializeModel(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if cfg.ModelURI == "" {
		log.Warn().Msg("MODEL_URI not set, rebalance requests will return 503")
		return nil
	}

	src, err := prediction.ParseSource(ctx, cfg.ModelURI, prediction.S3Config{
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
	if err != nil {
		return fmt.Errorf("invalid model uri: %w", err)
	}

	model, err := prediction.Load(ctx, src, features.Names, log)
	if err != nil {
		return fmt.Errorf("failed to load model from %s: %w", src, err)
	}

	container.Model = model
	return nil
}

// InitializeServices creates metrics and the rebalancing service
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	strategy, err := redistribution.ParseStrategy(cfg.DefaultStrategy)
	if err != nil {
		return err
	}

	container.Metrics = metrics.NewRegistry()
	container.Metrics.SetModelLoaded(container.Model != nil)

	container.RebalanceService = rebalancing.NewService(
		container.FeatureLookup,
		container.Model,
		strategy,
		container.Metrics,
		log,
	)

	return nil
}
