/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server for access to services.
 */
package di

import (
	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/metrics"
	"github.com/aristath/rebalancer/internal/modules/features"
	"github.com/aristath/rebalancer/internal/modules/prediction"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
)

// Container holds all application dependencies
type Container struct {
	// Databases (nil when the static feature table is used)
	FeatureDB *database.DB

	// Feature lookup; a features.Store when sqlite backed
	FeatureLookup    features.Lookup
	FeatureStoreKind string

	// Return model (nil when MODEL_URI is empty)
	Model prediction.Model

	Metrics          *metrics.Registry
	RebalanceService *rebalancing.Service
}

// Close releases resources held by the container
func (c *Container) Close() error {
	if c.FeatureDB != nil {
		return c.FeatureDB.Close()
	}
	return nil
}
