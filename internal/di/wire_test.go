package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/modules/features"
	"github.com/aristath/rebalancer/internal/modules/prediction"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, dir string) string {
	t.Helper()
	coefs := make([]float64, len(features.Names))
	coefs[5] = 0.001 // rsi
	data, err := prediction.LinearArtifact(prediction.NewLinearModel("rsi-linear", -0.05, coefs), features.Names).Encode(prediction.FormatJSON)
	require.NoError(t, err)

	path := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestWire_StaticWithoutModel(t *testing.T) {
	cfg := &config.Config{
		DataDir:         t.TempDir(),
		FeatureStore:    config.FeatureStoreStatic,
		DefaultStrategy: "Balanced",
	}

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.Nil(t, container.FeatureDB)
	assert.Nil(t, container.Model)
	assert.Equal(t, config.FeatureStoreStatic, container.FeatureStoreKind)
	assert.False(t, container.RebalanceService.ModelLoaded())
	assert.Equal(t, 0.0, testutil.ToFloat64(container.Metrics.ModelLoaded))

	_, ok := container.FeatureLookup.(features.Store)
	assert.False(t, ok)
}

func TestWire_SQLiteWithModel(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:         dir,
		FeatureStore:    config.FeatureStoreSQLite,
		ModelURI:        writeModel(t, dir),
		DefaultStrategy: "Growth",
	}

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	require.NotNil(t, container.FeatureDB)
	assert.FileExists(t, cfg.FeatureDBPath())
	assert.Equal(t, "rsi-linear", container.Model.Name())
	assert.Equal(t, 1.0, testutil.ToFloat64(container.Metrics.ModelLoaded))

	_, ok := container.FeatureLookup.(features.Store)
	assert.True(t, ok)

	// Seeded reference tokens are rebalanced end to end
	alloc, err := rebalancing.NewAllocation(
		rebalancing.AllocationEntry{Token: "WBNB", Weight: 0.4},
		rebalancing.AllocationEntry{Token: "CAKE", Weight: 0.3},
		rebalancing.AllocationEntry{Token: "BUSD", Weight: 0.3},
	)
	require.NoError(t, err)

	result, err := container.RebalanceService.Rebalance(context.Background(), rebalancing.Request{Allocation: alloc})
	require.NoError(t, err)
	assert.Equal(t, "Growth", result.Strategy.String())
	assert.Len(t, result.NewAllocation, 3)
}

func TestWire_ReopenKeepsSeed(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{DataDir: dir, FeatureStore: config.FeatureStoreSQLite, DefaultStrategy: "Balanced"}

	first, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	store := first.FeatureLookup.(features.Store)
	require.NoError(t, store.Delete(context.Background(), "BUSD"))
	require.NoError(t, first.Close())

	// Non-empty stores are not reseeded
	second, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer second.Close()

	all, err := second.FeatureLookup.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWire_ModelErrors(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name string
		uri  string
	}{
		{"missing file", filepath.Join(dir, "absent.json")},
		{"bucket without key", "s3://models"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{DataDir: dir, FeatureStore: config.FeatureStoreStatic, ModelURI: tc.uri, DefaultStrategy: "Balanced"}
			_, err := Wire(context.Background(), cfg, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}
