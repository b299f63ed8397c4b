// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aristath/rebalancer/internal/modules/redistribution"
	"github.com/joho/godotenv"
)

// Feature store backends
const (
	FeatureStoreStatic = "static"
	FeatureStoreSQLite = "sqlite"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the feature database (always absolute)
	Port            int
	LogLevel        string
	LogPretty       bool
	DevMode         bool
	FeatureStore    string   // static or sqlite
	ModelURI        string   // Local path or s3://bucket/key; empty runs without a model
	DefaultStrategy string   // Strategy used when a request names none
	AllowedOrigins  []string // CORS origins
	S3              S3Config
}

// S3Config holds credentials for an S3-compatible model store (AWS, R2, MinIO)
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from .env and the environment
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("REBALANCER_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("REBALANCER_PORT", 5000),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       getEnvAsBool("LOG_PRETTY", true),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		FeatureStore:    strings.ToLower(getEnv("FEATURE_STORE", FeatureStoreStatic)),
		ModelURI:        getEnv("MODEL_URI", ""),
		DefaultStrategy: getEnv("DEFAULT_STRATEGY", string(redistribution.DefaultStrategy)),
		AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Only the sqlite store writes to disk
	if cfg.FeatureStore == FeatureStoreSQLite {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	switch c.FeatureStore {
	case FeatureStoreStatic, FeatureStoreSQLite:
	default:
		return fmt.Errorf("invalid feature store %q (want %s or %s)", c.FeatureStore, FeatureStoreStatic, FeatureStoreSQLite)
	}

	if _, err := redistribution.ParseStrategy(c.DefaultStrategy); err != nil {
		return fmt.Errorf("invalid default strategy: %w", err)
	}

	// Static keys must come as a pair
	if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}

	return nil
}

// FeatureDBPath returns the location of the sqlite feature store
func (c *Config) FeatureDBPath() string {
	return filepath.Join(c.DataDir, "features.db")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
