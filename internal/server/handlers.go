package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// healthCheckTimeout bounds the database health check
const healthCheckTimeout = 2 * time.Second

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	ModelLoaded   bool    `json:"model_loaded"`
	Model         string  `json:"model,omitempty"`
	FeatureStore  string  `json:"feature_store"`
	Database      string  `json:"database"`
}

// handleHealth handles GET /health.
// A failing database reports degraded with 503; a missing model is reported but stays healthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := s.getSystemStats()

	response := HealthResponse{
		Status:        "healthy",
		Service:       "rebalancer",
		Version:       Version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		ModelLoaded:   s.container.RebalanceService.ModelLoaded(),
		Model:         s.container.RebalanceService.ModelName(),
		FeatureStore:  s.container.FeatureStoreKind,
		Database:      "not configured",
	}

	status := http.StatusOK
	if db := s.container.FeatureDB; db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			s.log.Warn().Err(err).Str("database", db.Name()).Msg("Health check failed")
			response.Status = "degraded"
			response.Database = "error"
			status = http.StatusServiceUnavailable
		} else {
			response.Database = "ok"
		}
	}

	s.writeJSON(w, status, response)
}

// getSystemStats returns host CPU and RAM usage percentages.
// CPU is sampled since the previous call so the endpoint never blocks.
func (s *Server) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(0, false)
	if err != nil || len(cpuPercent) == 0 {
		s.log.Debug().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Debug().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}

	return cpuPercent[0], memStat.UsedPercent
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
