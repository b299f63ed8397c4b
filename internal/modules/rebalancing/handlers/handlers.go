// Package handlers provides HTTP handlers for rebalancing operations.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aristath/rebalancer/internal/modules/features"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/redistribution"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies; candle uploads are the largest payload
const maxBodyBytes = 4 << 20

// Handler handles rebalancing HTTP requests
type Handler struct {
	service *rebalancing.Service
	lookup  features.Lookup
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler.
// Feature writes are accepted only when lookup is also a features.Store.
func NewHandler(
	service *rebalancing.Service,
	lookup features.Lookup,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service: service,
		lookup:  lookup,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// RebalanceResponse is the body of a successful rebalance
type RebalanceResponse struct {
	Predictions   []redistribution.Prediction `json:"predictions"`
	NewAllocation map[string]float64          `json:"new_allocation"`
	Strategy      redistribution.Strategy     `json:"strategy"`
	RunID         string                      `json:"run_id"`
	Model         string                      `json:"model"`
}

// StrategiesResponse lists the supported strategies
type StrategiesResponse struct {
	Strategies []redistribution.StrategyInfo `json:"strategies"`
	Default    redistribution.Strategy       `json:"default"`
}

// UpdateFeaturesRequest carries daily candles, oldest first
type UpdateFeaturesRequest struct {
	Candles []features.Candle `json:"candles"`
}

// HandleRebalance handles POST /rebalance
func (h *Handler) HandleRebalance(w http.ResponseWriter, r *http.Request) {
	var req rebalancing.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.log.Debug().Err(err).Msg("Failed to decode rebalance request")
		switch {
		case errors.Is(err, rebalancing.ErrDuplicateToken):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, rebalancing.ErrInvalidAllocation):
			h.writeError(w, http.StatusBadRequest, rebalancing.ErrInvalidAllocation.Error())
		default:
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
		}
		return
	}

	result, err := h.service.Rebalance(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, RebalanceResponse{
		Predictions:   result.Predictions,
		NewAllocation: result.NewAllocation,
		Strategy:      result.Strategy,
		RunID:         result.RunID,
		Model:         result.Model,
	})
}

// HandleGetStrategies handles GET /strategies
func (h *Handler) HandleGetStrategies(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, StrategiesResponse{
		Strategies: redistribution.Strategies(),
		Default:    h.service.DefaultStrategy(),
	})
}

// HandleListFeatures handles GET /api/features
func (h *Handler) HandleListFeatures(w http.ResponseWriter, r *http.Request) {
	vectors, err := h.lookup.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list features")
		h.writeError(w, http.StatusInternalServerError, "Failed to list features")
		return
	}
	if vectors == nil {
		vectors = []features.Vector{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"features": vectors,
		"count":    len(vectors),
	})
}

// HandleGetFeatures handles GET /api/features/{token}
func (h *Handler) HandleGetFeatures(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	v, err := h.lookup.Get(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, v)
}

// HandleUpdateFeatures handles PUT /api/features/{token}
func (h *Handler) HandleUpdateFeatures(w http.ResponseWriter, r *http.Request) {
	store, ok := h.lookup.(features.Store)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "Feature store is read-only")
		return
	}

	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	var req UpdateFeaturesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v, err := features.FromCandles(token, req.Candles)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.Upsert(r.Context(), v); err != nil {
		h.log.Error().Err(err).Str("token", token).Msg("Failed to store features")
		h.writeError(w, http.StatusInternalServerError, "Failed to store features")
		return
	}

	h.log.Info().Str("token", token).Int("candles", len(req.Candles)).Msg("Updated token features")
	h.writeJSON(w, http.StatusOK, v)
}

// writeServiceError maps service errors onto status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var tokenErr *features.TokenError
	switch {
	case errors.Is(err, rebalancing.ErrInvalidAllocation),
		errors.Is(err, rebalancing.ErrDuplicateToken),
		errors.Is(err, redistribution.ErrInvalidStrategy):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tokenErr):
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("No features found for token: %s", tokenErr.Token))
	case errors.Is(err, rebalancing.ErrModelUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg("Rebalance failed")
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
