package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the rebalance API under /api
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/rebalance", h.HandleRebalance)
	r.Get("/strategies", h.HandleGetStrategies)

	r.Route("/features", func(r chi.Router) {
		r.Get("/", h.HandleListFeatures)
		r.Get("/{token}", h.HandleGetFeatures)
		r.Put("/{token}", h.HandleUpdateFeatures)
	})
}

// RegisterRootRoutes registers the unprefixed rebalance endpoints
func (h *Handler) RegisterRootRoutes(r chi.Router) {
	r.Post("/rebalance", h.HandleRebalance)
	r.Get("/strategies", h.HandleGetStrategies)
}
