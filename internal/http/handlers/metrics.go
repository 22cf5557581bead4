package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves Prometheus metrics.
type MetricsHandler struct {
	path    string
	handler http.Handler
}

// NewMetricsHandler creates a handler exposing the default registry on path.
func NewMetricsHandler(path string) *MetricsHandler {
	return &MetricsHandler{path: path, handler: promhttp.Handler()}
}

// RegisterChiRoutes registers the scrape endpoint. It is kept out of the
// OpenAPI document because its body is the Prometheus text format.
func (h *MetricsHandler) RegisterChiRoutes(router chi.Router) {
	router.Method(http.MethodGet, h.path, h.handler)
}
