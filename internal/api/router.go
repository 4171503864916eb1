package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/palico-bot/internal/api/handlers"
	"github.com/ramonehamilton/palico-bot/internal/api/response"
	"github.com/ramonehamilton/palico-bot/internal/charts"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// WebSocket chat endpoint
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, errors.New("route not found"))
	})

	// API v1 routes
	s.router.Route("/api/v1", func(r chi.Router) {
		catalogHandler := handlers.NewCatalogHandler(s.catalog)
		r.Get("/status", catalogHandler.GetStatus)
		r.Get("/sets", catalogHandler.GetSets)
		r.Get("/pieces/{type}", catalogHandler.GetPieces)
		r.Post("/resolve", catalogHandler.Resolve)

		queryHandler := handlers.NewQueryHandler(s.queries)
		r.Get("/queries/recent", queryHandler.GetRecent)
		r.Get("/metrics", s.getMetrics)
		r.Get("/metrics/chart", s.getMetricsChart)
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "palico-bot-api",
		"data":    s.catalog.Status().State,
	})
}

// getMetrics returns query counters and resolve latency.
func (s *Server) getMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		response.ServiceUnavailable(w, errors.New("metrics are disabled"))
		return
	}
	response.Success(w, s.metrics.Snapshot())
}

// getMetricsChart renders the query metrics as an HTML chart page.
func (s *Server) getMetricsChart(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		response.ServiceUnavailable(w, errors.New("metrics are disabled"))
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderQueryPage(&buf, s.metrics.Snapshot(), charts.DefaultChartConfig()); err != nil {
		s.logger.Error("failed to render metrics chart", "error", err)
		response.InternalError(w, err)
		return
	}

	response.HTML(w, http.StatusOK, buf.Bytes())
}
