package router

import (
	"github.com/deppfellow/bookshelf/internal/handler"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerSystemRoutes registers endpoints that are not part of the resource
// API: health, metrics and the OpenAPI docs.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers, s *server.Server) {
	r.GET("/status", h.Health.CheckHealth)

	// Pool gauges and Go runtime collectors from the server registry.
	r.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Metrics, promhttp.HandlerOpts{
		Registry: s.Metrics,
	})))

	// openapi.json and openapi.html.
	r.Static("/static", handler.StaticDir)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
