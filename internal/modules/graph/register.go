package graph

import (
	"log/slog"
	"net/http"

	"github.com/YanFialkovitz/app-dados-sensores/internal/config"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/controller"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/loader"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/session"
)

// RegisterFeature wires the graph screen routes and returns the session
// registry; the caller closes it on shutdown.
func RegisterFeature(mux *http.ServeMux, cfg config.Config, version string, logger *slog.Logger) *session.Registry {
	client := loader.NewClient(cfg.SensorEndpoint, cfg.FetchTimeout,
		loader.WithLogger(logger),
		loader.WithUserAgent("sensorgraph/"+version),
	)
	sessions := session.NewRegistry(client, cfg.SessionIdleTimeout, session.WithLogger(logger))
	sessions.Start()

	graphController := controller.NewGraphController(sessions, controller.Options{
		Location:    cfg.DisplayLocation,
		ChartWidth:  cfg.ChartWidth,
		ChartHeight: cfg.ChartHeight,
	})
	graphController.RegisterRoutes(mux)
	return sessions
}
