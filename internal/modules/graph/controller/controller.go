package controller

import (
	"net/http"
	"time"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/screen"
)

type GraphController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Sessions resolves the screen a request talks to.
type Sessions interface {
	Open(id, token string) (string, *screen.Screen)
	Lookup(id string) (*screen.Screen, bool)
	Remove(id string) bool
}

type Options struct {
	// Location is the zone chart labels are shown in.
	Location    *time.Location
	ChartWidth  int
	ChartHeight int
}

type graphControllerImpl struct {
	sessions Sessions
	opts     Options
}

func NewGraphController(sessions Sessions, opts Options) GraphController {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &graphControllerImpl{sessions: sessions, opts: opts}
}

func (c *graphControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleRoot)
	mux.HandleFunc("GET /graph", c.handleGraph)
	mux.HandleFunc("GET /graph/partial", c.handleGraphPartial)
	mux.HandleFunc("POST /graph/reload", c.handleReload)
	mux.HandleFunc("GET /graph/chart.svg", c.handleChart)
	mux.HandleFunc("GET /graph/chart.png", c.handleChart)
	mux.HandleFunc("DELETE /graph/session", c.handleEndSession)
	mux.HandleFunc("GET /api/v1/graph", c.handleGraphJSON)
}
