package controller

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/chart"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/screen"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/series"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/views"
	"github.com/YanFialkovitz/app-dados-sensores/internal/utils"
)

func (c *graphControllerImpl) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/graph", http.StatusFound)
}

func (c *graphControllerImpl) handleGraph(w http.ResponseWriter, r *http.Request) {
	s := c.resolveScreen(w, r)
	settle(r.Context(), s)
	c.writeGraph(w, s.Snapshot(), views.RenderGraph)
}

func (c *graphControllerImpl) handleGraphPartial(w http.ResponseWriter, r *http.Request) {
	s := c.resolveScreen(w, r)
	settle(r.Context(), s)
	c.writeGraph(w, s.Snapshot(), views.RenderChartPartial)
}

func (c *graphControllerImpl) handleReload(w http.ResponseWriter, r *http.Request) {
	s := c.resolveScreen(w, r)
	s.Reload()
	settle(r.Context(), s)
	c.writeGraph(w, s.Snapshot(), views.RenderChartPartial)
}

func (c *graphControllerImpl) writeGraph(w http.ResponseWriter, snap screen.Snapshot, render func(io.Writer, *views.GraphData) error) {
	data, err := c.buildGraphData(snap, series.Project(snap.Readings, c.opts.Location))
	if err != nil {
		slog.Error("graph: chart render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, data); err != nil {
		slog.Error("graph template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteBody(w, http.StatusOK, utils.ContentTypeHTML, buf.Bytes())
}

func (c *graphControllerImpl) handleChart(w http.ResponseWriter, r *http.Request) {
	width, height, err := parseChartSize(r, c.opts.ChartWidth, c.opts.ChartHeight)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	format := chart.FormatSVG
	if r.URL.Path == "/graph/chart.png" {
		format = chart.FormatPNG
	}

	s := c.resolveScreen(w, r)
	settle(r.Context(), s)
	snap := s.Snapshot()

	var buf bytes.Buffer
	err = chart.Render(&buf, series.Project(snap.Readings, c.opts.Location), chart.Options{
		Width:     width,
		Height:    height,
		Format:    format,
		WithTitle: true,
	})
	if err != nil {
		slog.Error("graph: chart render failed", "format", format, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Graph-State", string(snap.State))
	utils.WriteBody(w, http.StatusOK, format.ContentType(), buf.Bytes())
}

func (c *graphControllerImpl) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if id := sessionID(r); id != "" {
		c.sessions.Remove(id)
	}
	clearSessionCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

type graphResponse struct {
	State     string     `json:"state"`
	Message   string     `json:"message"`
	Loading   bool       `json:"loading"`
	Labels    []string   `json:"labels"`
	Values    []float64  `json:"values"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (c *graphControllerImpl) handleGraphJSON(w http.ResponseWriter, r *http.Request) {
	s := c.resolveScreen(w, r)
	settle(r.Context(), s)
	snap := s.Snapshot()

	proj := series.Project(snap.Readings, c.opts.Location)
	resp := graphResponse{
		State:   string(snap.State),
		Message: snap.Message,
		Loading: snap.Loading,
		Labels:  proj.Labels,
		Values:  proj.Values,
	}
	if !snap.UpdatedAt.IsZero() {
		t := snap.UpdatedAt
		resp.UpdatedAt = &t
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
