package controller

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/chart"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/screen"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/series"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/session"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/types"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/views"
)

const pageTitle = chart.Title

// tokenFromRequest reads the token from the query string, falling back to a
// bearer Authorization header. ok is false when neither is present, so the
// session keeps its current token.
func tokenFromRequest(r *http.Request) (token string, ok bool) {
	q := r.URL.Query()
	if q.Has("token") {
		return strings.TrimSpace(q.Get("token")), true
	}
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, rest, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// isSecure reports whether the client reached us over HTTPS, directly or
// through a proxy that sets X-Forwarded-Proto.
func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// resolveScreen returns the caller's screen, creating a session when needed,
// and refreshes the cookie when the id changed. A caller with neither a
// session nor a token gets a detached, unmounted screen so the page only
// prompts for the token.
func (c *graphControllerImpl) resolveScreen(w http.ResponseWriter, r *http.Request) *screen.Screen {
	id := sessionID(r)
	token, hasToken := tokenFromRequest(r)

	var s *screen.Screen
	newID := id
	if hasToken {
		newID, s = c.sessions.Open(id, token)
	} else if found, ok := c.sessions.Lookup(id); ok {
		s = found
	} else {
		return screen.New(nil)
	}
	if newID != id {
		setSessionCookie(w, r, newID)
	}
	return s
}

// settle waits for the screen's in-flight load, bounded by the request. A
// cancelled request still gets whatever state the screen has.
func settle(ctx context.Context, s *screen.Screen) {
	_ = s.Wait(ctx)
}

// parseChartSize reads ?width= and ?height=, defaulting to the configured
// size and clamping to the renderer's bounds.
func parseChartSize(r *http.Request, defWidth, defHeight int) (int, int, error) {
	q := r.URL.Query()
	width, height := defWidth, defHeight
	if s := q.Get("width"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return 0, 0, errors.New("invalid 'width' (expected positive integer)")
		}
		width = n
	}
	if s := q.Get("height"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return 0, 0, errors.New("invalid 'height' (expected positive integer)")
		}
		height = n
	}
	width, height = chart.ClampSize(width, height)
	return width, height, nil
}

func formatTemperature(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatUpdated(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(series.LabelLayout)
}

// buildGraphData renders the chart for snap and assembles the page model.
func (c *graphControllerImpl) buildGraphData(snap screen.Snapshot, s types.ChartSeries) (*views.GraphData, error) {
	var svg strings.Builder
	err := chart.Render(&svg, s, chart.Options{
		Width:  c.opts.ChartWidth,
		Height: c.opts.ChartHeight,
		Format: chart.FormatSVG,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]views.Row, s.Len())
	for i := range rows {
		rows[i] = views.Row{Label: s.Labels[i], Value: formatTemperature(s.Values[i])}
	}

	return &views.GraphData{
		Title:    pageTitle,
		State:    string(snap.State),
		Message:  snap.Message,
		Loading:  snap.Loading,
		HasToken: snap.Token != "",
		// go-chart output, not user input
		ChartSVG:  template.HTML(svg.String()),
		Rows:      rows,
		UpdatedAt: formatUpdated(snap.UpdatedAt, c.opts.Location),
	}, nil
}
