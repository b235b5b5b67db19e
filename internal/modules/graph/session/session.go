// Package session maps browser sessions to mounted graph screens and expires
// the ones that go idle.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/YanFialkovitz/app-dados-sensores/internal/metrics"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/screen"
)

// CookieName carries the session id.
const CookieName = "sg_session"

const minSweepInterval = time.Second

type entry struct {
	screen   *screen.Screen
	lastSeen time.Time
}

type Registry struct {
	loader screen.Loader
	idle   time.Duration
	clock  clockwork.Clock
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool

	stop chan struct{}
	wg   sync.WaitGroup
}

type Option func(*Registry)

func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

func NewRegistry(l screen.Loader, idle time.Duration, opts ...Option) *Registry {
	r := &Registry{
		loader:   l,
		idle:     idle,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
		sessions: map[string]*entry{},
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start runs the idle janitor until Close.
func (r *Registry) Start() {
	interval := r.idle / 4
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := r.clock.NewTicker(interval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.Chan():
				if n := r.Sweep(); n > 0 {
					r.logger.Info("expired idle sessions", "count", n)
				}
			}
		}
	}()
}

// Open returns the screen for id with token applied. An empty or unknown id
// creates a new session and mounts its screen; a known id with a different
// token reloads. The returned id is the one the caller should keep.
func (r *Registry) Open(id, token string) (string, *screen.Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[id]; ok && !r.closed {
		e.lastSeen = r.clock.Now()
		e.screen.SetToken(token)
		return id, e.screen
	}

	id = uuid.NewString()
	s := screen.New(r.loader,
		screen.WithLogger(r.logger.With("session_id", id)),
		screen.WithClock(r.clock),
	)
	if r.closed {
		// still hand back a screen, but never track or load it
		return id, s
	}
	r.sessions[id] = &entry{screen: s, lastSeen: r.clock.Now()}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.logger.Debug("session created", "session_id", id)
	s.Mount(token)
	return id, s
}

// Lookup returns the screen for id without changing its token.
func (r *Registry) Lookup(id string) (*screen.Screen, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.clock.Now()
	return e.screen, true
}

// Remove unmounts and forgets the session.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
	r.mu.Unlock()

	if ok {
		e.screen.Unmount()
		r.logger.Debug("session removed", "session_id", id)
	}
	return ok
}

// Sweep unmounts sessions idle for longer than the timeout and returns how
// many were removed.
func (r *Registry) Sweep() int {
	now := r.clock.Now()

	r.mu.Lock()
	var expired []*screen.Screen
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) >= r.idle {
			expired = append(expired, e.screen)
			delete(r.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range expired {
		s.Unmount()
	}
	return len(expired)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the janitor and unmounts every screen. It is safe to call more
// than once.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	all := r.sessions
	r.sessions = map[string]*entry{}
	metrics.ActiveSessions.Set(0)
	r.mu.Unlock()

	close(r.stop)
	r.wg.Wait()

	for _, e := range all {
		e.screen.Unmount()
	}
	r.logger.Info("sessions closed", "count", len(all))
}
