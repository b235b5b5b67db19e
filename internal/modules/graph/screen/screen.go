// Package screen holds the state of one mounted sensor graph: the token it
// loads with, the readings it shows and whether the last load failed.
package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/YanFialkovitz/app-dados-sensores/internal/metrics"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/loader"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/types"
)

type State string

const (
	StateEmpty  State = "empty"
	StateLoaded State = "loaded"
	StateError  State = "error"
)

// Loader fetches the reading list for a token.
type Loader interface {
	Fetch(ctx context.Context, token string) ([]types.SensorReading, error)
}

type LoaderFunc func(ctx context.Context, token string) ([]types.SensorReading, error)

func (f LoaderFunc) Fetch(ctx context.Context, token string) ([]types.SensorReading, error) {
	return f(ctx, token)
}

// Snapshot is a copy of the screen state safe to use after the lock is
// released.
type Snapshot struct {
	State     State
	Message   string
	Readings  []types.SensorReading
	Token     string
	Mounted   bool
	Loading   bool
	UpdatedAt time.Time
}

type Screen struct {
	loader Loader
	logger *slog.Logger
	clock  clockwork.Clock

	mu         sync.Mutex
	mounted    bool
	token      string
	lifeCtx    context.Context
	lifeCancel context.CancelFunc
	loadCancel context.CancelFunc
	generation uint64
	done       chan struct{}

	state     State
	message   string
	readings  []types.SensorReading
	updatedAt time.Time
}

type Option func(*Screen)

func WithLogger(l *slog.Logger) Option {
	return func(s *Screen) { s.logger = l }
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Screen) { s.clock = c }
}

// New returns an unmounted screen with no readings.
func New(l Loader, opts ...Option) *Screen {
	done := make(chan struct{})
	close(done)
	s := &Screen{
		loader:   l,
		logger:   slog.Default(),
		clock:    clockwork.NewRealClock(),
		state:    StateEmpty,
		readings: []types.SensorReading{},
		done:     done,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount starts the screen's lifetime and issues the first load. Mounting an
// already mounted screen behaves like SetToken.
func (s *Screen) Mount(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mounted {
		s.setTokenLocked(token)
		return
	}
	s.mounted = true
	s.token = token
	s.resetLocked()
	s.lifeCtx, s.lifeCancel = context.WithCancel(context.Background())
	s.startLoadLocked()
}

// SetToken reloads with a new token. The same token, or an unmounted screen,
// is a no-op. It reports whether a load was started.
func (s *Screen) SetToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setTokenLocked(token)
}

func (s *Screen) setTokenLocked(token string) bool {
	if !s.mounted || token == s.token {
		return false
	}
	s.token = token
	s.startLoadLocked()
	return true
}

// Reload issues a new load with the current token.
func (s *Screen) Reload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return false
	}
	s.startLoadLocked()
	return true
}

// Unmount cancels any in-flight load and discards the readings. Completions
// arriving afterwards are dropped.
func (s *Screen) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.mounted = false
	s.generation++
	s.lifeCancel()
	s.loadCancel = nil
	s.resetLocked()
}

func (s *Screen) resetLocked() {
	s.state = StateEmpty
	s.message = ""
	s.readings = []types.SensorReading{}
	s.updatedAt = time.Time{}
}

func (s *Screen) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	readings := make([]types.SensorReading, len(s.readings))
	copy(readings, s.readings)

	loading := false
	select {
	case <-s.done:
	default:
		loading = true
	}
	return Snapshot{
		State:     s.state,
		Message:   s.message,
		Readings:  readings,
		Token:     s.token,
		Mounted:   s.mounted,
		Loading:   loading,
		UpdatedAt: s.updatedAt,
	}
}

// Wait blocks until no load is in flight or ctx is done. A load started while
// waiting is waited for as well.
func (s *Screen) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		done := s.done
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		s.mu.Lock()
		same := done == s.done
		s.mu.Unlock()
		if same {
			return nil
		}
	}
}

func (s *Screen) startLoadLocked() {
	if s.loadCancel != nil {
		s.loadCancel()
	}
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(s.lifeCtx)
	s.loadCancel = cancel
	done := make(chan struct{})
	s.done = done

	go s.load(ctx, cancel, gen, s.token, done)
}

func (s *Screen) load(ctx context.Context, cancel context.CancelFunc, gen uint64, token string, done chan struct{}) {
	defer close(done)
	defer cancel()

	readings, err := s.loader.Fetch(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || !s.mounted {
		s.logger.Debug("dropping stale sensor data load", "generation", gen, "current", s.generation)
		return
	}
	s.loadCancel = nil

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error("failed to fetch sensor data", "error", err)
		s.transitionLocked(StateError, loader.UserMessage(err))
		return
	}

	if readings == nil {
		readings = []types.SensorReading{}
	}
	s.readings = readings
	s.transitionLocked(StateLoaded, "")
}

func (s *Screen) transitionLocked(state State, message string) {
	s.state = state
	s.message = message
	s.updatedAt = s.clock.Now()
	metrics.ScreenTransitions.WithLabelValues(string(state)).Inc()
}
