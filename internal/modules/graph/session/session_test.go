package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/types"
)

type countingLoader struct {
	mu     sync.Mutex
	tokens []string
}

func (c *countingLoader) Fetch(_ context.Context, token string) ([]types.SensorReading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = append(c.tokens, token)
	return []types.SensorReading{}, nil
}

func (c *countingLoader) Tokens() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.tokens...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(idle time.Duration) (*Registry, *countingLoader, *clockwork.FakeClock) {
	l := &countingLoader{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	r := NewRegistry(l, idle, WithClock(clock), WithLogger(quietLogger()))
	return r, l, clock
}

func settle(t *testing.T, r *Registry, id string) {
	t.Helper()
	s, ok := r.Lookup(id)
	require.True(t, ok)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestOpen_createsAndMounts(t *testing.T) {
	r, l, _ := newTestRegistry(time.Minute)
	defer r.Close()

	id, s := r.Open("", "abc")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	settle(t, r, id)

	assert.True(t, s.Snapshot().Mounted)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"abc"}, l.Tokens())
}

func TestOpen_unknownIDGetsFreshSession(t *testing.T) {
	r, _, _ := newTestRegistry(time.Minute)
	defer r.Close()

	id, _ := r.Open("not-a-session", "abc")
	assert.NotEqual(t, "not-a-session", id)
	assert.Equal(t, 1, r.Len())
}

func TestOpen_existingSessionReloadsOnlyOnTokenChange(t *testing.T) {
	r, l, _ := newTestRegistry(time.Minute)
	defer r.Close()

	id, first := r.Open("", "abc")
	settle(t, r, id)

	again, same := r.Open(id, "abc")
	settle(t, r, id)
	assert.Equal(t, id, again)
	assert.Same(t, first, same)

	r.Open(id, "xyz")
	settle(t, r, id)

	assert.Equal(t, []string{"abc", "xyz"}, l.Tokens())
	assert.Equal(t, 1, r.Len())
}

func TestRemove_unmounts(t *testing.T) {
	r, _, _ := newTestRegistry(time.Minute)
	defer r.Close()

	id, s := r.Open("", "abc")
	settle(t, r, id)

	assert.True(t, r.Remove(id))
	assert.False(t, r.Remove(id))
	assert.False(t, s.Snapshot().Mounted)
	_, ok := r.Lookup(id)
	assert.False(t, ok)
}

func TestSweep_expiresIdleSessions(t *testing.T) {
	r, _, clock := newTestRegistry(15 * time.Minute)
	defer r.Close()

	stale, staleScreen := r.Open("", "a")
	clock.Advance(10 * time.Minute)
	fresh, _ := r.Open("", "b")

	clock.Advance(6 * time.Minute)
	assert.Equal(t, 1, r.Sweep())

	_, ok := r.Lookup(stale)
	assert.False(t, ok)
	assert.False(t, staleScreen.Snapshot().Mounted)
	_, ok = r.Lookup(fresh)
	assert.True(t, ok)
}

func TestLookup_keepsSessionAlive(t *testing.T) {
	r, _, clock := newTestRegistry(15 * time.Minute)
	defer r.Close()

	id, _ := r.Open("", "a")
	clock.Advance(10 * time.Minute)
	_, ok := r.Lookup(id)
	require.True(t, ok)
	clock.Advance(10 * time.Minute)

	assert.Equal(t, 0, r.Sweep())
}

func TestStart_janitorExpiresOnTick(t *testing.T) {
	r, _, clock := newTestRegistry(4 * time.Minute)
	defer r.Close()

	id, _ := r.Open("", "a")
	r.Start()
	clock.BlockUntil(1)

	clock.Advance(5 * time.Minute)

	assert.Eventually(t, func() bool {
		_, ok := r.Lookup(id)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestClose_unmountsAll(t *testing.T) {
	r, _, _ := newTestRegistry(time.Minute)
	r.Start()

	_, a := r.Open("", "a")
	_, b := r.Open("", "b")

	r.Close()
	r.Close()

	assert.Equal(t, 0, r.Len())
	assert.False(t, a.Snapshot().Mounted)
	assert.False(t, b.Snapshot().Mounted)

	// after Close a request still gets a screen, but it is never loaded
	_, s := r.Open("", "c")
	assert.False(t, s.Snapshot().Mounted)
	assert.Equal(t, 0, r.Len())
}
