package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/bumper"
	"github.com/sells-group/ppm-finder/internal/guided"
	"github.com/sells-group/ppm-finder/internal/store"
)

// ErrInvalidSession is returned for session IDs that are not UUIDs.
var ErrInvalidSession = eris.New("server: invalid session id")

// session is one visitor's bumper machine, overlay tracker and guided
// answers. mu serializes event handling for the session.
type session struct {
	mu       sync.Mutex
	id       string
	machine  *bumper.Machine
	overlays *bumper.OverlaySet
	guided   *guided.Store
	lastSeen time.Time
}

// Sessions keeps live sessions in memory on top of a shared KV. Session
// state is persisted under a per-session namespace, so an evicted or
// unknown-but-valid session is reloaded from the store on next use.
type Sessions struct {
	mu      sync.Mutex
	kv      store.KV
	clock   bumper.Clock
	th      bumper.Thresholds
	idleTTL time.Duration
	items   map[string]*session
}

// NewSessions creates a session registry. A nil clock uses the real clock;
// idleTTL <= 0 disables eviction.
func NewSessions(kv store.KV, clock bumper.Clock, th bumper.Thresholds, idleTTL time.Duration) *Sessions {
	if clock == nil {
		clock = bumper.RealClock()
	}
	return &Sessions{
		kv:      kv,
		clock:   clock,
		th:      th,
		idleTTL: idleTTL,
		items:   make(map[string]*session),
	}
}

// Create starts a new session and returns its ID.
func (s *Sessions) Create(ctx context.Context) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.items[id] = s.load(ctx, id)
	n := len(s.items)
	s.mu.Unlock()

	zap.L().Debug("server: session created", zap.String("session_id", id), zap.Int("live", n))
	return id
}

// get returns the session for id, loading it from the store when it is
// not live.
func (s *Sessions) get(ctx context.Context, id string) (*session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(ErrInvalidSession, "server: session %q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok {
		sess = s.load(ctx, id)
		s.items[id] = sess
	}
	sess.lastSeen = s.clock.Now()
	return sess, nil
}

func (s *Sessions) load(ctx context.Context, id string) *session {
	kv := store.NewNamespaced(s.kv, "session:"+id)
	overlays := bumper.NewOverlaySet()
	return &session{
		id: id,
		machine: bumper.Load(ctx, kv, bumper.Options{
			Clock:      s.clock,
			Thresholds: s.th,
			Home:       overlays,
		}),
		overlays: overlays,
		guided:   guided.NewStore(kv),
		lastSeen: s.clock.Now(),
	}
}

// Reset clears a session's persisted state and drops it from memory.
func (s *Sessions) Reset(ctx context.Context, id string) error {
	sess, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	sess.machine.Reset(ctx)
	sess.machine.Close()
	sess.overlays.Clear()
	err = sess.guided.Clear(ctx)
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return err
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Evict drops sessions idle for longer than the TTL. Their persisted
// state is kept.
func (s *Sessions) Evict() int {
	if s.idleTTL <= 0 {
		return 0
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, sess := range s.items {
		if now.Sub(sess.lastSeen) < s.idleTTL {
			continue
		}
		sess.machine.Close()
		delete(s.items, id)
		evicted++
	}
	if evicted > 0 {
		zap.L().Debug("server: evicted idle sessions", zap.Int("evicted", evicted), zap.Int("live", len(s.items)))
	}
	return evicted
}

// Run evicts idle sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evict()
		}
	}
}

// Close stops every live session's countdowns.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.items {
		sess.machine.Close()
		delete(s.items, id)
	}
}
