package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"voice_conversion/entity"
	"voice_conversion/internal/telemetry/metric"
	"voice_conversion/pkg/logger"
)

// Registry maps session ids to sessions and evicts idle ones.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	factory entity.EngineFactory
	device  string
	ttl     time.Duration
	l       logger.Interface
	m       *metric.Metrics
	now     func() time.Time
}

// NewRegistry -.
func NewRegistry(factory entity.EngineFactory, device string, ttl time.Duration, l logger.Interface, m *metric.Metrics) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		device:   device,
		ttl:      ttl,
		l:        l,
		m:        m,
		now:      time.Now,
	}
}

// Acquire returns the live session for id, or creates one under a fresh id
// when id is empty or unknown. created reports which happened.
func (r *Registry) Acquire(id string) (s *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	if existing, ok := r.sessions[id]; ok && id != "" {
		existing.lastAccess = now
		return existing, false
	}

	s = newSession(uuid.NewString(), r.device, r.factory, r.m.EnginesCreated.Inc, now)
	r.sessions[s.ID] = s
	r.m.ActiveSessions.Set(float64(len(r.sessions)))

	r.l.Debug("session created: " + s.ID)

	return s, true
}

// Get looks up a live session without creating one.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if ok {
		s.lastAccess = r.now()
	}
	return s, ok
}

// Len -.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the ttl and closes their
// engines. Sessions busy with an operation are skipped. It returns the
// number of sessions evicted.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	var expired []*Session

	r.mu.Lock()
	now := r.now()
	for id, s := range r.sessions {
		if now.Sub(s.lastAccess) <= r.ttl {
			continue
		}
		if !s.mu.TryLock() {
			continue
		}
		delete(r.sessions, id)
		expired = append(expired, s)
	}
	r.m.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range expired {
		r.l.Info("Removing expired session : %s", s.ID)
		if err := s.closeLocked(); err != nil {
			r.l.Error("session %s: close engine: %v", s.ID, err)
		}
		s.mu.Unlock()
	}

	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every session and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.m.ActiveSessions.Set(0)
	r.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
