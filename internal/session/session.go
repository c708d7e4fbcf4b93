// Package session keeps the per-browser conversion state: one engine handle,
// the identity of the model loaded into it and the last converted output.
package session

import (
	"errors"
	"sync"
	"time"

	"voice_conversion/entity"
)

var ErrClosed = errors.New("session has expired")

// Session is owned by one browser. Callers hold Lock for the whole of an
// operation so uploads and conversions of the same session never interleave.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu sync.Mutex

	device    string
	factory   entity.EngineFactory
	onEngine  func()
	once      sync.Once
	engine    entity.Engine
	engineErr error

	modelIdentity string
	modelName     string
	lastOutput    []byte
	lastArchive   string
	closed        bool

	// guarded by the owning Registry
	lastAccess time.Time
}

func newSession(id, device string, factory entity.EngineFactory, onEngine func(), now time.Time) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  now,
		device:     device,
		factory:    factory,
		onEngine:   onEngine,
		lastAccess: now,
	}
}

// New returns a standalone session; used where no Registry is involved.
func New(id, device string, factory entity.EngineFactory) *Session {
	return newSession(id, device, factory, nil, time.Now())
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Engine returns the session's engine, building it on first use.
// A failed construction is not retried.
func (s *Session) Engine() (entity.Engine, error) {
	if s.closed {
		return nil, ErrClosed
	}

	s.once.Do(func() {
		s.engine, s.engineErr = s.factory(s.device)
		if s.engineErr == nil && s.onEngine != nil {
			s.onEngine()
		}
	})

	return s.engine, s.engineErr
}

// ModelIdentity is empty until a model load succeeds.
func (s *Session) ModelIdentity() string {
	return s.modelIdentity
}

// ModelName is the filename of the loaded model.
func (s *Session) ModelName() string {
	return s.modelName
}

func (s *Session) SetModel(identity, name string) {
	s.modelIdentity = identity
	s.modelName = name
}

// LastOutput returns the bytes of the last successful conversion, or nil.
func (s *Session) LastOutput() []byte {
	return s.lastOutput
}

func (s *Session) SetLastOutput(b []byte) {
	s.lastOutput = b
}

// LastArchive returns the archived object name of the last output, or "".
func (s *Session) LastArchive() string {
	return s.lastArchive
}

func (s *Session) SetLastArchive(name string) {
	s.lastArchive = name
}

// Closed reports whether the session has been evicted.
func (s *Session) Closed() bool {
	return s.closed
}

// closeLocked releases the engine. The caller must hold the lock.
func (s *Session) closeLocked() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.lastOutput = nil

	// Mark the once as used so a later Engine call cannot build a new handle.
	s.once.Do(func() {})

	if s.engine == nil {
		return nil
	}
	return s.engine.Close()
}

// Close locks the session and releases its engine.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closeLocked()
}
