package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Manager tracks live sessions. Sessions never share an engine.
type Manager struct {
	store   *Store
	factory EngineFactory

	mu       sync.RWMutex
	sessions map[string]*Session

	now func() time.Time
}

// NewManager creates a manager that builds engines with factory.
func NewManager(store *Store, factory EngineFactory) *Manager {
	return &Manager{
		store:    store,
		factory:  factory,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create starts a session with its own engine. A factory failure, such as
// missing credentials, means no session is created.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	engine, err := m.factory()
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: m.now().UTC(),
		engine:    engine,
		store:     m.store,
		now:       m.now,
	}
	sess.touch()
	if err := m.store.createSession(ctx, sess.ID, sess.CreatedAt); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	log.Printf("session %s: started", sess.ID)
	return sess, nil
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// End drops a session, its index and its transcript.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	log.Printf("session %s: ended", id)
	return m.store.deleteSession(ctx, id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ExpireIdle ends every session that has been inactive for longer than
// maxIdle and returns how many were ended. Sessions in the middle of an
// action are left alone.
func (m *Manager) ExpireIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.RLock()
	var idle []*Session
	for _, sess := range m.sessions {
		if sess.LastActive().Before(cutoff) {
			idle = append(idle, sess)
		}
	}
	m.mu.RUnlock()

	ended := 0
	for _, sess := range idle {
		if !sess.mu.TryLock() {
			continue
		}
		if !sess.LastActive().Before(cutoff) {
			sess.mu.Unlock()
			continue
		}
		err := m.End(ctx, sess.ID)
		sess.mu.Unlock()
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("session %s: expiring: %v", sess.ID, err)
			}
			continue
		}
		ended++
	}
	if ended > 0 {
		log.Printf("session: expired %d idle session(s)", ended)
	}
	return ended
}

// Reap calls ExpireIdle every interval until ctx is done.
func (m *Manager) Reap(ctx context.Context, maxIdle, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ExpireIdle(ctx, maxIdle)
		}
	}
}
