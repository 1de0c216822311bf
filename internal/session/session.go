// Package session scopes mutable assistant state to one user session: the
// active topology (possibly replaced by an upload) and the command cache.
// Sessions never share state.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matijazezelj/monbot/internal/cache"
	"github.com/matijazezelj/monbot/internal/topology"
	"github.com/matijazezelj/monbot/pkg/models"
)

// Session owns the per-session topology store and command cache.
type Session struct {
	ID        string
	CreatedAt time.Time
	Topology  *topology.Store
	Cache     *cache.Cache

	mu       sync.Mutex
	lastSeen time.Time
}

// New creates a standalone session seeded with the given topology.
func New(topo models.Topology) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Topology:  topology.NewStore(topo, "default"),
		Cache:     cache.New(),
		lastSeen:  now,
	}
}

// Touch records request activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

// LastSeen returns when the session last handled a request.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager tracks sessions by ID and creates them on demand, each seeded with
// its own copy of the default topology.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	defaultTopo models.Topology
}

// NewManager creates a Manager with the given default topology.
func NewManager(defaultTopo models.Topology) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		defaultTopo: defaultTopo,
	}
}

// Get returns the session with the given ID, if it exists.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate returns the session with the given ID, creating it if needed.
// An empty ID always creates a fresh session.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if s, ok := m.sessions[id]; ok {
			return s
		}
	}

	s := New(m.defaultTopo)
	if id != "" {
		s.ID = id
	}
	m.sessions[s.ID] = s
	return s
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Remove drops a session and all its state.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
