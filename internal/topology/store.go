package topology

import (
	"sync"
	"time"

	"github.com/matijazezelj/monbot/pkg/models"
)

// Store holds the active topology for one session. Replace swaps the whole
// topology atomically; a document that fails validation leaves the previous
// topology active.
type Store struct {
	mu        sync.RWMutex
	topo      models.Topology
	source    string
	updatedAt time.Time
}

// NewStore creates a store seeded with the given topology.
func NewStore(topo models.Topology, source string) *Store {
	return &Store{topo: topo, source: source, updatedAt: time.Now()}
}

// Current returns the active topology.
func (s *Store) Current() models.Topology {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topo
}

// Source returns where the active topology came from ("default" or "upload").
func (s *Store) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// UpdatedAt returns when the active topology was last replaced.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Replace validates the new topology and swaps it in. On validation failure
// the previous topology stays active and the error is returned.
func (s *Store) Replace(topo models.Topology, source string) error {
	if err := Validate(topo); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topo = topo
	s.source = source
	s.updatedAt = time.Now()
	return nil
}

// ReplaceFromDocument parses, validates and swaps in an uploaded document.
// Never a partial load: any error keeps the previous topology.
func (s *Store) ReplaceFromDocument(data []byte, format string) error {
	topo, err := Parse(data, format)
	if err != nil {
		return err
	}
	return s.Replace(topo, "upload")
}
