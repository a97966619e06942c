// Package recipients holds the current campaign's recipient list. The
// system works on a single active list at a time: whatever was loaded last
// is what the next dispatch snapshots.
package recipients

import (
	"sync"

	"github.com/jmehdipour/wablast/internal/model"
)

type Store struct {
	mu      sync.RWMutex
	current []model.RecipientID
}

func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a new recipient list and returns its size.
func (s *Store) Replace(ids []model.RecipientID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = append(s.current[:0:0], ids...)
	return len(s.current)
}

// Current returns a copy of the list; dispatch passes iterate the copy so
// a concurrent Replace cannot reshuffle a run in flight.
func (s *Store) Current() []model.RecipientID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.RecipientID(nil), s.current...)
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}
