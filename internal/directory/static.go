package directory

import (
	"context"
	"sync"
)

// Static is an in-memory Directory. Used by tests and the smoke script.
type Static struct {
	mu     sync.RWMutex
	spaces map[string]Space
}

// NewStatic builds a Static directory holding the given spaces.
func NewStatic(spaces ...Space) *Static {
	s := &Static{spaces: make(map[string]Space, len(spaces))}
	for _, sp := range spaces {
		s.spaces[sp.ID] = sp
	}
	return s
}

// Add inserts or replaces a space.
func (s *Static) Add(space Space) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces[space.ID] = space
}

// Lookup implements Directory.
func (s *Static) Lookup(_ context.Context, spaceID string) (*Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spaces[spaceID]
	if !ok {
		return nil, ErrNotFound
	}
	return &sp, nil
}
