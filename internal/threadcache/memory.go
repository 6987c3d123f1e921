package threadcache

import (
	"context"
	"sync"
	"time"

	"github.com/example/recipebook/internal/commenttree"
)

type entry struct {
	forest    commenttree.Forest
	expiresAt time.Time
}

// MemoryStore is an in-process Store with per-entry expiry.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MemoryStore{
		items: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, recipeID string) (commenttree.Forest, bool, error) {
	s.mu.RLock()
	it, ok := s.items[recipeID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.now().After(it.expiresAt) {
		s.mu.Lock()
		if cur, ok2 := s.items[recipeID]; ok2 && s.now().After(cur.expiresAt) {
			delete(s.items, recipeID)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return it.forest, true, nil
}

func (s *MemoryStore) Set(_ context.Context, recipeID string, f commenttree.Forest) error {
	if f == nil {
		f = commenttree.Forest{}
	}
	s.mu.Lock()
	s.items[recipeID] = entry{forest: f, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, recipeID string) error {
	s.mu.Lock()
	delete(s.items, recipeID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) InvalidateAll(_ context.Context) error {
	s.mu.Lock()
	s.items = make(map[string]entry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, recipeID string, mutate Mutation) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[recipeID]
	if !ok || s.now().After(it.expiresAt) {
		delete(s.items, recipeID)
		return false, false, nil
	}
	next, applied := mutate(it.forest)
	if !applied {
		delete(s.items, recipeID)
		return true, false, nil
	}
	if next == nil {
		next = commenttree.Forest{}
	}
	s.items[recipeID] = entry{forest: next, expiresAt: s.now().Add(s.ttl)}
	return true, true, nil
}

func (s *MemoryStore) Shared() bool { return false }

// Len reports the number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
