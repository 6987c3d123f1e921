package discussion

import "sync"

// recipeLocks hands out one mutex per recipe id and forgets it once nobody
// holds or waits for it.
type recipeLocks struct {
	mu    sync.Mutex
	locks map[string]*recipeLock
}

type recipeLock struct {
	mu   sync.Mutex
	refs int
}

func newRecipeLocks() *recipeLocks {
	return &recipeLocks{locks: make(map[string]*recipeLock)}
}

// lock blocks until the recipe is free and returns the matching unlock.
func (l *recipeLocks) lock(recipeID string) func() {
	l.mu.Lock()
	rl, ok := l.locks[recipeID]
	if !ok {
		rl = &recipeLock{}
		l.locks[recipeID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, recipeID)
		}
		l.mu.Unlock()
	}
}

func (l *recipeLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
