package discussion

import (
	"sync"
	"testing"
	"time"
)

func TestRecipeLocks_IndependentRecipes(t *testing.T) {
	l := newRecipeLocks()
	unlockA := l.lock("a")

	done := make(chan struct{})
	go func() {
		unlock := l.lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another recipe blocked")
	}
	unlockA()
	if l.size() != 0 {
		t.Fatalf("expected no locks left, have %d", l.size())
	}
}

func TestRecipeLocks_SameRecipeExclusive(t *testing.T) {
	l := newRecipeLocks()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock("r")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxSeen)
	}
	if l.size() != 0 {
		t.Fatalf("expected no locks left, have %d", l.size())
	}
}
