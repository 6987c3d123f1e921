// Package threadcache keeps the current comment forest of each recipe
// between requests so successful mutations can be applied locally instead
// of refetching the thread.
package threadcache

import (
	"context"
	"errors"

	"github.com/example/recipebook/internal/commenttree"
)

// ErrConflict is returned by Update when the entry kept changing under it.
// The entry has been dropped by then.
var ErrConflict = errors.New("thread cache: concurrent update")

// Mutation derives the next forest from the cached one. It reports false
// when its target is not in the forest. It may run more than once.
type Mutation func(commenttree.Forest) (commenttree.Forest, bool)

// Store is safe for concurrent use. Forests handed to Set must not be
// modified afterwards; commenttree never does.
type Store interface {
	Get(ctx context.Context, recipeID string) (commenttree.Forest, bool, error)
	Set(ctx context.Context, recipeID string, f commenttree.Forest) error
	Invalidate(ctx context.Context, recipeID string) error
	InvalidateAll(ctx context.Context) error

	// Update applies mutate to the cached forest of recipeID atomically.
	// cached is false when nothing was cached and mutate did not run. When
	// mutate reports false the entry is dropped.
	Update(ctx context.Context, recipeID string, mutate Mutation) (cached, applied bool, err error)

	// Shared reports whether every instance sees the same entries, in which
	// case peers must not drop them on invalidation broadcasts.
	Shared() bool
}
