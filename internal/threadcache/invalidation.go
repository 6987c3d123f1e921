package threadcache

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// InvalidateSubject carries a recipe id, or ALL, whose cached thread is
// stale.
const InvalidateSubject = "recipes.comments.invalidate"

const originHeader = "Recipebook-Origin"

// Invalidator tells other instances which threads changed. A nil
// *Invalidator is a no-op, so single-instance setups can skip NATS. Over a
// shared store it is a no-op too: the writer already updated the one copy
// every instance reads.
type Invalidator struct {
	nc      *nats.Conn
	subject string
	origin  string
	store   Store
	log     *zap.Logger
}

func NewInvalidator(nc *nats.Conn, store Store, log *zap.Logger) *Invalidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Invalidator{
		nc:      nc,
		subject: InvalidateSubject,
		origin:  uuid.NewString(),
		store:   store,
		log:     log,
	}
}

// Subscribe drops cached threads named on the invalidation subject.
// Messages this instance published itself are ignored since its own
// cache already holds the new forest.
func (i *Invalidator) Subscribe() (*nats.Subscription, error) {
	if !i.active() {
		return nil, nil
	}
	return i.nc.Subscribe(i.subject, i.handle)
}

func (i *Invalidator) active() bool {
	return i != nil && i.nc != nil && !i.store.Shared()
}

func (i *Invalidator) handle(m *nats.Msg) {
	if i.store.Shared() {
		return
	}
	if m.Header != nil && m.Header.Get(originHeader) == i.origin {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	recipeID := strings.TrimSpace(string(m.Data))
	var err error
	if recipeID == "" || strings.EqualFold(recipeID, "ALL") {
		err = i.store.InvalidateAll(ctx)
	} else {
		err = i.store.Invalidate(ctx, recipeID)
	}
	if err != nil {
		i.log.Warn("thread cache invalidation failed", zap.String("recipe_id", recipeID), zap.Error(err))
	}
}

// Broadcast announces that the thread of recipeID changed.
func (i *Invalidator) Broadcast(recipeID string) {
	if !i.active() {
		return
	}
	msg := nats.NewMsg(i.subject)
	msg.Header.Set(originHeader, i.origin)
	msg.Data = []byte(recipeID)
	if err := i.nc.PublishMsg(msg); err != nil {
		i.log.Warn("thread cache broadcast failed", zap.String("recipe_id", recipeID), zap.Error(err))
	}
}
