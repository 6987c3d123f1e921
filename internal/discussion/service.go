// Package discussion runs the comment thread of a recipe: it calls the
// recipe service for every create, edit and delete and, once the call
// succeeds, applies the same change to the cached thread.
package discussion

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/example/recipebook/internal/commenttree"
	"github.com/example/recipebook/internal/platform/analytics"
	"github.com/example/recipebook/internal/platform/metrics"
	"github.com/example/recipebook/internal/threadcache"
	"github.com/example/recipebook/internal/upstream"
)

// MaxTextLength bounds a comment body in characters.
const MaxTextLength = 2000

var (
	ErrEmptyText   = errors.New("comment text is empty")
	ErrTextTooLong = errors.New("comment text is too long")
)

// Comments is the part of the recipe service the thread depends on.
type Comments interface {
	Create(ctx context.Context, req upstream.CreateCommentRequest) (*commenttree.Node, error)
	Tree(ctx context.Context, recipeID string) (commenttree.Forest, error)
	Update(ctx context.Context, commentID, userID, text string) (*commenttree.Node, error)
	Delete(ctx context.Context, commentID, userID string, deleteReplies bool) error
}

type EventPublisher interface {
	Publish(subject, eventName, userID string, props map[string]any)
}

// Broadcaster tells other instances that a cached thread changed.
type Broadcaster interface {
	Broadcast(recipeID string)
}

type Options struct {
	Comments    Comments
	Cache       threadcache.Store
	Events      EventPublisher
	Broadcaster Broadcaster
	Metrics     *metrics.Collector
	Logger      *zap.Logger
}

type Service struct {
	comments Comments
	cache    threadcache.Store
	events   EventPublisher
	bcast    Broadcaster
	metrics  *metrics.Collector
	log      *zap.Logger

	loads singleflight.Group
	locks *recipeLocks
}

func New(opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = threadcache.NewMemoryStore(0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		comments: opts.Comments,
		cache:    opts.Cache,
		events:   opts.Events,
		bcast:    opts.Broadcaster,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		locks:    newRecipeLocks(),
	}
}

// Thread is the comment forest of one recipe and its size.
type Thread struct {
	RecipeID string             `json:"recipe_id"`
	Comments commenttree.Forest `json:"comments"`
	Total    int                `json:"total"`
}

// Thread returns the cached forest of recipeID, fetching it once when
// absent. Concurrent misses for the same recipe share one fetch.
func (s *Service) Thread(ctx context.Context, recipeID string) (*Thread, error) {
	if f, ok := s.cached(ctx, recipeID); ok {
		s.metrics.CacheHit()
		return newThread(recipeID, f), nil
	}
	s.metrics.CacheMiss()

	v, err, _ := s.loads.Do(recipeID, func() (any, error) {
		// The fetch is shared, so one caller going away must not fail the rest.
		lctx := context.WithoutCancel(ctx)
		unlock := s.locks.lock(recipeID)
		defer unlock()
		return s.loadLocked(lctx, recipeID)
	})
	if err != nil {
		return nil, err
	}
	return newThread(recipeID, v.(commenttree.Forest)), nil
}

func newThread(recipeID string, f commenttree.Forest) *Thread {
	if f == nil {
		f = commenttree.Forest{}
	}
	return &Thread{RecipeID: recipeID, Comments: f, Total: commenttree.Count(f)}
}

// loadLocked returns the cached forest or fetches and caches it. The
// caller holds the recipe lock.
func (s *Service) loadLocked(ctx context.Context, recipeID string) (commenttree.Forest, error) {
	if f, ok := s.cached(ctx, recipeID); ok {
		return f, nil
	}
	f, err := s.comments.Tree(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, recipeID, f); err != nil {
		s.log.Warn("thread cache set failed", zap.String("recipe_id", recipeID), zap.Error(err))
	}
	return f, nil
}

func (s *Service) cached(ctx context.Context, recipeID string) (commenttree.Forest, bool) {
	f, ok, err := s.cache.Get(ctx, recipeID)
	if err != nil {
		s.log.Warn("thread cache get failed", zap.String("recipe_id", recipeID), zap.Error(err))
		return nil, false
	}
	return f, ok
}

// PostInput describes a new comment. ParentID is empty for a top-level
// comment.
type PostInput struct {
	RecipeID string
	AuthorID string
	Text     string
	ParentID string
}

// Post creates a comment or reply and returns the stored node.
func (s *Service) Post(ctx context.Context, in PostInput) (*commenttree.Node, error) {
	text, err := cleanText(in.Text)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(in.RecipeID)
	defer unlock()

	req := upstream.CreateCommentRequest{RecipeID: in.RecipeID, UserID: in.AuthorID, Text: text}
	if in.ParentID != "" {
		parent := in.ParentID
		req.ParentCommentID = &parent
	}
	node, err := s.comments.Create(ctx, req)
	if err != nil {
		s.metrics.TreeMutation(opFor(in.ParentID), metrics.OutcomeFailed)
		return nil, err
	}
	if node.Replies == nil {
		node.Replies = []*commenttree.Node{}
	}

	if in.ParentID == "" {
		s.apply(ctx, in.RecipeID, "insert_root", func(f commenttree.Forest) (commenttree.Forest, bool) {
			return commenttree.InsertRoot(f, node), true
		})
	} else {
		s.apply(ctx, in.RecipeID, "insert_reply", func(f commenttree.Forest) (commenttree.Forest, bool) {
			return commenttree.InsertReply(f, in.ParentID, node)
		})
	}

	s.publish(analytics.SubjectCommentPosted, "comment_posted", in.AuthorID, map[string]any{
		"recipe_id":  in.RecipeID,
		"comment_id": node.ID,
		"parent_id":  in.ParentID,
		"is_reply":   in.ParentID != "",
	})
	return node, nil
}

func opFor(parentID string) string {
	if parentID == "" {
		return "insert_root"
	}
	return "insert_reply"
}

// Edit replaces the text of a comment the author owns.
func (s *Service) Edit(ctx context.Context, recipeID, commentID, authorID, text string) (*commenttree.Node, error) {
	text, err := cleanText(text)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(recipeID)
	defer unlock()

	node, err := s.comments.Update(ctx, commentID, authorID, text)
	if err != nil {
		s.metrics.TreeMutation("update_text", metrics.OutcomeFailed)
		return nil, err
	}
	if node.ID == "" {
		node.ID = commentID
	}

	s.apply(ctx, recipeID, "update_text", func(f commenttree.Forest) (commenttree.Forest, bool) {
		return commenttree.UpdateText(f, node)
	})

	s.publish(analytics.SubjectCommentEdited, "comment_edited", authorID, map[string]any{
		"recipe_id":  recipeID,
		"comment_id": commentID,
	})
	return node, nil
}

// Remove deletes a comment the author owns together with its replies.
// Replies are only asked to be deleted when the comment has any.
func (s *Service) Remove(ctx context.Context, recipeID, commentID, authorID string) error {
	unlock := s.locks.lock(recipeID)
	defer unlock()

	cascade := true
	if f, err := s.loadLocked(ctx, recipeID); err != nil {
		s.log.Warn("thread unavailable, deleting with replies",
			zap.String("recipe_id", recipeID), zap.String("comment_id", commentID), zap.Error(err))
	} else if n := commenttree.Find(f, commentID); n != nil {
		cascade = len(n.Replies) > 0
	}

	if err := s.comments.Delete(ctx, commentID, authorID, cascade); err != nil {
		s.metrics.TreeMutation("remove", metrics.OutcomeFailed)
		return err
	}

	s.apply(ctx, recipeID, "remove", func(f commenttree.Forest) (commenttree.Forest, bool) {
		return commenttree.Remove(f, commentID)
	})

	s.publish(analytics.SubjectCommentDeleted, "comment_deleted", authorID, map[string]any{
		"recipe_id":      recipeID,
		"comment_id":     commentID,
		"delete_replies": cascade,
	})
	return nil
}

// apply runs a tree mutation against the cached forest after the recipe
// service accepted the change. Without a cached forest there is nothing to
// keep in sync. When the target is missing the local copy has drifted, so
// the store drops it and the next read refetches. The caller holds the
// recipe lock, which only orders this instance; the store's Update keeps
// writers on other instances from overwriting each other.
func (s *Service) apply(ctx context.Context, recipeID, op string, mutate threadcache.Mutation) {
	cached, applied, err := s.cache.Update(ctx, recipeID, mutate)
	switch {
	case err != nil:
		s.log.Warn("thread cache update failed, dropping cached thread",
			zap.String("op", op), zap.String("recipe_id", recipeID), zap.Error(err))
		if err := s.cache.Invalidate(ctx, recipeID); err != nil {
			s.log.Warn("thread cache invalidate failed", zap.String("recipe_id", recipeID), zap.Error(err))
		}
	case !cached:
		return
	case !applied:
		s.metrics.TreeMutation(op, metrics.OutcomeNoop)
		s.log.Warn("comment tree target missing, dropped cached thread",
			zap.String("op", op), zap.String("recipe_id", recipeID))
	default:
		s.metrics.TreeMutation(op, metrics.OutcomeApplied)
	}
	s.broadcast(recipeID)
}

func (s *Service) broadcast(recipeID string) {
	if s.bcast != nil {
		s.bcast.Broadcast(recipeID)
	}
}

func (s *Service) publish(subject, name, userID string, props map[string]any) {
	if s.events != nil {
		s.events.Publish(subject, name, userID, props)
	}
}

func cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if len([]rune(text)) > MaxTextLength {
		return "", ErrTextTooLong
	}
	return text, nil
}
