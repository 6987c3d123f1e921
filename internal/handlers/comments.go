package handlers

import (
	"context"
	"net/http"

	"github.com/example/recipebook/internal/commenttree"
	"github.com/example/recipebook/internal/discussion"
	"github.com/example/recipebook/internal/platform/api"
	"github.com/example/recipebook/internal/platform/httpserver"
)

// Discussion is the comment thread service behind the comment routes.
type Discussion interface {
	Thread(ctx context.Context, recipeID string) (*discussion.Thread, error)
	Post(ctx context.Context, in discussion.PostInput) (*commenttree.Node, error)
	Edit(ctx context.Context, recipeID, commentID, authorID, text string) (*commenttree.Node, error)
	Remove(ctx context.Context, recipeID, commentID, authorID string) error
}

type postCommentRequest struct {
	Text            string  `json:"text" validate:"required"`
	ParentCommentID *string `json:"parentCommentId" validate:"omitnil,min=1"`
}

type editCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

func ListComments(d Discussion) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		recipeID, ok := pathParam(w, r, rid, "id")
		if !ok {
			return
		}

		thread, err := d.Thread(r.Context(), recipeID)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, thread)
	}
}

// PostComment adds a top-level comment, or a reply when parentCommentId
// is set.
func PostComment(d Discussion) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}
		recipeID, ok := pathParam(w, r, rid, "id")
		if !ok {
			return
		}

		var req postCommentRequest
		if !decodeValid(w, r, rid, &req) {
			return
		}

		in := discussion.PostInput{RecipeID: recipeID, AuthorID: uid, Text: req.Text}
		if req.ParentCommentID != nil {
			in.ParentID = *req.ParentCommentID
		}
		node, err := d.Post(r.Context(), in)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, node)
	}
}

func EditComment(d Discussion) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}
		recipeID, ok := pathParam(w, r, rid, "id")
		if !ok {
			return
		}
		commentID, ok := pathParam(w, r, rid, "comment_id")
		if !ok {
			return
		}

		var req editCommentRequest
		if !decodeValid(w, r, rid, &req) {
			return
		}

		node, err := d.Edit(r.Context(), recipeID, commentID, uid, req.Text)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, node)
	}
}

func DeleteComment(d Discussion) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}
		recipeID, ok := pathParam(w, r, rid, "id")
		if !ok {
			return
		}
		commentID, ok := pathParam(w, r, rid, "comment_id")
		if !ok {
			return
		}

		if err := d.Remove(r.Context(), recipeID, commentID, uid); err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}
