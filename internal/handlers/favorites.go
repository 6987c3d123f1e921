package handlers

import (
	"context"
	"net/http"

	"github.com/example/recipebook/internal/platform/analytics"
	"github.com/example/recipebook/internal/platform/api"
	"github.com/example/recipebook/internal/platform/httpserver"
	"github.com/example/recipebook/internal/upstream"
)

type FavoriteService interface {
	ByUser(ctx context.Context, userID string) ([]upstream.Favorite, error)
	IsFavorite(ctx context.Context, userID, recipeID string) (bool, error)
	Toggle(ctx context.Context, userID, recipeID string) (bool, error)
}

// ListFavorites handles GET /v1/favorites for the caller.
func ListFavorites(c FavoriteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}

		favs, err := c.ByUser(r.Context(), uid)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		if favs == nil {
			favs = []upstream.Favorite{}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"favorites": favs, "total": len(favs)})
	}
}

func ToggleFavorite(c FavoriteService, ev Events) http.HandlerFunc {
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

		fav, err := c.Toggle(r.Context(), uid, recipeID)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		ev.Publish(analytics.SubjectFavoriteToggled, "favorite_toggled", uid, map[string]any{
			"recipe_id":   recipeID,
			"is_favorite": fav,
		})
		api.WriteJSON(w, http.StatusOK, map[string]any{"recipe_id": recipeID, "isFavorite": fav})
	}
}
