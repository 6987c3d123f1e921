package handlers

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/recipebook/internal/commenttree"
	"github.com/example/recipebook/internal/discussion"
	"github.com/example/recipebook/internal/platform/analytics"
	"github.com/example/recipebook/internal/platform/api"
	"github.com/example/recipebook/internal/platform/auth"
	"github.com/example/recipebook/internal/platform/httpserver"
	"github.com/example/recipebook/internal/upstream"
)

// RecipeDetails is everything the recipe page shows in one response.
type RecipeDetails struct {
	Recipe     *upstream.Recipe   `json:"recipe"`
	Thread     *discussion.Thread `json:"thread"`
	Ratings    RatingSummary      `json:"ratings"`
	UserRating *upstream.Rating   `json:"user_rating"`
	IsFavorite bool               `json:"is_favorite"`
}

type DetailsDeps struct {
	Recipes    RecipeService
	Discussion Discussion
	Ratings    RatingService
	Favorites  FavoriteService
	Events     Events
	Logger     *zap.Logger
}

// RecipeDetailsHandler handles GET /v1/recipes/{id}/details. Only the recipe
// itself is required; the thread, ratings and the caller's own rating and
// favorite flag fall back to empty values when their backend fails.
func RecipeDetailsHandler(d DetailsDeps) http.HandlerFunc {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		recipeID, ok := pathParam(w, r, rid, "id")
		if !ok {
			return
		}
		uid, _ := auth.UserIDFromContext(r.Context())

		out := RecipeDetails{
			Thread:  &discussion.Thread{RecipeID: recipeID, Comments: commenttree.Forest{}},
			Ratings: summarizeRatings(recipeID, nil),
		}
		degraded := func(part string, err error) {
			log.Warn("recipe details part unavailable",
				zap.String("part", part), zap.String("recipe_id", recipeID),
				zap.String("request_id", rid), zap.Error(err))
		}

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			recipe, err := d.Recipes.Get(ctx, recipeID)
			if err != nil {
				return err
			}
			out.Recipe = recipe
			return nil
		})
		g.Go(func() error {
			thread, err := d.Discussion.Thread(ctx, recipeID)
			if err != nil {
				degraded("thread", err)
				return nil
			}
			out.Thread = thread
			return nil
		})
		g.Go(func() error {
			ratings, err := d.Ratings.ByRecipe(ctx, recipeID)
			if err != nil {
				degraded("ratings", err)
				return nil
			}
			out.Ratings = summarizeRatings(recipeID, ratings)
			return nil
		})
		if uid != "" {
			g.Go(func() error {
				rating, err := d.Ratings.UserRating(ctx, uid, recipeID)
				if err != nil {
					degraded("user_rating", err)
					return nil
				}
				out.UserRating = rating
				return nil
			})
			g.Go(func() error {
				fav, err := d.Favorites.IsFavorite(ctx, uid, recipeID)
				if err != nil {
					degraded("favorite", err)
					return nil
				}
				out.IsFavorite = fav
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			writeUpstreamError(w, rid, err)
			return
		}

		if d.Events != nil {
			d.Events.Publish(analytics.SubjectRecipeViewed, "recipe_viewed", uid, map[string]any{
				"recipe_id": recipeID,
			})
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}
