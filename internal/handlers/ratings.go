package handlers

import (
	"context"
	"math"
	"net/http"

	"github.com/example/recipebook/internal/platform/analytics"
	"github.com/example/recipebook/internal/platform/api"
	"github.com/example/recipebook/internal/platform/httpserver"
	"github.com/example/recipebook/internal/upstream"
)

type RatingService interface {
	Upsert(ctx context.Context, recipeID, userID string, stars int) (*upstream.Rating, error)
	ByRecipe(ctx context.Context, recipeID string) ([]upstream.Rating, error)
	UserRating(ctx context.Context, userID, recipeID string) (*upstream.Rating, error)
	Delete(ctx context.Context, ratingID, userID string) error
}

type rateRequest struct {
	Stars int `json:"stars" validate:"required,min=1,max=5"`
}

// StarCount is one row of a rating distribution.
type StarCount struct {
	Stars   int `json:"stars"`
	Count   int `json:"count"`
	Percent int `json:"percent"`
}

// RatingSummary aggregates the ratings of one recipe. Distribution lists
// five stars first.
type RatingSummary struct {
	RecipeID     string      `json:"recipe_id"`
	Average      float64     `json:"average"`
	Total        int         `json:"total"`
	Distribution []StarCount `json:"distribution"`
}

// summarizeRatings counts ratings per star. Ratings outside 1..5 are
// ignored and do not count towards the total.
func summarizeRatings(recipeID string, ratings []upstream.Rating) RatingSummary {
	var counts [6]int
	total, sum := 0, 0
	for _, rt := range ratings {
		if rt.Stars < 1 || rt.Stars > 5 {
			continue
		}
		counts[rt.Stars]++
		total++
		sum += rt.Stars
	}

	s := RatingSummary{RecipeID: recipeID, Total: total, Distribution: make([]StarCount, 0, 5)}
	if total > 0 {
		s.Average = math.Round(float64(sum)/float64(total)*10) / 10
	}
	for stars := 5; stars >= 1; stars-- {
		sc := StarCount{Stars: stars, Count: counts[stars]}
		if total > 0 {
			sc.Percent = int(math.Round(float64(counts[stars]) / float64(total) * 100))
		}
		s.Distribution = append(s.Distribution, sc)
	}
	return s
}

// RatingDistribution handles GET /v1/recipes/{id}/ratings.
func RatingDistribution(c RatingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		recipeID, ok := pathParam(w, r, rid, "id")
		if !ok {
			return
		}

		ratings, err := c.ByRecipe(r.Context(), recipeID)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, summarizeRatings(recipeID, ratings))
	}
}

// RateRecipe creates or replaces the caller's rating.
func RateRecipe(c RatingService, ev Events) http.HandlerFunc {
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

		var req rateRequest
		if !decodeValid(w, r, rid, &req) {
			return
		}

		rating, err := c.Upsert(r.Context(), recipeID, uid, req.Stars)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		ev.Publish(analytics.SubjectRecipeRated, "recipe_rated", uid, map[string]any{
			"recipe_id": recipeID,
			"stars":     req.Stars,
		})
		api.WriteJSON(w, http.StatusOK, rating)
	}
}

// ClearRating handles DELETE /v1/recipes/{id}/rating. Clearing a rating
// that does not exist succeeds.
func ClearRating(c RatingService, ev Events) http.HandlerFunc {
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

		rating, err := c.UserRating(r.Context(), uid, recipeID)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		if rating == nil {
			api.NoContent(w)
			return
		}
		if err := c.Delete(r.Context(), rating.ID, uid); err != nil && !upstream.IsNotFound(err) {
			writeUpstreamError(w, rid, err)
			return
		}
		ev.Publish(analytics.SubjectRecipeRated, "recipe_rating_cleared", uid, map[string]any{
			"recipe_id": recipeID,
			"stars":     0,
		})
		api.NoContent(w)
	}
}
