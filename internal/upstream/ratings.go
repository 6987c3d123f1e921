package upstream

import (
	"context"
	"net/http"
	"net/url"
)

type RatingClient struct {
	c *Client
}

func NewRatingClient(c *Client) *RatingClient { return &RatingClient{c: c} }

// Upsert creates the caller's rating or replaces the existing one.
func (rc *RatingClient) Upsert(ctx context.Context, recipeID, userID string, stars int) (*Rating, error) {
	var out Rating
	body := map[string]any{"recipeId": recipeID, "userId": userID, "stars": stars}
	if err := rc.c.Do(ctx, "ratings.upsert", http.MethodPost, "/ratings", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (rc *RatingClient) ByRecipe(ctx context.Context, recipeID string) ([]Rating, error) {
	out := []Rating{}
	q := url.Values{"recipeId": {recipeID}}
	if err := rc.c.Do(ctx, "ratings.by_recipe", http.MethodGet, "/ratings", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserRating returns nil without error when the user has not rated the
// recipe.
func (rc *RatingClient) UserRating(ctx context.Context, userID, recipeID string) (*Rating, error) {
	var out *Rating
	q := url.Values{"userId": {userID}, "recipeId": {recipeID}}
	if err := rc.c.Do(ctx, "ratings.user_rating", http.MethodGet, "/ratings/user-rating", q, nil, &out); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (rc *RatingClient) Delete(ctx context.Context, ratingID, userID string) error {
	q := url.Values{"userId": {userID}}
	return rc.c.Do(ctx, "ratings.delete", http.MethodDelete, pathf("/ratings/%s", ratingID), q, nil, nil)
}
