package upstream

import (
	"context"
	"net/http"
	"net/url"
)

type FavoriteClient struct {
	c *Client
}

func NewFavoriteClient(c *Client) *FavoriteClient { return &FavoriteClient{c: c} }

func (fc *FavoriteClient) Add(ctx context.Context, userID, recipeID string) (*Favorite, error) {
	var out Favorite
	body := map[string]string{"userId": userID, "recipeId": recipeID}
	if err := fc.c.Do(ctx, "favorites.add", http.MethodPost, "/favorites", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (fc *FavoriteClient) Remove(ctx context.Context, userID, recipeID string) error {
	q := url.Values{"userId": {userID}, "recipeId": {recipeID}}
	return fc.c.Do(ctx, "favorites.remove", http.MethodDelete, "/favorites", q, nil, nil)
}

func (fc *FavoriteClient) IsFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	var out struct {
		IsFavorite bool `json:"isFavorite"`
	}
	q := url.Values{"userId": {userID}, "recipeId": {recipeID}}
	if err := fc.c.Do(ctx, "favorites.check", http.MethodGet, "/favorites/check", q, nil, &out); err != nil {
		return false, err
	}
	return out.IsFavorite, nil
}

func (fc *FavoriteClient) ByUser(ctx context.Context, userID string) ([]Favorite, error) {
	out := []Favorite{}
	q := url.Values{"userId": {userID}}
	if err := fc.c.Do(ctx, "favorites.by_user", http.MethodGet, "/favorites", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Toggle flips the favorite state and returns the new one.
func (fc *FavoriteClient) Toggle(ctx context.Context, userID, recipeID string) (bool, error) {
	fav, err := fc.IsFavorite(ctx, userID, recipeID)
	if err != nil {
		return false, err
	}
	if fav {
		if err := fc.Remove(ctx, userID, recipeID); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := fc.Add(ctx, userID, recipeID); err != nil {
		return false, err
	}
	return true, nil
}
