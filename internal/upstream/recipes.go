package upstream

import (
	"context"
	"net/http"
	"net/url"
)

// RecipeClient covers the recipe resources of the recipe service.
type RecipeClient struct {
	c *Client
}

func NewRecipeClient(c *Client) *RecipeClient { return &RecipeClient{c: c} }

func (r *RecipeClient) List(ctx context.Context, q RecipeQuery) ([]Recipe, error) {
	params := url.Values{}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.UserID != "" {
		params.Set("userId", q.UserID)
	}
	out := []Recipe{}
	if err := r.c.Do(ctx, "recipes.list", http.MethodGet, "/recipes", params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RecipeClient) Get(ctx context.Context, id string) (*Recipe, error) {
	var out Recipe
	if err := r.c.Do(ctx, "recipes.get", http.MethodGet, pathf("/recipes/%s", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RecipeClient) Create(ctx context.Context, req CreateRecipeRequest) (*Recipe, error) {
	var out Recipe
	if err := r.c.Do(ctx, "recipes.create", http.MethodPost, "/recipes", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RecipeClient) Update(ctx context.Context, id string, req UpdateRecipeRequest) (*Recipe, error) {
	var out Recipe
	if err := r.c.Do(ctx, "recipes.update", http.MethodPut, pathf("/recipes/%s", id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RecipeClient) Delete(ctx context.Context, id string) error {
	return r.c.Do(ctx, "recipes.delete", http.MethodDelete, pathf("/recipes/%s", id), nil, nil, nil)
}

// SetStatus moves a recipe through moderation.
func (r *RecipeClient) SetStatus(ctx context.Context, id, status string) (*Recipe, error) {
	return r.Update(ctx, id, UpdateRecipeRequest{Status: &status})
}
