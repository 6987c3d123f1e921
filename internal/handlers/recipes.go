package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/example/recipebook/internal/platform/analytics"
	"github.com/example/recipebook/internal/platform/api"
	"github.com/example/recipebook/internal/platform/auth"
	"github.com/example/recipebook/internal/platform/httpserver"
	"github.com/example/recipebook/internal/upstream"
)

type RecipeService interface {
	List(ctx context.Context, q upstream.RecipeQuery) ([]upstream.Recipe, error)
	Get(ctx context.Context, id string) (*upstream.Recipe, error)
	Create(ctx context.Context, req upstream.CreateRecipeRequest) (*upstream.Recipe, error)
	Update(ctx context.Context, id string, req upstream.UpdateRecipeRequest) (*upstream.Recipe, error)
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id, status string) (*upstream.Recipe, error)
}

type createRecipeRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=2000"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url"`
	Ingredients []string `json:"ingredients" validate:"required,min=1,dive,required"`
	Steps       []string `json:"steps" validate:"required,min=1,dive,required"`
	Category    string   `json:"category" validate:"required,oneof=main-course dessert appetizer soup salad"`
	PrepTime    int      `json:"prepTime" validate:"gte=0"`
	CookTime    int      `json:"cookTime" validate:"gte=0"`
	Difficulty  string   `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

type updateRecipeRequest struct {
	Title       *string  `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string  `json:"description" validate:"omitnil,min=1,max=2000"`
	ImageURL    *string  `json:"imageUrl" validate:"omitnil,eq=|url"`
	Ingredients []string `json:"ingredients" validate:"omitempty,min=1,dive,required"`
	Steps       []string `json:"steps" validate:"omitempty,min=1,dive,required"`
	Category    *string  `json:"category" validate:"omitnil,oneof=main-course dessert appetizer soup salad"`
	PrepTime    *int     `json:"prepTime" validate:"omitnil,gte=0"`
	CookTime    *int     `json:"cookTime" validate:"omitnil,gte=0"`
	Difficulty  *string  `json:"difficulty" validate:"omitnil,oneof=easy medium hard"`
}

// ListRecipes handles GET /v1/recipes. Anonymous callers and regular
// users only see approved recipes unless they list their own.
func ListRecipes(c RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		q := upstream.RecipeQuery{
			Status:   strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))),
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			UserID:   strings.TrimSpace(r.URL.Query().Get("userId")),
		}
		uid, _ := auth.UserIDFromContext(r.Context())
		role, _ := auth.RoleFromContext(r.Context())
		if !auth.IsAdmin(role) && (q.UserID == "" || q.UserID != uid) {
			q.Status = upstream.StatusApproved
		}

		recipes, err := c.List(r.Context(), q)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		if recipes == nil {
			recipes = []upstream.Recipe{}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"recipes": recipes, "total": len(recipes)})
	}
}

func GetRecipe(c RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathParam(w, r, rid, "id")
		if !ok {
			return
		}

		recipe, err := c.Get(r.Context(), id)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, recipe)
	}
}

// CreateRecipe submits a recipe owned by the caller. New recipes wait for
// moderation.
func CreateRecipe(c RecipeService, ev Events) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := currentUser(w, r, rid)
		if !ok {
			return
		}

		var req createRecipeRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		req.Title = strings.TrimSpace(req.Title)
		req.Description = strings.TrimSpace(req.Description)
		if !validRequest(w, rid, &req) {
			return
		}

		recipe, err := c.Create(r.Context(), upstream.CreateRecipeRequest{
			Title:       req.Title,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Ingredients: req.Ingredients,
			Steps:       req.Steps,
			Category:    req.Category,
			PrepTime:    req.PrepTime,
			CookTime:    req.CookTime,
			Difficulty:  req.Difficulty,
			UserID:      uid,
		})
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		ev.Publish(analytics.SubjectRecipeSubmitted, "recipe_submitted", uid, map[string]any{
			"recipe_id": recipe.ID,
			"category":  recipe.Category,
		})
		api.WriteJSON(w, http.StatusCreated, recipe)
	}
}

func UpdateRecipe(c RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathParam(w, r, rid, "id")
		if !ok {
			return
		}
		if !canModify(w, r, rid, c, id) {
			return
		}

		var req updateRecipeRequest
		if !decodeValid(w, r, rid, &req) {
			return
		}

		recipe, err := c.Update(r.Context(), id, upstream.UpdateRecipeRequest{
			Title:       req.Title,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Ingredients: req.Ingredients,
			Steps:       req.Steps,
			Category:    req.Category,
			PrepTime:    req.PrepTime,
			CookTime:    req.CookTime,
			Difficulty:  req.Difficulty,
		})
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, recipe)
	}
}

func DeleteRecipe(c RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathParam(w, r, rid, "id")
		if !ok {
			return
		}
		if !canModify(w, r, rid, c, id) {
			return
		}

		if err := c.Delete(r.Context(), id); err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}

// canModify lets the author or an admin change a recipe.
func canModify(w http.ResponseWriter, r *http.Request, rid string, c RecipeService, id string) bool {
	uid, ok := currentUser(w, r, rid)
	if !ok {
		return false
	}
	if role, _ := auth.RoleFromContext(r.Context()); auth.IsAdmin(role) {
		return true
	}
	recipe, err := c.Get(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, rid, err)
		return false
	}
	if recipe.UserID != uid {
		api.Forbidden(w, "NOT_OWNER", "Only the author can change this recipe", rid)
		return false
	}
	return true
}

// ModerationQueue handles GET /v1/admin/recipes. Status defaults to pending.
func ModerationQueue(c RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
		switch status {
		case "":
			status = upstream.StatusPending
		case upstream.StatusPending, upstream.StatusApproved, upstream.StatusRejected:
		default:
			api.BadRequest(w, "INVALID_STATUS", "status must be one of: pending, approved, rejected", rid, nil)
			return
		}

		recipes, err := c.List(r.Context(), upstream.RecipeQuery{Status: status})
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		if recipes == nil {
			recipes = []upstream.Recipe{}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"recipes": recipes, "total": len(recipes)})
	}
}

// Moderate sets the moderation status of a recipe.
func Moderate(c RecipeService, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathParam(w, r, rid, "id")
		if !ok {
			return
		}

		recipe, err := c.SetStatus(r.Context(), id, status)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, recipe)
	}
}
