package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/recipebook/internal/platform/auth"
	"github.com/example/recipebook/internal/ratelimit"
	"github.com/example/recipebook/internal/upstream"
)

type Deps struct {
	Verifier   auth.JWTVerifier
	Auth       AuthService
	Recipes    RecipeService
	Discussion Discussion
	Ratings    RatingService
	Favorites  FavoriteService
	Events     Events
	// Limiter throttles writes; nil disables it.
	Limiter *ratelimit.Limiter
	Logger  *zap.Logger
}

type noEvents struct{}

func (noEvents) Publish(string, string, string, map[string]any) {}

// Routes mounts the /v1 API on r.
func Routes(r chi.Router, d Deps) {
	if d.Events == nil {
		d.Events = noEvents{}
	}
	limit := func(next http.Handler) http.Handler { return next }
	if d.Limiter != nil {
		limit = d.Limiter.Middleware
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/auth/login", Login(d.Auth, d.Events))
			r.Post("/auth/register", Register(d.Auth, d.Events))
			r.Post("/auth/federated", FederatedLogin(d.Auth, d.Events))
		})

		// Reads are public; a valid token only personalizes them.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalUser(d.Verifier))
			r.Get("/recipes", ListRecipes(d.Recipes))
			r.Get("/recipes/{id}", GetRecipe(d.Recipes))
			r.Get("/recipes/{id}/details", RecipeDetailsHandler(DetailsDeps{
				Recipes:    d.Recipes,
				Discussion: d.Discussion,
				Ratings:    d.Ratings,
				Favorites:  d.Favorites,
				Events:     d.Events,
				Logger:     d.Logger,
			}))
			r.Get("/recipes/{id}/comments", ListComments(d.Discussion))
			r.Get("/recipes/{id}/ratings", RatingDistribution(d.Ratings))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(d.Verifier))
			r.Get("/profile/me", Profile(d.Auth))
			r.Get("/favorites", ListFavorites(d.Favorites))

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Put("/profile/me", UpdateProfile(d.Auth))
				r.Delete("/profile/me", DeleteAccount(d.Auth))
				r.Put("/profile/password", ChangePassword(d.Auth))

				r.Post("/recipes", CreateRecipe(d.Recipes, d.Events))
				r.Put("/recipes/{id}", UpdateRecipe(d.Recipes))
				r.Delete("/recipes/{id}", DeleteRecipe(d.Recipes))

				r.Post("/recipes/{id}/comments", PostComment(d.Discussion))
				r.Put("/recipes/{id}/comments/{comment_id}", EditComment(d.Discussion))
				r.Delete("/recipes/{id}/comments/{comment_id}", DeleteComment(d.Discussion))

				r.Put("/recipes/{id}/rating", RateRecipe(d.Ratings, d.Events))
				r.Delete("/recipes/{id}/rating", ClearRating(d.Ratings, d.Events))
				r.Post("/recipes/{id}/favorite/toggle", ToggleFavorite(d.Favorites, d.Events))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/recipes", ModerationQueue(d.Recipes))
				r.Post("/recipes/{id}/approve", Moderate(d.Recipes, upstream.StatusApproved))
				r.Post("/recipes/{id}/reject", Moderate(d.Recipes, upstream.StatusRejected))
			})
		})
	})
}
