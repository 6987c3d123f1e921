package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/example/recipebook/internal/platform/analytics"
	"github.com/example/recipebook/internal/platform/api"
	"github.com/example/recipebook/internal/platform/httpserver"
	"github.com/example/recipebook/internal/upstream"
)

// AuthService is the auth/user backend as the handlers use it.
type AuthService interface {
	Login(ctx context.Context, req upstream.LoginRequest) (*upstream.AuthResponse, error)
	Register(ctx context.Context, req upstream.RegisterRequest) (*upstream.AuthResponse, error)
	FederatedLogin(ctx context.Context, idToken string) (*upstream.AuthResponse, error)
	Profile(ctx context.Context) (*upstream.Profile, error)
	UpdateProfile(ctx context.Context, req upstream.UpdateProfileRequest) (*upstream.Profile, error)
	ChangePassword(ctx context.Context, req upstream.ChangePasswordRequest) (*upstream.SuccessResponse, error)
	DeleteAccount(ctx context.Context, password string) (*upstream.SuccessResponse, error)
}

// Events receives analytics events; *analytics.Publisher satisfies it.
type Events interface {
	Publish(subject, eventName, userID string, props map[string]any)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=50"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6,max=128"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
}

type federatedRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

func Login(c AuthService, ev Events) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req loginRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if !validRequest(w, rid, &req) {
			return
		}

		resp, err := c.Login(r.Context(), upstream.LoginRequest{Email: req.Email, Password: req.Password})
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		ev.Publish(analytics.SubjectAuthLoggedIn, "user_logged_in", resp.ID, map[string]any{
			"method": "password",
		})
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

func Register(c AuthService, ev Events) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req registerRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		if !validRequest(w, rid, &req) {
			return
		}

		resp, err := c.Register(r.Context(), upstream.RegisterRequest{
			Username:       req.Username,
			Email:          req.Email,
			Password:       req.Password,
			ProfilePicture: req.ProfilePicture,
		})
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		ev.Publish(analytics.SubjectAuthRegistered, "user_registered", resp.ID, map[string]any{
			"username": resp.Username,
		})
		api.WriteJSON(w, http.StatusCreated, resp)
	}
}

// FederatedLogin exchanges an identity provider ID token for a session.
func FederatedLogin(c AuthService, ev Events) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req federatedRequest
		if !decodeValid(w, r, rid, &req) {
			return
		}

		resp, err := c.FederatedLogin(r.Context(), req.IDToken)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		ev.Publish(analytics.SubjectAuthLoggedIn, "user_logged_in", resp.ID, map[string]any{
			"method": "federated",
		})
		api.WriteJSON(w, http.StatusOK, resp)
	}
}
