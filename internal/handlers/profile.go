package handlers

import (
	"net/http"

	"github.com/example/recipebook/internal/platform/api"
	"github.com/example/recipebook/internal/platform/httpserver"
	"github.com/example/recipebook/internal/upstream"
)

type updateProfileRequest struct {
	Username       *string `json:"username" validate:"omitnil,min=3,max=50"`
	Bio            *string `json:"bio" validate:"omitnil,max=500"`
	FullName       *string `json:"fullName" validate:"omitnil,max=100"`
	PhoneNumber    *string `json:"phoneNumber" validate:"omitnil,max=30"`
	Location       *string `json:"location" validate:"omitnil,max=100"`
	Website        *string `json:"website" validate:"omitnil,eq=|url"`
	ProfilePicture *string `json:"profilePicture" validate:"omitnil,eq=|url"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// Profile handles GET /v1/profile/me.
func Profile(c AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		if _, ok := currentUser(w, r, rid); !ok {
			return
		}

		p, err := c.Profile(r.Context())
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, p)
	}
}

func UpdateProfile(c AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		if _, ok := currentUser(w, r, rid); !ok {
			return
		}

		var req updateProfileRequest
		if !decodeValid(w, r, rid, &req) {
			return
		}

		p, err := c.UpdateProfile(r.Context(), upstream.UpdateProfileRequest{
			Username:       req.Username,
			Bio:            req.Bio,
			FullName:       req.FullName,
			PhoneNumber:    req.PhoneNumber,
			Location:       req.Location,
			Website:        req.Website,
			ProfilePicture: req.ProfilePicture,
		})
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, p)
	}
}

func ChangePassword(c AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		if _, ok := currentUser(w, r, rid); !ok {
			return
		}

		var req changePasswordRequest
		if !decodeValid(w, r, rid, &req) {
			return
		}

		resp, err := c.ChangePassword(r.Context(), upstream.ChangePasswordRequest{
			CurrentPassword: req.CurrentPassword,
			NewPassword:     req.NewPassword,
			ConfirmPassword: req.ConfirmPassword,
		})
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// DeleteAccount handles DELETE /v1/profile/me. The body, which may carry
// the current password, is optional.
func DeleteAccount(c AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		if _, ok := currentUser(w, r, rid); !ok {
			return
		}

		var req deleteAccountRequest
		if r.ContentLength > 0 && !decodeJSON(w, r, rid, &req) {
			return
		}

		if _, err := c.DeleteAccount(r.Context(), req.Password); err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}
