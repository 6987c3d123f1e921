package upstream

import (
	"context"
	"net/http"
)

// AuthClient talks to the auth and user-profile service.
type AuthClient struct {
	c *Client
}

func NewAuthClient(c *Client) *AuthClient { return &AuthClient{c: c} }

func (a *AuthClient) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.c.Do(ctx, "auth.login", http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthClient) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.c.Do(ctx, "auth.register", http.MethodPost, "/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FederatedLogin exchanges an identity-provider ID token for a session.
func (a *AuthClient) FederatedLogin(ctx context.Context, idToken string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"idToken": idToken}
	if err := a.c.Do(ctx, "auth.federated", http.MethodPost, "/auth/firebase", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the profile of the caller whose token is in ctx.
func (a *AuthClient) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := a.c.Do(ctx, "profile.get", http.MethodGet, "/profile/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthClient) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Profile, error) {
	var out Profile
	if err := a.c.Do(ctx, "profile.update", http.MethodPut, "/profile/me", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthClient) ChangePassword(ctx context.Context, req ChangePasswordRequest) (*SuccessResponse, error) {
	if req.NewPassword != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	var out SuccessResponse
	if err := a.c.Do(ctx, "profile.change_password", http.MethodPut, "/profile/change-password", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccount removes the caller's account. password is sent for
// re-authentication when not empty.
func (a *AuthClient) DeleteAccount(ctx context.Context, password string) (*SuccessResponse, error) {
	var body any
	if password != "" {
		body = map[string]string{"password": password}
	}
	var out SuccessResponse
	if err := a.c.Do(ctx, "profile.delete", http.MethodDelete, "/profile/me", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
