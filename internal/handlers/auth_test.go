package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/example/recipebook/internal/platform/analytics"
	"github.com/example/recipebook/internal/upstream"
)

func TestLogin_OK(t *testing.T) {
	stub := &stubAuth{resp: &upstream.AuthResponse{Token: "jwt", ID: "u1", Role: "USER"}}
	ev := &stubEvents{}

	req := newReq(http.MethodPost, "/v1/auth/login", map[string]string{"email": "  cook@example.com ", "password": "secret"}, nil)
	rr := serve(Login(stub, ev), req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.loginReq.Email != "cook@example.com" {
		t.Fatalf("expected trimmed email, got %q", stub.loginReq.Email)
	}
	if m := decodeMap(t, rr); m["token"] != "jwt" {
		t.Fatalf("expected token in response, got %v", m)
	}
	if len(ev.events) != 1 || ev.events[0].subject != analytics.SubjectAuthLoggedIn || ev.events[0].userID != "u1" {
		t.Fatalf("unexpected events %+v", ev.events)
	}
}

func TestLogin_Validation(t *testing.T) {
	stub := &stubAuth{}
	req := newReq(http.MethodPost, "/v1/auth/login", map[string]string{"email": "not-an-email"}, nil)
	rr := serve(Login(stub, &stubEvents{}), req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	code, details := errorOf(t, rr)
	if code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", code)
	}
	if details["email"] != "email must be a valid email" {
		t.Fatalf("unexpected email detail %v", details["email"])
	}
	if details["password"] != "password is required" {
		t.Fatalf("unexpected password detail %v", details["password"])
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	rr := serve(Login(&stubAuth{}, &stubEvents{}), newReq(http.MethodPost, "/", "{", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if code, _ := errorOf(t, rr); code != "INVALID_JSON" {
		t.Fatalf("expected INVALID_JSON, got %s", code)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	stub := &stubAuth{err: &upstream.StatusError{Upstream: "auth", Status: 401, Message: "Invalid credentials"}}
	ev := &stubEvents{}
	req := newReq(http.MethodPost, "/", map[string]string{"email": "a@b.co", "password": "x"}, nil)
	rr := serve(Login(stub, ev), req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if len(ev.events) != 0 {
		t.Fatalf("expected no event on failure, got %+v", ev.events)
	}
}

func TestRegister_Created(t *testing.T) {
	stub := &stubAuth{resp: &upstream.AuthResponse{Token: "jwt", ID: "u2", Username: "chef"}}
	ev := &stubEvents{}
	req := newReq(http.MethodPost, "/v1/auth/register", map[string]string{
		"username": " chef ", "email": "chef@example.com", "password": "hunter22",
	}, nil)
	rr := serve(Register(stub, ev), req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.regReq.Username != "chef" {
		t.Fatalf("expected trimmed username, got %q", stub.regReq.Username)
	}
	if len(ev.events) != 1 || ev.events[0].subject != analytics.SubjectAuthRegistered {
		t.Fatalf("unexpected events %+v", ev.events)
	}
}

func TestRegister_Validation(t *testing.T) {
	req := newReq(http.MethodPost, "/", map[string]string{
		"username": "ab", "email": "chef@example.com", "password": "123", "profilePicture": "nope",
	}, nil)
	rr := serve(Register(&stubAuth{}, &stubEvents{}), req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	_, details := errorOf(t, rr)
	for _, field := range []string{"username", "password", "profilePicture"} {
		if _, ok := details[field]; !ok {
			t.Fatalf("expected detail for %s, got %v", field, details)
		}
	}
	if !strings.Contains(details["username"].(string), "at least 3 characters") {
		t.Fatalf("unexpected username detail %v", details["username"])
	}
}

func TestFederatedLogin(t *testing.T) {
	stub := &stubAuth{resp: &upstream.AuthResponse{Token: "jwt", ID: "u3"}}
	ev := &stubEvents{}
	rr := serve(FederatedLogin(stub, ev), newReq(http.MethodPost, "/", map[string]string{"idToken": "provider-token"}, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.idToken != "provider-token" {
		t.Fatalf("expected id token forwarded, got %q", stub.idToken)
	}
	if len(ev.events) != 1 || ev.events[0].props["method"] != "federated" {
		t.Fatalf("unexpected events %+v", ev.events)
	}

	rr = serve(FederatedLogin(stub, ev), newReq(http.MethodPost, "/", map[string]string{}, nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idToken, got %d", rr.Code)
	}
}

func TestProfile_RequiresUser(t *testing.T) {
	rr := serve(Profile(&stubAuth{}), newReq(http.MethodGet, "/v1/profile/me", nil, nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestProfile_OK(t *testing.T) {
	stub := &stubAuth{profile: &upstream.Profile{ID: "u1", Username: "chef"}}
	rr := serve(Profile(stub), asUser(newReq(http.MethodGet, "/", nil, nil), "u1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if m := decodeMap(t, rr); m["username"] != "chef" {
		t.Fatalf("unexpected body %v", m)
	}
}

func TestUpdateProfile_PartialFields(t *testing.T) {
	stub := &stubAuth{profile: &upstream.Profile{ID: "u1"}}
	req := asUser(newReq(http.MethodPut, "/", `{"bio":"I bake","website":""}`, nil), "u1")
	rr := serve(UpdateProfile(stub), req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.updateReq.Bio == nil || *stub.updateReq.Bio != "I bake" {
		t.Fatalf("expected bio forwarded, got %+v", stub.updateReq)
	}
	if stub.updateReq.Username != nil {
		t.Fatal("expected username left unset")
	}
}

func TestUpdateProfile_ClearsLinks(t *testing.T) {
	stub := &stubAuth{profile: &upstream.Profile{ID: "u1"}}
	req := asUser(newReq(http.MethodPut, "/", `{"website":"","profilePicture":""}`, nil), "u1")
	rr := serve(UpdateProfile(stub), req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.updateReq.Website == nil || *stub.updateReq.Website != "" {
		t.Fatalf("expected empty website forwarded, got %+v", stub.updateReq.Website)
	}
	if stub.updateReq.ProfilePicture == nil || *stub.updateReq.ProfilePicture != "" {
		t.Fatalf("expected empty picture forwarded, got %+v", stub.updateReq.ProfilePicture)
	}
}

func TestUpdateProfile_ValidLink(t *testing.T) {
	stub := &stubAuth{profile: &upstream.Profile{ID: "u1"}}
	req := asUser(newReq(http.MethodPut, "/", `{"website":"https://bake.example.com"}`, nil), "u1")
	if rr := serve(UpdateProfile(stub), req); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUpdateProfile_Validation(t *testing.T) {
	req := asUser(newReq(http.MethodPut, "/", `{"username":"x","website":"not a url"}`, nil), "u1")
	rr := serve(UpdateProfile(&stubAuth{}), req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	_, details := errorOf(t, rr)
	if details["username"] == nil || details["website"] != "website must be a valid URL or empty" {
		t.Fatalf("expected username and website details, got %v", details)
	}
}

func TestChangePassword_Mismatch(t *testing.T) {
	stub := &stubAuth{err: upstream.ErrPasswordMismatch}
	req := asUser(newReq(http.MethodPut, "/", map[string]string{
		"currentPassword": "old", "newPassword": "newpass1", "confirmPassword": "newpass2",
	}, nil), "u1")
	rr := serve(ChangePassword(stub), req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if code, _ := errorOf(t, rr); code != "PASSWORD_MISMATCH" {
		t.Fatalf("expected PASSWORD_MISMATCH, got %s", code)
	}
}

func TestChangePassword_OK(t *testing.T) {
	stub := &stubAuth{}
	req := asUser(newReq(http.MethodPut, "/", map[string]string{
		"currentPassword": "old", "newPassword": "newpass1", "confirmPassword": "newpass1",
	}, nil), "u1")
	rr := serve(ChangePassword(stub), req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.changeReq.CurrentPassword != "old" || stub.changeReq.NewPassword != "newpass1" {
		t.Fatalf("unexpected forwarded request %+v", stub.changeReq)
	}
}

func TestDeleteAccount(t *testing.T) {
	stub := &stubAuth{}
	rr := serve(DeleteAccount(stub), asUser(newReq(http.MethodDelete, "/", nil, nil), "u1"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if stub.deletePass == nil || *stub.deletePass != "" {
		t.Fatalf("expected empty password without body, got %v", stub.deletePass)
	}

	stub = &stubAuth{}
	rr = serve(DeleteAccount(stub), asUser(newReq(http.MethodDelete, "/", map[string]string{"password": "pw"}, nil), "u1"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if *stub.deletePass != "pw" {
		t.Fatalf("expected password forwarded, got %q", *stub.deletePass)
	}
}
