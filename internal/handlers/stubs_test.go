package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/example/recipebook/internal/commenttree"
	"github.com/example/recipebook/internal/discussion"
	"github.com/example/recipebook/internal/platform/auth"
	"github.com/example/recipebook/internal/upstream"
)

// ─── stubs ────────────────────────────────────────────────────────────────────

type stubAuth struct {
	AuthService
	resp       *upstream.AuthResponse
	profile    *upstream.Profile
	err        error
	loginReq   upstream.LoginRequest
	regReq     upstream.RegisterRequest
	idToken    string
	updateReq  upstream.UpdateProfileRequest
	changeReq  upstream.ChangePasswordRequest
	deletePass *string
}

func (s *stubAuth) Login(_ context.Context, req upstream.LoginRequest) (*upstream.AuthResponse, error) {
	s.loginReq = req
	return s.resp, s.err
}

func (s *stubAuth) Register(_ context.Context, req upstream.RegisterRequest) (*upstream.AuthResponse, error) {
	s.regReq = req
	return s.resp, s.err
}

func (s *stubAuth) FederatedLogin(_ context.Context, idToken string) (*upstream.AuthResponse, error) {
	s.idToken = idToken
	return s.resp, s.err
}

func (s *stubAuth) Profile(context.Context) (*upstream.Profile, error) {
	return s.profile, s.err
}

func (s *stubAuth) UpdateProfile(_ context.Context, req upstream.UpdateProfileRequest) (*upstream.Profile, error) {
	s.updateReq = req
	return s.profile, s.err
}

func (s *stubAuth) ChangePassword(_ context.Context, req upstream.ChangePasswordRequest) (*upstream.SuccessResponse, error) {
	s.changeReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &upstream.SuccessResponse{Message: "Password changed"}, nil
}

func (s *stubAuth) DeleteAccount(_ context.Context, password string) (*upstream.SuccessResponse, error) {
	s.deletePass = &password
	if s.err != nil {
		return nil, s.err
	}
	return &upstream.SuccessResponse{Message: "Account deleted"}, nil
}

type stubRecipes struct {
	RecipeService
	recipe    *upstream.Recipe
	list      []upstream.Recipe
	err       error
	listQuery upstream.RecipeQuery
	created   upstream.CreateRecipeRequest
	updated   *upstream.UpdateRecipeRequest
	deleted   string
	status    string
}

func (s *stubRecipes) List(_ context.Context, q upstream.RecipeQuery) ([]upstream.Recipe, error) {
	s.listQuery = q
	return s.list, s.err
}

func (s *stubRecipes) Get(context.Context, string) (*upstream.Recipe, error) {
	return s.recipe, s.err
}

func (s *stubRecipes) Create(_ context.Context, req upstream.CreateRecipeRequest) (*upstream.Recipe, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &upstream.Recipe{ID: "r-new", Title: req.Title, Category: req.Category, UserID: req.UserID, Status: upstream.StatusPending}, nil
}

func (s *stubRecipes) Update(_ context.Context, id string, req upstream.UpdateRecipeRequest) (*upstream.Recipe, error) {
	s.updated = &req
	return &upstream.Recipe{ID: id}, nil
}

func (s *stubRecipes) Delete(_ context.Context, id string) error {
	s.deleted = id
	return nil
}

func (s *stubRecipes) SetStatus(_ context.Context, id, status string) (*upstream.Recipe, error) {
	s.status = status
	return &upstream.Recipe{ID: id, Status: status}, nil
}

type stubDiscussion struct {
	thread  *discussion.Thread
	err     error
	posted  discussion.PostInput
	edited  []string
	removed []string
}

func (s *stubDiscussion) Thread(_ context.Context, recipeID string) (*discussion.Thread, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.thread != nil {
		return s.thread, nil
	}
	return &discussion.Thread{RecipeID: recipeID, Comments: commenttree.Forest{}}, nil
}

func (s *stubDiscussion) Post(_ context.Context, in discussion.PostInput) (*commenttree.Node, error) {
	s.posted = in
	if s.err != nil {
		return nil, s.err
	}
	n := &commenttree.Node{ID: "c-new", RecipeID: in.RecipeID, UserID: in.AuthorID, Text: in.Text}
	if in.ParentID != "" {
		p := in.ParentID
		n.ParentID = &p
	}
	return n, nil
}

func (s *stubDiscussion) Edit(_ context.Context, recipeID, commentID, authorID, text string) (*commenttree.Node, error) {
	s.edited = []string{recipeID, commentID, authorID, text}
	if s.err != nil {
		return nil, s.err
	}
	return &commenttree.Node{ID: commentID, RecipeID: recipeID, UserID: authorID, Text: text}, nil
}

func (s *stubDiscussion) Remove(_ context.Context, recipeID, commentID, authorID string) error {
	s.removed = []string{recipeID, commentID, authorID}
	return s.err
}

// stubRatings only records on Upsert and Delete; the read methods run concurrently in
// the details handler.
type stubRatings struct {
	ratings    []upstream.Rating
	byErr      error
	userRating *upstream.Rating
	userErr    error
	upserted   int
	deleted    string
}

func (s *stubRatings) Upsert(_ context.Context, recipeID, userID string, stars int) (*upstream.Rating, error) {
	s.upserted = stars
	return &upstream.Rating{ID: "rt-1", RecipeID: recipeID, UserID: userID, Stars: stars}, nil
}

func (s *stubRatings) ByRecipe(context.Context, string) ([]upstream.Rating, error) {
	return s.ratings, s.byErr
}

func (s *stubRatings) UserRating(context.Context, string, string) (*upstream.Rating, error) {
	return s.userRating, s.userErr
}

func (s *stubRatings) Delete(_ context.Context, ratingID, _ string) error {
	s.deleted = ratingID
	return nil
}

type stubFavorites struct {
	favs   []upstream.Favorite
	isFav  bool
	err    error
	called bool
}

func (s *stubFavorites) ByUser(context.Context, string) ([]upstream.Favorite, error) {
	return s.favs, s.err
}

func (s *stubFavorites) IsFavorite(context.Context, string, string) (bool, error) {
	return s.isFav, s.err
}

func (s *stubFavorites) Toggle(context.Context, string, string) (bool, error) {
	s.called = true
	if s.err != nil {
		return false, s.err
	}
	s.isFav = !s.isFav
	return s.isFav, nil
}

type publishedEvent struct {
	subject string
	name    string
	userID  string
	props   map[string]any
}

type stubEvents struct {
	events []publishedEvent
}

func (s *stubEvents) Publish(subject, eventName, userID string, props map[string]any) {
	s.events = append(s.events, publishedEvent{subject, eventName, userID, props})
}

// ─── helpers ──────────────────────────────────────────────────────────────────

// newReq builds a request with chi URL params set. body may be a string
// sent verbatim or a value encoded as JSON.
func newReq(method, target string, body any, params map[string]string) *http.Request {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, target, nil)
	case string:
		req = httptest.NewRequest(method, target, bytes.NewReader([]byte(b)))
	default:
		raw, _ := json.Marshal(b)
		req = httptest.NewRequest(method, target, bytes.NewReader(raw))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// asUser injects an authenticated user into the request context.
func asUser(req *http.Request, uid string) *http.Request {
	ctx := auth.WithUserID(req.Context(), uid)
	ctx = auth.WithToken(ctx, "token-"+uid)
	return req.WithContext(ctx)
}

func asAdmin(req *http.Request, uid string) *http.Request {
	req = asUser(req, uid)
	return req.WithContext(auth.WithRole(req.Context(), auth.RoleAdmin))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v (body %q)", err, rr.Body.String())
	}
	return m
}

// errorOf returns the code and details of an error envelope.
func errorOf(t *testing.T, rr *httptest.ResponseRecorder) (string, map[string]any) {
	t.Helper()
	m := decodeMap(t, rr)
	e, ok := m["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %v", m)
	}
	code, _ := e["code"].(string)
	details, _ := e["details"].(map[string]any)
	return code, details
}
