package handlers

import (
	"net/http"
	"testing"

	"github.com/example/recipebook/internal/platform/analytics"
	"github.com/example/recipebook/internal/upstream"
)

func validRecipeBody() map[string]any {
	return map[string]any{
		"title":       "  Tomato soup ",
		"description": "Warm and simple",
		"ingredients": []string{"tomatoes", "salt"},
		"steps":       []string{"chop", "simmer"},
		"category":    "soup",
		"prepTime":    10,
		"cookTime":    25,
		"difficulty":  "easy",
	}
}

func TestListRecipes_AnonymousSeesApproved(t *testing.T) {
	stub := &stubRecipes{list: []upstream.Recipe{{ID: "r1"}}}
	rr := serve(ListRecipes(stub), newReq(http.MethodGet, "/v1/recipes?status=pending&category=soup", nil, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.listQuery.Status != upstream.StatusApproved || stub.listQuery.Category != "soup" {
		t.Fatalf("unexpected query %+v", stub.listQuery)
	}
	if m := decodeMap(t, rr); m["total"] != float64(1) {
		t.Fatalf("unexpected body %v", m)
	}
}

func TestListRecipes_OwnRecipesKeepStatus(t *testing.T) {
	stub := &stubRecipes{}
	req := asUser(newReq(http.MethodGet, "/v1/recipes?status=pending&userId=u1", nil, nil), "u1")
	rr := serve(ListRecipes(stub), req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.listQuery.Status != upstream.StatusPending || stub.listQuery.UserID != "u1" {
		t.Fatalf("unexpected query %+v", stub.listQuery)
	}
	// nil list is rendered as an empty array
	m := decodeMap(t, rr)
	if list, ok := m["recipes"].([]any); !ok || len(list) != 0 {
		t.Fatalf("expected empty recipes array, got %v", m["recipes"])
	}
}

func TestListRecipes_OthersRecipesForcedApproved(t *testing.T) {
	stub := &stubRecipes{}
	req := asUser(newReq(http.MethodGet, "/v1/recipes?status=rejected&userId=u2", nil, nil), "u1")
	serve(ListRecipes(stub), req)
	if stub.listQuery.Status != upstream.StatusApproved {
		t.Fatalf("expected approved, got %q", stub.listQuery.Status)
	}
}

func TestListRecipes_AdminKeepsStatus(t *testing.T) {
	stub := &stubRecipes{}
	serve(ListRecipes(stub), asAdmin(newReq(http.MethodGet, "/v1/recipes?status=rejected", nil, nil), "admin"))
	if stub.listQuery.Status != upstream.StatusRejected {
		t.Fatalf("expected rejected, got %q", stub.listQuery.Status)
	}
}

func TestGetRecipe_NotFound(t *testing.T) {
	stub := &stubRecipes{err: &upstream.StatusError{Upstream: "recipes", Status: 404, Message: "Recipe not found"}}
	rr := serve(GetRecipe(stub), newReq(http.MethodGet, "/", nil, map[string]string{"id": "r9"}))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGetRecipe_MissingID(t *testing.T) {
	rr := serve(GetRecipe(&stubRecipes{}), newReq(http.MethodGet, "/", nil, map[string]string{"id": "  "}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if code, _ := errorOf(t, rr); code != "MISSING_ID" {
		t.Fatalf("expected MISSING_ID, got %s", code)
	}
}

func TestCreateRecipe_OK(t *testing.T) {
	stub := &stubRecipes{}
	ev := &stubEvents{}
	req := asUser(newReq(http.MethodPost, "/v1/recipes", validRecipeBody(), nil), "u1")
	rr := serve(CreateRecipe(stub, ev), req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.created.UserID != "u1" || stub.created.Title != "Tomato soup" {
		t.Fatalf("unexpected create request %+v", stub.created)
	}
	if len(ev.events) != 1 || ev.events[0].subject != analytics.SubjectRecipeSubmitted {
		t.Fatalf("unexpected events %+v", ev.events)
	}
}

func TestCreateRecipe_Validation(t *testing.T) {
	body := validRecipeBody()
	body["category"] = "breakfast"
	body["difficulty"] = "extreme"
	body["prepTime"] = -5
	body["ingredients"] = []string{}
	body["steps"] = []string{"stir", ""}

	rr := serve(CreateRecipe(&stubRecipes{}, &stubEvents{}), asUser(newReq(http.MethodPost, "/", body, nil), "u1"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	_, details := errorOf(t, rr)
	for _, field := range []string{"category", "difficulty", "prepTime", "ingredients", "steps[1]"} {
		if _, ok := details[field]; !ok {
			t.Fatalf("expected detail for %s, got %v", field, details)
		}
	}
	if details["category"] != "category must be one of: main-course, dessert, appetizer, soup, salad" {
		t.Fatalf("unexpected category detail %v", details["category"])
	}
}

func TestCreateRecipe_RequiresUser(t *testing.T) {
	rr := serve(CreateRecipe(&stubRecipes{}, &stubEvents{}), newReq(http.MethodPost, "/", validRecipeBody(), nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestUpdateRecipe_Owner(t *testing.T) {
	stub := &stubRecipes{recipe: &upstream.Recipe{ID: "r1", UserID: "u1"}}
	req := asUser(newReq(http.MethodPut, "/", `{"title":"Better soup","cookTime":30}`, map[string]string{"id": "r1"}), "u1")
	rr := serve(UpdateRecipe(stub), req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.updated == nil || *stub.updated.Title != "Better soup" || *stub.updated.CookTime != 30 {
		t.Fatalf("unexpected update %+v", stub.updated)
	}
	if stub.updated.Difficulty != nil {
		t.Fatal("expected difficulty untouched")
	}
}

func TestUpdateRecipe_ImageURL(t *testing.T) {
	for _, tc := range []struct {
		body string
		code int
	}{
		{`{"imageUrl":""}`, http.StatusOK},
		{`{"imageUrl":"https://img.example.com/soup.jpg"}`, http.StatusOK},
		{`{"imageUrl":"nope"}`, http.StatusBadRequest},
	} {
		stub := &stubRecipes{recipe: &upstream.Recipe{ID: "r1", UserID: "u1"}}
		req := asUser(newReq(http.MethodPut, "/", tc.body, map[string]string{"id": "r1"}), "u1")
		if rr := serve(UpdateRecipe(stub), req); rr.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d: %s", tc.body, tc.code, rr.Code, rr.Body.String())
		}
	}
}

func TestUpdateRecipe_NotOwner(t *testing.T) {
	stub := &stubRecipes{recipe: &upstream.Recipe{ID: "r1", UserID: "someone-else"}}
	req := asUser(newReq(http.MethodPut, "/", `{"title":"Mine now"}`, map[string]string{"id": "r1"}), "u1")
	rr := serve(UpdateRecipe(stub), req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if stub.updated != nil {
		t.Fatal("expected no update call")
	}
}

func TestUpdateRecipe_InvalidCategory(t *testing.T) {
	stub := &stubRecipes{recipe: &upstream.Recipe{ID: "r1", UserID: "u1"}}
	req := asUser(newReq(http.MethodPut, "/", `{"category":"brunch"}`, map[string]string{"id": "r1"}), "u1")
	if rr := serve(UpdateRecipe(stub), req); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestDeleteRecipe_AdminBypassesOwnership(t *testing.T) {
	stub := &stubRecipes{recipe: &upstream.Recipe{ID: "r1", UserID: "someone-else"}}
	req := asAdmin(newReq(http.MethodDelete, "/", nil, map[string]string{"id": "r1"}), "admin")
	rr := serve(DeleteRecipe(stub), req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if stub.deleted != "r1" {
		t.Fatalf("expected r1 deleted, got %q", stub.deleted)
	}
}

func TestModerationQueue(t *testing.T) {
	stub := &stubRecipes{}
	rr := serve(ModerationQueue(stub), asAdmin(newReq(http.MethodGet, "/v1/admin/recipes", nil, nil), "admin"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.listQuery.Status != upstream.StatusPending {
		t.Fatalf("expected pending by default, got %q", stub.listQuery.Status)
	}

	rr = serve(ModerationQueue(stub), asAdmin(newReq(http.MethodGet, "/v1/admin/recipes?status=draft", nil, nil), "admin"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rr.Code)
	}
}

func TestModerate(t *testing.T) {
	stub := &stubRecipes{}
	rr := serve(Moderate(stub, upstream.StatusApproved), asAdmin(newReq(http.MethodPost, "/", nil, map[string]string{"id": "r1"}), "admin"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.status != upstream.StatusApproved {
		t.Fatalf("expected approved, got %q", stub.status)
	}
}
