package handler_test

import (
	"net/http"
	"testing"

	"github.com/tbnobed/obview/internal/model"
)

type authResp struct {
	User   model.User `json:"user"`
	Access struct {
		Token string `json:"token"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

func register(t *testing.T, e *env, username string) authResp {
	t.Helper()
	rec := e.call(e.auth.Register, jsonReq(http.MethodPost, map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"name":     username,
		"password": "correct-horse",
	}), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%s)", username, rec.Code, rec.Body.String())
	}
	var resp authResp
	decodeJSON(t, rec, &resp)
	return resp
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	e := newEnv(t)

	first := register(t, e, "alice")
	if first.User.Role != "admin" {
		t.Fatalf("expected first account admin, got %q", first.User.Role)
	}
	second := register(t, e, "bob")
	if second.User.Role != "editor" {
		t.Fatalf("expected later accounts editor, got %q", second.User.Role)
	}
	if first.Access.Token == "" || first.Refresh.Token == "" {
		t.Fatal("expected a token pair on registration")
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name string
		body map[string]any
	}{
		{"short password", map[string]any{"username": "alice", "email": "alice@example.com", "password": "short"}},
		{"bad email", map[string]any{"username": "alice", "email": "nope", "password": "correct-horse"}},
		{"missing username", map[string]any{"email": "alice@example.com", "password": "correct-horse"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.call(e.auth.Register, jsonReq(http.MethodPost, tc.body), nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	e := newEnv(t)
	register(t, e, "alice")

	rec := e.call(e.auth.Register, jsonReq(http.MethodPost, map[string]any{
		"username": "ALICE", "email": "other@example.com", "password": "correct-horse",
	}), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", rec.Code)
	}
	rec = e.call(e.auth.Register, jsonReq(http.MethodPost, map[string]any{
		"username": "alice2", "email": "Alice@example.com", "password": "correct-horse",
	}), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	register(t, e, "alice")

	rec := e.call(e.auth.Login, jsonReq(http.MethodPost, map[string]any{
		"username": "Alice", "password": "correct-horse",
	}), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp authResp
	decodeJSON(t, rec, &resp)
	if resp.User.Username != "alice" || resp.Access.Token == "" {
		t.Fatalf("unexpected login response: %+v", resp.User)
	}

	rec = e.call(e.auth.Login, jsonReq(http.MethodPost, map[string]any{
		"username": "alice", "password": "wrong",
	}), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
	rec = e.call(e.auth.Login, jsonReq(http.MethodPost, map[string]any{
		"username": "nobody", "password": "correct-horse",
	}), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", rec.Code)
	}
}

func TestRefreshRotation(t *testing.T) {
	e := newEnv(t)
	first := register(t, e, "alice")

	rec := e.call(e.auth.Refresh, jsonReq(http.MethodPost, map[string]any{
		"refreshToken": first.Refresh.Token,
	}), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var rotated authResp
	decodeJSON(t, rec, &rotated)
	if rotated.Refresh.Token == first.Refresh.Token {
		t.Fatal("expected a fresh refresh token")
	}

	// The used token is revoked the moment it rotates.
	rec = e.call(e.auth.Refresh, jsonReq(http.MethodPost, map[string]any{
		"refreshToken": first.Refresh.Token,
	}), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 replaying the old token, got %d", rec.Code)
	}
	// The rotated token still works.
	rec = e.call(e.auth.Refresh, jsonReq(http.MethodPost, map[string]any{
		"refreshToken": rotated.Refresh.Token,
	}), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with the rotated token, got %d", rec.Code)
	}
}

func TestLogoutSingleSession(t *testing.T) {
	e := newEnv(t)
	session := register(t, e, "alice")

	rec := e.call(e.auth.Logout, jsonReq(http.MethodPost, map[string]any{
		"refreshToken": session.Refresh.Token,
	}), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec = e.call(e.auth.Refresh, jsonReq(http.MethodPost, map[string]any{
		"refreshToken": session.Refresh.Token,
	}), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestLogoutAllSessions(t *testing.T) {
	e := newEnv(t)
	first := register(t, e, "alice")
	second := e.call(e.auth.Login, jsonReq(http.MethodPost, map[string]any{
		"username": "alice", "password": "correct-horse",
	}), nil)
	var other authResp
	decodeJSON(t, second, &other)

	req := jsonReq(http.MethodPost, nil)
	req.Header.Set("Authorization", "Bearer "+first.Access.Token)
	rec := e.call(e.auth.Logout, req, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%s)", rec.Code, rec.Body.String())
	}

	for _, tok := range []string{first.Refresh.Token, other.Refresh.Token} {
		rec := e.call(e.auth.Refresh, jsonReq(http.MethodPost, map[string]any{"refreshToken": tok}), nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected every session revoked, got %d", rec.Code)
		}
	}
}

func TestLogoutWithoutCredentials(t *testing.T) {
	e := newEnv(t)
	rec := e.call(e.auth.Logout, jsonReq(http.MethodPost, nil), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	session := register(t, e, "alice")

	rec := e.call(e.auth.Me, jsonReq(http.MethodGet, nil), &session.User)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var me model.User
	decodeJSON(t, rec, &me)
	if me.ID != session.User.ID || me.Username != "alice" {
		t.Fatalf("unexpected account: %+v", me)
	}

	rec = e.call(e.auth.Me, jsonReq(http.MethodGet, nil), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 unauthenticated, got %d", rec.Code)
	}
}
