package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

func TestIssueAndParseToken(t *testing.T) {
	u := &models.User{Username: "sarah", Role: models.RoleBoutique, BoutiqueBranch: "K"}
	token, err := IssueToken(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Username != "sarah" || claims.Role != "boutique" || claims.Branch != "K" {
		t.Fatalf("claims round trip: %+v", claims)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token"); err == nil {
		t.Fatal("garbage token must fail")
	}
}

func TestMiddlewareResolvesActor(t *testing.T) {
	u := &models.User{Username: "dan", Role: models.RoleFinance}
	token, err := IssueToken(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var got *Actor
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Username != "dan" || got.Role != models.RoleFinance {
		t.Fatalf("actor not resolved: %+v", got)
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRemoteIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "41.210.1.2, 10.0.0.1")
	if ip := remoteIP(req); ip != "41.210.1.2" {
		t.Fatalf("got %q", ip)
	}
}
