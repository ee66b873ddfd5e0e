package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/db"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(conn, Options{UploadDir: t.TempDir()})
}

func TestHealthz(t *testing.T) {
	h := testHandler(t)
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	h := testHandler(t)
	r := httptest.NewRequest(http.MethodGet, "/boutique/stock", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}

func login(t *testing.T, h http.Handler, username, role string) string {
	t.Helper()
	body := `{"username":"` + username + `","role":"` + role + `"}`
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.Token
}

func TestLoginThenStockRoundTrip(t *testing.T) {
	h := testHandler(t)
	token := login(t, h, "boss", "manager")

	add := httptest.NewRequest(http.MethodPost, "/hardware/stock",
		strings.NewReader(`{"item_name":"Cement","initial_quantity":40}`))
	add.Header.Set("Content-Type", "application/json")
	add.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, add)
	if w.Code != http.StatusCreated {
		t.Fatalf("add: expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	list := httptest.NewRequest(http.MethodGet, "/hardware/stock", nil)
	list.Header.Set("Authorization", "Bearer "+token)
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, list)
	if w2.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d", w2.Code)
	}
	var payload struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Total != 1 {
		t.Fatalf("total: got %d want 1", payload.Total)
	}
}

func TestDashboardManagerOnly(t *testing.T) {
	h := testHandler(t)
	worker := login(t, h, "sarah", "boutique")

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.Header.Set("Authorization", "Bearer "+worker)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("worker dashboard: expected 403 got %d", w.Code)
	}

	boss := login(t, h, "boss", "manager")
	r2 := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r2.Header.Set("Authorization", "Bearer "+boss)
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusOK {
		t.Fatalf("manager dashboard: expected 200 got %d body=%s", w2.Code, w2.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := testHandler(t)
	token := login(t, h, "boss", "manager")

	r := httptest.NewRequest(http.MethodDelete, "/boutique/stock", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", w.Code)
	}
	if w.Header().Get("Allow") == "" {
		t.Fatal("missing Allow header")
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	h := testHandler(t)
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}
