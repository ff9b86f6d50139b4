package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tiendafacil/api/internal/services"
)

func newSessionRouter(sessions services.SessionService) chi.Router {
	h := NewSessionHandlers(sessions)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestSessionLogin(t *testing.T) {
	expires := time.Date(2026, time.February, 14, 10, 30, 0, 0, time.UTC)
	sessions := &stubSessionService{
		loginFn: func(_ context.Context, username string, password string) (services.Session, error) {
			if username != "admin" || password != "s3cret" {
				t.Fatalf("unexpected credentials %q/%q", username, password)
			}
			return services.Session{
				Token:     "token-123",
				ExpiresAt: expires,
				UserID:    "usr_1",
				Username:  "admin",
				Roles:     []string{"ADMIN"},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	rec := httptest.NewRecorder()
	newSessionRouter(sessions).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
		User      struct {
			ID       string   `json:"id"`
			Username string   `json:"username"`
			Roles    []string `json:"roles"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Token != "token-123" {
		t.Fatalf("expected token got %q", body.Token)
	}
	if !body.ExpiresAt.Equal(expires) {
		t.Fatalf("expected expiry %v got %v", expires, body.ExpiresAt)
	}
	if body.User.ID != "usr_1" || body.User.Username != "admin" {
		t.Fatalf("unexpected user payload %+v", body.User)
	}
	if len(body.User.Roles) != 1 || body.User.Roles[0] != "ADMIN" {
		t.Fatalf("unexpected roles %v", body.User.Roles)
	}
}

func TestSessionLoginInvalidCredentials(t *testing.T) {
	sessions := &stubSessionService{
		loginFn: func(context.Context, string, string) (services.Session, error) {
			return services.Session{}, services.ErrSessionInvalidCredentials
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	rec := httptest.NewRecorder()
	newSessionRouter(sessions).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials got %q", code)
	}
}

func TestSessionLoginEmptyBody(t *testing.T) {
	sessions := &stubSessionService{
		loginFn: func(context.Context, string, string) (services.Session, error) {
			t.Fatal("login should not be called")
			return services.Session{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(""))
	rec := httptest.NewRecorder()
	newSessionRouter(sessions).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestSessionLoginRateLimited(t *testing.T) {
	sessions := &stubSessionService{
		loginFn: func(context.Context, string, string) (services.Session, error) {
			return services.Session{}, services.ErrSessionInvalidCredentials
		},
	}
	h := NewSessionHandlers(sessions)
	h.limiter = newSimpleRateLimiter(2, time.Minute, nil)
	r := chi.NewRouter()
	h.Routes(r)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
		req.RemoteAddr = "10.0.0.9:1234"
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", last.Code)
	}
	if code := decodeErrorCode(t, last); code != "rate_limited" {
		t.Fatalf("expected rate_limited got %q", code)
	}
}
