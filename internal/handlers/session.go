package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tiendafacil/api/internal/platform/httpx"
	"github.com/tiendafacil/api/internal/services"
)

// SessionHandlers exposes the login endpoint issuing back-office tokens.
type SessionHandlers struct {
	sessions services.SessionService
	limiter  rateLimiter
}

// NewSessionHandlers constructs a new SessionHandlers instance.
func NewSessionHandlers(sessions services.SessionService) *SessionHandlers {
	return &SessionHandlers{
		sessions: sessions,
		limiter:  newSimpleRateLimiter(10, time.Minute, nil),
	}
}

// Routes registers the login endpoint on the API root.
func (h *SessionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/login", h.login)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      loginUserDTO `json:"user"`
}

type loginUserDTO struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func (h *SessionHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sessions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("session_service_unavailable", "session service unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.limiter != nil && !h.limiter.Allow(r.RemoteAddr) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many login attempts", http.StatusTooManyRequests))
		return
	}

	var req loginRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	session, err := h.sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrSessionInvalidCredentials) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid username or password", http.StatusUnauthorized))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("session_error", "failed to process login request", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User: loginUserDTO{
			ID:       session.UserID,
			Username: session.Username,
			Roles:    session.Roles,
		},
	})
}
