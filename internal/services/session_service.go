package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tiendafacil/api/internal/platform/auth"
	"github.com/tiendafacil/api/internal/repositories"
)

// ErrSessionInvalidCredentials covers unknown usernames, wrong passwords and
// disabled accounts alike, so login failures reveal nothing about which part
// was wrong.
var ErrSessionInvalidCredentials = errors.New("session: invalid credentials")

// SessionServiceDeps bundles collaborators required to construct the session service.
type SessionServiceDeps struct {
	Users  repositories.UserRepository
	Tokens *auth.TokenManager
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type sessionService struct {
	users  repositories.UserRepository
	tokens *auth.TokenManager
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewSessionService wires dependencies into a concrete SessionService implementation.
func NewSessionService(deps SessionServiceDeps) (SessionService, error) {
	if deps.Users == nil {
		return nil, errors.New("session service: user repository is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("session service: token manager is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &sessionService{
		users:  deps.Users,
		tokens: deps.Tokens,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *sessionService) Login(ctx context.Context, username string, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, fmt.Errorf("%w: username and password are required", ErrSessionInvalidCredentials)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.logger(ctx, "session.login.unknown_user", map[string]any{"username": username})
			return Session{}, ErrSessionInvalidCredentials
		}
		return Session{}, err
	}
	if !user.Active {
		s.logger(ctx, "session.login.inactive", map[string]any{"user": user.ID})
		return Session{}, ErrSessionInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.logger(ctx, "session.login.bad_password", map[string]any{"user": user.ID})
		return Session{}, ErrSessionInvalidCredentials
	}

	identity := auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
	}
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return Session{}, fmt.Errorf("session: issue token: %w", err)
	}

	return Session{
		Token:     token,
		ExpiresAt: s.clock().Add(s.tokens.TTL()),
		UserID:    user.ID,
		Username:  user.Username,
		Roles:     user.Roles,
	}, nil
}
