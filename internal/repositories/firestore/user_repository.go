package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/tiendafacil/api/internal/domain"
	pfirestore "github.com/tiendafacil/api/internal/platform/firestore"
	"github.com/tiendafacil/api/internal/repositories"
)

const (
	usersCollection     = "users"
	usernamesCollection = "usernames"
)

// UserRepository persists back-office accounts. Username uniqueness is
// enforced through guard documents keyed by the lowercased username.
type UserRepository struct {
	provider *pfirestore.Provider
	users    *pfirestore.BaseRepository[userDocument]
}

func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	users := pfirestore.NewBaseRepository[userDocument](provider, usersCollection)
	return &UserRepository{provider: provider, users: users}, nil
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	if r == nil || r.provider == nil {
		return errors.New("user repository not initialised")
	}
	if strings.TrimSpace(user.ID) == "" {
		return errors.New("user create: id is required")
	}
	username := normalizeUsername(user.Username)
	if username == "" {
		return errors.New("user create: username is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("user.create", err)
	}

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		nameRef := client.Collection(usernamesCollection).Doc(username)
		if _, err := tx.Get(nameRef); err == nil {
			return fmt.Errorf("%w: %s", repositories.ErrUserExists, user.Username)
		} else if status.Code(err) != codes.NotFound {
			return err
		}
		if err := tx.Create(nameRef, usernameDocument{UserID: user.ID}); err != nil {
			return err
		}
		userRef := client.Collection(usersCollection).Doc(user.ID)
		return tx.Create(userRef, newUserDocument(user))
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserExists) {
			return err
		}
		return pfirestore.WrapError("user.create", err)
	}
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	if r == nil || r.provider == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	normalized := normalizeUsername(username)
	if normalized == "" {
		return domain.User{}, errors.New("user find: username is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.User{}, pfirestore.WrapError("user.findByUsername", err)
	}

	snap, err := client.Collection(usernamesCollection).Doc(normalized).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.User{}, fmt.Errorf("%w: %s", repositories.ErrUserNotFound, username)
		}
		return domain.User{}, pfirestore.WrapError("user.findByUsername", err)
	}

	var nameDoc usernameDocument
	if err := snap.DataTo(&nameDoc); err != nil {
		return domain.User{}, fmt.Errorf("decode username %s: %w", normalized, err)
	}

	doc, err := r.users.Get(ctx, nameDoc.UserID)
	if err != nil {
		var repoErr *pfirestore.Error
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.User{}, fmt.Errorf("%w: %s", repositories.ErrUserNotFound, username)
		}
		return domain.User{}, pfirestore.WrapError("user.findByUsername", err)
	}
	return doc.Data.toDomain(doc.ID), nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Helper structures ---------------------------------------------------------

type userDocument struct {
	Username     string    `firestore:"username"`
	PasswordHash string    `firestore:"passwordHash"`
	Roles        []string  `firestore:"roles"`
	Active       bool      `firestore:"active"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

func newUserDocument(user domain.User) userDocument {
	roles := make([]string, len(user.Roles))
	copy(roles, user.Roles)
	return userDocument{
		Username:     strings.TrimSpace(user.Username),
		PasswordHash: user.PasswordHash,
		Roles:        roles,
		Active:       user.Active,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
}

func (d userDocument) toDomain(id string) domain.User {
	return domain.User{
		ID:           id,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Roles:        d.Roles,
		Active:       d.Active,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type usernameDocument struct {
	UserID string `firestore:"userId"`
}
