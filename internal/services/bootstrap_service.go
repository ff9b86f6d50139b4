package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/tiendafacil/api/internal/domain"
	"github.com/tiendafacil/api/internal/platform/auth"
	"github.com/tiendafacil/api/internal/repositories"
)

const userIDPrefix = "usr_"

// BootstrapServiceDeps bundles collaborators required to construct the bootstrap service.
type BootstrapServiceDeps struct {
	Users          repositories.UserRepository
	Catalog        repositories.CatalogRepository
	AdminUsername  string
	AdminPassword  string
	SeedSampleData bool
	Clock          func() time.Time
	IDGenerator    func() string
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type bootstrapService struct {
	users          repositories.UserRepository
	catalog        repositories.CatalogRepository
	adminUsername  string
	adminPassword  string
	seedSampleData bool
	clock          func() time.Time
	newID          func() string
	logger         func(context.Context, string, map[string]any)
}

// NewBootstrapService wires dependencies into a concrete BootstrapService implementation.
func NewBootstrapService(deps BootstrapServiceDeps) (BootstrapService, error) {
	if deps.Users == nil {
		return nil, errors.New("bootstrap service: user repository is required")
	}
	if deps.SeedSampleData && deps.Catalog == nil {
		return nil, errors.New("bootstrap service: catalog repository is required for seeding")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &bootstrapService{
		users:          deps.Users,
		catalog:        deps.Catalog,
		adminUsername:  deps.AdminUsername,
		adminPassword:  deps.AdminPassword,
		seedSampleData: deps.SeedSampleData,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// Run is idempotent: rerunning it against a prepared datastore changes nothing.
func (s *bootstrapService) Run(ctx context.Context) error {
	if err := s.ensureAdmin(ctx); err != nil {
		return err
	}
	if s.seedSampleData {
		if err := s.seedCatalog(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *bootstrapService) ensureAdmin(ctx context.Context) error {
	if s.adminUsername == "" || s.adminPassword == "" {
		s.logger(ctx, "bootstrap.admin.skipped", map[string]any{"reason": "no credentials configured"})
		return nil
	}

	_, err := s.users.FindByUsername(ctx, s.adminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("bootstrap: look up admin account: %w", err)
	}

	hash, err := auth.HashPassword(s.adminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap: hash admin password: %w", err)
	}

	now := s.clock()
	user := domain.User{
		ID:           userIDPrefix + s.newID(),
		Username:     s.adminUsername,
		PasswordHash: hash,
		Roles:        []string{auth.RoleAdmin},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Another instance may have created the account between the lookup
		// and the write.
		if errors.Is(err, repositories.ErrUserExists) {
			return nil
		}
		return fmt.Errorf("bootstrap: create admin account: %w", err)
	}

	s.logger(ctx, "bootstrap.admin.created", map[string]any{"user": user.ID, "username": user.Username})
	return nil
}

func (s *bootstrapService) seedCatalog(ctx context.Context) error {
	page, err := s.catalog.ListProducts(ctx, repositories.ProductListFilter{
		Pagination: domain.Pagination{PageSize: 1},
	})
	if err != nil {
		return fmt.Errorf("bootstrap: inspect catalog: %w", err)
	}
	if len(page.Items) > 0 {
		return nil
	}

	now := s.clock()
	product := domain.Product{
		ID:        productIDPrefix + s.newID(),
		Name:      "Classic Tee",
		Price:     1900,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.catalog.CreateProduct(ctx, product); err != nil {
		return fmt.Errorf("bootstrap: seed product: %w", err)
	}

	option := domain.ProductOption{
		ID:        optionIDPrefix + s.newID(),
		ProductID: product.ID,
		Name:      "COLOR",
		Position:  1,
		CreatedAt: now,
	}
	if err := s.catalog.CreateOption(ctx, option); err != nil {
		return fmt.Errorf("bootstrap: seed option: %w", err)
	}

	colors := []struct {
		value string
		hex   string
		stock int
	}{
		{value: "BLACK", hex: "#000000", stock: 10},
		{value: "WHITE", hex: "#FFFFFF", stock: 10},
	}
	for _, color := range colors {
		value := domain.ProductOptionValue{
			ID:        optionValueIDPrefix + s.newID(),
			OptionID:  option.ID,
			Value:     color.value,
			HexColor:  color.hex,
			CreatedAt: now,
		}
		if err := s.catalog.CreateOptionValue(ctx, product.ID, value); err != nil {
			return fmt.Errorf("bootstrap: seed option value: %w", err)
		}

		values := []domain.VariantValue{{
			OptionID:       option.ID,
			OptionName:     option.Name,
			OptionPosition: option.Position,
			ValueID:        value.ID,
			Value:          value.Value,
		}}
		variant := domain.ProductVariant{
			ID:        variantIDPrefix + s.newID(),
			ProductID: product.ID,
			SKU:       "TEE-" + color.value,
			Stock:     color.stock,
			Active:    true,
			OptionKey: domain.VariantOptionKey(values),
			Values:    values,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.catalog.CreateVariant(ctx, variant); err != nil {
			return fmt.Errorf("bootstrap: seed variant: %w", err)
		}
	}

	s.logger(ctx, "bootstrap.catalog.seeded", map[string]any{"product": product.ID})
	return nil
}
