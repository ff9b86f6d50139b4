package repositories

import (
	"context"
	"errors"
	"time"

	domain "github.com/tiendafacil/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductListFilter narrows product listings.
type ProductListFilter struct {
	ActiveOnly bool
	Pagination domain.Pagination
}

// CatalogRepository persists products, their option axes and variants.
//
// Variant combination keys are unique per product. Creating or re-keying a
// variant whose key is already taken fails with CatalogErrorDuplicateCombination.
type CatalogRepository interface {
	CreateProduct(ctx context.Context, product domain.Product) error
	UpdateProduct(ctx context.Context, product domain.Product) error
	FindProductByID(ctx context.Context, productID string) (domain.Product, error)
	ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)

	CreateOption(ctx context.Context, option domain.ProductOption) error
	ListOptions(ctx context.Context, productID string) ([]domain.ProductOption, error)
	CreateOptionValue(ctx context.Context, productID string, value domain.ProductOptionValue) error
	ListOptionValues(ctx context.Context, productID string, optionID string) ([]domain.ProductOptionValue, error)

	CreateVariant(ctx context.Context, variant domain.ProductVariant) error
	UpdateVariant(ctx context.Context, variant domain.ProductVariant) error
	DeleteVariant(ctx context.Context, productID string, variantID string) error
	FindVariantByID(ctx context.Context, productID string, variantID string) (domain.ProductVariant, error)
	ListVariants(ctx context.Context, productID string) ([]domain.ProductVariant, error)
}

// CustomerRepository reads customer records. Writes happen inside the sale
// creation transaction owned by SaleRepository.
type CustomerRepository interface {
	FindByID(ctx context.Context, customerID string) (domain.Customer, error)
	FindByName(ctx context.Context, name string) (domain.Customer, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Customer], error)
}

// SaleLine is one requested order line prior to snapshotting. An empty
// VariantID targets a product sold without variants.
type SaleLine struct {
	ProductID string
	VariantID string
	Quantity  int
}

// CustomerInput carries the customer details supplied with an order. The
// name doubles as the upsert key after normalization.
type CustomerInput struct {
	Name           string
	Email          string
	Address        string
	Phone          string
	DocumentNumber string
}

// CreateSaleRequest groups everything persisted atomically when a sale is created.
type CreateSaleRequest struct {
	SaleID       string
	ItemIDs      []string
	HistoryID    string
	TrackingCode string
	Status       domain.SaleStatus
	Source       domain.SaleSource
	Customer     CustomerInput
	CustomerID   string
	Lines        []SaleLine
	PerformedBy  string
	Now          time.Time
}

// TransitionSaleRequest carries a status change for an existing sale.
type TransitionSaleRequest struct {
	SaleID      string
	HistoryID   string
	Target      domain.SaleStatus
	Comment     string
	PerformedBy string
	Restock     bool
	Now         time.Time
}

// SaleListFilter narrows sale listings.
type SaleListFilter struct {
	Status     domain.SaleStatus
	Source     domain.SaleSource
	SaleDate   domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

// SaleRepository persists sales with their embedded item snapshots and the
// append-only status history.
//
// CreateSale runs as a single transaction: it resolves and validates every
// line, upserts the customer by normalized name, reserves the tracking code,
// decrements stock and writes the sale plus its first history entry. Stock
// never goes negative; a line that cannot be satisfied fails the whole
// transaction with SaleErrorInsufficientStock.
type SaleRepository interface {
	CreateSale(ctx context.Context, req CreateSaleRequest) (domain.Sale, error)
	TransitionStatus(ctx context.Context, req TransitionSaleRequest) (domain.Sale, error)
	FindByID(ctx context.Context, saleID string) (domain.Sale, error)
	FindByTrackingCode(ctx context.Context, code string) (domain.Sale, error)
	List(ctx context.Context, filter SaleListFilter) (domain.CursorPage[domain.Sale], error)
	ListHistory(ctx context.Context, saleID string) ([]domain.SaleHistory, error)
}

var (
	// ErrUserExists indicates the username is already taken.
	ErrUserExists = errors.New("user repository: username already exists")
	// ErrUserNotFound indicates no account matches the username.
	ErrUserNotFound = errors.New("user repository: user not found")
)

// UserRepository persists back-office accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// HealthRepository aggregates dependency probes into a readiness report.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
