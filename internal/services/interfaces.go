package services

import (
	"context"
	"time"

	domain "github.com/tiendafacil/api/internal/domain"
)

// Order event types emitted on the configured topic.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status.changed"
)

// OrderEventMessage is the payload published for order lifecycle events.
type OrderEventMessage struct {
	Event          string            `json:"event"`
	SaleID         string            `json:"saleId"`
	TrackingCode   string            `json:"trackingCode"`
	Source         domain.SaleSource `json:"source"`
	Status         domain.SaleStatus `json:"status"`
	PreviousStatus domain.SaleStatus `json:"previousStatus,omitempty"`
	ActorID        string            `json:"actorId,omitempty"`
	OccurredAt     time.Time         `json:"occurredAt"`
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, message OrderEventMessage) (string, error)
}

// CustomerDetails carries the customer fields supplied with an order. The
// name is the upsert key after normalization; the other fields are
// last-write-wins contact data.
type CustomerDetails struct {
	Name           string
	Email          string
	Address        string
	Phone          string
	DocumentNumber string
}

// OrderLineInput is one requested line before price snapshotting. VariantID
// is empty for products sold without variants.
type OrderLineInput struct {
	ProductID string
	VariantID string
	Quantity  int
}

// CreateOrderCommand places a new order. Source decides the initial status:
// WEB orders start PENDING, ADMIN sales are recorded COMPLETED.
type CreateOrderCommand struct {
	Source   domain.SaleSource
	Customer CustomerDetails
	Lines    []OrderLineInput
	ActorID  string
}

// TransitionStatusCommand moves a sale through the status state machine.
type TransitionStatusCommand struct {
	SaleID  string
	Target  domain.SaleStatus
	Comment string
	ActorID string
}

// OrderListFilter narrows back-office sale listings.
type OrderListFilter struct {
	Status     domain.SaleStatus
	Source     domain.SaleSource
	From       *time.Time
	To         *time.Time
	Pagination domain.Pagination
}

// OrderTrackingItem is one order line as shown on the public tracking page.
type OrderTrackingItem struct {
	ProductName string
	OptionKey   string
	Quantity    int
	LineTotal   int64
}

// OrderTrackingEvent is one status change as shown on the public tracking
// page. It omits the actor label, which is back-office information.
type OrderTrackingEvent struct {
	PreviousStatus domain.SaleStatus
	NewStatus      domain.SaleStatus
	Comment        string
	OccurredAt     time.Time
}

// OrderTrackingView is the public projection of a sale. It intentionally
// omits customer contact details and internal identifiers.
type OrderTrackingView struct {
	TrackingCode string
	Status       domain.SaleStatus
	SaleDate     time.Time
	Total        int64
	Items        []OrderTrackingItem
	History      []OrderTrackingEvent
}

// OrderService owns the order lifecycle: creation with atomic stock
// decrement, the status state machine, public payment confirmation and the
// tracking projection.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (domain.Sale, error)
	GetOrder(ctx context.Context, saleID string) (domain.Sale, error)
	FindOrderByCode(ctx context.Context, trackingCode string) (domain.Sale, error)
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Sale], error)
	ListHistory(ctx context.Context, saleID string) ([]domain.SaleHistory, error)
	TransitionStatus(ctx context.Context, cmd TransitionStatusCommand) (domain.Sale, error)
	ConfirmPublicPayment(ctx context.Context, saleID string) (domain.Sale, error)
	TrackOrder(ctx context.Context, trackingCode string) (OrderTrackingView, error)
	GetCustomer(ctx context.Context, customerID string) (domain.Customer, error)
	ListCustomers(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Customer], error)
}

// CreateProductCommand registers a new catalog product.
type CreateProductCommand struct {
	Name   string
	Price  int64
	Stock  int
	Active bool
}

// UpdateProductCommand patches an existing product. Nil fields keep their
// current value.
type UpdateProductCommand struct {
	ProductID string
	Name      *string
	Price     *int64
	Stock     *int
	Active    *bool
}

// AddOptionCommand declares a variation axis for a product.
type AddOptionCommand struct {
	ProductID string
	Name      string
	Position  int
}

// AddOptionValueCommand adds a selectable value to an option.
type AddOptionValueCommand struct {
	ProductID string
	OptionID  string
	Value     string
	HexColor  string
}

// CreateVariantCommand declares a sellable combination. ValueIDs reference
// existing option values, at most one per option; an empty set creates the
// DEFAULT variant.
type CreateVariantCommand struct {
	ProductID string
	SKU       string
	Price     *int64
	Stock     int
	Active    bool
	ValueIDs  []string
}

// UpdateVariantCommand patches a variant. Nil fields keep their current
// value; InheritPrice clears a variant price override. A non-nil ValueIDs
// re-keys the combination.
type UpdateVariantCommand struct {
	ProductID    string
	VariantID    string
	SKU          *string
	Price        *int64
	InheritPrice bool
	Stock        *int
	Active       *bool
	ValueIDs     *[]string
}

// OptionWithValues pairs an option with its values for catalog reads.
type OptionWithValues struct {
	Option domain.ProductOption
	Values []domain.ProductOptionValue
}

// ProductWithVariants is the public storefront projection of a product.
type ProductWithVariants struct {
	Product  domain.Product
	Variants []domain.ProductVariant
}

// ProductListQuery narrows product listings.
type ProductListQuery struct {
	ActiveOnly bool
	Pagination domain.Pagination
}

// CatalogService owns products, option axes and variants, including the
// option key uniqueness and variant deletion rules.
type CatalogService interface {
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error)
	UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ListProducts(ctx context.Context, query ProductListQuery) (domain.CursorPage[domain.Product], error)
	ListPublicProducts(ctx context.Context, pager domain.Pagination) (domain.CursorPage[ProductWithVariants], error)

	AddOption(ctx context.Context, cmd AddOptionCommand) (domain.ProductOption, error)
	AddOptionValue(ctx context.Context, cmd AddOptionValueCommand) (domain.ProductOptionValue, error)
	ListOptions(ctx context.Context, productID string) ([]OptionWithValues, error)

	CreateVariant(ctx context.Context, cmd CreateVariantCommand) (domain.ProductVariant, error)
	UpdateVariant(ctx context.Context, cmd UpdateVariantCommand) (domain.ProductVariant, error)
	DeleteVariant(ctx context.Context, productID string, variantID string) error
	ListVariants(ctx context.Context, productID string) ([]domain.ProductVariant, error)
}

// Session is an authenticated back-office session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	UserID    string
	Username  string
	Roles     []string
}

// SessionService authenticates back-office users and issues session tokens.
type SessionService interface {
	Login(ctx context.Context, username string, password string) (Session, error)
}

// BootstrapService prepares the datastore before the API starts serving:
// it ensures the admin account exists and optionally seeds a sample catalog.
type BootstrapService interface {
	Run(ctx context.Context) error
}

// SystemService exposes operational health information.
type SystemService interface {
	Health(ctx context.Context) (domain.SystemHealthReport, error)
}
