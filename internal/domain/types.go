package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// CursorPage wraps a page of results together with the continuation token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// SaleSource distinguishes where an order originated. Informational only;
// no business logic branches on it.
type SaleSource string

const (
	// SaleSourceWeb marks orders placed through the public storefront.
	SaleSourceWeb SaleSource = "WEB"
	// SaleSourceAdmin marks orders entered through the back office.
	SaleSourceAdmin SaleSource = "ADMIN"
)

// Product is a sellable catalog entry. Once a product has variants its
// Stock field becomes a denormalized display cache (sum of active variant
// stocks); variant stock is the source of truth from that point on.
type Product struct {
	ID        string
	Name      string
	Price     int64
	Stock     int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductOption names one axis of variation for a product (e.g. COLOR).
// Names are stored uppercase.
type ProductOption struct {
	ID        string
	ProductID string
	Name      string
	Position  int
	CreatedAt time.Time
}

// ProductOptionValue is one selectable value of an option (e.g. RED).
// Values are stored uppercase.
type ProductOptionValue struct {
	ID        string
	OptionID  string
	Value     string
	HexColor  string
	CreatedAt time.Time
}

// VariantValue links a variant to one option value, carrying enough of the
// option's identity to rebuild the canonical option key.
type VariantValue struct {
	OptionID       string
	OptionName     string
	OptionPosition int
	ValueID        string
	Value          string
}

// ProductVariant is a concrete sellable combination of option values with
// its own stock pool. A nil Price inherits the parent product price.
// OptionKey is the canonical combination key; it is unique per product.
type ProductVariant struct {
	ID        string
	ProductID string
	SKU       string
	Price     *int64
	Stock     int
	Active    bool
	OptionKey string
	Values    []VariantValue
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectivePrice resolves the variant's unit price against the parent
// product price.
func (v ProductVariant) EffectivePrice(product Product) int64 {
	if v.Price != nil {
		return *v.Price
	}
	return product.Price
}

// Customer is keyed by its normalized (trimmed, uppercased) name; the name
// is unique across all customers. Contact fields are last-write-wins.
type Customer struct {
	ID             string
	Name           string
	Email          string
	Address        string
	Phone          string
	DocumentNumber string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaleItem snapshots one order line at creation time. UnitPrice and
// LineTotal never change after the sale is created, regardless of later
// catalog price edits.
type SaleItem struct {
	ID          string
	ProductID   string
	ProductName string
	VariantID   string
	OptionKey   string
	Quantity    int
	UnitPrice   int64
	LineTotal   int64
}

// Sale is a durable order. Total always equals the sum of item line
// totals at creation and is never recomputed. TrackingCode is assigned
// once and immutable.
type Sale struct {
	ID           string
	CustomerID   string
	CustomerName string
	SaleDate     time.Time
	Total        int64
	Status       SaleStatus
	Source       SaleSource
	TrackingCode string
	Items        []SaleItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User is a back-office account. PasswordHash holds a bcrypt digest and is
// never serialised to API responses.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        []string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SaleHistory is one immutable audit entry for a status change. The first
// entry of a sale has an empty PreviousStatus; every later entry's
// PreviousStatus equals the NewStatus of the entry before it.
type SaleHistory struct {
	ID             string
	SaleID         string
	PreviousStatus SaleStatus
	NewStatus      SaleStatus
	Comment        string
	PerformedBy    string
	CreatedAt      time.Time
}
