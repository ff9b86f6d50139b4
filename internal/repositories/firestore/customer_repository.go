package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/tiendafacil/api/internal/domain"
	pfirestore "github.com/tiendafacil/api/internal/platform/firestore"
	"github.com/tiendafacil/api/internal/repositories"
)

const (
	customersCollection     = "customers"
	customerNamesCollection = "customerNames"
)

// CustomerRepository reads customer records. The sale creation transaction
// owns all customer writes so that the upsert-by-name invariant holds under
// concurrency; see SaleRepository.CreateSale.
type CustomerRepository struct {
	provider  *pfirestore.Provider
	customers *pfirestore.BaseRepository[customerDocument]
}

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(provider *pfirestore.Provider) (*CustomerRepository, error) {
	if provider == nil {
		return nil, errors.New("customer repository requires firestore provider")
	}
	customers := pfirestore.NewBaseRepository[customerDocument](provider, customersCollection)
	return &CustomerRepository{provider: provider, customers: customers}, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID string) (domain.Customer, error) {
	if r == nil || r.customers == nil {
		return domain.Customer{}, errors.New("customer repository not initialised")
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.Customer{}, errors.New("customer find: id is required")
	}

	doc, err := r.customers.Get(ctx, customerID)
	if err != nil {
		var repoErr *pfirestore.Error
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Customer{}, repositories.NewSaleError(repositories.SaleErrorNotFound, fmt.Sprintf("customer %s not found", customerID), err)
		}
		return domain.Customer{}, pfirestore.WrapError("customer.find", err)
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *CustomerRepository) FindByName(ctx context.Context, name string) (domain.Customer, error) {
	if r == nil || r.provider == nil {
		return domain.Customer{}, errors.New("customer repository not initialised")
	}
	normalized := NormalizeCustomerName(name)
	if normalized == "" {
		return domain.Customer{}, errors.New("customer find by name: name is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Customer{}, pfirestore.WrapError("customer.findByName", err)
	}

	snap, err := client.Collection(customerNamesCollection).Doc(normalized).Get(ctx)
	if err != nil {
		wrapped := pfirestore.WrapError("customer.findByName", err)
		var repoErr *pfirestore.Error
		if errors.As(wrapped, &repoErr) && repoErr.IsNotFound() {
			return domain.Customer{}, repositories.NewSaleError(repositories.SaleErrorNotFound, fmt.Sprintf("customer %q not found", name), err)
		}
		return domain.Customer{}, wrapped
	}

	var nameDoc customerNameDocument
	if err := snap.DataTo(&nameDoc); err != nil {
		return domain.Customer{}, fmt.Errorf("decode customer name %s: %w", normalized, err)
	}
	return r.FindByID(ctx, nameDoc.CustomerID)
}

func (r *CustomerRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Customer], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Customer]{}, errors.New("customer repository not initialised")
	}

	pageSize := pager.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.Customer]{}, pfirestore.WrapError("customer.list", err)
	}

	query := client.Collection(customersCollection).
		OrderBy("normalizedName", firestore.Asc).
		Limit(pageSize + 1)

	if token := strings.TrimSpace(pager.PageToken); token != "" {
		decoded, err := decodePageToken(token)
		if err != nil {
			return domain.CursorPage[domain.Customer]{}, pfirestore.WrapError("customer.list", err)
		}
		query = query.StartAfter(decoded.Name)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var customers []domain.Customer
	var lastNormalized string
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Customer]{}, pfirestore.WrapError("customer.list", err)
		}
		var doc customerDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Customer]{}, fmt.Errorf("decode customer %s: %w", snap.Ref.ID, err)
		}
		customers = append(customers, doc.toDomain(snap.Ref.ID))
		lastNormalized = doc.NormalizedName
	}

	hasMore := len(customers) > pageSize
	if hasMore {
		customers = customers[:pageSize]
		lastNormalized = NormalizeCustomerName(customers[len(customers)-1].Name)
	}
	var nextToken string
	if hasMore && len(customers) > 0 {
		encoded, err := encodePageToken(pageToken{Name: lastNormalized})
		if err != nil {
			return domain.CursorPage[domain.Customer]{}, pfirestore.WrapError("customer.list", err)
		}
		nextToken = encoded
	}

	return domain.CursorPage[domain.Customer]{Items: customers, NextPageToken: nextToken}, nil
}

// NormalizeCustomerName folds a customer name to its identity form: trimmed,
// inner whitespace collapsed, uppercased.
func NormalizeCustomerName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// Helper structures ---------------------------------------------------------

type customerDocument struct {
	Name           string    `firestore:"name"`
	NormalizedName string    `firestore:"normalizedName"`
	Email          string    `firestore:"email,omitempty"`
	Address        string    `firestore:"address,omitempty"`
	Phone          string    `firestore:"phone,omitempty"`
	DocumentNumber string    `firestore:"documentNumber,omitempty"`
	CreatedAt      time.Time `firestore:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt"`
}

func (d customerDocument) toDomain(id string) domain.Customer {
	return domain.Customer{
		ID:             id,
		Name:           d.Name,
		Email:          d.Email,
		Address:        d.Address,
		Phone:          d.Phone,
		DocumentNumber: d.DocumentNumber,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type customerNameDocument struct {
	CustomerID string `firestore:"customerId"`
}
