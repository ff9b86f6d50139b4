package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/tiendafacil/api/internal/domain"
	pfirestore "github.com/tiendafacil/api/internal/platform/firestore"
	"github.com/tiendafacil/api/internal/repositories"
)

const (
	productsCollection    = "products"
	optionsCollection     = "options"
	valuesCollection      = "values"
	variantsCollection    = "variants"
	variantKeysCollection = "variantKeys"
	salesCollection       = "sales"
)

// CatalogRepository persists the product catalog in Firestore. Variant
// combination uniqueness is enforced through guard documents keyed by the
// option key under each product.
type CatalogRepository struct {
	provider *pfirestore.Provider
	products *pfirestore.BaseRepository[productDocument]
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	products := pfirestore.NewBaseRepository[productDocument](provider, productsCollection)
	return &CatalogRepository{provider: provider, products: products}, nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, product domain.Product) error {
	if r == nil || r.provider == nil {
		return errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return errors.New("catalog create product: id is required")
	}

	ref, err := r.products.DocumentRef(ctx, product.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, newProductDocument(product)); err != nil {
		return wrapCatalogError("catalog.createProduct", err)
	}
	return nil
}

func (r *CatalogRepository) UpdateProduct(ctx context.Context, product domain.Product) error {
	if r == nil || r.provider == nil {
		return errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return errors.New("catalog update product: id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.products.DocumentRef(ctx, product.ID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewCatalogError(repositories.CatalogErrorNotFound, fmt.Sprintf("product %s not found", product.ID), err)
			}
			return err
		}
		var existing productDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decode product %s: %w", product.ID, err)
		}

		doc := newProductDocument(product)
		doc.CreatedAt = existing.CreatedAt
		return tx.Set(ref, doc)
	})
	return wrapCatalogError("catalog.updateProduct", err)
}

func (r *CatalogRepository) FindProductByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("catalog repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, errors.New("catalog find product: id is required")
	}

	doc, err := r.products.Get(ctx, productID)
	if err != nil {
		var repoErr *pfirestore.Error
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Product{}, repositories.NewCatalogError(repositories.CatalogErrorNotFound, fmt.Sprintf("product %s not found", productID), err)
		}
		return domain.Product{}, wrapCatalogError("catalog.findProduct", err)
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.products == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("catalog repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.Product]{}, wrapCatalogError("catalog.listProducts", err)
	}

	query := client.Collection(productsCollection).Query
	if filter.ActiveOnly {
		query = query.Where("active", "==", true)
	}
	query = query.OrderBy("name", firestore.Asc).OrderBy("createdAt", firestore.Asc).Limit(pageSize + 1)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		decoded, err := decodePageToken(token)
		if err != nil {
			return domain.CursorPage[domain.Product]{}, wrapCatalogError("catalog.listProducts", err)
		}
		query = query.StartAfter(decoded.Name, decoded.CreatedAt)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var products []domain.Product
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Product]{}, wrapCatalogError("catalog.listProducts", err)
		}
		var doc productDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Product]{}, fmt.Errorf("decode product %s: %w", snap.Ref.ID, err)
		}
		products = append(products, doc.toDomain(snap.Ref.ID))
	}

	hasMore := len(products) > pageSize
	if hasMore {
		products = products[:pageSize]
	}
	var nextToken string
	if hasMore && len(products) > 0 {
		last := products[len(products)-1]
		encoded, err := encodePageToken(pageToken{Name: last.Name, CreatedAt: last.CreatedAt})
		if err != nil {
			return domain.CursorPage[domain.Product]{}, wrapCatalogError("catalog.listProducts", err)
		}
		nextToken = encoded
	}

	return domain.CursorPage[domain.Product]{Items: products, NextPageToken: nextToken}, nil
}

func (r *CatalogRepository) CreateOption(ctx context.Context, option domain.ProductOption) error {
	if r == nil || r.provider == nil {
		return errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(option.ID) == "" || strings.TrimSpace(option.ProductID) == "" {
		return errors.New("catalog create option: id and product id are required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return wrapCatalogError("catalog.createOption", err)
	}

	productRef := client.Collection(productsCollection).Doc(option.ProductID)
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(productRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewCatalogError(repositories.CatalogErrorNotFound, fmt.Sprintf("product %s not found", option.ProductID), err)
			}
			return err
		}
		ref := productRef.Collection(optionsCollection).Doc(option.ID)
		return tx.Create(ref, newOptionDocument(option))
	})
	return wrapCatalogError("catalog.createOption", err)
}

func (r *CatalogRepository) ListOptions(ctx context.Context, productID string) ([]domain.ProductOption, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("catalog repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, errors.New("catalog list options: product id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, wrapCatalogError("catalog.listOptions", err)
	}

	query := client.Collection(productsCollection).Doc(productID).
		Collection(optionsCollection).
		OrderBy("position", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var options []domain.ProductOption
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapCatalogError("catalog.listOptions", err)
		}
		var doc optionDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode option %s: %w", snap.Ref.ID, err)
		}
		options = append(options, doc.toDomain(snap.Ref.ID, productID))
	}
	return options, nil
}

func (r *CatalogRepository) CreateOptionValue(ctx context.Context, productID string, value domain.ProductOptionValue) error {
	if r == nil || r.provider == nil {
		return errors.New("catalog repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" || strings.TrimSpace(value.ID) == "" || strings.TrimSpace(value.OptionID) == "" {
		return errors.New("catalog create option value: product, option and value ids are required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return wrapCatalogError("catalog.createOptionValue", err)
	}

	optionRef := client.Collection(productsCollection).Doc(productID).
		Collection(optionsCollection).Doc(value.OptionID)
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(optionRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewCatalogError(repositories.CatalogErrorNotFound, fmt.Sprintf("option %s not found", value.OptionID), err)
			}
			return err
		}
		ref := optionRef.Collection(valuesCollection).Doc(value.ID)
		return tx.Create(ref, newOptionValueDocument(value))
	})
	return wrapCatalogError("catalog.createOptionValue", err)
}

func (r *CatalogRepository) ListOptionValues(ctx context.Context, productID string, optionID string) ([]domain.ProductOptionValue, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("catalog repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	optionID = strings.TrimSpace(optionID)
	if productID == "" || optionID == "" {
		return nil, errors.New("catalog list option values: product and option ids are required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, wrapCatalogError("catalog.listOptionValues", err)
	}

	query := client.Collection(productsCollection).Doc(productID).
		Collection(optionsCollection).Doc(optionID).
		Collection(valuesCollection).
		OrderBy("createdAt", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var values []domain.ProductOptionValue
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapCatalogError("catalog.listOptionValues", err)
		}
		var doc optionValueDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode option value %s: %w", snap.Ref.ID, err)
		}
		values = append(values, doc.toDomain(snap.Ref.ID, optionID))
	}
	return values, nil
}

// CreateVariant reserves the variant's option key and writes the variant in
// one transaction. The parent product's stock cache grows by the variant's
// initial stock so legacy product-level reads stay roughly truthful.
func (r *CatalogRepository) CreateVariant(ctx context.Context, variant domain.ProductVariant) error {
	if r == nil || r.provider == nil {
		return errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(variant.ID) == "" || strings.TrimSpace(variant.ProductID) == "" {
		return errors.New("catalog create variant: id and product id are required")
	}
	if strings.TrimSpace(variant.OptionKey) == "" {
		return errors.New("catalog create variant: option key is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return wrapCatalogError("catalog.createVariant", err)
	}

	productRef := client.Collection(productsCollection).Doc(variant.ProductID)
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		productSnap, err := tx.Get(productRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewCatalogError(repositories.CatalogErrorNotFound, fmt.Sprintf("product %s not found", variant.ProductID), err)
			}
			return err
		}
		var productDoc productDocument
		if err := productSnap.DataTo(&productDoc); err != nil {
			return fmt.Errorf("decode product %s: %w", variant.ProductID, err)
		}

		// The combination guard must be read here: tx.Create only buffers the
		// write, so AlreadyExists would surface untyped from the commit.
		keyRef := productRef.Collection(variantKeysCollection).Doc(variant.OptionKey)
		if _, err := tx.Get(keyRef); err == nil {
			return repositories.NewCatalogError(repositories.CatalogErrorDuplicateCombination, fmt.Sprintf("combination %s already exists for product %s", variant.OptionKey, variant.ProductID), nil)
		} else if status.Code(err) != codes.NotFound {
			return err
		}
		if err := tx.Create(keyRef, variantKeyDocument{VariantID: variant.ID}); err != nil {
			return err
		}

		variantRef := productRef.Collection(variantsCollection).Doc(variant.ID)
		if err := tx.Create(variantRef, newVariantDocument(variant)); err != nil {
			return err
		}

		if variant.Active && variant.Stock > 0 {
			productDoc.Stock += variant.Stock
			productDoc.UpdatedAt = variant.CreatedAt
			return tx.Set(productRef, productDoc)
		}
		return nil
	})
	return wrapCatalogError("catalog.createVariant", err)
}

// UpdateVariant re-keys the combination guard when the option key changed and
// keeps the product stock cache in step with the stock delta.
func (r *CatalogRepository) UpdateVariant(ctx context.Context, variant domain.ProductVariant) error {
	if r == nil || r.provider == nil {
		return errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(variant.ID) == "" || strings.TrimSpace(variant.ProductID) == "" {
		return errors.New("catalog update variant: id and product id are required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return wrapCatalogError("catalog.updateVariant", err)
	}

	productRef := client.Collection(productsCollection).Doc(variant.ProductID)
	variantRef := productRef.Collection(variantsCollection).Doc(variant.ID)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(variantRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewCatalogError(repositories.CatalogErrorNotFound, fmt.Sprintf("variant %s not found", variant.ID), err)
			}
			return err
		}
		var existing variantDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decode variant %s: %w", variant.ID, err)
		}

		productSnap, err := tx.Get(productRef)
		if err != nil {
			return err
		}
		var productDoc productDocument
		if err := productSnap.DataTo(&productDoc); err != nil {
			return fmt.Errorf("decode product %s: %w", variant.ProductID, err)
		}

		if variant.OptionKey != existing.OptionKey {
			newKeyRef := productRef.Collection(variantKeysCollection).Doc(variant.OptionKey)
			if _, err := tx.Get(newKeyRef); err == nil {
				return repositories.NewCatalogError(repositories.CatalogErrorDuplicateCombination, fmt.Sprintf("combination %s already exists for product %s", variant.OptionKey, variant.ProductID), nil)
			} else if status.Code(err) != codes.NotFound {
				return err
			}
			if err := tx.Create(newKeyRef, variantKeyDocument{VariantID: variant.ID}); err != nil {
				return err
			}
			oldKeyRef := productRef.Collection(variantKeysCollection).Doc(existing.OptionKey)
			if err := tx.Delete(oldKeyRef); err != nil {
				return err
			}
		}

		doc := newVariantDocument(variant)
		doc.CreatedAt = existing.CreatedAt
		if err := tx.Set(variantRef, doc); err != nil {
			return err
		}

		delta := variant.Stock - existing.Stock
		if delta != 0 {
			productDoc.Stock += delta
			if productDoc.Stock < 0 {
				productDoc.Stock = 0
			}
			productDoc.UpdatedAt = variant.UpdatedAt
			return tx.Set(productRef, productDoc)
		}
		return nil
	})
	return wrapCatalogError("catalog.updateVariant", err)
}

// DeleteVariant refuses to remove a variant that existing sales reference.
// Remaining stock moves to the product's DEFAULT variant when one exists,
// otherwise it is discarded together with the product stock cache share.
func (r *CatalogRepository) DeleteVariant(ctx context.Context, productID string, variantID string) error {
	if r == nil || r.provider == nil {
		return errors.New("catalog repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	variantID = strings.TrimSpace(variantID)
	if productID == "" || variantID == "" {
		return errors.New("catalog delete variant: product and variant ids are required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return wrapCatalogError("catalog.deleteVariant", err)
	}

	productRef := client.Collection(productsCollection).Doc(productID)
	variantRef := productRef.Collection(variantsCollection).Doc(variantID)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(variantRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewCatalogError(repositories.CatalogErrorNotFound, fmt.Sprintf("variant %s not found", variantID), err)
			}
			return err
		}
		var doc variantDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode variant %s: %w", variantID, err)
		}

		salesQuery := client.Collection(salesCollection).
			Where("variantIds", "array-contains", variantID).
			Limit(1)
		refIter := tx.Documents(salesQuery)
		defer refIter.Stop()
		if _, err := refIter.Next(); err == nil {
			return repositories.NewCatalogError(repositories.CatalogErrorReferentialConflict, fmt.Sprintf("variant %s is referenced by existing sales", variantID), nil)
		} else if !errors.Is(err, iterator.Done) {
			return err
		}

		// Locate the DEFAULT variant up front so every read precedes the writes.
		var (
			defaultRef *firestore.DocumentRef
			defaultDoc variantDocument
			transfer   bool
		)
		if doc.Stock > 0 && doc.OptionKey != domain.DefaultOptionKey {
			keySnap, err := tx.Get(productRef.Collection(variantKeysCollection).Doc(domain.DefaultOptionKey))
			if err == nil {
				var keyDoc variantKeyDocument
				if err := keySnap.DataTo(&keyDoc); err != nil {
					return fmt.Errorf("decode variant key %s: %w", domain.DefaultOptionKey, err)
				}
				if keyDoc.VariantID != "" && keyDoc.VariantID != variantID {
					defaultRef = productRef.Collection(variantsCollection).Doc(keyDoc.VariantID)
					defaultSnap, err := tx.Get(defaultRef)
					if err != nil {
						return err
					}
					if err := defaultSnap.DataTo(&defaultDoc); err != nil {
						return fmt.Errorf("decode variant %s: %w", keyDoc.VariantID, err)
					}
					transfer = true
				}
			} else if status.Code(err) != codes.NotFound {
				return err
			}
		}

		var productDoc productDocument
		productSnap, err := tx.Get(productRef)
		if err != nil {
			return err
		}
		if err := productSnap.DataTo(&productDoc); err != nil {
			return fmt.Errorf("decode product %s: %w", productID, err)
		}

		if err := tx.Delete(variantRef); err != nil {
			return err
		}
		if err := tx.Delete(productRef.Collection(variantKeysCollection).Doc(doc.OptionKey)); err != nil {
			return err
		}

		if transfer {
			defaultDoc.Stock += doc.Stock
			if err := tx.Set(defaultRef, defaultDoc); err != nil {
				return err
			}
			return nil
		}
		if doc.Stock > 0 {
			productDoc.Stock -= doc.Stock
			if productDoc.Stock < 0 {
				productDoc.Stock = 0
			}
			return tx.Set(productRef, productDoc)
		}
		return nil
	})
	return wrapCatalogError("catalog.deleteVariant", err)
}

func (r *CatalogRepository) FindVariantByID(ctx context.Context, productID string, variantID string) (domain.ProductVariant, error) {
	if r == nil || r.provider == nil {
		return domain.ProductVariant{}, errors.New("catalog repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	variantID = strings.TrimSpace(variantID)
	if productID == "" || variantID == "" {
		return domain.ProductVariant{}, errors.New("catalog find variant: product and variant ids are required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.ProductVariant{}, wrapCatalogError("catalog.findVariant", err)
	}

	snap, err := client.Collection(productsCollection).Doc(productID).
		Collection(variantsCollection).Doc(variantID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ProductVariant{}, repositories.NewCatalogError(repositories.CatalogErrorNotFound, fmt.Sprintf("variant %s not found", variantID), err)
		}
		return domain.ProductVariant{}, wrapCatalogError("catalog.findVariant", err)
	}

	var doc variantDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.ProductVariant{}, fmt.Errorf("decode variant %s: %w", variantID, err)
	}
	return doc.toDomain(snap.Ref.ID, productID), nil
}

func (r *CatalogRepository) ListVariants(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("catalog repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, errors.New("catalog list variants: product id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, wrapCatalogError("catalog.listVariants", err)
	}

	query := client.Collection(productsCollection).Doc(productID).
		Collection(variantsCollection).
		OrderBy("optionKey", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var variants []domain.ProductVariant
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapCatalogError("catalog.listVariants", err)
		}
		var doc variantDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode variant %s: %w", snap.Ref.ID, err)
		}
		variants = append(variants, doc.toDomain(snap.Ref.ID, productID))
	}
	return variants, nil
}

// Helper structures ---------------------------------------------------------

type productDocument struct {
	Name      string    `firestore:"name"`
	Price     int64     `firestore:"price"`
	Stock     int       `firestore:"stock"`
	Active    bool      `firestore:"active"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newProductDocument(product domain.Product) productDocument {
	return productDocument{
		Name:      strings.TrimSpace(product.Name),
		Price:     product.Price,
		Stock:     product.Stock,
		Active:    product.Active,
		CreatedAt: product.CreatedAt.UTC(),
		UpdatedAt: product.UpdatedAt.UTC(),
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      d.Name,
		Price:     d.Price,
		Stock:     d.Stock,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type optionDocument struct {
	Name      string    `firestore:"name"`
	Position  int       `firestore:"position"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func newOptionDocument(option domain.ProductOption) optionDocument {
	return optionDocument{
		Name:      strings.TrimSpace(option.Name),
		Position:  option.Position,
		CreatedAt: option.CreatedAt.UTC(),
	}
}

func (d optionDocument) toDomain(id string, productID string) domain.ProductOption {
	return domain.ProductOption{
		ID:        id,
		ProductID: productID,
		Name:      d.Name,
		Position:  d.Position,
		CreatedAt: d.CreatedAt,
	}
}

type optionValueDocument struct {
	Value     string    `firestore:"value"`
	HexColor  string    `firestore:"hexColor,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func newOptionValueDocument(value domain.ProductOptionValue) optionValueDocument {
	return optionValueDocument{
		Value:     strings.TrimSpace(value.Value),
		HexColor:  strings.TrimSpace(value.HexColor),
		CreatedAt: value.CreatedAt.UTC(),
	}
}

func (d optionValueDocument) toDomain(id string, optionID string) domain.ProductOptionValue {
	return domain.ProductOptionValue{
		ID:        id,
		OptionID:  optionID,
		Value:     d.Value,
		HexColor:  d.HexColor,
		CreatedAt: d.CreatedAt,
	}
}

type variantDocument struct {
	SKU       string                 `firestore:"sku,omitempty"`
	Price     *int64                 `firestore:"price,omitempty"`
	Stock     int                    `firestore:"stock"`
	Active    bool                   `firestore:"active"`
	OptionKey string                 `firestore:"optionKey"`
	Values    []variantValueDocument `firestore:"values"`
	CreatedAt time.Time              `firestore:"createdAt"`
	UpdatedAt time.Time              `firestore:"updatedAt"`
}

type variantValueDocument struct {
	OptionID       string `firestore:"optionId"`
	OptionName     string `firestore:"optionName"`
	OptionPosition int    `firestore:"optionPosition"`
	ValueID        string `firestore:"valueId"`
	Value          string `firestore:"value"`
}

func newVariantDocument(variant domain.ProductVariant) variantDocument {
	values := make([]variantValueDocument, len(variant.Values))
	for i, value := range variant.Values {
		values[i] = variantValueDocument{
			OptionID:       value.OptionID,
			OptionName:     value.OptionName,
			OptionPosition: value.OptionPosition,
			ValueID:        value.ValueID,
			Value:          value.Value,
		}
	}
	return variantDocument{
		SKU:       strings.TrimSpace(variant.SKU),
		Price:     variant.Price,
		Stock:     variant.Stock,
		Active:    variant.Active,
		OptionKey: variant.OptionKey,
		Values:    values,
		CreatedAt: variant.CreatedAt.UTC(),
		UpdatedAt: variant.UpdatedAt.UTC(),
	}
}

func (d variantDocument) toDomain(id string, productID string) domain.ProductVariant {
	values := make([]domain.VariantValue, len(d.Values))
	for i, value := range d.Values {
		values[i] = domain.VariantValue{
			OptionID:       value.OptionID,
			OptionName:     value.OptionName,
			OptionPosition: value.OptionPosition,
			ValueID:        value.ValueID,
			Value:          value.Value,
		}
	}
	return domain.ProductVariant{
		ID:        id,
		ProductID: productID,
		SKU:       d.SKU,
		Price:     d.Price,
		Stock:     d.Stock,
		Active:    d.Active,
		OptionKey: d.OptionKey,
		Values:    values,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type variantKeyDocument struct {
	VariantID string `firestore:"variantId"`
}

func wrapCatalogError(op string, err error) error {
	if err == nil {
		return nil
	}
	var catErr *repositories.CatalogError
	if errors.As(err, &catErr) {
		if catErr.Op == "" {
			catErr.Op = op
		}
		return catErr
	}
	return pfirestore.WrapError(op, err)
}
