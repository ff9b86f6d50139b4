package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/tiendafacil/api/internal/domain"
	"github.com/tiendafacil/api/internal/repositories"
)

type stubCatalogRepo struct {
	createProductFn     func(context.Context, domain.Product) error
	updateProductFn     func(context.Context, domain.Product) error
	findProductFn       func(context.Context, string) (domain.Product, error)
	listProductsFn      func(context.Context, repositories.ProductListFilter) (domain.CursorPage[domain.Product], error)
	createOptionFn      func(context.Context, domain.ProductOption) error
	listOptionsFn       func(context.Context, string) ([]domain.ProductOption, error)
	createOptionValueFn func(context.Context, string, domain.ProductOptionValue) error
	listOptionValuesFn  func(context.Context, string, string) ([]domain.ProductOptionValue, error)
	createVariantFn     func(context.Context, domain.ProductVariant) error
	updateVariantFn     func(context.Context, domain.ProductVariant) error
	deleteVariantFn     func(context.Context, string, string) error
	findVariantFn       func(context.Context, string, string) (domain.ProductVariant, error)
	listVariantsFn      func(context.Context, string) ([]domain.ProductVariant, error)
}

func (s *stubCatalogRepo) CreateProduct(ctx context.Context, product domain.Product) error {
	if s.createProductFn != nil {
		return s.createProductFn(ctx, product)
	}
	return nil
}

func (s *stubCatalogRepo) UpdateProduct(ctx context.Context, product domain.Product) error {
	if s.updateProductFn != nil {
		return s.updateProductFn(ctx, product)
	}
	return nil
}

func (s *stubCatalogRepo) FindProductByID(ctx context.Context, productID string) (domain.Product, error) {
	if s.findProductFn != nil {
		return s.findProductFn(ctx, productID)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubCatalogRepo) ListProducts(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if s.listProductsFn != nil {
		return s.listProductsFn(ctx, filter)
	}
	return domain.CursorPage[domain.Product]{}, nil
}

func (s *stubCatalogRepo) CreateOption(ctx context.Context, option domain.ProductOption) error {
	if s.createOptionFn != nil {
		return s.createOptionFn(ctx, option)
	}
	return nil
}

func (s *stubCatalogRepo) ListOptions(ctx context.Context, productID string) ([]domain.ProductOption, error) {
	if s.listOptionsFn != nil {
		return s.listOptionsFn(ctx, productID)
	}
	return nil, nil
}

func (s *stubCatalogRepo) CreateOptionValue(ctx context.Context, productID string, value domain.ProductOptionValue) error {
	if s.createOptionValueFn != nil {
		return s.createOptionValueFn(ctx, productID, value)
	}
	return nil
}

func (s *stubCatalogRepo) ListOptionValues(ctx context.Context, productID string, optionID string) ([]domain.ProductOptionValue, error) {
	if s.listOptionValuesFn != nil {
		return s.listOptionValuesFn(ctx, productID, optionID)
	}
	return nil, nil
}

func (s *stubCatalogRepo) CreateVariant(ctx context.Context, variant domain.ProductVariant) error {
	if s.createVariantFn != nil {
		return s.createVariantFn(ctx, variant)
	}
	return nil
}

func (s *stubCatalogRepo) UpdateVariant(ctx context.Context, variant domain.ProductVariant) error {
	if s.updateVariantFn != nil {
		return s.updateVariantFn(ctx, variant)
	}
	return nil
}

func (s *stubCatalogRepo) DeleteVariant(ctx context.Context, productID string, variantID string) error {
	if s.deleteVariantFn != nil {
		return s.deleteVariantFn(ctx, productID, variantID)
	}
	return nil
}

func (s *stubCatalogRepo) FindVariantByID(ctx context.Context, productID string, variantID string) (domain.ProductVariant, error) {
	if s.findVariantFn != nil {
		return s.findVariantFn(ctx, productID, variantID)
	}
	return domain.ProductVariant{}, errors.New("not implemented")
}

func (s *stubCatalogRepo) ListVariants(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	if s.listVariantsFn != nil {
		return s.listVariantsFn(ctx, productID)
	}
	return nil, nil
}

// shirtOptions wires a two-axis product: COLOR (RED, BLUE) and SIZE (M).
func shirtOptions(repo *stubCatalogRepo) {
	repo.listOptionsFn = func(_ context.Context, productID string) ([]domain.ProductOption, error) {
		return []domain.ProductOption{
			{ID: "opt_size", ProductID: productID, Name: "SIZE", Position: 2},
			{ID: "opt_color", ProductID: productID, Name: "COLOR", Position: 1},
		}, nil
	}
	repo.listOptionValuesFn = func(_ context.Context, _ string, optionID string) ([]domain.ProductOptionValue, error) {
		switch optionID {
		case "opt_color":
			return []domain.ProductOptionValue{
				{ID: "val_red", OptionID: optionID, Value: "RED"},
				{ID: "val_blue", OptionID: optionID, Value: "BLUE"},
			}, nil
		case "opt_size":
			return []domain.ProductOptionValue{
				{ID: "val_m", OptionID: optionID, Value: "M"},
			}, nil
		}
		return nil, nil
	}
}

func newTestCatalogService(t *testing.T, repo repositories.CatalogRepository) CatalogService {
	t.Helper()
	seq := 0
	svc, err := NewCatalogService(CatalogServiceDeps{
		Catalog: repo,
		Clock:   func() time.Time { return time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC) },
		IDGenerator: func() string {
			seq++
			return "00TEST" + string(rune('A'+seq-1))
		},
	})
	if err != nil {
		t.Fatalf("new catalog service: %v", err)
	}
	return svc
}

func TestCatalogServiceCreateProduct(t *testing.T) {
	ctx := context.Background()
	var created domain.Product
	repo := &stubCatalogRepo{
		createProductFn: func(_ context.Context, product domain.Product) error {
			created = product
			return nil
		},
	}
	svc := newTestCatalogService(t, repo)

	product, err := svc.CreateProduct(ctx, CreateProductCommand{Name: "  Shirt ", Price: 1500, Stock: 10, Active: true})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if !strings.HasPrefix(product.ID, "prd_") {
		t.Fatalf("unexpected product id %s", product.ID)
	}
	if created.Name != "Shirt" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}

	if _, err := svc.CreateProduct(ctx, CreateProductCommand{Name: "", Price: 100}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input for empty name, got %v", err)
	}
	if _, err := svc.CreateProduct(ctx, CreateProductCommand{Name: "Shirt", Price: -1}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input for negative price, got %v", err)
	}
}

func TestCatalogServiceUpdateProductPartial(t *testing.T) {
	ctx := context.Background()
	existing := domain.Product{ID: "prd_1", Name: "Shirt", Price: 1500, Stock: 10, Active: true}
	var updated domain.Product
	repo := &stubCatalogRepo{
		findProductFn: func(_ context.Context, productID string) (domain.Product, error) {
			return existing, nil
		},
		updateProductFn: func(_ context.Context, product domain.Product) error {
			updated = product
			return nil
		},
	}
	svc := newTestCatalogService(t, repo)

	price := int64(1800)
	product, err := svc.UpdateProduct(ctx, UpdateProductCommand{ProductID: "prd_1", Price: &price})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if product.Price != 1800 {
		t.Fatalf("expected price 1800, got %d", product.Price)
	}
	if updated.Name != "Shirt" || updated.Stock != 10 || !updated.Active {
		t.Fatalf("nil fields must keep their values, got %+v", updated)
	}
}

func TestCatalogServiceAddOptionUppercases(t *testing.T) {
	ctx := context.Background()
	var created domain.ProductOption
	repo := &stubCatalogRepo{
		createOptionFn: func(_ context.Context, option domain.ProductOption) error {
			created = option
			return nil
		},
	}
	svc := newTestCatalogService(t, repo)

	option, err := svc.AddOption(ctx, AddOptionCommand{ProductID: "prd_1", Name: " color ", Position: 1})
	if err != nil {
		t.Fatalf("add option: %v", err)
	}
	if option.Name != "COLOR" || created.Name != "COLOR" {
		t.Fatalf("expected uppercase name, got %q", created.Name)
	}
	if !strings.HasPrefix(option.ID, "opt_") {
		t.Fatalf("unexpected option id %s", option.ID)
	}
}

func TestCatalogServiceAddOptionValueUppercases(t *testing.T) {
	ctx := context.Background()
	var created domain.ProductOptionValue
	repo := &stubCatalogRepo{
		createOptionValueFn: func(_ context.Context, productID string, value domain.ProductOptionValue) error {
			if productID != "prd_1" {
				t.Fatalf("unexpected product id %s", productID)
			}
			created = value
			return nil
		},
	}
	svc := newTestCatalogService(t, repo)

	value, err := svc.AddOptionValue(ctx, AddOptionValueCommand{ProductID: "prd_1", OptionID: "opt_color", Value: " red ", HexColor: "#ff0000"})
	if err != nil {
		t.Fatalf("add option value: %v", err)
	}
	if value.Value != "RED" || created.HexColor != "#FF0000" {
		t.Fatalf("expected uppercase value and hex, got %+v", created)
	}
	if !strings.HasPrefix(value.ID, "val_") {
		t.Fatalf("unexpected value id %s", value.ID)
	}
}

func TestCatalogServiceCreateVariantBuildsKey(t *testing.T) {
	ctx := context.Background()
	var created domain.ProductVariant
	repo := &stubCatalogRepo{
		createVariantFn: func(_ context.Context, variant domain.ProductVariant) error {
			created = variant
			return nil
		},
	}
	shirtOptions(repo)
	svc := newTestCatalogService(t, repo)

	// Value ids arrive size-first; the key must still order by option position.
	variant, err := svc.CreateVariant(ctx, CreateVariantCommand{
		ProductID: "prd_1",
		SKU:       "SHIRT-RED-M",
		Stock:     5,
		Active:    true,
		ValueIDs:  []string{"val_m", "val_red"},
	})
	if err != nil {
		t.Fatalf("create variant: %v", err)
	}
	if variant.OptionKey != "COLOR:RED|SIZE:M" {
		t.Fatalf("unexpected option key %s", variant.OptionKey)
	}
	if !strings.HasPrefix(variant.ID, "var_") {
		t.Fatalf("unexpected variant id %s", variant.ID)
	}
	if len(created.Values) != 2 {
		t.Fatalf("expected 2 value links, got %d", len(created.Values))
	}
	if variant.Price != nil {
		t.Fatalf("expected inherited price, got %v", *variant.Price)
	}
}

func TestCatalogServiceCreateVariantDefaultKey(t *testing.T) {
	ctx := context.Background()
	repo := &stubCatalogRepo{}
	svc := newTestCatalogService(t, repo)

	variant, err := svc.CreateVariant(ctx, CreateVariantCommand{ProductID: "prd_1", Stock: 3, Active: true})
	if err != nil {
		t.Fatalf("create variant: %v", err)
	}
	if variant.OptionKey != domain.DefaultOptionKey {
		t.Fatalf("expected DEFAULT key, got %s", variant.OptionKey)
	}
}

func TestCatalogServiceCreateVariantValueValidation(t *testing.T) {
	ctx := context.Background()
	repo := &stubCatalogRepo{}
	shirtOptions(repo)
	svc := newTestCatalogService(t, repo)

	if _, err := svc.CreateVariant(ctx, CreateVariantCommand{ProductID: "prd_1", ValueIDs: []string{"val_ghost"}}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input for unknown value id, got %v", err)
	}
	if _, err := svc.CreateVariant(ctx, CreateVariantCommand{ProductID: "prd_1", ValueIDs: []string{"val_red", "val_blue"}}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input for two values of one option, got %v", err)
	}
}

func TestCatalogServiceCreateVariantDuplicateKey(t *testing.T) {
	ctx := context.Background()
	repo := &stubCatalogRepo{
		createVariantFn: func(_ context.Context, variant domain.ProductVariant) error {
			return repositories.NewCatalogError(repositories.CatalogErrorDuplicateCombination, "key already taken", nil)
		},
	}
	shirtOptions(repo)
	svc := newTestCatalogService(t, repo)

	_, err := svc.CreateVariant(ctx, CreateVariantCommand{ProductID: "prd_1", ValueIDs: []string{"val_red"}})
	if !errors.Is(err, ErrCatalogDuplicateCombination) {
		t.Fatalf("expected duplicate combination, got %v", err)
	}
}

func TestCatalogServiceUpdateVariantRekeyAndInherit(t *testing.T) {
	ctx := context.Background()
	price := int64(1700)
	existing := domain.ProductVariant{
		ID:        "var_1",
		ProductID: "prd_1",
		Price:     &price,
		Stock:     5,
		Active:    true,
		OptionKey: "COLOR:RED",
		Values: []domain.VariantValue{
			{OptionID: "opt_color", OptionName: "COLOR", OptionPosition: 1, ValueID: "val_red", Value: "RED"},
		},
	}
	var updated domain.ProductVariant
	repo := &stubCatalogRepo{
		findVariantFn: func(_ context.Context, _ string, _ string) (domain.ProductVariant, error) {
			return existing, nil
		},
		updateVariantFn: func(_ context.Context, variant domain.ProductVariant) error {
			updated = variant
			return nil
		},
	}
	shirtOptions(repo)
	svc := newTestCatalogService(t, repo)

	valueIDs := []string{"val_blue"}
	variant, err := svc.UpdateVariant(ctx, UpdateVariantCommand{
		ProductID:    "prd_1",
		VariantID:    "var_1",
		InheritPrice: true,
		ValueIDs:     &valueIDs,
	})
	if err != nil {
		t.Fatalf("update variant: %v", err)
	}
	if variant.OptionKey != "COLOR:BLUE" {
		t.Fatalf("expected re-keyed variant, got %s", variant.OptionKey)
	}
	if variant.Price != nil {
		t.Fatalf("expected price cleared, got %v", *variant.Price)
	}
	if updated.Stock != 5 || !updated.Active {
		t.Fatalf("untouched fields must survive, got %+v", updated)
	}
}

func TestCatalogServiceDeleteVariantConflict(t *testing.T) {
	ctx := context.Background()
	repo := &stubCatalogRepo{
		deleteVariantFn: func(_ context.Context, _ string, _ string) error {
			return repositories.NewCatalogError(repositories.CatalogErrorReferentialConflict, "variant referenced by sales", nil)
		},
	}
	svc := newTestCatalogService(t, repo)

	if err := svc.DeleteVariant(ctx, "prd_1", "var_1"); !errors.Is(err, ErrCatalogConflict) {
		t.Fatalf("expected referential conflict, got %v", err)
	}
}

func TestCatalogServiceListPublicProducts(t *testing.T) {
	ctx := context.Background()
	repo := &stubCatalogRepo{
		listProductsFn: func(_ context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
			if !filter.ActiveOnly {
				t.Fatalf("public listing must only cover active products")
			}
			return domain.CursorPage[domain.Product]{
				Items:         []domain.Product{{ID: "prd_1", Name: "Shirt", Active: true}},
				NextPageToken: "next",
			}, nil
		},
		listVariantsFn: func(_ context.Context, productID string) ([]domain.ProductVariant, error) {
			return []domain.ProductVariant{
				{ID: "var_1", ProductID: productID, Active: true, OptionKey: "COLOR:RED"},
				{ID: "var_2", ProductID: productID, Active: false, OptionKey: "COLOR:BLUE"},
			}, nil
		},
	}
	svc := newTestCatalogService(t, repo)

	page, err := svc.ListPublicProducts(ctx, domain.Pagination{PageSize: 10})
	if err != nil {
		t.Fatalf("list public products: %v", err)
	}
	if len(page.Items) != 1 || page.NextPageToken != "next" {
		t.Fatalf("unexpected page %+v", page)
	}
	variants := page.Items[0].Variants
	if len(variants) != 1 || variants[0].ID != "var_1" {
		t.Fatalf("inactive variants must be filtered, got %+v", variants)
	}
}
