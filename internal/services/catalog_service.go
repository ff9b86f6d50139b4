package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/tiendafacil/api/internal/domain"
	"github.com/tiendafacil/api/internal/repositories"
)

const (
	productIDPrefix     = "prd_"
	optionIDPrefix      = "opt_"
	optionValueIDPrefix = "val_"
	variantIDPrefix     = "var_"
)

var (
	// ErrCatalogInvalidInput signals the caller provided invalid data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the product, option or variant could not be located.
	ErrCatalogNotFound = errors.New("catalog: not found")
	// ErrCatalogDuplicateCombination indicates the option combination is already taken.
	ErrCatalogDuplicateCombination = errors.New("catalog: duplicate option combination")
	// ErrCatalogConflict indicates the record is referenced by existing sales.
	ErrCatalogConflict = errors.New("catalog: referential conflict")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Catalog     repositories.CatalogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	catalog repositories.CatalogRepository
	clock   func() time.Time
	newID   func() string
	logger  func(context.Context, string, map[string]any)
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
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

	return &catalogService{
		catalog: deps.Catalog,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", ErrCatalogInvalidInput)
	}
	if cmd.Price < 0 {
		return domain.Product{}, fmt.Errorf("%w: price must not be negative", ErrCatalogInvalidInput)
	}
	if cmd.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", ErrCatalogInvalidInput)
	}

	now := s.clock()
	product := domain.Product{
		ID:        productIDPrefix + s.newID(),
		Name:      name,
		Price:     cmd.Price,
		Stock:     cmd.Stock,
		Active:    cmd.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.catalog.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "catalog.product.created", map[string]any{"product": product.ID})
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.Product, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	product, err := s.catalog.FindProductByID(ctx, productID)
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: product name must not be empty", ErrCatalogInvalidInput)
		}
		product.Name = name
	}
	if cmd.Price != nil {
		if *cmd.Price < 0 {
			return domain.Product{}, fmt.Errorf("%w: price must not be negative", ErrCatalogInvalidInput)
		}
		product.Price = *cmd.Price
	}
	if cmd.Stock != nil {
		if *cmd.Stock < 0 {
			return domain.Product{}, fmt.Errorf("%w: stock must not be negative", ErrCatalogInvalidInput)
		}
		product.Stock = *cmd.Stock
	}
	if cmd.Active != nil {
		product.Active = *cmd.Active
	}
	product.UpdatedAt = s.clock()

	if err := s.catalog.UpdateProduct(ctx, product); err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.catalog.FindProductByID(ctx, productID)
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, query ProductListQuery) (domain.CursorPage[domain.Product], error) {
	page, err := s.catalog.ListProducts(ctx, repositories.ProductListFilter{
		ActiveOnly: query.ActiveOnly,
		Pagination: query.Pagination,
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *catalogService) ListPublicProducts(ctx context.Context, pager domain.Pagination) (domain.CursorPage[ProductWithVariants], error) {
	page, err := s.catalog.ListProducts(ctx, repositories.ProductListFilter{
		ActiveOnly: true,
		Pagination: pager,
	})
	if err != nil {
		return domain.CursorPage[ProductWithVariants]{}, s.mapRepositoryError(err)
	}

	out := domain.CursorPage[ProductWithVariants]{
		Items:         make([]ProductWithVariants, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, product := range page.Items {
		variants, err := s.catalog.ListVariants(ctx, product.ID)
		if err != nil {
			return domain.CursorPage[ProductWithVariants]{}, s.mapRepositoryError(err)
		}
		active := make([]domain.ProductVariant, 0, len(variants))
		for _, variant := range variants {
			if variant.Active {
				active = append(active, variant)
			}
		}
		out.Items = append(out.Items, ProductWithVariants{Product: product, Variants: active})
	}
	return out, nil
}

func (s *catalogService) AddOption(ctx context.Context, cmd AddOptionCommand) (domain.ProductOption, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.ProductOption{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	name := domain.NormalizeOptionTerm(cmd.Name)
	if name == "" {
		return domain.ProductOption{}, fmt.Errorf("%w: option name is required", ErrCatalogInvalidInput)
	}
	if cmd.Position < 0 {
		return domain.ProductOption{}, fmt.Errorf("%w: option position must not be negative", ErrCatalogInvalidInput)
	}

	option := domain.ProductOption{
		ID:        optionIDPrefix + s.newID(),
		ProductID: productID,
		Name:      name,
		Position:  cmd.Position,
		CreatedAt: s.clock(),
	}
	if err := s.catalog.CreateOption(ctx, option); err != nil {
		return domain.ProductOption{}, s.mapRepositoryError(err)
	}
	return option, nil
}

func (s *catalogService) AddOptionValue(ctx context.Context, cmd AddOptionValueCommand) (domain.ProductOptionValue, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.ProductOptionValue{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	optionID := strings.TrimSpace(cmd.OptionID)
	if optionID == "" {
		return domain.ProductOptionValue{}, fmt.Errorf("%w: option id is required", ErrCatalogInvalidInput)
	}
	value := domain.NormalizeOptionTerm(cmd.Value)
	if value == "" {
		return domain.ProductOptionValue{}, fmt.Errorf("%w: value is required", ErrCatalogInvalidInput)
	}

	optionValue := domain.ProductOptionValue{
		ID:        optionValueIDPrefix + s.newID(),
		OptionID:  optionID,
		Value:     value,
		HexColor:  strings.ToUpper(strings.TrimSpace(cmd.HexColor)),
		CreatedAt: s.clock(),
	}
	if err := s.catalog.CreateOptionValue(ctx, productID, optionValue); err != nil {
		return domain.ProductOptionValue{}, s.mapRepositoryError(err)
	}
	return optionValue, nil
}

func (s *catalogService) ListOptions(ctx context.Context, productID string) ([]OptionWithValues, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	options, err := s.catalog.ListOptions(ctx, productID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}

	out := make([]OptionWithValues, 0, len(options))
	for _, option := range options {
		values, err := s.catalog.ListOptionValues(ctx, productID, option.ID)
		if err != nil {
			return nil, s.mapRepositoryError(err)
		}
		out = append(out, OptionWithValues{Option: option, Values: values})
	}
	return out, nil
}

func (s *catalogService) CreateVariant(ctx context.Context, cmd CreateVariantCommand) (domain.ProductVariant, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.ProductVariant{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if cmd.Stock < 0 {
		return domain.ProductVariant{}, fmt.Errorf("%w: stock must not be negative", ErrCatalogInvalidInput)
	}
	if cmd.Price != nil && *cmd.Price < 0 {
		return domain.ProductVariant{}, fmt.Errorf("%w: price must not be negative", ErrCatalogInvalidInput)
	}

	values, err := s.resolveVariantValues(ctx, productID, cmd.ValueIDs)
	if err != nil {
		return domain.ProductVariant{}, err
	}

	now := s.clock()
	variant := domain.ProductVariant{
		ID:        variantIDPrefix + s.newID(),
		ProductID: productID,
		SKU:       strings.TrimSpace(cmd.SKU),
		Price:     cmd.Price,
		Stock:     cmd.Stock,
		Active:    cmd.Active,
		OptionKey: domain.VariantOptionKey(values),
		Values:    values,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.catalog.CreateVariant(ctx, variant); err != nil {
		return domain.ProductVariant{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "catalog.variant.created", map[string]any{
		"product": productID,
		"variant": variant.ID,
		"key":     variant.OptionKey,
	})
	return variant, nil
}

func (s *catalogService) UpdateVariant(ctx context.Context, cmd UpdateVariantCommand) (domain.ProductVariant, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	variantID := strings.TrimSpace(cmd.VariantID)
	if productID == "" || variantID == "" {
		return domain.ProductVariant{}, fmt.Errorf("%w: product and variant ids are required", ErrCatalogInvalidInput)
	}

	variant, err := s.catalog.FindVariantByID(ctx, productID, variantID)
	if err != nil {
		return domain.ProductVariant{}, s.mapRepositoryError(err)
	}

	if cmd.SKU != nil {
		variant.SKU = strings.TrimSpace(*cmd.SKU)
	}
	if cmd.InheritPrice {
		variant.Price = nil
	} else if cmd.Price != nil {
		if *cmd.Price < 0 {
			return domain.ProductVariant{}, fmt.Errorf("%w: price must not be negative", ErrCatalogInvalidInput)
		}
		variant.Price = cmd.Price
	}
	if cmd.Stock != nil {
		if *cmd.Stock < 0 {
			return domain.ProductVariant{}, fmt.Errorf("%w: stock must not be negative", ErrCatalogInvalidInput)
		}
		variant.Stock = *cmd.Stock
	}
	if cmd.Active != nil {
		variant.Active = *cmd.Active
	}
	if cmd.ValueIDs != nil {
		values, err := s.resolveVariantValues(ctx, productID, *cmd.ValueIDs)
		if err != nil {
			return domain.ProductVariant{}, err
		}
		variant.Values = values
		variant.OptionKey = domain.VariantOptionKey(values)
	}
	variant.UpdatedAt = s.clock()

	if err := s.catalog.UpdateVariant(ctx, variant); err != nil {
		return domain.ProductVariant{}, s.mapRepositoryError(err)
	}
	return variant, nil
}

func (s *catalogService) DeleteVariant(ctx context.Context, productID string, variantID string) error {
	productID = strings.TrimSpace(productID)
	variantID = strings.TrimSpace(variantID)
	if productID == "" || variantID == "" {
		return fmt.Errorf("%w: product and variant ids are required", ErrCatalogInvalidInput)
	}
	if err := s.catalog.DeleteVariant(ctx, productID, variantID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *catalogService) ListVariants(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	variants, err := s.catalog.ListVariants(ctx, productID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return variants, nil
}

// resolveVariantValues maps value ids onto their options, enforcing that
// every id exists and that no option contributes more than one value.
func (s *catalogService) resolveVariantValues(ctx context.Context, productID string, valueIDs []string) ([]domain.VariantValue, error) {
	if len(valueIDs) == 0 {
		return nil, nil
	}

	options, err := s.catalog.ListOptions(ctx, productID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}

	type valueRef struct {
		option domain.ProductOption
		value  domain.ProductOptionValue
	}
	byValueID := make(map[string]valueRef)
	for _, option := range options {
		values, err := s.catalog.ListOptionValues(ctx, productID, option.ID)
		if err != nil {
			return nil, s.mapRepositoryError(err)
		}
		for _, value := range values {
			byValueID[value.ID] = valueRef{option: option, value: value}
		}
	}

	resolved := make([]domain.VariantValue, 0, len(valueIDs))
	usedOptions := make(map[string]string, len(valueIDs))
	for _, raw := range valueIDs {
		valueID := strings.TrimSpace(raw)
		if valueID == "" {
			return nil, fmt.Errorf("%w: value id must not be empty", ErrCatalogInvalidInput)
		}
		ref, ok := byValueID[valueID]
		if !ok {
			return nil, fmt.Errorf("%w: value %s does not belong to product %s", ErrCatalogInvalidInput, valueID, productID)
		}
		if prev, taken := usedOptions[ref.option.ID]; taken {
			return nil, fmt.Errorf("%w: option %s already has value %s", ErrCatalogInvalidInput, ref.option.Name, prev)
		}
		usedOptions[ref.option.ID] = ref.value.Value
		resolved = append(resolved, domain.VariantValue{
			OptionID:       ref.option.ID,
			OptionName:     ref.option.Name,
			OptionPosition: ref.option.Position,
			ValueID:        ref.value.ID,
			Value:          ref.value.Value,
		})
	}
	return resolved, nil
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var catalogErr *repositories.CatalogError
	if errors.As(err, &catalogErr) {
		switch catalogErr.Code {
		case repositories.CatalogErrorNotFound:
			return fmt.Errorf("%w: %v", ErrCatalogNotFound, err)
		case repositories.CatalogErrorDuplicateCombination:
			return fmt.Errorf("%w: %v", ErrCatalogDuplicateCombination, err)
		case repositories.CatalogErrorReferentialConflict:
			return fmt.Errorf("%w: %v", ErrCatalogConflict, err)
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCatalogNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrCatalogConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("catalog: repository unavailable: %w", err)
		}
	}

	return err
}
