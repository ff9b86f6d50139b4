package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	domain "github.com/tiendafacil/api/internal/domain"
	"github.com/tiendafacil/api/internal/services"
)

type stubOrderService struct {
	createFn        func(context.Context, services.CreateOrderCommand) (domain.Sale, error)
	getFn           func(context.Context, string) (domain.Sale, error)
	findByCodeFn    func(context.Context, string) (domain.Sale, error)
	listFn          func(context.Context, services.OrderListFilter) (domain.CursorPage[domain.Sale], error)
	historyFn       func(context.Context, string) ([]domain.SaleHistory, error)
	transitionFn    func(context.Context, services.TransitionStatusCommand) (domain.Sale, error)
	confirmFn       func(context.Context, string) (domain.Sale, error)
	trackFn         func(context.Context, string) (services.OrderTrackingView, error)
	getCustomerFn   func(context.Context, string) (domain.Customer, error)
	listCustomersFn func(context.Context, domain.Pagination) (domain.CursorPage[domain.Customer], error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (domain.Sale, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return domain.Sale{}, errors.New("not implemented")
}

func (s *stubOrderService) GetOrder(ctx context.Context, saleID string) (domain.Sale, error) {
	if s.getFn != nil {
		return s.getFn(ctx, saleID)
	}
	return domain.Sale{}, errors.New("not implemented")
}

func (s *stubOrderService) FindOrderByCode(ctx context.Context, trackingCode string) (domain.Sale, error) {
	if s.findByCodeFn != nil {
		return s.findByCodeFn(ctx, trackingCode)
	}
	return domain.Sale{}, errors.New("not implemented")
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[domain.Sale], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.Sale]{}, nil
}

func (s *stubOrderService) ListHistory(ctx context.Context, saleID string) ([]domain.SaleHistory, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, saleID)
	}
	return nil, nil
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, cmd services.TransitionStatusCommand) (domain.Sale, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, cmd)
	}
	return domain.Sale{}, errors.New("not implemented")
}

func (s *stubOrderService) ConfirmPublicPayment(ctx context.Context, saleID string) (domain.Sale, error) {
	if s.confirmFn != nil {
		return s.confirmFn(ctx, saleID)
	}
	return domain.Sale{}, errors.New("not implemented")
}

func (s *stubOrderService) TrackOrder(ctx context.Context, code string) (services.OrderTrackingView, error) {
	if s.trackFn != nil {
		return s.trackFn(ctx, code)
	}
	return services.OrderTrackingView{}, errors.New("not implemented")
}

func (s *stubOrderService) GetCustomer(ctx context.Context, customerID string) (domain.Customer, error) {
	if s.getCustomerFn != nil {
		return s.getCustomerFn(ctx, customerID)
	}
	return domain.Customer{}, errors.New("not implemented")
}

func (s *stubOrderService) ListCustomers(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Customer], error) {
	if s.listCustomersFn != nil {
		return s.listCustomersFn(ctx, pager)
	}
	return domain.CursorPage[domain.Customer]{}, nil
}

type stubCatalogService struct {
	createProductFn  func(context.Context, services.CreateProductCommand) (domain.Product, error)
	updateProductFn  func(context.Context, services.UpdateProductCommand) (domain.Product, error)
	getProductFn     func(context.Context, string) (domain.Product, error)
	listProductsFn   func(context.Context, services.ProductListQuery) (domain.CursorPage[domain.Product], error)
	listPublicFn     func(context.Context, domain.Pagination) (domain.CursorPage[services.ProductWithVariants], error)
	addOptionFn      func(context.Context, services.AddOptionCommand) (domain.ProductOption, error)
	addOptionValueFn func(context.Context, services.AddOptionValueCommand) (domain.ProductOptionValue, error)
	listOptionsFn    func(context.Context, string) ([]services.OptionWithValues, error)
	createVariantFn  func(context.Context, services.CreateVariantCommand) (domain.ProductVariant, error)
	updateVariantFn  func(context.Context, services.UpdateVariantCommand) (domain.ProductVariant, error)
	deleteVariantFn  func(context.Context, string, string) error
	listVariantsFn   func(context.Context, string) ([]domain.ProductVariant, error)
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, cmd services.CreateProductCommand) (domain.Product, error) {
	if s.createProductFn != nil {
		return s.createProductFn(ctx, cmd)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, cmd services.UpdateProductCommand) (domain.Product, error) {
	if s.updateProductFn != nil {
		return s.updateProductFn(ctx, cmd)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.getProductFn != nil {
		return s.getProductFn(ctx, productID)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubCatalogService) ListProducts(ctx context.Context, query services.ProductListQuery) (domain.CursorPage[domain.Product], error) {
	if s.listProductsFn != nil {
		return s.listProductsFn(ctx, query)
	}
	return domain.CursorPage[domain.Product]{}, nil
}

func (s *stubCatalogService) ListPublicProducts(ctx context.Context, pager domain.Pagination) (domain.CursorPage[services.ProductWithVariants], error) {
	if s.listPublicFn != nil {
		return s.listPublicFn(ctx, pager)
	}
	return domain.CursorPage[services.ProductWithVariants]{}, nil
}

func (s *stubCatalogService) AddOption(ctx context.Context, cmd services.AddOptionCommand) (domain.ProductOption, error) {
	if s.addOptionFn != nil {
		return s.addOptionFn(ctx, cmd)
	}
	return domain.ProductOption{}, errors.New("not implemented")
}

func (s *stubCatalogService) AddOptionValue(ctx context.Context, cmd services.AddOptionValueCommand) (domain.ProductOptionValue, error) {
	if s.addOptionValueFn != nil {
		return s.addOptionValueFn(ctx, cmd)
	}
	return domain.ProductOptionValue{}, errors.New("not implemented")
}

func (s *stubCatalogService) ListOptions(ctx context.Context, productID string) ([]services.OptionWithValues, error) {
	if s.listOptionsFn != nil {
		return s.listOptionsFn(ctx, productID)
	}
	return nil, nil
}

func (s *stubCatalogService) CreateVariant(ctx context.Context, cmd services.CreateVariantCommand) (domain.ProductVariant, error) {
	if s.createVariantFn != nil {
		return s.createVariantFn(ctx, cmd)
	}
	return domain.ProductVariant{}, errors.New("not implemented")
}

func (s *stubCatalogService) UpdateVariant(ctx context.Context, cmd services.UpdateVariantCommand) (domain.ProductVariant, error) {
	if s.updateVariantFn != nil {
		return s.updateVariantFn(ctx, cmd)
	}
	return domain.ProductVariant{}, errors.New("not implemented")
}

func (s *stubCatalogService) DeleteVariant(ctx context.Context, productID string, variantID string) error {
	if s.deleteVariantFn != nil {
		return s.deleteVariantFn(ctx, productID, variantID)
	}
	return nil
}

func (s *stubCatalogService) ListVariants(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	if s.listVariantsFn != nil {
		return s.listVariantsFn(ctx, productID)
	}
	return nil, nil
}

type stubSessionService struct {
	loginFn func(context.Context, string, string) (services.Session, error)
}

func (s *stubSessionService) Login(ctx context.Context, username string, password string) (services.Session, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, username, password)
	}
	return services.Session{}, errors.New("not implemented")
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	code, _ := payload["error"].(string)
	return code
}
