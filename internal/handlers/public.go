package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/tiendafacil/api/internal/domain"
	"github.com/tiendafacil/api/internal/platform/httpx"
	"github.com/tiendafacil/api/internal/services"
)

// PublicHandlers exposes the unauthenticated storefront surface: product
// browsing, order placement, payment confirmation and tracking.
type PublicHandlers struct {
	orders  services.OrderService
	catalog services.CatalogService
	limiter rateLimiter
}

// NewPublicHandlers constructs a new PublicHandlers instance.
func NewPublicHandlers(orders services.OrderService, catalog services.CatalogService) *PublicHandlers {
	return &PublicHandlers{
		orders:  orders,
		catalog: catalog,
		limiter: newSimpleRateLimiter(30, time.Minute, nil),
	}
}

// Routes registers the /public endpoints.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Post("/orders", h.createOrder)
	r.Post("/orders/{saleID}/payment", h.confirmPayment)
	r.Get("/track/{code}", h.trackOrder)
}

type publicProductPayload struct {
	Product  productPayload   `json:"product"`
	Variants []variantPayload `json:"variants"`
}

type publicProductListResponse struct {
	Items         []publicProductPayload `json:"items"`
	NextPageToken string                 `json:"nextPageToken,omitempty"`
}

func (h *PublicHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	pager, ok := parsePagination(ctx, w, r)
	if !ok {
		return
	}

	page, err := h.catalog.ListPublicProducts(ctx, pager)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]publicProductPayload, 0, len(page.Items))
	for _, entry := range page.Items {
		variants := make([]variantPayload, 0, len(entry.Variants))
		for _, variant := range entry.Variants {
			variants = append(variants, buildVariantPayload(variant))
		}
		items = append(items, publicProductPayload{
			Product:  buildProductPayload(entry.Product),
			Variants: variants,
		})
	}
	writeJSONResponse(w, http.StatusOK, publicProductListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

type orderCustomerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	DocumentNumber string `json:"documentNumber"`
}

type orderLineRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Customer orderCustomerRequest `json:"customer"`
	Lines    []orderLineRequest   `json:"lines"`
}

func (req createOrderRequest) command(source domain.SaleSource, actor string) services.CreateOrderCommand {
	lines := make([]services.OrderLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, services.OrderLineInput{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
	}
	return services.CreateOrderCommand{
		Source: source,
		Customer: services.CustomerDetails{
			Name:           req.Customer.Name,
			Email:          req.Customer.Email,
			Address:        req.Customer.Address,
			Phone:          req.Customer.Phone,
			DocumentNumber: req.Customer.DocumentNumber,
		},
		Lines:   lines,
		ActorID: actor,
	}
}

func (h *PublicHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.limiter != nil && !h.limiter.Allow(r.RemoteAddr) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
		return
	}

	var req createOrderRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	sale, err := h.orders.CreateOrder(ctx, req.command(domain.SaleSourceWeb, "public"))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildSalePayload(sale))
}

func (h *PublicHandlers) confirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.limiter != nil && !h.limiter.Allow(r.RemoteAddr) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
		return
	}

	saleID := strings.TrimSpace(chi.URLParam(r, "saleID"))
	if saleID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "sale id is required", http.StatusBadRequest))
		return
	}

	sale, err := h.orders.ConfirmPublicPayment(ctx, saleID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildSalePayload(sale))
}

func (h *PublicHandlers) trackOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "tracking code is required", http.StatusBadRequest))
		return
	}

	view, err := h.orders.TrackOrder(ctx, code)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildTrackingPayload(view))
}
