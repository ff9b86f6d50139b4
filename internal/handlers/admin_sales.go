package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/tiendafacil/api/internal/domain"
	"github.com/tiendafacil/api/internal/platform/auth"
	"github.com/tiendafacil/api/internal/platform/httpx"
	"github.com/tiendafacil/api/internal/services"
)

// SaleHandlers exposes the back-office sale endpoints.
type SaleHandlers struct {
	verifier auth.TokenVerifier
	orders   services.OrderService
}

// NewSaleHandlers constructs a new SaleHandlers instance.
func NewSaleHandlers(verifier auth.TokenVerifier, orders services.OrderService) *SaleHandlers {
	return &SaleHandlers{
		verifier: verifier,
		orders:   orders,
	}
}

// Routes registers the /sales endpoints.
func (h *SaleHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.verifier != nil {
		r.Use(auth.RequireSession(h.verifier, auth.RoleAdmin, auth.RoleCashier))
	}
	r.Get("/", h.listSales)
	r.Post("/", h.createSale)
	r.Get("/{saleID}", h.getSale)
	r.Get("/{saleID}/history", h.listHistory)
	r.Patch("/{saleID}/status", h.transitionStatus)
}

type saleListResponse struct {
	Items         []salePayload `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

func (h *SaleHandlers) listSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	pager, ok := parsePagination(ctx, w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	if code := strings.TrimSpace(query.Get("code")); code != "" {
		sale, err := h.orders.FindOrderByCode(ctx, code)
		if err != nil {
			writeOrderError(ctx, w, err)
			return
		}
		writeJSONResponse(w, http.StatusOK, saleListResponse{
			Items: []salePayload{buildSalePayload(sale)},
		})
		return
	}

	filter := services.OrderListFilter{
		Status:     domain.SaleStatus(strings.TrimSpace(query.Get("status"))),
		Source:     domain.SaleSource(strings.TrimSpace(query.Get("source"))),
		Pagination: pager,
	}
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "from must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		filter.From = &ts
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "to must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		filter.To = &ts
	}

	page, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]salePayload, 0, len(page.Items))
	for _, sale := range page.Items {
		items = append(items, buildSalePayload(sale))
	}
	writeJSONResponse(w, http.StatusOK, saleListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *SaleHandlers) createSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createOrderRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	actor := ""
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil {
		actor = identity.UserID
	}

	sale, err := h.orders.CreateOrder(ctx, req.command(domain.SaleSourceAdmin, actor))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildSalePayload(sale))
}

func (h *SaleHandlers) getSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	saleID := strings.TrimSpace(chi.URLParam(r, "saleID"))
	if saleID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "sale id is required", http.StatusBadRequest))
		return
	}

	sale, err := h.orders.GetOrder(ctx, saleID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildSalePayload(sale))
}

type saleHistoryResponse struct {
	Items []saleHistoryPayload `json:"items"`
}

func (h *SaleHandlers) listHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	saleID := strings.TrimSpace(chi.URLParam(r, "saleID"))
	if saleID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "sale id is required", http.StatusBadRequest))
		return
	}

	entries, err := h.orders.ListHistory(ctx, saleID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]saleHistoryPayload, 0, len(entries))
	for _, entry := range entries {
		items = append(items, buildSaleHistoryPayload(entry))
	}
	writeJSONResponse(w, http.StatusOK, saleHistoryResponse{Items: items})
}

type transitionStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

func (h *SaleHandlers) transitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	saleID := strings.TrimSpace(chi.URLParam(r, "saleID"))
	if saleID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "sale id is required", http.StatusBadRequest))
		return
	}

	var req transitionStatusRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status is required", http.StatusBadRequest))
		return
	}

	actor := ""
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil {
		actor = identity.UserID
	}

	sale, err := h.orders.TransitionStatus(ctx, services.TransitionStatusCommand{
		SaleID:  saleID,
		Target:  domain.SaleStatus(req.Status),
		Comment: req.Comment,
		ActorID: actor,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildSalePayload(sale))
}

// CustomerHandlers exposes the back-office customer endpoints.
type CustomerHandlers struct {
	verifier auth.TokenVerifier
	orders   services.OrderService
}

// NewCustomerHandlers constructs a new CustomerHandlers instance.
func NewCustomerHandlers(verifier auth.TokenVerifier, orders services.OrderService) *CustomerHandlers {
	return &CustomerHandlers{
		verifier: verifier,
		orders:   orders,
	}
}

// Routes registers the /customers endpoints.
func (h *CustomerHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.verifier != nil {
		r.Use(auth.RequireSession(h.verifier, auth.RoleAdmin, auth.RoleCashier))
	}
	r.Get("/", h.listCustomers)
	r.Get("/{customerID}", h.getCustomer)
}

type customerListResponse struct {
	Items         []customerPayload `json:"items"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

func (h *CustomerHandlers) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	pager, ok := parsePagination(ctx, w, r)
	if !ok {
		return
	}

	page, err := h.orders.ListCustomers(ctx, pager)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]customerPayload, 0, len(page.Items))
	for _, customer := range page.Items {
		items = append(items, buildCustomerPayload(customer))
	}
	writeJSONResponse(w, http.StatusOK, customerListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *CustomerHandlers) getCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	customerID := strings.TrimSpace(chi.URLParam(r, "customerID"))
	if customerID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "customer id is required", http.StatusBadRequest))
		return
	}

	customer, err := h.orders.GetCustomer(ctx, customerID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCustomerPayload(customer))
}
