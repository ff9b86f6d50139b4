package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tiendafacil/api/internal/platform/auth"
	"github.com/tiendafacil/api/internal/platform/httpx"
	"github.com/tiendafacil/api/internal/services"
)

// CatalogHandlers exposes the back-office catalog management endpoints.
type CatalogHandlers struct {
	verifier auth.TokenVerifier
	catalog  services.CatalogService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(verifier auth.TokenVerifier, catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{
		verifier: verifier,
		catalog:  catalog,
	}
}

// Routes registers the /catalog endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.verifier != nil {
		r.Use(auth.RequireSession(h.verifier, auth.RoleAdmin, auth.RoleMaintainer))
	}
	r.Route("/products", func(rt chi.Router) {
		rt.Get("/", h.listProducts)
		rt.Post("/", h.createProduct)
		rt.Route("/{productID}", func(rp chi.Router) {
			rp.Get("/", h.getProduct)
			rp.Patch("/", h.updateProduct)
			rp.Get("/options", h.listOptions)
			rp.Post("/options", h.addOption)
			rp.Post("/options/{optionID}/values", h.addOptionValue)
			rp.Get("/variants", h.listVariants)
			rp.Post("/variants", h.createVariant)
			rp.Patch("/variants/{variantID}", h.updateVariant)
			rp.Delete("/variants/{variantID}", h.deleteVariant)
		})
	})
}

type createProductRequest struct {
	Name   string `json:"name"`
	Price  int64  `json:"price"`
	Stock  int    `json:"stock"`
	Active bool   `json:"active"`
}

func (h *CatalogHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createProductRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(ctx, services.CreateProductCommand{
		Name:   req.Name,
		Price:  req.Price,
		Stock:  req.Stock,
		Active: req.Active,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildProductPayload(product))
}

type updateProductRequest struct {
	Name   *string `json:"name"`
	Price  *int64  `json:"price"`
	Stock  *int    `json:"stock"`
	Active *bool   `json:"active"`
}

func (h *CatalogHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	var req updateProductRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, services.UpdateProductCommand{
		ProductID: productID,
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
		Active:    req.Active,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}

type productListResponse struct {
	Items         []productPayload `json:"items"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	pager, ok := parsePagination(ctx, w, r)
	if !ok {
		return
	}

	activeOnly := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("active")), "true")
	page, err := h.catalog.ListProducts(ctx, services.ProductListQuery{
		ActiveOnly: activeOnly,
		Pagination: pager,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]productPayload, 0, len(page.Items))
	for _, product := range page.Items {
		items = append(items, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, productListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

type addOptionRequest struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

func (h *CatalogHandlers) addOption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	var req addOptionRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	option, err := h.catalog.AddOption(ctx, services.AddOptionCommand{
		ProductID: productID,
		Name:      req.Name,
		Position:  req.Position,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildOptionPayload(option))
}

type addOptionValueRequest struct {
	Value    string `json:"value"`
	HexColor string `json:"hexColor"`
}

func (h *CatalogHandlers) addOptionValue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	optionID := strings.TrimSpace(chi.URLParam(r, "optionID"))
	if productID == "" || optionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product and option ids are required", http.StatusBadRequest))
		return
	}

	var req addOptionValueRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	value, err := h.catalog.AddOptionValue(ctx, services.AddOptionValueCommand{
		ProductID: productID,
		OptionID:  optionID,
		Value:     req.Value,
		HexColor:  req.HexColor,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildOptionValuePayload(value))
}

type optionWithValuesPayload struct {
	Option optionPayload        `json:"option"`
	Values []optionValuePayload `json:"values"`
}

type optionListResponse struct {
	Items []optionWithValuesPayload `json:"items"`
}

func (h *CatalogHandlers) listOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	options, err := h.catalog.ListOptions(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]optionWithValuesPayload, 0, len(options))
	for _, entry := range options {
		values := make([]optionValuePayload, 0, len(entry.Values))
		for _, value := range entry.Values {
			values = append(values, buildOptionValuePayload(value))
		}
		items = append(items, optionWithValuesPayload{
			Option: buildOptionPayload(entry.Option),
			Values: values,
		})
	}
	writeJSONResponse(w, http.StatusOK, optionListResponse{Items: items})
}

type createVariantRequest struct {
	SKU      string   `json:"sku"`
	Price    *int64   `json:"price"`
	Stock    int      `json:"stock"`
	Active   bool     `json:"active"`
	ValueIDs []string `json:"valueIds"`
}

func (h *CatalogHandlers) createVariant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	var req createVariantRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	variant, err := h.catalog.CreateVariant(ctx, services.CreateVariantCommand{
		ProductID: productID,
		SKU:       req.SKU,
		Price:     req.Price,
		Stock:     req.Stock,
		Active:    req.Active,
		ValueIDs:  req.ValueIDs,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildVariantPayload(variant))
}

type updateVariantRequest struct {
	SKU          *string   `json:"sku"`
	Price        *int64    `json:"price"`
	InheritPrice bool      `json:"inheritPrice"`
	Stock        *int      `json:"stock"`
	Active       *bool     `json:"active"`
	ValueIDs     *[]string `json:"valueIds"`
}

func (h *CatalogHandlers) updateVariant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	variantID := strings.TrimSpace(chi.URLParam(r, "variantID"))
	if productID == "" || variantID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product and variant ids are required", http.StatusBadRequest))
		return
	}

	var req updateVariantRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	variant, err := h.catalog.UpdateVariant(ctx, services.UpdateVariantCommand{
		ProductID:    productID,
		VariantID:    variantID,
		SKU:          req.SKU,
		Price:        req.Price,
		InheritPrice: req.InheritPrice,
		Stock:        req.Stock,
		Active:       req.Active,
		ValueIDs:     req.ValueIDs,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildVariantPayload(variant))
}

func (h *CatalogHandlers) deleteVariant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	variantID := strings.TrimSpace(chi.URLParam(r, "variantID"))
	if productID == "" || variantID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product and variant ids are required", http.StatusBadRequest))
		return
	}

	if err := h.catalog.DeleteVariant(ctx, productID, variantID); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type variantListResponse struct {
	Items []variantPayload `json:"items"`
}

func (h *CatalogHandlers) listVariants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	variants, err := h.catalog.ListVariants(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]variantPayload, 0, len(variants))
	for _, variant := range variants {
		items = append(items, buildVariantPayload(variant))
	}
	writeJSONResponse(w, http.StatusOK, variantListResponse{Items: items})
}
