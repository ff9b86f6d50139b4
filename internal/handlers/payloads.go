package handlers

import (
	"time"

	domain "github.com/tiendafacil/api/internal/domain"
	"github.com/tiendafacil/api/internal/services"
)

type saleItemPayload struct {
	ID          string `json:"id"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	VariantID   string `json:"variantId,omitempty"`
	OptionKey   string `json:"optionKey"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	LineTotal   int64  `json:"lineTotal"`
}

type salePayload struct {
	ID           string            `json:"id"`
	CustomerID   string            `json:"customerId"`
	CustomerName string            `json:"customerName"`
	SaleDate     time.Time         `json:"saleDate"`
	Total        int64             `json:"total"`
	Status       string            `json:"status"`
	Source       string            `json:"source"`
	TrackingCode string            `json:"trackingCode"`
	Items        []saleItemPayload `json:"items"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func buildSalePayload(sale domain.Sale) salePayload {
	items := make([]saleItemPayload, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, saleItemPayload{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			VariantID:   item.VariantID,
			OptionKey:   item.OptionKey,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return salePayload{
		ID:           sale.ID,
		CustomerID:   sale.CustomerID,
		CustomerName: sale.CustomerName,
		SaleDate:     sale.SaleDate,
		Total:        sale.Total,
		Status:       string(sale.Status),
		Source:       string(sale.Source),
		TrackingCode: sale.TrackingCode,
		Items:        items,
		CreatedAt:    sale.CreatedAt,
		UpdatedAt:    sale.UpdatedAt,
	}
}

type saleHistoryPayload struct {
	ID             string    `json:"id"`
	SaleID         string    `json:"saleId"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	NewStatus      string    `json:"newStatus"`
	Comment        string    `json:"comment,omitempty"`
	PerformedBy    string    `json:"performedBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func buildSaleHistoryPayload(entry domain.SaleHistory) saleHistoryPayload {
	return saleHistoryPayload{
		ID:             entry.ID,
		SaleID:         entry.SaleID,
		PreviousStatus: string(entry.PreviousStatus),
		NewStatus:      string(entry.NewStatus),
		Comment:        entry.Comment,
		PerformedBy:    entry.PerformedBy,
		CreatedAt:      entry.CreatedAt,
	}
}

type customerPayload struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Address        string    `json:"address,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	DocumentNumber string    `json:"documentNumber,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func buildCustomerPayload(customer domain.Customer) customerPayload {
	return customerPayload{
		ID:             customer.ID,
		Name:           customer.Name,
		Email:          customer.Email,
		Address:        customer.Address,
		Phone:          customer.Phone,
		DocumentNumber: customer.DocumentNumber,
		CreatedAt:      customer.CreatedAt,
		UpdatedAt:      customer.UpdatedAt,
	}
}

type productPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Stock:     product.Stock,
		Active:    product.Active,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

type optionPayload struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

func buildOptionPayload(option domain.ProductOption) optionPayload {
	return optionPayload{
		ID:        option.ID,
		ProductID: option.ProductID,
		Name:      option.Name,
		Position:  option.Position,
		CreatedAt: option.CreatedAt,
	}
}

type optionValuePayload struct {
	ID        string    `json:"id"`
	OptionID  string    `json:"optionId"`
	Value     string    `json:"value"`
	HexColor  string    `json:"hexColor,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func buildOptionValuePayload(value domain.ProductOptionValue) optionValuePayload {
	return optionValuePayload{
		ID:        value.ID,
		OptionID:  value.OptionID,
		Value:     value.Value,
		HexColor:  value.HexColor,
		CreatedAt: value.CreatedAt,
	}
}

type variantValuePayload struct {
	OptionID   string `json:"optionId"`
	OptionName string `json:"optionName"`
	ValueID    string `json:"valueId"`
	Value      string `json:"value"`
}

type variantPayload struct {
	ID        string                `json:"id"`
	ProductID string                `json:"productId"`
	SKU       string                `json:"sku,omitempty"`
	Price     *int64                `json:"price,omitempty"`
	Stock     int                   `json:"stock"`
	Active    bool                  `json:"active"`
	OptionKey string                `json:"optionKey"`
	Values    []variantValuePayload `json:"values"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

func buildVariantPayload(variant domain.ProductVariant) variantPayload {
	values := make([]variantValuePayload, 0, len(variant.Values))
	for _, value := range variant.Values {
		values = append(values, variantValuePayload{
			OptionID:   value.OptionID,
			OptionName: value.OptionName,
			ValueID:    value.ValueID,
			Value:      value.Value,
		})
	}
	return variantPayload{
		ID:        variant.ID,
		ProductID: variant.ProductID,
		SKU:       variant.SKU,
		Price:     variant.Price,
		Stock:     variant.Stock,
		Active:    variant.Active,
		OptionKey: variant.OptionKey,
		Values:    values,
		CreatedAt: variant.CreatedAt,
		UpdatedAt: variant.UpdatedAt,
	}
}

type trackingItemPayload struct {
	ProductName string `json:"productName"`
	OptionKey   string `json:"optionKey"`
	Quantity    int    `json:"quantity"`
	LineTotal   int64  `json:"lineTotal"`
}

type trackingEventPayload struct {
	PreviousStatus string    `json:"previousStatus,omitempty"`
	NewStatus      string    `json:"newStatus"`
	Comment        string    `json:"comment,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type trackingPayload struct {
	TrackingCode string                 `json:"trackingCode"`
	Status       string                 `json:"status"`
	SaleDate     time.Time              `json:"saleDate"`
	Total        int64                  `json:"total"`
	Items        []trackingItemPayload  `json:"items"`
	History      []trackingEventPayload `json:"history"`
}

func buildTrackingPayload(view services.OrderTrackingView) trackingPayload {
	items := make([]trackingItemPayload, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, trackingItemPayload{
			ProductName: item.ProductName,
			OptionKey:   item.OptionKey,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}
	history := make([]trackingEventPayload, 0, len(view.History))
	for _, event := range view.History {
		history = append(history, trackingEventPayload{
			PreviousStatus: string(event.PreviousStatus),
			NewStatus:      string(event.NewStatus),
			Comment:        event.Comment,
			OccurredAt:     event.OccurredAt,
		})
	}
	return trackingPayload{
		TrackingCode: view.TrackingCode,
		Status:       string(view.Status),
		SaleDate:     view.SaleDate,
		Total:        view.Total,
		Items:        items,
		History:      history,
	}
}
