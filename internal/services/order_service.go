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
	saleIDPrefix     = "sale_"
	saleItemIDPrefix = "itm_"
	historyIDPrefix  = "hst_"
	customerIDPrefix = "cus_"

	trackingCodeMaxAttempts = 5
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the sale or customer could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderUnknownReference indicates a line names a missing product or variant.
	ErrOrderUnknownReference = errors.New("order: unknown reference")
	// ErrOrderInactiveVariant indicates a line targets an inactive product or variant.
	ErrOrderInactiveVariant = errors.New("order: inactive reference")
	// ErrOrderInsufficientStock indicates available stock cannot cover a line.
	ErrOrderInsufficientStock = errors.New("order: insufficient stock")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderCodeGeneration indicates tracking code reservation kept colliding.
	ErrOrderCodeGeneration = errors.New("order: tracking code generation failed")
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Sales           repositories.SaleRepository
	Customers       repositories.CustomerRepository
	Codes           *TrackingCodeGenerator
	RestockOnCancel bool
	Clock           func() time.Time
	IDGenerator     func() string
	Events          OrderEventPublisher
	Logger          func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	sales           repositories.SaleRepository
	customers       repositories.CustomerRepository
	codes           *TrackingCodeGenerator
	restockOnCancel bool
	clock           func() time.Time
	newID           func() string
	events          OrderEventPublisher
	logger          func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Sales == nil {
		return nil, errors.New("order service: sale repository is required")
	}
	if deps.Customers == nil {
		return nil, errors.New("order service: customer repository is required")
	}

	codes := deps.Codes
	if codes == nil {
		codes = NewTrackingCodeGenerator()
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

	return &orderService{
		sales:           deps.Sales,
		customers:       deps.Customers,
		codes:           codes,
		restockOnCancel: deps.RestockOnCancel,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (domain.Sale, error) {
	source, err := normalizeSaleSource(cmd.Source)
	if err != nil {
		return domain.Sale{}, err
	}
	customerName := strings.TrimSpace(cmd.Customer.Name)
	if customerName == "" {
		return domain.Sale{}, fmt.Errorf("%w: customer name is required", ErrOrderInvalidInput)
	}
	if len(cmd.Lines) == 0 {
		return domain.Sale{}, fmt.Errorf("%w: order must contain at least one line", ErrOrderInvalidInput)
	}

	lines := make([]repositories.SaleLine, 0, len(cmd.Lines))
	for i, line := range cmd.Lines {
		productID := strings.TrimSpace(line.ProductID)
		if productID == "" {
			return domain.Sale{}, fmt.Errorf("%w: line %d is missing a product id", ErrOrderInvalidInput, i)
		}
		if line.Quantity <= 0 {
			return domain.Sale{}, fmt.Errorf("%w: line %d quantity must be positive", ErrOrderInvalidInput, i)
		}
		lines = append(lines, repositories.SaleLine{
			ProductID: productID,
			VariantID: strings.TrimSpace(line.VariantID),
			Quantity:  line.Quantity,
		})
	}

	// Storefront orders await payment; back-office sales are recorded as
	// already completed over the counter.
	status := domain.SaleStatusPending
	if source == domain.SaleSourceAdmin {
		status = domain.SaleStatusCompleted
	}

	now := s.clock()

	req := repositories.CreateSaleRequest{
		SaleID:    saleIDPrefix + s.newID(),
		HistoryID: historyIDPrefix + s.newID(),
		Status:    status,
		Source:    source,
		Customer: repositories.CustomerInput{
			Name:           customerName,
			Email:          strings.TrimSpace(cmd.Customer.Email),
			Address:        strings.TrimSpace(cmd.Customer.Address),
			Phone:          strings.TrimSpace(cmd.Customer.Phone),
			DocumentNumber: strings.TrimSpace(cmd.Customer.DocumentNumber),
		},
		CustomerID:  customerIDPrefix + s.newID(),
		Lines:       lines,
		PerformedBy: strings.TrimSpace(cmd.ActorID),
		Now:         now,
	}
	req.ItemIDs = make([]string, len(lines))
	for i := range req.ItemIDs {
		req.ItemIDs[i] = saleItemIDPrefix + s.newID()
	}

	var sale domain.Sale
	for attempt := 0; ; attempt++ {
		if attempt == trackingCodeMaxAttempts {
			return domain.Sale{}, fmt.Errorf("%w: gave up after %d attempts", ErrOrderCodeGeneration, attempt)
		}

		code, err := s.codes.Generate()
		if err != nil {
			return domain.Sale{}, fmt.Errorf("%w: %v", ErrOrderCodeGeneration, err)
		}
		req.TrackingCode = code

		sale, err = s.sales.CreateSale(ctx, req)
		if err == nil {
			break
		}
		var saleErr *repositories.SaleError
		if errors.As(err, &saleErr) && saleErr.Code == repositories.SaleErrorCodeCollision {
			s.logger(ctx, "order.tracking_code.collision", map[string]any{
				"code":    code,
				"attempt": attempt + 1,
			})
			continue
		}
		return domain.Sale{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEventMessage{
		Event:        EventOrderCreated,
		SaleID:       sale.ID,
		TrackingCode: sale.TrackingCode,
		Source:       sale.Source,
		Status:       sale.Status,
		ActorID:      req.PerformedBy,
		OccurredAt:   now,
	})

	return sale, nil
}

func (s *orderService) GetOrder(ctx context.Context, saleID string) (domain.Sale, error) {
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.Sale{}, fmt.Errorf("%w: sale id is required", ErrOrderInvalidInput)
	}
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return domain.Sale{}, s.mapRepositoryError(err)
	}
	return sale, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Sale], error) {
	repoFilter := repositories.SaleListFilter{
		Pagination: filter.Pagination,
		SaleDate: domain.RangeQuery[time.Time]{
			From: filter.From,
			To:   filter.To,
		},
	}
	if filter.Status != "" {
		status, ok := domain.ParseSaleStatus(string(filter.Status))
		if !ok {
			return domain.CursorPage[domain.Sale]{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, filter.Status)
		}
		repoFilter.Status = status
	}
	if filter.Source != "" {
		source, err := normalizeSaleSource(filter.Source)
		if err != nil {
			return domain.CursorPage[domain.Sale]{}, err
		}
		repoFilter.Source = source
	}

	page, err := s.sales.List(ctx, repoFilter)
	if err != nil {
		return domain.CursorPage[domain.Sale]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *orderService) ListHistory(ctx context.Context, saleID string) ([]domain.SaleHistory, error) {
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return nil, fmt.Errorf("%w: sale id is required", ErrOrderInvalidInput)
	}
	entries, err := s.sales.ListHistory(ctx, saleID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return entries, nil
}

func (s *orderService) TransitionStatus(ctx context.Context, cmd TransitionStatusCommand) (domain.Sale, error) {
	saleID := strings.TrimSpace(cmd.SaleID)
	if saleID == "" {
		return domain.Sale{}, fmt.Errorf("%w: sale id is required", ErrOrderInvalidInput)
	}
	target, ok := domain.ParseSaleStatus(string(cmd.Target))
	if !ok {
		return domain.Sale{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.Target)
	}

	current, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return domain.Sale{}, s.mapRepositoryError(err)
	}

	return s.transition(ctx, current, target, cmd.Comment, strings.TrimSpace(cmd.ActorID))
}

func (s *orderService) ConfirmPublicPayment(ctx context.Context, saleID string) (domain.Sale, error) {
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.Sale{}, fmt.Errorf("%w: sale id is required", ErrOrderInvalidInput)
	}

	current, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return domain.Sale{}, s.mapRepositoryError(err)
	}
	// The public endpoint may only confirm payment on a pending order. Any
	// other state is rejected here, before touching the status machine.
	if current.Status != domain.SaleStatusPending {
		return domain.Sale{}, fmt.Errorf("%w: payment can only be confirmed while pending, sale is %s", ErrOrderInvalidState, current.Status)
	}

	return s.transition(ctx, current, domain.SaleStatusPaid, "payment confirmed", "public")
}

func (s *orderService) transition(ctx context.Context, current domain.Sale, target domain.SaleStatus, comment string, actor string) (domain.Sale, error) {
	now := s.clock()

	sale, err := s.sales.TransitionStatus(ctx, repositories.TransitionSaleRequest{
		SaleID:      current.ID,
		HistoryID:   historyIDPrefix + s.newID(),
		Target:      target,
		Comment:     strings.TrimSpace(comment),
		PerformedBy: actor,
		Restock:     s.restockOnCancel && target == domain.SaleStatusCanceled,
		Now:         now,
	})
	if err != nil {
		return domain.Sale{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEventMessage{
		Event:          EventOrderStatusChanged,
		SaleID:         sale.ID,
		TrackingCode:   sale.TrackingCode,
		Source:         sale.Source,
		Status:         sale.Status,
		PreviousStatus: current.Status,
		ActorID:        actor,
		OccurredAt:     now,
	})

	return sale, nil
}

func (s *orderService) FindOrderByCode(ctx context.Context, trackingCode string) (domain.Sale, error) {
	trackingCode = strings.TrimSpace(trackingCode)
	if trackingCode == "" {
		return domain.Sale{}, fmt.Errorf("%w: tracking code is required", ErrOrderInvalidInput)
	}

	sale, err := s.sales.FindByTrackingCode(ctx, trackingCode)
	if err != nil {
		return domain.Sale{}, s.mapRepositoryError(err)
	}
	return sale, nil
}

func (s *orderService) TrackOrder(ctx context.Context, trackingCode string) (OrderTrackingView, error) {
	trackingCode = strings.TrimSpace(trackingCode)
	if trackingCode == "" {
		return OrderTrackingView{}, fmt.Errorf("%w: tracking code is required", ErrOrderInvalidInput)
	}

	sale, err := s.sales.FindByTrackingCode(ctx, trackingCode)
	if err != nil {
		return OrderTrackingView{}, s.mapRepositoryError(err)
	}

	view := OrderTrackingView{
		TrackingCode: sale.TrackingCode,
		Status:       sale.Status,
		SaleDate:     sale.SaleDate,
		Total:        sale.Total,
		Items:        make([]OrderTrackingItem, 0, len(sale.Items)),
	}
	for _, item := range sale.Items {
		view.Items = append(view.Items, OrderTrackingItem{
			ProductName: item.ProductName,
			OptionKey:   item.OptionKey,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}

	entries, err := s.sales.ListHistory(ctx, sale.ID)
	if err != nil {
		return OrderTrackingView{}, s.mapRepositoryError(err)
	}
	view.History = make([]OrderTrackingEvent, 0, len(entries))
	for _, entry := range entries {
		view.History = append(view.History, OrderTrackingEvent{
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			Comment:        entry.Comment,
			OccurredAt:     entry.CreatedAt,
		})
	}
	return view, nil
}

func (s *orderService) GetCustomer(ctx context.Context, customerID string) (domain.Customer, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.Customer{}, fmt.Errorf("%w: customer id is required", ErrOrderInvalidInput)
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return domain.Customer{}, s.mapRepositoryError(err)
	}
	return customer, nil
}

func (s *orderService) ListCustomers(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Customer], error) {
	page, err := s.customers.List(ctx, pager)
	if err != nil {
		return domain.CursorPage[domain.Customer]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var saleErr *repositories.SaleError
	if errors.As(err, &saleErr) {
		switch saleErr.Code {
		case repositories.SaleErrorNotFound:
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repositories.SaleErrorUnknownReference:
			return fmt.Errorf("%w: %v", ErrOrderUnknownReference, err)
		case repositories.SaleErrorInactiveVariant:
			return fmt.Errorf("%w: %v", ErrOrderInactiveVariant, err)
		case repositories.SaleErrorInsufficientStock:
			// Keep the typed error in the chain so callers can surface the
			// available and requested quantities.
			return fmt.Errorf("%w: %w", ErrOrderInsufficientStock, err)
		case repositories.SaleErrorInvalidTransition:
			return fmt.Errorf("%w: %v", ErrOrderInvalidState, err)
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *orderService) publishEvent(ctx context.Context, message OrderEventMessage) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishOrderEvent(ctx, message); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"event":  message.Event,
			"sale":   message.SaleID,
			"status": string(message.Status),
			"error":  err.Error(),
		})
	}
}

func normalizeSaleSource(source domain.SaleSource) (domain.SaleSource, error) {
	normalized := domain.SaleSource(strings.ToUpper(strings.TrimSpace(string(source))))
	switch normalized {
	case domain.SaleSourceWeb, domain.SaleSourceAdmin:
		return normalized, nil
	default:
		return "", fmt.Errorf("%w: unknown sale source %q", ErrOrderInvalidInput, source)
	}
}
