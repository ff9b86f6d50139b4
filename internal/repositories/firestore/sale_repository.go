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
	trackingCodesCollection = "trackingCodes"
	historyCollection       = "history"
)

// SaleRepository persists sales in Firestore. Creation and status changes
// each run inside a single transaction so stock, tracking code uniqueness,
// customer upserts and history stay consistent under concurrent writers.
type SaleRepository struct {
	provider *pfirestore.Provider
	sales    *pfirestore.BaseRepository[saleDocument]
}

var _ repositories.SaleRepository = (*SaleRepository)(nil)

func NewSaleRepository(provider *pfirestore.Provider) (*SaleRepository, error) {
	if provider == nil {
		return nil, errors.New("sale repository requires firestore provider")
	}
	sales := pfirestore.NewBaseRepository[saleDocument](provider, salesCollection)
	return &SaleRepository{provider: provider, sales: sales}, nil
}

// stockTarget identifies one product or variant stock pool touched by a sale.
type stockTarget struct {
	productID string
	variantID string
}

func (r *SaleRepository) CreateSale(ctx context.Context, req repositories.CreateSaleRequest) (domain.Sale, error) {
	if r == nil || r.provider == nil {
		return domain.Sale{}, errors.New("sale repository not initialised")
	}
	if strings.TrimSpace(req.SaleID) == "" {
		return domain.Sale{}, errors.New("sale create: sale id is required")
	}
	if strings.TrimSpace(req.TrackingCode) == "" {
		return domain.Sale{}, errors.New("sale create: tracking code is required")
	}
	if strings.TrimSpace(req.HistoryID) == "" {
		return domain.Sale{}, errors.New("sale create: history id is required")
	}
	if len(req.Lines) == 0 {
		return domain.Sale{}, errors.New("sale create: at least one line is required")
	}
	if len(req.ItemIDs) != len(req.Lines) {
		return domain.Sale{}, errors.New("sale create: item id count must match line count")
	}
	normalized := NormalizeCustomerName(req.Customer.Name)
	if normalized == "" {
		return domain.Sale{}, errors.New("sale create: customer name is required")
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return domain.Sale{}, errors.New("sale create: customer id is required")
	}
	for _, line := range req.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return domain.Sale{}, repositories.NewSaleError(repositories.SaleErrorUnknownReference, "sale create: product id is required", nil)
		}
		if line.Quantity <= 0 {
			return domain.Sale{}, errors.New("sale create: quantity must be > 0")
		}
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Sale{}, wrapSaleError("sale.create", err)
	}

	now := req.Now.UTC()
	var created domain.Sale

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Read every product and variant a line touches exactly once.
		productRefs := make(map[string]*firestore.DocumentRef)
		productDocs := make(map[string]*productDocument)
		variantRefs := make(map[stockTarget]*firestore.DocumentRef)
		variantDocs := make(map[stockTarget]*variantDocument)
		requested := make(map[stockTarget]int)

		for _, line := range req.Lines {
			pid := strings.TrimSpace(line.ProductID)
			vid := strings.TrimSpace(line.VariantID)

			if _, ok := productDocs[pid]; !ok {
				ref := client.Collection(productsCollection).Doc(pid)
				snap, err := tx.Get(ref)
				if err != nil {
					if status.Code(err) == codes.NotFound {
						return &repositories.SaleError{
							Code:      repositories.SaleErrorUnknownReference,
							Message:   fmt.Sprintf("product %s not found", pid),
							Reference: pid,
							Err:       err,
						}
					}
					return err
				}
				var doc productDocument
				if err := snap.DataTo(&doc); err != nil {
					return fmt.Errorf("decode product %s: %w", pid, err)
				}
				productRefs[pid] = ref
				productDocs[pid] = &doc
			}

			target := stockTarget{productID: pid, variantID: vid}
			if vid != "" {
				if _, ok := variantDocs[target]; !ok {
					ref := client.Collection(productsCollection).Doc(pid).
						Collection(variantsCollection).Doc(vid)
					snap, err := tx.Get(ref)
					if err != nil {
						if status.Code(err) == codes.NotFound {
							return &repositories.SaleError{
								Code:      repositories.SaleErrorUnknownReference,
								Message:   fmt.Sprintf("variant %s not found for product %s", vid, pid),
								Reference: vid,
								Err:       err,
							}
						}
						return err
					}
					var doc variantDocument
					if err := snap.DataTo(&doc); err != nil {
						return fmt.Errorf("decode variant %s: %w", vid, err)
					}
					variantRefs[target] = ref
					variantDocs[target] = &doc
				}
			}
			requested[target] += line.Quantity
		}

		// Customer lookup by normalized name.
		nameRef := client.Collection(customerNamesCollection).Doc(normalized)
		customerID := ""
		var customerDoc customerDocument
		nameSnap, err := tx.Get(nameRef)
		switch {
		case err == nil:
			var nameDoc customerNameDocument
			if err := nameSnap.DataTo(&nameDoc); err != nil {
				return fmt.Errorf("decode customer name %s: %w", normalized, err)
			}
			customerID = nameDoc.CustomerID
			customerSnap, err := tx.Get(client.Collection(customersCollection).Doc(customerID))
			if err != nil {
				return err
			}
			if err := customerSnap.DataTo(&customerDoc); err != nil {
				return fmt.Errorf("decode customer %s: %w", customerID, err)
			}
		case status.Code(err) == codes.NotFound:
			// New customer, created below.
		default:
			return err
		}

		// Tracking code reservation is checked during the read phase: the
		// buffered tx.Create below only surfaces AlreadyExists at commit,
		// where it can no longer be classified. A concurrent reservation
		// aborts the transaction and the retry observes the guard document.
		codeRef := client.Collection(trackingCodesCollection).Doc(req.TrackingCode)
		if _, err := tx.Get(codeRef); err == nil {
			return repositories.NewSaleError(repositories.SaleErrorCodeCollision, fmt.Sprintf("tracking code %s already in use", req.TrackingCode), nil)
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		// Validate availability against the aggregate quantity per pool.
		for target, qty := range requested {
			if target.variantID != "" {
				doc := variantDocs[target]
				if !doc.Active || !productDocs[target.productID].Active {
					return &repositories.SaleError{
						Code:      repositories.SaleErrorInactiveVariant,
						Message:   fmt.Sprintf("variant %s is not active", target.variantID),
						Reference: target.variantID,
					}
				}
				if doc.Stock < qty {
					return &repositories.SaleError{
						Code:      repositories.SaleErrorInsufficientStock,
						Message:   fmt.Sprintf("insufficient stock for variant %s", target.variantID),
						Reference: target.variantID,
						Available: doc.Stock,
						Requested: qty,
					}
				}
				continue
			}
			doc := productDocs[target.productID]
			if !doc.Active {
				return &repositories.SaleError{
					Code:      repositories.SaleErrorInactiveVariant,
					Message:   fmt.Sprintf("product %s is not active", target.productID),
					Reference: target.productID,
				}
			}
			if doc.Stock < qty {
				return &repositories.SaleError{
					Code:      repositories.SaleErrorInsufficientStock,
					Message:   fmt.Sprintf("insufficient stock for product %s", target.productID),
					Reference: target.productID,
					Available: doc.Stock,
					Requested: qty,
				}
			}
		}

		// Snapshot line items at current prices.
		items := make([]saleItemDocument, len(req.Lines))
		variantIDs := make([]string, 0, len(req.Lines))
		seenVariants := make(map[string]struct{})
		var total int64
		for i, line := range req.Lines {
			pid := strings.TrimSpace(line.ProductID)
			vid := strings.TrimSpace(line.VariantID)
			product := productDocs[pid]

			unitPrice := product.Price
			optionKey := ""
			if vid != "" {
				variant := variantDocs[stockTarget{productID: pid, variantID: vid}]
				if variant.Price != nil {
					unitPrice = *variant.Price
				}
				optionKey = variant.OptionKey
				if _, ok := seenVariants[vid]; !ok {
					seenVariants[vid] = struct{}{}
					variantIDs = append(variantIDs, vid)
				}
			}

			lineTotal := unitPrice * int64(line.Quantity)
			total += lineTotal
			items[i] = saleItemDocument{
				ID:          req.ItemIDs[i],
				ProductID:   pid,
				ProductName: product.Name,
				VariantID:   vid,
				OptionKey:   optionKey,
				Quantity:    line.Quantity,
				UnitPrice:   unitPrice,
				LineTotal:   lineTotal,
			}
		}

		// Writes. Customer first.
		if customerID == "" {
			customerID = req.CustomerID
			customerDoc = customerDocument{
				Name:           strings.TrimSpace(req.Customer.Name),
				NormalizedName: normalized,
				Email:          strings.TrimSpace(req.Customer.Email),
				Address:        strings.TrimSpace(req.Customer.Address),
				Phone:          strings.TrimSpace(req.Customer.Phone),
				DocumentNumber: strings.TrimSpace(req.Customer.DocumentNumber),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.Create(client.Collection(customersCollection).Doc(customerID), customerDoc); err != nil {
				return err
			}
			if err := tx.Create(nameRef, customerNameDocument{CustomerID: customerID}); err != nil {
				return err
			}
		} else {
			mergeCustomerContact(&customerDoc, req.Customer)
			customerDoc.UpdatedAt = now
			if err := tx.Set(client.Collection(customersCollection).Doc(customerID), customerDoc); err != nil {
				return err
			}
		}

		// Stock decrements: variant stock is authoritative, the product stock
		// field is a display cache that never goes negative.
		productDelta := make(map[string]int)
		for target, qty := range requested {
			if target.variantID == "" {
				productDelta[target.productID] += qty
				continue
			}
			doc := variantDocs[target]
			doc.Stock -= qty
			doc.UpdatedAt = now
			if err := tx.Set(variantRefs[target], *doc); err != nil {
				return err
			}
			mirror := qty
			if productDocs[target.productID].Stock < mirror {
				mirror = productDocs[target.productID].Stock
			}
			productDelta[target.productID] += mirror
		}
		stockDebits := make(map[string]int, len(productDelta))
		for pid, delta := range productDelta {
			if delta == 0 {
				continue
			}
			doc := productDocs[pid]
			debit := delta
			if debit > doc.Stock {
				debit = doc.Stock
			}
			if debit < 0 {
				debit = 0
			}
			doc.Stock -= debit
			doc.UpdatedAt = now
			if err := tx.Set(productRefs[pid], *doc); err != nil {
				return err
			}
			stockDebits[pid] = debit
		}

		// Reserve the tracking code. Existence was already checked above.
		if err := tx.Create(codeRef, trackingCodeDocument{SaleID: req.SaleID}); err != nil {
			return err
		}

		saleDoc := saleDocument{
			CustomerID:   customerID,
			CustomerName: customerDoc.Name,
			SaleDate:     now,
			Total:        total,
			Status:       string(req.Status),
			Source:       string(req.Source),
			TrackingCode: req.TrackingCode,
			Items:        items,
			VariantIDs:   variantIDs,
			StockDebits:  stockDebits,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		saleRef := client.Collection(salesCollection).Doc(req.SaleID)
		if err := tx.Create(saleRef, saleDoc); err != nil {
			return err
		}

		historyDoc := saleHistoryDocument{
			PreviousStatus: "",
			NewStatus:      string(req.Status),
			Comment:        "created",
			PerformedBy:    strings.TrimSpace(req.PerformedBy),
			CreatedAt:      now,
		}
		if err := tx.Create(saleRef.Collection(historyCollection).Doc(req.HistoryID), historyDoc); err != nil {
			return err
		}

		created = saleDoc.toDomain(req.SaleID)
		return nil
	})
	if err != nil {
		return domain.Sale{}, wrapSaleError("sale.create", err)
	}
	return created, nil
}

func (r *SaleRepository) TransitionStatus(ctx context.Context, req repositories.TransitionSaleRequest) (domain.Sale, error) {
	if r == nil || r.provider == nil {
		return domain.Sale{}, errors.New("sale repository not initialised")
	}
	if strings.TrimSpace(req.SaleID) == "" {
		return domain.Sale{}, errors.New("sale transition: sale id is required")
	}
	if strings.TrimSpace(req.HistoryID) == "" {
		return domain.Sale{}, errors.New("sale transition: history id is required")
	}
	if _, ok := domain.ParseSaleStatus(string(req.Target)); !ok {
		return domain.Sale{}, repositories.NewSaleError(repositories.SaleErrorInvalidTransition, fmt.Sprintf("unknown status %q", req.Target), nil)
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Sale{}, wrapSaleError("sale.transition", err)
	}

	now := req.Now.UTC()
	var updated domain.Sale

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		saleRef := client.Collection(salesCollection).Doc(req.SaleID)
		snap, err := tx.Get(saleRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewSaleError(repositories.SaleErrorNotFound, fmt.Sprintf("sale %s not found", req.SaleID), err)
			}
			return err
		}
		var doc saleDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode sale %s: %w", req.SaleID, err)
		}

		current, ok := domain.ParseSaleStatus(doc.Status)
		if !ok {
			return fmt.Errorf("sale %s has unknown status %q", req.SaleID, doc.Status)
		}
		if !domain.CanTransition(current, req.Target) {
			return repositories.NewSaleError(repositories.SaleErrorInvalidTransition, fmt.Sprintf("cannot transition sale %s from %s to %s", req.SaleID, current, req.Target), nil)
		}

		restock := req.Restock && req.Target == domain.SaleStatusCanceled

		// All reads precede the writes, so resolve restock targets first.
		productRefs := make(map[string]*firestore.DocumentRef)
		productDocs := make(map[string]*productDocument)
		variantRefs := make(map[stockTarget]*firestore.DocumentRef)
		variantDocs := make(map[stockTarget]*variantDocument)
		returned := make(map[stockTarget]int)
		if restock {
			for _, item := range doc.Items {
				target := stockTarget{productID: item.ProductID, variantID: item.VariantID}
				if _, ok := productDocs[item.ProductID]; !ok {
					ref := client.Collection(productsCollection).Doc(item.ProductID)
					productSnap, err := tx.Get(ref)
					if err != nil {
						if status.Code(err) == codes.NotFound {
							continue
						}
						return err
					}
					var pdoc productDocument
					if err := productSnap.DataTo(&pdoc); err != nil {
						return fmt.Errorf("decode product %s: %w", item.ProductID, err)
					}
					productRefs[item.ProductID] = ref
					productDocs[item.ProductID] = &pdoc
				}
				if item.VariantID != "" {
					if _, ok := variantDocs[target]; !ok {
						ref := client.Collection(productsCollection).Doc(item.ProductID).
							Collection(variantsCollection).Doc(item.VariantID)
						variantSnap, err := tx.Get(ref)
						if err != nil {
							if status.Code(err) == codes.NotFound {
								continue
							}
							return err
						}
						var vdoc variantDocument
						if err := variantSnap.DataTo(&vdoc); err != nil {
							return fmt.Errorf("decode variant %s: %w", item.VariantID, err)
						}
						variantRefs[target] = ref
						variantDocs[target] = &vdoc
					}
				}
				returned[target] += item.Quantity
			}
		}

		for target, qty := range returned {
			if target.variantID == "" {
				continue
			}
			vdoc, ok := variantDocs[target]
			if !ok {
				continue
			}
			vdoc.Stock += qty
			vdoc.UpdatedAt = now
			if err := tx.Set(variantRefs[target], *vdoc); err != nil {
				return err
			}
		}
		// The display stock gets back only what the sale actually took off
		// it, so a cancel after a capped decrement cannot inflate the cache.
		if restock {
			for pid, debit := range doc.StockDebits {
				pdoc, ok := productDocs[pid]
				if !ok || debit <= 0 {
					continue
				}
				pdoc.Stock += debit
				pdoc.UpdatedAt = now
				if err := tx.Set(productRefs[pid], *pdoc); err != nil {
					return err
				}
			}
		}

		doc.Status = string(req.Target)
		doc.UpdatedAt = now
		if err := tx.Set(saleRef, doc); err != nil {
			return err
		}

		historyDoc := saleHistoryDocument{
			PreviousStatus: string(current),
			NewStatus:      string(req.Target),
			Comment:        strings.TrimSpace(req.Comment),
			PerformedBy:    strings.TrimSpace(req.PerformedBy),
			CreatedAt:      now,
		}
		if err := tx.Create(saleRef.Collection(historyCollection).Doc(req.HistoryID), historyDoc); err != nil {
			return err
		}

		updated = doc.toDomain(req.SaleID)
		return nil
	})
	if err != nil {
		return domain.Sale{}, wrapSaleError("sale.transition", err)
	}
	return updated, nil
}

func (r *SaleRepository) FindByID(ctx context.Context, saleID string) (domain.Sale, error) {
	if r == nil || r.sales == nil {
		return domain.Sale{}, errors.New("sale repository not initialised")
	}
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.Sale{}, errors.New("sale find: id is required")
	}

	doc, err := r.sales.Get(ctx, saleID)
	if err != nil {
		var repoErr *pfirestore.Error
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Sale{}, repositories.NewSaleError(repositories.SaleErrorNotFound, fmt.Sprintf("sale %s not found", saleID), err)
		}
		return domain.Sale{}, wrapSaleError("sale.find", err)
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *SaleRepository) FindByTrackingCode(ctx context.Context, code string) (domain.Sale, error) {
	if r == nil || r.provider == nil {
		return domain.Sale{}, errors.New("sale repository not initialised")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.Sale{}, errors.New("sale find by tracking code: code is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Sale{}, wrapSaleError("sale.findByTrackingCode", err)
	}

	snap, err := client.Collection(trackingCodesCollection).Doc(code).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Sale{}, repositories.NewSaleError(repositories.SaleErrorNotFound, fmt.Sprintf("tracking code %s not found", code), err)
		}
		return domain.Sale{}, wrapSaleError("sale.findByTrackingCode", err)
	}

	var codeDoc trackingCodeDocument
	if err := snap.DataTo(&codeDoc); err != nil {
		return domain.Sale{}, fmt.Errorf("decode tracking code %s: %w", code, err)
	}
	return r.FindByID(ctx, codeDoc.SaleID)
}

func (r *SaleRepository) List(ctx context.Context, filter repositories.SaleListFilter) (domain.CursorPage[domain.Sale], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Sale]{}, errors.New("sale repository not initialised")
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
		return domain.CursorPage[domain.Sale]{}, wrapSaleError("sale.list", err)
	}

	query := client.Collection(salesCollection).Query
	if filter.Status != "" {
		query = query.Where("status", "==", string(filter.Status))
	}
	if filter.Source != "" {
		query = query.Where("source", "==", string(filter.Source))
	}
	if filter.SaleDate.From != nil {
		query = query.Where("saleDate", ">=", filter.SaleDate.From.UTC())
	}
	if filter.SaleDate.To != nil {
		query = query.Where("saleDate", "<=", filter.SaleDate.To.UTC())
	}
	query = query.OrderBy("saleDate", firestore.Desc).
		OrderBy("trackingCode", firestore.Asc).
		Limit(pageSize + 1)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		decoded, err := decodePageToken(token)
		if err != nil {
			return domain.CursorPage[domain.Sale]{}, wrapSaleError("sale.list", err)
		}
		query = query.StartAfter(decoded.SaleDate, decoded.Code)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var sales []domain.Sale
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Sale]{}, wrapSaleError("sale.list", err)
		}
		var doc saleDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Sale]{}, fmt.Errorf("decode sale %s: %w", snap.Ref.ID, err)
		}
		sales = append(sales, doc.toDomain(snap.Ref.ID))
	}

	hasMore := len(sales) > pageSize
	if hasMore {
		sales = sales[:pageSize]
	}
	var nextToken string
	if hasMore && len(sales) > 0 {
		last := sales[len(sales)-1]
		encoded, err := encodePageToken(pageToken{SaleDate: last.SaleDate, Code: last.TrackingCode})
		if err != nil {
			return domain.CursorPage[domain.Sale]{}, wrapSaleError("sale.list", err)
		}
		nextToken = encoded
	}

	return domain.CursorPage[domain.Sale]{Items: sales, NextPageToken: nextToken}, nil
}

func (r *SaleRepository) ListHistory(ctx context.Context, saleID string) ([]domain.SaleHistory, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("sale repository not initialised")
	}
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return nil, errors.New("sale list history: sale id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, wrapSaleError("sale.listHistory", err)
	}

	query := client.Collection(salesCollection).Doc(saleID).
		Collection(historyCollection).
		OrderBy("createdAt", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var entries []domain.SaleHistory
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapSaleError("sale.listHistory", err)
		}
		var doc saleHistoryDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sale history %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, doc.toDomain(snap.Ref.ID, saleID))
	}
	return entries, nil
}

func mergeCustomerContact(doc *customerDocument, input repositories.CustomerInput) {
	if name := strings.TrimSpace(input.Name); name != "" {
		doc.Name = name
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		doc.Email = email
	}
	if address := strings.TrimSpace(input.Address); address != "" {
		doc.Address = address
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		doc.Phone = phone
	}
	if docNum := strings.TrimSpace(input.DocumentNumber); docNum != "" {
		doc.DocumentNumber = docNum
	}
}

// Helper structures ---------------------------------------------------------

type saleDocument struct {
	CustomerID   string             `firestore:"customerId"`
	CustomerName string             `firestore:"customerName"`
	SaleDate     time.Time          `firestore:"saleDate"`
	Total        int64              `firestore:"total"`
	Status       string             `firestore:"status"`
	Source       string             `firestore:"source"`
	TrackingCode string             `firestore:"trackingCode"`
	Items        []saleItemDocument `firestore:"items"`
	VariantIDs   []string           `firestore:"variantIds"`
	// StockDebits records how much was actually taken off each product's
	// display stock, which can be less than the sold quantity when the
	// cache was already low. Restock on cancel returns exactly this much.
	StockDebits map[string]int `firestore:"stockDebits,omitempty"`
	CreatedAt   time.Time      `firestore:"createdAt"`
	UpdatedAt   time.Time      `firestore:"updatedAt"`
}

type saleItemDocument struct {
	ID          string `firestore:"id"`
	ProductID   string `firestore:"productId"`
	ProductName string `firestore:"productName"`
	VariantID   string `firestore:"variantId,omitempty"`
	OptionKey   string `firestore:"optionKey,omitempty"`
	Quantity    int    `firestore:"qty"`
	UnitPrice   int64  `firestore:"unitPrice"`
	LineTotal   int64  `firestore:"lineTotal"`
}

func (d saleDocument) toDomain(id string) domain.Sale {
	items := make([]domain.SaleItem, len(d.Items))
	for i, item := range d.Items {
		items[i] = domain.SaleItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			VariantID:   item.VariantID,
			OptionKey:   item.OptionKey,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		}
	}
	status, _ := domain.ParseSaleStatus(d.Status)
	return domain.Sale{
		ID:           id,
		CustomerID:   d.CustomerID,
		CustomerName: d.CustomerName,
		SaleDate:     d.SaleDate,
		Total:        d.Total,
		Status:       status,
		Source:       domain.SaleSource(d.Source),
		TrackingCode: d.TrackingCode,
		Items:        items,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type saleHistoryDocument struct {
	PreviousStatus string    `firestore:"previousStatus"`
	NewStatus      string    `firestore:"newStatus"`
	Comment        string    `firestore:"comment,omitempty"`
	PerformedBy    string    `firestore:"performedBy,omitempty"`
	CreatedAt      time.Time `firestore:"createdAt"`
}

func (d saleHistoryDocument) toDomain(id string, saleID string) domain.SaleHistory {
	previous, _ := domain.ParseSaleStatus(d.PreviousStatus)
	next, _ := domain.ParseSaleStatus(d.NewStatus)
	return domain.SaleHistory{
		ID:             id,
		SaleID:         saleID,
		PreviousStatus: previous,
		NewStatus:      next,
		Comment:        d.Comment,
		PerformedBy:    d.PerformedBy,
		CreatedAt:      d.CreatedAt,
	}
}

type trackingCodeDocument struct {
	SaleID string `firestore:"saleId"`
}

func wrapSaleError(op string, err error) error {
	if err == nil {
		return nil
	}
	var saleErr *repositories.SaleError
	if errors.As(err, &saleErr) {
		if saleErr.Op == "" {
			saleErr.Op = op
		}
		return saleErr
	}
	return pfirestore.WrapError(op, err)
}
