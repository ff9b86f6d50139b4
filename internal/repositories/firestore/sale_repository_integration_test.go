//go:build integration

package firestore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	domain "github.com/tiendafacil/api/internal/domain"
	pconfig "github.com/tiendafacil/api/internal/platform/config"
	pfirestore "github.com/tiendafacil/api/internal/platform/firestore"
	"github.com/tiendafacil/api/internal/repositories"
)

func TestSaleRepositoryIntegration(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available: " + err.Error())
	}

	ensureDockerDaemon(t)

	port := freePort(t)
	endpoint := fmt.Sprintf("127.0.0.1:%d", port)
	containerID := startFirestoreEmulator(t, port)
	t.Cleanup(func() { stopContainer(containerID) })

	waitForEndpoint(t, endpoint, 30*time.Second)

	cfg := pconfig.FirestoreConfig{
		ProjectID:    "sales-test",
		EmulatorHost: endpoint,
	}

	provider := pfirestore.NewProvider(cfg)
	t.Cleanup(func() {
		_ = provider.Close(context.Background())
	})

	catalog, err := NewCatalogRepository(provider)
	if err != nil {
		t.Fatalf("new catalog repository: %v", err)
	}
	sales, err := NewSaleRepository(provider)
	if err != nil {
		t.Fatalf("new sale repository: %v", err)
	}
	customers, err := NewCustomerRepository(provider)
	if err != nil {
		t.Fatalf("new customer repository: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Second)

	product := domain.Product{
		ID:        "prd_1",
		Name:      "Hoodie",
		Price:     1500,
		Stock:     0,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := catalog.CreateProduct(ctx, product); err != nil {
		t.Fatalf("create product: %v", err)
	}

	redValues := []domain.VariantValue{{
		OptionID:       "opt_color",
		OptionName:     "COLOR",
		OptionPosition: 0,
		ValueID:        "val_red",
		Value:          "RED",
	}}
	variant := domain.ProductVariant{
		ID:        "var_red",
		ProductID: product.ID,
		Stock:     5,
		Active:    true,
		OptionKey: domain.VariantOptionKey(redValues),
		Values:    redValues,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := catalog.CreateVariant(ctx, variant); err != nil {
		t.Fatalf("create variant: %v", err)
	}

	dup := variant
	dup.ID = "var_red_dup"
	err = catalog.CreateVariant(ctx, dup)
	var catErr *repositories.CatalogError
	if !errors.As(err, &catErr) || catErr.Code != repositories.CatalogErrorDuplicateCombination {
		t.Fatalf("expected duplicate combination error, got %v", err)
	}

	created, err := sales.CreateSale(ctx, repositories.CreateSaleRequest{
		SaleID:       "sale_1",
		ItemIDs:      []string{"item_1"},
		HistoryID:    "hist_1",
		TrackingCode: "TF-TEST01",
		Status:       domain.SaleStatusPending,
		Source:       domain.SaleSourceWeb,
		Customer: repositories.CustomerInput{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
		},
		CustomerID: "cus_1",
		Lines: []repositories.SaleLine{
			{ProductID: product.ID, VariantID: variant.ID, Quantity: 3},
		},
		PerformedBy: "web",
		Now:         now,
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if created.Total != 4500 {
		t.Fatalf("expected total 4500, got %d", created.Total)
	}
	if created.TrackingCode != "TF-TEST01" || created.Status != domain.SaleStatusPending {
		t.Fatalf("unexpected sale %+v", created)
	}

	gotVariant, err := catalog.FindVariantByID(ctx, product.ID, variant.ID)
	if err != nil {
		t.Fatalf("find variant: %v", err)
	}
	if gotVariant.Stock != 2 {
		t.Fatalf("expected variant stock 2, got %d", gotVariant.Stock)
	}
	gotProduct, err := catalog.FindProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("find product: %v", err)
	}
	if gotProduct.Stock != 2 {
		t.Fatalf("expected product stock cache 2, got %d", gotProduct.Stock)
	}

	var saleErr *repositories.SaleError
	_, err = sales.CreateSale(ctx, repositories.CreateSaleRequest{
		SaleID:       "sale_2",
		ItemIDs:      []string{"item_2"},
		HistoryID:    "hist_2",
		TrackingCode: "TF-TEST02",
		Status:       domain.SaleStatusPending,
		Source:       domain.SaleSourceWeb,
		Customer:     repositories.CustomerInput{Name: "Ada Lovelace"},
		CustomerID:   "cus_2",
		Lines: []repositories.SaleLine{
			{ProductID: product.ID, VariantID: variant.ID, Quantity: 3},
		},
		Now: now.Add(time.Second),
	})
	if !errors.As(err, &saleErr) || saleErr.Code != repositories.SaleErrorInsufficientStock {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if saleErr.Available != 2 || saleErr.Requested != 3 {
		t.Fatalf("unexpected availability details %+v", saleErr)
	}

	// Same customer, different casing: must reuse the existing record.
	second, err := sales.CreateSale(ctx, repositories.CreateSaleRequest{
		SaleID:       "sale_3",
		ItemIDs:      []string{"item_3"},
		HistoryID:    "hist_3",
		TrackingCode: "TF-TEST03",
		Status:       domain.SaleStatusCompleted,
		Source:       domain.SaleSourceAdmin,
		Customer:     repositories.CustomerInput{Name: "  ada   LOVELACE "},
		CustomerID:   "cus_ignored",
		Lines: []repositories.SaleLine{
			{ProductID: product.ID, VariantID: variant.ID, Quantity: 1},
		},
		PerformedBy: "usr_admin",
		Now:         now.Add(2 * time.Second),
	})
	if err != nil {
		t.Fatalf("create second sale: %v", err)
	}
	if second.CustomerID != "cus_1" {
		t.Fatalf("expected customer reuse, got %s", second.CustomerID)
	}

	customer, err := customers.FindByName(ctx, "ada lovelace")
	if err != nil {
		t.Fatalf("find customer by name: %v", err)
	}
	if customer.ID != "cus_1" || customer.Email != "ada@example.com" {
		t.Fatalf("unexpected customer %+v", customer)
	}

	// Tracking code reservation is first write wins.
	_, err = sales.CreateSale(ctx, repositories.CreateSaleRequest{
		SaleID:       "sale_4",
		ItemIDs:      []string{"item_4"},
		HistoryID:    "hist_4",
		TrackingCode: "TF-TEST01",
		Status:       domain.SaleStatusPending,
		Source:       domain.SaleSourceWeb,
		Customer:     repositories.CustomerInput{Name: "Grace Hopper"},
		CustomerID:   "cus_3",
		Lines: []repositories.SaleLine{
			{ProductID: product.ID, VariantID: variant.ID, Quantity: 1},
		},
		Now: now.Add(3 * time.Second),
	})
	saleErr = nil
	if !errors.As(err, &saleErr) || saleErr.Code != repositories.SaleErrorCodeCollision {
		t.Fatalf("expected code collision error, got %v", err)
	}

	byCode, err := sales.FindByTrackingCode(ctx, "tf-test01")
	if err != nil {
		t.Fatalf("find by tracking code: %v", err)
	}
	if byCode.ID != "sale_1" {
		t.Fatalf("expected sale_1, got %s", byCode.ID)
	}

	// Status lifecycle with history.
	saleErr = nil
	_, err = sales.TransitionStatus(ctx, repositories.TransitionSaleRequest{
		SaleID:    "sale_1",
		HistoryID: "hist_bad",
		Target:    domain.SaleStatusShipping,
		Now:       now.Add(4 * time.Second),
	})
	if !errors.As(err, &saleErr) || saleErr.Code != repositories.SaleErrorInvalidTransition {
		t.Fatalf("expected invalid transition error, got %v", err)
	}

	paid, err := sales.TransitionStatus(ctx, repositories.TransitionSaleRequest{
		SaleID:      "sale_1",
		HistoryID:   "hist_paid",
		Target:      domain.SaleStatusPaid,
		PerformedBy: "web",
		Now:         now.Add(5 * time.Second),
	})
	if err != nil {
		t.Fatalf("transition to paid: %v", err)
	}
	if paid.Status != domain.SaleStatusPaid {
		t.Fatalf("expected PAID, got %s", paid.Status)
	}

	// Cancel with restock returns the units.
	canceled, err := sales.TransitionStatus(ctx, repositories.TransitionSaleRequest{
		SaleID:      "sale_1",
		HistoryID:   "hist_cancel",
		Target:      domain.SaleStatusCanceled,
		Comment:     "customer request",
		PerformedBy: "usr_admin",
		Restock:     true,
		Now:         now.Add(6 * time.Second),
	})
	if err != nil {
		t.Fatalf("transition to canceled: %v", err)
	}
	if canceled.Status != domain.SaleStatusCanceled {
		t.Fatalf("expected CANCELED, got %s", canceled.Status)
	}
	gotVariant, err = catalog.FindVariantByID(ctx, product.ID, variant.ID)
	if err != nil {
		t.Fatalf("find variant after restock: %v", err)
	}
	if gotVariant.Stock != 4 {
		t.Fatalf("expected variant stock 4 after restock, got %d", gotVariant.Stock)
	}
	gotProduct, err = catalog.FindProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("find product after restock: %v", err)
	}
	if gotProduct.Stock != 4 {
		t.Fatalf("expected product stock cache 4 after restock, got %d", gotProduct.Stock)
	}

	// When the display cache is lower than the sold quantity the decrement
	// is capped, and a later restock must return only the capped amount.
	drifted := gotProduct
	drifted.Stock = 1
	if err := catalog.UpdateProduct(ctx, drifted); err != nil {
		t.Fatalf("update product: %v", err)
	}
	_, err = sales.CreateSale(ctx, repositories.CreateSaleRequest{
		SaleID:       "sale_5",
		ItemIDs:      []string{"item_5"},
		HistoryID:    "hist_5",
		TrackingCode: "TF-TEST05",
		Status:       domain.SaleStatusPending,
		Source:       domain.SaleSourceAdmin,
		Customer:     repositories.CustomerInput{Name: "Alan Turing"},
		CustomerID:   "cus_4",
		Lines: []repositories.SaleLine{
			{ProductID: product.ID, VariantID: variant.ID, Quantity: 2},
		},
		PerformedBy: "usr_admin",
		Now:         now.Add(7 * time.Second),
	})
	if err != nil {
		t.Fatalf("create capped sale: %v", err)
	}
	_, err = sales.TransitionStatus(ctx, repositories.TransitionSaleRequest{
		SaleID:      "sale_5",
		HistoryID:   "hist_5_cancel",
		Target:      domain.SaleStatusCanceled,
		PerformedBy: "usr_admin",
		Restock:     true,
		Now:         now.Add(8 * time.Second),
	})
	if err != nil {
		t.Fatalf("cancel capped sale: %v", err)
	}
	gotVariant, err = catalog.FindVariantByID(ctx, product.ID, variant.ID)
	if err != nil {
		t.Fatalf("find variant after capped restock: %v", err)
	}
	if gotVariant.Stock != 4 {
		t.Fatalf("expected variant stock 4 after capped restock, got %d", gotVariant.Stock)
	}
	gotProduct, err = catalog.FindProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("find product after capped restock: %v", err)
	}
	if gotProduct.Stock != 1 {
		t.Fatalf("expected product stock cache 1 after capped restock, got %d", gotProduct.Stock)
	}

	history, err := sales.ListHistory(ctx, "sale_1")
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].PreviousStatus != history[i-1].NewStatus {
			t.Fatalf("history chain broken at %d: %+v", i, history)
		}
	}

	// A variant referenced by sales cannot be removed.
	catErr = nil
	err = catalog.DeleteVariant(ctx, product.ID, variant.ID)
	if !errors.As(err, &catErr) || catErr.Code != repositories.CatalogErrorReferentialConflict {
		t.Fatalf("expected referential conflict, got %v", err)
	}

	page, err := sales.List(ctx, repositories.SaleListFilter{
		Source:     domain.SaleSourceWeb,
		Pagination: domain.Pagination{PageSize: 10},
	})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "sale_1" {
		t.Fatalf("unexpected web sales page %+v", page.Items)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	addr, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to allocate port: %v", err)
	}
	defer addr.Close()
	return addr.Addr().(*net.TCPAddr).Port
}

func startFirestoreEmulator(t *testing.T, port int) string {
	t.Helper()
	args := []string{
		"run", "-d", "--rm",
		"-p", fmt.Sprintf("%d:8080", port),
		firestoreEmulatorImage,
		"gcloud", "beta", "emulators", "firestore", "start",
		"--host-port=0.0.0.0:8080",
		"--quiet",
	}

	cmd := exec.Command("docker", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to start firestore emulator: %v - %s", err, string(out))
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		t.Fatalf("docker returned empty container id")
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

func ensureDockerDaemon(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		t.Fatalf("docker daemon not available: %v", err)
	}
}

func stopContainer(id string) {
	if id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "docker", "stop", id)
	_ = cmd.Run()
}

func waitForEndpoint(t *testing.T, endpoint string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", endpoint, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("firestore emulator at %s did not become ready within %s", endpoint, timeout)
}

const firestoreEmulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"
