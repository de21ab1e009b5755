//go:build integration

package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/gearup/storefront/internal/database"
	"github.com/gearup/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	if err := database.Migrate(dsn, database.Up, log.New(io.Discard, "", 0)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func newPendingOrder(userID, key string) *models.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Order{
		UserID:    userID,
		Status:    models.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Items: []models.OrderItem{
			{ProductID: "p1", Name: "Trail Shoe", Price: decimal.RequireFromString("49.99"), Quantity: 2, Size: "42"},
		},
		Shipping:       &models.Shipping{Method: models.ShippingExpress, Cost: models.ShippingExpress.Cost()},
		Customer:       &models.Customer{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Total:          decimal.RequireFromString("114.98"),
		IdempotencyKey: key,
	}
}

func TestIntegrationCreateAndGetOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	order, created, err := CreateOrder(ctx, db, newPendingOrder("uid-1", ""))
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}
	if !created {
		t.Error("Expected a new order")
	}

	got, err := GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if !got.Total.Equal(decimal.RequireFromString("114.98")) {
		t.Errorf("Expected total 114.98, got %s", got.Total)
	}
	if got.Shipping == nil || !got.Shipping.Cost.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected shipping cost 15, got %+v", got.Shipping)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Errorf("Unexpected items: %+v", got.Items)
	}
}

func TestIntegrationDuplicateSubmissionsWithoutKey(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := CreateOrder(ctx, db, newPendingOrder("uid-1", "")); err != nil {
			t.Fatalf("Create order %d: %v", i, err)
		}
	}

	orders, err := ListOrdersByUser(ctx, db, "uid-1", "")
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("Expected 2 independent orders, got %d", len(orders))
	}
}

func TestIntegrationConcurrentIdempotentSubmission(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	ids := make(chan string, workers)
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, _, err := CreateOrder(ctx, db, newPendingOrder("uid-1", "checkout-key"))
			if err != nil {
				errs <- err
				return
			}
			ids <- order.ID
		}()
	}

	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Errorf("Create order: %v", err)
	}

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Errorf("Expected every submission to resolve to one order, got %d ids", len(seen))
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		t.Fatalf("Count orders: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 stored order, got %d", count)
	}
}

func TestIntegrationCursorPagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		o := newPendingOrder("uid-1", "")
		o.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		o.UpdatedAt = o.CreatedAt
		if _, _, err := CreateOrder(ctx, db, o); err != nil {
			t.Fatalf("Create order: %v", err)
		}
	}

	var total int
	cursor := ""
	for {
		page, err := ListOrdersCursor(ctx, db, OrderFilter{}, cursor, 2)
		if err != nil {
			t.Fatalf("List orders: %v", err)
		}
		total += len(page.Items.([]models.Order))
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	if total != 5 {
		t.Errorf("Expected 5 orders across pages, got %d", total)
	}
}

func TestIntegrationProductsAndRelated(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	products := []models.Product{
		{Name: "Trail Shoe", Category: "Shoes", Price: decimal.NewFromInt(50), Stock: 3},
		{Name: "Road Shoe", Category: "Shoes ", Price: decimal.NewFromInt(60), Stock: 3},
		{Name: "Track Shoe", Category: "Shoes", Price: decimal.NewFromInt(70), Stock: 3},
		{Name: "Cap", Category: "Hats", Price: decimal.NewFromInt(10), Stock: 3},
	}
	if _, err := SeedProducts(ctx, db, products); err != nil {
		t.Fatalf("Seed products: %v", err)
	}

	related, err := RelatedProducts(ctx, db, " Shoes", products[0].ID, RelatedLimit)
	if err != nil {
		t.Fatalf("Related products: %v", err)
	}
	if len(related) != 2 {
		t.Errorf("Expected 2 related products, got %d", len(related))
	}
	for _, p := range related {
		if p.ID == products[0].ID {
			t.Error("Related products must exclude the viewed product")
		}
	}

	maxPrice := decimal.NewFromInt(55)
	page, err := ListProducts(ctx, db, ProductFilter{MaxPrice: &maxPrice}, 1, 10)
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Expected 2 products under 55, got %d", page.Total)
	}
}
