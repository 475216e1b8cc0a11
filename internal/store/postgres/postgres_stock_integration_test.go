package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"restaurantos/backend/internal/domain"
	"restaurantos/backend/internal/store"
)

func TestDecreaseStockGuardsAgainstOversell(t *testing.T) {
	databaseURL := os.Getenv("RESTAURANTOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set RESTAURANTOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	itemID := fmt.Sprintf("item-stock-it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, itemID)
	})

	if _, err := s.CreateMenuItem(ctx, domain.MenuItem{
		ID:           itemID,
		Name:         "Stock IT Item",
		Category:     "drinks",
		UnitPrice:    50,
		VATRate:      0,
		TrackStock:   true,
		Stock:        5,
		ReorderLevel: 2,
		Active:       true,
	}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	if err := s.DecreaseStock(ctx, []domain.StockAdjustment{{ItemID: itemID, Qty: 3}}); err != nil {
		t.Fatalf("decrease within stock: %v", err)
	}

	err = s.DecreaseStock(ctx, []domain.StockAdjustment{{ItemID: itemID, Qty: 3}})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	item, err := s.GetMenuItem(ctx, itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Stock != 2 {
		t.Fatalf("stock = %d, want 2 (failed batch must not partially apply)", item.Stock)
	}
}
