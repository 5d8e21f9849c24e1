package cart

import (
	"testing"

	"bentahub/backend/internal/domain"
)

func coke(stock int) domain.Product {
	return domain.Product{ID: "prod-coke", Name: "Coca-Cola 1.5L", Category: domain.CategoryDrinks, PriceCents: 6500, Stock: stock, LowStockThreshold: 5}
}

func TestAddCapsAtStock(t *testing.T) {
	b := NewBuilder()
	product := coke(3)

	for i := 1; i <= 3; i++ {
		if !b.Add(product) {
			t.Fatalf("add %d should succeed", i)
		}
	}
	if b.Add(product) {
		t.Fatalf("fourth add should be rejected at stock 3")
	}

	items := b.Items()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("expected single entry with quantity 3, got %+v", items)
	}
	if got := b.TotalCents(); got != 19500 {
		t.Fatalf("expected total 19500, got %d", got)
	}
}

func TestAddRefusesOutOfStockProduct(t *testing.T) {
	b := NewBuilder()
	if b.Add(coke(0)) {
		t.Fatalf("zero-stock product must not enter the cart")
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty cart, got %d items", b.Len())
	}
}

func TestAdjustQuantityStaysInsideBounds(t *testing.T) {
	b := NewBuilder()
	product := coke(5)
	b.Add(product)
	b.Add(product) // quantity 2

	if b.AdjustQuantity("prod-coke", -2) {
		t.Fatalf("adjust to zero must leave the entry unchanged")
	}
	if got := b.Items()[0].Quantity; got != 2 {
		t.Fatalf("expected quantity 2 after rejected decrement, got %d", got)
	}

	if b.AdjustQuantity("prod-coke", 4) {
		t.Fatalf("adjust beyond stock must be rejected")
	}
	if got := b.Items()[0].Quantity; got != 2 {
		t.Fatalf("expected quantity 2 after rejected increment, got %d", got)
	}

	if !b.AdjustQuantity("prod-coke", 3) {
		t.Fatalf("adjust to 5 (== stock) should succeed")
	}
	if got := b.Items()[0].Quantity; got != 5 {
		t.Fatalf("expected quantity 5, got %d", got)
	}

	if b.AdjustQuantity("prod-missing", 1) {
		t.Fatalf("adjusting an unknown product should report false")
	}
}

func TestRemoveDeletesRegardlessOfQuantity(t *testing.T) {
	b := NewBuilder()
	b.Add(coke(5))
	b.Add(coke(5))

	b.Remove("prod-coke")
	if b.Len() != 0 {
		t.Fatalf("expected empty cart after remove, got %d items", b.Len())
	}

	// Removing again is harmless.
	b.Remove("prod-coke")
}

func TestTotalIsRecomputedOnEveryRead(t *testing.T) {
	b := NewBuilder()
	product := coke(10)
	b.Add(product)
	if got := b.TotalCents(); got != 6500 {
		t.Fatalf("expected 6500, got %d", got)
	}

	b.AdjustQuantity("prod-coke", 2)
	if got := b.TotalCents(); got != 19500 {
		t.Fatalf("expected 19500 after adjustment, got %d", got)
	}

	other := domain.Product{ID: "prod-crackers", Name: "Skyflakes", PriceCents: 1000, Stock: 4}
	b.Add(other)
	if got := b.TotalCents(); got != 20500 {
		t.Fatalf("expected 20500 with second product, got %d", got)
	}
}

func TestRefreshClampsToLiveStock(t *testing.T) {
	b := NewBuilder()
	product := coke(5)
	for i := 0; i < 5; i++ {
		b.Add(product)
	}

	product.Stock = 2
	b.Refresh(product)
	if got := b.Items()[0].Quantity; got != 2 {
		t.Fatalf("expected quantity clamped to 2, got %d", got)
	}

	product.Stock = 0
	b.Refresh(product)
	if b.Len() != 0 {
		t.Fatalf("expected sold-out entry to be pruned, got %d items", b.Len())
	}
}

func TestClearAfterCheckout(t *testing.T) {
	b := NewBuilder()
	b.Add(coke(3))

	lines := b.Lines()
	if len(lines) != 1 || lines[0].ProductName != "Coca-Cola 1.5L" || lines[0].PriceCents != 6500 {
		t.Fatalf("unexpected frozen lines: %+v", lines)
	}

	b.Clear()
	if b.Len() != 0 || b.TotalCents() != 0 {
		t.Fatalf("expected empty cart after clear")
	}
}
