package cart

import (
	"errors"
	"math"
	"testing"

	"restaurantos/backend/internal/domain"
)

func trackedItem(id string, price int64, vatRate float64, stock int) domain.MenuItem {
	return domain.MenuItem{ID: id, Name: id, UnitPrice: price, VATRate: vatRate, TrackStock: true, Stock: stock, Active: true}
}

func cookedItem(id string, price int64, vatRate float64) domain.MenuItem {
	return domain.MenuItem{ID: id, Name: id, UnitPrice: price, VATRate: vatRate, Active: true}
}

func TestVATDecompositionSingleLine(t *testing.T) {
	// Price 115 with 15% inclusive VAT decomposes to 100 + 15.
	c := New(0)
	if err := c.Add(cookedItem("beef-curry", 115, 15)); err != nil {
		t.Fatalf("add: %v", err)
	}

	got := c.Totals()
	if got.VATAmount != 15 {
		t.Fatalf("expected vat 15, got %d", got.VATAmount)
	}
	if got.Subtotal != 100 {
		t.Fatalf("expected subtotal 100, got %d", got.Subtotal)
	}
	if got.Total != 115 {
		t.Fatalf("expected total 115, got %d", got.Total)
	}
}

func TestVATRoundedOnceAtCartLevel(t *testing.T) {
	// Three lines whose per-line VAT has a fractional part. Rounding per line
	// would compound error; the cart must round the sum once.
	c := New(0)
	for _, id := range []string{"a", "b", "c"} {
		if err := c.Add(cookedItem(id, 100, 7.5)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	got := c.Totals()
	unrounded := 3 * (100 * 7.5 / 107.5)
	if want := int64(math.Round(unrounded)); got.VATAmount != want {
		t.Fatalf("expected cart-level rounded vat %d, got %d", want, got.VATAmount)
	}

	diff := got.Subtotal + got.VATAmount - got.InclusiveSubtotal
	if diff < -1 || diff > 1 {
		t.Fatalf("rounding drift beyond one taka: subtotal=%d vat=%d inclusive=%d", got.Subtotal, got.VATAmount, got.InclusiveSubtotal)
	}
}

func TestZeroVATRateLines(t *testing.T) {
	c := New(0)
	if err := c.Add(cookedItem("water", 20, 0)); err != nil {
		t.Fatalf("add: %v", err)
	}
	got := c.Totals()
	if got.VATAmount != 0 || got.Subtotal != 20 {
		t.Fatalf("zero-rate line must pass through: %+v", got)
	}
}

func TestServiceChargeOnInclusiveSubtotal(t *testing.T) {
	c := New(0.10)
	c.ServiceOn = true
	if err := c.Add(cookedItem("beef-curry", 115, 15)); err != nil {
		t.Fatalf("add: %v", err)
	}

	got := c.Totals()
	if got.ServiceCharge != 12 { // round(115 * 0.10)
		t.Fatalf("expected service charge 12, got %d", got.ServiceCharge)
	}
	if got.Total != 100+15+12 {
		t.Fatalf("expected total %d, got %d", 100+15+12, got.Total)
	}
}

func TestStockGuardOnAdd(t *testing.T) {
	c := New(0)
	empty := trackedItem("juice", 80, 0, 0)
	if err := c.Add(empty); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected out-of-stock rejection, got %v", err)
	}
	if !c.Empty() {
		t.Fatalf("rejected add must not create a line")
	}

	scarce := trackedItem("juice", 80, 0, 2)
	for i := 0; i < 2; i++ {
		if err := c.Add(scarce); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if err := c.Add(scarce); !errors.Is(err, ErrStockExceeded) {
		t.Fatalf("expected stock ceiling rejection, got %v", err)
	}
	if got := c.Qty("juice"); got != 2 {
		t.Fatalf("rejected add must leave qty at ceiling, got %d", got)
	}
}

func TestCookedItemsHaveNoCeiling(t *testing.T) {
	c := New(0)
	item := cookedItem("fried-rice", 150, 15)
	for i := 0; i < 50; i++ {
		if err := c.Add(item); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if got := c.Qty("fried-rice"); got != 50 {
		t.Fatalf("expected qty 50, got %d", got)
	}
}

func TestDecrementToZeroRemovesLine(t *testing.T) {
	c := New(0)
	if err := c.Add(cookedItem("tea", 15, 0)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.Decrement("tea"); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !c.Empty() {
		t.Fatalf("expected empty cart after decrementing last unit")
	}
	if err := c.Decrement("tea"); !errors.Is(err, ErrUnknownLine) {
		t.Fatalf("expected unknown line after removal, got %v", err)
	}
}

func TestDiscountClamp(t *testing.T) {
	c := New(0)
	if err := c.Add(cookedItem("beef-curry", 115, 15)); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Subtotal is 100.
	if clamped := c.SetDiscount(500); !clamped {
		t.Fatalf("expected clamp above subtotal")
	}
	if got := c.Discount(); got != 100 {
		t.Fatalf("expected discount clamped to 100, got %d", got)
	}
	if clamped := c.SetDiscount(-10); !clamped {
		t.Fatalf("expected clamp below zero")
	}
	if got := c.Discount(); got != 0 {
		t.Fatalf("expected discount clamped to 0, got %d", got)
	}
	if clamped := c.SetDiscount(40); clamped {
		t.Fatalf("in-range discount must not clamp")
	}
	if got := c.Totals().Total; got != 100+15-40 {
		t.Fatalf("expected total %d, got %d", 100+15-40, got)
	}
}

func TestCheckoutGuard(t *testing.T) {
	c := New(0)
	if err := c.CheckoutGuard(); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart rejection, got %v", err)
	}

	if err := c.Add(cookedItem("tea", 15, 0)); err != nil {
		t.Fatalf("add: %v", err)
	}
	c.OrderType = domain.OrderTypeDineIn
	if err := c.CheckoutGuard(); !errors.Is(err, ErrDineInCart) {
		t.Fatalf("expected dine-in redirect, got %v", err)
	}

	c.OrderType = domain.OrderTypeTakeaway
	if err := c.CheckoutGuard(); err != nil {
		t.Fatalf("takeaway checkout should pass: %v", err)
	}
}

func TestClearResetsEverything(t *testing.T) {
	c := New(0.10)
	c.ServiceOn = true
	if err := c.Add(cookedItem("tea", 15, 0)); err != nil {
		t.Fatalf("add: %v", err)
	}
	c.SetDiscount(5)
	c.Clear()

	if !c.Empty() || c.Discount() != 0 || c.ServiceOn {
		t.Fatalf("clear must reset lines, discount and service flag")
	}
	if got := c.Totals(); got.Total != 0 {
		t.Fatalf("expected zero totals after clear, got %+v", got)
	}
}
