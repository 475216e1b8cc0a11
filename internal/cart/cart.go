// Package cart holds an in-progress sale: line management with stock guards
// and the VAT-inclusive price decomposition used at checkout. Menu prices
// already contain VAT, so accounting needs the exclusive subtotal and the VAT
// amount recovered from them.
package cart

import (
	"errors"
	"math"

	"restaurantos/backend/internal/domain"
)

var (
	ErrOutOfStock    = errors.New("item out of stock")
	ErrStockExceeded = errors.New("quantity exceeds available stock")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrDineInCart    = errors.New("dine-in orders are settled through table billing")
	ErrUnknownLine   = errors.New("item not in cart")
)

type Line struct {
	ItemID    string
	Name      string
	Qty       int
	UnitPrice int64
	VATRate   float64
}

// LineTotal is always Qty*UnitPrice; it is never stored separately so the
// invariant cannot drift.
func (l Line) LineTotal() int64 {
	return int64(l.Qty) * l.UnitPrice
}

// lineVAT is the unrounded VAT component of a VAT-inclusive line total.
func (l Line) lineVAT() float64 {
	if l.VATRate <= 0 {
		return 0
	}
	return float64(l.LineTotal()) * l.VATRate / (100 + l.VATRate)
}

// Cart is transient view state for one sale. It is not safe for concurrent
// use; each terminal session owns its own cart.
type Cart struct {
	OrderType     string
	TableID       string
	ServiceOn     bool
	serviceRate   float64
	discount      int64
	lines         []Line
	linesByItemID map[string]int
}

func New(serviceRate float64) *Cart {
	if serviceRate < 0 {
		serviceRate = 0
	}
	return &Cart{
		OrderType:     domain.OrderTypeTakeaway,
		serviceRate:   serviceRate,
		linesByItemID: make(map[string]int),
	}
}

// Add creates or increments the line for item. Stock-tracked items are
// rejected at zero stock and capped at the available stock; cooked items have
// no ceiling. A rejected add leaves the cart unchanged.
func (c *Cart) Add(item domain.MenuItem) error {
	if item.TrackStock && item.Stock == 0 {
		return ErrOutOfStock
	}

	idx, exists := c.linesByItemID[item.ID]
	if !exists {
		c.lines = append(c.lines, Line{
			ItemID:    item.ID,
			Name:      item.Name,
			Qty:       1,
			UnitPrice: item.UnitPrice,
			VATRate:   item.VATRate,
		})
		c.linesByItemID[item.ID] = len(c.lines) - 1
		return nil
	}

	if item.TrackStock && c.lines[idx].Qty+1 > item.Stock {
		return ErrStockExceeded
	}
	c.lines[idx].Qty++
	return nil
}

// Increment is Add for an item already in the cart.
func (c *Cart) Increment(item domain.MenuItem) error {
	if _, exists := c.linesByItemID[item.ID]; !exists {
		return ErrUnknownLine
	}
	return c.Add(item)
}

// Decrement lowers the quantity by one; reaching zero removes the line.
func (c *Cart) Decrement(itemID string) error {
	idx, exists := c.linesByItemID[itemID]
	if !exists {
		return ErrUnknownLine
	}
	c.lines[idx].Qty--
	if c.lines[idx].Qty <= 0 {
		c.remove(idx)
	}
	return nil
}

// Remove drops the line entirely.
func (c *Cart) Remove(itemID string) error {
	idx, exists := c.linesByItemID[itemID]
	if !exists {
		return ErrUnknownLine
	}
	c.remove(idx)
	return nil
}

func (c *Cart) remove(idx int) {
	delete(c.linesByItemID, c.lines[idx].ItemID)
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	for i := idx; i < len(c.lines); i++ {
		c.linesByItemID[c.lines[i].ItemID] = i
	}
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Qty(itemID string) int {
	idx, exists := c.linesByItemID[itemID]
	if !exists {
		return 0
	}
	return c.lines[idx].Qty
}

// SetDiscount stores the discount clamped to [0, subtotal]. The boolean
// reports whether clamping happened so the caller can notify the user.
func (c *Cart) SetDiscount(amount int64) (clamped bool) {
	subtotal := c.Totals().Subtotal
	switch {
	case amount < 0:
		c.discount = 0
		return true
	case amount > subtotal:
		c.discount = subtotal
		return true
	default:
		c.discount = amount
		return false
	}
}

func (c *Cart) Discount() int64 {
	return c.discount
}

type Totals struct {
	InclusiveSubtotal int64
	Subtotal          int64
	VATAmount         int64
	ServiceCharge     int64
	Discount          int64
	Total             int64
}

// Totals decomposes the VAT-inclusive line totals. Per-line VAT stays
// unrounded; the cart rounds exactly once at cart level, as integer-taka VAT
// reporting requires. subtotal + vat may differ from the inclusive subtotal
// by at most one taka, which is accepted rather than corrected.
func (c *Cart) Totals() Totals {
	var inclusive int64
	var vatSum float64
	for _, line := range c.lines {
		inclusive += line.LineTotal()
		vatSum += line.lineVAT()
	}

	vat := int64(math.Round(vatSum))
	subtotal := int64(math.Round(float64(inclusive) - vatSum))

	var service int64
	if c.ServiceOn {
		service = int64(math.Round(float64(inclusive) * c.serviceRate))
	}

	discount := c.discount
	if discount > subtotal {
		discount = subtotal
	}

	return Totals{
		InclusiveSubtotal: inclusive,
		Subtotal:          subtotal,
		VATAmount:         vat,
		ServiceCharge:     service,
		Discount:          discount,
		Total:             subtotal + vat + service - discount,
	}
}

// CheckoutGuard validates that the cart may be submitted as an immediate
// sale. Dine-in carts are not an error, only a redirect to table billing.
func (c *Cart) CheckoutGuard() error {
	if c.Empty() {
		return ErrEmptyCart
	}
	if c.OrderType == domain.OrderTypeDineIn {
		return ErrDineInCart
	}
	return nil
}

// Clear resets the cart after a successful checkout or cancellation.
func (c *Cart) Clear() {
	c.lines = nil
	c.linesByItemID = make(map[string]int)
	c.discount = 0
	c.ServiceOn = false
	c.TableID = ""
}
