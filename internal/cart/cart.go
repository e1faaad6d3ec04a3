// Package cart holds the in-memory, stock-aware order being built on the POS
// screen.
//
// Every line satisfies 1 <= Quantity <= StockCeiling and no two lines share a
// product. Operations never fail. Quantity limits come back as a Signal that
// the caller shows to the user.
package cart

import (
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/five82/tally/internal/posapi"
)

// Signal reports how an operation resolved.
type Signal int

const (
	// Applied means the operation took effect as requested.
	Applied Signal = iota
	// StockExceeded means nothing changed because stock ran out.
	StockExceeded
	// ClampedToMax means the quantity was lowered to the stock ceiling.
	ClampedToMax
	// NotInCart means the product has no line.
	NotInCart
)

func (s Signal) String() string {
	switch s {
	case Applied:
		return "applied"
	case StockExceeded:
		return "stock exceeded"
	case ClampedToMax:
		return "clamped to max"
	case NotInCart:
		return "not in cart"
	default:
		return "signal(" + strconv.Itoa(int(s)) + ")"
	}
}

// Line is one product in the cart. UnitPrice and StockCeiling are snapshots
// taken when the product was added.
type Line struct {
	ProductID    int64
	Name         string
	UnitPrice    decimal.Decimal
	Quantity     int
	StockCeiling int
	Unit         string
}

// Subtotal is Quantity × UnitPrice.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AtCeiling reports whether another unit would exceed stock.
func (l Line) AtCeiling() bool { return l.Quantity >= l.StockCeiling }

// Cart is an ordered set of lines keyed by product. The zero value is an
// empty, ready-to-use cart.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart.
func New() *Cart { return &Cart{} }

// Add puts one unit of p in the cart: a new line with quantity 1, or an
// increment of the existing line. An existing line takes p.CurrentStock as
// its new ceiling first. If that ceiling is below the line's quantity the
// quantity drops to the ceiling and Add returns ClampedToMax. Add returns
// StockExceeded, leaving the cart untouched, when p has no stock or the line
// is already at its ceiling.
func (c *Cart) Add(p posapi.Product) Signal {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.CurrentStock <= 0 {
		return StockExceeded
	}
	if i := c.indexLocked(p.ID); i >= 0 {
		line := &c.lines[i]
		line.StockCeiling = p.CurrentStock
		switch {
		case line.Quantity > line.StockCeiling:
			line.Quantity = line.StockCeiling
			return ClampedToMax
		case line.Quantity+1 > line.StockCeiling:
			return StockExceeded
		}
		line.Quantity++
		return Applied
	}
	c.lines = append(c.lines, Line{
		ProductID:    p.ID,
		Name:         p.Name,
		UnitPrice:    p.SellingPrice,
		Quantity:     1,
		StockCeiling: p.CurrentStock,
		Unit:         p.Unit,
	})
	return Applied
}

// CanAdd reports whether Add(p) would add a unit, judged against
// p.CurrentStock rather than the line's stored ceiling.
func (c *Cart) CanAdd(p posapi.Product) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.CurrentStock <= 0 {
		return false
	}
	if i := c.indexLocked(p.ID); i >= 0 {
		return c.lines[i].Quantity < p.CurrentStock
	}
	return true
}

// SetQuantity sets a line's quantity clamped to [1, StockCeiling]. Values
// below 1 resolve to 1. Values above the ceiling resolve to the ceiling and
// return ClampedToMax.
func (c *Cart) SetQuantity(productID int64, requested int) Signal {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(productID)
	if i < 0 {
		return NotInCart
	}
	line := &c.lines[i]
	switch {
	case requested < 1:
		line.Quantity = 1
	case requested > line.StockCeiling:
		line.Quantity = line.StockCeiling
		return ClampedToMax
	default:
		line.Quantity = requested
	}
	return Applied
}

// SetQuantityText parses raw input, as typed into a quantity field. Anything
// that is not an integer resolves to 1.
func (c *Cart) SetQuantityText(productID int64, raw string) Signal {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = 1
	}
	return c.SetQuantity(productID, n)
}

// Remove deletes the product's line if present.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return nil
	}
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line returns the line for productID.
func (c *Cart) Line(productID int64) (Line, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(productID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// Total is Σ Quantity × UnitPrice over the current lines. It is advisory;
// the backend computes the authoritative amount.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Items derives the order payload lines.
func (c *Cart) Items() []posapi.OrderItemCreate {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]posapi.OrderItemCreate, 0, len(c.lines))
	for _, line := range c.lines {
		items = append(items, posapi.OrderItemCreate{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return items
}

func (c *Cart) indexLocked(productID int64) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
