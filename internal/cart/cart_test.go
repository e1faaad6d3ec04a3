package cart

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tally/internal/posapi"
)

func product(id int64, price string, stock int) posapi.Product {
	return posapi.Product{
		ID:           id,
		Name:         "product-" + strconv.FormatInt(id, 10),
		SellingPrice: decimal.RequireFromString(price),
		CurrentStock: stock,
		Unit:         "pcs",
	}
}

func TestAdd_RespectsStockCeiling(t *testing.T) {
	c := New()
	p := product(7, "12500", 3)

	for i := 0; i < 3; i++ {
		require.Equal(t, Applied, c.Add(p), "add #%d", i+1)
	}
	assert.Equal(t, StockExceeded, c.Add(p))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 3, lines[0].StockCeiling)
	assert.True(t, lines[0].AtCeiling())
	assert.False(t, c.CanAdd(p))
}

func TestAdd_OutOfStockNeverChangesCart(t *testing.T) {
	c := New()
	require.Equal(t, Applied, c.Add(product(1, "1000", 5)))
	before := c.Lines()

	for _, stock := range []int{0, -2} {
		assert.Equal(t, StockExceeded, c.Add(product(2, "2000", stock)))
		assert.False(t, c.CanAdd(product(2, "2000", stock)))
	}
	assert.Equal(t, before, c.Lines())
}

func TestAdd_SnapshotsPrice(t *testing.T) {
	c := New()
	require.Equal(t, Applied, c.Add(product(3, "9000", 2)))

	// A later view of the same product moves the ceiling but keeps the price.
	require.Equal(t, Applied, c.Add(product(3, "9900", 50)))

	line, ok := c.Line(3)
	require.True(t, ok)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("9000")))
	assert.Equal(t, 50, line.StockCeiling)
}

func TestAdd_RefreshesCeilingFromLatestStock(t *testing.T) {
	tests := []struct {
		name         string
		first        int
		adds         int
		latest       int
		wantSignal   Signal
		wantQuantity int
		wantCanAdd   bool
	}{
		{"stock dropped below quantity", 5, 2, 1, ClampedToMax, 1, false},
		{"stock dropped to quantity", 5, 2, 2, StockExceeded, 2, false},
		{"stock rose above ceiling", 1, 1, 9, Applied, 2, true},
		{"stock unchanged with room", 4, 1, 4, Applied, 2, true},
		{"stock sold out", 5, 2, 0, StockExceeded, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for range tt.adds {
				require.Equal(t, Applied, c.Add(product(7, "500", tt.first)))
			}

			latest := product(7, "500", tt.latest)
			assert.Equal(t, tt.wantSignal, c.Add(latest))

			line, ok := c.Line(7)
			require.True(t, ok)
			assert.Equal(t, tt.wantQuantity, line.Quantity)
			assert.LessOrEqual(t, line.Quantity, line.StockCeiling)
			assert.Equal(t, tt.wantCanAdd, c.CanAdd(latest))
		})
	}
}

func TestCanAdd_UsesLatestStock(t *testing.T) {
	c := New()
	require.Equal(t, Applied, c.Add(product(8, "500", 1)))

	assert.False(t, c.CanAdd(product(8, "500", 1)))
	assert.True(t, c.CanAdd(product(8, "500", 9)))
}

func TestSetQuantity_Clamps(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
		signal    Signal
	}{
		{"within range", 3, 3, Applied},
		{"at ceiling", 5, 5, Applied},
		{"above ceiling", 9, 5, ClampedToMax},
		{"zero", 0, 1, Applied},
		{"negative", -4, 1, Applied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			require.Equal(t, Applied, c.Add(product(1, "1500", 5)))
			assert.Equal(t, tt.signal, c.SetQuantity(1, tt.requested))
			line, _ := c.Line(1)
			assert.Equal(t, tt.want, line.Quantity)
		})
	}
}

func TestSetQuantityText_NonNumericResolvesToOne(t *testing.T) {
	c := New()
	require.Equal(t, Applied, c.Add(product(1, "1500", 5)))
	require.Equal(t, Applied, c.SetQuantity(1, 4))

	for _, raw := range []string{"", "abc", "2.5", "  "} {
		assert.Equal(t, Applied, c.SetQuantityText(1, raw), "raw %q", raw)
		line, _ := c.Line(1)
		assert.Equal(t, 1, line.Quantity, "raw %q", raw)
	}

	assert.Equal(t, ClampedToMax, c.SetQuantityText(1, " 12 "))
	line, _ := c.Line(1)
	assert.Equal(t, 5, line.Quantity)
}

func TestSetQuantity_UnknownProduct(t *testing.T) {
	c := New()
	assert.Equal(t, NotInCart, c.SetQuantity(42, 2))
	assert.Zero(t, c.Len())
}

func TestRemoveClearAndTotal(t *testing.T) {
	c := New()
	require.Equal(t, Applied, c.Add(product(1, "18000", 4)))
	require.Equal(t, Applied, c.Add(product(2, "3500.50", 10)))
	require.Equal(t, Applied, c.SetQuantity(1, 2))
	require.Equal(t, Applied, c.SetQuantity(2, 3))

	assert.Equal(t, "46501.5", c.Total().String())

	c.Remove(1)
	c.Remove(1)
	assert.Equal(t, "10501.5", c.Total().String(), "total is recomputed after every change")
	assert.Equal(t, []posapi.OrderItemCreate{{ProductID: 2, Quantity: 3}}, c.Items())

	c.Clear()
	assert.Zero(t, c.Len())
	assert.True(t, c.Total().IsZero())
	assert.Nil(t, c.Lines())
	assert.Empty(t, c.Items())
}

func TestLines_ReturnsCopy(t *testing.T) {
	c := New()
	require.Equal(t, Applied, c.Add(product(1, "1000", 3)))
	lines := c.Lines()
	lines[0].Quantity = 99

	line, _ := c.Line(1)
	assert.Equal(t, 1, line.Quantity)
}

func TestCart_InvariantsHoldUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	catalog := []posapi.Product{
		product(1, "1000", 0),
		product(2, "2500", 1),
		product(3, "7999.99", 3),
		product(4, "150", 12),
		product(5, "0.01", 40),
	}

	for run := 0; run < 200; run++ {
		c := New()
		for step := 0; step < 60; step++ {
			p := catalog[rng.IntN(len(catalog))]
			switch rng.IntN(4) {
			case 0:
				c.Add(p)
			case 1:
				restocked := p
				restocked.CurrentStock = rng.IntN(6)
				if p.ID == 1 {
					restocked.CurrentStock = 0
				}
				c.Add(restocked)
			case 2:
				c.SetQuantity(p.ID, rng.IntN(60)-10)
			case 3:
				c.SetQuantityText(p.ID, []string{"x", "", "3", "100", "-1"}[rng.IntN(5)])
			}

			seen := map[int64]bool{}
			expected := decimal.Zero
			for _, line := range c.Lines() {
				if line.Quantity < 1 || line.Quantity > line.StockCeiling {
					t.Fatalf("run %d step %d: line %d quantity %d outside [1, %d]", run, step, line.ProductID, line.Quantity, line.StockCeiling)
				}
				if seen[line.ProductID] {
					t.Fatalf("run %d step %d: duplicate line for product %d", run, step, line.ProductID)
				}
				seen[line.ProductID] = true
				expected = expected.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			}
			if !c.Total().Equal(expected) {
				t.Fatalf("run %d step %d: Total = %s, want %s", run, step, c.Total(), expected)
			}
			if seen[1] {
				t.Fatalf("run %d step %d: out-of-stock product entered the cart", run, step)
			}
		}
	}
}

func TestSignalString(t *testing.T) {
	assert.Equal(t, "clamped to max", ClampedToMax.String())
	assert.Equal(t, "signal(12)", Signal(12).String())
}
