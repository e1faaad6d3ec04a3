package checkout

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tally/internal/cart"
	"github.com/five82/tally/internal/debounce"
	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/query"
)

type fakeOrders struct {
	mu       sync.Mutex
	calls    int
	payloads []posapi.OrderCreate
	ids      []string
	err      error
	gate     chan struct{}
}

func (f *fakeOrders) CreateOrder(_ context.Context, order posapi.OrderCreate, requestID string) (*posapi.Order, error) {
	f.mu.Lock()
	f.calls++
	f.payloads = append(f.payloads, order)
	f.ids = append(f.ids, requestID)
	gate, err := f.gate, f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &posapi.Order{
		ID:            99,
		OrderNumber:   "ORD-20250301-0099",
		TotalAmount:   decimal.RequireFromString("41000"),
		PaymentMethod: order.PaymentMethod,
		Status:        "completed",
	}, nil
}

func (f *fakeOrders) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func product(id int64, price string, stock int) posapi.Product {
	return posapi.Product{ID: id, Name: "item", SellingPrice: decimal.RequireFromString(price), CurrentStock: stock}
}

func filledCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New()
	require.Equal(t, cart.Applied, c.Add(product(7, "18000", 3)))
	require.Equal(t, cart.Applied, c.Add(product(7, "18000", 3)))
	require.Equal(t, cart.Applied, c.Add(product(9, "5000", 10)))
	return c
}

func TestSubmit_EmptyCartMakesNoCall(t *testing.T) {
	orders := &fakeOrders{}
	f := New(cart.New(), orders)

	order, err := f.Submit(context.Background(), Details{})
	assert.Nil(t, order)
	require.ErrorIs(t, err, ErrEmptyCart)

	var validation *ValidationFailure
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "items", validation.Field)
	assert.Zero(t, orders.callCount())
	assert.Equal(t, Ready, f.State())
	assert.False(t, f.CanSubmit())
}

func TestSubmit_SuccessClearsCartAndSearch(t *testing.T) {
	orders := &fakeOrders{}
	c := filledCart(t)

	search := debounce.New(time.Hour, nil)
	search.Push("kopi")
	require.True(t, search.Flush())
	require.Equal(t, "kopi", search.LastCommitted())

	f := New(c, orders, WithSearch(search), WithRequestIDs(func() string { return "req-1" }))
	order, err := f.Submit(context.Background(), Details{Notes: "  no sugar  "})
	require.NoError(t, err)

	assert.Equal(t, "ORD-20250301-0099", order.OrderNumber)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("41000")))
	assert.Zero(t, c.Len())
	assert.Equal(t, "", search.LastCommitted())
	assert.Equal(t, Succeeded, f.State())

	want := posapi.OrderCreate{
		Items:         []posapi.OrderItemCreate{{ProductID: 7, Quantity: 2}, {ProductID: 9, Quantity: 1}},
		PaymentMethod: DefaultPaymentMethod,
		Notes:         "no sugar",
		Source:        Source,
	}
	if diff := cmp.Diff(want, orders.payloads[0]); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"req-1"}, orders.ids)

	last, lastErr := f.Last()
	assert.Same(t, order, last)
	assert.NoError(t, lastErr)
}

func TestSubmit_FailurePreservesCart(t *testing.T) {
	apiErr := &posapi.APIError{Method: http.MethodPost, Path: "/orders", Status: http.StatusBadRequest, Detail: "Stock for Kopi is insufficient"}
	orders := &fakeOrders{err: apiErr}
	c := filledCart(t)
	before := c.Lines()

	f := New(c, orders)
	_, err := f.Submit(context.Background(), Details{PaymentMethod: "QRIS"})

	var failure *SubmissionFailure
	require.ErrorAs(t, err, &failure)
	assert.NotEmpty(t, failure.RequestID)
	assert.ErrorIs(t, err, apiErr)
	assert.Equal(t, "Stock for Kopi is insufficient", query.Message(err))
	assert.Equal(t, Failed, f.State())
	assert.Equal(t, before, c.Lines())
	assert.Equal(t, "QRIS", orders.payloads[0].PaymentMethod)

	// The same cart can be retried.
	orders.mu.Lock()
	orders.err = nil
	orders.mu.Unlock()
	_, err = f.Submit(context.Background(), Details{PaymentMethod: "QRIS"})
	require.NoError(t, err)
	assert.Equal(t, 2, orders.callCount())
	assert.NotEqual(t, orders.ids[0], orders.ids[1], "each submission gets its own request id")
}

func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	orders := &fakeOrders{gate: make(chan struct{})}
	f := New(filledCart(t), orders)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background(), Details{})
		done <- err
	}()
	require.Eventually(t, func() bool { return f.State() == Submitting }, time.Second, time.Millisecond)
	assert.False(t, f.CanSubmit())

	_, err := f.Submit(context.Background(), Details{})
	assert.True(t, errors.Is(err, ErrSubmitting))

	close(orders.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, orders.callCount())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "state(7)", State(7).String())
}
