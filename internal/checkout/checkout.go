// Package checkout submits the cart as a new order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/five82/tally/internal/cart"
	"github.com/five82/tally/internal/obs"
	"github.com/five82/tally/internal/posapi"
)

const (
	// DefaultPaymentMethod is used when Details.PaymentMethod is blank.
	DefaultPaymentMethod = "Cash"
	// Source tags orders created from this client.
	Source = "dashboard_pos"
)

// PaymentMethods lists the choices offered at the counter.
var PaymentMethods = []string{"Cash", "QRIS", "Card", "Transfer"}

// State is the position of a Flow.
type State int

const (
	Ready State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// ValidationFailure is a local problem caught before anything is sent.
type ValidationFailure struct {
	Field  string
	Reason string
}

func (v *ValidationFailure) Error() string { return v.Reason }

// SubmissionFailure wraps a failed order creation. The cart is left as it was.
type SubmissionFailure struct {
	RequestID string
	Cause     error
}

func (s *SubmissionFailure) Error() string {
	return fmt.Sprintf("create order: %v", s.Cause)
}

func (s *SubmissionFailure) Unwrap() error { return s.Cause }

var (
	// ErrEmptyCart rejects a submission with no lines.
	ErrEmptyCart = &ValidationFailure{Field: "items", Reason: "Cart is empty. Please add products to the order."}
	// ErrSubmitting rejects a submission while another is in flight.
	ErrSubmitting = errors.New("order submission already in progress")
)

// OrderCreator posts orders to the backend.
type OrderCreator interface {
	CreateOrder(ctx context.Context, order posapi.OrderCreate, requestID string) (*posapi.Order, error)
}

// Resetter is the product search cleared after a successful order.
type Resetter interface {
	Reset()
}

// Details are the order-level form fields.
type Details struct {
	PaymentMethod string
	Notes         string
}

// Flow drives Ready → Submitting → Succeeded | Failed for one cart.
type Flow struct {
	cart   *cart.Cart
	orders OrderCreator
	search Resetter
	logger logr.Logger
	newID  func() string

	mu      sync.Mutex
	state   State
	last    *posapi.Order
	lastErr error
}

// Option customises a Flow.
type Option func(*Flow)

// WithLogger sets the logger.
func WithLogger(logger logr.Logger) Option {
	return func(f *Flow) { f.logger = logger }
}

// WithSearch sets the search reset after a successful order.
func WithSearch(search Resetter) Option {
	return func(f *Flow) { f.search = search }
}

// WithRequestIDs replaces the uuid request id generator.
func WithRequestIDs(next func() string) Option {
	return func(f *Flow) {
		if next != nil {
			f.newID = next
		}
	}
}

// New returns a Ready flow submitting c through orders.
func New(c *cart.Cart, orders OrderCreator, opts ...Option) *Flow {
	f := &Flow{
		cart:   c,
		orders: orders,
		logger: logr.Discard(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// CanSubmit reports whether Submit would reach the backend.
func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state != Submitting && f.cart.Len() > 0
}

// Last returns the most recent created order and submission error.
func (f *Flow) Last() (*posapi.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.lastErr
}

// Submit sends the cart as a new order. An empty cart returns ErrEmptyCart
// without a network call, and a second Submit while one is in flight returns
// ErrSubmitting. On success the returned order is the backend's record, the
// cart is cleared and the search is reset. On failure the cart is untouched
// and the error is a *SubmissionFailure.
func (f *Flow) Submit(ctx context.Context, details Details) (*posapi.Order, error) {
	f.mu.Lock()
	if f.state == Submitting {
		f.mu.Unlock()
		return nil, ErrSubmitting
	}
	items := f.cart.Items()
	if len(items) == 0 {
		f.mu.Unlock()
		return nil, ErrEmptyCart
	}
	f.state = Submitting
	f.mu.Unlock()

	payment := strings.TrimSpace(details.PaymentMethod)
	if payment == "" {
		payment = DefaultPaymentMethod
	}
	payload := posapi.OrderCreate{
		Items:         items,
		PaymentMethod: payment,
		Notes:         strings.TrimSpace(details.Notes),
		Source:        Source,
	}
	requestID := f.newID()
	log := f.logger.WithValues("requestID", requestID)
	log.V(obs.VERBOSE).Info("submitting order", "items", len(items), "payment", payment, "advisoryTotal", f.cart.Total().StringFixed(2))

	order, err := f.orders.CreateOrder(ctx, payload, requestID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		failure := &SubmissionFailure{RequestID: requestID, Cause: err}
		f.state = Failed
		f.lastErr = failure
		log.Error(err, "order submission failed")
		return nil, failure
	}

	f.state = Succeeded
	f.last = order
	f.lastErr = nil
	f.cart.Clear()
	if f.search != nil {
		f.search.Reset()
	}
	log.Info("order created", "orderNumber", order.OrderNumber, "total", order.TotalAmount.StringFixed(2))
	return order, nil
}
