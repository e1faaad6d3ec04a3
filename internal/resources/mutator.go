package resources

import (
	"context"
	"net/url"

	"github.com/go-logr/logr"

	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/query"
)

// Refetcher is the part of a list controller a mutation needs.
type Refetcher interface {
	AfterMutation(ctx context.Context) error
	AfterDelete(ctx context.Context, removed int) error
}

// Mutator performs writes and then refreshes the affected list. Rows are
// never patched locally; the list is refetched at its current page and
// filters, stepping back a page when a delete empties the last one.
type Mutator struct {
	client     *posapi.Client
	categories *CategoryOptions
	logger     logr.Logger
}

// NewMutator returns a Mutator. categories may be nil.
func NewMutator(client *posapi.Client, categories *CategoryOptions, logger logr.Logger) *Mutator {
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	return &Mutator{client: client, categories: categories, logger: logger}
}

// Create posts body to screen and refetches list.
func (m *Mutator) Create(ctx context.Context, screen Screen, body, dest any, list Refetcher) error {
	if err := m.client.Create(ctx, screen.Resource(), body, dest); err != nil {
		return m.fail("create "+screen.Singular(), err)
	}
	m.touched(screen)
	return refetch(ctx, list)
}

// Update puts body to screen/id and refetches list.
func (m *Mutator) Update(ctx context.Context, screen Screen, id int64, body, dest any, list Refetcher) error {
	if err := m.client.Update(ctx, screen.Resource(), id, body, dest); err != nil {
		return m.fail("update "+screen.Singular(), err)
	}
	m.touched(screen)
	return refetch(ctx, list)
}

// Delete removes screen/id and refetches list, stepping back a page if the
// current one is now past the end.
func (m *Mutator) Delete(ctx context.Context, screen Screen, id int64, params url.Values, list Refetcher) error {
	if err := m.client.Delete(ctx, screen.Resource(), id, params); err != nil {
		return m.fail("delete "+screen.Singular(), err)
	}
	m.logger.Info("deleted", "resource", screen.Name, "id", id)
	m.touched(screen)
	if list == nil {
		return nil
	}
	return list.AfterDelete(ctx, 1)
}

// DeleteProduct deactivates a product, or removes it when permanent is set.
func (m *Mutator) DeleteProduct(ctx context.Context, id int64, permanent bool, list Refetcher) error {
	params := url.Values{}
	if permanent {
		params.Set("permanent_delete", "true")
	}
	return m.Delete(ctx, Products, id, params, list)
}

// SetOrderStatus changes an order's status and refetches list.
func (m *Mutator) SetOrderStatus(ctx context.Context, id int64, status string, list Refetcher) (*posapi.Order, error) {
	order, err := m.client.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, m.fail("update order status", err)
	}
	m.logger.Info("order status changed", "id", id, "status", status)
	return order, refetch(ctx, list)
}

// StockIn records received stock and refetches every given list.
func (m *Mutator) StockIn(ctx context.Context, in posapi.StockIn, lists ...Refetcher) error {
	if err := m.client.StockIn(ctx, in); err != nil {
		return m.fail("record stock in", err)
	}
	return refetch(ctx, lists...)
}

// AdjustStock sets an audited stock level and refetches every given list.
func (m *Mutator) AdjustStock(ctx context.Context, adj posapi.StockAdjustment, lists ...Refetcher) error {
	if err := m.client.AdjustStock(ctx, adj); err != nil {
		return m.fail("adjust stock", err)
	}
	return refetch(ctx, lists...)
}

func (m *Mutator) touched(screen Screen) {
	if screen.Name == Categories.Name && m.categories != nil {
		m.categories.Invalidate()
	}
}

func (m *Mutator) fail(op string, err error) error {
	m.logger.Error(err, "mutation failed", "op", op)
	return &query.Failure{Op: op, Cause: err}
}

func refetch(ctx context.Context, lists ...Refetcher) error {
	for _, list := range lists {
		if list == nil {
			continue
		}
		if err := list.AfterMutation(ctx); err != nil {
			return err
		}
	}
	return nil
}
