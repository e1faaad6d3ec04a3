package reports

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/query"
)

var testNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

type fakeAPI struct {
	// arrivals, when set, is waited on by the three dashboard calls so they
	// only return once all of them are in flight.
	arrivals *sync.WaitGroup

	summaryErr  error
	salesErr    error
	lowStockErr error

	mu         sync.Mutex
	salesCalls []string
	order      *posapi.Order
	products   map[int64]string
	lookups    atomic.Int32
}

func (f *fakeAPI) arrive(ctx context.Context) error {
	if f.arrivals == nil {
		return nil
	}
	f.arrivals.Done()
	done := make(chan struct{})
	go func() {
		f.arrivals.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) DashboardSummary(ctx context.Context) (*posapi.DashboardSummary, error) {
	if err := f.arrive(ctx); err != nil {
		return nil, err
	}
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return &posapi.DashboardSummary{TransactionsMonth: 42, CriticalStock: 3}, nil
}

func (f *fakeAPI) SalesReport(ctx context.Context, start, end time.Time, groupBy string) ([]posapi.SalesRow, error) {
	f.mu.Lock()
	f.salesCalls = append(f.salesCalls, start.Format(time.DateOnly)+".."+end.Format(time.DateOnly)+" "+groupBy)
	f.mu.Unlock()
	if err := f.arrive(ctx); err != nil {
		return nil, err
	}
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	return []posapi.SalesRow{
		{Date: "2025-02-28", TotalSales: decimal.RequireFromString("45000"), TotalItems: 3, EstimatedProfit: decimal.RequireFromString("12000.25")},
		{Date: "2025-03-01", TotalSales: decimal.RequireFromString("15000"), TotalItems: 1, EstimatedProfit: decimal.RequireFromString("4000")},
	}, nil
}

func (f *fakeAPI) LowStock(ctx context.Context) ([]posapi.LowStockItem, error) {
	if err := f.arrive(ctx); err != nil {
		return nil, err
	}
	if f.lowStockErr != nil {
		return nil, f.lowStockErr
	}
	return []posapi.LowStockItem{{ProductName: "Gula Aren", CurrentStock: 1, Threshold: 5, Unit: "kg"}}, nil
}

func (f *fakeAPI) GetOrder(_ context.Context, id int64) (*posapi.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, &posapi.APIError{Status: 404, Detail: "Order not found"}
	}
	o := *f.order
	return &o, nil
}

func (f *fakeAPI) GetProduct(_ context.Context, id int64) (*posapi.Product, error) {
	f.lookups.Add(1)
	name, ok := f.products[id]
	if !ok {
		return nil, &posapi.APIError{Status: 404, Detail: "Product not found"}
	}
	return &posapi.Product{ID: id, Name: name}, nil
}

func (f *fakeAPI) sales() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.salesCalls...)
}

func newService(t *testing.T, api API) *Service {
	t.Helper()
	s := New(api)
	t.Cleanup(s.Close)
	return s
}

func TestDefaultPeriod(t *testing.T) {
	tests := []struct {
		name     string
		grouping Grouping
		want     string
	}{
		{"last seven days", ByDay, "2025-02-23 to 2025-03-01 by day"},
		{"last six months", ByMonth, "2024-10-01 to 2025-03-01 by month"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPeriod(testNow, tt.grouping)
			assert.Equal(t, tt.want, p.String())
			assert.NoError(t, p.Validate())
		})
	}
	assert.Equal(t, ByMonth, ByDay.Next())
	assert.Equal(t, ByDay, ByMonth.Next())
}

func TestPeriodValidate(t *testing.T) {
	backwards := Period{Start: testNow, End: testNow.AddDate(0, 0, -1), GroupBy: ByDay}
	assert.ErrorIs(t, backwards.Validate(), ErrInvalidPeriod)

	sameDay := Period{Start: testNow.Add(8 * time.Hour), End: testNow, GroupBy: ByDay}
	assert.NoError(t, sameDay.Validate(), "times within one day never run backwards")

	weekly := Period{Start: testNow, End: testNow, GroupBy: "week"}
	assert.Error(t, weekly.Validate())
}

func TestDashboard_LoadsSectionsConcurrently(t *testing.T) {
	arrivals := &sync.WaitGroup{}
	arrivals.Add(3)
	api := &fakeAPI{arrivals: arrivals}
	s := newService(t, api)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	d, err := s.Dashboard(ctx, DefaultPeriod(testNow, ByDay))
	require.NoError(t, err)
	require.NotNil(t, d.Summary)
	assert.Equal(t, 42, d.Summary.TransactionsMonth)
	assert.Len(t, d.Sales, 2)
	assert.Len(t, d.LowStock, 1)
	assert.Equal(t, []string{"2025-02-23..2025-03-01 day"}, api.sales())

	sales, items, profit := d.SalesTotals()
	assert.Equal(t, "60000", sales.String())
	assert.Equal(t, 4, items)
	assert.Equal(t, "16000.25", profit.String())
}

func TestDashboard_FailedSectionLeavesOthers(t *testing.T) {
	api := &fakeAPI{
		salesErr:    &posapi.APIError{Status: 501, Detail: "Grouping by 'month' not implemented yet."},
		lowStockErr: errors.New("connection reset"),
	}
	s := newService(t, api)

	d, err := s.Dashboard(context.Background(), DefaultPeriod(testNow, ByMonth))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)

	require.NotNil(t, d.Summary)
	assert.NoError(t, d.SummaryErr)
	assert.Equal(t, "Grouping by 'month' not implemented yet.", query.Message(d.SalesErr))
	assert.Equal(t, "Failed to fetch low stock report", query.Message(d.LowStockErr))
	assert.Empty(t, d.Sales)
}

func TestDashboard_InvalidPeriodSkipsSalesRequest(t *testing.T) {
	api := &fakeAPI{}
	s := newService(t, api)

	period := Period{Start: testNow, End: testNow.AddDate(0, 0, -3), GroupBy: ByDay}
	d, err := s.Dashboard(context.Background(), period)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.ErrorIs(t, d.SalesErr, ErrInvalidPeriod)
	assert.Empty(t, api.sales())
	assert.NotNil(t, d.Summary)
	assert.Len(t, d.LowStock, 1)
}

func TestOrder_NamesItems(t *testing.T) {
	api := &fakeAPI{
		order: &posapi.Order{ID: 90, OrderNumber: "ORD-0090", Items: []posapi.OrderItem{
			{ProductID: 7, Quantity: 2, Product: &posapi.Product{ID: 7, Name: "Kopi Susu"}},
			{ProductID: 8, Quantity: 1},
			{ProductID: 9, Quantity: 1},
			{ProductID: 8, Quantity: 3},
		}},
		products: map[int64]string{8: "Teh Tarik"},
	}
	s := newService(t, api)

	d, err := s.Order(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, "ORD-0090", d.Order.OrderNumber)
	assert.Equal(t, "Kopi Susu", d.ProductName(7))
	assert.Equal(t, "Teh Tarik", d.ProductName(8))
	assert.Equal(t, "Product #9", d.ProductName(9), "a failed lookup falls back to the product number")
	assert.EqualValues(t, 2, api.lookups.Load(), "one lookup per missing product")

	// Names found earlier are reused.
	_, err = s.Order(context.Background(), 90)
	require.NoError(t, err)
	assert.EqualValues(t, 3, api.lookups.Load(), "only the unknown product is looked up again")
}

func TestOrder_NotFound(t *testing.T) {
	s := newService(t, &fakeAPI{})

	_, err := s.Order(context.Background(), 404)
	var failure *query.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "fetch order", failure.Op)
	assert.Equal(t, "Order not found", query.Message(err))
}
