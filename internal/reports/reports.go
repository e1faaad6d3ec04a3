package reports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/jellydator/ttlcache/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/five82/tally/internal/obs"
	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/query"
)

// DefaultNameTTL is how long product names looked up for order details are
// reused.
const DefaultNameTTL = 10 * time.Minute

// ErrInvalidPeriod rejects a sales period that ends before it starts.
var ErrInvalidPeriod = errors.New("start date cannot be after end date")

// API is the part of the backend the reports read.
type API interface {
	DashboardSummary(ctx context.Context) (*posapi.DashboardSummary, error)
	SalesReport(ctx context.Context, start, end time.Time, groupBy string) ([]posapi.SalesRow, error)
	LowStock(ctx context.Context) ([]posapi.LowStockItem, error)
	GetOrder(ctx context.Context, id int64) (*posapi.Order, error)
	GetProduct(ctx context.Context, id int64) (*posapi.Product, error)
}

// Grouping is the sales report bucket size.
type Grouping string

const (
	ByDay   Grouping = "day"
	ByMonth Grouping = "month"
)

// Next toggles between day and month buckets.
func (g Grouping) Next() Grouping {
	if g == ByDay {
		return ByMonth
	}
	return ByDay
}

// Period selects the sales report range. Start and End are calendar days and
// End is inclusive.
type Period struct {
	Start   time.Time
	End     time.Time
	GroupBy Grouping
}

// DefaultPeriod ends today. By day it covers the last seven days, by month
// the current month and the five before it.
func DefaultPeriod(now time.Time, g Grouping) Period {
	today := dateOf(now)
	if g == ByMonth {
		start := time.Date(today.Year(), today.Month()-5, 1, 0, 0, 0, 0, today.Location())
		return Period{Start: start, End: today, GroupBy: ByMonth}
	}
	return Period{Start: today.AddDate(0, 0, -6), End: today, GroupBy: ByDay}
}

// Validate checks the grouping and that the period does not run backwards.
func (p Period) Validate() error {
	if p.GroupBy != ByDay && p.GroupBy != ByMonth {
		return fmt.Errorf("unsupported grouping %q", p.GroupBy)
	}
	if dateOf(p.Start).After(dateOf(p.End)) {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%s to %s by %s", p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly), p.GroupBy)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Dashboard is one load of every report section.
type Dashboard struct {
	Period   Period
	Summary  *posapi.DashboardSummary
	Sales    []posapi.SalesRow
	LowStock []posapi.LowStockItem

	SummaryErr  error
	SalesErr    error
	LowStockErr error
}

// SalesTotals sums the sales report rows.
func (d Dashboard) SalesTotals() (sales decimal.Decimal, items int, profit decimal.Decimal) {
	for _, r := range d.Sales {
		sales = sales.Add(r.TotalSales)
		items += r.TotalItems
		profit = profit.Add(r.EstimatedProfit)
	}
	return sales, items, profit
}

// Service loads reports and order details for one session.
type Service struct {
	api    API
	logger logr.Logger
	names  *ttlcache.Cache[int64, string]
	stop   sync.Once
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a Service reading from api.
func New(api API, opts ...Option) *Service {
	s := &Service{api: api, logger: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	s.names = ttlcache.New(ttlcache.WithTTL[int64, string](DefaultNameTTL))
	go s.names.Start()
	return s
}

// Close stops the name cache's expiry goroutine.
func (s *Service) Close() {
	s.stop.Do(s.names.Stop)
}

// Dashboard fetches the summary, the sales report for period and the
// low-stock list concurrently. The returned error combines the sections that
// failed; the Dashboard is usable either way. An invalid period fails the
// sales section without a request.
func (s *Service) Dashboard(ctx context.Context, period Period) (Dashboard, error) {
	d := Dashboard{Period: period}
	var g errgroup.Group

	g.Go(func() error {
		summary, err := s.api.DashboardSummary(ctx)
		d.Summary, d.SummaryErr = summary, failure("fetch dashboard summary", err)
		return nil
	})
	if err := period.Validate(); err != nil {
		d.SalesErr = err
	} else {
		g.Go(func() error {
			rows, err := s.api.SalesReport(ctx, period.Start, period.End, string(period.GroupBy))
			d.Sales, d.SalesErr = rows, failure("fetch sales report", err)
			return nil
		})
	}
	g.Go(func() error {
		items, err := s.api.LowStock(ctx)
		d.LowStock, d.LowStockErr = items, failure("fetch low stock report", err)
		return nil
	})
	_ = g.Wait()

	err := multierr.Combine(d.SummaryErr, d.SalesErr, d.LowStockErr)
	if err != nil {
		s.logger.Error(err, "load dashboard", "period", period.String())
	} else {
		s.logger.V(obs.VERBOSE).Info("loaded dashboard", "period", period.String(),
			"salesRows", len(d.Sales), "lowStock", len(d.LowStock))
	}
	return d, err
}

func failure(op string, err error) error {
	if err == nil {
		return nil
	}
	return &query.Failure{Op: op, Cause: err}
}
