package listsync

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/five82/tally/internal/obs"
	"github.com/five82/tally/internal/query"
)

// DefaultPageSize is used when Config.PageSize is not positive.
const DefaultPageSize = 10

// Config configures a Controller.
type Config[T any] struct {
	// Defaults are the filter values restored by ClearFilters.
	Defaults query.Filters
	// Pinned filters are sent with every request and cannot be changed or
	// cleared, e.g. the owner of a non-admin order list.
	Pinned   query.Filters
	PageSize int
	Logger   logr.Logger
	// OnChange, when set, receives a snapshot after every transition. It runs
	// outside the controller's lock.
	OnChange func(State[T])
	// Now is used for LastUpdated; defaults to time.Now.
	Now func() time.Time
}

// Controller keeps one list screen's State in step with the backend. Every
// transition that changes what should be shown bumps the epoch and issues
// exactly one query. Only the response for the newest epoch is applied; older
// responses are dropped whenever they arrive.
//
// Methods block for the duration of the query and are safe to call from
// multiple goroutines.
type Controller[T any] struct {
	query    *query.Query[T]
	defaults query.Filters
	pinned   query.Filters
	logger   logr.Logger
	onChange func(State[T])
	now      func() time.Time

	mu    sync.RWMutex
	state State[T]
}

// New returns an Idle controller. Nothing is fetched until Mount.
func New[T any](q *query.Query[T], cfg Config[T]) *Controller[T] {
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	logger := cfg.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	c := &Controller[T]{
		query:    q,
		defaults: cfg.Defaults.Clone(),
		pinned:   cfg.Pinned.Clone(),
		logger:   logger.WithValues("list", q.Op()),
		onChange: cfg.OnChange,
		now:      now,
	}
	c.state = State[T]{
		Filters:  c.withPinned(c.defaults),
		Page:     1,
		PageSize: pageSize,
		Status:   Idle,
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// Mount performs the initial fetch with the current filters and page.
func (c *Controller[T]) Mount(ctx context.Context) error {
	return c.issue(ctx, "mount", nil)
}

// Refresh refetches the current page without changing anything.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	return c.issue(ctx, "refresh", nil)
}

// ApplyFilters replaces the filters, starting from the defaults, and goes
// back to page 1.
func (c *Controller[T]) ApplyFilters(ctx context.Context, filters query.Filters) error {
	return c.issue(ctx, "apply filters", func(s *State[T]) {
		next := c.defaults.Clone()
		for k, v := range filters {
			next[k] = v
		}
		s.Filters = c.withPinned(next)
		s.Page = 1
	})
}

// ClearFilters restores the default filters and goes back to page 1.
func (c *Controller[T]) ClearFilters(ctx context.Context) error {
	return c.issue(ctx, "clear filters", func(s *State[T]) {
		s.Filters = c.withPinned(c.defaults)
		s.Page = 1
	})
}

// SetPage moves to page, clamped to at least 1.
func (c *Controller[T]) SetPage(ctx context.Context, page int) error {
	return c.issue(ctx, "set page", func(s *State[T]) {
		s.Page = max(1, page)
	})
}

// NextPage moves forward one page unless already on the last one.
func (c *Controller[T]) NextPage(ctx context.Context) error {
	c.mu.RLock()
	page, last := c.state.Page, c.state.LastPage()
	c.mu.RUnlock()
	if page >= last {
		return nil
	}
	return c.SetPage(ctx, page+1)
}

// PrevPage moves back one page unless already on the first one.
func (c *Controller[T]) PrevPage(ctx context.Context) error {
	c.mu.RLock()
	page := c.state.Page
	c.mu.RUnlock()
	if page <= 1 {
		return nil
	}
	return c.SetPage(ctx, page-1)
}

// SetPageSize changes the page size and goes back to page 1. Non-positive
// sizes are ignored.
func (c *Controller[T]) SetPageSize(ctx context.Context, size int) error {
	if size < 1 {
		return nil
	}
	return c.issue(ctx, "set page size", func(s *State[T]) {
		s.PageSize = size
		s.Page = 1
	})
}

// AfterMutation refetches the current page after a create, update or status
// change elsewhere. Rows are never patched locally.
func (c *Controller[T]) AfterMutation(ctx context.Context) error {
	return c.issue(ctx, "after mutation", nil)
}

// AfterDelete refetches after removed rows were deleted. When the current page
// would be past the end of the shrunken list it steps back to the new last
// page first, so the user never lands on an empty page while rows exist.
// Total is only trusted from a Ready list; otherwise the same page is
// refetched.
func (c *Controller[T]) AfterDelete(ctx context.Context, removed int) error {
	return c.issue(ctx, "after delete", func(s *State[T]) {
		if s.Status != Ready {
			return
		}
		remaining := max(0, s.Total-max(0, removed))
		if last := lastPage(remaining, s.PageSize); s.Page > last {
			s.Page = last
		}
	})
}

func (c *Controller[T]) issue(ctx context.Context, reason string, mutate func(*State[T])) error {
	c.mu.Lock()
	if mutate != nil {
		mutate(&c.state)
	}
	c.state.Epoch++
	c.state.Status = Loading
	c.state.Err = nil
	epoch := c.state.Epoch
	req := c.state.Request()
	loading := c.state.clone()
	c.mu.Unlock()

	c.logger.V(obs.VERBOSE).Info("fetching", "reason", reason, "epoch", epoch,
		"page", req.Page, "pageSize", req.PageSize, "filters", req.Filters.String())
	c.notify(loading)

	page, err := c.query.Execute(ctx, req)
	return c.resolve(epoch, page, err)
}

func (c *Controller[T]) resolve(epoch uint64, page query.Page[T], err error) error {
	c.mu.Lock()
	if epoch != c.state.Epoch {
		current := c.state.Epoch
		c.mu.Unlock()
		c.logger.V(obs.DEBUG).Info("discarding stale response", "epoch", epoch, "current", current, "failed", err != nil)
		return nil
	}
	if err != nil {
		c.state.Status = Error
		c.state.Err = err
		c.state.Rows = nil
		c.state.Total = 0
	} else {
		c.state.Status = Ready
		c.state.Err = nil
		c.state.Rows = cloneRows(page.Rows)
		c.state.Total = page.Total
	}
	c.state.LastUpdated = c.now()
	snap := c.state.clone()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error(err, "list fetch failed", "epoch", epoch)
	} else {
		c.logger.V(obs.DEBUG).Info("applied response", "epoch", epoch, "rows", len(snap.Rows), "total", snap.Total)
	}
	c.notify(snap)
	return err
}

func (c *Controller[T]) notify(s State[T]) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

func (c *Controller[T]) withPinned(filters query.Filters) query.Filters {
	out := filters.Clone()
	for k, v := range c.pinned {
		out[k] = v
	}
	return out
}
