package listsync

import (
	"strconv"
	"time"

	"github.com/five82/tally/internal/query"
)

// Status is the lifecycle position of a list.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// State is what a list screen renders. Rows and Total always come from the
// response to the request matching Filters, Page and PageSize.
type State[T any] struct {
	Filters     query.Filters
	Page        int // 1-based
	PageSize    int
	Total       int
	Rows        []T
	Status      Status
	Epoch       uint64
	Err         error
	LastUpdated time.Time
}

// LastPage returns the highest page holding rows, never below 1.
func (s State[T]) LastPage() int {
	return lastPage(s.Total, s.PageSize)
}

// Request describes the query for the current filters and pagination.
func (s State[T]) Request() query.Request {
	return query.Request{Filters: s.Filters.Clone(), Page: s.Page, PageSize: s.PageSize}
}

func (s State[T]) clone() State[T] {
	dup := s
	dup.Filters = s.Filters.Clone()
	dup.Rows = cloneRows(s.Rows)
	return dup
}

func cloneRows[T any](rows []T) []T {
	if len(rows) == 0 {
		return nil
	}
	dup := make([]T, len(rows))
	copy(dup, rows)
	return dup
}

func lastPage(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
