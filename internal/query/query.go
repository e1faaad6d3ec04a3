// Package query wraps paginated, filterable backend resources in stateless,
// cancellable request objects.
package query

import (
	"context"
	"maps"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MinSearchLength is the shortest trimmed search text that reaches the network.
const MinSearchLength = 2

// Filters maps a filter key to its value. Empty values are omitted from the wire.
type Filters map[string]string

// Clone returns an independent copy.
func (f Filters) Clone() Filters {
	if f == nil {
		return Filters{}
	}
	return maps.Clone(f)
}

// String renders the non-empty filters in key order, e.g. "search=kopi status=paid".
func (f Filters) String() string {
	keys := make([]string, 0, len(f))
	for k, v := range f {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.TrimSpace(f[k]))
	}
	return strings.Join(parts, " ")
}

// Request is a value object describing one page of a resource.
type Request struct {
	Filters  Filters
	Page     int // 1-based
	PageSize int
	// Text is free-text search, used by suggestion endpoints.
	Text string
}

// Offset returns the skip value, (Page-1)*PageSize.
func (r Request) Offset() int {
	if r.Page < 1 || r.PageSize < 1 {
		return 0
	}
	return (r.Page - 1) * r.PageSize
}

// Values encodes skip, limit and the non-empty filters.
func (r Request) Values() url.Values {
	values := url.Values{}
	if r.PageSize > 0 {
		values.Set("skip", strconv.Itoa(r.Offset()))
		values.Set("limit", strconv.Itoa(r.PageSize))
	}
	for k, v := range r.Filters {
		if v = strings.TrimSpace(v); v != "" {
			values.Set(k, v)
		}
	}
	return values
}

// Page is one response: the rows and the server-reported total row count.
type Page[T any] struct {
	Rows  []T
	Total int
}

// FetchFunc performs the actual transport call.
type FetchFunc[T any] func(ctx context.Context, req Request) (Page[T], error)

// Query is a stateless request wrapper around a FetchFunc. Each Execute is
// independent. State belongs to the caller.
type Query[T any] struct {
	op    string
	fetch FetchFunc[T]
}

// New returns a Query named op (used in failure messages).
func New[T any](op string, fetch FetchFunc[T]) *Query[T] {
	return &Query[T]{op: op, fetch: fetch}
}

// Op returns the operation name.
func (q *Query[T]) Op() string { return q.op }

// Execute runs the request. Any failure, including context cancellation, is
// returned as a *Failure.
func (q *Query[T]) Execute(ctx context.Context, req Request) (Page[T], error) {
	if err := ctx.Err(); err != nil {
		return Page[T]{}, &Failure{Op: q.op, Cause: err}
	}
	page, err := q.fetch(ctx, req)
	if err != nil {
		return Page[T]{}, wrap(q.op, err)
	}
	return page, nil
}

// Search is a Query with the minimum-length guard applied to Request.Text.
type Search[T any] struct {
	*Query[T]
	minLength int
}

// NewSearch wraps fetch with the MinSearchLength guard.
func NewSearch[T any](op string, fetch FetchFunc[T]) *Search[T] {
	return &Search[T]{Query: New(op, fetch), minLength: MinSearchLength}
}

// Execute returns an empty page without calling the backend when the trimmed
// text is shorter than the minimum length.
func (s *Search[T]) Execute(ctx context.Context, req Request) (Page[T], error) {
	req.Text = strings.TrimSpace(req.Text)
	if !Searchable(req.Text, s.minLength) {
		return Page[T]{}, nil
	}
	return s.Query.Execute(ctx, req)
}

// Searchable reports whether text meets min runes after trimming.
func Searchable(text string, min int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= min
}
