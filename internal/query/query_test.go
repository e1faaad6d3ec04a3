package query

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tally/internal/posapi"
)

func TestRequest_OffsetAndValues(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		wantSkip string
	}{
		{"first page", Request{Page: 1, PageSize: 10}, "0"},
		{"third page", Request{Page: 3, PageSize: 10}, "20"},
		{"zero page treated as first", Request{Page: 0, PageSize: 25}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := tt.req.Values()
			assert.Equal(t, tt.wantSkip, values.Get("skip"))
		})
	}

	values := Request{Page: 2, PageSize: 50, Filters: Filters{"status": "paid", "userId": "  ", "search": " kopi "}}.Values()
	assert.Equal(t, "50", values.Get("limit"))
	assert.Equal(t, "paid", values.Get("status"))
	assert.Equal(t, "kopi", values.Get("search"))
	assert.False(t, values.Has("userId"), "blank filters must not be sent")
}

func TestFilters_StringSkipsBlankValues(t *testing.T) {
	a := Filters{"status": " paid ", "userId": "", "search": "kopi"}
	assert.Equal(t, "search=kopi status=paid", a.String())

	clone := a.Clone()
	clone["status"] = "void"
	assert.Equal(t, " paid ", a["status"])
	assert.NotNil(t, Filters(nil).Clone())
}

func TestQuery_ExecuteWrapsFailures(t *testing.T) {
	cause := &posapi.APIError{Method: http.MethodGet, Path: "/orders", Status: http.StatusBadGateway}
	q := New("fetch orders", func(context.Context, Request) (Page[int], error) {
		return Page[int]{}, cause
	})

	_, err := q.Execute(context.Background(), Request{Page: 1, PageSize: 10})
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "fetch orders", failure.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Server returned 502", Message(err))
}

func TestQuery_ExecuteHonoursCancelledContext(t *testing.T) {
	calls := 0
	q := New("fetch users", func(context.Context, Request) (Page[int], error) {
		calls++
		return Page[int]{}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Execute(ctx, Request{})
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.True(t, failure.Canceled())
	assert.Zero(t, calls)
	assert.Equal(t, "Request cancelled", Message(err))
}

func TestSearch_MinimumLengthGuard(t *testing.T) {
	var got []string
	s := NewSearch("suggest products", func(_ context.Context, req Request) (Page[string], error) {
		got = append(got, req.Text)
		return Page[string]{Rows: []string{req.Text}, Total: 1}, nil
	})

	for _, text := range []string{"", " ", "a", " a ", "é"} {
		page, err := s.Execute(context.Background(), Request{Text: text})
		require.NoError(t, err)
		assert.Empty(t, page.Rows, "text %q", text)
	}
	assert.Empty(t, got, "short queries must not reach the backend")

	page, err := s.Execute(context.Background(), Request{Text: "  ko "})
	require.NoError(t, err)
	assert.Equal(t, []string{"ko"}, page.Rows)
	assert.Equal(t, []string{"ko"}, got)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Stock for Kopi is insufficient",
		Message(&Failure{Op: "create order", Cause: &posapi.APIError{Status: 400, Detail: "Stock for Kopi is insufficient"}}))
	assert.Equal(t, "Session expired, please log in again", Message(&posapi.APIError{Status: http.StatusUnauthorized}))
	assert.Equal(t, "You do not have permission for this action", Message(&posapi.APIError{Status: http.StatusForbidden}))
	assert.Equal(t, "Failed to fetch products", Message(&Failure{Op: "fetch products", Cause: errors.New("dial tcp: refused")}))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
