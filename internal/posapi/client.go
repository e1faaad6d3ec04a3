package posapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/five82/tally/internal/obs"
)

// TokenSource supplies the bearer token attached to each request. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the POS backend REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    TokenSource
	logger    logr.Logger
}

const (
	defaultBaseURL   = "http://127.0.0.1:8000/api/v1"
	defaultUserAgent = "tally/0.1"
	requestTimeout   = 10 * time.Second

	// RequestIDHeader correlates a submission with backend logs.
	RequestIDHeader = "X-Request-ID"
)

// Option customises a Client.
type Option func(*Client)

// WithTokenSource attaches bearer tokens from src.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) { c.tokens = src }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger logr.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a Client rooted at baseURL, e.g. "http://host:8000/api/v1".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
		logger:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// SuggestProducts calls /products/suggest. Callers are expected to apply the
// minimum query length guard before calling.
func (c *Client) SuggestProducts(ctx context.Context, query string, limit int) ([]Product, error) {
	values := url.Values{}
	values.Set("query", query)
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var payload []Product
	if err := c.get(ctx, "/products/suggest", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var payload Product
	if err := c.get(ctx, "/products/"+strconv.FormatInt(id, 10), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetOrder fetches one order with its items.
func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var payload Order
	if err := c.get(ctx, "/orders/"+strconv.FormatInt(id, 10), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DashboardSummary fetches the dashboard figures.
func (c *Client) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	var payload DashboardSummary
	if err := c.get(ctx, "/reports/dashboard-summary", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SalesReport fetches completed-order sales from start through end, both
// taken as calendar days, bucketed by groupBy ("day" or "month").
func (c *Client) SalesReport(ctx context.Context, start, end time.Time, groupBy string) ([]SalesRow, error) {
	values := url.Values{}
	values.Set("start_date", start.Format(time.DateOnly))
	values.Set("end_date", end.Format(time.DateOnly))
	values.Set("group_by", groupBy)

	var payload []SalesRow
	if err := c.get(ctx, "/reports/sales", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// LowStock fetches active products at or below their low-stock threshold.
func (c *Client) LowStock(ctx context.Context) ([]LowStockItem, error) {
	var payload []LowStockItem
	if err := c.get(ctx, "/reports/stock-summary/low-stock", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// List fetches one page of a {total, data} list endpoint. It is a function
// rather than a method because methods cannot take type parameters.
func List[T any](ctx context.Context, c *Client, path string, params url.Values) (PageResponse[T], error) {
	if c == nil {
		return PageResponse[T]{}, fmt.Errorf("client is nil")
	}
	var payload PageResponse[T]
	if err := c.get(ctx, path, params, &payload); err != nil {
		return PageResponse[T]{}, err
	}
	return payload, nil
}

// CreateOrder posts a new order. requestID, when set, is sent as X-Request-ID.
func (c *Client) CreateOrder(ctx context.Context, order OrderCreate, requestID string) (*Order, error) {
	var headers http.Header
	if requestID != "" {
		headers = http.Header{RequestIDHeader: []string{requestID}}
	}
	var payload Order
	if err := c.sendJSON(ctx, http.MethodPost, "/orders", order, headers, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateOrderStatus patches /orders/{id}/status.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status string) (*Order, error) {
	body := map[string]string{"order_status": status}
	var payload Order
	path := "/orders/" + strconv.FormatInt(id, 10) + "/status"
	if err := c.sendJSON(ctx, http.MethodPatch, path, body, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Create posts body to /{resource} and decodes the created record into dest.
func (c *Client) Create(ctx context.Context, resource string, body, dest any) error {
	return c.sendJSON(ctx, http.MethodPost, "/"+strings.Trim(resource, "/"), body, nil, dest)
}

// Update puts body to /{resource}/{id} and decodes the updated record into dest.
func (c *Client) Update(ctx context.Context, resource string, id int64, body, dest any) error {
	path := "/" + strings.Trim(resource, "/") + "/" + strconv.FormatInt(id, 10)
	return c.sendJSON(ctx, http.MethodPut, path, body, nil, dest)
}

// Delete removes /{resource}/{id}. params are appended as query values, e.g.
// permanent_delete for products.
func (c *Client) Delete(ctx context.Context, resource string, id int64, params url.Values) error {
	path := "/" + strings.Trim(resource, "/") + "/" + strconv.FormatInt(id, 10)
	return c.do(ctx, http.MethodDelete, c.resolve(path, params), nil, "", nil, nil)
}

// StockIn records received stock.
func (c *Client) StockIn(ctx context.Context, in StockIn) error {
	return c.sendJSON(ctx, http.MethodPost, "/stock/in", in, nil, nil)
}

// AdjustStock sets a product's stock to an audited absolute quantity.
func (c *Client) AdjustStock(ctx context.Context, adj StockAdjustment) error {
	return c.sendJSON(ctx, http.MethodPost, "/stock/adjustment", adj, nil, nil)
}

// Login exchanges credentials for a token. The backend expects an OAuth2
// password form rather than JSON.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	var payload Token
	err := c.do(ctx, http.MethodPost, c.resolve("/auth/login", nil),
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil, &payload)
	if err != nil {
		return Token{}, err
	}
	if payload.AccessToken == "" {
		return Token{}, fmt.Errorf("login response missing access token")
	}
	return payload, nil
}

// CurrentUser fetches the user owning the attached token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var payload User
	if err := c.get(ctx, "/auth/users/me", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, c.resolve(path, params), nil, "", nil, dest)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any, headers http.Header, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, method, c.resolve(path, nil), bytes.NewReader(encoded), "application/json", headers, dest)
}

func (c *Client) resolve(path string, params url.Values) *url.URL {
	u := c.baseURL.JoinPath(strings.TrimPrefix(path, "/"))
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
		u.RawPath = ""
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, body io.Reader, contentType string, headers http.Header, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.logger.V(obs.DEBUG).Info("api request", "method", method, "path", target.Path,
		"status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		apiErr := &APIError{Method: method, Path: target.Path, Status: resp.StatusCode, Detail: parseDetail(raw)}
		if resp.StatusCode == http.StatusUnauthorized {
			c.logger.Info("request unauthorized", "path", target.Path)
		}
		return apiErr
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
