package posapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product mirrors the product records returned by /products and /products/suggest.
type Product struct {
	ID                int64           `json:"product_id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku,omitempty"`
	Description       string          `json:"description,omitempty"`
	CategoryID        *int64          `json:"category_id,omitempty"`
	Category          *Category       `json:"category,omitempty"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	CurrentStock      int             `json:"current_stock"`
	Unit              string          `json:"unit_of_measurement"`
	LowStockThreshold int             `json:"low_stock_threshold,omitempty"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         string          `json:"created_at,omitempty"`
	UpdatedAt         string          `json:"updated_at,omitempty"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool { return p.CurrentStock > 0 }

// Category mirrors /categories records.
type Category struct {
	ID          int64  `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// User mirrors /users and /auth/users/me records.
type User struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool { return strings.EqualFold(u.Role, "admin") }

// OrderItem is one priced line of a created order.
type OrderItem struct {
	ID                 int64           `json:"order_item_id"`
	ProductID          int64           `json:"product_id"`
	Quantity           int             `json:"quantity"`
	PriceAtTransaction decimal.Decimal `json:"price_at_transaction"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	// Product is only filled in by the single-order endpoint, and not always.
	Product *Product `json:"product,omitempty"`
}

// Order mirrors /orders records. TotalAmount is computed by the server and is
// authoritative.
type Order struct {
	ID            int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        *int64          `json:"user_id,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"order_status"`
	Notes         string          `json:"notes,omitempty"`
	Source        string          `json:"source"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
	Items         []OrderItem     `json:"items"`
}

// CreatedTime parses CreatedAt, returning the zero time when unparsable.
func (o Order) CreatedTime() time.Time { return parseTime(o.CreatedAt) }

// DashboardSummary mirrors /reports/dashboard-summary. Month figures count
// completed orders since the first of the current month.
type DashboardSummary struct {
	SalesMonth        decimal.Decimal `json:"total_sales_month"`
	TransactionsMonth int             `json:"total_transactions_month"`
	ActiveProducts    int             `json:"active_products"`
	CriticalStock     int             `json:"critical_stock_products"`
	SalesChart        []SalesPoint    `json:"sales_chart_data"`
	TopSelling        []TopSeller     `json:"top_selling_products"`
	SalesByCategory   []CategorySales `json:"sales_by_category"`
}

// SalesPoint is one day of the dashboard's seven-day chart.
type SalesPoint struct {
	Label string          `json:"name"`
	Sales decimal.Decimal `json:"sales"`
}

type TopSeller struct {
	Name         string `json:"name"`
	QuantitySold int    `json:"total_quantity_sold"`
}

type CategorySales struct {
	Name       string          `json:"name"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// SalesRow is one bucket of /reports/sales. Date is set when grouping by
// day and Month when grouping by month.
type SalesRow struct {
	Date            string          `json:"date,omitempty"`
	Month           string          `json:"month,omitempty"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalItems      int             `json:"total_items"`
	EstimatedProfit decimal.Decimal `json:"estimated_profit"`
}

// Bucket returns the row's date or month label.
func (r SalesRow) Bucket() string {
	if r.Date != "" {
		return r.Date
	}
	return r.Month
}

// LowStockItem mirrors /reports/stock-summary/low-stock records, ordered by
// the server from the emptiest shelf up.
type LowStockItem struct {
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
	Threshold    int    `json:"low_stock_threshold"`
	Unit         string `json:"unit"`
	Category     string `json:"category"`
}

// InventoryLog mirrors /stock/log/{product_id} records.
type InventoryLog struct {
	ID             int64  `json:"log_id"`
	ProductID      int64  `json:"product_id"`
	ChangeType     string `json:"change_type"`
	QuantityChange int    `json:"quantity_change"`
	StockBefore    int    `json:"stock_before"`
	StockAfter     int    `json:"stock_after"`
	Remarks        string `json:"remarks,omitempty"`
	UserID         *int64 `json:"user_id,omitempty"`
	TransactionID  *int64 `json:"transaction_id,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// CreatedTime parses CreatedAt, returning the zero time when unparsable.
func (l InventoryLog) CreatedTime() time.Time { return parseTime(l.CreatedAt) }

// PageResponse is the {total, data} envelope returned by every list endpoint.
type PageResponse[T any] struct {
	Total int `json:"total"`
	Data  []T `json:"data"`
}

// OrderItemCreate is one {product_id, quantity} entry of an order payload.
type OrderItemCreate struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderCreate is the POST /orders body.
type OrderCreate struct {
	Items         []OrderItemCreate `json:"items"`
	PaymentMethod string            `json:"payment_method"`
	Notes         string            `json:"notes,omitempty"`
	Source        string            `json:"source"`
}

// StockIn is the POST /stock/in body.
type StockIn struct {
	ProductID     int64            `json:"product_id"`
	Quantity      int              `json:"quantity"`
	Remarks       string           `json:"remarks,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
}

// StockAdjustment is the POST /stock/adjustment body.
type StockAdjustment struct {
	ProductID   int64  `json:"product_id"`
	NewQuantity int    `json:"new_quantity"`
	Remarks     string `json:"remarks"`
}

// Token is the /auth/login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// APIError is a non-2xx backend response. Detail carries the FastAPI "detail"
// message when the body had one.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
}

// parseDetail extracts "detail" from a FastAPI error body. Validation errors
// carry a list of {msg} objects; the first message is used.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0].Msg)
	}
	return ""
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
