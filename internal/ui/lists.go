package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tally/internal/listsync"
	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/query"
	"github.com/five82/tally/internal/resources"
)

// list is the element-type independent surface of a listsync.Controller.
type list interface {
	Mount(ctx context.Context) error
	Refresh(ctx context.Context) error
	NextPage(ctx context.Context) error
	PrevPage(ctx context.Context) error
	SetPageSize(ctx context.Context, size int) error
	ApplyFilters(ctx context.Context, filters query.Filters) error
	ClearFilters(ctx context.Context) error
	AfterMutation(ctx context.Context) error
	AfterDelete(ctx context.Context, removed int) error
}

// listMeta is the element-type independent part of a list snapshot.
type listMeta struct {
	Status      listsync.Status
	Page        int
	LastPage    int
	PageSize    int
	Total       int
	Rows        int
	Filters     query.Filters
	Err         error
	LastUpdated time.Time
}

func metaOf[T any](s listsync.State[T]) listMeta {
	return listMeta{
		Status:      s.Status,
		Page:        s.Page,
		LastPage:    s.LastPage(),
		PageSize:    s.PageSize,
		Total:       s.Total,
		Rows:        len(s.Rows),
		Filters:     s.Filters,
		Err:         s.Err,
		LastUpdated: s.LastUpdated,
	}
}

func (m Model) list(s screen) list {
	if m.ws == nil {
		return nil
	}
	switch s {
	case screenProducts:
		return m.ws.Lists.Products
	case screenOrders:
		return m.ws.Lists.Orders
	case screenCategories:
		return m.ws.Lists.Categories
	case screenUsers:
		return m.ws.Lists.Users
	case screenStockLog:
		if m.stockLog != nil {
			return m.stockLog
		}
	}
	return nil
}

func (m Model) meta(s screen) listMeta {
	if m.ws == nil {
		return listMeta{}
	}
	switch s {
	case screenProducts:
		return metaOf(m.ws.Lists.Products.Snapshot())
	case screenOrders:
		return metaOf(m.ws.Lists.Orders.Snapshot())
	case screenCategories:
		return metaOf(m.ws.Lists.Categories.Snapshot())
	case screenUsers:
		return metaOf(m.ws.Lists.Users.Snapshot())
	case screenStockLog:
		if m.stockLog != nil {
			return metaOf(m.stockLog.Snapshot())
		}
	}
	return listMeta{}
}

func (m *Model) clampSelection() {
	for s := screenProducts; s <= screenStockLog; s++ {
		rows := m.meta(s).Rows
		if m.selected[s] >= rows {
			m.selected[s] = max(rows-1, 0)
		}
	}
}

// handleListKey processes keys shared by every list screen, then the
// screen's own actions.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.list(m.screen)
	if l == nil {
		return m, nil
	}
	meta := m.meta(m.screen)
	row := &m.selected[m.screen]

	switch {
	case key.Matches(msg, m.keys.Up):
		if *row > 0 {
			*row--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if *row < meta.Rows-1 {
			*row++
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		*row = 0
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		*row = max(meta.Rows-1, 0)
		return m, nil
	case key.Matches(msg, m.keys.NextPage):
		*row = 0
		return m, m.load(l.NextPage)
	case key.Matches(msg, m.keys.PrevPage):
		*row = 0
		return m, m.load(l.PrevPage)
	case key.Matches(msg, m.keys.Bigger):
		size := min(meta.PageSize+PageSizeStep, MaxPageSize)
		*row = 0
		return m, m.load(func(ctx context.Context) error { return l.SetPageSize(ctx, size) })
	case key.Matches(msg, m.keys.Smaller):
		size := max(meta.PageSize-PageSizeStep, PageSizeStep)
		*row = 0
		return m, m.load(func(ctx context.Context) error { return l.SetPageSize(ctx, size) })
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load(l.Refresh)
	case key.Matches(msg, m.keys.ClearFilters):
		*row = 0
		m.filter.SetValue("")
		return m, m.load(l.ClearFilters)
	case key.Matches(msg, m.keys.Escape):
		if m.screen == screenStockLog {
			m.screen = screenProducts
		}
		return m, nil
	}

	switch m.screen {
	case screenProducts:
		return m.handleProductsKey(msg, meta)
	case screenOrders:
		return m.handleOrdersKey(msg, meta)
	case screenCategories:
		return m.handleCategoriesKey(msg)
	case screenUsers:
		return m.handleUsersKey(msg)
	}
	return m, nil
}

// applyFilters overlays changes on the current filters and reloads from
// page one.
func (m Model) applyFilters(l list, current query.Filters, changes query.Filters) tea.Cmd {
	next := current.Clone()
	for k, v := range changes {
		next[k] = v
	}
	return m.load(func(ctx context.Context) error { return l.ApplyFilters(ctx, next) })
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.filter.Blur()
		m.selected[screenProducts] = 0
		return m, m.applyFilters(m.ws.Lists.Products, m.meta(screenProducts).Filters,
			query.Filters{"search": strings.TrimSpace(m.filter.Value())})
	case key.Matches(msg, m.keys.Escape):
		m.searching = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m Model) selectedProduct() (posapi.Product, bool) {
	rows := m.ws.Lists.Products.Snapshot().Rows
	i := m.selected[screenProducts]
	if i < 0 || i >= len(rows) {
		return posapi.Product{}, false
	}
	return rows[i], true
}

func (m Model) handleProductsKey(msg tea.KeyMsg, meta listMeta) (tea.Model, tea.Cmd) {
	products := m.ws.Lists.Products
	mutator := m.ws.Lists.Mutator

	switch {
	case key.Matches(msg, m.keys.Filter):
		m.searching = true
		m.filter.SetValue(meta.Filters["search"])
		m.filter.CursorEnd()
		m.filter.Focus()
		return m, nil
	case key.Matches(msg, m.keys.CycleFilter):
		if len(m.categories) == 0 {
			m.setFlash(flashWarn, "No categories loaded")
			return m, m.fetchCategories()
		}
		m.selected[screenProducts] = 0
		next := nextCategory(m.categories, meta.Filters["category_id"])
		return m, m.applyFilters(products, meta.Filters, query.Filters{"category_id": next})
	case key.Matches(msg, m.keys.ToggleActive):
		m.selected[screenProducts] = 0
		active := ternary(meta.Filters["only_active"] == "true", "false", "true")
		return m, m.applyFilters(products, meta.Filters, query.Filters{"only_active": active})
	}

	p, ok := m.selectedProduct()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.AddToCart):
		m.addToCart(p)
		return m, nil
	case key.Matches(msg, m.keys.StockLog):
		m.stockLog = m.ws.Lists.StockLog(p.ID)
		m.stockProduct = p
		m.selected[screenStockLog] = 0
		m.back = screenProducts
		m.screen = screenStockLog
		return m, m.load(m.stockLog.Mount)
	case key.Matches(msg, m.keys.StockIn):
		refetch := m.stockRefetchers(p.ID)
		m.modal = newPromptModal("Stock in · "+p.Name, "quantity received", "", func(raw string) tea.Cmd {
			qty, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || qty < 1 {
				return invalid("Quantity must be a whole number above zero")
			}
			in := posapi.StockIn{ProductID: p.ID, Quantity: qty, Remarks: "Received"}
			return m.mutate(fmt.Sprintf("Added %d %s to %s", qty, p.Unit, p.Name), func(ctx context.Context) error {
				return mutator.StockIn(ctx, in, refetch...)
			})
		})
		return m, textinput.Blink
	case key.Matches(msg, m.keys.AdjustStock):
		refetch := m.stockRefetchers(p.ID)
		m.modal = newPromptModal("Adjust stock · "+p.Name, "new quantity", strconv.Itoa(p.CurrentStock), func(raw string) tea.Cmd {
			qty, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || qty < 0 {
				return invalid("Quantity must be a whole number")
			}
			adj := posapi.StockAdjustment{ProductID: p.ID, NewQuantity: qty, Remarks: "Stock count"}
			return m.mutate(fmt.Sprintf("%s stock set to %d", p.Name, qty), func(ctx context.Context) error {
				return mutator.AdjustStock(ctx, adj, refetch...)
			})
		})
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Delete), key.Matches(msg, m.keys.Purge):
		permanent := key.Matches(msg, m.keys.Purge)
		body := "Deactivate " + p.Name + "?"
		if permanent {
			body = "Permanently delete " + p.Name + "? This cannot be undone."
		}
		m.modal = confirmModal{
			title: "Delete product",
			body:  body,
			onConfirm: m.mutate("Deleted "+p.Name, func(ctx context.Context) error {
				return mutator.DeleteProduct(ctx, p.ID, permanent, products)
			}),
		}
		return m, nil
	}
	return m, nil
}

// stockRefetchers lists the controllers showing productID's stock.
func (m Model) stockRefetchers(productID int64) []resources.Refetcher {
	lists := []resources.Refetcher{m.ws.Lists.Products}
	if m.stockLog != nil && m.stockProduct.ID == productID {
		lists = append(lists, m.stockLog)
	}
	return lists
}

func nextCategory(categories []posapi.Category, current string) string {
	if current == "" {
		return strconv.FormatInt(categories[0].ID, 10)
	}
	for i, c := range categories {
		if strconv.FormatInt(c.ID, 10) == current {
			if i+1 < len(categories) {
				return strconv.FormatInt(categories[i+1].ID, 10)
			}
			return ""
		}
	}
	return ""
}

func nextStatus(current string) string {
	if current == "" {
		return resources.OrderStatuses[0]
	}
	for i, s := range resources.OrderStatuses {
		if s == current && i+1 < len(resources.OrderStatuses) {
			return resources.OrderStatuses[i+1]
		}
	}
	return ""
}

func (m Model) handleOrdersKey(msg tea.KeyMsg, meta listMeta) (tea.Model, tea.Cmd) {
	orders := m.ws.Lists.Orders
	mutator := m.ws.Lists.Mutator

	if key.Matches(msg, m.keys.CycleFilter) {
		m.selected[screenOrders] = 0
		return m, m.applyFilters(orders, meta.Filters, query.Filters{"status": nextStatus(meta.Filters["status"])})
	}

	rows := orders.Snapshot().Rows
	i := m.selected[screenOrders]
	if i < 0 || i >= len(rows) {
		return m, nil
	}
	o := rows[i]
	switch {
	case key.Matches(msg, m.keys.OpenOrder):
		return m.openOrder(o)
	case key.Matches(msg, m.keys.SetStatus):
		m.modal = newChoiceModal("Status · "+o.OrderNumber, resources.OrderStatuses, o.Status, func(status string) tea.Cmd {
			return m.mutate(fmt.Sprintf("Order %s marked %s", o.OrderNumber, status), func(ctx context.Context) error {
				_, err := mutator.SetOrderStatus(ctx, o.ID, status, orders)
				return err
			})
		})
	case key.Matches(msg, m.keys.Delete):
		m.modal = confirmModal{
			title: "Delete order",
			body:  "Delete order " + o.OrderNumber + "?",
			onConfirm: m.mutate("Deleted order "+o.OrderNumber, func(ctx context.Context) error {
				return mutator.Delete(ctx, resources.Orders, o.ID, nil, orders)
			}),
		}
	}
	return m, nil
}

func (m Model) handleCategoriesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	categories := m.ws.Lists.Categories
	mutator := m.ws.Lists.Mutator

	if key.Matches(msg, m.keys.Create) {
		m.modal = newPromptModal("New category", "name", "", func(raw string) tea.Cmd {
			name := strings.TrimSpace(raw)
			if name == "" {
				return invalid("Category name is required")
			}
			body := map[string]string{"name": name}
			return tea.Sequence(
				m.mutate("Created category "+name, func(ctx context.Context) error {
					return mutator.Create(ctx, resources.Categories, body, nil, categories)
				}),
				m.fetchCategories(),
			)
		})
		return m, textinput.Blink
	}

	rows := categories.Snapshot().Rows
	i := m.selected[screenCategories]
	if i < 0 || i >= len(rows) {
		return m, nil
	}
	c := rows[i]
	if key.Matches(msg, m.keys.Delete) {
		m.modal = confirmModal{
			title: "Delete category",
			body:  "Delete category " + c.Name + "?",
			onConfirm: tea.Sequence(
				m.mutate("Deleted category "+c.Name, func(ctx context.Context) error {
					return mutator.Delete(ctx, resources.Categories, c.ID, nil, categories)
				}),
				m.fetchCategories(),
			),
		}
	}
	return m, nil
}

func (m Model) handleUsersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	users := m.ws.Lists.Users
	rows := users.Snapshot().Rows
	i := m.selected[screenUsers]
	if i < 0 || i >= len(rows) || !key.Matches(msg, m.keys.Delete) {
		return m, nil
	}
	u := rows[i]
	if m.ws.User != nil && m.ws.User.ID == u.ID {
		m.setFlash(flashWarn, "You cannot delete your own account")
		return m, nil
	}
	mutator := m.ws.Lists.Mutator
	m.modal = confirmModal{
		title: "Delete user",
		body:  "Delete user " + u.Username + "?",
		onConfirm: m.mutate("Deleted user "+u.Username, func(ctx context.Context) error {
			return mutator.Delete(ctx, resources.Users, u.ID, nil, users)
		}),
	}
	return m, nil
}

// invalid reports a local validation problem without touching the backend.
func invalid(text string) tea.Cmd {
	return func() tea.Msg { return opDoneMsg{err: errors.New(text)} }
}
