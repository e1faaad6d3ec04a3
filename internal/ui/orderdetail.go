package ui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/query"
	"github.com/five82/tally/internal/reports"
)

// orderDetailView shows one order opened from the orders list.
type orderDetailView struct {
	id     int64
	number string
	detail reports.OrderDetail
	err    error
	loaded bool
}

type orderDetailMsg struct {
	id     int64
	detail reports.OrderDetail
	err    error
}

func (m Model) openOrder(o posapi.Order) (tea.Model, tea.Cmd) {
	m.back = screenOrders
	m.screen = screenOrderDetail
	m.orderDetail = orderDetailView{id: o.ID, number: o.OrderNumber}
	return m, m.fetchOrder(o.ID)
}

func (m Model) fetchOrder(id int64) tea.Cmd {
	svc := m.ws.Reports
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		detail, err := svc.Order(ctx, id)
		return orderDetailMsg{id: id, detail: detail, err: err}
	}
}

// load applies msg unless another order was opened since it was requested.
func (v *orderDetailView) load(msg orderDetailMsg) {
	if msg.id != v.id {
		return
	}
	v.detail = msg.detail
	v.err = msg.err
	v.loaded = true
}

func (m Model) handleOrderDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		m.orderDetail.loaded = false
		return m, m.fetchOrder(m.orderDetail.id)
	case key.Matches(msg, m.keys.Escape):
		m.screen = screenOrders
	}
	return m, nil
}

func (m Model) renderOrderDetail(height int) string {
	styles := m.theme.Styles()
	v := m.orderDetail

	title := styles.AccentText.Bold(true).Render("Order " + v.number)
	switch {
	case v.err != nil:
		return title + "\n\n" + styles.DangerText.Render(query.Message(v.err)) + styles.FaintText.Render("  (r to retry)")
	case !v.loaded:
		return title + "\n\n" + styles.WarningText.Render("Loading...")
	}

	o := v.detail.Order
	status := styles.StatusStyle(o.Status).Render(o.Status)
	lines := []string{
		title + "  " + status,
		"",
		styles.MutedText.Render("Created  ") + formatWhen(o.CreatedTime(), m.now()) + styles.FaintText.Render("  "+o.CreatedAt),
		styles.MutedText.Render("Payment  ") + ternary(o.PaymentMethod != "", o.PaymentMethod, "-"),
		styles.MutedText.Render("Source   ") + ternary(o.Source != "", o.Source, "-"),
	}
	if o.Notes != "" {
		lines = append(lines, styles.MutedText.Render("Notes    ")+o.Notes)
	}

	lines = append(lines, "", styles.MutedText.Render(cell("Product", 28)+cell("Qty", 6)+cell("Price", 18)+"Subtotal"))
	for _, item := range o.Items {
		lines = append(lines, cell(v.detail.ProductName(item.ProductID), 28)+
			cell(strconv.Itoa(item.Quantity), 6)+
			cell(formatMoney(item.PriceAtTransaction), 18)+
			formatMoney(item.Subtotal))
	}
	if len(o.Items) == 0 {
		lines = append(lines, styles.MutedText.Render("No items"))
	}
	lines = append(lines, "", styles.Text.Bold(true).Render(cell("Total", 52)+formatMoney(o.TotalAmount)))
	return clipLines(strings.Join(lines, "\n"), height)
}
