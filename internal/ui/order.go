package ui

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/cart"
	"github.com/five82/tally/internal/checkout"
	"github.com/five82/tally/internal/listsync"
	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/productsearch"
	"github.com/five82/tally/internal/query"
)

type orderFocus int

const (
	focusSearch orderFocus = iota
	focusResults
	focusCart
	focusNotes
	focusCount
)

// orderForm is the new order screen: product search, cart and checkout
// details.
type orderForm struct {
	search    textinput.Model
	notes     textinput.Model
	focus     orderFocus
	resultRow int
	cartRow   int
	payment   string
	results   productsearch.Results
}

func newOrderForm(payment string) orderForm {
	if !slices.Contains(checkout.PaymentMethods, payment) {
		payment = checkout.DefaultPaymentMethod
	}

	search := textinput.New()
	search.Prompt = "Search  "
	search.Placeholder = "type at least 2 characters"
	search.CharLimit = 80
	search.Width = 40
	search.Focus()

	notes := textinput.New()
	notes.Prompt = "Notes   "
	notes.Placeholder = "optional"
	notes.CharLimit = 200
	notes.Width = 40

	return orderForm{search: search, notes: notes, payment: payment}
}

// typing reports whether keystrokes belong to a text field.
func (o orderForm) typing() bool {
	return o.focus == focusSearch || o.focus == focusNotes
}

func (o *orderForm) focusOn(f orderFocus) {
	o.focus = f
	o.search.Blur()
	o.notes.Blur()
	switch f {
	case focusSearch:
		o.search.Focus()
	case focusNotes:
		o.notes.Focus()
	}
}

func nextPayment(current string) string {
	methods := checkout.PaymentMethods
	i := slices.Index(methods, current)
	return methods[(i+1)%len(methods)]
}

func (m Model) handleOrderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submitOrder()
	case key.Matches(msg, m.keys.Tab):
		m.order.focusOn((m.order.focus + 1) % focusCount)
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.order.focusOn((m.order.focus + focusCount - 1) % focusCount)
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		if m.order.focus == focusSearch && m.order.search.Value() != "" {
			m.order.search.SetValue("")
			search := m.ws.Search
			return m, func() tea.Msg {
				search.Reset()
				return nil
			}
		}
		if m.order.focus != focusSearch {
			m.order.focusOn(focusSearch)
			return m, nil
		}
		m.screen = m.back
		if m.screen == screenNewOrder || m.screen == screenLogin {
			m.screen = screenProducts
		}
		return m, nil
	}

	switch m.order.focus {
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusResults:
		return m.handleResultsKey(msg)
	case focusCart:
		return m.handleCartKey(msg)
	case focusNotes:
		if key.Matches(msg, m.keys.Confirm) {
			m.order.focusOn(focusCart)
			return m, nil
		}
		var cmd tea.Cmd
		m.order.notes, cmd = m.order.notes.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.ws.Search.Flush()
		if len(m.order.results.Products) > 0 {
			m.order.focusOn(focusResults)
		}
		return m, nil
	case msg.Type == tea.KeyDown:
		m.order.focusOn(focusResults)
		return m, nil
	}

	before := m.order.search.Value()
	var cmd tea.Cmd
	m.order.search, cmd = m.order.search.Update(msg)
	if after := m.order.search.Value(); after != before {
		m.ws.Search.Type(after)
	}
	return m, cmd
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	products := m.order.results.Products
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.order.resultRow > 0 {
			m.order.resultRow--
		} else {
			m.order.focusOn(focusSearch)
		}
	case key.Matches(msg, m.keys.Down):
		if m.order.resultRow < len(products)-1 {
			m.order.resultRow++
		}
	case key.Matches(msg, m.keys.Confirm), key.Matches(msg, m.keys.AddToCart):
		if m.order.resultRow < len(products) {
			m.addToCart(products[m.order.resultRow])
		}
	}
	return m, nil
}

func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.CyclePayment) {
		m.order.payment = nextPayment(m.order.payment)
		m.savePrefs()
		return m, nil
	}

	lines := m.ws.Cart.Lines()
	if len(lines) == 0 {
		return m, nil
	}
	if m.order.cartRow >= len(lines) {
		m.order.cartRow = len(lines) - 1
	}
	line := lines[m.order.cartRow]

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.order.cartRow > 0 {
			m.order.cartRow--
		}
	case key.Matches(msg, m.keys.Down):
		if m.order.cartRow < len(lines)-1 {
			m.order.cartRow++
		}
	case key.Matches(msg, m.keys.Increase):
		m.reportQuantity(line, m.ws.Cart.SetQuantity(line.ProductID, line.Quantity+1))
	case key.Matches(msg, m.keys.Decrease):
		m.reportQuantity(line, m.ws.Cart.SetQuantity(line.ProductID, line.Quantity-1))
	case key.Matches(msg, m.keys.RemoveLine):
		m.ws.Cart.Remove(line.ProductID)
		if m.order.cartRow > 0 && m.order.cartRow >= len(lines)-1 {
			m.order.cartRow--
		}
		m.setFlash(flashInfo, "Removed "+line.Name)
	case key.Matches(msg, m.keys.EditQuantity):
		c := m.ws.Cart
		m.modal = newPromptModal("Quantity · "+line.Name, "1-"+strconv.Itoa(line.StockCeiling), strconv.Itoa(line.Quantity), func(raw string) tea.Cmd {
			sig := c.SetQuantityText(line.ProductID, raw)
			return func() tea.Msg { return quantitySetMsg{line: line, signal: sig} }
		})
		return m, textinput.Blink
	}
	return m, nil
}

type quantitySetMsg struct {
	line   cart.Line
	signal cart.Signal
}

// addToCart adds one unit of p and reports the outcome.
func (m *Model) addToCart(p posapi.Product) {
	switch m.ws.Cart.Add(p) {
	case cart.Applied:
		qty := 0
		if line, ok := m.ws.Cart.Line(p.ID); ok {
			qty = line.Quantity
		}
		m.setFlash(flashInfo, fmt.Sprintf("Added %s (%d in cart)", p.Name, qty))
	case cart.StockExceeded:
		if !p.InStock() {
			m.setFlash(flashWarn, p.Name+" is out of stock")
		} else {
			m.setFlash(flashWarn, fmt.Sprintf("Only %d %s of %s in stock", p.CurrentStock, p.Unit, p.Name))
		}
	case cart.ClampedToMax:
		m.setFlash(flashWarn, fmt.Sprintf("Stock of %s dropped to %d %s; quantity reduced", p.Name, p.CurrentStock, p.Unit))
	}
}

func (m *Model) reportQuantity(line cart.Line, sig cart.Signal) {
	switch sig {
	case cart.ClampedToMax:
		m.setFlash(flashWarn, fmt.Sprintf("Only %d of %s in stock", line.StockCeiling, line.Name))
	case cart.NotInCart:
		m.setFlash(flashWarn, line.Name+" is no longer in the cart")
	}
}

func (m Model) submitOrder() (tea.Model, tea.Cmd) {
	flow := m.ws.Checkout
	details := checkout.Details{PaymentMethod: m.order.payment, Notes: m.order.notes.Value()}
	ctx := m.ctx
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		order, err := flow.Submit(ctx, details)
		return submitDoneMsg{order: order, err: err}
	}
}

func (m Model) handleSubmitted(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setFlash(flashError, "Order not created: "+query.Message(msg.err))
		return m, nil
	}

	m.order.search.SetValue("")
	m.order.notes.SetValue("")
	m.order.results = productsearch.Results{}
	m.order.resultRow = 0
	m.order.cartRow = 0
	m.order.focusOn(focusSearch)
	m.setFlash(flashInfo, fmt.Sprintf("Order %s created · %s", msg.order.OrderNumber, formatMoney(msg.order.TotalAmount)))

	// Stock and order history changed on the server.
	var cmds []tea.Cmd
	if m.ws.Lists.Products.Snapshot().Status != listsync.Idle {
		cmds = append(cmds, m.load(m.ws.Lists.Products.AfterMutation))
	}
	if m.ws.Lists.Orders.Snapshot().Status != listsync.Idle {
		cmds = append(cmds, m.load(m.ws.Lists.Orders.AfterMutation))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) renderNewOrder(height int) string {
	styles := m.theme.Styles()
	half := max((m.width-4)/2, 30)

	left := m.renderSearchPane(half)
	right := m.renderCartPane(half)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.pane(left, half, m.order.focus == focusSearch || m.order.focus == focusResults),
		m.pane(right, half, m.order.focus == focusCart || m.order.focus == focusNotes),
	)

	if last, err := m.ws.Checkout.Last(); err == nil && last != nil {
		body += "\n" + styles.MutedText.Render(fmt.Sprintf("Last order %s · %s · %s",
			last.OrderNumber, titleCase(last.Status), formatMoney(last.TotalAmount)))
	}
	return lipgloss.NewStyle().MaxHeight(height).Render(body)
}

func (m Model) pane(content string, width int, focused bool) string {
	border := m.theme.Border
	if focused {
		border = m.theme.BorderFocus
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(width).
		Render(content)
}

func (m Model) renderSearchPane(width int) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(m.order.search.View())
	b.WriteString("\n\n")

	r := m.order.results
	switch {
	case r.Loading:
		b.WriteString(styles.WarningText.Render("Searching..."))
	case r.Err != nil:
		b.WriteString(styles.DangerText.Render(query.Message(r.Err)))
	case r.Query != "" && len(r.Products) == 0 && query.Searchable(r.Query, query.MinSearchLength):
		b.WriteString(styles.MutedText.Render("No products match " + strconv.Quote(r.Query)))
	case len(r.Products) == 0:
		b.WriteString(styles.FaintText.Render("Results appear as you type"))
	}

	nameWidth := max(width-24, 10)
	for i, p := range r.Products {
		stock := fmt.Sprintf("%d %s", p.CurrentStock, p.Unit)
		line := cell(p.Name, nameWidth) + " " + cell(formatMoney(p.SellingPrice), 14) + " " + cell(stock, 8)
		b.WriteString("\n")
		switch {
		case m.order.focus == focusResults && i == m.order.resultRow:
			b.WriteString(styles.Selected.Render(line))
		case !p.InStock() || !m.ws.Cart.CanAdd(p):
			b.WriteString(styles.FaintText.Render(line))
		default:
			b.WriteString(styles.Text.Render(line))
		}
	}
	return b.String()
}

func (m Model) renderCartPane(width int) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Cart"))
	b.WriteString("\n")

	lines := m.ws.Cart.Lines()
	if len(lines) == 0 {
		b.WriteString(styles.FaintText.Render("Empty. Add products from the search results."))
	}
	nameWidth := max(width-30, 10)
	for i, line := range lines {
		qty := fmt.Sprintf("%d/%d", line.Quantity, line.StockCeiling)
		row := cell(line.Name, nameWidth) + " " + cell(qty, 8) + " " + cell(formatMoney(line.Subtotal()), 18)
		b.WriteString("\n")
		switch {
		case m.order.focus == focusCart && i == m.order.cartRow:
			b.WriteString(styles.Selected.Render(row))
		case line.AtCeiling():
			b.WriteString(styles.WarningText.Render(row))
		default:
			b.WriteString(styles.Text.Render(row))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Payment ") + styles.Text.Bold(true).Render(m.order.payment))
	b.WriteString("\n")
	b.WriteString(m.order.notes.View())
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Total   ") + styles.SuccessText.Render(formatMoney(m.ws.Cart.Total())))
	b.WriteString("\n")
	switch m.ws.Checkout.State() {
	case checkout.Submitting:
		b.WriteString(styles.WarningText.Render("Submitting..."))
	default:
		hint := ternary(m.ws.Checkout.CanSubmit(), "ctrl+s to submit", "add products to submit")
		b.WriteString(styles.FaintText.Render(hint))
	}
	return b.String()
}
