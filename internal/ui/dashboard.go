package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/five82/tally/internal/query"
	"github.com/five82/tally/internal/reports"
)

// chartWidth is the longest bar of the seven-day sales chart.
const chartWidth = 24

// dashboardView holds the last dashboard load.
type dashboardView struct {
	grouping reports.Grouping
	data     reports.Dashboard
	loaded   bool
	loading  bool
	loadedAt time.Time
}

type dashboardMsg struct {
	data reports.Dashboard
	at   time.Time
}

func (d *dashboardView) load(msg dashboardMsg) {
	d.data = msg.data
	d.loaded = true
	d.loading = false
	d.loadedAt = msg.at
}

func (m Model) loadDashboard() tea.Cmd {
	svc := m.ws.Reports
	period := reports.DefaultPeriod(m.now(), m.dashboard.grouping)
	ctx := m.ctx
	now := m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		// Section errors are kept on the dashboard itself.
		data, _ := svc.Dashboard(ctx, period)
		return dashboardMsg{data: data, at: now()}
	}
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		m.dashboard.loading = true
		return m, m.loadDashboard()
	case key.Matches(msg, m.keys.CycleGrouping):
		m.dashboard.grouping = m.dashboard.grouping.Next()
		m.dashboard.loading = true
		return m, m.loadDashboard()
	case key.Matches(msg, m.keys.Escape):
		m.screen = m.back
		if m.screen == screenDashboard || m.screen == screenLogin {
			m.screen = screenProducts
		}
	}
	return m, nil
}

func (m Model) renderDashboard(height int) string {
	styles := m.theme.Styles()
	d := m.dashboard

	title := styles.AccentText.Bold(true).Render("Dashboard")
	switch {
	case d.loading:
		title += "  " + styles.WarningText.Render("Loading...")
	case d.loaded:
		title += "  " + styles.FaintText.Render("updated "+formatWhen(d.loadedAt, m.now()))
	}
	if !d.loaded {
		return title
	}

	sections := []string{title, m.renderSummary()}
	left := m.renderSalesChart() + "\n\n" + m.renderTopSelling()
	right := m.renderLowStock()
	if m.width >= LayoutCompactWidth {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(m.width/2).Render(left), right))
	} else {
		sections = append(sections, left, right)
	}
	sections = append(sections, m.renderSalesReport())
	return clipLines(strings.Join(sections, "\n\n"), height)
}

func (m Model) renderSummary() string {
	styles := m.theme.Styles()
	d := m.dashboard.data
	if d.SummaryErr != nil {
		return styles.DangerText.Render(query.Message(d.SummaryErr)) + styles.FaintText.Render("  (r to retry)")
	}
	s := d.Summary
	stat := func(label, value string, style lipgloss.Style) string {
		return styles.MutedText.Render(label+" ") + style.Bold(true).Render(value)
	}
	critical := styles.Text
	if s.CriticalStock > 0 {
		critical = styles.WarningText
	}
	return strings.Join([]string{
		stat("Sales this month", formatMoney(s.SalesMonth), styles.SuccessText),
		stat("Transactions", strconv.Itoa(s.TransactionsMonth), styles.Text),
		stat("Active products", strconv.Itoa(s.ActiveProducts), styles.Text),
		stat("Critical stock", strconv.Itoa(s.CriticalStock), critical),
	}, styles.FaintText.Render("   "))
}

func (m Model) renderSalesChart() string {
	styles := m.theme.Styles()
	s := m.dashboard.data.Summary
	lines := []string{styles.AccentText.Render("Last 7 days")}
	if s == nil || len(s.SalesChart) == 0 {
		return strings.Join(append(lines, styles.MutedText.Render("No sales yet")), "\n")
	}
	peak := decimal.Zero
	for _, p := range s.SalesChart {
		peak = decimal.Max(peak, p.Sales)
	}
	for _, p := range s.SalesChart {
		lines = append(lines, cell(p.Label, 4)+styles.SuccessText.Render(bar(p.Sales, peak, chartWidth))+" "+
			styles.MutedText.Render(formatMoney(p.Sales)))
	}
	return strings.Join(lines, "\n")
}

// bar renders value as a run of blocks scaled so that peak fills width.
func bar(value, peak decimal.Decimal, width int) string {
	if !peak.IsPositive() || !value.IsPositive() {
		return ""
	}
	n := int(value.Mul(decimal.NewFromInt(int64(width))).Div(peak).Ceil().IntPart())
	return strings.Repeat("█", min(max(n, 1), width))
}

func (m Model) renderTopSelling() string {
	styles := m.theme.Styles()
	s := m.dashboard.data.Summary
	lines := []string{styles.AccentText.Render("Top selling this month")}
	if s == nil || len(s.TopSelling) == 0 {
		return strings.Join(append(lines, styles.MutedText.Render("Nothing sold yet")), "\n")
	}
	for i, p := range s.TopSelling {
		lines = append(lines, fmt.Sprintf("%d. %s %s", i+1, cell(p.Name, 24), styles.MutedText.Render(strconv.Itoa(p.QuantitySold)+" sold")))
	}
	if len(s.SalesByCategory) > 0 {
		lines = append(lines, "", styles.AccentText.Render("Sales by category"))
		for _, c := range s.SalesByCategory {
			lines = append(lines, cell(c.Name, 27)+" "+styles.MutedText.Render(formatMoney(c.TotalSales)))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLowStock() string {
	styles := m.theme.Styles()
	d := m.dashboard.data
	lines := []string{styles.AccentText.Render("Low stock")}
	switch {
	case d.LowStockErr != nil:
		lines = append(lines, styles.DangerText.Render(query.Message(d.LowStockErr)))
	case len(d.LowStock) == 0:
		lines = append(lines, styles.MutedText.Render("All products above their threshold"))
	default:
		for _, item := range d.LowStock {
			level := styles.WarningText
			if item.CurrentStock <= 0 {
				level = styles.DangerText
			}
			lines = append(lines, cell(item.ProductName, 22)+" "+
				level.Render(cell(fmt.Sprintf("%d/%d %s", item.CurrentStock, item.Threshold, item.Unit), 14))+" "+
				styles.FaintText.Render(ternary(item.Category != "", item.Category, "-")))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSalesReport() string {
	styles := m.theme.Styles()
	d := m.dashboard.data
	lines := []string{styles.AccentText.Render("Sales report") + "  " +
		styles.FaintText.Render(d.Period.String()+" (f for day/month)")}

	switch {
	case d.SalesErr != nil:
		return strings.Join(append(lines, styles.DangerText.Render(query.Message(d.SalesErr))), "\n")
	case len(d.Sales) == 0:
		return strings.Join(append(lines, styles.MutedText.Render("No sales data for the selected period")), "\n")
	}

	header := cell(ternary(d.Period.GroupBy == reports.ByMonth, "Month", "Date"), 12) +
		cell("Sales", 20) + cell("Items", 7) + "Est. profit"
	lines = append(lines, styles.MutedText.Render(header))
	for _, r := range d.Sales {
		lines = append(lines, cell(r.Bucket(), 12)+cell(formatMoney(r.TotalSales), 20)+
			cell(strconv.Itoa(r.TotalItems), 7)+formatMoney(r.EstimatedProfit))
	}
	sales, items, profit := d.SalesTotals()
	lines = append(lines, styles.Text.Bold(true).Render(cell("Total", 12)+cell(formatMoney(sales), 20)+
		cell(strconv.Itoa(items), 7)+formatMoney(profit)))
	return strings.Join(lines, "\n")
}

// clipLines keeps at most height lines of s.
func clipLines(s string, height int) string {
	lines := strings.Split(s, "\n")
	if height <= 0 || len(lines) <= height {
		return s
	}
	return strings.Join(lines[:height], "\n")
}
