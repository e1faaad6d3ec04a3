package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/tally/internal/listsync"
	"github.com/five82/tally/internal/query"
)

type column struct {
	title string
	width int
}

// table is a rendered list page. badge is the column drawn with
// StatusStyle, or -1.
type table struct {
	columns []column
	rows    [][]string
	badge   int
}

func (m Model) renderList(height int) string {
	var t table
	switch m.screen {
	case screenProducts:
		t = m.productsTable()
	case screenOrders:
		t = m.ordersTable()
	case screenCategories:
		t = m.categoriesTable()
	case screenUsers:
		t = m.usersTable()
	case screenStockLog:
		t = m.stockLogTable()
	}
	meta := m.meta(m.screen)

	var b strings.Builder
	b.WriteString(m.renderListTitle(meta))
	b.WriteString("\n")
	b.WriteString(m.renderTable(t, m.selected[m.screen], height-2))
	b.WriteString("\n")
	b.WriteString(m.renderPager(meta))
	return b.String()
}

func (m Model) renderListTitle(meta listMeta) string {
	styles := m.theme.Styles()
	title := m.screen.String()
	if m.screen == screenStockLog {
		title += " · " + m.stockProduct.Name
	}
	line := styles.AccentText.Bold(true).Render(title)
	if m.searching {
		return line + "  " + m.filter.View()
	}
	if f := m.describeFilters(meta.Filters); f != "" {
		line += "  " + styles.MutedText.Render(f)
	}
	return line
}

// describeFilters renders active filters, naming categories instead of ids.
func (m Model) describeFilters(filters query.Filters) string {
	if len(filters) == 0 {
		return ""
	}
	shown := filters.Clone()
	if id := shown["category_id"]; id != "" {
		for _, c := range m.categories {
			if strconv.FormatInt(c.ID, 10) == id {
				shown["category_id"] = c.Name
			}
		}
	}
	if shown["only_active"] == "false" {
		delete(shown, "only_active")
	}
	return shown.String()
}

func (m Model) renderTable(t table, selected, height int) string {
	styles := m.theme.Styles()
	var b strings.Builder

	header := make([]string, len(t.columns))
	for i, c := range t.columns {
		header[i] = cell(c.title, c.width)
	}
	b.WriteString(styles.FaintText.Bold(true).Render(strings.Join(header, " ")))

	if len(t.rows) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("No records"))
		return b.String()
	}

	// Scroll so the selection stays visible.
	visible := max(height-1, 1)
	start := 0
	if selected >= visible {
		start = selected - visible + 1
	}
	end := min(start+visible, len(t.rows))

	for r := start; r < end; r++ {
		cells := make([]string, len(t.columns))
		for i, c := range t.columns {
			value := ""
			if i < len(t.rows[r]) {
				value = t.rows[r][i]
			}
			cells[i] = cell(value, c.width)
		}
		b.WriteString("\n")
		if r == selected {
			b.WriteString(styles.Selected.Render(strings.Join(cells, " ")))
			continue
		}
		for i, c := range cells {
			if i > 0 {
				b.WriteString(" ")
			}
			if i == t.badge && t.rows[r][i] != "" {
				// StatusStyle pads one column each side.
				label := truncate(t.rows[r][i], t.columns[i].width-2)
				b.WriteString(styles.StatusStyle(t.rows[r][i]).Render(label))
				b.WriteString(strings.Repeat(" ", max(t.columns[i].width-len([]rune(label))-2, 0)))
				continue
			}
			b.WriteString(styles.Text.Render(c))
		}
	}
	return b.String()
}

func (m Model) renderPager(meta listMeta) string {
	styles := m.theme.Styles()
	parts := []string{
		fmt.Sprintf("Page %d/%d", meta.Page, meta.LastPage),
		fmt.Sprintf("%d total", meta.Total),
		fmt.Sprintf("%d per page", meta.PageSize),
	}
	if !meta.LastUpdated.IsZero() {
		parts = append(parts, "updated "+formatWhen(meta.LastUpdated, m.now()))
	}
	line := styles.MutedText.Render(strings.Join(parts, " · "))

	switch meta.Status {
	case listsync.Loading:
		line += "  " + styles.WarningText.Render("Loading...")
	case listsync.Error:
		line += "  " + styles.DangerText.Render(query.Message(meta.Err)+" (r to retry)")
	}
	return line
}

func (m Model) productsTable() table {
	wide := m.width >= LayoutWideWidth
	cols := []column{{"ID", 6}, {"Name", 28}, {"Category", 16}, {"Price", 16}, {"Stock", 10}, {"Active", 6}}
	if wide {
		cols = append(cols, column{"SKU", 14})
	}
	state := m.ws.Lists.Products.Snapshot()
	rows := make([][]string, 0, len(state.Rows))
	for _, p := range state.Rows {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		stock := strconv.Itoa(p.CurrentStock)
		if p.Unit != "" {
			stock += " " + p.Unit
		}
		if p.LowStockThreshold > 0 && p.CurrentStock <= p.LowStockThreshold {
			stock += " !"
		}
		row := []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			category,
			formatMoney(p.SellingPrice),
			stock,
			ternary(p.IsActive, "yes", "no"),
		}
		if wide {
			row = append(row, p.SKU)
		}
		rows = append(rows, row)
	}
	return table{columns: cols, rows: rows, badge: -1}
}

func (m Model) ordersTable() table {
	cols := []column{{"Order", 20}, {"Status", 12}, {"Payment", 10}, {"Total", 18}, {"Items", 5}, {"Created", 16}}
	if m.width >= LayoutWideWidth {
		cols = append(cols, column{"Notes", 24})
	}
	state := m.ws.Lists.Orders.Snapshot()
	rows := make([][]string, 0, len(state.Rows))
	for _, o := range state.Rows {
		row := []string{
			o.OrderNumber,
			o.Status,
			o.PaymentMethod,
			formatMoney(o.TotalAmount),
			strconv.Itoa(len(o.Items)),
			formatWhen(o.CreatedTime(), m.now()),
		}
		if len(cols) > 6 {
			row = append(row, o.Notes)
		}
		rows = append(rows, row)
	}
	return table{columns: cols, rows: rows, badge: 1}
}

func (m Model) categoriesTable() table {
	cols := []column{{"ID", 6}, {"Name", 24}, {"Description", 44}}
	state := m.ws.Lists.Categories.Snapshot()
	rows := make([][]string, 0, len(state.Rows))
	for _, c := range state.Rows {
		rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name, c.Description})
	}
	return table{columns: cols, rows: rows, badge: -1}
}

func (m Model) usersTable() table {
	cols := []column{{"ID", 6}, {"Username", 18}, {"Full name", 26}, {"Role", 10}, {"Active", 6}}
	state := m.ws.Lists.Users.Snapshot()
	rows := make([][]string, 0, len(state.Rows))
	for _, u := range state.Rows {
		rows = append(rows, []string{
			strconv.FormatInt(u.ID, 10), u.Username, u.FullName, u.Role, ternary(u.IsActive, "yes", "no"),
		})
	}
	return table{columns: cols, rows: rows, badge: -1}
}

func (m Model) stockLogTable() table {
	cols := []column{{"When", 16}, {"Type", 18}, {"Change", 8}, {"Before", 8}, {"After", 8}, {"Remarks", 30}}
	if m.stockLog == nil {
		return table{columns: cols, badge: 1}
	}
	state := m.stockLog.Snapshot()
	rows := make([][]string, 0, len(state.Rows))
	for _, l := range state.Rows {
		rows = append(rows, []string{
			formatWhen(l.CreatedTime(), m.now()),
			l.ChangeType,
			fmt.Sprintf("%+d", l.QuantityChange),
			strconv.Itoa(l.StockBefore),
			strconv.Itoa(l.StockAfter),
			l.Remarks,
		})
	}
	return table{columns: cols, rows: rows, badge: 1}
}
