package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	Logout     key.Binding

	// View switching
	ViewProducts   key.Binding
	ViewOrders     key.Binding
	ViewCategories key.Binding
	ViewUsers      key.Binding
	ViewActivity   key.Binding
	ViewDashboard  key.Binding
	ViewNewOrder   key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Bigger   key.Binding
	Smaller  key.Binding

	// List actions
	Filter       key.Binding
	CycleFilter  key.Binding
	ToggleActive key.Binding
	ClearFilters key.Binding
	Refresh      key.Binding
	Create       key.Binding
	Delete       key.Binding
	Purge        key.Binding
	SetStatus    key.Binding
	StockLog     key.Binding
	StockIn      key.Binding
	AdjustStock  key.Binding
	AddToCart    key.Binding
	OpenOrder    key.Binding

	// Dashboard
	CycleGrouping key.Binding

	// New order
	Increase      key.Binding
	Decrease      key.Binding
	EditQuantity  key.Binding
	RemoveLine    key.Binding
	CyclePayment  key.Binding
	Submit        key.Binding
	ConfirmChoice key.Binding
	CancelChoice  key.Binding

	// Search/input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next field"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Log out"),
		),

		ViewProducts: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Products"),
		),
		ViewOrders: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Orders"),
		),
		ViewCategories: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Categories"),
		),
		ViewUsers: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Users"),
		),
		ViewActivity: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "Activity"),
		),
		ViewDashboard: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "Dashboard"),
		),
		ViewNewOrder: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New order"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "pgdown"),
			key.WithHelp("]", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "pgup"),
			key.WithHelp("[", "Previous page"),
		),
		Bigger: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "More rows per page"),
		),
		Smaller: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "Fewer rows per page"),
		),

		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle category/status filter"),
		),
		ToggleActive: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Only active products"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear filters"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Create: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "New category"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete"),
		),
		Purge: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Delete permanently"),
		),
		SetStatus: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Change order status"),
		),
		StockLog: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Stock log"),
		),
		StockIn: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Stock in"),
		),
		AdjustStock: key.NewBinding(
			key.WithKeys("="),
			key.WithHelp("=", "Adjust stock"),
		),
		AddToCart: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add to cart"),
		),
		OpenOrder: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Order details"),
		),

		CycleGrouping: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Sales by day/month"),
		),

		Increase: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "Increase quantity"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Decrease quantity"),
		),
		EditQuantity: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Set quantity"),
		),
		RemoveLine: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "Remove line"),
		),
		CyclePayment: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Cycle payment method"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Submit order"),
		),
		ConfirmChoice: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "Confirm"),
		),
		CancelChoice: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "Cancel"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewProducts, k.ViewOrders, k.ViewCategories, k.ViewUsers, k.ViewActivity, k.ViewDashboard, k.ViewNewOrder, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom, k.NextPage, k.PrevPage, k.Bigger, k.Smaller},
		{k.Filter, k.CycleFilter, k.ToggleActive, k.ClearFilters, k.Refresh, k.OpenOrder, k.CycleGrouping},
		{k.Create, k.Delete, k.Purge, k.SetStatus, k.StockLog, k.StockIn, k.AdjustStock, k.AddToCart},
		{k.Tab, k.Increase, k.Decrease, k.EditQuantity, k.RemoveLine, k.CyclePayment, k.Submit},
		{k.CycleTheme, k.Logout, k.Help, k.Quit},
	}
}
