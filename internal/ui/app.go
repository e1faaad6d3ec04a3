package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"

	"github.com/five82/tally/internal/cart"
	"github.com/five82/tally/internal/checkout"
	"github.com/five82/tally/internal/listsync"
	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/productsearch"
	"github.com/five82/tally/internal/query"
	"github.com/five82/tally/internal/reports"
	"github.com/five82/tally/internal/resources"
	"github.com/five82/tally/internal/session"
)

// screen identifies the active page.
type screen int

const (
	screenLogin screen = iota
	screenProducts
	screenOrders
	screenCategories
	screenUsers
	screenStockLog
	screenNewOrder
	screenActivity
	screenDashboard
	screenOrderDetail
	screenCount
)

func (s screen) String() string {
	switch s {
	case screenLogin:
		return "Sign in"
	case screenProducts:
		return "Products"
	case screenOrders:
		return "Orders"
	case screenCategories:
		return "Categories"
	case screenUsers:
		return "Users"
	case screenStockLog:
		return "Stock log"
	case screenNewOrder:
		return "New order"
	case screenActivity:
		return "Activity"
	case screenDashboard:
		return "Dashboard"
	case screenOrderDetail:
		return "Order"
	default:
		return "Unknown"
	}
}

// Workspace is everything one signed-in session drives.
type Workspace struct {
	User     *posapi.User
	Lists    *resources.Set
	Search   *productsearch.Searcher
	Cart     *cart.Cart
	Checkout *checkout.Flow
	Reports  *reports.Service
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Session *session.Manager
	API     session.API
	// Open builds the workspace after sign-in. Its teardown belongs on
	// Session.OnLogout.
	Open          func(user *posapi.User) *Workspace
	Events        *Events
	ThemeName     string
	PrefsPath     string
	PaymentMethod string
	// LogPath is the JSON log file shown on the activity screen.
	LogPath       string
	Logger        logr.Logger
	Now           func() time.Time
}

type flashKind int

const (
	flashInfo flashKind = iota
	flashWarn
	flashError
)

type flash struct {
	text string
	kind flashKind
	at   time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	session   *session.Manager
	api       session.API
	open      func(*posapi.User) *Workspace
	events    *Events
	logger    logr.Logger
	prefsPath string
	logPath   string
	now       func() time.Time
	keys      keyMap

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	screen   screen
	back     screen
	showHelp bool
	modal    Modal
	flash    flash

	// Session state
	ws         *Workspace
	categories []posapi.Category

	// List state
	selected  [screenCount]int
	searching bool
	filter    textinput.Model

	stockLog     *listsync.Controller[posapi.InventoryLog]
	stockProduct posapi.Product

	login       loginForm
	order       orderForm
	activity    activityView
	dashboard   dashboardView
	orderDetail orderDetailView
}

// New creates the model. A session that is already signed in opens its
// workspace straight away.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	events := opts.Events
	if events == nil {
		events = NewEvents()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "name or SKU"
	filter.CharLimit = 80

	m := Model{
		ctx:       ctx,
		session:   opts.Session,
		api:       opts.API,
		open:      opts.Open,
		events:    events,
		logger:    logger,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		now:       now,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.ThemeName),
		screen:    screenLogin,
		back:      screenProducts,
		filter:    filter,
		login:     newLoginForm(),
		order:     newOrderForm(opts.PaymentMethod),
		dashboard: dashboardView{grouping: reports.ByDay},
	}
	if m.session != nil && m.session.SignedIn() && m.open != nil {
		m.ws = m.open(m.session.User())
		m.screen = screenProducts
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.events.next(), textinput.Blink}
	if m.ws != nil {
		cmds = append(cmds, m.mountProducts())
	}
	return tea.Batch(cmds...)
}

// Messages

type loginDoneMsg struct {
	user *posapi.User
	err  error
}

type logoutDoneMsg struct{ err error }

type opDoneMsg struct {
	notice string
	err    error
}

type categoriesMsg []posapi.Category

type submitDoneMsg struct {
	order *posapi.Order
	err   error
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case listChangedMsg:
		m.clampSelection()
		return m, m.events.next()

	case searchResultsMsg:
		m.order.results = productsearch.Results(msg)
		if m.order.resultRow >= len(m.order.results.Products) {
			m.order.resultRow = 0
		}
		return m, m.events.next()

	case categoriesMsg:
		m.categories = msg
		return m, nil

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case logoutDoneMsg:
		m.ws = nil
		m.stockLog = nil
		m.categories = nil
		m.selected = [screenCount]int{}
		m.screen = screenLogin
		m.login = newLoginForm()
		m.order = newOrderForm(m.order.payment)
		m.dashboard = dashboardView{grouping: m.dashboard.grouping}
		m.orderDetail = orderDetailView{}
		if msg.err != nil {
			m.logger.Error(msg.err, "logout teardown")
			m.setFlash(flashError, "Signed out with errors: "+msg.err.Error())
		}
		return m, nil

	case opDoneMsg:
		switch {
		case msg.err != nil:
			m.setFlash(flashError, query.Message(msg.err))
		case msg.notice != "":
			m.setFlash(flashInfo, msg.notice)
		}
		return m, nil

	case submitDoneMsg:
		return m.handleSubmitted(msg)

	case quantitySetMsg:
		m.reportQuantity(msg.line, msg.signal)
		return m, nil

	case activityMsg:
		m.activity.load(msg)
		return m, nil

	case dashboardMsg:
		if m.ws != nil {
			m.dashboard.load(msg)
		}
		return m, nil

	case orderDetailMsg:
		m.orderDetail.load(msg)
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.screen == screenLogin {
		return m.renderLogin()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}
	if m.screen == screenLogin || m.ws == nil {
		return m.handleLoginKey(msg)
	}
	if m.searching {
		return m.handleFilterKey(msg)
	}
	if m.screen == screenNewOrder && m.order.typing() {
		return m.handleOrderKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.ViewProducts):
		return m.show(screenProducts)
	case key.Matches(msg, m.keys.ViewOrders):
		return m.show(screenOrders)
	case key.Matches(msg, m.keys.ViewCategories):
		return m.show(screenCategories)
	case key.Matches(msg, m.keys.ViewUsers):
		return m.show(screenUsers)
	case key.Matches(msg, m.keys.ViewActivity):
		return m.show(screenActivity)
	case key.Matches(msg, m.keys.ViewDashboard):
		return m.show(screenDashboard)
	case key.Matches(msg, m.keys.ViewNewOrder):
		return m.show(screenNewOrder)
	}

	switch m.screen {
	case screenNewOrder:
		return m.handleOrderKey(msg)
	case screenActivity:
		return m.handleActivityKey(msg)
	case screenDashboard:
		return m.handleDashboardKey(msg)
	case screenOrderDetail:
		return m.handleOrderDetailKey(msg)
	}
	return m.handleListKey(msg)
}

// show switches to s, mounting its list the first time.
func (m Model) show(s screen) (tea.Model, tea.Cmd) {
	if s == screenUsers && (m.ws.User == nil || !m.ws.User.IsAdmin()) {
		m.setFlash(flashWarn, "Only admins can manage users")
		return m, nil
	}
	if s != m.screen {
		m.back = m.screen
	}
	m.screen = s

	switch s {
	case screenNewOrder:
		m.order.focusOn(focusSearch)
		return m, textinput.Blink
	case screenActivity:
		return m, m.readActivity()
	case screenDashboard:
		if !m.dashboard.loaded && !m.dashboard.loading {
			m.dashboard.loading = true
			return m, m.loadDashboard()
		}
		return m, nil
	case screenProducts:
		if m.ws.Lists.Products.Snapshot().Status == listsync.Idle {
			return m, m.mountProducts()
		}
		return m, nil
	}
	if l := m.list(s); l != nil && m.meta(s).Status == listsync.Idle {
		return m, m.load(l.Mount)
	}
	return m, nil
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.screen == screenLogin:
		i := m.login.focus
		m.login.inputs[i], cmd = m.login.inputs[i].Update(msg)
	case m.searching:
		m.filter, cmd = m.filter.Update(msg)
	case m.screen == screenNewOrder && m.order.focus == focusSearch:
		m.order.search, cmd = m.order.search.Update(msg)
	case m.screen == screenNewOrder && m.order.focus == focusNotes:
		m.order.notes, cmd = m.order.notes.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFlash(kind flashKind, text string) {
	m.flash = flash{text: text, kind: kind, at: m.now()}
}

func (m Model) savePrefs() {
	p := prefs.Prefs{Theme: m.theme.Name, PaymentMethod: m.order.payment}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Error(err, "save preferences", "path", m.prefsPath)
	}
}

// Commands

// load runs a list operation. Failures are recorded in the controller's
// state and rendered from there.
func (m Model) load(op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		_ = op(ctx)
		return nil
	}
}

// mutate runs a backend write and reports notice on success.
func (m Model) mutate(notice string, op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		if err := op(ctx); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{notice: notice}
	}
}

func (m Model) mountProducts() tea.Cmd {
	set := m.ws.Lists
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		categories, err := set.MountProducts(ctx)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return categoriesMsg(categories)
	}
}

func (m Model) fetchCategories() tea.Cmd {
	options := m.ws.Lists.CategoryOptions
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		categories, err := options.Get(ctx)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return categoriesMsg(categories)
	}
}

func (m Model) logout() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		if s == nil {
			return logoutDoneMsg{}
		}
		return logoutDoneMsg{err: s.Logout()}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Events == nil {
		opts.Events = NewEvents()
	}
	defer opts.Events.Close()

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// renderMain renders the header, the active screen and the footer.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent(m.contentHeight()))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderContent(height int) string {
	switch m.screen {
	case screenNewOrder:
		return m.renderNewOrder(height)
	case screenActivity:
		return m.renderActivity(height)
	case screenDashboard:
		return m.renderDashboard(height)
	case screenOrderDetail:
		return m.renderOrderDetail(height)
	default:
		return m.renderList(height)
	}
}

func (m Model) contentHeight() int {
	h := m.height - headerLines - footerLines
	if h < 3 {
		return 3
	}
	return h
}
