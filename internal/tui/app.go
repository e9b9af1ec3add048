// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for the Chili Mate storefront.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/chili-mate/internal/catalog"
	"github.com/kingrea/chili-mate/internal/checkout"
	"github.com/kingrea/chili-mate/internal/config"
	"github.com/kingrea/chili-mate/internal/logbook"
	"github.com/kingrea/chili-mate/internal/pricing"
	"github.com/kingrea/chili-mate/internal/session"
)

const guestSessionKey = "guest"

var (
	accentColor = lipgloss.Color("#FF6B6B")
	infoColor   = lipgloss.Color("#5B8DEF")
	mutedColor  = lipgloss.Color("#888888")
	borderColor = lipgloss.Color("#444444")
	goodColor   = lipgloss.Color("#4CAF50")
	warnColor   = lipgloss.Color("#F7B801")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(infoColor)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	goodStyle  = lipgloss.NewStyle().Foreground(goodColor).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(warnColor)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderColor).Padding(0, 1)
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithProcessor overrides the payment processor built from config.
func WithProcessor(p checkout.Processor) AppOption {
	return func(a *App) {
		if p != nil {
			a.processor = p
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) AppOption {
	return func(a *App) {
		if write != nil {
			a.copyToClipboard = write
		}
	}
}

// WithSessionKey selects which session the manager hands to this app.
func WithSessionKey(key string) AppOption {
	return func(a *App) {
		if strings.TrimSpace(key) != "" {
			a.sessionKey = key
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config    *config.Config
	catalog   *catalog.Catalog
	sessions  *session.Manager
	session   *session.Session
	flow      *checkout.Flow
	processor checkout.Processor
	logbook   *logbook.Logbook

	sessionKey      string
	copyToClipboard func(string) error

	// UI components
	keys      keyMap
	help      help.Model
	products  list.Model
	search    textinput.Model
	searching bool
	login     *loginForm
	checkout  *checkoutView

	filter      catalog.Filter
	categories  []string
	categoryIdx int
	priceIdx    int
	wishlistSel int
	cartSel     int

	statusMsg string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(filepath.Join(cfg.LogsDir(), "journey.log"))
	if err != nil {
		lb = nil
	}

	search := textinput.New()
	search.Placeholder = "cari produk..."
	search.Prompt = "/ "
	search.CharLimit = 40

	products := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	products.Title = "Produk"
	products.SetShowStatusBar(false)
	products.SetFilteringEnabled(false)
	products.SetShowHelp(false)

	app := &App{
		config:          cfg,
		catalog:         cat,
		sessions:        session.NewManager(),
		logbook:         lb,
		sessionKey:      guestSessionKey,
		copyToClipboard: clipboard.WriteAll,
		keys:            defaultKeyMap(),
		help:            help.New(),
		products:        products,
		search:          search,
		categories:      append([]string{catalog.AllCategories}, cat.Categories()...),
		filter:          catalog.Filter{Category: catalog.AllCategories, Sort: cfg.DefaultSort()},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.processor == nil {
		app.processor = checkout.NewSimulatedProcessor(
			checkout.WithLatency(cfg.PaymentLatency()),
			checkout.WithFailureRate(cfg.FailureRate()),
		)
	}
	app.session = app.sessions.Get(app.sessionKey)
	flow, err := checkout.New(app.session, checkout.WithRules(cfg.PricingRules()))
	if err != nil {
		return nil, err
	}
	app.flow = flow
	app.login = newLoginForm()
	app.checkout = newCheckoutView(app)
	if !app.session.Authenticated() {
		_ = app.session.NavigateTo(session.PageLogin)
	}
	app.refreshProducts()
	app.logInfo("Session opened · %s · %d products", cfg.StoreName(), cat.Len())
	return app, nil
}

// Close releases the logbook.
func (a *App) Close() error {
	if a.checkout != nil {
		a.checkout.cancelRunning()
	}
	return a.logbook.Close()
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.products.SetSize(max(20, a.leftWidth()-6), max(6, msg.Height-14))
		return a, nil

	case paymentResultMsg:
		return a, a.checkout.handlePaymentResult(msg)

	case spinner.TickMsg:
		return a, a.checkout.updateSpinner(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.typing() {
			return a, a.routeKey(msg)
		}
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Logout):
			a.logout()
			return a, nil
		case key.Matches(msg, a.keys.Home):
			return a, a.navigate(session.PageHome)
		case key.Matches(msg, a.keys.Details):
			return a, a.navigate(session.PageProductDetails)
		case key.Matches(msg, a.keys.Wishlist):
			return a, a.navigate(session.PageWishlist)
		case key.Matches(msg, a.keys.Cart):
			return a, a.navigate(session.PageCart)
		case key.Matches(msg, a.keys.Checkout):
			return a, a.openCheckout()
		}
		return a, a.routeKey(msg)
	}

	if a.typing() {
		return a, a.forwardToInputs(msg)
	}
	return a, nil
}

// forwardToInputs hands cursor blinks and similar messages to the focused input.
func (a *App) forwardToInputs(msg tea.Msg) tea.Cmd {
	switch a.session.CurrentPage() {
	case session.PageLogin:
		return a.login.updateInputs(msg)
	case session.PageHome:
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		return cmd
	case session.PageCheckout:
		return a.checkout.updateInputs(msg)
	}
	return nil
}

// typing reports whether key presses belong to a focused text input.
func (a *App) typing() bool {
	switch a.session.CurrentPage() {
	case session.PageLogin:
		return true
	case session.PageHome:
		return a.searching
	case session.PageCheckout:
		return a.checkout.typing()
	}
	return false
}

func (a *App) routeKey(msg tea.KeyMsg) tea.Cmd {
	switch a.session.CurrentPage() {
	case session.PageLogin:
		return a.updateLogin(msg)
	case session.PageHome:
		return a.updateHome(msg)
	case session.PageProductDetails:
		return a.updateDetails(msg)
	case session.PageWishlist:
		return a.updateWishlist(msg)
	case session.PageCart:
		return a.updateCart(msg)
	case session.PageCheckout:
		return a.checkout.Update(msg)
	}
	return nil
}

// navigate switches pages, holding everything behind the login gate.
func (a *App) navigate(page session.Page) tea.Cmd {
	if page.RequiresLogin() && !a.session.Authenticated() {
		page = session.PageLogin
		a.statusMsg = "Silakan login terlebih dahulu"
	}
	if page != session.PageCheckout {
		a.checkout.cancelRunning()
	}
	if err := a.session.NavigateTo(page); err != nil {
		a.statusMsg = err.Error()
		a.logError("Navigation failed: %v", err)
		return nil
	}
	if page == session.PageHome {
		a.refreshProducts()
	}
	if page == session.PageLogin {
		return a.login.focus()
	}
	return nil
}

func (a *App) openCheckout() tea.Cmd {
	if !a.session.Authenticated() {
		return a.navigate(session.PageLogin)
	}
	if err := a.flow.Start(); err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCartCheckout):
			a.statusMsg = "Keranjang belanja Anda kosong"
			a.logWarn("Checkout rejected · cart is empty")
		case errors.Is(err, checkout.ErrInvalidTransition):
			// processing or finished checkouts are shown as they are
		default:
			a.statusMsg = err.Error()
			a.logError("Checkout start failed: %v", err)
		}
	} else {
		a.logInfo("Checkout · %s", a.flow.State())
	}
	_ = a.session.NavigateTo(session.PageCheckout)
	return a.checkout.sync()
}

func (a *App) logout() {
	name := a.session.User().Name
	a.checkout.cancelRunning()
	a.session.Logout()
	_ = a.session.NavigateTo(session.PageLogin)
	a.login.reset()
	a.statusMsg = "Anda telah logout"
	a.logInfo("Logout · %s", name)
}

// View renders the current state to a string.
func (a *App) View() string {
	page := a.session.CurrentPage()
	var content string
	switch page {
	case session.PageLogin:
		content = a.login.View()
	case session.PageHome:
		content = a.renderHome()
	case session.PageProductDetails:
		content = a.renderDetails()
	case session.PageWishlist:
		content = a.renderWishlist()
	case session.PageCart:
		content = a.renderCart()
	case session.PageCheckout:
		content = a.checkout.View()
	}
	return a.renderStatusBoard(content)
}

func (a *App) leftWidth() int {
	width := a.width
	if width <= 0 {
		width = 100
	}
	right := a.rightWidth()
	left := width - right - 4
	if left < 40 {
		left = width - 4
	}
	return left
}

func (a *App) rightWidth() int {
	width := a.width
	if width <= 0 {
		width = 100
	}
	right := max(32, width/3)
	if width-right-4 < 40 {
		return 0
	}
	return right
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return boxStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderStatusBoard(mainContent string) string {
	leftWidth := a.leftWidth()
	rightWidth := a.rightWidth()
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		MarginBottom(1).
		Render("🌶 " + strings.ToUpper(a.config.StoreName()))
	left := lipgloss.JoinVertical(lipgloss.Left,
		a.renderNav(),
		"",
		lipgloss.NewStyle().Width(max(20, leftWidth-4)).Render(mainContent),
	)
	leftBox := boxStyle.Width(max(20, leftWidth)).Render(left)
	body := leftBox
	if rightWidth > 0 {
		rightBox := boxStyle.Width(max(20, rightWidth)).Render(a.renderCartPanel())
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(mutedColor).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer, a.help.View(a.helpFor(a.session.CurrentPage())))
	return strings.Join(sections, "\n")
}

func (a *App) renderNav() string {
	current := a.session.CurrentPage()
	var parts []string
	for _, page := range session.Pages {
		if page == session.PageLogin && a.session.Authenticated() {
			continue
		}
		label := page.FriendlyName()
		switch page {
		case session.PageWishlist:
			label = fmt.Sprintf("%s (%d)", label, len(a.session.Wishlist()))
		case session.PageCart:
			label = fmt.Sprintf("%s (%d)", label, a.session.CartCount())
		}
		if page == current {
			parts = append(parts, titleStyle.Render("["+label+"]"))
		} else {
			parts = append(parts, mutedStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

func (a *App) renderCartPanel() string {
	summary := a.flow.Summary()
	rules := a.flow.Rules()
	lines := []string{titleStyle.Render("Ringkasan Belanja")}
	if user := a.session.User(); a.session.Authenticated() {
		lines = append(lines, fmt.Sprintf("👤 %s", user.Name), mutedStyle.Render(user.Email), "")
	}
	lines = append(lines,
		fmt.Sprintf("Item: %d", summary.ItemCount),
		fmt.Sprintf("Subtotal: %s", pricing.FormatRupiah(summary.Subtotal)),
		fmt.Sprintf("Biaya Pengiriman: %s", shippingLabel(summary.Shipping)),
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Total: %s", pricing.FormatRupiah(summary.Total))),
	)
	if summary.ItemCount > 0 && !summary.FreeShipping {
		lines = append(lines, warnStyle.Render(fmt.Sprintf(
			"Belanja %s lagi untuk gratis ongkir",
			pricing.FormatRupiah(rules.Remaining(summary.Subtotal)),
		)))
	}
	lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("Checkout: %s", friendlyState(a.flow.State()))))
	return strings.Join(lines, "\n")
}

func shippingLabel(amount catalog.Money) string {
	if amount == 0 {
		return "Gratis"
	}
	return pricing.FormatRupiah(amount)
}

func friendlyState(state checkout.State) string {
	value := strings.ReplaceAll(string(state), "_", " ")
	if value == "" {
		return ""
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
