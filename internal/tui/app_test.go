package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/chili-mate/internal/catalog"
	"github.com/kingrea/chili-mate/internal/checkout"
	"github.com/kingrea/chili-mate/internal/config"
	"github.com/kingrea/chili-mate/internal/invoice"
	"github.com/kingrea/chili-mate/internal/session"
)

var paidAt = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestLoginGateHoldsPagesUntilLogin(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	if got := app.session.CurrentPage(); got != session.PageLogin {
		t.Fatalf("start page = %s, want Login", got.FriendlyName())
	}
	app.navigate(session.PageCart)
	if got := app.session.CurrentPage(); got != session.PageLogin {
		t.Fatalf("unauthenticated navigation reached %s", got.FriendlyName())
	}
	if !strings.Contains(app.statusMsg, "login") {
		t.Fatalf("expected login hint, got %q", app.statusMsg)
	}

	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.session.Authenticated() {
		t.Fatalf("blank login must be rejected")
	}
	if app.login.err == "" {
		t.Fatalf("expected incomplete profile message")
	}

	login(t, app)
	if got := app.session.CurrentPage(); got != session.PageHome {
		t.Fatalf("after login page = %s, want Home", got.FriendlyName())
	}
	if user := app.session.User(); user.Name != "Budi Santoso" || user.Email != "budi@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestHomeAddsSelectedProductToCart(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	login(t, app)
	send(app, runes("a"))
	send(app, runes("a"))
	if got := app.session.CartCount(); got != 2 {
		t.Fatalf("cart count = %d, want 2 (duplicates kept)", got)
	}
	if got := app.session.CartProducts()[0].ID; got != "cabe-merah-ori" {
		t.Fatalf("added %s, want cabe-merah-ori", got)
	}
	summary := app.flow.Summary()
	if summary.Subtotal != 42000 || summary.Shipping != 15000 || summary.Total != 57000 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	send(app, runes("4"))
	send(app, runes("d"))
	if got := app.session.CartCount(); got != 1 {
		t.Fatalf("cart count after remove = %d, want 1", got)
	}
}

func TestProductDetailsAndWishlistMove(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	login(t, app)
	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if got := app.session.CurrentPage(); got != session.PageProductDetails {
		t.Fatalf("enter should open details, got %s", got.FriendlyName())
	}
	if view := app.View(); !strings.Contains(view, "Cabe Merah Ori") {
		t.Fatalf("details view missing product name")
	}
	send(app, runes("w"))
	if !app.session.InWishlist("cabe-merah-ori") {
		t.Fatalf("w should wishlist the selected product")
	}

	send(app, runes("3"))
	send(app, runes("m"))
	if len(app.session.Wishlist()) != 0 {
		t.Fatalf("moved product should leave the wishlist")
	}
	if got := app.session.CartCount(); got != 1 {
		t.Fatalf("cart count = %d, want 1", got)
	}
}

func TestDetailsWithoutSelectionShowsMessage(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	login(t, app)
	send(app, runes("2"))
	if view := app.View(); !strings.Contains(view, "Tidak ada produk yang dipilih") {
		t.Fatalf("expected no-selection message in details view")
	}
}

func TestSearchAndSortPersistence(t *testing.T) {
	projectDir := t.TempDir()
	app := newTestApp(t, projectDir)
	login(t, app)

	send(app, runes("/"))
	send(app, runes("rawit"))
	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	items := app.products.Items()
	if len(items) != 3 {
		t.Fatalf("search results = %d, want 3", len(items))
	}
	for _, item := range items {
		if !strings.Contains(item.(productItem).product.Name, "Rawit") {
			t.Fatalf("unexpected search hit %s", item.(productItem).product.Name)
		}
	}

	send(app, runes("x"))
	send(app, runes("s"))
	if app.filter.Sort != catalog.SortPriceAsc {
		t.Fatalf("sort = %s, want price ascending", app.filter.Sort)
	}
	items = app.products.Items()
	for i := 1; i < len(items); i++ {
		if items[i-1].(productItem).product.Price > items[i].(productItem).product.Price {
			t.Fatalf("products not sorted by price at %d", i)
		}
	}
	reloaded, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if got := reloaded.DefaultSort(); got != catalog.SortPriceAsc {
		t.Fatalf("persisted sort = %s, want price ascending", got)
	}
}

func TestCheckoutWithEmptyCartIsRejected(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	login(t, app)
	send(app, runes("5"))
	if got := app.flow.State(); got != checkout.StateEmpty {
		t.Fatalf("state = %s, want empty", got)
	}
	if !strings.Contains(app.statusMsg, "kosong") {
		t.Fatalf("expected empty cart message, got %q", app.statusMsg)
	}
}

func TestDeliveryValidationHighlightsMissingFields(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	login(t, app)
	send(app, runes("a"))
	send(app, runes("5"))
	if got := app.flow.State(); got != checkout.StateCollectingInfo {
		t.Fatalf("state = %s, want collecting info", got)
	}
	if got := app.checkout.delivery[0].Value(); got != "Budi Santoso" {
		t.Fatalf("name not prefilled from login, got %q", got)
	}
	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	for _, field := range []string{"phone", "address", "postal_code"} {
		if _, ok := app.checkout.fieldErrs[field]; !ok {
			t.Fatalf("expected %s error, got %v", field, app.checkout.fieldErrs)
		}
	}
	if app.checkout.focus != 1 {
		t.Fatalf("focus = %d, want first invalid field", app.checkout.focus)
	}
	if got := app.flow.State(); got != checkout.StateCollectingInfo {
		t.Fatalf("invalid form advanced to %s", got)
	}
}

func TestCheckoutEndToEndExportsInvoice(t *testing.T) {
	projectDir := t.TempDir()
	var copied string
	app := newTestApp(t, projectDir, WithClipboard(func(text string) error {
		copied = text
		return nil
	}))
	login(t, app)
	send(app, runes("a"))
	send(app, runes("5"))
	fillDelivery(app)
	if got := app.flow.State(); got != checkout.StateSelectingPayment {
		t.Fatalf("state = %s, want selecting payment", got)
	}
	send(app, tea.KeyMsg{Type: tea.KeyRight})
	cmd := send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if got := app.flow.State(); got != checkout.StateProcessing {
		t.Fatalf("state = %s, want processing", got)
	}
	app = runCommands(t, app, cmd)
	if got := app.flow.State(); got != checkout.StateConfirmed {
		t.Fatalf("state = %s, want confirmed", got)
	}
	order, ok := app.flow.Order()
	if !ok {
		t.Fatalf("confirmed flow must hold an order")
	}
	if order.ID != "ORD-20240309-1234" || order.Amount != 36000 || order.Details.Bank != "Mandiri" {
		t.Fatalf("unexpected order %+v", order)
	}
	if order.Delivery.Phone != "08123456789" {
		t.Fatalf("delivery not recorded: %+v", order.Delivery)
	}

	send(app, runes("e"))
	path := filepath.Join(app.config.InvoiceDir(), invoice.FileName(order.ID))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read invoice: %v", err)
	}
	if !strings.Contains(string(data), "- Total: Rp 36,000") {
		t.Fatalf("invoice missing total:\n%s", data)
	}
	send(app, runes("y"))
	if copied != string(data) {
		t.Fatalf("clipboard text differs from exported invoice")
	}

	lines, _ := app.logbook.Tail(50)
	if !strings.Contains(strings.Join(lines, "\n"), "ORD-20240309-1234") {
		t.Fatalf("confirmation not logged: %v", lines)
	}

	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if got := app.session.CurrentPage(); got != session.PageHome {
		t.Fatalf("page = %s, want Home", got.FriendlyName())
	}
	if app.session.CartCount() != 0 {
		t.Fatalf("cart should be cleared after returning home")
	}
	if got := app.flow.State(); got != checkout.StateEmpty {
		t.Fatalf("state = %s, want empty", got)
	}
}

func TestDeclinedPaymentCanBeRetried(t *testing.T) {
	declined := checkout.ProcessorFunc(func(context.Context, checkout.Order) (checkout.Receipt, error) {
		return checkout.Receipt{}, checkout.ErrPaymentDeclined
	})
	app := newTestApp(t, t.TempDir(), WithProcessor(declined))
	login(t, app)
	send(app, runes("a"))
	send(app, runes("5"))
	fillDelivery(app)
	app = runCommands(t, app, send(app, tea.KeyMsg{Type: tea.KeyEnter}))
	if got := app.flow.State(); got != checkout.StateFailed {
		t.Fatalf("state = %s, want failed", got)
	}
	if _, ok := app.flow.Order(); ok {
		t.Fatalf("failed payment must not keep an order")
	}
	if failure := app.flow.Failure(); failure == nil || failure.Amount != 36000 {
		t.Fatalf("unexpected failure %+v", failure)
	}
	send(app, runes("r"))
	if got := app.flow.State(); got != checkout.StateSelectingPayment {
		t.Fatalf("retry state = %s, want selecting payment", got)
	}
	if app.session.CartCount() != 1 {
		t.Fatalf("retry must keep the cart")
	}
}

func TestCancelledPaymentIgnoresLateResult(t *testing.T) {
	blocking := checkout.ProcessorFunc(func(ctx context.Context, _ checkout.Order) (checkout.Receipt, error) {
		<-ctx.Done()
		return checkout.Receipt{}, checkout.ErrPaymentCancelled
	})
	app := newTestApp(t, t.TempDir(), WithProcessor(blocking))
	login(t, app)
	send(app, runes("a"))
	send(app, runes("5"))
	fillDelivery(app)
	cmd := send(app, tea.KeyMsg{Type: tea.KeyEnter})
	send(app, runes("x"))
	if got := app.flow.State(); got != checkout.StateSelectingPayment {
		t.Fatalf("state after cancel = %s, want selecting payment", got)
	}
	app = runCommands(t, app, cmd)
	if got := app.flow.State(); got != checkout.StateSelectingPayment {
		t.Fatalf("late result changed state to %s", got)
	}
}

func TestDeclinedPaymentReturnHomeKeepsCart(t *testing.T) {
	declined := checkout.ProcessorFunc(func(context.Context, checkout.Order) (checkout.Receipt, error) {
		return checkout.Receipt{}, checkout.ErrPaymentDeclined
	})
	app := newTestApp(t, t.TempDir(), WithProcessor(declined))
	login(t, app)
	send(app, runes("a"))
	send(app, runes("5"))
	fillDelivery(app)
	app = runCommands(t, app, send(app, tea.KeyMsg{Type: tea.KeyEnter}))
	if got := app.flow.State(); got != checkout.StateFailed {
		t.Fatalf("state = %s, want failed", got)
	}
	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if got := app.session.CurrentPage(); got != session.PageHome {
		t.Fatalf("page = %s, want Home", got.FriendlyName())
	}
	if got := app.session.CartCount(); got != 1 {
		t.Fatalf("unpaid cart should be kept, got %d entries", got)
	}
	if got := app.flow.State(); got != checkout.StateEmpty {
		t.Fatalf("state = %s, want empty", got)
	}
}

func TestLeavingCheckoutCancelsPayment(t *testing.T) {
	blocking := checkout.ProcessorFunc(func(ctx context.Context, _ checkout.Order) (checkout.Receipt, error) {
		<-ctx.Done()
		return checkout.Receipt{}, checkout.ErrPaymentCancelled
	})
	app := newTestApp(t, t.TempDir(), WithProcessor(blocking))
	login(t, app)
	send(app, runes("a"))
	send(app, runes("5"))
	fillDelivery(app)
	cmd := send(app, tea.KeyMsg{Type: tea.KeyEnter})
	send(app, runes("4"))
	if got := app.session.CurrentPage(); got != session.PageCart {
		t.Fatalf("page = %s, want Cart", got.FriendlyName())
	}
	if got := app.flow.State(); got != checkout.StateSelectingPayment {
		t.Fatalf("state after leaving = %s, want selecting payment", got)
	}
	app = runCommands(t, app, cmd)
	if got := app.flow.State(); got != checkout.StateSelectingPayment {
		t.Fatalf("late result changed state to %s", got)
	}
	if app.session.CartCount() != 1 {
		t.Fatalf("cancelled payment must keep the cart")
	}
}

func TestProcessingViewShowsPendingOrder(t *testing.T) {
	blocking := checkout.ProcessorFunc(func(ctx context.Context, _ checkout.Order) (checkout.Receipt, error) {
		<-ctx.Done()
		return checkout.Receipt{}, checkout.ErrPaymentCancelled
	})
	app := newTestApp(t, t.TempDir(), WithProcessor(blocking))
	login(t, app)
	send(app, runes("a"))
	send(app, runes("5"))
	fillDelivery(app)
	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if got := app.flow.State(); got != checkout.StateProcessing {
		t.Fatalf("state = %s, want processing", got)
	}
	app.session.ClearCart()
	view := app.checkout.View()
	if !strings.Contains(view, "Total: Rp 36,000") {
		t.Fatalf("processing view should show the pending amount:\n%s", view)
	}
	if !strings.Contains(view, "Virtual Account (BCA)") {
		t.Fatalf("processing view should show the order's method:\n%s", view)
	}
}

func TestLogoutReturnsToLogin(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	login(t, app)
	send(app, runes("L"))
	if app.session.Authenticated() {
		t.Fatalf("logout should clear the identity")
	}
	if got := app.session.CurrentPage(); got != session.PageLogin {
		t.Fatalf("page = %s, want Login", got.FriendlyName())
	}
	if app.login.inputs[0].Value() != "" {
		t.Fatalf("login form should be cleared")
	}
}

func TestSessionKeyIsolatesShoppers(t *testing.T) {
	projectDir := t.TempDir()
	alice := newTestApp(t, projectDir, WithSessionKey("alice"))
	if alice.session.ID() == "" {
		t.Fatalf("session must have an id")
	}
	bob := newTestApp(t, projectDir, WithSessionKey("bob"))
	login(t, alice)
	send(alice, runes("a"))
	if bob.session.CartCount() != 0 {
		t.Fatalf("sessions must not share carts")
	}
}

func newTestApp(t *testing.T, projectDir string, opts ...AppOption) *App {
	t.Helper()
	if err := config.InitWorkspace(projectDir); err != nil {
		t.Fatalf("init workspace: %v", err)
	}
	instant := checkout.ProcessorFunc(func(context.Context, checkout.Order) (checkout.Receipt, error) {
		return checkout.Receipt{OrderID: checkout.FormatOrderID(paidAt, 1234), PaidAt: paidAt}, nil
	})
	baseOpts := []AppOption{
		WithProcessor(instant),
		WithClipboard(func(string) error { return nil }),
	}
	baseOpts = append(baseOpts, opts...)
	app, err := NewApp(projectDir, baseOpts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send delivers one key and returns the resulting command without running it.
func send(app *App, msg tea.KeyMsg) tea.Cmd {
	_, cmd := app.Update(msg)
	return cmd
}

func login(t *testing.T, app *App) {
	t.Helper()
	send(app, runes("Budi Santoso"))
	send(app, tea.KeyMsg{Type: tea.KeyTab})
	send(app, runes("budi@example.com"))
	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if !app.session.Authenticated() {
		t.Fatalf("login failed: %s", app.login.err)
	}
}

// fillDelivery completes the fields login does not prefill and submits.
func fillDelivery(app *App) {
	send(app, tea.KeyMsg{Type: tea.KeyTab})
	send(app, runes("08123456789"))
	send(app, tea.KeyMsg{Type: tea.KeyTab})
	send(app, tea.KeyMsg{Type: tea.KeyTab})
	send(app, runes("Jl. Merdeka No. 1"))
	send(app, tea.KeyMsg{Type: tea.KeyTab})
	send(app, runes("10110"))
	send(app, tea.KeyMsg{Type: tea.KeyEnter})
}

// runCommands drains cmd, expanding batches and dropping spinner ticks so
// the loop ends once the payment result has been handled.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, spinner.TickMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			nextModel, nextCmd := app.Update(msg)
			app, ok = nextModel.(*App)
			if !ok {
				t.Fatalf("unexpected model type: %T", nextModel)
			}
			queue = append(queue, nextCmd)
		}
	}
	return app
}
