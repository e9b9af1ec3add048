package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/chili-mate/internal/checkout"
	"github.com/kingrea/chili-mate/internal/invoice"
	"github.com/kingrea/chili-mate/internal/pricing"
	"github.com/kingrea/chili-mate/internal/session"
)

// paymentResultMsg carries a finished payment attempt back into Update.
type paymentResultMsg struct {
	result checkout.Result
}

type formField struct {
	key         string
	label       string
	placeholder string
	limit       int
}

var deliveryFields = []formField{
	{key: "full_name", label: "Nama Lengkap", placeholder: "Budi Santoso", limit: 60},
	{key: "phone", label: "No. Telepon", placeholder: "08123456789", limit: 20},
	{key: "email", label: "Email", placeholder: "nama@email.com", limit: 80},
	{key: "address", label: "Alamat", placeholder: "Jl. Merdeka No. 1, Jakarta", limit: 120},
	{key: "postal_code", label: "Kode Pos", placeholder: "10110", limit: 10},
}

var cardFields = []formField{
	{key: "card_number", label: "Nomor Kartu", placeholder: "4111 1111 1111 1111", limit: 19},
	{key: "card_expiry", label: "Berlaku s/d", placeholder: "MM/YY", limit: 5},
	{key: "card_cvv", label: "CVV", placeholder: "123", limit: 4},
}

// shippingSlot is the focus index of the shipping toggle after the text fields.
var shippingSlot = len(deliveryFields)

type checkoutView struct {
	app *App

	delivery  []textinput.Model
	focus     int
	shipping  int
	fieldErrs map[string]string

	methodIdx int
	optionIdx int
	card      []textinput.Model
	cardFocus int

	spinner     spinner.Model
	attemptID   string
	invoicePath string
	notice      string
}

func newFormInputs(fields []formField) []textinput.Model {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Placeholder = f.placeholder
		in.CharLimit = f.limit
		in.Prompt = fmt.Sprintf("%-13s› ", f.label)
		inputs[i] = in
	}
	return inputs
}

func newCheckoutView(app *App) *checkoutView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentColor)
	return &checkoutView{
		app:       app,
		delivery:  newFormInputs(deliveryFields),
		card:      newFormInputs(cardFields),
		cardFocus: -1,
		spinner:   s,
	}
}

func (c *checkoutView) method() checkout.PaymentMethod {
	return checkout.PaymentMethods[c.methodIdx]
}

// typing reports whether a text field currently owns the keyboard.
func (c *checkoutView) typing() bool {
	switch c.app.flow.State() {
	case checkout.StateCollectingInfo:
		return true
	case checkout.StateSelectingPayment:
		return c.method() == checkout.MethodCreditCard && c.cardFocus >= 0
	}
	return false
}

// sync prepares the view for the flow's current state.
func (c *checkoutView) sync() tea.Cmd {
	switch c.app.flow.State() {
	case checkout.StateCollectingInfo:
		c.prefill()
		return c.focusDelivery(c.focus)
	case checkout.StateSelectingPayment:
		if c.method() == checkout.MethodCreditCard && c.cardFocus >= 0 {
			return c.focusCard(c.cardFocus)
		}
		c.blurAll()
	default:
		c.blurAll()
	}
	return nil
}

func (c *checkoutView) prefill() {
	user := c.app.session.User()
	if c.delivery[0].Value() == "" {
		c.delivery[0].SetValue(user.Name)
	}
	if c.delivery[2].Value() == "" {
		c.delivery[2].SetValue(user.Email)
	}
}

func (c *checkoutView) blurAll() {
	for i := range c.delivery {
		c.delivery[i].Blur()
	}
	for i := range c.card {
		c.card[i].Blur()
	}
}

func (c *checkoutView) focusDelivery(idx int) tea.Cmd {
	slots := len(c.delivery) + 1
	c.focus = (idx + slots) % slots
	c.blurAll()
	if c.focus == shippingSlot {
		return nil
	}
	return c.delivery[c.focus].Focus()
}

func (c *checkoutView) focusCard(idx int) tea.Cmd {
	c.blurAll()
	if idx < 0 || idx >= len(c.card) {
		c.cardFocus = -1
		return nil
	}
	c.cardFocus = idx
	return c.card[idx].Focus()
}

func (c *checkoutView) deliveryInfo() checkout.DeliveryInfo {
	return checkout.DeliveryInfo{
		FullName:   c.delivery[0].Value(),
		Phone:      c.delivery[1].Value(),
		Email:      c.delivery[2].Value(),
		Address:    c.delivery[3].Value(),
		PostalCode: c.delivery[4].Value(),
		Shipping:   checkout.ShippingMethods[c.shipping],
	}
}

func (c *checkoutView) paymentDetails() checkout.PaymentDetails {
	method := c.method()
	var option string
	if opts := method.Options(); len(opts) > 0 {
		option = opts[c.optionIdx%len(opts)]
	}
	switch method {
	case checkout.MethodVirtualAccount:
		return checkout.PaymentDetails{Bank: option}
	case checkout.MethodEWallet:
		return checkout.PaymentDetails{Wallet: option}
	case checkout.MethodRetailOutlet:
		return checkout.PaymentDetails{Outlet: option}
	case checkout.MethodCreditCard:
		return checkout.PaymentDetails{
			CardNumber: strings.TrimSpace(c.card[0].Value()),
			CardExpiry: strings.TrimSpace(c.card[1].Value()),
			CardCVV:    strings.TrimSpace(c.card[2].Value()),
		}
	}
	return checkout.PaymentDetails{}
}

// Update handles key presses on the checkout page.
func (c *checkoutView) Update(msg tea.KeyMsg) tea.Cmd {
	a := c.app
	switch a.flow.State() {
	case checkout.StateEmpty:
		if key.Matches(msg, a.keys.Select) || key.Matches(msg, a.keys.Back) {
			return a.navigate(session.PageHome)
		}
	case checkout.StateCollectingInfo:
		return c.updateDelivery(msg)
	case checkout.StateSelectingPayment:
		return c.updatePayment(msg)
	case checkout.StateProcessing:
		if key.Matches(msg, a.keys.Cancel) {
			c.cancelRunning()
		}
	case checkout.StateConfirmed:
		return c.updateConfirmed(msg)
	case checkout.StateFailed:
		switch {
		case key.Matches(msg, a.keys.Retry):
			err := a.flow.RetryPayment()
			if errors.Is(err, checkout.ErrEmptyCartCheckout) {
				a.statusMsg = "Keranjang belanja Anda kosong"
				a.logWarn("Retry rejected · cart is empty")
				return nil
			}
			if err != nil {
				a.statusMsg = err.Error()
				return nil
			}
			a.statusMsg = "Silakan pilih metode pembayaran lagi"
			a.logInfo("Payment retry")
			return c.sync()
		case key.Matches(msg, a.keys.Select):
			return c.returnHome()
		}
	}
	return nil
}

func (c *checkoutView) updateDelivery(msg tea.KeyMsg) tea.Cmd {
	a := c.app
	switch {
	case key.Matches(msg, a.keys.Next), msg.Type == tea.KeyDown:
		return c.focusDelivery(c.focus + 1)
	case key.Matches(msg, a.keys.Prev), msg.Type == tea.KeyUp:
		return c.focusDelivery(c.focus - 1)
	case key.Matches(msg, a.keys.Back):
		if err := a.flow.Back(); err == nil {
			c.blurAll()
			return a.navigate(session.PageCart)
		}
		return nil
	case key.Matches(msg, a.keys.Select):
		return c.submitDelivery()
	}
	if c.focus == shippingSlot {
		switch msg.String() {
		case "left", "right", " ":
			c.shipping = (c.shipping + 1) % len(checkout.ShippingMethods)
		}
		return nil
	}
	var cmd tea.Cmd
	c.delivery[c.focus], cmd = c.delivery[c.focus].Update(msg)
	return cmd
}

func (c *checkoutView) submitDelivery() tea.Cmd {
	a := c.app
	err := a.flow.SubmitDelivery(c.deliveryInfo())
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		c.fieldErrs = verr.Fields
		a.statusMsg = "Lengkapi data pengiriman"
		a.logWarn("Delivery form rejected · %s", strings.Join(verr.FieldNames(), ", "))
		for i, f := range deliveryFields {
			if verr.Has(f.key) {
				return c.focusDelivery(i)
			}
		}
		return nil
	}
	if err != nil {
		a.statusMsg = err.Error()
		a.logError("Delivery submit failed: %v", err)
		return nil
	}
	c.fieldErrs = nil
	a.statusMsg = ""
	a.logInfo("Checkout · delivery to %s (%s)", a.flow.Delivery().FullName, a.flow.Delivery().Shipping.Label())
	return c.sync()
}

func (c *checkoutView) updatePayment(msg tea.KeyMsg) tea.Cmd {
	a := c.app
	if c.cardFocus >= 0 {
		switch {
		case key.Matches(msg, a.keys.Next):
			return c.focusCard(c.cardFocus + 1)
		case key.Matches(msg, a.keys.Prev):
			return c.focusCard(c.cardFocus - 1)
		case key.Matches(msg, a.keys.Back):
			return c.focusCard(-1)
		case key.Matches(msg, a.keys.Select):
			return c.beginPayment()
		}
		var cmd tea.Cmd
		c.card[c.cardFocus], cmd = c.card[c.cardFocus].Update(msg)
		return cmd
	}
	switch {
	case key.Matches(msg, a.keys.Up):
		c.methodIdx = (c.methodIdx - 1 + len(checkout.PaymentMethods)) % len(checkout.PaymentMethods)
		c.optionIdx = 0
	case key.Matches(msg, a.keys.Down):
		c.methodIdx = (c.methodIdx + 1) % len(checkout.PaymentMethods)
		c.optionIdx = 0
	case key.Matches(msg, a.keys.Left):
		if n := len(c.method().Options()); n > 0 {
			c.optionIdx = (c.optionIdx - 1 + n) % n
		}
	case key.Matches(msg, a.keys.Right):
		if n := len(c.method().Options()); n > 0 {
			c.optionIdx = (c.optionIdx + 1) % n
		}
	case key.Matches(msg, a.keys.Next):
		if c.method() == checkout.MethodCreditCard {
			return c.focusCard(0)
		}
	case key.Matches(msg, a.keys.Back):
		if err := a.flow.Back(); err == nil {
			return c.sync()
		}
	case key.Matches(msg, a.keys.Select):
		return c.beginPayment()
	}
	return nil
}

func (c *checkoutView) beginPayment() tea.Cmd {
	a := c.app
	if err := a.flow.SelectPayment(c.method(), c.paymentDetails()); err != nil {
		a.statusMsg = err.Error()
		a.logError("Payment selection failed: %v", err)
		return nil
	}
	attempt, err := a.flow.BeginPayment(context.Background())
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCartCheckout) {
			a.statusMsg = "Keranjang belanja Anda kosong"
		} else {
			a.statusMsg = err.Error()
		}
		a.logError("Payment could not start: %v", err)
		return nil
	}
	c.blurAll()
	c.cardFocus = -1
	c.attemptID = attempt.ID()
	c.invoicePath = ""
	c.notice = ""
	order := attempt.Order()
	a.statusMsg = "Memproses pembayaran..."
	a.logInfo("Payment started · %s · %s", order.Method.Label(), pricing.FormatRupiah(order.Amount))
	processor := a.processor
	return tea.Batch(c.spinner.Tick, func() tea.Msg {
		return paymentResultMsg{result: attempt.Run(processor)}
	})
}

// cancelRunning abandons a payment that is still processing.
func (c *checkoutView) cancelRunning() {
	a := c.app
	if a.flow.State() != checkout.StateProcessing {
		return
	}
	if err := a.flow.CancelPayment(); err != nil {
		return
	}
	c.attemptID = ""
	a.statusMsg = "Pembayaran dibatalkan"
	a.logWarn("Payment cancelled by shopper")
}

func (c *checkoutView) handlePaymentResult(msg paymentResultMsg) tea.Cmd {
	a := c.app
	logger := a.logbook.Logger()
	if err := a.flow.Complete(msg.result); err != nil {
		if errors.Is(err, checkout.ErrStaleAttempt) {
			logger.Debug("stale payment result ignored", zap.String("attempt", msg.result.AttemptID))
			return nil
		}
		a.statusMsg = err.Error()
		a.logError("Payment result rejected: %v", err)
		return nil
	}
	c.attemptID = ""
	switch a.flow.State() {
	case checkout.StateConfirmed:
		order, _ := a.flow.Order()
		logger.Info("Payment confirmed",
			zap.String("order_id", order.ID),
			zap.Int64("amount", int64(order.Amount)),
			zap.String("method", string(order.Method)),
		)
		a.statusMsg = "Pembayaran berhasil · " + order.ID
	case checkout.StateFailed:
		failure := a.flow.Failure()
		fields := []zap.Field{zap.String("attempt", msg.result.AttemptID)}
		if failure != nil {
			fields = append(fields, zap.Int64("amount", int64(failure.Amount)), zap.Error(failure.Reason))
		}
		logger.Warn("Payment failed", fields...)
		a.statusMsg = "Pembayaran gagal"
	}
	return nil
}

func (c *checkoutView) updateSpinner(msg spinner.TickMsg) tea.Cmd {
	if c.app.flow.State() != checkout.StateProcessing {
		return nil
	}
	var cmd tea.Cmd
	c.spinner, cmd = c.spinner.Update(msg)
	return cmd
}

func (c *checkoutView) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch c.app.flow.State() {
	case checkout.StateCollectingInfo:
		if c.focus < len(c.delivery) {
			c.delivery[c.focus], cmd = c.delivery[c.focus].Update(msg)
		}
	case checkout.StateSelectingPayment:
		if c.cardFocus >= 0 {
			c.card[c.cardFocus], cmd = c.card[c.cardFocus].Update(msg)
		}
	}
	return cmd
}

func (c *checkoutView) updateConfirmed(msg tea.KeyMsg) tea.Cmd {
	a := c.app
	order, ok := a.flow.Order()
	if !ok {
		return nil
	}
	switch {
	case key.Matches(msg, a.keys.Export):
		path, err := invoice.Export(a.config.InvoiceDir(), order)
		if err != nil {
			a.statusMsg = "Gagal menyimpan invoice"
			a.logError("Invoice export failed: %v", err)
			return nil
		}
		c.invoicePath = path
		a.statusMsg = "Invoice disimpan: " + path
		a.logInfo("Invoice saved · %s", path)
	case key.Matches(msg, a.keys.Copy):
		text, err := invoice.Render(order)
		if err == nil {
			err = a.copyToClipboard(text)
		}
		if err != nil {
			a.statusMsg = "Gagal menyalin invoice"
			a.logError("Invoice copy failed: %v", err)
			return nil
		}
		c.notice = "Invoice disalin ke clipboard"
		a.statusMsg = c.notice
		a.logInfo("Invoice copied · %s", order.ID)
	case key.Matches(msg, a.keys.Select):
		return c.returnHome()
	}
	return nil
}

func (c *checkoutView) returnHome() tea.Cmd {
	a := c.app
	confirmed := a.flow.State() == checkout.StateConfirmed
	if err := a.flow.ReturnHome(); err != nil {
		a.statusMsg = err.Error()
		return nil
	}
	c.reset()
	if confirmed {
		a.statusMsg = "Terima kasih telah berbelanja!"
		a.logInfo("Checkout closed")
	} else {
		a.statusMsg = "Keranjang Anda tetap tersimpan"
		a.logInfo("Checkout closed after failed payment · cart kept")
	}
	return a.navigate(session.PageHome)
}

func (c *checkoutView) reset() {
	for i := range c.delivery {
		c.delivery[i].SetValue("")
	}
	for i := range c.card {
		c.card[i].SetValue("")
	}
	c.blurAll()
	c.focus = 0
	c.shipping = 0
	c.fieldErrs = nil
	c.methodIdx = 0
	c.optionIdx = 0
	c.cardFocus = -1
	c.attemptID = ""
	c.invoicePath = ""
	c.notice = ""
}

// View renders the checkout page for the current state.
func (c *checkoutView) View() string {
	switch c.app.flow.State() {
	case checkout.StateCollectingInfo:
		return c.viewDelivery()
	case checkout.StateSelectingPayment:
		return c.viewPayment()
	case checkout.StateProcessing:
		return c.viewProcessing()
	case checkout.StateConfirmed:
		return c.viewConfirmed()
	case checkout.StateFailed:
		return c.viewFailed()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		warnStyle.Render("Keranjang belanja Anda kosong."),
		mutedStyle.Render("Tambahkan produk dari Home sebelum checkout."),
	)
}

func (c *checkoutView) viewDelivery() string {
	lines := []string{titleStyle.Render("Informasi Pengiriman"), ""}
	for i, f := range deliveryFields {
		lines = append(lines, c.delivery[i].View())
		if msg, ok := c.fieldErrs[f.key]; ok {
			lines = append(lines, errorStyle.Render(fmt.Sprintf("  %s %s", f.label, msg)))
		}
	}
	toggle := fmt.Sprintf("%-13s‹ %s ›", "Pengiriman", checkout.ShippingMethods[c.shipping].Label())
	if c.focus == shippingSlot {
		toggle = titleStyle.Render(toggle)
	}
	lines = append(lines, toggle, "", c.orderLines())
	return strings.Join(lines, "\n")
}

func (c *checkoutView) viewPayment() string {
	lines := []string{titleStyle.Render("Metode Pembayaran"), ""}
	for i, m := range checkout.PaymentMethods {
		row := "  " + m.Label()
		if i == c.methodIdx {
			row = titleStyle.Render("› " + m.Label())
			if opts := m.Options(); len(opts) > 0 {
				row += fmt.Sprintf("  ‹ %s ›", opts[c.optionIdx%len(opts)])
			}
		}
		lines = append(lines, row)
	}
	if c.method() == checkout.MethodCreditCard {
		lines = append(lines, "")
		for _, in := range c.card {
			lines = append(lines, in.View())
		}
		if c.cardFocus < 0 {
			lines = append(lines, mutedStyle.Render("tab: isi data kartu"))
		}
	}
	delivery := c.app.flow.Delivery()
	lines = append(lines,
		"",
		mutedStyle.Render(fmt.Sprintf("Kirim ke %s · %s", delivery.FullName, delivery.Shipping.Label())),
		c.orderLines(),
	)
	return strings.Join(lines, "\n")
}

func (c *checkoutView) viewProcessing() string {
	order, _ := c.app.flow.Order()
	return strings.Join([]string{
		fmt.Sprintf("%s Memproses pembayaran...", c.spinner.View()),
		"",
		fmt.Sprintf("Total: %s", pricing.FormatRupiah(order.Amount)),
		fmt.Sprintf("Metode: %s", paymentLine(order.Method, order.Details.Masked())),
		"",
		mutedStyle.Render("x: batalkan pembayaran"),
	}, "\n")
}

func (c *checkoutView) viewConfirmed() string {
	order, ok := c.app.flow.Order()
	if !ok {
		return ""
	}
	lines := []string{
		goodStyle.Render("✓ Pembayaran Berhasil!"),
		"",
		fmt.Sprintf("No. Order: %s", order.ID),
		fmt.Sprintf("Tanggal: %s", order.Timestamp.Format("02/01/2006 15:04:05")),
		fmt.Sprintf("Metode: %s", paymentLine(order.Method, order.Details.Masked())),
		fmt.Sprintf("Subtotal: %s", pricing.FormatRupiah(order.Subtotal)),
		fmt.Sprintf("Biaya Pengiriman: %s", shippingLabel(order.Shipping)),
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Total: %s", pricing.FormatRupiah(order.Amount))),
	}
	if c.invoicePath != "" {
		lines = append(lines, "", goodStyle.Render("Invoice: "+c.invoicePath))
	}
	if c.notice != "" {
		lines = append(lines, goodStyle.Render(c.notice))
	}
	lines = append(lines, "", mutedStyle.Render("e: simpan invoice · y: salin invoice · enter: kembali ke Home"))
	return strings.Join(lines, "\n")
}

func (c *checkoutView) viewFailed() string {
	lines := []string{errorStyle.Render("✗ Pembayaran Gagal")}
	if failure := c.app.flow.Failure(); failure != nil {
		lines = append(lines,
			"",
			fmt.Sprintf("Total: %s", pricing.FormatRupiah(failure.Amount)),
			fmt.Sprintf("Metode: %s", failure.Method.Label()),
			mutedStyle.Render(failure.Error()),
		)
	}
	lines = append(lines, "", mutedStyle.Render("r: coba lagi · enter: kembali ke Home"))
	return strings.Join(lines, "\n")
}

func (c *checkoutView) orderLines() string {
	a := c.app
	summary := a.flow.Summary()
	lines := []string{mutedStyle.Render(fmt.Sprintf("Pesanan (%d item)", summary.ItemCount))}
	for _, p := range a.session.CartProducts() {
		lines = append(lines, fmt.Sprintf("  %s · %s", p.Name, pricing.FormatRupiah(p.Price)))
	}
	lines = append(lines,
		fmt.Sprintf("Subtotal: %s", pricing.FormatRupiah(summary.Subtotal)),
		fmt.Sprintf("Biaya Pengiriman: %s", shippingLabel(summary.Shipping)),
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Total: %s", pricing.FormatRupiah(summary.Total))),
	)
	return strings.Join(lines, "\n")
}

func paymentLine(method checkout.PaymentMethod, details checkout.PaymentDetails) string {
	var extra string
	switch method {
	case checkout.MethodVirtualAccount:
		extra = details.Bank
	case checkout.MethodEWallet:
		extra = details.Wallet
	case checkout.MethodRetailOutlet:
		extra = details.Outlet
	case checkout.MethodCreditCard:
		extra = details.CardNumber
	}
	if extra == "" {
		return method.Label()
	}
	return fmt.Sprintf("%s (%s)", method.Label(), extra)
}
