package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/chili-mate/internal/catalog"
	"github.com/kingrea/chili-mate/internal/pricing"
	"github.com/kingrea/chili-mate/internal/session"
)

type priceBand struct {
	label string
	min   catalog.Money
	max   catalog.Money
}

var priceBands = []priceBand{
	{label: "Semua harga"},
	{label: "< Rp 15,000", max: 14999},
	{label: "Rp 15,000 - 25,000", min: 15000, max: 25000},
	{label: "> Rp 25,000", min: 25001},
}

// productItem implements list.Item for catalog rows.
type productItem struct {
	product    catalog.Product
	inWishlist bool
}

func (i productItem) Title() string {
	title := i.product.Name
	if i.inWishlist {
		title += " ♥"
	}
	if i.product.Featured {
		title += " ★"
	}
	return title
}

func (i productItem) Description() string {
	parts := []string{priceLabel(i.product), i.product.Category}
	if i.product.HasRating() {
		parts = append(parts, catalog.Stars(i.product.RatingValue()))
	}
	if !i.product.InStock {
		parts = append(parts, "stok habis")
	}
	return strings.Join(parts, " · ")
}

func (i productItem) FilterValue() string { return i.product.Name }

func priceLabel(p catalog.Product) string {
	label := pricing.FormatRupiah(p.Price)
	if p.Discounted() {
		label = fmt.Sprintf("%s (was %s, -%d%%)", label, pricing.FormatRupiah(*p.OriginalPrice), discountPercent(p))
	}
	return label
}

func discountPercent(p catalog.Product) int {
	if !p.Discounted() || *p.OriginalPrice <= 0 {
		return 0
	}
	return int((*p.OriginalPrice - p.Price) * 100 / *p.OriginalPrice)
}

// refreshProducts re-runs the catalog query and keeps the cursor in range.
func (a *App) refreshProducts() {
	band := priceBands[a.priceIdx]
	a.filter.Category = a.categories[a.categoryIdx]
	a.filter.MinPrice = band.min
	a.filter.MaxPrice = band.max
	a.filter.Search = strings.TrimSpace(a.search.Value())
	results := a.catalog.Query(a.filter)
	items := make([]list.Item, len(results))
	for i, p := range results {
		items[i] = productItem{product: p, inWishlist: a.session.InWishlist(p.ID)}
	}
	selected := a.products.Index()
	a.products.SetItems(items)
	if selected >= len(items) {
		selected = len(items) - 1
	}
	if selected >= 0 {
		a.products.Select(selected)
	}
}

func (a *App) selectedListProduct() (catalog.Product, bool) {
	item, ok := a.products.SelectedItem().(productItem)
	if !ok {
		return catalog.Product{}, false
	}
	return item.product, true
}

func (a *App) updateHome(msg tea.KeyMsg) tea.Cmd {
	if a.searching {
		switch msg.String() {
		case "enter", "esc":
			a.searching = false
			a.search.Blur()
			if msg.String() == "esc" {
				a.search.SetValue("")
			}
			a.refreshProducts()
			a.logInfo("Search · %q", a.filter.Search)
			return nil
		}
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		a.refreshProducts()
		return cmd
	}
	switch {
	case key.Matches(msg, a.keys.Search):
		a.searching = true
		return a.search.Focus()
	case key.Matches(msg, a.keys.Category):
		a.categoryIdx = (a.categoryIdx + 1) % len(a.categories)
		a.refreshProducts()
		a.statusMsg = fmt.Sprintf("Kategori: %s", a.categories[a.categoryIdx])
		return nil
	case key.Matches(msg, a.keys.Price):
		a.priceIdx = (a.priceIdx + 1) % len(priceBands)
		a.refreshProducts()
		a.statusMsg = fmt.Sprintf("Harga: %s", priceBands[a.priceIdx].label)
		return nil
	case key.Matches(msg, a.keys.Sort):
		a.filter.Sort = a.filter.Sort.Next()
		a.refreshProducts()
		a.statusMsg = fmt.Sprintf("Urutkan: %s", a.filter.Sort)
		if err := a.config.SetDefaultSort(a.filter.Sort); err != nil {
			a.logWarn("Sort preference not saved: %v", err)
		}
		return nil
	case key.Matches(msg, a.keys.Reset):
		a.categoryIdx = 0
		a.priceIdx = 0
		a.search.SetValue("")
		a.refreshProducts()
		a.statusMsg = "Filter direset"
		return nil
	case key.Matches(msg, a.keys.Select):
		p, ok := a.selectedListProduct()
		if !ok {
			return nil
		}
		a.session.SelectProduct(p)
		a.logInfo("Viewed %s", p.Name)
		return a.navigate(session.PageProductDetails)
	case key.Matches(msg, a.keys.AddToCart):
		if p, ok := a.selectedListProduct(); ok {
			a.addToCart(p)
		}
		return nil
	case key.Matches(msg, a.keys.ToggleWish):
		if p, ok := a.selectedListProduct(); ok {
			a.toggleWishlist(p)
			a.refreshProducts()
		}
		return nil
	}
	var cmd tea.Cmd
	a.products, cmd = a.products.Update(msg)
	return cmd
}

func (a *App) addToCart(p catalog.Product) {
	a.session.AddToCart(p)
	a.statusMsg = fmt.Sprintf("%s ditambahkan ke keranjang", p.Name)
	a.logInfo("Cart · added %s (%s)", p.Name, pricing.FormatRupiah(p.Price))
}

func (a *App) toggleWishlist(p catalog.Product) {
	if a.session.InWishlist(p.ID) {
		a.session.RemoveFromWishlist(p)
		a.statusMsg = fmt.Sprintf("%s dihapus dari wishlist", p.Name)
		a.logInfo("Wishlist · removed %s", p.Name)
		return
	}
	a.session.AddToWishlist(p)
	a.statusMsg = fmt.Sprintf("%s ditambahkan ke wishlist", p.Name)
	a.logInfo("Wishlist · added %s", p.Name)
}

func (a *App) renderHome() string {
	filters := []string{
		fmt.Sprintf("Kategori: %s", a.categories[a.categoryIdx]),
		fmt.Sprintf("Harga: %s", priceBands[a.priceIdx].label),
		fmt.Sprintf("Urutkan: %s", a.filter.Sort),
	}
	lines := []string{mutedStyle.Render(strings.Join(filters, " · "))}
	if a.searching || a.search.Value() != "" {
		lines = append(lines, a.search.View())
	}
	if len(a.products.Items()) == 0 {
		lines = append(lines, "", warnStyle.Render("Tidak ada produk yang sesuai dengan filter."))
		return strings.Join(lines, "\n")
	}
	lines = append(lines, a.products.View())
	return strings.Join(lines, "\n")
}

func (a *App) updateDetails(msg tea.KeyMsg) tea.Cmd {
	p, err := a.session.SelectedProduct()
	if err != nil {
		if key.Matches(msg, a.keys.Back) {
			return a.navigate(session.PageHome)
		}
		return nil
	}
	switch {
	case key.Matches(msg, a.keys.AddToCart):
		a.addToCart(p)
	case key.Matches(msg, a.keys.ToggleWish):
		a.toggleWishlist(p)
	case key.Matches(msg, a.keys.Back):
		return a.navigate(session.PageHome)
	}
	return nil
}

func (a *App) renderDetails() string {
	p, err := a.session.SelectedProduct()
	if errors.Is(err, session.ErrNoProductSelected) {
		return lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render("Tidak ada produk yang dipilih."),
			mutedStyle.Render("Pilih produk dari Home untuk melihat detailnya."),
		)
	}
	lines := []string{
		titleStyle.Render(p.Name),
		lipgloss.NewStyle().Bold(true).Render(priceLabel(p)),
		mutedStyle.Render(p.Category),
	}
	if p.HasRating() {
		lines = append(lines, fmt.Sprintf("%s %.1f", catalog.Stars(p.RatingValue()), p.RatingValue()))
	}
	if p.InStock {
		lines = append(lines, goodStyle.Render("Tersedia"))
	} else {
		lines = append(lines, errorStyle.Render("Stok habis"))
	}
	if a.session.InWishlist(p.ID) {
		lines = append(lines, warnStyle.Render("♥ ada di wishlist"))
	}
	if desc := strings.TrimSpace(p.Description); desc != "" {
		lines = append(lines, "", desc)
	}
	if len(p.Features) > 0 {
		lines = append(lines, "", titleStyle.Render("Fitur"))
		for _, f := range p.Features {
			lines = append(lines, "• "+f)
		}
	}
	if len(p.Specs) > 0 {
		lines = append(lines, "", titleStyle.Render("Spesifikasi"))
		keys := make([]string, 0, len(p.Specs))
		for k := range p.Specs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %s", k, p.Specs[k]))
		}
	}
	if len(p.Reviews) > 0 {
		lines = append(lines, "", titleStyle.Render(fmt.Sprintf("Ulasan (%d)", len(p.Reviews))))
		for _, r := range p.Reviews {
			lines = append(lines, fmt.Sprintf("%s %s: %s", catalog.Stars(r.Rating), r.User, r.Comment))
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) updateWishlist(msg tea.KeyMsg) tea.Cmd {
	entries := a.session.Wishlist()
	a.wishlistSel = clampIndex(a.wishlistSel, len(entries))
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.wishlistSel > 0 {
			a.wishlistSel--
		}
	case key.Matches(msg, a.keys.Down):
		if a.wishlistSel < len(entries)-1 {
			a.wishlistSel++
		}
	case key.Matches(msg, a.keys.Move):
		if len(entries) == 0 {
			return nil
		}
		p := entries[a.wishlistSel].Product
		if a.session.MoveWishlistItemToCart(p) {
			a.statusMsg = fmt.Sprintf("%s dipindahkan ke keranjang", p.Name)
			a.logInfo("Wishlist · moved %s to cart", p.Name)
		}
	case key.Matches(msg, a.keys.Remove):
		if len(entries) == 0 {
			return nil
		}
		entry := entries[a.wishlistSel]
		if a.session.RemoveWishlistEntry(entry.ID) {
			a.statusMsg = fmt.Sprintf("%s dihapus dari wishlist", entry.Product.Name)
			a.logInfo("Wishlist · removed %s", entry.Product.Name)
		}
	case key.Matches(msg, a.keys.Select):
		if len(entries) == 0 {
			return nil
		}
		a.session.SelectProduct(entries[a.wishlistSel].Product)
		return a.navigate(session.PageProductDetails)
	}
	a.wishlistSel = clampIndex(a.wishlistSel, len(a.session.Wishlist()))
	return nil
}

func (a *App) renderWishlist() string {
	entries := a.session.Wishlist()
	if len(entries) == 0 {
		return mutedStyle.Render("Wishlist Anda kosong.")
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("Wishlist (%d)", len(entries)))}
	for i, e := range entries {
		lines = append(lines, renderEntryRow(e, i == a.wishlistSel))
	}
	return strings.Join(lines, "\n")
}

func (a *App) updateCart(msg tea.KeyMsg) tea.Cmd {
	entries := a.session.Cart()
	a.cartSel = clampIndex(a.cartSel, len(entries))
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.cartSel > 0 {
			a.cartSel--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cartSel < len(entries)-1 {
			a.cartSel++
		}
	case key.Matches(msg, a.keys.Remove):
		if len(entries) == 0 {
			return nil
		}
		entry := entries[a.cartSel]
		if a.session.RemoveCartEntry(entry.ID) {
			a.statusMsg = fmt.Sprintf("%s dihapus dari keranjang", entry.Product.Name)
			a.logInfo("Cart · removed %s", entry.Product.Name)
		}
	case key.Matches(msg, a.keys.Select):
		return a.openCheckout()
	}
	a.cartSel = clampIndex(a.cartSel, a.session.CartCount())
	return nil
}

func (a *App) renderCart() string {
	entries := a.session.Cart()
	if len(entries) == 0 {
		return mutedStyle.Render("Keranjang belanja Anda kosong.")
	}
	summary := a.flow.Summary()
	lines := []string{titleStyle.Render(fmt.Sprintf("Keranjang (%d)", len(entries)))}
	for i, e := range entries {
		lines = append(lines, renderEntryRow(e, i == a.cartSel))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Subtotal: %s", pricing.FormatRupiah(summary.Subtotal)),
		fmt.Sprintf("Biaya Pengiriman: %s", shippingLabel(summary.Shipping)),
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Total: %s", pricing.FormatRupiah(summary.Total))),
		"",
		mutedStyle.Render("Enter → checkout"),
	)
	return strings.Join(lines, "\n")
}

func renderEntryRow(e session.Entry, selected bool) string {
	row := fmt.Sprintf("%s · %s", e.Product.Name, pricing.FormatRupiah(e.Product.Price))
	if selected {
		return titleStyle.Render("› " + row)
	}
	return "  " + row
}

func clampIndex(idx, length int) int {
	if length <= 0 || idx < 0 {
		return 0
	}
	if idx >= length {
		return length - 1
	}
	return idx
}
