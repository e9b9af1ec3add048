package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/kingrea/chili-mate/internal/checkout"
	"github.com/kingrea/chili-mate/internal/session"
)

type keyMap struct {
	Quit     key.Binding
	Home     key.Binding
	Details  key.Binding
	Wishlist key.Binding
	Cart     key.Binding
	Checkout key.Binding
	Logout   key.Binding

	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Select key.Binding
	Back   key.Binding
	Next   key.Binding
	Prev   key.Binding

	AddToCart  key.Binding
	ToggleWish key.Binding
	Move       key.Binding
	Remove     key.Binding
	Search     key.Binding
	Category   key.Binding
	Price      key.Binding
	Sort       key.Binding
	Reset      key.Binding

	Cancel key.Binding
	Retry  key.Binding
	Export key.Binding
	Copy   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Home:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "home")),
		Details:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "details")),
		Wishlist: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "wishlist")),
		Cart:     key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "cart")),
		Checkout: key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "checkout")),
		Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),

		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev option")),
		Right:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next option")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Next:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),

		AddToCart:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to cart")),
		ToggleWish: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wishlist")),
		Move:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move to cart")),
		Remove:     key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Category:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
		Price:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "price range")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Reset:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),

		Cancel: key.NewBinding(key.WithKeys("esc", "x"), key.WithHelp("x", "cancel payment")),
		Retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Export: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "save invoice")),
		Copy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy invoice")),
	}
}

// pageHelp implements help.KeyMap for whatever the shopper is looking at.
type pageHelp struct {
	short []key.Binding
}

func (h pageHelp) ShortHelp() []key.Binding   { return h.short }
func (h pageHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h.short} }

func (a *App) helpFor(page session.Page) pageHelp {
	k := a.keys
	nav := []key.Binding{k.Home, k.Wishlist, k.Cart, k.Checkout}
	switch page {
	case session.PageLogin:
		return pageHelp{short: []key.Binding{k.Next, k.Select}}
	case session.PageHome:
		if a.searching {
			return pageHelp{short: []key.Binding{k.Select, k.Back}}
		}
		return pageHelp{short: append([]key.Binding{k.Select, k.AddToCart, k.ToggleWish, k.Search, k.Category, k.Price, k.Sort, k.Reset}, nav...)}
	case session.PageProductDetails:
		return pageHelp{short: append([]key.Binding{k.AddToCart, k.ToggleWish, k.Back}, nav...)}
	case session.PageWishlist:
		return pageHelp{short: append([]key.Binding{k.Select, k.Move, k.Remove}, nav...)}
	case session.PageCart:
		return pageHelp{short: append([]key.Binding{k.Select, k.Remove}, nav...)}
	case session.PageCheckout:
		switch a.flow.State() {
		case checkout.StateCollectingInfo:
			return pageHelp{short: []key.Binding{k.Next, k.Prev, k.Select, k.Back}}
		case checkout.StateSelectingPayment:
			return pageHelp{short: []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Next, k.Select, k.Back}}
		case checkout.StateProcessing:
			return pageHelp{short: append([]key.Binding{k.Cancel}, nav...)}
		case checkout.StateConfirmed:
			return pageHelp{short: []key.Binding{k.Export, k.Copy, k.Select}}
		case checkout.StateFailed:
			return pageHelp{short: []key.Binding{k.Retry, k.Select}}
		}
		return pageHelp{short: append([]key.Binding{k.Select}, nav...)}
	}
	return pageHelp{short: nav}
}
