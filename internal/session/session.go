// Package session is the single source of truth for one shopper's browsing
// state: cart, wishlist, selected product, current page and identity.
//
// A Session is owned by exactly one presentation instance and is not safe for
// concurrent mutation; Manager hands out isolated sessions per key.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kingrea/chili-mate/internal/catalog"
)

var (
	// ErrNoProductSelected is returned when the detail view has nothing to show.
	ErrNoProductSelected = errors.New("session: no product selected")
	// ErrIncompleteProfile is returned when the login stub gets a blank field.
	ErrIncompleteProfile = errors.New("session: name and email are required")
	// ErrUnknownPage is returned when navigating to a page outside the enum.
	ErrUnknownPage = errors.New("session: unknown page")
)

// Entry is one occurrence of a product in the cart or wishlist. Adding the
// same product twice yields two entries with distinct IDs.
type Entry struct {
	ID      string
	Product catalog.Product
}

// User is the stub identity captured at login.
type User struct {
	Name  string
	Email string
}

// Session holds the mutable state of one browsing session.
type Session struct {
	id            string
	cart          []Entry
	wishlist      []Entry
	selected      *catalog.Product
	page          Page
	user          User
	authenticated bool
}

// New creates a session with empty defaults on the home page.
func New() *Session {
	return &Session{
		id:   uuid.NewString(),
		page: PageHome,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// AddToCart appends p to the cart. Duplicates are kept as separate entries.
func (s *Session) AddToCart(p catalog.Product) Entry {
	entry := newEntry(p)
	s.cart = append(s.cart, entry)
	return entry
}

// RemoveFromCart removes the first cart entry for p. Absent products are a no-op.
func (s *Session) RemoveFromCart(p catalog.Product) bool {
	var removed bool
	s.cart, removed = removeFirst(s.cart, p.ID)
	return removed
}

// RemoveCartEntry removes a specific cart entry by its entry ID.
func (s *Session) RemoveCartEntry(entryID string) bool {
	var removed bool
	s.cart, removed = removeEntry(s.cart, entryID)
	return removed
}

// AddToWishlist appends p to the wishlist.
func (s *Session) AddToWishlist(p catalog.Product) Entry {
	entry := newEntry(p)
	s.wishlist = append(s.wishlist, entry)
	return entry
}

// RemoveFromWishlist removes the first wishlist entry for p.
func (s *Session) RemoveFromWishlist(p catalog.Product) bool {
	var removed bool
	s.wishlist, removed = removeFirst(s.wishlist, p.ID)
	return removed
}

// RemoveWishlistEntry removes a specific wishlist entry by its entry ID.
func (s *Session) RemoveWishlistEntry(entryID string) bool {
	var removed bool
	s.wishlist, removed = removeEntry(s.wishlist, entryID)
	return removed
}

// MoveWishlistItemToCart moves one occurrence of p from the wishlist to the
// cart. It returns false and changes nothing when p is not wishlisted.
func (s *Session) MoveWishlistItemToCart(p catalog.Product) bool {
	remaining, removed := removeFirst(s.wishlist, p.ID)
	if !removed {
		return false
	}
	s.wishlist = remaining
	s.cart = append(s.cart, newEntry(p))
	return true
}

// ClearCart empties the cart.
func (s *Session) ClearCart() {
	s.cart = nil
}

// Cart returns a copy of the cart entries in insertion order.
func (s *Session) Cart() []Entry {
	return cloneEntries(s.cart)
}

// CartProducts returns the products in the cart, one per entry.
func (s *Session) CartProducts() []catalog.Product {
	return products(s.cart)
}

// CartCount returns the number of cart entries.
func (s *Session) CartCount() int {
	return len(s.cart)
}

// Wishlist returns a copy of the wishlist entries in insertion order.
func (s *Session) Wishlist() []Entry {
	return cloneEntries(s.wishlist)
}

// WishlistProducts returns the wishlisted products, one per entry.
func (s *Session) WishlistProducts() []catalog.Product {
	return products(s.wishlist)
}

// InWishlist reports whether the product is wishlisted at least once.
func (s *Session) InWishlist(productID string) bool {
	return indexOf(s.wishlist, productID) >= 0
}

// SelectProduct sets the product shown by the detail view.
func (s *Session) SelectProduct(p catalog.Product) {
	selected := p
	s.selected = &selected
}

// ClearSelection drops the selected product.
func (s *Session) ClearSelection() {
	s.selected = nil
}

// SelectedProduct returns the product for the detail view.
func (s *Session) SelectedProduct() (catalog.Product, error) {
	if s.selected == nil {
		return catalog.Product{}, ErrNoProductSelected
	}
	return *s.selected, nil
}

// NavigateTo switches the current page.
func (s *Session) NavigateTo(page Page) error {
	if !page.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownPage, int(page))
	}
	s.page = page
	return nil
}

// CurrentPage returns the active page.
func (s *Session) CurrentPage() Page {
	return s.page
}

// Login records the stub identity. No credentials are checked.
func (s *Session) Login(name, email string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return ErrIncompleteProfile
	}
	s.user = User{Name: name, Email: email}
	s.authenticated = true
	return nil
}

// Logout clears the identity. Cart and wishlist are kept.
func (s *Session) Logout() {
	s.user = User{}
	s.authenticated = false
}

// User returns the logged in identity.
func (s *Session) User() User {
	return s.user
}

// Authenticated reports whether Login succeeded.
func (s *Session) Authenticated() bool {
	return s.authenticated
}

func newEntry(p catalog.Product) Entry {
	return Entry{ID: uuid.NewString(), Product: p}
}

func indexOf(entries []Entry, productID string) int {
	for i, e := range entries {
		if e.Product.ID == productID {
			return i
		}
	}
	return -1
}

func removeFirst(entries []Entry, productID string) ([]Entry, bool) {
	idx := indexOf(entries, productID)
	if idx < 0 {
		return entries, false
	}
	return removeAt(entries, idx), true
}

func removeEntry(entries []Entry, entryID string) ([]Entry, bool) {
	for i, e := range entries {
		if e.ID == entryID {
			return removeAt(entries, i), true
		}
	}
	return entries, false
}

func removeAt(entries []Entry, idx int) []Entry {
	out := make([]Entry, 0, len(entries)-1)
	out = append(out, entries[:idx]...)
	return append(out, entries[idx+1:]...)
}

func cloneEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

func products(entries []Entry) []catalog.Product {
	if len(entries) == 0 {
		return nil
	}
	out := make([]catalog.Product, len(entries))
	for i, e := range entries {
		out[i] = e.Product
	}
	return out
}
