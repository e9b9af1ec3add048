package session

// Page identifies which storefront screen is active.
type Page int

const (
	PageHome Page = iota
	PageProductDetails
	PageWishlist
	PageCart
	PageCheckout
	PageLogin
)

// Pages lists every page in sidebar order.
var Pages = []Page{PageHome, PageProductDetails, PageWishlist, PageCart, PageCheckout, PageLogin}

// FriendlyName returns the label shown in navigation.
func (p Page) FriendlyName() string {
	switch p {
	case PageHome:
		return "Home"
	case PageProductDetails:
		return "Product Details"
	case PageWishlist:
		return "Wishlist"
	case PageCart:
		return "Cart"
	case PageCheckout:
		return "Checkout"
	case PageLogin:
		return "Login"
	default:
		return "Unknown"
	}
}

// Valid reports whether p is one of the known pages.
func (p Page) Valid() bool {
	return p >= PageHome && p <= PageLogin
}

// RequiresLogin reports whether the page is gated behind the login stub.
func (p Page) RequiresLogin() bool {
	return p != PageLogin
}
