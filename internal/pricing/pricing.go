// Package pricing derives subtotal, shipping and total from a cart snapshot.
// Every function is pure; the shipping rule is parameterised by Rules.
package pricing

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kingrea/chili-mate/internal/catalog"
)

const (
	DefaultFreeShippingThreshold catalog.Money = 200000
	DefaultFlatShippingFee       catalog.Money = 15000
)

// Rules holds the shipping configuration.
type Rules struct {
	FreeShippingThreshold catalog.Money
	FlatShippingFee       catalog.Money
}

// DefaultRules returns the store's standard shipping rule.
func DefaultRules() Rules {
	return Rules{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShippingFee:       DefaultFlatShippingFee,
	}
}

// Validate rejects negative thresholds or fees.
func (r Rules) Validate() error {
	if r.FreeShippingThreshold < 0 {
		return fmt.Errorf("pricing: free shipping threshold must be >= 0")
	}
	if r.FlatShippingFee < 0 {
		return fmt.Errorf("pricing: flat shipping fee must be >= 0")
	}
	return nil
}

// Summary is the priced view of a cart.
type Summary struct {
	ItemCount    int
	Subtotal     catalog.Money
	Shipping     catalog.Money
	Total        catalog.Money
	FreeShipping bool
}

// Subtotal sums the item prices. An empty cart yields zero.
func Subtotal(items []catalog.Product) catalog.Money {
	var sum catalog.Money
	for _, p := range items {
		sum += p.Price
	}
	return sum
}

// Shipping returns zero at or above the free-shipping threshold and the flat
// fee otherwise.
func (r Rules) Shipping(subtotal catalog.Money) catalog.Money {
	if subtotal >= r.FreeShippingThreshold {
		return 0
	}
	return r.FlatShippingFee
}

// Total adds shipping to the subtotal.
func Total(subtotal, shipping catalog.Money) catalog.Money {
	return subtotal + shipping
}

// Quote prices a cart snapshot.
func (r Rules) Quote(items []catalog.Product) Summary {
	subtotal := Subtotal(items)
	shipping := r.Shipping(subtotal)
	return Summary{
		ItemCount:    len(items),
		Subtotal:     subtotal,
		Shipping:     shipping,
		Total:        Total(subtotal, shipping),
		FreeShipping: shipping == 0,
	}
}

// Remaining returns how much more must be spent to reach free shipping.
func (r Rules) Remaining(subtotal catalog.Money) catalog.Money {
	if subtotal >= r.FreeShippingThreshold {
		return 0
	}
	return r.FreeShippingThreshold - subtotal
}

var printer = message.NewPrinter(language.English)

// FormatRupiah renders an amount as "Rp 21,000".
func FormatRupiah(amount catalog.Money) string {
	return printer.Sprintf("Rp %d", int64(amount))
}
