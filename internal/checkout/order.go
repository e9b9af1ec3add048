package checkout

import (
	"net/mail"
	"strings"
	"time"

	"github.com/kingrea/chili-mate/internal/catalog"
)

// ShippingMethod is the delivery preference recorded on the order.
type ShippingMethod string

const (
	ShippingRegular ShippingMethod = "regular"
	ShippingExpress ShippingMethod = "express"
)

// ShippingMethods lists the selectable delivery preferences.
var ShippingMethods = []ShippingMethod{ShippingRegular, ShippingExpress}

// Label returns the display text for the preference.
func (m ShippingMethod) Label() string {
	switch m {
	case ShippingExpress:
		return "Express (1-2 hari)"
	default:
		return "Reguler (3-5 hari)"
	}
}

// DeliveryInfo is the delivery form.
type DeliveryInfo struct {
	FullName   string
	Phone      string
	Email      string
	Address    string
	PostalCode string
	Shipping   ShippingMethod
}

// Normalized trims every field and defaults the shipping preference.
func (d DeliveryInfo) Normalized() DeliveryInfo {
	d.FullName = strings.TrimSpace(d.FullName)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Email = strings.TrimSpace(d.Email)
	d.Address = strings.TrimSpace(d.Address)
	d.PostalCode = strings.TrimSpace(d.PostalCode)
	if d.Shipping != ShippingExpress {
		d.Shipping = ShippingRegular
	}
	return d
}

// Validate checks the required fields. It returns a *ValidationError.
func (d DeliveryInfo) Validate() error {
	d = d.Normalized()
	verr := &ValidationError{}
	required := []struct {
		field string
		value string
	}{
		{"full_name", d.FullName},
		{"phone", d.Phone},
		{"email", d.Email},
		{"address", d.Address},
		{"postal_code", d.PostalCode},
	}
	for _, r := range required {
		if r.value == "" {
			verr.add(r.field, "is required")
		}
	}
	if d.Email != "" {
		if _, err := mail.ParseAddress(d.Email); err != nil {
			verr.add("email", "is not a valid address")
		}
	}
	return verr.orNil()
}

// PaymentMethod enumerates the simulated payment channels.
type PaymentMethod string

const (
	MethodVirtualAccount PaymentMethod = "virtual_account"
	MethodCreditCard     PaymentMethod = "credit_card"
	MethodEWallet        PaymentMethod = "e_wallet"
	MethodRetailOutlet   PaymentMethod = "retail_outlet"
)

// PaymentMethods lists the methods in display order.
var PaymentMethods = []PaymentMethod{MethodVirtualAccount, MethodCreditCard, MethodEWallet, MethodRetailOutlet}

// Label returns the name printed on screen and on the invoice.
func (m PaymentMethod) Label() string {
	switch m {
	case MethodVirtualAccount:
		return "Virtual Account"
	case MethodCreditCard:
		return "Kartu Kredit"
	case MethodEWallet:
		return "E-Wallet"
	case MethodRetailOutlet:
		return "Retail Outlet"
	default:
		return string(m)
	}
}

// Valid reports whether m is a known method.
func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// Options returns the sub-choices offered for the method, if any.
func (m PaymentMethod) Options() []string {
	switch m {
	case MethodVirtualAccount:
		return []string{"BCA", "Mandiri", "BNI", "BRI", "Bank Lainnya"}
	case MethodEWallet:
		return []string{"GoPay", "OVO", "Dana", "ShopeePay"}
	case MethodRetailOutlet:
		return []string{"Alfamart", "Indomaret", "Lawson", "Pos Indonesia"}
	default:
		return nil
	}
}

// PaymentDetails holds method-specific sub-fields. They are stored as entered.
type PaymentDetails struct {
	Bank       string
	CardNumber string
	CardExpiry string
	CardCVV    string
	Wallet     string
	Outlet     string
}

// Masked hides all but the last four card digits.
func (p PaymentDetails) Masked() PaymentDetails {
	digits := strings.ReplaceAll(p.CardNumber, " ", "")
	if len(digits) > 4 {
		p.CardNumber = strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
	}
	if p.CardCVV != "" {
		p.CardCVV = "***"
	}
	return p
}

// OrderStatus tracks an order through payment.
type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderSuccess OrderStatus = "success"
	OrderFailed  OrderStatus = "failed"
)

// Order is the priced snapshot taken when payment begins.
type Order struct {
	ID        string
	Subtotal  catalog.Money
	Shipping  catalog.Money
	Amount    catalog.Money
	Method    PaymentMethod
	Details   PaymentDetails
	Delivery  DeliveryInfo
	Items     []catalog.Product
	Status    OrderStatus
	Timestamp time.Time
}

func (o Order) clone() Order {
	if o.Items != nil {
		items := make([]catalog.Product, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}
