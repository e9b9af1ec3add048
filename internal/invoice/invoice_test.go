package invoice

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/chili-mate/internal/checkout"
)

func confirmedOrder() checkout.Order {
	return checkout.Order{
		ID:        "ORD-20240309-4821",
		Subtotal:  21000,
		Shipping:  15000,
		Amount:    36000,
		Method:    checkout.MethodVirtualAccount,
		Status:    checkout.OrderSuccess,
		Timestamp: time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
	}
}

const expectedInvoice = `==============================
INVOICE PEMBAYARAN
==============================
No. Invoice: ORD-20240309-4821
Tanggal: 09/03/2024 14:05:07

Detail Pembayaran:
- Subtotal: Rp 21,000
- Biaya Pengiriman: Rp 15,000
- Total: Rp 36,000

Metode Pembayaran: Virtual Account
Status: Lunas

Terima kasih telah berbelanja!
==============================
`

func TestRenderLayout(t *testing.T) {
	got, err := Render(confirmedOrder())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != expectedInvoice {
		t.Fatalf("unexpected invoice:\n%s", got)
	}
	again, _ := Render(confirmedOrder())
	if again != got {
		t.Fatalf("render is not reproducible")
	}
}

func TestRenderUsesRecordedShipping(t *testing.T) {
	order := confirmedOrder()
	order.Subtotal = 250000
	order.Shipping = 0
	order.Amount = 250000
	order.Method = checkout.MethodCreditCard
	got, err := Render(order)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"- Subtotal: Rp 250,000\n",
		"- Biaya Pengiriman: Rp 0\n",
		"- Total: Rp 250,000\n",
		"Metode Pembayaran: Kartu Kredit\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in\n%s", want, got)
		}
	}
}

func TestRenderRejectsUnconfirmedOrders(t *testing.T) {
	order := confirmedOrder()
	order.Status = checkout.OrderPending
	if _, err := Render(order); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	order = confirmedOrder()
	order.ID = ""
	if _, err := Render(order); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed for missing id, got %v", err)
	}
}

func TestExportWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "invoices")
	path, err := Export(dir, confirmedOrder())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "invoice_ORD-20240309-4821.txt" {
		t.Fatalf("unexpected file name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != expectedInvoice {
		t.Fatalf("exported content differs:\n%s", data)
	}
	if _, err := Export("", confirmedOrder()); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
