// Package invoice renders the plain-text receipt for a confirmed order and
// writes it to disk.
package invoice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/chili-mate/internal/checkout"
	"github.com/kingrea/chili-mate/internal/pricing"
)

const (
	banner    = "=============================="
	dateStamp = "02/01/2006 15:04:05"
)

// ErrNotConfirmed is returned for orders that have not been paid.
var ErrNotConfirmed = errors.New("invoice: order is not confirmed")

// Render produces the receipt text. The same order always yields the same bytes.
func Render(order checkout.Order) (string, error) {
	if order.Status != checkout.OrderSuccess || strings.TrimSpace(order.ID) == "" {
		return "", ErrNotConfirmed
	}
	lines := []string{
		banner,
		"INVOICE PEMBAYARAN",
		banner,
		"No. Invoice: " + order.ID,
		"Tanggal: " + order.Timestamp.Format(dateStamp),
		"",
		"Detail Pembayaran:",
		"- Subtotal: " + pricing.FormatRupiah(order.Subtotal),
		"- Biaya Pengiriman: " + pricing.FormatRupiah(order.Shipping),
		"- Total: " + pricing.FormatRupiah(order.Amount),
		"",
		"Metode Pembayaran: " + order.Method.Label(),
		"Status: Lunas",
		"",
		"Terima kasih telah berbelanja!",
		banner,
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// FileName returns the export name for an order.
func FileName(orderID string) string {
	return fmt.Sprintf("invoice_%s.txt", orderID)
}

// Export renders the order into dir and returns the written path.
func Export(dir string, order checkout.Order) (string, error) {
	content, err := Render(order)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("invoice: export directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("invoice: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(order.ID))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("invoice: write %s: %w", path, err)
	}
	return path, nil
}
