// Package checkout turns a cart into a simulated PIX order. Orders live
// only in Redis for the duration of the payment window; confirmation is
// a local state transition, not settlement, and nothing is written to
// the database.
package checkout

import (
	"fmt"
	"time"

	"github.com/warningbypass/warningweb/internal/plugins/cart"
)

// Order statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusExpired   = "expired"
)

// Order is a pending or settled checkout. Items and TotalAmount are a
// snapshot of the cart at creation time.
type Order struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"order_number"`
	Status      string      `json:"status"`
	Items       []cart.Item `json:"items"`
	TotalAmount int64       `json:"total_amount"`
	QRCodeData  string      `json:"qr_code_data"`
	DiscordLink string      `json:"discord_link"`
	CreatedAt   time.Time   `json:"created_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// SecondsLeft returns the remaining payment window, clamped at zero.
func (o *Order) SecondsLeft(now time.Time) int {
	left := int(o.ExpiresAt.Sub(now).Seconds())
	if left < 0 {
		return 0
	}
	return left
}

// pixPayload is the synthetic PIX QR content. Amount is formatted BRL
// ("90.00"), matching what a real PIX charge would carry.
type pixPayload struct {
	MerchantName  string `json:"merchantName"`
	MerchantCity  string `json:"merchantCity"`
	PostalCode    string `json:"postalCode"`
	Amount        string `json:"amount"`
	TransactionID string `json:"transactionId"`
	Description   string `json:"description"`
}

// formatBRL renders integer cents as a decimal string.
func formatBRL(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
