// Package catalog exposes the storefront product plans and per-user
// ownership. The plans themselves are seeded by migration and read-only
// at runtime; ownership rows are written by fulfilment tooling outside
// this service.
package catalog

import "time"

// Billing periods. Lifetime plans have no recurrence.
const (
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
	PeriodLifetime  = "lifetime"
)

// Product is a storefront plan. Prices are integer BRL cents, one per
// billing period; a zero price means the plan is not sold for that
// period.
type Product struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Image          string   `json:"image"`
	Features       []string `json:"features"`
	Popular        bool     `json:"popular"`
	Currency       string   `json:"currency"`
	PriceMonthly   int64    `json:"price_monthly"`
	PriceQuarterly int64    `json:"price_quarterly"`
	PriceLifetime  int64    `json:"price_lifetime"`
}

// Price returns the plan's price in cents for a billing period, or 0 for
// an unknown period.
func (p *Product) Price(period string) int64 {
	switch period {
	case PeriodMonthly:
		return p.PriceMonthly
	case PeriodQuarterly:
		return p.PriceQuarterly
	case PeriodLifetime:
		return p.PriceLifetime
	}
	return 0
}

// OwnedProduct is a plan the user has an active entitlement for.
type OwnedProduct struct {
	ProductID  string     `json:"product_id"`
	Title      string     `json:"title"`
	Period     string     `json:"period"`
	AcquiredAt time.Time  `json:"acquired_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}
