package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/warningbypass/warningweb/internal/apperror"
	"github.com/warningbypass/warningweb/internal/config"
	"github.com/warningbypass/warningweb/internal/metrics"
	"github.com/warningbypass/warningweb/internal/plugins/auth"
	"github.com/warningbypass/warningweb/internal/plugins/cart"
)

// orderGrace keeps confirmed and expired orders readable for a short
// while after the payment window closes, so the client can render the
// final state.
const orderGrace = 5 * time.Minute

// CheckoutService creates and settles simulated PIX orders.
type CheckoutService interface {
	// Create snapshots the cart into a pending order. Empty carts are a
	// validation error.
	Create(ctx context.Context, cartID, userID string) (*Order, error)

	// Get returns the order, transitioning it to expired when the
	// payment window has elapsed.
	Get(ctx context.Context, orderID string) (*Order, error)

	// Confirm settles a pending order and clears the originating cart.
	Confirm(ctx context.Context, orderID, cartID, userID string) (*Order, error)
}

type checkoutService struct {
	store    *Store
	carts    cart.CartService
	cfg      config.CheckoutConfig
	metrics  *metrics.Collector
	activity auth.ActivityRecorder

	now func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(store *Store, carts cart.CartService, cfg config.CheckoutConfig, collector *metrics.Collector, activity auth.ActivityRecorder) CheckoutService {
	return &checkoutService{
		store:    store,
		carts:    carts,
		cfg:      cfg,
		metrics:  collector,
		activity: activity,
		now:      time.Now,
	}
}

func (s *checkoutService) Create(ctx context.Context, cartID, userID string) (*Order, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, apperror.NewValidation("cart is empty")
	}

	now := s.now().UTC()
	payload, err := json.Marshal(pixPayload{
		MerchantName:  s.cfg.MerchantName,
		MerchantCity:  s.cfg.MerchantCity,
		PostalCode:    s.cfg.PostalCode,
		Amount:        formatBRL(c.TotalPrice),
		TransactionID: fmt.Sprintf("WB-%d", now.UnixMilli()),
		Description:   "Warning Bypass - Produto Digital",
	})
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("encoding pix payload: %w", err))
	}

	o := &Order{
		ID:          uuid.NewString(),
		OrderNumber: orderNumber(now),
		Status:      StatusPending,
		Items:       c.Items,
		TotalAmount: c.TotalPrice,
		QRCodeData:  string(payload),
		DiscordLink: s.cfg.SupportInvite,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.PaymentWindow),
	}

	if err := s.store.Save(ctx, o, s.cfg.PaymentWindow+orderGrace); err != nil {
		return nil, apperror.NewInternal(err)
	}

	s.metrics.RecordOrderCreated()
	s.record(ctx, userID, "order_created", map[string]any{
		"order_number": o.OrderNumber,
		"total":        o.TotalAmount,
	})
	return o, nil
}

func (s *checkoutService) Get(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.store.Load(ctx, orderID)
	if err != nil {
		if _, ok := err.(*apperror.AppError); ok {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}
	return s.expireIfDue(ctx, o), nil
}

func (s *checkoutService) Confirm(ctx context.Context, orderID, cartID, userID string) (*Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case StatusConfirmed:
		// Idempotent: confirming twice is fine.
		return o, nil
	case StatusExpired:
		return nil, apperror.NewConflict("payment window has expired")
	}

	o.Status = StatusConfirmed
	if err := s.store.Save(ctx, o, orderGrace); err != nil {
		return nil, apperror.NewInternal(err)
	}

	// The payment already went through; an unclearable cart is not worth
	// failing the confirmation over.
	if err := s.carts.Clear(ctx, cartID); err != nil {
		slog.Warn("cart clear after confirmation failed", "order", o.OrderNumber, "error", err)
	}

	s.metrics.RecordOrderPaid()
	s.record(ctx, userID, "order_paid", map[string]any{
		"order_number": o.OrderNumber,
		"total":        o.TotalAmount,
	})
	return o, nil
}

// expireIfDue flips a pending order whose window has closed. The flip is
// persisted so the expiry metric counts once.
func (s *checkoutService) expireIfDue(ctx context.Context, o *Order) *Order {
	if o.Status != StatusPending || s.now().Before(o.ExpiresAt) {
		return o
	}
	o.Status = StatusExpired
	if err := s.store.Save(ctx, o, orderGrace); err == nil {
		s.metrics.RecordOrderExpired()
	}
	return o
}

func (s *checkoutService) record(ctx context.Context, userID, action string, details map[string]any) {
	if s.activity != nil {
		s.activity.Record(ctx, userID, action, details)
	}
}

// orderNumber builds the human-facing "WB-YYYYMMDD-NNNN" reference.
func orderNumber(now time.Time) string {
	return fmt.Sprintf("WB-%s-%04d", now.Format("20060102"), rand.IntN(10000))
}
