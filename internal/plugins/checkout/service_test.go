package checkout

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warningbypass/warningweb/internal/apperror"
	"github.com/warningbypass/warningweb/internal/config"
	"github.com/warningbypass/warningweb/internal/plugins/cart"
	"github.com/warningbypass/warningweb/internal/plugins/catalog"
)

type mockCatalog struct{}

func (m *mockCatalog) List(ctx context.Context) ([]*catalog.Product, error) { return nil, nil }

func (m *mockCatalog) Get(ctx context.Context, id string) (*catalog.Product, error) {
	if id == "public-bypass" {
		return &catalog.Product{ID: id, Title: "Public Bypass", PriceMonthly: 9000}, nil
	}
	return nil, apperror.NewNotFound("product not found")
}

func (m *mockCatalog) ListOwned(ctx context.Context, userID string) ([]*catalog.OwnedProduct, error) {
	return nil, nil
}

func checkoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		MerchantName:  "Warning Bypass",
		MerchantCity:  "SAO PAULO",
		PostalCode:    "01000-000",
		SupportInvite: "https://discord.gg/warningbypass",
		PaymentWindow: 15 * time.Minute,
	}
}

func newTestCheckout(t *testing.T) (*checkoutService, cart.CartService) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	carts := cart.NewCartService(cart.NewStore(rdb), &mockCatalog{})
	svc := NewCheckoutService(NewStore(rdb), carts, checkoutConfig(), nil, nil).(*checkoutService)
	return svc, carts
}

func fillCart(t *testing.T, carts cart.CartService, cartID string) {
	t.Helper()
	_, err := carts.AddItem(context.Background(), cartID, "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)
}

func TestCreateOrder(t *testing.T) {
	svc, carts := newTestCheckout(t)
	ctx := context.Background()
	fillCart(t, carts, "visitor-1")

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	o, err := svc.Create(ctx, "visitor-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Regexp(t, regexp.MustCompile(`^WB-20250315-\d{4}$`), o.OrderNumber)
	assert.Equal(t, int64(9000), o.TotalAmount)
	assert.Len(t, o.Items, 1)
	assert.Equal(t, now.Add(15*time.Minute), o.ExpiresAt)
	assert.Equal(t, "https://discord.gg/warningbypass", o.DiscordLink)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(o.QRCodeData), &payload))
	assert.Equal(t, "Warning Bypass", payload["merchantName"])
	assert.Equal(t, "SAO PAULO", payload["merchantCity"])
	assert.Equal(t, "01000-000", payload["postalCode"])
	assert.Equal(t, "90.00", payload["amount"])
	assert.Regexp(t, regexp.MustCompile(`^WB-\d+$`), payload["transactionId"])
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc, _ := newTestCheckout(t)

	_, err := svc.Create(context.Background(), "visitor-1", "")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.Code)
}

func TestConfirmClearsCart(t *testing.T) {
	svc, carts := newTestCheckout(t)
	ctx := context.Background()
	fillCart(t, carts, "visitor-1")

	o, err := svc.Create(ctx, "visitor-1", "")
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, o.ID, "visitor-1", "")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	c, err := carts.Get(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestConfirmIsIdempotent(t *testing.T) {
	svc, carts := newTestCheckout(t)
	ctx := context.Background()
	fillCart(t, carts, "visitor-1")

	o, err := svc.Create(ctx, "visitor-1", "")
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, o.ID, "visitor-1", "")
	require.NoError(t, err)
	again, err := svc.Confirm(ctx, o.ID, "visitor-1", "")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, again.Status)
}

func TestOrderExpiresAfterWindow(t *testing.T) {
	svc, carts := newTestCheckout(t)
	ctx := context.Background()
	fillCart(t, carts, "visitor-1")

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	o, err := svc.Create(ctx, "visitor-1", "")
	require.NoError(t, err)

	now = now.Add(15*time.Minute + time.Second)

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
	assert.Zero(t, got.SecondsLeft(now))

	// Expired orders cannot be paid.
	_, err = svc.Confirm(ctx, o.ID, "visitor-1", "")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.Code)
}

func TestGetUnknownOrder(t *testing.T) {
	svc, _ := newTestCheckout(t)

	_, err := svc.Get(context.Background(), "missing")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Code)
}

func TestOrderEvictedAfterRetention(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	carts := cart.NewCartService(cart.NewStore(rdb), &mockCatalog{})
	svc := NewCheckoutService(NewStore(rdb), carts, checkoutConfig(), nil, nil)

	ctx := context.Background()
	_, err := carts.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)

	o, err := svc.Create(ctx, "visitor-1", "")
	require.NoError(t, err)

	mr.FastForward(21 * time.Minute)

	_, err = svc.Get(ctx, o.ID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Code)
}
