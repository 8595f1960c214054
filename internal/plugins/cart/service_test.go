package cart

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warningbypass/warningweb/internal/apperror"
	"github.com/warningbypass/warningweb/internal/plugins/catalog"
)

type mockCatalog struct {
	products map[string]*catalog.Product
}

func (m *mockCatalog) List(ctx context.Context) ([]*catalog.Product, error) { return nil, nil }

func (m *mockCatalog) Get(ctx context.Context, id string) (*catalog.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, apperror.NewNotFound("product not found")
}

func (m *mockCatalog) ListOwned(ctx context.Context, userID string) ([]*catalog.OwnedProduct, error) {
	return nil, nil
}

func newTestCart(t *testing.T) (CartService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cat := &mockCatalog{products: map[string]*catalog.Product{
		"public-bypass": {
			ID:             "public-bypass",
			Title:          "Public Bypass",
			Currency:       "BRL",
			PriceMonthly:   9000,
			PriceQuarterly: 25000,
			PriceLifetime:  0,
		},
		"private-bypass": {
			ID:           "private-bypass",
			Title:        "Private Bypass",
			Currency:     "BRL",
			PriceMonthly: 15000,
		},
	}}

	return NewCartService(NewStore(rdb), cat), mr
}

func TestAddItemNewLine(t *testing.T) {
	svc, _ := newTestCart(t)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "public-bypass:monthly", cart.Items[0].ID)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, int64(9000), cart.Items[0].Price)
	assert.Equal(t, 1, cart.TotalItems)
	assert.Equal(t, int64(9000), cart.TotalPrice)
}

func TestAddItemSamePlanBumpsQuantity(t *testing.T) {
	svc, _ := newTestCart(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, int64(18000), cart.TotalPrice)
}

func TestAddItemDifferentPeriodsAreSeparateLines(t *testing.T) {
	svc, _ := newTestCart(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodQuarterly)
	require.NoError(t, err)

	assert.Len(t, cart.Items, 2)
	assert.Equal(t, int64(9000+25000), cart.TotalPrice)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestCart(t)

	_, err := svc.AddItem(context.Background(), "visitor-1", "nope", catalog.PeriodMonthly)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.Code)
}

func TestAddItemUnsoldPeriod(t *testing.T) {
	svc, _ := newTestCart(t)

	// public-bypass has no lifetime price.
	_, err := svc.AddItem(context.Background(), "visitor-1", "public-bypass", catalog.PeriodLifetime)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.Code)
}

func TestRemoveItem(t *testing.T) {
	svc, _ := newTestCart(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "visitor-1", "private-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, "visitor-1", "public-bypass:monthly")
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "private-bypass:monthly", cart.Items[0].ID)
}

func TestRemoveAbsentItemIsNoop(t *testing.T) {
	svc, _ := newTestCart(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, "visitor-1", "no-such-line")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestUpdateQuantity(t *testing.T) {
	svc, _ := newTestCart(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, "visitor-1", "public-bypass:monthly", 5)
	require.NoError(t, err)

	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, int64(45000), cart.TotalPrice)
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	svc, _ := newTestCart(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, "visitor-1", "public-bypass:monthly", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = svc.UpdateQuantity(ctx, "visitor-1", "public-bypass:monthly", -3)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClear(t *testing.T) {
	svc, _ := newTestCart(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "visitor-1"))

	cart, err := svc.Get(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalItems)
}

func TestCorruptStoredCartBecomesEmpty(t *testing.T) {
	svc, mr := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("cart:visitor-1", "{not json"))

	cart, err := svc.Get(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartsAreIndependent(t *testing.T) {
	svc, _ := newTestCart(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "visitor-1", "public-bypass", catalog.PeriodMonthly)
	require.NoError(t, err)

	cart, err := svc.Get(ctx, "visitor-2")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
