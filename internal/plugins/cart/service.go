package cart

import (
	"context"
	"net/http"

	"github.com/warningbypass/warningweb/internal/apperror"
	"github.com/warningbypass/warningweb/internal/plugins/catalog"
)

// CartService implements the cart operations against the Redis store.
type CartService interface {
	Get(ctx context.Context, cartID string) (*Cart, error)

	// AddItem appends a plan/period line, or bumps its quantity by one
	// if the line already exists.
	AddItem(ctx context.Context, cartID, productID, period string) (*Cart, error)

	RemoveItem(ctx context.Context, cartID, itemID string) (*Cart, error)

	// UpdateQuantity sets an absolute quantity; qty <= 0 removes the line.
	UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*Cart, error)

	Clear(ctx context.Context, cartID string) error
}

type cartService struct {
	store   *Store
	catalog catalog.CatalogService
}

// NewCartService creates a new cart service.
func NewCartService(store *Store, cat catalog.CatalogService) CartService {
	return &cartService{store: store, catalog: cat}
}

func (s *cartService) Get(ctx context.Context, cartID string) (*Cart, error) {
	c, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return c, nil
}

func (s *cartService) AddItem(ctx context.Context, cartID, productID, period string) (*Cart, error) {
	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		if appErr, ok := err.(*apperror.AppError); ok && appErr.Code == http.StatusNotFound {
			return nil, apperror.NewValidation("unknown product")
		}
		return nil, err
	}
	price := product.Price(period)
	if price <= 0 {
		return nil, apperror.NewValidation("plan is not sold for that period")
	}

	c, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	itemID := productID + ":" + period
	found := false
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		c.Items = append(c.Items, Item{
			ID:       itemID,
			Title:    product.Title,
			Price:    price,
			Image:    product.Image,
			Quantity: 1,
		})
	}

	return s.save(ctx, cartID, c)
}

func (s *cartService) RemoveItem(ctx context.Context, cartID, itemID string) (*Cart, error) {
	c, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	c.Items = kept

	return s.save(ctx, cartID, c)
}

func (s *cartService) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, cartID, itemID)
	}

	c, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			break
		}
	}

	return s.save(ctx, cartID, c)
}

func (s *cartService) Clear(ctx context.Context, cartID string) error {
	if err := s.store.Delete(ctx, cartID); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

func (s *cartService) save(ctx context.Context, cartID string, c *Cart) (*Cart, error) {
	if err := s.store.Save(ctx, cartID, c); err != nil {
		return nil, apperror.NewInternal(err)
	}
	c.Totals()
	return c, nil
}
