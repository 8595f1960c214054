package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cartKeyPrefix = "cart:"

	// Carts persist across visits; the TTL is refreshed on every write.
	cartTTL = 30 * 24 * time.Hour
)

// Store persists carts as JSON documents in Redis.
type Store struct {
	redis *redis.Client
}

// NewStore creates a cart store on the given Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{redis: rdb}
}

// Load reads the cart for cartID. A missing key or malformed document
// yields an empty cart, never an error -- stored carts are disposable.
func (s *Store) Load(ctx context.Context, cartID string) (*Cart, error) {
	data, err := s.redis.Get(ctx, cartKeyPrefix+cartID).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{Items: []Item{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		items = []Item{}
	}
	if items == nil {
		items = []Item{}
	}

	c := &Cart{Items: items}
	c.Totals()
	return c, nil
}

// Save writes the cart's line items and refreshes the TTL.
func (s *Store) Save(ctx context.Context, cartID string, c *Cart) error {
	data, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	if err := s.redis.Set(ctx, cartKeyPrefix+cartID, data, cartTTL).Err(); err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	return nil
}

// Delete removes the cart document.
func (s *Store) Delete(ctx context.Context, cartID string) error {
	if err := s.redis.Del(ctx, cartKeyPrefix+cartID).Err(); err != nil {
		return fmt.Errorf("deleting cart: %w", err)
	}
	return nil
}
