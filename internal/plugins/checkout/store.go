package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warningbypass/warningweb/internal/apperror"
)

const orderKeyPrefix = "order:"

// Store parks orders in Redis while they await payment.
type Store struct {
	redis *redis.Client
}

// NewStore creates an order store on the given Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{redis: rdb}
}

// Load reads an order. A missing key surfaces as not-found: either the
// order never existed or it aged past its retention.
func (s *Store) Load(ctx context.Context, orderID string) (*Order, error) {
	data, err := s.redis.Get(ctx, orderKeyPrefix+orderID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewNotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading order: %w", err)
	}

	o := &Order{}
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("decoding order: %w", err)
	}
	return o, nil
}

// Save writes the order with the given retention.
func (s *Store) Save(ctx context.Context, o *Order, ttl time.Duration) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encoding order: %w", err)
	}
	if err := s.redis.Set(ctx, orderKeyPrefix+o.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("saving order: %w", err)
	}
	return nil
}
