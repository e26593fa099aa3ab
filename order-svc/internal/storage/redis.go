package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quiosco/order-svc/internal/cart"
	"quiosco/order-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

// OrderListKeys are the cached order views dropped on every write.
var OrderListKeys = []string{"orders:pending", "orders:ready"}

// OrderGenerationKey counts order-list invalidations.
const OrderGenerationKey = "orders:generation"

type RedisOrderCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisOrderCache(client *redis.Client, ttl time.Duration) *RedisOrderCache {
	return &RedisOrderCache{Client: client, TTL: ttl}
}

func (c *RedisOrderCache) GetOrders(ctx context.Context, key string) ([]domain.Order, bool, error) {
	payload, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var orders []domain.Order
	if err := json.Unmarshal(payload, &orders); err != nil {
		return nil, false, err
	}
	return orders, true, nil
}

// Generation returns the current invalidation count. Read it before loading
// the list that will be passed to SetOrders.
func (c *RedisOrderCache) Generation(ctx context.Context) (int64, error) {
	generation, err := c.Client.Get(ctx, OrderGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return generation, err
}

// SetOrders caches a list loaded at generation. The write is skipped when an
// Invalidate ran in between, since the list may predate that write.
func (c *RedisOrderCache) SetOrders(ctx context.Context, key string, generation int64, orders []domain.Order) error {
	payload, err := json.Marshal(orders)
	if err != nil {
		return err
	}

	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, OrderGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleOrders
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, c.TTL)
			return nil
		})
		return err
	}, OrderGenerationKey)
	if errors.Is(err, errStaleOrders) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *RedisOrderCache) Invalidate(ctx context.Context) error {
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, OrderGenerationKey)
		pipe.Del(ctx, OrderListKeys...)
		return nil
	})
	return err
}

var errStaleOrders = errors.New("order list is older than the cache generation")

type RedisCartStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{Client: client, TTL: ttl}
}

func (s *RedisCartStore) CartKey(session string) string {
	return "cart:" + session
}

// Load returns the session's cart, or an empty one when none is stored.
func (s *RedisCartStore) Load(ctx context.Context, session string) (*cart.Cart, error) {
	payload, err := s.Client.Get(ctx, s.CartKey(session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(), nil
	}
	if err != nil {
		return nil, err
	}

	c := cart.New()
	if err := json.Unmarshal(payload, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *RedisCartStore) Save(ctx context.Context, session string, c *cart.Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.CartKey(session), payload, s.TTL).Err()
}

func (s *RedisCartStore) Delete(ctx context.Context, session string) error {
	return s.Client.Del(ctx, s.CartKey(session)).Err()
}
