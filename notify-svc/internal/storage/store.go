package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quiosco/notify-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	OutboxKey = "notifications:whatsapp"
	// OutboxLimit caps the outbox list; older entries are trimmed.
	OutboxLimit = 200
)

type Store struct {
	rdb       *redis.Client
	markerTTL time.Duration
}

func NewStore(rdb *redis.Client, markerTTL time.Duration) *Store {
	return &Store{
		rdb:       rdb,
		markerTTL: markerTTL,
	}
}

func MarkerKey(orderID int) string {
	return fmt.Sprintf("notified:%d", orderID)
}

// MarkNotified reports whether this call claimed the order's marker.
func (s *Store) MarkNotified(ctx context.Context, orderID int) (bool, error) {
	return s.rdb.SetNX(ctx, MarkerKey(orderID), time.Now().Unix(), s.markerTTL).Result()
}

func (s *Store) ClearMarker(ctx context.Context, orderID int) error {
	return s.rdb.Del(ctx, MarkerKey(orderID)).Err()
}

func (s *Store) PushNotification(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, OutboxKey, payload)
		pipe.LTrim(ctx, OutboxKey, 0, OutboxLimit-1)
		return nil
	})
	return err
}

// Recent returns up to n outbox entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]domain.Notification, error) {
	raw, err := s.rdb.LRange(ctx, OutboxKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(raw))
	for _, item := range raw {
		var notification domain.Notification
		if err := json.Unmarshal([]byte(item), &notification); err != nil {
			return nil, fmt.Errorf("decode outbox entry: %w", err)
		}
		out = append(out, notification)
	}
	return out, nil
}
