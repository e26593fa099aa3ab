package service

import (
	"context"

	"quiosco/notify-svc/internal/domain"
	"quiosco/notify-svc/internal/storage"

	"github.com/segmentio/kafka-go"
)

type StoreInterface interface {
	MarkNotified(ctx context.Context, orderID int) (bool, error)
	ClearMarker(ctx context.Context, orderID int) error
	PushNotification(ctx context.Context, n domain.Notification) error
}

type OutboxReader interface {
	Recent(ctx context.Context, n int) ([]domain.Notification, error)
}

// MessageReader is the subset of *kafka.Reader the consumer drives.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type ConsumerInterface interface {
	Start(ctx context.Context)
	Handle(ctx context.Context, event domain.OrderEvent) error
}

var (
	_ StoreInterface    = (*storage.Store)(nil)
	_ OutboxReader      = (*storage.Store)(nil)
	_ MessageReader     = (*kafka.Reader)(nil)
	_ ConsumerInterface = (*Consumer)(nil)
)
