package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"quiosco/notify-svc/internal/domain"

	"github.com/segmentio/kafka-go"
)

const retryDelay = time.Second

type Consumer struct {
	Reader     MessageReader
	Store      StoreInterface
	RetryDelay time.Duration
	now        func() time.Time
}

func NewConsumer(reader MessageReader, store StoreInterface) *Consumer {
	return &Consumer{
		Reader:     reader,
		Store:      store,
		RetryDelay: retryDelay,
		now:        time.Now,
	}
}

// WithClock overrides the timestamp source for outbox entries.
func (c *Consumer) WithClock(now func() time.Time) *Consumer {
	c.now = now
	return c
}

// WithRetryDelay sets the pause between attempts at a failing message.
func (c *Consumer) WithRetryDelay(d time.Duration) *Consumer {
	c.RetryDelay = d
	return c
}

// Start reads order events until ctx is cancelled. A message that fails to
// handle is retried in place; later offsets are not fetched until it
// succeeds, so a commit never moves past it.
func (c *Consumer) Start(ctx context.Context) {
	log.Println("Starting Notification Service consumer...")
	for {
		message, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("ERROR: reading message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.RetryDelay):
			}
			continue
		}

		var event domain.OrderEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			log.Printf("WARNING: skipping malformed event at offset %d: %v", message.Offset, err)
			c.commit(ctx, message)
			continue
		}

		if err := c.handleUntilDone(ctx, event); err != nil {
			return
		}
		c.commit(ctx, message)
	}
}

// handleUntilDone retries Handle until it succeeds or ctx ends.
func (c *Consumer) handleUntilDone(ctx context.Context, event domain.OrderEvent) error {
	for {
		err := c.Handle(ctx, event)
		if err == nil {
			return nil
		}
		log.Printf("ERROR: handling %s for order %d, retrying: %v", event.Type, event.OrderID, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.RetryDelay):
		}
	}
}

func (c *Consumer) commit(ctx context.Context, message kafka.Message) {
	if err := c.Reader.CommitMessages(ctx, message); err != nil && ctx.Err() == nil {
		log.Printf("WARNING: committing offset %d: %v", message.Offset, err)
	}
}

func (c *Consumer) Handle(ctx context.Context, event domain.OrderEvent) error {
	switch event.Type {
	case domain.EventOrderCreated:
		return c.queueNotification(ctx, event)
	case domain.EventOrderReady:
		log.Printf("Order %d is ready for pickup", event.OrderID)
		return nil
	default:
		log.Printf("Ignoring event type %q for order %d", event.Type, event.OrderID)
		return nil
	}
}

func (c *Consumer) queueNotification(ctx context.Context, event domain.OrderEvent) error {
	first, err := c.Store.MarkNotified(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("mark order %d: %w", event.OrderID, err)
	}
	if !first {
		log.Printf("Order %d already notified, skipping duplicate delivery", event.OrderID)
		return nil
	}

	notification := domain.Notification{
		OrderID:   event.OrderID,
		Name:      event.Name,
		Phone:     event.Phone,
		Total:     event.Total,
		URL:       event.WhatsAppURL,
		CreatedAt: c.now(),
	}
	if err := c.Store.PushNotification(ctx, notification); err != nil {
		if clearErr := c.Store.ClearMarker(ctx, event.OrderID); clearErr != nil {
			log.Printf("WARNING: clearing marker of order %d: %v", event.OrderID, clearErr)
		}
		return fmt.Errorf("queue notification for order %d: %w", event.OrderID, err)
	}

	log.Printf("WhatsApp message for order %d queued: %s", event.OrderID, event.WhatsAppURL)
	return nil
}
