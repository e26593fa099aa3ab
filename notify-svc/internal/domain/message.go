package domain

import "time"

const (
	EventOrderCreated = "order_created"
	EventOrderReady   = "order_ready"
)

// OrderEvent is the payload order-svc publishes on the order events topic.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     int       `json:"order_id"`
	Name        string    `json:"name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Total       float64   `json:"total,omitempty"`
	WhatsAppURL string    `json:"whatsapp_url,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Notification is one outbox entry awaiting delivery to the kitchen's WhatsApp.
type Notification struct {
	OrderID   int       `json:"order_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Total     float64   `json:"total"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
