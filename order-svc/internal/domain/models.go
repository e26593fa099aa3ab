package domain

import "time"

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Product struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Image        string  `json:"image"`
	CategoryID   int     `json:"categoryId"`
	CategoryName string  `json:"category,omitempty"`
}

type Order struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Phone        string         `json:"phone"`
	Total        float64        `json:"total"`
	Date         time.Time      `json:"date"`
	Status       bool           `json:"status"`
	OrderReadyAt *time.Time     `json:"orderReadyAt"`
	Products     []OrderProduct `json:"orderProducts"`
}

type OrderProduct struct {
	ID        int     `json:"id"`
	OrderID   int     `json:"orderId"`
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// LineItem is one cart entry as submitted at checkout.
type LineItem struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

// OrderInput is a checkout payload that passed validation.
type OrderInput struct {
	Name  string     `json:"name"`
	Phone string     `json:"phone"`
	Total float64    `json:"total"`
	Order []LineItem `json:"order"`
}

type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

const (
	EventOrderCreated = "order_created"
	EventOrderReady   = "order_ready"
)

type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     int       `json:"order_id"`
	Name        string    `json:"name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Total       float64   `json:"total,omitempty"`
	WhatsAppURL string    `json:"whatsapp_url,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
}
