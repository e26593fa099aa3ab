package service

import (
	"context"
	"io"
	"time"

	"quiosco/order-svc/internal/cart"
	"quiosco/order-svc/internal/domain"
)

type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int) (*domain.Category, error)
	ListProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, error)
	ProductCount(ctx context.Context) (int, error)
	SearchProducts(ctx context.Context, term string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
}

type QRStore interface {
	SaveQRCode(ctx context.Context, orderID int, png []byte) error
}

type OrderRepository interface {
	QRStore
	CountExistingProducts(ctx context.Context, ids []int) (int, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	MarkReady(ctx context.Context, orderID int, at time.Time) error
	GetOrder(ctx context.Context, orderID int) (*domain.Order, error)
	ListOrders(ctx context.Context, ready bool) ([]domain.Order, error)
	GetQRCode(ctx context.Context, orderID int) ([]byte, error)
}

type OrderCache interface {
	GetOrders(ctx context.Context, key string) ([]domain.Order, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetOrders(ctx context.Context, key string, generation int64, orders []domain.Order) error
	Invalidate(ctx context.Context) error
}

type CartStore interface {
	Load(ctx context.Context, session string) (*cart.Cart, error)
	Save(ctx context.Context, session string, c *cart.Cart) error
	Delete(ctx context.Context, session string) error
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}

type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, input domain.OrderInput, orderID int) error
	Link(input domain.OrderInput, orderID int, at time.Time) string
}

type CatalogServiceInterface interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	ProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error)
	ListProducts(ctx context.Context, page int, search string) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
	CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error)
	UploadImage(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
}

type OrderServiceInterface interface {
	Create(ctx context.Context, raw []byte) (int, error)
	MarkReady(ctx context.Context, orderID int) error
	Get(ctx context.Context, orderID int) (*domain.Order, error)
	List(ctx context.Context, ready bool) ([]domain.Order, error)
	GetQRCode(ctx context.Context, orderID int) ([]byte, error)
}

type CartServiceInterface interface {
	Get(ctx context.Context, session string) (*cart.Cart, error)
	AddProduct(ctx context.Context, session string, productID int) (*cart.Cart, error)
	Increase(ctx context.Context, session string, productID int) (*cart.Cart, error)
	Decrease(ctx context.Context, session string, productID int) (*cart.Cart, error)
	Remove(ctx context.Context, session string, productID int) (*cart.Cart, error)
	Clear(ctx context.Context, session string) error
	Checkout(ctx context.Context, session, name, phone string) (int, error)
}

var (
	_ CatalogServiceInterface = (*CatalogService)(nil)
	_ OrderServiceInterface   = (*OrderService)(nil)
	_ CartServiceInterface    = (*CartService)(nil)
	_ Notifier                = (*WhatsAppNotifier)(nil)
)
