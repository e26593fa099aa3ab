package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"quiosco/order-svc/internal/domain"
	"quiosco/order-svc/internal/metrics"
)

const (
	pendingOrdersKey = "orders:pending"
	readyOrdersKey   = "orders:ready"
	notifyTimeout    = 10 * time.Second
)

type OrderService struct {
	repo      OrderRepository
	cache     OrderCache
	notifier  Notifier
	qr        QRGenerator
	publisher EventPublisher
	now       func() time.Time

	inflight sync.WaitGroup
}

// NewOrderService wires the order workflow. cache, notifier, qr and publisher may be nil.
func NewOrderService(repo OrderRepository, cache OrderCache, notifier Notifier, qr QRGenerator, publisher EventPublisher) *OrderService {
	return &OrderService{
		repo:      repo,
		cache:     cache,
		notifier:  notifier,
		qr:        qr,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// Create validates a raw checkout payload and stores it as one order.
// Every failure is an *OrderError; nothing is retried.
func (s *OrderService) Create(ctx context.Context, raw []byte) (int, error) {
	input, issues := ValidateOrder(raw)
	if len(issues) > 0 {
		return 0, s.fail(&OrderError{Kind: KindValidation, Issues: issues})
	}

	if len(input.Order) == 0 {
		return 0, s.fail(newOrderError(KindEmptyOrder, MsgEmptyOrder))
	}

	ids := distinctProductIDs(input.Order)
	found, err := s.repo.CountExistingProducts(ctx, ids)
	if err != nil {
		log.Printf("ERROR: checking products %v: %v", ids, err)
		return 0, s.fail(newOrderError(KindInternal, MsgInternal))
	}
	if found != len(ids) {
		return 0, s.fail(newOrderError(KindProductNotFound, MsgProductsMissing))
	}

	if sum := subtotalSum(input.Order); math.Abs(sum-input.Total) > 0.005 {
		log.Printf("WARNING: order total %.2f differs from line subtotals %.2f, keeping submitted total", input.Total, sum)
	}

	order := &domain.Order{
		Name:     input.Name,
		Phone:    input.Phone,
		Total:    input.Total,
		Products: make([]domain.OrderProduct, 0, len(input.Order)),
	}
	for _, item := range input.Order {
		order.Products = append(order.Products, domain.OrderProduct{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		log.Printf("ERROR: creating order for %s: %v", input.Phone, err)
		return 0, s.fail(classifyStorageError(err))
	}

	metrics.OrdersCreated.WithLabelValues("ok").Inc()
	s.dispatch(ctx, input, order.ID)
	s.invalidate(ctx)
	return order.ID, nil
}

// Wait blocks until every detached notification has finished.
func (s *OrderService) Wait() {
	s.inflight.Wait()
}

func (s *OrderService) dispatch(ctx context.Context, input domain.OrderInput, orderID int) {
	if s.notifier == nil {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("ERROR: notification for order %d panicked: %v", orderID, r)
				metrics.Notifications.WithLabelValues("error").Inc()
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, input, orderID); err != nil {
			log.Printf("WARNING: notification for order %d failed: %v", orderID, err)
			metrics.Notifications.WithLabelValues("error").Inc()
			return
		}
		metrics.Notifications.WithLabelValues("ok").Inc()
	}()
}

func (s *OrderService) fail(err *OrderError) *OrderError {
	metrics.OrdersCreated.WithLabelValues(err.Kind.String()).Inc()
	return err
}

func (s *OrderService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("WARNING: failed to invalidate order cache: %v", err)
	}
}

// MarkReady moves an order from pending to ready. Repeating it refreshes orderReadyAt.
func (s *OrderService) MarkReady(ctx context.Context, orderID int) error {
	at := s.now()
	if err := s.repo.MarkReady(ctx, orderID, at); err != nil {
		log.Printf("ERROR: marking order %d ready: %v", orderID, err)
		return fmt.Errorf("%w: %v", ErrOrderNotUpdated, err)
	}

	s.invalidate(ctx)

	if s.publisher != nil {
		err := s.publisher.PublishOrderEvent(ctx, domain.OrderEvent{
			Type:      domain.EventOrderReady,
			OrderID:   orderID,
			Timestamp: at,
		})
		if err != nil {
			log.Printf("WARNING: failed to publish ready event for order %d: %v", orderID, err)
		}
	}
	return nil
}

func (s *OrderService) Get(ctx context.Context, orderID int) (*domain.Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// List serves the pending or ready view, caching what it loads. The cache
// generation is read before the database so a write that commits meanwhile
// keeps this snapshot out of the cache.
func (s *OrderService) List(ctx context.Context, ready bool) ([]domain.Order, error) {
	key := pendingOrdersKey
	if ready {
		key = readyOrdersKey
	}

	cacheable := false
	var generation int64
	if s.cache != nil {
		orders, ok, err := s.cache.GetOrders(ctx, key)
		if err != nil {
			log.Printf("WARNING: order cache read failed: %v", err)
		} else if ok {
			return orders, nil
		}

		generation, err = s.cache.Generation(ctx)
		if err != nil {
			log.Printf("WARNING: order cache generation unavailable: %v", err)
		} else {
			cacheable = true
		}
	}

	orders, err := s.repo.ListOrders(ctx, ready)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetOrders(ctx, key, generation, orders); err != nil {
			log.Printf("WARNING: order cache write failed: %v", err)
		}
	}
	return orders, nil
}

// GetQRCode returns the stored QR for an order, rendering it again from the
// persisted order when the notification never stored one.
func (s *OrderService) GetQRCode(ctx context.Context, orderID int) ([]byte, error) {
	qr, err := s.repo.GetQRCode(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(qr) > 0 || s.notifier == nil || s.qr == nil {
		return qr, nil
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	regenerated, err := s.qr.Generate(s.notifier.Link(inputFromOrder(order), order.ID, order.Date))
	if err != nil {
		log.Printf("WARNING: failed to regenerate QR code for order %d: %v", orderID, err)
		return qr, nil
	}
	if err := s.repo.SaveQRCode(ctx, orderID, regenerated); err != nil {
		log.Printf("WARNING: failed to cache regenerated QR code: %v", err)
	}
	return regenerated, nil
}

func distinctProductIDs(items []domain.LineItem) []int {
	seen := make(map[int]struct{}, len(items))
	ids := make([]int, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		ids = append(ids, item.ID)
	}
	return ids
}

func subtotalSum(items []domain.LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Subtotal
	}
	return sum
}

// inputFromOrder rebuilds the checkout input for a stored order. Line prices
// come from the catalog join, so a product repriced since checkout shows its
// current price and subtotal while Total stays as submitted.
func inputFromOrder(order *domain.Order) domain.OrderInput {
	input := domain.OrderInput{
		Name:  order.Name,
		Phone: order.Phone,
		Total: order.Total,
	}
	for _, p := range order.Products {
		input.Order = append(input.Order, domain.LineItem{
			ID:       p.ProductID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: p.Quantity,
			Subtotal: p.Price * float64(p.Quantity),
		})
	}
	return input
}
