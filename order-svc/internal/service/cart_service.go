package service

import (
	"context"
	"encoding/json"
	"log"
	"regexp"

	"quiosco/order-svc/internal/cart"
	"quiosco/order-svc/internal/domain"
)

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

type ProductLookup interface {
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
}

// OrderCreator is the part of the order workflow checkout needs.
type OrderCreator interface {
	Create(ctx context.Context, raw []byte) (int, error)
}

// CartService keeps one cart per browsing session.
type CartService struct {
	store   CartStore
	catalog ProductLookup
	orders  OrderCreator
}

func NewCartService(store CartStore, catalog ProductLookup, orders OrderCreator) *CartService {
	return &CartService{store: store, catalog: catalog, orders: orders}
}

func (s *CartService) Get(ctx context.Context, session string) (*cart.Cart, error) {
	if !sessionPattern.MatchString(session) {
		return nil, ErrInvalidSession
	}
	return s.store.Load(ctx, session)
}

func (s *CartService) AddProduct(ctx context.Context, session string, productID int) (*cart.Cart, error) {
	c, err := s.Get(ctx, session)
	if err != nil {
		return nil, err
	}
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	c.Add(*product)
	return c, s.store.Save(ctx, session, c)
}

func (s *CartService) Increase(ctx context.Context, session string, productID int) (*cart.Cart, error) {
	return s.mutate(ctx, session, func(c *cart.Cart) { c.Increase(productID) })
}

func (s *CartService) Decrease(ctx context.Context, session string, productID int) (*cart.Cart, error) {
	return s.mutate(ctx, session, func(c *cart.Cart) { c.Decrease(productID) })
}

func (s *CartService) Remove(ctx context.Context, session string, productID int) (*cart.Cart, error) {
	return s.mutate(ctx, session, func(c *cart.Cart) { c.Remove(productID) })
}

func (s *CartService) Clear(ctx context.Context, session string) error {
	if !sessionPattern.MatchString(session) {
		return ErrInvalidSession
	}
	return s.store.Delete(ctx, session)
}

// Checkout submits the cart as an order and empties it only when the order was stored.
func (s *CartService) Checkout(ctx context.Context, session, name, phone string) (int, error) {
	c, err := s.Get(ctx, session)
	if err != nil {
		return 0, err
	}

	raw, err := json.Marshal(c.Checkout(name, phone))
	if err != nil {
		return 0, err
	}

	orderID, err := s.orders.Create(ctx, raw)
	if err != nil {
		return 0, err
	}

	if err := s.store.Delete(ctx, session); err != nil {
		log.Printf("WARNING: order %d created but cart %s was not cleared: %v", orderID, session, err)
	}
	return orderID, nil
}

func (s *CartService) mutate(ctx context.Context, session string, op func(*cart.Cart)) (*cart.Cart, error) {
	c, err := s.Get(ctx, session)
	if err != nil {
		return nil, err
	}
	op(c)
	return c, s.store.Save(ctx, session, c)
}
