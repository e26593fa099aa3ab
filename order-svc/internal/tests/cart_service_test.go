package tests

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"quiosco/order-svc/internal/cart"
	"quiosco/order-svc/internal/domain"
	"quiosco/order-svc/internal/mocks"
	"quiosco/order-svc/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const session = "c0ffee-session-01"

func TestCartService_AddProduct(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewCartStore(t)
	catalog := mocks.NewCatalogServiceInterface(t)
	svc := service.NewCartService(store, catalog, mocks.NewOrderServiceInterface(t))

	store.On("Load", ctx, session).Return(cart.New(), nil).Once()
	catalog.On("GetProduct", ctx, 1).Return(&cafe, nil).Once()
	store.On("Save", ctx, session, mock.MatchedBy(func(c *cart.Cart) bool { return c.ItemCount() == 1 })).Return(nil).Once()

	c, err := svc.AddProduct(ctx, session, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, c.Total())
}

func TestCartService_AddProduct_Unknown(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewCartStore(t)
	catalog := mocks.NewCatalogServiceInterface(t)
	svc := service.NewCartService(store, catalog, mocks.NewOrderServiceInterface(t))

	store.On("Load", ctx, session).Return(cart.New(), nil).Once()
	catalog.On("GetProduct", ctx, 99).Return(nil, domain.ErrNotFound).Once()

	_, err := svc.AddProduct(ctx, session, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_Steps(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		step    func(svc *service.CartService) (*cart.Cart, error)
		wantQty int
		wantLen int
	}{
		{
			name:    "increase",
			step:    func(svc *service.CartService) (*cart.Cart, error) { return svc.Increase(ctx, session, 1) },
			wantQty: 3,
			wantLen: 1,
		},
		{
			name:    "decrease",
			step:    func(svc *service.CartService) (*cart.Cart, error) { return svc.Decrease(ctx, session, 1) },
			wantQty: 1,
			wantLen: 1,
		},
		{
			name:    "remove",
			step:    func(svc *service.CartService) (*cart.Cart, error) { return svc.Remove(ctx, session, 1) },
			wantLen: 0,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			stored := cart.New()
			stored.Add(cafe)
			stored.Add(cafe)

			store := mocks.NewCartStore(t)
			store.On("Load", ctx, session).Return(stored, nil).Once()
			store.On("Save", ctx, session, stored).Return(nil).Once()
			svc := service.NewCartService(store, mocks.NewCatalogServiceInterface(t), mocks.NewOrderServiceInterface(t))

			c, err := testCase.step(svc)
			require.NoError(t, err)
			require.Equal(t, testCase.wantLen, c.Len())
			if testCase.wantLen > 0 {
				assert.Equal(t, testCase.wantQty, c.Items()[0].Quantity)
			}
		})
	}
}

func TestCartService_InvalidSession(t *testing.T) {
	svc := service.NewCartService(mocks.NewCartStore(t), mocks.NewCatalogServiceInterface(t), mocks.NewOrderServiceInterface(t))
	ctx := context.Background()

	for _, bad := range []string{"", "short", "has spaces in it", "../../etc/passwd"} {
		_, err := svc.Get(ctx, bad)
		assert.ErrorIs(t, err, service.ErrInvalidSession, bad)
		assert.ErrorIs(t, svc.Clear(ctx, bad), service.ErrInvalidSession, bad)
	}
}

func TestCartService_Checkout(t *testing.T) {
	ctx := context.Background()
	stored := cart.New()
	stored.Add(cafe)
	stored.Add(donut)

	store := mocks.NewCartStore(t)
	orders := mocks.NewOrderServiceInterface(t)
	svc := service.NewCartService(store, mocks.NewCatalogServiceInterface(t), orders)

	store.On("Load", ctx, session).Return(stored, nil).Once()
	orders.On("Create", ctx, mock.MatchedBy(func(raw []byte) bool {
		var input domain.OrderInput
		if err := json.Unmarshal(raw, &input); err != nil {
			return false
		}
		return input.Name == "Ana" && input.Phone == "0412-1234567" && input.Total == 5.5 && len(input.Order) == 2
	})).Return(12, nil).Once()
	store.On("Delete", ctx, session).Return(nil).Once()

	orderID, err := svc.Checkout(ctx, session, "Ana", "0412-1234567")
	require.NoError(t, err)
	assert.Equal(t, 12, orderID)
}

func TestCartService_Checkout_FailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	stored := cart.New()
	stored.Add(cafe)

	store := mocks.NewCartStore(t)
	orders := mocks.NewOrderServiceInterface(t)
	svc := service.NewCartService(store, mocks.NewCatalogServiceInterface(t), orders)

	orderErr := &service.OrderError{Kind: service.KindValidation, Issues: []domain.Issue{{Path: "phone", Message: "x"}}}
	store.On("Load", ctx, session).Return(stored, nil).Once()
	orders.On("Create", ctx, mock.Anything).Return(0, orderErr).Once()

	_, err := svc.Checkout(ctx, session, "Ana", "0411-1234567")

	var got *service.OrderError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, service.KindValidation, got.Kind)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCartService_Checkout_EmptyCart(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewCartStore(t)
	orders := service.NewOrderService(mocks.NewOrderRepository(t), nil, nil, nil, nil)
	svc := service.NewCartService(store, mocks.NewCatalogServiceInterface(t), orders)

	store.On("Load", ctx, session).Return(cart.New(), nil).Once()

	_, err := svc.Checkout(ctx, session, "Ana", "0412-1234567")

	orderErr := requireOrderError(t, err, service.KindValidation)
	require.Len(t, orderErr.Issues, 1)
	assert.Equal(t, "total", orderErr.Issues[0].Path)
	assert.Equal(t, "Hay errores en la orden", orderErr.Issues[0].Message)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
