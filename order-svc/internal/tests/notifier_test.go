package tests

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"quiosco/order-svc/internal/domain"
	"quiosco/order-svc/internal/mocks"
	"quiosco/order-svc/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var anaInput = domain.OrderInput{
	Name:  "Ana",
	Phone: "0412-1234567",
	Total: 11,
	Order: []domain.LineItem{{ID: 1, Name: "Café", Price: 10, Quantity: 1, Subtotal: 10}},
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0.5", "$0,50"},
		{"10", "$10,00"},
		{"999.999", "$1.000,00"},
		{"1234.56", "$1.234,56"},
		{"1234567.8", "$1.234.567,80"},
		{"-42.1", "-$42,10"},
	}

	for _, testCase := range tests {
		t.Run(testCase.amount, func(t *testing.T) {
			assert.Equal(t, testCase.want, service.FormatCurrency(decimal.RequireFromString(testCase.amount)))
		})
	}
}

func TestOrderMessage(t *testing.T) {
	at := time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)

	want := "🆕 *NUEVO PEDIDO #7*\n\n" +
		"👤 *Cliente:* Ana\n" +
		"📞 *Teléfono:* 0412-1234567\n\n" +
		"📦 *Pedido:*\n• 1x Café - $10,00\n\n" +
		"💰 *Subtotal:* $11,00\n" +
		"💰 *Impuestos (10%):* $1,10\n" +
		"💰 *Total:* $12,10\n\n" +
		"⏰ *Fecha:* 01/05/2024, 12:00:00\n\n" +
		"¡Por favor confirmar el pedido!"

	assert.Equal(t, want, service.OrderMessage(anaInput, 7, at))
}

func TestWhatsAppNotifier_Link(t *testing.T) {
	at := time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)
	notifier := service.NewWhatsAppNotifier("5842443311", nil, nil, nil)

	link := notifier.Link(anaInput, 7, at)
	require.True(t, strings.HasPrefix(link, "https://wa.me/5842443311?text="))

	text := strings.TrimPrefix(link, "https://wa.me/5842443311?text=")
	assert.NotContains(t, text, "+")
	assert.Contains(t, text, "%20")
	assert.Contains(t, text, "pedido!")
	assert.NotContains(t, text, "%21")

	decoded, err := url.QueryUnescape(text)
	require.NoError(t, err)
	assert.Equal(t, service.OrderMessage(anaInput, 7, at), decoded)
}

func TestWhatsAppNotifier_LinkKeepsURIComponentMarks(t *testing.T) {
	input := anaInput
	input.Name = "Ana (O'Neil)*"
	notifier := service.NewWhatsAppNotifier("5842443311", nil, nil, nil)

	text := strings.TrimPrefix(notifier.Link(input, 7, time.Time{}), "https://wa.me/5842443311?text=")
	assert.Contains(t, text, "Ana%20(O'Neil)*")
	assert.Contains(t, text, "%0A")

	decoded, err := url.PathUnescape(text)
	require.NoError(t, err)
	assert.Equal(t, service.OrderMessage(input, 7, time.Time{}), decoded)
}

func TestWhatsAppNotifier_Notify(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		prepareMocks func(qr *mocks.QRGenerator, store *mocks.OrderRepository, publisher *mocks.EventPublisher, link string)
		wantErr      bool
	}{
		{
			name: "stores qr and publishes event",
			prepareMocks: func(qr *mocks.QRGenerator, store *mocks.OrderRepository, publisher *mocks.EventPublisher, link string) {
				qr.On("Generate", link).Return([]byte("png"), nil).Once()
				store.On("SaveQRCode", ctx, 7, []byte("png")).Return(nil).Once()
				publisher.On("PublishOrderEvent", ctx, domain.OrderEvent{
					Type:        domain.EventOrderCreated,
					OrderID:     7,
					Name:        "Ana",
					Phone:       "0412-1234567",
					Total:       11,
					WhatsAppURL: link,
					Timestamp:   at,
				}).Return(nil).Once()
			},
		},
		{
			name: "qr failure still publishes",
			prepareMocks: func(qr *mocks.QRGenerator, store *mocks.OrderRepository, publisher *mocks.EventPublisher, link string) {
				qr.On("Generate", link).Return(nil, errors.New("data too long")).Once()
				publisher.On("PublishOrderEvent", ctx, mock.Anything).Return(nil).Once()
			},
			wantErr: true,
		},
		{
			name: "publish failure is reported",
			prepareMocks: func(qr *mocks.QRGenerator, store *mocks.OrderRepository, publisher *mocks.EventPublisher, link string) {
				qr.On("Generate", link).Return([]byte("png"), nil).Once()
				store.On("SaveQRCode", ctx, 7, []byte("png")).Return(nil).Once()
				publisher.On("PublishOrderEvent", ctx, mock.Anything).Return(errors.New("broker unavailable")).Once()
			},
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			qr := mocks.NewQRGenerator(t)
			store := mocks.NewOrderRepository(t)
			publisher := mocks.NewEventPublisher(t)

			notifier := service.NewWhatsAppNotifier("5842443311", qr, store, publisher).
				WithClock(func() time.Time { return at })
			testCase.prepareMocks(qr, store, publisher, notifier.Link(anaInput, 7, at))

			err := notifier.Notify(ctx, anaInput, 7)
			if testCase.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultQRGenerator(t *testing.T) {
	png, err := service.DefaultQRGenerator{}.Generate("https://wa.me/5842443311?text=hola")
	require.NoError(t, err)
	assert.True(t, len(png) > 8)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
