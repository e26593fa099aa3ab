package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"quiosco/order-svc/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	taxRate = decimal.New(1, -1)
	// Venezuela has been on UTC-4 since 2016.
	caracas = time.FixedZone("VET", -4*60*60)
)

// WhatsAppNotifier announces new orders. Delivery is a stand-in: the deep
// link is logged, rendered as a QR code on the order and published as an event.
type WhatsAppNotifier struct {
	number    string
	qr        QRGenerator
	store     QRStore
	publisher EventPublisher
	now       func() time.Time
}

func NewWhatsAppNotifier(number string, qr QRGenerator, store QRStore, publisher EventPublisher) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		number:    number,
		qr:        qr,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for message timestamps.
func (n *WhatsAppNotifier) WithClock(now func() time.Time) *WhatsAppNotifier {
	n.now = now
	return n
}

func (n *WhatsAppNotifier) Notify(ctx context.Context, input domain.OrderInput, orderID int) error {
	now := n.now()
	link := n.Link(input, orderID, now)
	log.Printf("WhatsApp URL: %s", link)

	var errs []error
	if n.qr != nil && n.store != nil {
		png, err := n.qr.Generate(link)
		if err == nil {
			err = n.store.SaveQRCode(ctx, orderID, png)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("store qr code for order %d: %w", orderID, err))
		}
	}

	if n.publisher != nil {
		err := n.publisher.PublishOrderEvent(ctx, domain.OrderEvent{
			Type:        domain.EventOrderCreated,
			OrderID:     orderID,
			Name:        input.Name,
			Phone:       input.Phone,
			Total:       input.Total,
			WhatsAppURL: link,
			Timestamp:   now,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("publish order %d: %w", orderID, err))
		}
	}

	return errors.Join(errs...)
}

// componentUnescaper turns QueryEscape output into encodeURIComponent form.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func (n *WhatsAppNotifier) Link(input domain.OrderInput, orderID int, at time.Time) string {
	text := componentUnescaper.Replace(url.QueryEscape(OrderMessage(input, orderID, at)))
	return "https://wa.me/" + n.number + "?text=" + text
}

// OrderMessage is the human-readable summary sent to the restaurant.
func OrderMessage(input domain.OrderInput, orderID int, at time.Time) string {
	var products strings.Builder
	for i, item := range input.Order {
		if i > 0 {
			products.WriteString("\n")
		}
		fmt.Fprintf(&products, "• %dx %s - %s", item.Quantity, item.Name, FormatCurrency(decimal.NewFromFloat(item.Subtotal)))
	}

	total := decimal.NewFromFloat(input.Total)
	tax := total.Mul(taxRate)

	var b strings.Builder
	fmt.Fprintf(&b, "🆕 *NUEVO PEDIDO #%d*\n\n", orderID)
	fmt.Fprintf(&b, "👤 *Cliente:* %s\n", input.Name)
	fmt.Fprintf(&b, "📞 *Teléfono:* %s\n\n", input.Phone)
	fmt.Fprintf(&b, "📦 *Pedido:*\n%s\n\n", products.String())
	fmt.Fprintf(&b, "💰 *Subtotal:* %s\n", FormatCurrency(total))
	fmt.Fprintf(&b, "💰 *Impuestos (10%%):* %s\n", FormatCurrency(tax))
	fmt.Fprintf(&b, "💰 *Total:* %s\n\n", FormatCurrency(total.Add(tax)))
	fmt.Fprintf(&b, "⏰ *Fecha:* %s\n\n", at.In(caracas).Format("02/01/2006, 15:04:05"))
	b.WriteString("¡Por favor confirmar el pedido!")
	return b.String()
}

// FormatCurrency renders amounts the es-VE way: $1.234,56.
func FormatCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	fixed := amount.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}
	return sign + "$" + grouped.String() + "," + cents
}
