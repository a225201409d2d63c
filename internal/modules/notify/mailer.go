package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/naturallyofcourse/shop-backend/internal/modules/order"
)

// Mailer sends notifications over SMTP.
type Mailer struct {
	dialer     *gomail.Dialer
	from       string
	adminEmail string
}

func NewMailer(host string, port int, user, pass, from, adminEmail string) *Mailer {
	return &Mailer{
		dialer:     gomail.NewDialer(host, port, user, pass),
		from:       from,
		adminEmail: adminEmail,
	}
}

func (m *Mailer) SendSaleAlert(_ context.Context, o *order.Order) error {
	if m.adminEmail == "" {
		return errors.New("no admin email configured")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.adminEmail)
	msg.SetHeader("Subject", fmt.Sprintf("New sale: order %s", o.ID))
	msg.SetBody("text/html", saleAlertBody(o))
	return m.dialer.DialAndSend(msg)
}

func (m *Mailer) SendReceipt(_ context.Context, o *order.Order) error {
	if o.CustomerEmail == "" {
		return errors.New("order has no customer email")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", o.CustomerEmail)
	msg.SetHeader("Subject", "Your order confirmation")
	msg.SetBody("text/html", receiptBody(o))
	return m.dialer.DialAndSend(msg)
}

func saleAlertBody(o *order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>New order %s</h2>", o.ID)
	if o.CustomerName != "" || o.CustomerEmail != "" {
		fmt.Fprintf(&b, "<p>Customer: %s (%s)</p>", o.CustomerName, o.CustomerEmail)
	}
	b.WriteString(itemTable(o))
	fmt.Fprintf(&b, "<p><strong>Total: %s</strong></p>", formatCents(o.AmountTotal))
	return b.String()
}

func receiptBody(o *order.Order) string {
	var b strings.Builder
	b.WriteString("<h2>Thanks for your order!</h2>")
	b.WriteString(itemTable(o))
	fmt.Fprintf(&b, "<p><strong>Total: %s</strong></p>", formatCents(o.AmountTotal))
	return b.String()
}

func itemTable(o *order.Order) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "<li>%s × %d — $%s</li>", it.Name, it.Quantity, it.Price.StringFixed(2))
	}
	b.WriteString("</ul>")
	return b.String()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
