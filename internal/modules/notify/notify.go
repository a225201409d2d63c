package notify

import (
	"context"

	"github.com/naturallyofcourse/shop-backend/internal/modules/order"
)

// Sink is the outbound notification channel. The contract is
// fire-and-forget: callers log failures and never propagate them.
type Sink interface {
	// SendSaleAlert notifies the shop operator of a new paid order.
	SendSaleAlert(ctx context.Context, o *order.Order) error
	// SendReceipt sends the customer their order confirmation.
	SendReceipt(ctx context.Context, o *order.Order) error
}

// Noop discards all notifications. Used when SMTP is not configured.
type Noop struct{}

func (Noop) SendSaleAlert(context.Context, *order.Order) error { return nil }
func (Noop) SendReceipt(context.Context, *order.Order) error   { return nil }
