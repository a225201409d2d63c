package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order. New orders are always
// "paid" (they only exist once the payment provider confirms payment);
// later transitions happen out of band.
type Status string

const (
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusRefunded   Status = "refunded"
)

// LineItem is a snapshot of a cart entry captured at checkout time. It
// references a product id but is deliberately decoupled from the live
// catalog so historical orders survive product edits and deletions.
type LineItem struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Address is the customer's billing address as reported by the payment
// provider. Every field is optional.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is created exactly once per reconciled payment event and never
// deleted by the normal flow.
type Order struct {
	ID              uuid.UUID  `json:"id"`
	Items           []LineItem `json:"items"`
	AmountTotal     int64      `json:"amount_total"` // minor currency units
	StripeSessionID string     `json:"stripe_session_id"`
	CustomerEmail   string     `json:"customer_email,omitempty"`
	CustomerName    string     `json:"customer_name,omitempty"`
	CustomerAddress Address    `json:"customer_address"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

var (
	// ErrNotFound is returned when an order id has no matching row.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateSession is returned when an order already exists for the
	// checkout session id. The reconciler treats it as "already reconciled".
	ErrDuplicateSession = errors.New("order already exists for session")
)
