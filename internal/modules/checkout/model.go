package checkout

import (
	"errors"

	"github.com/shopspring/decimal"
)

// CartItem is a single cart entry as submitted by the storefront. The same
// shape is serialized into the checkout session metadata so the webhook
// reconciler can rebuild the cart without a separate lookup.
type CartItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// CreateSessionRequest is the payload for starting a hosted checkout.
type CreateSessionRequest struct {
	Items []CartItem `json:"items"`
	Email string     `json:"email,omitempty"`
}

// CreateSessionResponse carries the provider redirect URL and session id.
type CreateSessionResponse struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

var (
	// ErrInvalidCart is returned when the submitted cart is empty or an
	// item has a non-positive price or quantity.
	ErrInvalidCart = errors.New("cart is empty or invalid")
	// ErrBadSignature is returned when the webhook signature does not
	// verify against the endpoint secret.
	ErrBadSignature = errors.New("webhook signature verification failed")
)

// metadataItemsKey is where the serialized cart lives on the session.
const metadataItemsKey = "items"
