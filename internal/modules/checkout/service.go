package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"

	"github.com/naturallyofcourse/shop-backend/internal/modules/catalog"
	"github.com/naturallyofcourse/shop-backend/internal/modules/notify"
	"github.com/naturallyofcourse/shop-backend/internal/modules/order"
)

// Service defines the checkout surface: session initiation on the way out,
// webhook reconciliation on the way back.
type Service interface {
	// CreateSession validates the cart and opens a hosted payment session.
	// origin is the storefront origin for redirect URLs; empty falls back
	// to the configured base URL.
	CreateSession(ctx context.Context, req CreateSessionRequest, origin string) (*CreateSessionResponse, error)
	// HandleEvent runs the reconciliation flow for one inbound webhook
	// delivery. A nil return means the event is settled and the provider
	// should stop retrying; ErrBadSignature means the delivery was not
	// accepted; any other error is retryable.
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type service struct {
	sessions SessionCreator
	verifier EventVerifier
	orders   order.Repository
	products catalog.Repository
	sink     notify.Sink
	log      *slog.Logger

	currency string
	baseURL  string
}

func NewService(sessions SessionCreator, verifier EventVerifier, orders order.Repository,
	products catalog.Repository, sink notify.Sink, log *slog.Logger, currency, baseURL string) Service {
	return &service{
		sessions: sessions,
		verifier: verifier,
		orders:   orders,
		products: products,
		sink:     sink,
		log:      log,
		currency: currency,
		baseURL:  baseURL,
	}
}

// ── Session initiation ────────────────────────────────────────────────────────

var cents = decimal.NewFromInt(100)

func (s *service) CreateSession(ctx context.Context, req CreateSessionRequest, origin string) (*CreateSessionResponse, error) {
	if len(req.Items) == 0 {
		return nil, ErrInvalidCart
	}
	for _, it := range req.Items {
		if it.Name == "" || it.Quantity <= 0 || !it.Price.IsPositive() {
			return nil, ErrInvalidCart
		}
	}

	if origin == "" {
		origin = s.baseURL
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, it := range req.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(it.Price.Mul(cents).Round(0).IntPart()),
			},
			Quantity: stripe.Int64(int64(it.Quantity)),
		})
	}

	cartJSON, err := json.Marshal(req.Items)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		LineItems:                lineItems,
		SuccessURL:               stripe.String(origin + "/success.html?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:                stripe.String(origin + "/cart.html"),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionAuto)),
	}
	params.Context = ctx
	params.AddMetadata(metadataItemsKey, string(cartJSON))
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}
	s.log.Info("checkout session created", "session_id", sess.ID)
	return &CreateSessionResponse{URL: sess.URL, ID: sess.ID}, nil
}

// ── Webhook reconciliation ────────────────────────────────────────────────────

func (s *service) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.verifier.Verify(payload, sigHeader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		s.log.Debug("ignoring webhook event", "type", event.Type)
		return nil
	}

	if event.Data == nil {
		s.log.Error("event has no data object", "event_id", event.ID)
		return nil
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		// authentic but unreadable; redelivery cannot fix it
		s.log.Error("malformed checkout session payload", "event_id", event.ID, "err", err)
		return nil
	}
	if sess.ID == "" {
		s.log.Error("checkout session payload has no id", "event_id", event.ID)
		return nil
	}

	// Idempotency guard: providers may deliver the same event more than
	// once. An existing order for this session means we are done.
	if _, err := s.orders.GetBySessionID(ctx, sess.ID); err == nil {
		s.log.Info("session already reconciled", "session_id", sess.ID)
		return nil
	} else if !errors.Is(err, order.ErrNotFound) {
		return fmt.Errorf("checking for existing order: %w", err)
	}

	items, err := parseCartMetadata(sess.Metadata)
	if err != nil {
		// Acknowledge and drop: a malformed cart will be malformed on
		// every redelivery. The sale stays visible in the provider
		// dashboard for manual replay.
		s.log.Error("malformed cart metadata, dropping event",
			"session_id", sess.ID, "err", err)
		return nil
	}

	o := buildOrder(&sess, items)
	if err := s.orders.Create(ctx, o); err != nil {
		if errors.Is(err, order.ErrDuplicateSession) {
			s.log.Info("session already reconciled", "session_id", sess.ID)
			return nil
		}
		return fmt.Errorf("persisting order: %w", err)
	}
	s.log.Info("order saved", "order_id", o.ID, "session_id", sess.ID)

	// Stock bookkeeping is per item and never rolls back the order: a
	// product deleted since checkout is skipped, not fatal.
	for _, it := range items {
		err := s.products.DecrementStock(ctx, it.ID, it.Quantity)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			s.log.Warn("product missing, stock decrement skipped",
				"product_id", it.ID, "order_id", o.ID)
		case err != nil:
			s.log.Error("stock decrement failed",
				"product_id", it.ID, "order_id", o.ID, "err", err)
		}
	}

	if err := s.sink.SendSaleAlert(ctx, o); err != nil {
		s.log.Error("sale alert failed", "order_id", o.ID, "err", err)
	}
	if o.CustomerEmail != "" {
		if err := s.sink.SendReceipt(ctx, o); err != nil {
			s.log.Error("receipt failed", "order_id", o.ID, "err", err)
		}
	}
	return nil
}

func parseCartMetadata(metadata map[string]string) ([]CartItem, error) {
	raw := metadata[metadataItemsKey]
	if raw == "" {
		raw = "[]"
	}
	var items []CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func buildOrder(sess *stripe.CheckoutSession, items []CartItem) *order.Order {
	lineItems := make([]order.LineItem, 0, len(items))
	for _, it := range items {
		lineItems = append(lineItems, order.LineItem{
			ProductID: it.ID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	o := &order.Order{
		ID:              uuid.New(),
		Items:           lineItems,
		AmountTotal:     sess.AmountTotal,
		StripeSessionID: sess.ID,
		CustomerEmail:   sess.CustomerEmail,
		Status:          order.StatusPaid,
	}
	if cd := sess.CustomerDetails; cd != nil {
		if cd.Email != "" {
			o.CustomerEmail = cd.Email
		}
		o.CustomerName = cd.Name
		if a := cd.Address; a != nil {
			o.CustomerAddress = order.Address{
				Line1:      a.Line1,
				Line2:      a.Line2,
				City:       a.City,
				State:      a.State,
				PostalCode: a.PostalCode,
				Country:    a.Country,
			}
		}
	}
	return o
}
