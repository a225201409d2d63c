package checkout

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/naturallyofcourse/shop-backend/internal/modules/catalog"
	"github.com/naturallyofcourse/shop-backend/internal/modules/order"
)

const testSecret = "whsec_test_secret"

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeSessions struct {
	lastParams *stripe.CheckoutSessionParams
	err        error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.test/cs_test_1"}, nil
}

type fakeOrders struct {
	bySession map[string]*order.Order
	createErr error
	creates   int
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{bySession: map[string]*order.Order{}}
}

func (f *fakeOrders) Create(_ context.Context, o *order.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.bySession[o.StripeSessionID]; ok {
		return order.ErrDuplicateSession
	}
	f.bySession[o.StripeSessionID] = o
	f.creates++
	return nil
}

func (f *fakeOrders) GetBySessionID(_ context.Context, sessionID string) (*order.Order, error) {
	if o, ok := f.bySession[sessionID]; ok {
		return o, nil
	}
	return nil, order.ErrNotFound
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (f *fakeOrders) List(_ context.Context) ([]*order.Order, error) { return nil, nil }

type fakeProducts struct {
	stock map[string]int
}

func (f *fakeProducts) DecrementStock(_ context.Context, id string, qty int) error {
	if _, ok := f.stock[id]; !ok {
		return catalog.ErrNotFound
	}
	f.stock[id] -= qty
	return nil
}

func (f *fakeProducts) Create(_ context.Context, p *catalog.Product) error        { return nil }
func (f *fakeProducts) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	return nil, catalog.ErrNotFound
}
func (f *fakeProducts) List(_ context.Context) ([]*catalog.Product, error)        { return nil, nil }
func (f *fakeProducts) Update(_ context.Context, p *catalog.Product) error        { return nil }
func (f *fakeProducts) Delete(_ context.Context, id string) error                 { return nil }
func (f *fakeProducts) ReplaceAll(_ context.Context, _ []*catalog.Product) error  { return nil }

type fakeSink struct {
	alerts   int
	receipts int
	err      error
}

func (f *fakeSink) SendSaleAlert(context.Context, *order.Order) error {
	f.alerts++
	return f.err
}

func (f *fakeSink) SendReceipt(context.Context, *order.Order) error {
	f.receipts++
	return f.err
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type env struct {
	svc      Service
	sessions *fakeSessions
	orders   *fakeOrders
	products *fakeProducts
	sink     *fakeSink
}

func newEnv() *env {
	e := &env{
		sessions: &fakeSessions{},
		orders:   newFakeOrders(),
		products: &fakeProducts{stock: map[string]int{"P1": 10, "P2": 5}},
		sink:     &fakeSink{},
	}
	e.svc = NewService(e.sessions, NewWebhookVerifier(testSecret), e.orders,
		e.products, e.sink, discardLogger(), "usd", "http://localhost:4242")
	return e
}

// sign produces a valid Stripe-Signature header for the payload.
func sign(payload []byte) string {
	ts := time.Now()
	sig := webhook.ComputeSignature(ts, payload, testSecret)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig))
}

func completedEvent(t *testing.T, sessionID string, amountTotal int64, email string, items string) []byte {
	t.Helper()
	obj := map[string]interface{}{
		"id":           sessionID,
		"object":       "checkout.session",
		"amount_total": amountTotal,
		"metadata":     map[string]string{"items": items},
	}
	if email != "" {
		obj["customer_details"] = map[string]interface{}{
			"email": email,
			"name":  "Jess Customer",
			"address": map[string]string{
				"line1":       "1 Main St",
				"city":        "Toronto",
				"postal_code": "M1M 1M1",
				"country":     "CA",
			},
		}
	}
	payload, err := json.Marshal(map[string]interface{}{
		"id":   "evt_" + sessionID,
		"type": "checkout.session.completed",
		"data": map[string]interface{}{"object": obj},
	})
	if err != nil {
		t.Fatal(err)
	}
	return payload
}

// ── CreateSession ─────────────────────────────────────────────────────────────

func TestCreateSessionValidation(t *testing.T) {
	e := newEnv()

	t.Run("empty cart -> invalid", func(t *testing.T) {
		_, err := e.svc.CreateSession(context.Background(), CreateSessionRequest{}, "")
		if !errors.Is(err, ErrInvalidCart) {
			t.Fatalf("expected ErrInvalidCart, got %v", err)
		}
	})

	t.Run("zero quantity -> invalid", func(t *testing.T) {
		req := CreateSessionRequest{Items: []CartItem{
			{ID: "P1", Name: "Lavender Oil", Price: decimal.NewFromFloat(14.99), Quantity: 0},
		}}
		_, err := e.svc.CreateSession(context.Background(), req, "")
		if !errors.Is(err, ErrInvalidCart) {
			t.Fatalf("expected ErrInvalidCart, got %v", err)
		}
	})

	t.Run("negative price -> invalid", func(t *testing.T) {
		req := CreateSessionRequest{Items: []CartItem{
			{ID: "P1", Name: "Lavender Oil", Price: decimal.NewFromFloat(-1), Quantity: 1},
		}}
		_, err := e.svc.CreateSession(context.Background(), req, "")
		if !errors.Is(err, ErrInvalidCart) {
			t.Fatalf("expected ErrInvalidCart, got %v", err)
		}
	})
}

func TestCreateSessionBuildsLineItems(t *testing.T) {
	e := newEnv()
	req := CreateSessionRequest{
		Items: []CartItem{
			{ID: "P1", Name: "Lavender Oil", Price: decimal.NewFromFloat(14.99), Quantity: 2},
		},
		Email: "jess@example.com",
	}

	resp, err := e.svc.CreateSession(context.Background(), req, "https://shop.example")
	if err != nil {
		t.Fatal(err)
	}
	if resp.ID != "cs_test_1" || resp.URL == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	params := e.sessions.lastParams
	if n := len(params.LineItems); n != 1 {
		t.Fatalf("expected 1 line item, got %d", n)
	}
	li := params.LineItems[0]
	if got := *li.PriceData.UnitAmount; got != 1499 {
		t.Errorf("unit amount = %d, want 1499", got)
	}
	if got := *li.Quantity; got != 2 {
		t.Errorf("quantity = %d, want 2", got)
	}
	if got := *li.PriceData.Currency; got != "usd" {
		t.Errorf("currency = %q, want usd", got)
	}
	if params.CustomerEmail == nil || *params.CustomerEmail != "jess@example.com" {
		t.Error("prefill email not set")
	}
	if !strings.HasPrefix(*params.SuccessURL, "https://shop.example/") {
		t.Errorf("success URL not derived from origin: %s", *params.SuccessURL)
	}

	var items []CartItem
	if err := json.Unmarshal([]byte(params.Metadata["items"]), &items); err != nil {
		t.Fatalf("cart metadata not round-trippable: %v", err)
	}
	if len(items) != 1 || items[0].ID != "P1" || items[0].Quantity != 2 {
		t.Errorf("cart metadata mismatch: %+v", items)
	}

	// initiating checkout must never persist an order
	if e.orders.creates != 0 {
		t.Errorf("checkout created %d orders, want 0", e.orders.creates)
	}
}

func TestCreateSessionOriginFallback(t *testing.T) {
	e := newEnv()
	req := CreateSessionRequest{Items: []CartItem{
		{ID: "P1", Name: "Lavender Oil", Price: decimal.NewFromFloat(14.99), Quantity: 1},
	}}
	if _, err := e.svc.CreateSession(context.Background(), req, ""); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(*e.sessions.lastParams.SuccessURL, "http://localhost:4242/") {
		t.Errorf("success URL = %s, want configured base URL", *e.sessions.lastParams.SuccessURL)
	}
}

// ── HandleEvent ───────────────────────────────────────────────────────────────

func TestHandleEventRejectsBadSignature(t *testing.T) {
	e := newEnv()
	payload := completedEvent(t, "sess_1", 2998, "", `[{"id":"P1","name":"Lavender Oil","price":14.99,"quantity":2}]`)

	err := e.svc.HandleEvent(context.Background(), payload, "t=1,v1=deadbeef")
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
	if e.orders.creates != 0 || e.products.stock["P1"] != 10 || e.sink.alerts != 0 {
		t.Error("rejected event must have no side effects")
	}
}

func TestHandleEventIgnoresOtherEventTypes(t *testing.T) {
	e := newEnv()
	payload := []byte(`{"id":"evt_x","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)

	if err := e.svc.HandleEvent(context.Background(), payload, sign(payload)); err != nil {
		t.Fatalf("non-actionable event should be acknowledged, got %v", err)
	}
	if e.orders.creates != 0 || e.sink.alerts != 0 {
		t.Error("non-actionable event must have no side effects")
	}
}

func TestHandleEventCreatesOrderAndDecrementsStock(t *testing.T) {
	e := newEnv()
	payload := completedEvent(t, "sess_1", 2998, "jess@example.com",
		`[{"id":"P1","name":"Lavender Oil","price":14.99,"quantity":2}]`)

	if err := e.svc.HandleEvent(context.Background(), payload, sign(payload)); err != nil {
		t.Fatal(err)
	}

	o, err := e.orders.GetBySessionID(context.Background(), "sess_1")
	if err != nil {
		t.Fatal("order not created")
	}
	if o.AmountTotal != 2998 {
		t.Errorf("amount_total = %d, want 2998", o.AmountTotal)
	}
	if len(o.Items) != 1 || o.Items[0].ProductID != "P1" || o.Items[0].Quantity != 2 {
		t.Errorf("line items mismatch: %+v", o.Items)
	}
	if o.Status != order.StatusPaid {
		t.Errorf("status = %s, want paid", o.Status)
	}
	if o.CustomerEmail != "jess@example.com" || o.CustomerName != "Jess Customer" {
		t.Errorf("customer details mismatch: %q %q", o.CustomerEmail, o.CustomerName)
	}
	if o.CustomerAddress.City != "Toronto" || o.CustomerAddress.Line2 != "" {
		t.Errorf("address mismatch: %+v", o.CustomerAddress)
	}
	if e.products.stock["P1"] != 8 {
		t.Errorf("P1 stock = %d, want 8", e.products.stock["P1"])
	}
	if e.sink.alerts != 1 || e.sink.receipts != 1 {
		t.Errorf("alerts=%d receipts=%d, want 1/1", e.sink.alerts, e.sink.receipts)
	}
}

func TestHandleEventIsIdempotentOnRedelivery(t *testing.T) {
	e := newEnv()
	payload := completedEvent(t, "sess_1", 2998, "",
		`[{"id":"P1","name":"Lavender Oil","price":14.99,"quantity":2}]`)

	if err := e.svc.HandleEvent(context.Background(), payload, sign(payload)); err != nil {
		t.Fatal(err)
	}
	if err := e.svc.HandleEvent(context.Background(), payload, sign(payload)); err != nil {
		t.Fatalf("redelivery should be acknowledged, got %v", err)
	}

	if e.orders.creates != 1 {
		t.Errorf("orders created = %d, want exactly 1", e.orders.creates)
	}
	if e.products.stock["P1"] != 8 {
		t.Errorf("P1 stock = %d, want 8 (decremented once)", e.products.stock["P1"])
	}
	if e.sink.alerts != 1 {
		t.Errorf("alerts = %d, want 1", e.sink.alerts)
	}
}

func TestHandleEventSkipsMissingProduct(t *testing.T) {
	e := newEnv()
	payload := completedEvent(t, "sess_2", 4497, "",
		`[{"id":"P_DELETED","name":"Gone","price":15.00,"quantity":1},`+
			`{"id":"P1","name":"Lavender Oil","price":14.99,"quantity":2}]`)

	if err := e.svc.HandleEvent(context.Background(), payload, sign(payload)); err != nil {
		t.Fatal(err)
	}

	o, err := e.orders.GetBySessionID(context.Background(), "sess_2")
	if err != nil {
		t.Fatal("order not created despite missing product")
	}
	if len(o.Items) != 2 {
		t.Errorf("order should record all line items, got %d", len(o.Items))
	}
	if e.products.stock["P1"] != 8 {
		t.Errorf("P1 stock = %d, want 8 (other items still decremented)", e.products.stock["P1"])
	}
}

func TestHandleEventDropsMalformedCartMetadata(t *testing.T) {
	e := newEnv()
	payload := completedEvent(t, "sess_3", 1000, "", `{not json`)

	if err := e.svc.HandleEvent(context.Background(), payload, sign(payload)); err != nil {
		t.Fatalf("malformed metadata is acknowledged, got %v", err)
	}
	if e.orders.creates != 0 {
		t.Error("malformed metadata must not create an order")
	}
	if e.products.stock["P1"] != 10 {
		t.Error("malformed metadata must not touch stock")
	}
}

func TestHandleEventRetryableOnPersistFailure(t *testing.T) {
	e := newEnv()
	e.orders.createErr = errors.New("connection refused")
	payload := completedEvent(t, "sess_4", 2998, "",
		`[{"id":"P1","name":"Lavender Oil","price":14.99,"quantity":2}]`)

	err := e.svc.HandleEvent(context.Background(), payload, sign(payload))
	if err == nil || errors.Is(err, ErrBadSignature) {
		t.Fatalf("persist failure must surface as a retryable error, got %v", err)
	}
	if e.products.stock["P1"] != 10 {
		t.Error("stock must not change when the order was not persisted")
	}
	if e.sink.alerts != 0 {
		t.Error("no notifications when the order was not persisted")
	}
}

func TestHandleEventNotificationFailureDoesNotFail(t *testing.T) {
	e := newEnv()
	e.sink.err = errors.New("smtp down")
	payload := completedEvent(t, "sess_5", 2998, "jess@example.com",
		`[{"id":"P1","name":"Lavender Oil","price":14.99,"quantity":2}]`)

	if err := e.svc.HandleEvent(context.Background(), payload, sign(payload)); err != nil {
		t.Fatalf("notification failure must not fail reconciliation, got %v", err)
	}
	if e.orders.creates != 1 {
		t.Error("order must still be persisted")
	}
}
