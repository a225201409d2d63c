package checkout

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the checkout endpoints. The webhook route needs the raw
// request body for signature verification, so nothing here may decode it
// before HandleEvent runs.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Post("/create-checkout-session", h.createSession)
	r.Post("/webhook", h.webhook)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "Cart is empty or invalid."})
		return
	}
	resp, err := h.service.CreateSession(r.Context(), req, r.Header.Get("Origin"))
	if err != nil {
		if errors.Is(err, ErrInvalidCart) {
			respond(w, http.StatusBadRequest, map[string]string{"error": "Cart is empty or invalid."})
			return
		}
		respond(w, http.StatusInternalServerError, map[string]string{"error": "Server error creating checkout session."})
		return
	}
	respond(w, http.StatusOK, resp)
}

const maxWebhookBytes = 1 << 20

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	err = h.service.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, ErrBadSignature):
		http.Error(w, "Webhook Error: "+err.Error(), http.StatusBadRequest)
	case err != nil:
		// retryable: the provider will redeliver
		http.Error(w, "webhook processing failed", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
