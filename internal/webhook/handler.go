package webhook

import (
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/shop-backend/internal/payment"
)

const maxWebhookBody = 64 * 1024

// Handler receives provider webhook deliveries. It must see the raw,
// unparsed body: signature verification runs over the exact bytes the
// provider signed, so this route is registered before any body-parsing
// middleware.
type Handler struct {
	gateway    payment.Gateway
	reconciler *Reconciler
}

func NewHandler(gateway payment.Gateway, reconciler *Reconciler) *Handler {
	return &Handler{gateway: gateway, reconciler: reconciler}
}

func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		log.Warn().Err(err).Msg("webhook: failed to read request body")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	// Fails closed: nothing is looked up or written before the signature
	// checks out.
	event, err := h.gateway.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Warn().Err(err).Msg("webhook: signature verification failed")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if event.Type != payment.EventCheckoutCompleted {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.reconciler.HandlePaymentCompleted(r.Context(), event.SessionID); err != nil {
		log.Error().Err(err).Str("session_id", event.SessionID).Msg("webhook: failed to process payment completion")
		http.Error(w, "failed to process event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
