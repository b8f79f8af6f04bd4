package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/shop-backend/internal/checkout"
	"github.com/vasiliy-maslov/shop-backend/internal/order"
)

// CheckoutHandler handles payment session creation.
type CheckoutHandler struct {
	svc checkout.Service
}

func NewCheckoutHandler(svc checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) CreatePaymentSession(w http.ResponseWriter, r *http.Request) {
	var in checkout.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paymentURL, err := h.svc.CreateCheckout(r.Context(), &in)
	if err != nil {
		respondWithError(w, mapCheckoutError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"payment_url": paymentURL})
}

func mapCheckoutError(err error) int {
	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrUnknownProduct),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrMissingEmail):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrGateway):
		return http.StatusBadGateway
	default:
		log.Error().Err(err).Msg("handler: checkout failed")
		return http.StatusInternalServerError
	}
}
