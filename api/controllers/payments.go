package controllers

import (
	"net/http"

	"github.com/lmorales-dev/shopstream-backend/api/responses"
	"github.com/lmorales-dev/shopstream-backend/api/validators"
	"github.com/lmorales-dev/shopstream-backend/internal/checkout"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
)

// CheckoutSession creates a hosted payment session for the posted line
// items and returns its id plus the charged total.
func CheckoutSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkout.CreateSessionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreateSession(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

type checkoutSuccessRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// CheckoutSuccess finalizes a paid session: order, bills, cart clear,
// notifications.
func CheckoutSuccess(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkoutSuccessRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CompleteSession(r.Context(), body.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
