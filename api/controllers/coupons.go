package controllers

import (
	"net/http"

	"github.com/lmorales-dev/shopstream-backend/api/responses"
	"github.com/lmorales-dev/shopstream-backend/api/validators"
	"github.com/lmorales-dev/shopstream-backend/internal/coupons"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
)

// CouponGetActive returns the caller's live coupon, or null data when
// none exists.
func CouponGetActive(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.GetActive(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, coupon)
	}
}

type validateCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

func CouponValidate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body validateCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Validate(r.Context(), body.Code, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, coupon)
	}
}
