package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-engine/api/middleware"
	"github.com/angelmondragon/marketplace-engine/api/responses"
	"github.com/angelmondragon/marketplace-engine/api/validators"
	"github.com/angelmondragon/marketplace-engine/internal/coupons"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
)

type couponValidator interface {
	Validate(ctx context.Context, code string, cartTotal decimal.Decimal, customerID uuid.UUID) (coupons.Result, error)
}

type validateCouponRequest struct {
	Code      string `json:"code" validate:"required,max=64"`
	CartTotal string `json:"cart_total" validate:"required"`
}

type couponValidationView struct {
	Valid    bool   `json:"valid"`
	Code     string `json:"code"`
	Discount string `json:"discount"`
	Reason   string `json:"reason,omitempty"`
}

// ValidateCoupon previews the discount a code would give on a cart total.
// Business rule failures come back as valid=false with a reason, not as errors.
func ValidateCoupon(svc couponValidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}
		customerID, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total, err := validators.ParseAmount("cart_total", payload.CartTotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code := strings.TrimSpace(payload.Code)
		result, err := svc.Validate(r.Context(), code, total, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := couponValidationView{
			Valid:    result.Valid,
			Code:     strings.ToUpper(code),
			Discount: money.Format(result.Discount),
			Reason:   result.Reason,
		}
		if result.Coupon != nil {
			view.Code = result.Coupon.Code
		}
		responses.WriteSuccess(w, view)
	}
}
