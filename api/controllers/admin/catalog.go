package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-engine/api/responses"
	"github.com/angelmondragon/marketplace-engine/api/validators"
	"github.com/angelmondragon/marketplace-engine/internal/coupons"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
)

type couponCreator interface {
	CreateCoupon(ctx context.Context, input coupons.CreateCouponInput) (*models.Coupon, error)
}

type stockSetter interface {
	SetStock(ctx context.Context, productID, variantID uuid.UUID, onHand int) (*models.InventoryRecord, error)
}

type createCouponRequest struct {
	Code              string     `json:"code" validate:"required,max=64"`
	Kind              string     `json:"kind" validate:"required"`
	Value             string     `json:"value" validate:"required"`
	MinPurchaseAmount *string    `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *string    `json:"max_discount_amount,omitempty"`
	UsageLimit        *int       `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	PerCustomerLimit  *int       `json:"per_customer_limit,omitempty" validate:"omitempty,min=1"`
	ValidFrom         *time.Time `json:"valid_from,omitempty"`
	ValidUntil        *time.Time `json:"valid_until,omitempty"`
	IsActive          *bool      `json:"is_active,omitempty"`
}

type couponView struct {
	ID                uuid.UUID        `json:"id"`
	Code              string           `json:"code"`
	Kind              enums.CouponKind `json:"kind"`
	Value             string           `json:"value"`
	MinPurchaseAmount *string          `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *string          `json:"max_discount_amount,omitempty"`
	UsageLimit        *int             `json:"usage_limit,omitempty"`
	UsedCount         int              `json:"used_count"`
	PerCustomerLimit  *int             `json:"per_customer_limit,omitempty"`
	ValidFrom         time.Time        `json:"valid_from"`
	ValidUntil        *time.Time       `json:"valid_until,omitempty"`
	IsActive          bool             `json:"is_active"`
}

type setStockRequest struct {
	VariantID *string `json:"variant_id,omitempty" validate:"omitempty,uuid"`
	OnHand    *int    `json:"on_hand" validate:"required,min=0"`
}

type stockView struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	OnHand    int       `json:"on_hand"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCoupon registers a new discount code.
func CreateCoupon(svc couponCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var payload createCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toCreateCouponInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.CreateCoupon(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCouponView(coupon))
	}
}

// SetStock overwrites the on-hand count for a product or variant.
func SetStock(svc stockSetter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := validators.OptionalUUID("variant_id", payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variant := uuid.Nil
		if variantID != nil {
			variant = *variantID
		}

		record, err := svc.SetStock(r.Context(), productID, variant, *payload.OnHand)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stockView{
			ProductID: record.ProductID,
			VariantID: record.VariantID,
			OnHand:    record.OnHand,
			UpdatedAt: record.UpdatedAt,
		})
	}
}

func toCreateCouponInput(payload createCouponRequest) (coupons.CreateCouponInput, error) {
	kind, err := enums.ParseCouponKind(strings.TrimSpace(payload.Kind))
	if err != nil {
		return coupons.CreateCouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind")
	}
	value, err := validators.ParseAmount("value", payload.Value)
	if err != nil {
		return coupons.CreateCouponInput{}, err
	}
	minPurchase, err := validators.ParseOptionalAmount("min_purchase_amount", payload.MinPurchaseAmount)
	if err != nil {
		return coupons.CreateCouponInput{}, err
	}
	maxDiscount, err := validators.ParseOptionalAmount("max_discount_amount", payload.MaxDiscountAmount)
	if err != nil {
		return coupons.CreateCouponInput{}, err
	}
	return coupons.CreateCouponInput{
		Code:              payload.Code,
		Kind:              kind,
		Value:             value,
		MinPurchaseAmount: minPurchase,
		MaxDiscountAmount: maxDiscount,
		UsageLimit:        payload.UsageLimit,
		PerCustomerLimit:  payload.PerCustomerLimit,
		ValidFrom:         payload.ValidFrom,
		ValidUntil:        payload.ValidUntil,
		IsActive:          payload.IsActive,
	}, nil
}

func newCouponView(coupon *models.Coupon) couponView {
	view := couponView{
		ID:               coupon.ID,
		Code:             coupon.Code,
		Kind:             coupon.Kind,
		Value:            money.Format(coupon.Value),
		UsageLimit:       coupon.UsageLimit,
		UsedCount:        coupon.UsedCount,
		PerCustomerLimit: coupon.PerCustomerLimit,
		ValidFrom:        coupon.ValidFrom,
		ValidUntil:       coupon.ValidUntil,
		IsActive:         coupon.IsActive,
	}
	if coupon.MinPurchaseAmount != nil {
		formatted := money.Format(*coupon.MinPurchaseAmount)
		view.MinPurchaseAmount = &formatted
	}
	if coupon.MaxDiscountAmount != nil {
		formatted := money.Format(*coupon.MaxDiscountAmount)
		view.MaxDiscountAmount = &formatted
	}
	return view
}
