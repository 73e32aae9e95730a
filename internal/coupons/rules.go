package coupons

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
)

// Rejection reasons, in evaluation order.
const (
	ReasonUnknownCode          = "unknown_code"
	ReasonInactive             = "inactive"
	ReasonExpired              = "expired"
	ReasonNotYetValid          = "not_yet_valid"
	ReasonLimitReached         = "limit_reached"
	ReasonCustomerLimitReached = "customer_limit_reached"
	ReasonBelowMinimum         = "below_minimum"
)

// Usage is the per-customer redemption state the rules need.
type Usage struct {
	CustomerRedemptions int64
}

// Result is the outcome of evaluating a coupon against a cart total.
type Result struct {
	Valid    bool
	Discount decimal.Decimal
	Reason   string
	Coupon   *models.Coupon
}

// Evaluate applies the coupon rules in order and stops at the first failure.
// A nil coupon means the code does not exist.
func Evaluate(coupon *models.Coupon, usage Usage, cartTotal decimal.Decimal, now time.Time) Result {
	reject := func(reason string) Result {
		return Result{Valid: false, Discount: decimal.Zero, Reason: reason, Coupon: coupon}
	}
	if coupon == nil {
		return Result{Discount: decimal.Zero, Reason: ReasonUnknownCode}
	}
	if !coupon.IsActive {
		return reject(ReasonInactive)
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return reject(ReasonExpired)
	}
	if now.Before(coupon.ValidFrom) {
		return reject(ReasonNotYetValid)
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return reject(ReasonLimitReached)
	}
	if coupon.PerCustomerLimit != nil && usage.CustomerRedemptions >= int64(*coupon.PerCustomerLimit) {
		return reject(ReasonCustomerLimitReached)
	}
	if coupon.MinPurchaseAmount != nil && cartTotal.LessThan(*coupon.MinPurchaseAmount) {
		return reject(ReasonBelowMinimum)
	}
	return Result{Valid: true, Discount: Discount(coupon, cartTotal), Coupon: coupon}
}

// Discount computes the amount a valid coupon takes off cartTotal.
func Discount(coupon *models.Coupon, cartTotal decimal.Decimal) decimal.Decimal {
	if coupon == nil || !cartTotal.IsPositive() {
		return decimal.Zero
	}
	switch coupon.Kind {
	case enums.CouponKindPercentage:
		discount := money.Percent(cartTotal, coupon.Value)
		if coupon.MaxDiscountAmount != nil {
			discount = money.Min(discount, *coupon.MaxDiscountAmount)
		}
		return discount
	case enums.CouponKindFixed:
		return money.Round(money.Min(coupon.Value, cartTotal))
	default:
		return decimal.Zero
	}
}
