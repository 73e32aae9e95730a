package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/marketplace-engine/pkg/db"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
)

var hundred = decimal.NewFromInt(100)

// CreateCouponInput describes a new coupon. Nil pointers leave the limit unset.
type CreateCouponInput struct {
	Code              string
	Kind              enums.CouponKind
	Value             decimal.Decimal
	MinPurchaseAmount *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	UsageLimit        *int
	PerCustomerLimit  *int
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	IsActive          *bool
}

type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("coupon repository required")
	}
	return &Service{repo: repo, logg: logg, now: time.Now}, nil
}

// Validate evaluates code against cartTotal for customerID without mutating anything.
func (s *Service) Validate(ctx context.Context, code string, cartTotal decimal.Decimal, customerID uuid.UUID) (Result, error) {
	repo := s.repo
	if NormalizeCode(code) == "" {
		return Result{Discount: decimal.Zero, Reason: ReasonUnknownCode}, nil
	}
	coupon, err := repo.FindByCode(ctx, code)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	var usage Usage
	if coupon != nil && coupon.PerCustomerLimit != nil && customerID != uuid.Nil {
		usage.CustomerRedemptions, err = repo.CountCustomerRedemptions(ctx, coupon.ID, customerID)
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon redemptions")
		}
	}
	return Evaluate(coupon, usage, cartTotal, s.now().UTC()), nil
}

// Redeem consumes one use of coupon for orderID inside tx. The global counter
// moves with a compare-and-increment so two checkouts racing for the last use
// cannot both succeed.
func (s *Service) Redeem(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, customerID, orderID uuid.UUID, discount decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for coupon redemption")
	}
	if coupon == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "coupon required")
	}
	repo := s.repo.WithTx(tx)

	// The usage update locks the coupon row until tx ends, so the per customer
	// count below sees every redemption committed by a competing checkout.
	ok, err := repo.IncrementUsage(ctx, coupon.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment coupon usage")
	}
	if !ok {
		return Rejection(ReasonLimitReached, coupon.Code)
	}

	if coupon.PerCustomerLimit != nil {
		count, err := repo.CountCustomerRedemptions(ctx, coupon.ID, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon redemptions")
		}
		if count >= int64(*coupon.PerCustomerLimit) {
			return Rejection(ReasonCustomerLimitReached, coupon.Code)
		}
	}

	redemption := &models.CouponRedemption{
		CouponID:       coupon.ID,
		OrderID:        orderID,
		CustomerID:     customerID,
		DiscountAmount: discount,
	}
	if err := repo.CreateRedemption(ctx, redemption); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "coupon already redeemed for order")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record coupon redemption")
	}
	return nil
}

// CreateCoupon validates and stores a coupon definition.
func (s *Service) CreateCoupon(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	coupon := &models.Coupon{
		Code:              NormalizeCode(input.Code),
		Kind:              input.Kind,
		Value:             input.Value,
		MinPurchaseAmount: input.MinPurchaseAmount,
		MaxDiscountAmount: input.MaxDiscountAmount,
		UsageLimit:        input.UsageLimit,
		PerCustomerLimit:  input.PerCustomerLimit,
		ValidUntil:        input.ValidUntil,
		IsActive:          true,
		ValidFrom:         s.now().UTC(),
	}
	if input.ValidFrom != nil {
		coupon.ValidFrom = input.ValidFrom.UTC()
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if err := ValidateDefinition(coupon); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("coupon %s already exists", coupon.Code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	if s.logg != nil {
		logCtx := s.logg.WithField(ctx, "coupon_code", coupon.Code)
		s.logg.Info(logCtx, "coupon created")
	}
	return coupon, nil
}

// ValidateDefinition checks the invariants every stored coupon must satisfy.
func ValidateDefinition(c *models.Coupon) error {
	invalid := func(msg string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	}
	if c.Code == "" {
		return invalid("coupon code is required")
	}
	if !c.Kind.IsValid() {
		return invalid(fmt.Sprintf("invalid coupon kind %q", c.Kind))
	}
	if !c.Value.IsPositive() {
		return invalid("coupon value must be positive")
	}
	if c.Kind == enums.CouponKindPercentage && c.Value.GreaterThan(hundred) {
		return invalid("percentage coupon value must not exceed 100")
	}
	if c.MinPurchaseAmount != nil && c.MinPurchaseAmount.IsNegative() {
		return invalid("minimum purchase must not be negative")
	}
	if c.MaxDiscountAmount != nil && !c.MaxDiscountAmount.IsPositive() {
		return invalid("maximum discount must be positive")
	}
	if c.UsageLimit != nil {
		if *c.UsageLimit <= 0 {
			return invalid("usage limit must be positive")
		}
		if c.UsedCount > *c.UsageLimit {
			return invalid("used count exceeds usage limit")
		}
	}
	if c.PerCustomerLimit != nil && *c.PerCustomerLimit <= 0 {
		return invalid("per customer limit must be positive")
	}
	if c.ValidUntil != nil && !c.ValidUntil.After(c.ValidFrom) {
		return invalid("valid until must be after valid from")
	}
	return nil
}

// Rejection converts a failed rule into the validation error returned to callers.
func Rejection(reason, code string) error {
	return pkgerrors.Reject(pkgerrors.CodeValidation, reason, fmt.Sprintf("coupon %s rejected: %s", code, reason)).
		WithDetails(map[string]any{
			"reason": reason,
			"rule":   reason,
			"code":   code,
		})
}
