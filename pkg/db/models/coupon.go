package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

// Coupon is a promotional code. Code is stored upper-case.
type Coupon struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Code              string           `gorm:"column:code;not null;uniqueIndex"`
	Kind              enums.CouponKind `gorm:"column:kind;not null"`
	Value             decimal.Decimal  `gorm:"column:value;type:numeric(12,2);not null"`
	MinPurchaseAmount *decimal.Decimal `gorm:"column:min_purchase_amount;type:numeric(12,2)"`
	MaxDiscountAmount *decimal.Decimal `gorm:"column:max_discount_amount;type:numeric(12,2)"`
	UsageLimit        *int             `gorm:"column:usage_limit"`
	UsedCount         int              `gorm:"column:used_count;not null"`
	PerCustomerLimit  *int             `gorm:"column:per_customer_limit"`
	ValidFrom         time.Time        `gorm:"column:valid_from;not null"`
	ValidUntil        *time.Time       `gorm:"column:valid_until"`
	IsActive          bool             `gorm:"column:is_active;not null"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CouponRedemption records one coupon use against an order.
type CouponRedemption struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CouponID       uuid.UUID       `gorm:"column:coupon_id;type:uuid;not null;uniqueIndex:ux_coupon_redemptions_order,priority:1;index:idx_coupon_redemptions_customer,priority:1"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_coupon_redemptions_order,priority:2"`
	CustomerID     uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index:idx_coupon_redemptions_customer,priority:2"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (r *CouponRedemption) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
