package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

// Order is the buyer level purchase record assembled from a cart.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber       string              `gorm:"column:order_number;not null;uniqueIndex"`
	BuyerID           uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index:idx_orders_buyer_created,priority:1"`
	ShippingAddressID uuid.UUID           `gorm:"column:shipping_address_id;type:uuid;not null"`
	BillingAddressID  uuid.UUID           `gorm:"column:billing_address_id;type:uuid;not null"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingCost      decimal.Decimal     `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	TaxAmount         decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	DiscountAmount    decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	Total             decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Currency          string              `gorm:"column:currency;not null"`
	Status            enums.OrderStatus   `gorm:"column:status;not null;index"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;not null"`
	CouponID          *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	CouponCode        *string             `gorm:"column:coupon_code"`
	CustomerNote      *string             `gorm:"column:customer_note"`
	CancelReason      *string             `gorm:"column:cancel_reason"`
	TrackingNumber    *string             `gorm:"column:tracking_number"`
	Carrier           *string             `gorm:"column:carrier"`
	PaidAt            *time.Time          `gorm:"column:paid_at"`
	ShippedAt         *time.Time          `gorm:"column:shipped_at"`
	DeliveredAt       *time.Time          `gorm:"column:delivered_at"`
	CancelledAt       *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime;index:idx_orders_buyer_created,priority:2"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Lines []OrderLine `gorm:"foreignKey:OrderID;references:ID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLine is an immutable per product snapshot including the commission split.
type OrderLine struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	VariantID        uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	VendorID         uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;index"`
	ProductName      string          `gorm:"column:product_name;not null"`
	SKU              string          `gorm:"column:sku;not null"`
	Quantity         int             `gorm:"column:quantity;not null"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal        decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CommissionRate   decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,2);not null"`
	CommissionAmount decimal.Decimal `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	VendorPayout     decimal.Decimal `gorm:"column:vendor_payout;type:numeric(12,2);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// OrderStatusHistory is the audit trail of order status transitions.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	OldStatus enums.OrderStatus `gorm:"column:old_status"`
	NewStatus enums.OrderStatus `gorm:"column:new_status;not null"`
	ChangedBy *uuid.UUID        `gorm:"column:changed_by;type:uuid"`
	Note      string            `gorm:"column:note"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

func (h *OrderStatusHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// OrderSequence is the per day counter behind order numbers.
type OrderSequence struct {
	Day       string `gorm:"column:day;primaryKey"`
	LastValue int64  `gorm:"column:last_value;not null"`
}
