package orderdto

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

// Order is the order header plus its frozen lines.
type Order struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       string              `json:"order_number"`
	BuyerID           uuid.UUID           `json:"buyer_id"`
	ShippingAddressID uuid.UUID           `json:"shipping_address_id"`
	BillingAddressID  uuid.UUID           `json:"billing_address_id"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	Status            enums.OrderStatus   `json:"status"`
	PaymentStatus     enums.PaymentStatus `json:"payment_status"`
	Currency          string              `json:"currency"`
	Subtotal          string              `json:"subtotal"`
	ShippingCost      string              `json:"shipping_cost"`
	TaxAmount         string              `json:"tax_amount"`
	DiscountAmount    string              `json:"discount_amount"`
	Total             string              `json:"total"`
	CouponCode        *string             `json:"coupon_code,omitempty"`
	CustomerNote      *string             `json:"customer_note,omitempty"`
	CancelReason      *string             `json:"cancel_reason,omitempty"`
	TrackingNumber    *string             `json:"tracking_number,omitempty"`
	Carrier           *string             `json:"carrier,omitempty"`
	PaidAt            *time.Time          `json:"paid_at,omitempty"`
	ShippedAt         *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	Lines             []OrderLine         `json:"lines"`
	History           []StatusChange      `json:"history,omitempty"`
}

type OrderLine struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"product_id"`
	VariantID        uuid.UUID `json:"variant_id"`
	VendorID         uuid.UUID `json:"vendor_id"`
	ProductName      string    `json:"product_name"`
	SKU              string    `json:"sku"`
	Quantity         int       `json:"quantity"`
	UnitPrice        string    `json:"unit_price"`
	LineTotal        string    `json:"line_total"`
	CommissionRate   string    `json:"commission_rate"`
	CommissionAmount string    `json:"commission_amount"`
	VendorPayout     string    `json:"vendor_payout"`
}

type StatusChange struct {
	From      enums.OrderStatus `json:"from,omitempty"`
	To        enums.OrderStatus `json:"to"`
	ChangedBy *uuid.UUID        `json:"changed_by,omitempty"`
	Note      string            `json:"note,omitempty"`
	At        time.Time         `json:"at"`
}

// OrderSummary is the list projection without lines.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Total         string              `json:"total"`
	Currency      string              `json:"currency"`
	CreatedAt     time.Time           `json:"created_at"`
}

type OrderList struct {
	Items      []OrderSummary `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
