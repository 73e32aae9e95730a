package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

// Amounts are fixed two-decimal strings so consumers never see float rounding.

// OrderCreatedLine summarizes one order line for downstream consumers.
type OrderCreatedLine struct {
	ProductID uuid.UUID `json:"productId"`
	VariantID uuid.UUID `json:"variantId"`
	VendorID  uuid.UUID `json:"vendorId"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"lineTotal"`
}

// OrderCreatedEvent is emitted once per successful checkout.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID          `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	BuyerID     uuid.UUID          `json:"buyerId"`
	Total       string             `json:"total"`
	Currency    string             `json:"currency"`
	CouponCode  string             `json:"couponCode,omitempty"`
	Lines       []OrderCreatedLine `json:"lines"`
}

// OrderStatusChangedEvent is emitted on every order status transition.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"orderId"`
	OrderNumber    string            `json:"orderNumber"`
	BuyerID        uuid.UUID         `json:"buyerId"`
	OldStatus      enums.OrderStatus `json:"oldStatus"`
	NewStatus      enums.OrderStatus `json:"newStatus"`
	Reason         string            `json:"reason,omitempty"`
	TrackingNumber string            `json:"trackingNumber,omitempty"`
	Carrier        string            `json:"carrier,omitempty"`
	ChangedAt      time.Time         `json:"changedAt"`
}

// PaymentEvent backs both payment.succeeded and payment.failed.
type PaymentEvent struct {
	PaymentID     uuid.UUID            `json:"paymentId"`
	OrderID       uuid.UUID            `json:"orderId"`
	OrderNumber   string               `json:"orderNumber"`
	BuyerID       uuid.UUID            `json:"buyerId"`
	ExternalRef   string               `json:"externalRef"`
	Amount        string               `json:"amount"`
	Currency      string               `json:"currency"`
	Outcome       enums.PaymentOutcome `json:"outcome"`
	FailureReason string               `json:"failureReason,omitempty"`
}

// ReturnCompletedEvent is emitted when a refund for a return has been recorded.
type ReturnCompletedEvent struct {
	ReturnID     uuid.UUID `json:"returnId"`
	ReturnNumber string    `json:"returnNumber"`
	OrderID      uuid.UUID `json:"orderId"`
	OrderLineID  uuid.UUID `json:"orderLineId"`
	BuyerID      uuid.UUID `json:"buyerId"`
	RefundAmount string    `json:"refundAmount"`
	Restocked    int       `json:"restocked"`
	CompletedAt  time.Time `json:"completedAt"`
}
