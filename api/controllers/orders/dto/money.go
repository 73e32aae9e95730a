package orderdto

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

type Payment struct {
	ID            uuid.UUID            `json:"id"`
	OrderID       uuid.UUID            `json:"order_id"`
	ExternalRef   string               `json:"external_ref"`
	Amount        string               `json:"amount"`
	Currency      string               `json:"currency"`
	Method        enums.PaymentMethod  `json:"method"`
	Status        enums.PaymentOutcome `json:"status"`
	FailureReason *string              `json:"failure_reason,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// PaymentReceipt is returned from payment recording, including replays.
type PaymentReceipt struct {
	Payment   Payment `json:"payment"`
	Order     Order   `json:"order"`
	Duplicate bool    `json:"duplicate"`
}

type Refund struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   uuid.UUID  `json:"order_id"`
	ReturnID  *uuid.UUID `json:"return_id,omitempty"`
	Amount    string     `json:"amount"`
	Reason    string     `json:"reason"`
	CreatedAt time.Time  `json:"created_at"`
}

type RefundReceipt struct {
	Refund Refund `json:"refund"`
	Order  Order  `json:"order"`
}

type Return struct {
	ID              uuid.UUID          `json:"id"`
	ReturnNumber    string             `json:"return_number"`
	OrderID         uuid.UUID          `json:"order_id"`
	OrderLineID     uuid.UUID          `json:"order_line_id"`
	BuyerID         uuid.UUID          `json:"buyer_id"`
	Reason          enums.ReturnReason `json:"reason"`
	Description     string             `json:"description,omitempty"`
	Quantity        int                `json:"quantity"`
	Status          enums.ReturnStatus `json:"status"`
	RequestedAmount string             `json:"requested_amount"`
	RefundAmount    string             `json:"refund_amount"`
	AdminNote       *string            `json:"admin_note,omitempty"`
	DecidedAt       *time.Time         `json:"decided_at,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ReturnCompletion pairs the completed return with the refund it produced.
type ReturnCompletion struct {
	Return Return  `json:"return"`
	Refund *Refund `json:"refund,omitempty"`
}
