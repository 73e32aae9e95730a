package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

// Payment is one gateway payment attempt reported for an order.
type Payment struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	ExternalRef   string               `gorm:"column:external_ref;not null;uniqueIndex"`
	Amount        decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency      string               `gorm:"column:currency;not null"`
	Method        enums.PaymentMethod  `gorm:"column:method;not null"`
	Status        enums.PaymentOutcome `gorm:"column:status;not null"`
	FailureReason *string              `gorm:"column:failure_reason"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Refund records money returned to the buyer. No gateway reversal is implied.
type Refund struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ReturnID  *uuid.UUID      `gorm:"column:return_id;type:uuid"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Reason    string          `gorm:"column:reason;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (r *Refund) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
