package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

// ReturnRequest tracks a buyer's request to return one order line.
type ReturnRequest struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ReturnNumber    string             `gorm:"column:return_number;not null;uniqueIndex"`
	OrderID         uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	OrderLineID     uuid.UUID          `gorm:"column:order_line_id;type:uuid;not null;index"`
	BuyerID         uuid.UUID          `gorm:"column:buyer_id;type:uuid;not null;index"`
	Reason          enums.ReturnReason `gorm:"column:reason;not null"`
	Description     string             `gorm:"column:description"`
	Quantity        int                `gorm:"column:quantity;not null"`
	Status          enums.ReturnStatus `gorm:"column:status;not null"`
	RequestedAmount decimal.Decimal    `gorm:"column:requested_amount;type:numeric(12,2);not null"`
	RefundAmount    decimal.Decimal    `gorm:"column:refund_amount;type:numeric(12,2);not null"`
	AdminNote       *string            `gorm:"column:admin_note"`
	DecidedBy       *uuid.UUID         `gorm:"column:decided_by;type:uuid"`
	DecidedAt       *time.Time         `gorm:"column:decided_at"`
	CompletedAt     *time.Time         `gorm:"column:completed_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *ReturnRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
