package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

// LedgerEntry is an append-only vendor money movement. Refund entries carry
// negative payout amounts.
type LedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VendorID    uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null;index"`
	OrderID     uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	OrderLineID *uuid.UUID            `gorm:"column:order_line_id;type:uuid"`
	Type        enums.LedgerEntryType `gorm:"column:type;not null"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	PayoutID    *uuid.UUID            `gorm:"column:payout_id;type:uuid;index"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (e *LedgerEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// VendorPayout aggregates unsettled ledger entries for one vendor and period.
type VendorPayout struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	VendorID    uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index"`
	PeriodStart time.Time          `gorm:"column:period_start;not null"`
	PeriodEnd   time.Time          `gorm:"column:period_end;not null"`
	Amount      decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	EntryCount  int                `gorm:"column:entry_count;not null"`
	Status      enums.PayoutStatus `gorm:"column:status;not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (p *VendorPayout) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
