// Package ledger records per-vendor money movements derived from orders:
// commission and payout accruals on payment, reversals on refund, and the
// periodic payout batches that settle them.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/internal/commission"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines operations that record ledger entries.
type Service interface {
	AccrueOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
	ReverseForRefund(ctx context.Context, tx *gorm.DB, order *models.Order, lineID *uuid.UUID, amount decimal.Decimal) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	Balance(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error)
	CreatePayouts(ctx context.Context, periodStart, periodEnd time.Time) ([]models.VendorPayout, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// AccrueOrder writes the commission and vendor payout entries for every line
// of a freshly paid order.
func (s *service) AccrueOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order == nil || order.ID == uuid.Nil {
		return fmt.Errorf("order is required")
	}
	entries := make([]models.LedgerEntry, 0, len(order.Lines)*2)
	for i := range order.Lines {
		line := order.Lines[i]
		lineID := line.ID
		entries = append(entries,
			models.LedgerEntry{
				VendorID:    line.VendorID,
				OrderID:     order.ID,
				OrderLineID: &lineID,
				Type:        enums.LedgerEntryTypeCommission,
				Amount:      line.CommissionAmount,
			},
			models.LedgerEntry{
				VendorID:    line.VendorID,
				OrderID:     order.ID,
				OrderLineID: &lineID,
				Type:        enums.LedgerEntryTypeVendorPayout,
				Amount:      line.VendorPayout,
			},
		)
	}
	if err := s.repo.WithTx(tx).CreateEntries(ctx, entries); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger accruals")
	}
	return nil
}

// ReverseForRefund books negative payout entries for a refund. With lineID set
// the whole amount reverses that line; otherwise the amount is consumed line by
// line in order until it runs out. Amounts beyond the merchandise (shipping,
// tax) carry no vendor share.
func (s *service) ReverseForRefund(ctx context.Context, tx *gorm.DB, order *models.Order, lineID *uuid.UUID, amount decimal.Decimal) error {
	if order == nil || order.ID == uuid.Nil {
		return fmt.Errorf("order is required")
	}
	entries := reversalEntries(order, lineID, amount)
	if err := s.repo.WithTx(tx).CreateEntries(ctx, entries); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger refund")
	}
	return nil
}

func reversalEntries(order *models.Order, lineID *uuid.UUID, amount decimal.Decimal) []models.LedgerEntry {
	remaining := amount
	entries := []models.LedgerEntry{}
	for i := range order.Lines {
		if !remaining.IsPositive() {
			break
		}
		line := order.Lines[i]
		if lineID != nil && line.ID != *lineID {
			continue
		}
		share := money.Min(remaining, line.LineTotal)
		remaining = remaining.Sub(share)
		split := commission.Calculate(share, line.CommissionRate)
		if split.VendorPayout.IsZero() {
			continue
		}
		id := line.ID
		entries = append(entries, models.LedgerEntry{
			VendorID:    line.VendorID,
			OrderID:     order.ID,
			OrderLineID: &id,
			Type:        enums.LedgerEntryTypeRefund,
			Amount:      split.VendorPayout.Neg(),
		})
	}
	return entries
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	entries, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return entries, nil
}

func (s *service) Balance(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.repo.Balance(ctx, vendorID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor balance")
	}
	return balance, nil
}

// CreatePayouts groups every unsettled payable entry created before periodEnd
// into one pending payout per vendor, and books a settling entry so the
// vendor balance returns to zero. Vendors whose net amount is not positive
// are carried into the next period.
func (s *service) CreatePayouts(ctx context.Context, periodStart, periodEnd time.Time) ([]models.VendorPayout, error) {
	totals, err := s.repo.UnsettledTotals(ctx, periodEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate ledger entries")
	}

	payouts := make([]models.VendorPayout, 0, len(totals))
	for _, total := range totals {
		if !total.Amount.IsPositive() {
			continue
		}
		var payout models.VendorPayout
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			payout = models.VendorPayout{
				VendorID:    total.VendorID,
				PeriodStart: periodStart.UTC(),
				PeriodEnd:   periodEnd.UTC(),
				Amount:      money.Round(total.Amount),
				EntryCount:  total.EntryCount,
				Status:      enums.PayoutStatusPending,
			}
			if err := repo.CreatePayout(ctx, &payout); err != nil {
				return err
			}
			if _, err := repo.AssignPayout(ctx, total.VendorID, payout.ID, periodEnd); err != nil {
				return err
			}
			payoutID := payout.ID
			return repo.CreateEntries(ctx, []models.LedgerEntry{{
				VendorID: total.VendorID,
				OrderID:  uuid.Nil,
				Type:     enums.LedgerEntryTypePayoutSettled,
				Amount:   payout.Amount.Neg(),
				PayoutID: &payoutID,
			}})
		})
		if err != nil {
			return payouts, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("create payout for vendor %s", total.VendorID))
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"vendor_id": total.VendorID.String(),
				"payout_id": payout.ID.String(),
				"amount":    money.Format(payout.Amount),
			})
			s.logg.Info(logCtx, "vendor payout created")
		}
		payouts = append(payouts, payout)
	}
	return payouts, nil
}
