package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

// Repository manages persistence for ledger entries and vendor payouts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntries(ctx context.Context, entries []models.LedgerEntry) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	UnsettledTotals(ctx context.Context, before time.Time) ([]VendorTotal, error)
	CreatePayout(ctx context.Context, payout *models.VendorPayout) error
	AssignPayout(ctx context.Context, vendorID, payoutID uuid.UUID, before time.Time) (int64, error)
	Balance(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error)
}

// VendorTotal is the unsettled payable amount for one vendor.
type VendorTotal struct {
	VendorID   uuid.UUID
	Amount     decimal.Decimal
	EntryCount int
}

var payableTypes = []enums.LedgerEntryType{
	enums.LedgerEntryTypeVendorPayout,
	enums.LedgerEntryTypeRefund,
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEntries(ctx context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// UnsettledTotals sums payable entries created before the cutoff that no payout claimed yet.
func (r *repository) UnsettledTotals(ctx context.Context, before time.Time) ([]VendorTotal, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("payout_id IS NULL AND type IN ? AND created_at < ?", payableTypes, before).
		Order("vendor_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	byVendor := map[uuid.UUID]*VendorTotal{}
	order := []uuid.UUID{}
	for _, entry := range entries {
		total, ok := byVendor[entry.VendorID]
		if !ok {
			total = &VendorTotal{VendorID: entry.VendorID, Amount: decimal.Zero}
			byVendor[entry.VendorID] = total
			order = append(order, entry.VendorID)
		}
		total.Amount = total.Amount.Add(entry.Amount)
		total.EntryCount++
	}
	totals := make([]VendorTotal, 0, len(order))
	for _, vendorID := range order {
		totals = append(totals, *byVendor[vendorID])
	}
	return totals, nil
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.VendorPayout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

// AssignPayout claims the vendor's unsettled payable entries for payoutID.
func (r *repository) AssignPayout(ctx context.Context, vendorID, payoutID uuid.UUID, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("vendor_id = ? AND payout_id IS NULL AND type IN ? AND created_at < ?", vendorID, payableTypes, before).
		Update("payout_id", payoutID)
	return res.RowsAffected, res.Error
}

// Balance is the vendor's payable amount not yet moved into a payout.
func (r *repository) Balance(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND type IN ?", vendorID, []enums.LedgerEntryType{
			enums.LedgerEntryTypeVendorPayout,
			enums.LedgerEntryTypeRefund,
			enums.LedgerEntryTypePayoutSettled,
		}).
		Find(&entries).Error; err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, entry := range entries {
		balance = balance.Add(entry.Amount)
	}
	return balance, nil
}
