package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
)

// Repository persists inventory_records.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx, or the receiver when tx is nil.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Find returns nil when no record exists for the key.
func (r *Repository) Find(ctx context.Context, productID, variantID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND variant_id = ?", productID, variantID).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DebitIfAvailable decrements on_hand by qty only when enough stock remains.
// The check and the write are one statement, so concurrent debits serialize
// on the row and can never drive on_hand below zero.
func (r *Repository) DebitIfAvailable(ctx context.Context, productID, variantID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_records
		SET on_hand = on_hand - ?,
			updated_at = ?
		WHERE product_id = ? AND variant_id = ? AND on_hand >= ?
	`, qty, time.Now().UTC(), productID, variantID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Increment adds qty to on_hand, creating the record when missing.
func (r *Repository) Increment(ctx context.Context, productID, variantID uuid.UUID, qty int) error {
	record := models.InventoryRecord{
		ProductID: productID,
		VariantID: variantID,
		OnHand:    qty,
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "variant_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "on_hand"}, Value: gorm.Expr("inventory_records.on_hand + excluded.on_hand")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
	}).Create(&record).Error
}

// Set overwrites on_hand, creating the record when missing.
func (r *Repository) Set(ctx context.Context, productID, variantID uuid.UUID, onHand int) error {
	record := models.InventoryRecord{
		ProductID: productID,
		VariantID: variantID,
		OnHand:    onHand,
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "variant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"on_hand", "updated_at"}),
	}).Create(&record).Error
}
