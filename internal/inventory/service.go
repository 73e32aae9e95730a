package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
)

// DebitResult reports the stock left after a successful debit.
type DebitResult struct {
	NewQuantity int
}

// Service is the inventory ledger. Write operations accept the caller's
// transaction so stock moves commit or roll back with the surrounding order.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("inventory repository required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// TryDebit atomically removes qty units or fails with insufficient_stock.
func (s *Service) TryDebit(ctx context.Context, tx *gorm.DB, productID, variantID uuid.UUID, qty int) (DebitResult, error) {
	if err := validateKey(productID, qty); err != nil {
		return DebitResult{}, err
	}
	repo := s.repo.WithTx(tx)

	ok, err := repo.DebitIfAvailable(ctx, productID, variantID, qty)
	if err != nil {
		return DebitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit inventory")
	}

	record, err := repo.Find(ctx, productID, variantID)
	if err != nil {
		return DebitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	available := 0
	if record != nil {
		available = record.OnHand
	}
	if !ok {
		return DebitResult{}, InsufficientStock(productID, variantID, qty, available)
	}
	return DebitResult{NewQuantity: available}, nil
}

// Credit returns qty units to stock. Callers own idempotency.
func (s *Service) Credit(ctx context.Context, tx *gorm.DB, productID, variantID uuid.UUID, qty int) (int, error) {
	if err := validateKey(productID, qty); err != nil {
		return 0, err
	}
	repo := s.repo.WithTx(tx)
	if err := repo.Increment(ctx, productID, variantID, qty); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit inventory")
	}
	record, err := repo.Find(ctx, productID, variantID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	if record == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "inventory record missing after credit")
	}
	return record.OnHand, nil
}

// CheckAvailability is advisory only; a later TryDebit may still fail.
func (s *Service) CheckAvailability(ctx context.Context, productID, variantID uuid.UUID, qty int) (bool, error) {
	if err := validateKey(productID, qty); err != nil {
		return false, err
	}
	record, err := s.repo.Find(ctx, productID, variantID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return record != nil && record.OnHand >= qty, nil
}

// SetStock overwrites the on-hand count for an admin restock.
func (s *Service) SetStock(ctx context.Context, productID, variantID uuid.UUID, onHand int) (*models.InventoryRecord, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if onHand < 0 {
		return nil, pkgerrors.Reject(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidQuantity, "on hand must not be negative")
	}
	if err := s.repo.Set(ctx, productID, variantID, onHand); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set inventory")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id": productID.String(),
			"variant_id": variantID.String(),
			"on_hand":    onHand,
		})
		s.logg.Info(logCtx, "inventory restocked")
	}
	return s.Get(ctx, productID, variantID)
}

func (s *Service) Get(ctx context.Context, productID, variantID uuid.UUID) (*models.InventoryRecord, error) {
	record, err := s.repo.Find(ctx, productID, variantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	}
	return record, nil
}

// InsufficientStock builds the conflict error returned when a debit cannot be covered.
func InsufficientStock(productID, variantID uuid.UUID, requested, available int) error {
	return pkgerrors.Reject(
		pkgerrors.CodeConflict,
		pkgerrors.ReasonInsufficientStock,
		fmt.Sprintf("insufficient stock for product %s", productID),
	).WithDetails(map[string]any{
		"reason":     pkgerrors.ReasonInsufficientStock,
		"product_id": productID.String(),
		"variant_id": variantID.String(),
		"requested":  requested,
		"available":  available,
	})
}

func validateKey(productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return pkgerrors.Reject(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidQuantity, "quantity must be positive")
	}
	return nil
}
