// Package catalog answers price, vendor and availability questions about
// products at the moment a cart line or order line is built.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
)

// Snapshot is the current sellable view of one (product, variant).
type Snapshot struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	VendorID  uuid.UUID
	Name      string
	SKU       string
	Price     decimal.Decimal
	IsActive  bool
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("catalog repository required")
	}
	return &Service{repo: repo}, nil
}

// Lookup resolves the current price and vendor. Variant prices override the
// product price when set.
func (s *Service) Lookup(ctx context.Context, productID, variantID uuid.UUID) (*Snapshot, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", productID)).
			WithDetails(map[string]any{"product_id": productID.String()})
	}

	snap := &Snapshot{
		ProductID: product.ID,
		VendorID:  product.VendorID,
		Name:      product.Name,
		SKU:       product.SKU,
		Price:     product.Price,
		IsActive:  product.IsActive,
	}
	if variantID == uuid.Nil {
		return snap, nil
	}

	variant, err := s.repo.FindVariant(ctx, productID, variantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variant")
	}
	if variant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found", variantID)).
			WithDetails(map[string]any{"product_id": productID.String(), "variant_id": variantID.String()})
	}
	snap.VariantID = variant.ID
	snap.Name = product.Name + " - " + variant.Name
	snap.SKU = variant.SKU
	snap.IsActive = product.IsActive && variant.IsActive
	if variant.Price != nil {
		snap.Price = *variant.Price
	}
	return snap, nil
}

// Exists reports whether the product is in the catalog, active or not.
func (s *Service) Exists(ctx context.Context, productID uuid.UUID) (bool, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return false, err
	}
	return product != nil, nil
}

// CreateProduct seeds a catalog entry. Used by fixtures and admin tooling.
func (s *Service) CreateProduct(ctx context.Context, product *models.Product) error {
	if product == nil || product.VendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product vendor is required")
	}
	if product.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price must not be negative")
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return nil
}

func (s *Service) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	if variant == nil || variant.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant product is required")
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product variant")
	}
	return nil
}
