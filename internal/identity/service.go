// Package identity exposes the buyer, vendor and address facts the commerce
// engine needs from the identity service's tables.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("identity repository required")
	}
	return &Service{repo: repo}, nil
}

// GetBuyer returns the active user or a not-found error.
func (s *Service) GetBuyer(ctx context.Context, buyerID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindUser(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}
	if user == nil || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("buyer %s not found", buyerID))
	}
	return user, nil
}

// OwnedAddress loads addressID and verifies it belongs to buyerID.
func (s *Service) OwnedAddress(ctx context.Context, buyerID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindAddress(ctx, addressID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address == nil || address.UserID != buyerID {
		return nil, pkgerrors.Reject(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidAddress, "address does not belong to buyer").
			WithDetails(map[string]any{"reason": pkgerrors.ReasonInvalidAddress, "address_id": addressID.String()})
	}
	return address, nil
}

// VendorCommissionRate returns the vendor's negotiated rate, or nil when the
// platform default applies.
func (s *Service) VendorCommissionRate(ctx context.Context, vendorID uuid.UUID) (*decimal.Decimal, error) {
	vendor, err := s.repo.FindVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if vendor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("vendor %s not found", vendorID))
	}
	return vendor.CommissionRate, nil
}

func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return nil
}

func (s *Service) CreateVendor(ctx context.Context, vendor *models.Vendor) error {
	if err := s.repo.CreateVendor(ctx, vendor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	return nil
}

func (s *Service) CreateAddress(ctx context.Context, address *models.Address) error {
	if err := s.repo.CreateAddress(ctx, address); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return nil
}
