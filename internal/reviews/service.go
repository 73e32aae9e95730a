package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	dbpkg "github.com/angelmondragon/marketplace-engine/pkg/db"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/pagination"
)

const (
	minRating = 1
	maxRating = 5
)

type purchaseChecker interface {
	HasDeliveredPurchase(ctx context.Context, buyerID, productID uuid.UUID) (bool, error)
}

type productLookup interface {
	Exists(ctx context.Context, productID uuid.UUID) (bool, error)
}

type SubmitInput struct {
	ProductID uuid.UUID
	BuyerID   uuid.UUID
	Rating    int
	Title     string
	Comment   string
}

type Service struct {
	repo      *Repository
	purchases purchaseChecker
	products  productLookup
	logg      *logger.Logger
}

func NewService(repo *Repository, purchases purchaseChecker, products productLookup, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if purchases == nil {
		return nil, fmt.Errorf("purchase checker required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &Service{repo: repo, purchases: purchases, products: products, logg: logg}, nil
}

// Submit stores a buyer's review. Whether it counts as a verified purchase is
// decided from the buyer's orders, never from the request.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*models.Review, error) {
	if input.ProductID == uuid.Nil || input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and buyer are required")
	}
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, pkgerrors.Reject(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidRating,
			fmt.Sprintf("rating must be between %d and %d", minRating, maxRating)).
			WithDetails(map[string]any{"reason": pkgerrors.ReasonInvalidRating, "rating": input.Rating})
	}

	exists, err := s.products.Exists(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", input.ProductID))
	}

	verified, err := s.purchases.HasDeliveredPurchase(ctx, input.BuyerID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase history")
	}

	review := &models.Review{
		ProductID:          input.ProductID,
		BuyerID:            input.BuyerID,
		Rating:             input.Rating,
		Title:              strings.TrimSpace(input.Title),
		Comment:            strings.TrimSpace(input.Comment),
		IsVerifiedPurchase: verified,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed by this buyer")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist review")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"review_id":  review.ID.String(),
			"product_id": review.ProductID.String(),
			"verified":   verified,
		})
		s.logg.Info(logCtx, "review submitted")
	}
	return review, nil
}

func (s *Service) ListForProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error) {
	rows, err := s.repo.ListByProduct(ctx, productID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return rows, nil
}
