package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-engine/api/middleware"
	"github.com/angelmondragon/marketplace-engine/api/responses"
	"github.com/angelmondragon/marketplace-engine/api/validators"
	"github.com/angelmondragon/marketplace-engine/internal/reviews"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/pagination"
)

type reviewService interface {
	Submit(ctx context.Context, input reviews.SubmitInput) (*models.Review, error)
	ListForProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error)
}

type submitReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title" validate:"omitempty,max=200"`
	Comment string `json:"comment" validate:"omitempty,max=5000"`
}

type reviewView struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"product_id"`
	BuyerID            uuid.UUID `json:"buyer_id"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title,omitempty"`
	Comment            string    `json:"comment,omitempty"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
}

// SubmitReview records the caller's review of a product. Rating bounds are
// enforced by the review service so the reason code reaches the client.
func SubmitReview(svc reviewService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}
		buyerID, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Submit(r.Context(), reviews.SubmitInput{
			ProductID: productID,
			BuyerID:   buyerID,
			Rating:    payload.Rating,
			Title:     validators.SanitizeString(payload.Title, 200),
			Comment:   validators.SanitizeString(payload.Comment, 5000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newReviewView(*review))
	}
}

// ListReviews returns the newest reviews of a product.
func ListReviews(svc reviewService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForProduct(r.Context(), productID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]reviewView, 0, len(rows))
		for _, row := range rows {
			views = append(views, newReviewView(row))
		}
		responses.WriteSuccess(w, views)
	}
}

func newReviewView(review models.Review) reviewView {
	return reviewView{
		ID:                 review.ID,
		ProductID:          review.ProductID,
		BuyerID:            review.BuyerID,
		Rating:             review.Rating,
		Title:              review.Title,
		Comment:            review.Comment,
		IsVerifiedPurchase: review.IsVerifiedPurchase,
		CreatedAt:          review.CreatedAt,
	}
}
