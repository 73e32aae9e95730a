package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketplace-engine/api/middleware"
	"github.com/angelmondragon/marketplace-engine/internal/reviews"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
)

type stubReviewService struct {
	submitFn func(ctx context.Context, input reviews.SubmitInput) (*models.Review, error)
	listFn   func(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error)
}

func (s stubReviewService) Submit(ctx context.Context, input reviews.SubmitInput) (*models.Review, error) {
	return s.submitFn(ctx, input)
}

func (s stubReviewService) ListForProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error) {
	return s.listFn(ctx, productID, limit)
}

func TestSubmitReviewCreated(t *testing.T) {
	buyerID := uuid.New()
	productID := uuid.New()
	svc := stubReviewService{submitFn: func(_ context.Context, input reviews.SubmitInput) (*models.Review, error) {
		require.Equal(t, buyerID, input.BuyerID)
		require.Equal(t, productID, input.ProductID)
		require.Equal(t, 4, input.Rating)
		require.Equal(t, "Solid", input.Title)
		return &models.Review{
			ID:                 uuid.New(),
			ProductID:          input.ProductID,
			BuyerID:            input.BuyerID,
			Rating:             input.Rating,
			Title:              input.Title,
			IsVerifiedPurchase: true,
			CreatedAt:          time.Now().UTC(),
		}, nil
	}}

	body := strings.NewReader(`{"rating":4,"title":"  Solid  "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+productID.String()+"/reviews", body)
	req = req.WithContext(middleware.WithUserID(req.Context(), buyerID.String()))
	req = addRouteParam(req, "productId", productID.String())
	resp := httptest.NewRecorder()
	SubmitReview(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	var envelope struct {
		Data reviewView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.True(t, envelope.Data.IsVerifiedPurchase)
	require.Equal(t, 4, envelope.Data.Rating)
}

func TestSubmitReviewSurfacesRatingReason(t *testing.T) {
	productID := uuid.New()
	svc := stubReviewService{submitFn: func(context.Context, reviews.SubmitInput) (*models.Review, error) {
		return nil, pkgerrors.Reject(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidRating, "rating must be between 1 and 5")
	}}

	body := strings.NewReader(`{"rating":9}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+productID.String()+"/reviews", body)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	req = addRouteParam(req, "productId", productID.String())
	resp := httptest.NewRecorder()
	SubmitReview(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), pkgerrors.ReasonInvalidRating)
}

func TestListReviewsUsesLimit(t *testing.T) {
	productID := uuid.New()
	svc := stubReviewService{listFn: func(_ context.Context, pid uuid.UUID, limit int) ([]models.Review, error) {
		require.Equal(t, productID, pid)
		require.Equal(t, 3, limit)
		return []models.Review{{ID: uuid.New(), ProductID: pid, Rating: 5}}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+productID.String()+"/reviews?limit=3", nil)
	req = addRouteParam(req, "productId", productID.String())
	resp := httptest.NewRecorder()
	ListReviews(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data []reviewView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
}
