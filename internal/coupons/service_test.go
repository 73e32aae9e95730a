package coupons

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/pkg/db"
	"github.com/angelmondragon/marketplace-engine/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), nil)
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	return svc, client
}

func createCoupon(t *testing.T, svc *Service, input CreateCouponInput) *models.Coupon {
	t.Helper()
	if input.ValidFrom == nil {
		from := fixedNow.Add(-time.Hour)
		input.ValidFrom = &from
	}
	coupon, err := svc.CreateCoupon(context.Background(), input)
	require.NoError(t, err)
	return coupon
}

func TestValidateIsCaseInsensitiveAndReadOnly(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)
	createCoupon(t, svc, CreateCouponInput{Code: "save10", Kind: enums.CouponKindPercentage, Value: dec("10"), MaxDiscountAmount: decPtr("15")})

	res, err := svc.Validate(ctx, "Save10", dec("200"), uuid.New())
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.True(t, res.Discount.Equal(dec("15")), "discount %s", res.Discount)

	var stored models.Coupon
	require.NoError(t, client.DB().First(&stored, "code = ?", "SAVE10").Error)
	require.Equal(t, 0, stored.UsedCount)
}

func TestValidateUnknownCode(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Validate(context.Background(), "NOPE", dec("10"), uuid.New())
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Equal(t, ReasonUnknownCode, res.Reason)
}

func TestRedeemEnforcesPerCustomerLimit(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)
	coupon := createCoupon(t, svc, CreateCouponInput{Code: "ONCE", Kind: enums.CouponKindFixed, Value: dec("5"), PerCustomerLimit: intPtr(1)})
	customer := uuid.New()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Redeem(ctx, tx, coupon, customer, uuid.New(), dec("5"))
	}))

	res, err := svc.Validate(ctx, "ONCE", dec("20"), customer)
	require.NoError(t, err)
	require.Equal(t, ReasonCustomerLimitReached, res.Reason)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Redeem(ctx, tx, coupon, customer, uuid.New(), dec("5"))
	})
	require.True(t, pkgerrors.HasReason(err, ReasonCustomerLimitReached))

	res, err = svc.Validate(ctx, "ONCE", dec("20"), uuid.New())
	require.NoError(t, err)
	require.True(t, res.Valid, "other customers are unaffected")
}

func TestRedeemConcurrentSameCustomerOnlyOnce(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)
	coupon := createCoupon(t, svc, CreateCouponInput{Code: "ONEEACH", Kind: enums.CouponKindFixed, Value: dec("5"), PerCustomerLimit: intPtr(1)})
	customer := uuid.New()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.WithTx(ctx, func(tx *gorm.DB) error {
				return svc.Redeem(ctx, tx, coupon, customer, uuid.New(), dec("5"))
			})
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case pkgerrors.HasReason(err, ReasonCustomerLimitReached):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 2, rejected)

	// rejected redemptions roll their usage bump back
	var stored models.Coupon
	require.NoError(t, client.DB().First(&stored, "id = ?", coupon.ID).Error)
	require.Equal(t, 1, stored.UsedCount)
}

func TestRedeemLastUseOnlyOnce(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)
	coupon := createCoupon(t, svc, CreateCouponInput{Code: "LAST", Kind: enums.CouponKindFixed, Value: dec("5"), UsageLimit: intPtr(1)})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.WithTx(ctx, func(tx *gorm.DB) error {
				return svc.Redeem(ctx, tx, coupon, uuid.New(), uuid.New(), dec("5"))
			})
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case pkgerrors.HasReason(err, ReasonLimitReached):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, rejected)

	var stored models.Coupon
	require.NoError(t, client.DB().First(&stored, "id = ?", coupon.ID).Error)
	require.Equal(t, 1, stored.UsedCount)

	var redemptions int64
	require.NoError(t, client.DB().Model(&models.CouponRedemption{}).Where("coupon_id = ?", coupon.ID).Count(&redemptions).Error)
	require.EqualValues(t, 1, redemptions)
}

func TestRedeemRequiresTransaction(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Redeem(context.Background(), nil, &models.Coupon{}, uuid.New(), uuid.New(), dec("1"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestCreateCouponRejectsDuplicatesAndBadDefinitions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	createCoupon(t, svc, CreateCouponInput{Code: "DUP", Kind: enums.CouponKindFixed, Value: dec("5")})

	_, err := svc.CreateCoupon(ctx, CreateCouponInput{Code: "dup", Kind: enums.CouponKindFixed, Value: dec("5")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.CreateCoupon(ctx, CreateCouponInput{Code: "BIG", Kind: enums.CouponKindPercentage, Value: dec("150")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRejectionCarriesRule(t *testing.T) {
	err := Rejection(ReasonExpired, "SUMMER")
	require.True(t, pkgerrors.HasReason(err, ReasonExpired))
	details := pkgerrors.As(err).Details().(map[string]any)
	require.Equal(t, ReasonExpired, details["rule"])
}
