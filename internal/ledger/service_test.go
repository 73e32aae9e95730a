package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketplace-engine/pkg/db"
	"github.com/angelmondragon/marketplace-engine/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), client, nil)
	require.NoError(t, err)
	return svc, client
}

func paidOrder(vendorA, vendorB uuid.UUID) *models.Order {
	return &models.Order{
		ID: uuid.New(),
		Lines: []models.OrderLine{
			{ID: uuid.New(), VendorID: vendorA, LineTotal: dec("100.00"), CommissionRate: dec("10"), CommissionAmount: dec("10.00"), VendorPayout: dec("90.00")},
			{ID: uuid.New(), VendorID: vendorB, LineTotal: dec("50.00"), CommissionRate: dec("20"), CommissionAmount: dec("10.00"), VendorPayout: dec("40.00")},
		},
	}
}

func TestAccrueOrderWritesCommissionAndPayoutPerLine(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)
	vendorA, vendorB := uuid.New(), uuid.New()
	order := paidOrder(vendorA, vendorB)

	require.NoError(t, svc.AccrueOrder(ctx, client.DB(), order))

	entries, err := svc.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	balanceA, err := svc.Balance(ctx, vendorA)
	require.NoError(t, err)
	require.True(t, balanceA.Equal(dec("90")), "got %s", balanceA)
}

func TestReverseForRefundWholeOrderConsumesLinesInOrder(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)
	vendorA, vendorB := uuid.New(), uuid.New()
	order := paidOrder(vendorA, vendorB)
	require.NoError(t, svc.AccrueOrder(ctx, client.DB(), order))

	// 120 covers line A fully and 20 of line B; shipping and tax are ignored.
	require.NoError(t, svc.ReverseForRefund(ctx, client.DB(), order, nil, dec("120.00")))

	balanceA, err := svc.Balance(ctx, vendorA)
	require.NoError(t, err)
	require.True(t, balanceA.IsZero(), "got %s", balanceA)

	balanceB, err := svc.Balance(ctx, vendorB)
	require.NoError(t, err)
	require.True(t, balanceB.Equal(dec("24")), "got %s", balanceB)
}

func TestReverseForRefundSingleLine(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)
	vendorA, vendorB := uuid.New(), uuid.New()
	order := paidOrder(vendorA, vendorB)
	require.NoError(t, svc.AccrueOrder(ctx, client.DB(), order))

	lineID := order.Lines[1].ID
	require.NoError(t, svc.ReverseForRefund(ctx, client.DB(), order, &lineID, dec("25.00")))

	balanceA, err := svc.Balance(ctx, vendorA)
	require.NoError(t, err)
	require.True(t, balanceA.Equal(dec("90")))

	balanceB, err := svc.Balance(ctx, vendorB)
	require.NoError(t, err)
	require.True(t, balanceB.Equal(dec("20")), "got %s", balanceB)
}

func TestCreatePayoutsSettlesBalances(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)
	vendorA, vendorB := uuid.New(), uuid.New()
	order := paidOrder(vendorA, vendorB)
	require.NoError(t, svc.AccrueOrder(ctx, client.DB(), order))

	end := time.Now().Add(time.Minute)
	payouts, err := svc.CreatePayouts(ctx, end.Add(-7*24*time.Hour), end)
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	for _, payout := range payouts {
		require.Equal(t, enums.PayoutStatusPending, payout.Status)
		require.Equal(t, 1, payout.EntryCount)
	}

	for _, vendor := range []uuid.UUID{vendorA, vendorB} {
		balance, err := svc.Balance(ctx, vendor)
		require.NoError(t, err)
		require.True(t, balance.IsZero(), "vendor %s balance %s", vendor, balance)
	}

	again, err := svc.CreatePayouts(ctx, end.Add(-7*24*time.Hour), end)
	require.NoError(t, err)
	require.Empty(t, again, "entries already claimed must not be paid twice")
}

func TestCreatePayoutsSkipsEntriesAfterPeriod(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)
	require.NoError(t, svc.AccrueOrder(ctx, client.DB(), paidOrder(uuid.New(), uuid.New())))

	end := time.Now().Add(-time.Hour)
	payouts, err := svc.CreatePayouts(ctx, end.Add(-24*time.Hour), end)
	require.NoError(t, err)
	require.Empty(t, payouts)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
	client := dbtest.Open(t)
	if _, err := NewService(NewRepository(client.DB()), nil, nil); err == nil {
		t.Fatal("expected error for nil tx runner")
	}
}
