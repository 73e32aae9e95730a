package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketplace-engine/internal/ledger"
	"github.com/angelmondragon/marketplace-engine/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
)

func TestVendorPayoutJobSettlesClosedPeriod(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "test"})
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(client.DB()), client, logg)
	require.NoError(t, err)

	now := time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)
	period := 24 * time.Hour
	vendorID := uuid.New()
	orderID := uuid.New()
	entries := []models.LedgerEntry{
		{VendorID: vendorID, OrderID: orderID, Type: enums.LedgerEntryTypeVendorPayout, Amount: decimal.RequireFromString("45.00"), CreatedAt: now.Add(-30 * time.Hour)},
		{VendorID: vendorID, OrderID: orderID, Type: enums.LedgerEntryTypeRefund, Amount: decimal.RequireFromString("-5.00"), CreatedAt: now.Add(-20 * time.Hour)},
		{VendorID: vendorID, OrderID: orderID, Type: enums.LedgerEntryTypeVendorPayout, Amount: decimal.RequireFromString("12.00"), CreatedAt: now.Add(-time.Hour)},
	}
	require.NoError(t, client.DB().Create(&entries).Error)

	jobIface, err := NewVendorPayoutJob(VendorPayoutJobParams{Logger: logg, Ledger: ledgerSvc, Period: period})
	require.NoError(t, err)
	job := jobIface.(*vendorPayoutJob)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(ctx))
	require.NoError(t, job.Run(ctx))

	var payouts []models.VendorPayout
	require.NoError(t, client.DB().Find(&payouts).Error)
	require.Len(t, payouts, 1)
	require.Equal(t, "40.00", payouts[0].Amount.StringFixed(2))
	require.Equal(t, 2, payouts[0].EntryCount)
	require.True(t, payouts[0].PeriodEnd.Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)))

	balance, err := ledgerSvc.Balance(ctx, vendorID)
	require.NoError(t, err)
	require.Equal(t, "12.00", balance.StringFixed(2))
}

func TestNewVendorPayoutJobRequiresLedger(t *testing.T) {
	_, err := NewVendorPayoutJob(VendorPayoutJobParams{Logger: logger.New(logger.Options{ServiceName: "test"})})
	require.Error(t, err)
}
