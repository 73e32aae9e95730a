package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
)

const defaultPayoutPeriod = 7 * 24 * time.Hour

type VendorPayoutJobParams struct {
	Logger *logger.Logger
	Ledger payoutCreator
	Period time.Duration
}

type payoutCreator interface {
	CreatePayouts(ctx context.Context, periodStart, periodEnd time.Time) ([]models.VendorPayout, error)
}

// NewVendorPayoutJob settles vendor ledger balances accrued before the last
// closed period boundary into pending payouts. Entries already claimed by a
// payout are skipped, so repeated runs inside one period create nothing new.
func NewVendorPayoutJob(params VendorPayoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	period := params.Period
	if period <= 0 {
		period = defaultPayoutPeriod
	}
	return &vendorPayoutJob{
		logg:   params.Logger,
		ledger: params.Ledger,
		period: period,
		now:    time.Now,
	}, nil
}

type vendorPayoutJob struct {
	logg   *logger.Logger
	ledger payoutCreator
	period time.Duration
	now    func() time.Time
}

func (j *vendorPayoutJob) Name() string { return "vendor-payouts" }

func (j *vendorPayoutJob) Run(ctx context.Context) error {
	periodEnd := j.now().UTC().Truncate(j.period)
	periodStart := periodEnd.Add(-j.period)

	payouts, err := j.ledger.CreatePayouts(ctx, periodStart, periodEnd)
	if err != nil {
		return fmt.Errorf("create vendor payouts (%d created before failure): %w", len(payouts), err)
	}
	total := decimal.Zero
	for _, payout := range payouts {
		total = total.Add(payout.Amount)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"period_start": periodStart,
		"period_end":   periodEnd,
		"payouts":      len(payouts),
		"payout_total": money.Format(total),
	})
	j.logg.Info(logCtx, "vendor payouts created")
	return nil
}
