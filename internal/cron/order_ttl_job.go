package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/marketplace-engine/internal/orders"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
)

const (
	defaultPendingOrderTTL = 48 * time.Hour
	orderExpiryBatchSize   = 100
	orderExpiryMaxBatches  = 20
)

// OrderTTLJobParams configure the unpaid order expiry job.
type OrderTTLJobParams struct {
	Logger     *logger.Logger
	Orders     unpaidOrderExpirer
	Dispatcher eventDispatcher
	TTL        time.Duration
	BatchSize  int
}

type unpaidOrderExpirer interface {
	ExpireUnpaidOrders(ctx context.Context, cutoff time.Time, limit int) (*orders.ExpiryResult, error)
}

type eventDispatcher interface {
	Dispatch(ctx context.Context, events ...outbox.DomainEvent)
}

// NewOrderTTLJob builds the cron job that cancels orders left unpaid past the TTL.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("event dispatcher required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = orderExpiryBatchSize
	}
	return &orderTTLJob{
		logg:       params.Logger,
		orders:     params.Orders,
		dispatcher: params.Dispatcher,
		ttl:        ttl,
		batch:      batch,
		now:        time.Now,
	}, nil
}

type orderTTLJob struct {
	logg       *logger.Logger
	orders     unpaidOrderExpirer
	dispatcher eventDispatcher
	ttl        time.Duration
	batch      int
	now        func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	cancelled, skipped := 0, 0
	for i := 0; i < orderExpiryMaxBatches; i++ {
		result, err := j.orders.ExpireUnpaidOrders(ctx, cutoff, j.batch)
		if result != nil {
			cancelled += result.Cancelled
			skipped += result.Skipped
			if len(result.Events) > 0 {
				j.dispatcher.Dispatch(ctx, result.Events...)
			}
		}
		if err != nil {
			return fmt.Errorf("expire unpaid orders: %w", err)
		}
		if result == nil || result.Cancelled+result.Skipped < j.batch {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"orders_expired": cancelled,
		"orders_skipped": skipped,
		"ttl_hours":      j.ttl.Hours(),
	})
	j.logg.Info(logCtx, "unpaid order expiry complete")
	return nil
}
