// Package app assembles the commerce services shared by the API and the
// background binaries.
package app

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/marketplace-engine/internal/cart"
	"github.com/angelmondragon/marketplace-engine/internal/catalog"
	"github.com/angelmondragon/marketplace-engine/internal/coupons"
	"github.com/angelmondragon/marketplace-engine/internal/events"
	"github.com/angelmondragon/marketplace-engine/internal/identity"
	"github.com/angelmondragon/marketplace-engine/internal/inventory"
	"github.com/angelmondragon/marketplace-engine/internal/ledger"
	"github.com/angelmondragon/marketplace-engine/internal/notifications"
	"github.com/angelmondragon/marketplace-engine/internal/orders"
	"github.com/angelmondragon/marketplace-engine/internal/payments"
	"github.com/angelmondragon/marketplace-engine/internal/returns"
	"github.com/angelmondragon/marketplace-engine/internal/reviews"
	"github.com/angelmondragon/marketplace-engine/pkg/config"
	"github.com/angelmondragon/marketplace-engine/pkg/db"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/metrics"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
	"github.com/angelmondragon/marketplace-engine/pkg/redis"
)

type Params struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client
	Metrics *metrics.CommerceMetrics
}

// Services holds every constructed domain service. The dispatcher is built
// but not started; callers own its lifecycle.
type Services struct {
	Catalog       *catalog.Service
	Identity      *identity.Service
	Inventory     *inventory.Service
	Coupons       *coupons.Service
	Cart          cart.Service
	Ledger        ledger.Service
	OrdersRepo    *orders.Repository
	Orders        *orders.Service
	Payments      *payments.Service
	Returns       *returns.Service
	Reviews       *reviews.Service
	Notifications notifications.Service

	NotificationsRepo notifications.Repository
	OutboxRepo        *outbox.Repository
	Dispatcher        *events.Dispatcher
}

func Build(params Params) (*Services, error) {
	if params.Config == nil || params.Logger == nil || params.DB == nil {
		return nil, fmt.Errorf("config, logger and database are required")
	}
	cfg, logg, dbClient := params.Config, params.Logger, params.DB
	conn := dbClient.DB()

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	identitySvc, err := identity.NewService(identity.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("identity service: %w", err)
	}
	inventorySvc, err := inventory.NewService(inventory.NewRepository(conn), logg)
	if err != nil {
		return nil, fmt.Errorf("inventory service: %w", err)
	}
	couponsSvc, err := coupons.NewService(coupons.NewRepository(conn), logg)
	if err != nil {
		return nil, fmt.Errorf("coupon service: %w", err)
	}
	cartSvc, err := cart.NewService(cart.NewRepository(conn), catalogSvc, inventorySvc, logg)
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), dbClient, logg)
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}

	sequencer, err := newSequencer(cfg.Checkout, dbClient, params.Redis)
	if err != nil {
		return nil, err
	}

	ordersRepo := orders.NewRepository(conn)
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      ordersRepo,
		Tx:        dbClient,
		Carts:     cartSvc,
		Catalog:   catalogSvc,
		Identity:  identitySvc,
		Coupons:   couponsSvc,
		Stock:     inventorySvc,
		Ledger:    ledgerSvc,
		Sequencer: sequencer,
		Pricing:   orders.PricingFromConfig(cfg.Checkout),
		Metrics:   params.Metrics,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	paymentsSvc, err := payments.NewService(payments.ServiceParams{
		Repo:    payments.NewRepository(conn),
		Orders:  ordersRepo,
		Tx:      dbClient,
		Ledger:  ledgerSvc,
		Metrics: params.Metrics,
		Logger:  logg,
	})
	if err != nil {
		return nil, fmt.Errorf("payments service: %w", err)
	}

	returnsSvc, err := returns.NewService(returns.ServiceParams{
		Repo:    returns.NewRepository(conn),
		Orders:  ordersRepo,
		Tx:      dbClient,
		Refunds: paymentsSvc,
		Stock:   inventorySvc,
		Metrics: params.Metrics,
		Logger:  logg,
	})
	if err != nil {
		return nil, fmt.Errorf("returns service: %w", err)
	}

	reviewsSvc, err := reviews.NewService(reviews.NewRepository(conn), ordersRepo, catalogSvc, logg)
	if err != nil {
		return nil, fmt.Errorf("reviews service: %w", err)
	}

	notificationsRepo := notifications.NewRepository(conn)
	notificationsSvc, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}

	outboxRepo := outbox.NewRepository(conn)
	dispatcher, err := events.NewDispatcher(events.Options{
		QueueSize:    cfg.Events.QueueSize,
		WriteTimeout: cfg.Events.WriteTimeout,
		Tx:           dbClient,
		Emitter:      outbox.NewService(outboxRepo, logg),
		Metrics:      params.Metrics,
		Logger:       logg,
	})
	if err != nil {
		return nil, fmt.Errorf("event dispatcher: %w", err)
	}

	return &Services{
		Catalog:       catalogSvc,
		Identity:      identitySvc,
		Inventory:     inventorySvc,
		Coupons:       couponsSvc,
		Cart:          cartSvc,
		Ledger:        ledgerSvc,
		OrdersRepo:    ordersRepo,
		Orders:        ordersSvc,
		Payments:      paymentsSvc,
		Returns:       returnsSvc,
		Reviews:       reviewsSvc,
		Notifications: notificationsSvc,

		NotificationsRepo: notificationsRepo,
		OutboxRepo:        outboxRepo,
		Dispatcher:        dispatcher,
	}, nil
}

func newSequencer(cfg config.CheckoutConfig, dbClient *db.Client, redisClient *redis.Client) (orders.Sequencer, error) {
	if strings.EqualFold(cfg.OrderSequenceBackend, config.SequenceBackendRedis) {
		if redisClient == nil {
			return nil, fmt.Errorf("redis order sequence selected without a redis client")
		}
		return orders.NewRedisSequencer(redisClient), nil
	}
	return orders.NewDaySequencer(dbClient.DB()), nil
}
