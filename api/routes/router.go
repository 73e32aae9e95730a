package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketplace-engine/api/controllers"
	admincontrollers "github.com/angelmondragon/marketplace-engine/api/controllers/admin"
	cartcontrollers "github.com/angelmondragon/marketplace-engine/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/marketplace-engine/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/marketplace-engine/api/controllers/webhooks"
	"github.com/angelmondragon/marketplace-engine/api/middleware"
	"github.com/angelmondragon/marketplace-engine/internal/cart"
	"github.com/angelmondragon/marketplace-engine/internal/coupons"
	"github.com/angelmondragon/marketplace-engine/internal/events"
	"github.com/angelmondragon/marketplace-engine/internal/inventory"
	"github.com/angelmondragon/marketplace-engine/internal/notifications"
	"github.com/angelmondragon/marketplace-engine/internal/orders"
	"github.com/angelmondragon/marketplace-engine/internal/payments"
	"github.com/angelmondragon/marketplace-engine/internal/returns"
	"github.com/angelmondragon/marketplace-engine/internal/reviews"
	squarewebhook "github.com/angelmondragon/marketplace-engine/internal/webhooks/square"
	"github.com/angelmondragon/marketplace-engine/pkg/config"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/redis"
	"github.com/angelmondragon/marketplace-engine/pkg/square"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	DB      controllers.Pinger
	Redis   *redis.Client
	Metrics prometheus.Gatherer

	Cart          cart.Service
	Coupons       *coupons.Service
	Inventory     *inventory.Service
	Orders        *orders.Service
	Payments      *payments.Service
	Returns       *returns.Service
	Reviews       *reviews.Service
	Notifications notifications.Service
	Dispatcher    *events.Dispatcher

	SquareClient  *square.Client
	SquareWebhook *squarewebhook.Service
	SquareGuard   *squarewebhook.IdempotencyGuard
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins...),
	)

	gatherer := deps.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	var (
		idempotencyStore redis.IdempotencyStore
		limiterStore     middleware.RateLimitStore
	)
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		limiterStore = deps.Redis
	}

	squareHandler := webhookcontrollers.SquareWebhook(nil, nil, nil, "", logg)
	if deps.SquareWebhook != nil && deps.SquareClient != nil && deps.SquareGuard != nil {
		squareHandler = webhookcontrollers.SquareWebhook(deps.SquareWebhook, deps.SquareClient, deps.SquareGuard, cfg.Square.WebhookURL, logg)
	}

	couponPolicy := middleware.NewRateLimitPolicy(
		"coupon-validate",
		cfg.RateLimit.CouponWindow,
		cfg.RateLimit.CouponIPLimit,
		cfg.RateLimit.CouponUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readinessChecks(deps), logg))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/square", squareHandler)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
			r.Patch("/items", cartcontrollers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items", cartcontrollers.CartRemoveItem(deps.Cart, logg))
		})

		r.With(middleware.RateLimit(couponPolicy, limiterStore, logg)).
			Post("/coupons/validate", controllers.ValidateCoupon(deps.Coupons, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(deps.Orders, deps.Dispatcher, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, deps.Dispatcher, logg))
			r.Post("/{orderId}/returns", ordercontrollers.RequestReturn(deps.Returns, logg))
		})
		r.Post("/returns/{returnId}/cancel", ordercontrollers.CancelReturn(deps.Returns, logg))

		r.Route("/products/{productId}/reviews", func(r chi.Router) {
			r.Get("/", controllers.ListReviews(deps.Reviews, logg))
			r.Post("/", controllers.SubmitReview(deps.Reviews, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Post("/status", admincontrollers.UpdateOrderStatus(deps.Orders, deps.Dispatcher, logg))
			r.Post("/payments", admincontrollers.RecordPayment(deps.Payments, deps.Dispatcher, logg))
			r.Post("/refunds", admincontrollers.RecordRefund(deps.Payments, logg))
		})
		r.Route("/returns/{returnId}", func(r chi.Router) {
			r.Post("/decision", admincontrollers.DecideReturn(deps.Returns, logg))
			r.Post("/complete", admincontrollers.CompleteReturn(deps.Returns, deps.Dispatcher, logg))
		})
		r.Post("/coupons", admincontrollers.CreateCoupon(deps.Coupons, logg))
		r.Put("/inventory/{productId}", admincontrollers.SetStock(deps.Inventory, logg))
	})

	return r
}

func readinessChecks(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["db"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
