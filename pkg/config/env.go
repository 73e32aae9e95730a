package config

const EnvPrefix = "MARKETPLACE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	SequenceBackendDB    = "db"
	SequenceBackendRedis = "redis"
)

const (
	EnvAppEnv       = "MARKETPLACE_APP_ENV"
	EnvPort         = "MARKETPLACE_APP_PORT"
	EnvLogLevel     = "MARKETPLACE_LOG_LEVEL"
	EnvServiceKind  = "MARKETPLACE_SERVICE_KIND"
	EnvAutoMigrate  = "MARKETPLACE_AUTO_MIGRATE"
	EnvLogWarnStack = "MARKETPLACE_LOG_WARN_STACK"

	EnvDBDSN    = "MARKETPLACE_DB_DSN"
	EnvDBDriver = "MARKETPLACE_DB_DRIVER"
	EnvDBHost   = "MARKETPLACE_DB_HOST"
	EnvDBUser   = "MARKETPLACE_DB_USER"
	EnvDBName   = "MARKETPLACE_DB_NAME"

	EnvRedisURL = "MARKETPLACE_REDIS_URL"

	EnvJWTSecret = "MARKETPLACE_JWT_SECRET"
	EnvJWTIssuer = "MARKETPLACE_JWT_ISSUER"

	EnvGCPProjectID        = "MARKETPLACE_GCP_PROJECT_ID"
	EnvPubSubCommerceTopic = "MARKETPLACE_PUBSUB_COMMERCE_TOPIC"
	EnvPubSubNotifySub     = "MARKETPLACE_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvCheckoutFlatShipping  = "MARKETPLACE_CHECKOUT_FLAT_SHIPPING"
	EnvCheckoutShippingZones = "MARKETPLACE_CHECKOUT_SHIPPING_ZONES"
	EnvCheckoutTaxRate       = "MARKETPLACE_CHECKOUT_TAX_RATE_PERCENT"
	EnvCommissionDefaultRate = "MARKETPLACE_COMMISSION_DEFAULT_RATE"
	EnvOrderSequenceBackend  = "MARKETPLACE_ORDER_SEQUENCE_BACKEND"

	EnvSquareAccessToken   = "MARKETPLACE_SQUARE_ACCESS_TOKEN"
	EnvSquareWebhookSecret = "MARKETPLACE_SQUARE_WEBHOOK_SECRET"
	EnvSquareWebhookURL    = "MARKETPLACE_SQUARE_WEBHOOK_URL"

	EnvCronPendingOrderTTL = "MARKETPLACE_CRON_PENDING_ORDER_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
