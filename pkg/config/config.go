package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Events       EventsConfig
	Checkout     CheckoutConfig
	Square       SquareConfig
	Cron         CronConfig
	HTTP         HTTPConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKETPLACE_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETPLACE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKETPLACE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETPLACE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"MARKETPLACE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETPLACE_DB_DSN"`
	Driver string `envconfig:"MARKETPLACE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETPLACE_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETPLACE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETPLACE_DB_USER"`
	LegacyPassword string `envconfig:"MARKETPLACE_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETPLACE_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETPLACE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETPLACE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETPLACE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETPLACE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETPLACE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETPLACE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARKETPLACE_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETPLACE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETPLACE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETPLACE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETPLACE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETPLACE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETPLACE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETPLACE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for tokens minted by the identity service.
type JWTConfig struct {
	Secret            string `envconfig:"MARKETPLACE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARKETPLACE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARKETPLACE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// HTTPConfig controls the API listener and browser access.
type HTTPConfig struct {
	AllowedOrigins  []string      `envconfig:"MARKETPLACE_HTTP_ALLOWED_ORIGINS"`
	ReadTimeout     time.Duration `envconfig:"MARKETPLACE_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"MARKETPLACE_HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"MARKETPLACE_HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"MARKETPLACE_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

type RateLimitConfig struct {
	CouponWindow    time.Duration `envconfig:"MARKETPLACE_RATE_LIMIT_COUPON_WINDOW" default:"1m"`
	CouponIPLimit   int           `envconfig:"MARKETPLACE_RATE_LIMIT_COUPON_IP" default:"30"`
	CouponUserLimit int           `envconfig:"MARKETPLACE_RATE_LIMIT_COUPON_USER" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETPLACE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"MARKETPLACE_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"MARKETPLACE_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	CommerceTopic            string `envconfig:"MARKETPLACE_PUBSUB_COMMERCE_TOPIC" default:"commerce-events"`
	NotificationSubscription string `envconfig:"MARKETPLACE_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"commerce-events-notifications"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MARKETPLACE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MARKETPLACE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MARKETPLACE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"MARKETPLACE_OUTBOX_RETENTION_DAYS" default:"30"`
}

type EventsConfig struct {
	QueueSize       int           `envconfig:"MARKETPLACE_EVENTS_QUEUE_SIZE" default:"1024"`
	WriteTimeout    time.Duration `envconfig:"MARKETPLACE_EVENTS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL  time.Duration `envconfig:"MARKETPLACE_EVENTS_IDEMPOTENCY_TTL" default:"720h"`
	ShutdownTimeout time.Duration `envconfig:"MARKETPLACE_EVENTS_SHUTDOWN_TIMEOUT" default:"10s"`
}

// CheckoutConfig carries the pricing knobs the order assembler applies.
type CheckoutConfig struct {
	Currency              string            `envconfig:"MARKETPLACE_CHECKOUT_CURRENCY" default:"USD"`
	FlatShipping          string            `envconfig:"MARKETPLACE_CHECKOUT_FLAT_SHIPPING" default:"10.00"`
	ShippingZones         map[string]string `envconfig:"MARKETPLACE_CHECKOUT_SHIPPING_ZONES"`
	TaxRatePercent        string            `envconfig:"MARKETPLACE_CHECKOUT_TAX_RATE_PERCENT" default:"10"`
	DefaultCommissionRate string            `envconfig:"MARKETPLACE_COMMISSION_DEFAULT_RATE" default:"10"`
	OrderSequenceBackend  string            `envconfig:"MARKETPLACE_ORDER_SEQUENCE_BACKEND" default:"db"`
}

// FlatShippingAmount parses the flat shipping fee.
func (c CheckoutConfig) FlatShippingAmount() decimal.Decimal {
	return mustDecimal(c.FlatShipping)
}

// TaxRate parses the tax percentage.
func (c CheckoutConfig) TaxRate() decimal.Decimal {
	return mustDecimal(c.TaxRatePercent)
}

// CommissionRate parses the platform default commission percentage.
func (c CheckoutConfig) CommissionRate() decimal.Decimal {
	return mustDecimal(c.DefaultCommissionRate)
}

// ZoneRates parses the per-country shipping table. Keys are upper-cased ISO country codes.
func (c CheckoutConfig) ZoneRates() map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal, len(c.ShippingZones))
	for country, raw := range c.ShippingZones {
		rates[strings.ToUpper(strings.TrimSpace(country))] = mustDecimal(raw)
	}
	return rates
}

func (c CheckoutConfig) validate() error {
	checks := map[string]string{
		EnvCheckoutFlatShipping:  c.FlatShipping,
		EnvCheckoutTaxRate:       c.TaxRatePercent,
		EnvCommissionDefaultRate: c.DefaultCommissionRate,
	}
	for env, raw := range checks {
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be a decimal: %w", env, err)
		}
		if value.IsNegative() {
			return fmt.Errorf("%s must not be negative", env)
		}
	}
	if c.TaxRate().GreaterThan(decimal.NewFromInt(100)) || c.CommissionRate().GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("percentages must be at most 100")
	}
	for country, raw := range c.ShippingZones {
		if _, err := decimal.NewFromString(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("shipping zone %q: %w", country, err)
		}
	}
	switch strings.ToLower(c.OrderSequenceBackend) {
	case SequenceBackendDB, SequenceBackendRedis:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvOrderSequenceBackend, SequenceBackendDB, SequenceBackendRedis)
	}
	return nil
}

func mustDecimal(raw string) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return value
}

type SquareConfig struct {
	AccessToken   string `envconfig:"MARKETPLACE_SQUARE_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"MARKETPLACE_SQUARE_WEBHOOK_SECRET"`
	WebhookURL    string `envconfig:"MARKETPLACE_SQUARE_WEBHOOK_URL"`
	Env           string `envconfig:"MARKETPLACE_SQUARE_ENV" default:"sandbox"`
}

// Enabled reports whether Square credentials are configured.
func (s SquareConfig) Enabled() bool {
	return strings.TrimSpace(s.AccessToken) != "" && strings.TrimSpace(s.WebhookSecret) != ""
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"MARKETPLACE_CRON_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"MARKETPLACE_CRON_LOCK_TTL" default:"55m"`
	JobTimeout      time.Duration `envconfig:"MARKETPLACE_CRON_JOB_TIMEOUT" default:"15m"`
	PendingOrderTTL time.Duration `envconfig:"MARKETPLACE_CRON_PENDING_ORDER_TTL" default:"48h"`
	PayoutPeriod    time.Duration `envconfig:"MARKETPLACE_CRON_PAYOUT_PERIOD" default:"168h"`
	OrderBatchSize  int           `envconfig:"MARKETPLACE_CRON_ORDER_BATCH_SIZE" default:"100"`

	NotificationRetentionDays int `envconfig:"MARKETPLACE_CRON_NOTIFICATION_RETENTION_DAYS" default:"90"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
