package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GARAGIO_DB_DSN"
	EnvDBHost = "GARAGIO_DB_HOST"
	EnvDBUser = "GARAGIO_DB_USER"
	EnvDBName = "GARAGIO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Settlement   SettlementConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GARAGIO_APP_ENV" required:"true"`
	Port         string `envconfig:"GARAGIO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GARAGIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GARAGIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GARAGIO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GARAGIO_DB_DSN"`
	Driver string `envconfig:"GARAGIO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GARAGIO_DB_HOST"`
	LegacyPort     int    `envconfig:"GARAGIO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GARAGIO_DB_USER"`
	LegacyPassword string `envconfig:"GARAGIO_DB_PASSWORD"`
	LegacyName     string `envconfig:"GARAGIO_DB_NAME"`
	LegacySSLMode  string `envconfig:"GARAGIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GARAGIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GARAGIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GARAGIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GARAGIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GARAGIO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GARAGIO_REDIS_ADDR"`
	Password     string        `envconfig:"GARAGIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"GARAGIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GARAGIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GARAGIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GARAGIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GARAGIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GARAGIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GARAGIO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GARAGIO_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GARAGIO_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"GARAGIO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GARAGIO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"GARAGIO_PUBSUB_DOMAIN_TOPIC" default:"garagio-settlement-events"`
	DomainSubscription string `envconfig:"GARAGIO_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type StripeConfig struct {
	APIKey string `envconfig:"GARAGIO_STRIPE_API_KEY"`
	Env    string `envconfig:"GARAGIO_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GARAGIO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GARAGIO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GARAGIO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	TickInterval time.Duration `envconfig:"GARAGIO_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL      time.Duration `envconfig:"GARAGIO_CRON_LOCK_TTL" default:"5m"`
	MetricsPort  string        `envconfig:"GARAGIO_CRON_METRICS_PORT" default:"9464"`
}

type SettlementConfig struct {
	// CommissionRate is the marketplace cut applied when scheduling payouts,
	// expressed as a decimal fraction string, e.g. "0.15".
	CommissionRate string `envconfig:"GARAGIO_SETTLEMENT_COMMISSION_RATE" default:"0.15"`
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
