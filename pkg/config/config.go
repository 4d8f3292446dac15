package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Inventory     InventoryConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"STOCKTRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKTRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKTRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKTRACK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKTRACK_DB_DSN"`
	Driver string `envconfig:"STOCKTRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKTRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKTRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKTRACK_DB_USER"`
	LegacyPassword string `envconfig:"STOCKTRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKTRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKTRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"STOCKTRACK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"STOCKTRACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"STOCKTRACK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"STOCKTRACK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOCKTRACK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOCKTRACK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOCKTRACK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOCKTRACK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOCKTRACK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOCKTRACK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"STOCKTRACK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOCKTRACK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"STOCKTRACK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"STOCKTRACK_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"STOCKTRACK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOCKTRACK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOCKTRACK_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"STOCKTRACK_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type InventoryConfig struct {
	ExpiryWarningDays int `envconfig:"STOCKTRACK_INVENTORY_EXPIRY_WARNING_DAYS" default:"7"`
	LowStockNotifyHrs int `envconfig:"STOCKTRACK_INVENTORY_LOW_STOCK_NOTIFY_HOURS" default:"24"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOCKTRACK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"STOCKTRACK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOCKTRACK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"STOCKTRACK_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"STOCKTRACK_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset        string `envconfig:"STOCKTRACK_BIGQUERY_DATASET" default:"stocktrack"`
	SaleFactsTable string `envconfig:"STOCKTRACK_BIGQUERY_SALE_FACTS_TABLE" default:"sale_facts"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOCKTRACK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOCKTRACK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOCKTRACK_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
