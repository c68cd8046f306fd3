package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "BITEKART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BITEKART_DB_DSN"
	EnvDBHost = "BITEKART_DB_HOST"
	EnvDBUser = "BITEKART_DB_USER"
	EnvDBName = "BITEKART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Razorpay     RazorpayConfig
	Delivery     DeliveryConfig
	Uploads      UploadsConfig
	GCS          GCSConfig
	Firebase     FirebaseConfig
	PubSub       PubSubConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"BITEKART_APP_ENV" required:"true"`
	Port         string `envconfig:"BITEKART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BITEKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BITEKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BITEKART_DB_DSN"`
	Driver string `envconfig:"BITEKART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BITEKART_DB_HOST"`
	LegacyPort     int    `envconfig:"BITEKART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BITEKART_DB_USER"`
	LegacyPassword string `envconfig:"BITEKART_DB_PASSWORD"`
	LegacyName     string `envconfig:"BITEKART_DB_NAME"`
	LegacySSLMode  string `envconfig:"BITEKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BITEKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BITEKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BITEKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BITEKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BITEKART_REDIS_URL"`
	Address      string        `envconfig:"BITEKART_REDIS_ADDR"`
	Password     string        `envconfig:"BITEKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"BITEKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BITEKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BITEKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BITEKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BITEKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BITEKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BITEKART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BITEKART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BITEKART_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type RazorpayConfig struct {
	KeyID         string        `envconfig:"BITEKART_RAZORPAY_KEY_ID"`
	KeySecret     string        `envconfig:"BITEKART_RAZORPAY_KEY_SECRET"`
	WebhookSecret string        `envconfig:"BITEKART_RAZORPAY_WEBHOOK_SECRET"`
	Timeout       time.Duration `envconfig:"BITEKART_RAZORPAY_TIMEOUT" default:"10s"`
	// OnlineEnabled gates the gateway checkout path. Deployments that only
	// accept COD and manual UPI proof run with this off while the adapter
	// stays wired.
	OnlineEnabled bool `envconfig:"BITEKART_RAZORPAY_ONLINE_ENABLED" default:"true"`
}

// Configured reports whether gateway credentials are present.
func (r RazorpayConfig) Configured() bool {
	return r.KeyID != "" && r.KeySecret != ""
}

// DeliveryConfig holds the fallback delivery-fee policy used when the
// delivery_settings row is absent. Amounts are in paise.
type DeliveryConfig struct {
	BaseChargePaise   int64   `envconfig:"BITEKART_DELIVERY_BASE_CHARGE_PAISE" default:"2500"`
	FreeDistanceKm    float64 `envconfig:"BITEKART_DELIVERY_FREE_DISTANCE_KM" default:"1.5"`
	ExtraPerKmPaise   int64   `envconfig:"BITEKART_DELIVERY_EXTRA_PER_KM_PAISE" default:"1500"`
	MaxDistanceKm     float64 `envconfig:"BITEKART_DELIVERY_MAX_DISTANCE_KM" default:"50"`
	PendingPaymentTTL time.Duration `envconfig:"BITEKART_PENDING_PAYMENT_TTL" default:"2h"`
}

type UploadsConfig struct {
	Dir         string `envconfig:"BITEKART_UPLOAD_DIR" default:"./uploads"`
	BaseURL     string `envconfig:"BITEKART_UPLOAD_BASE_URL" default:"/uploads"`
	MaxUploadMB int    `envconfig:"BITEKART_MAX_UPLOAD_MB" default:"5"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"BITEKART_GCS_BUCKET_NAME"`
	DownloadURLExpiry time.Duration `envconfig:"BITEKART_GCS_DOWNLOAD_URL_EXPIRY" default:"24h"`
}

type FirebaseConfig struct {
	ProjectID       string `envconfig:"BITEKART_FIREBASE_PROJECT_ID"`
	CredentialsJSON string `envconfig:"BITEKART_FIREBASE_CREDENTIALS_JSON"`
}

// Configured reports whether push delivery can be initialized.
func (f FirebaseConfig) Configured() bool {
	return f.ProjectID != "" && f.CredentialsJSON != ""
}

type PubSubConfig struct {
	ProjectID        string `envconfig:"BITEKART_PUBSUB_PROJECT_ID"`
	OrderEventsTopic string `envconfig:"BITEKART_PUBSUB_ORDER_EVENTS_TOPIC"`
}

// Configured reports whether order events should be published.
func (p PubSubConfig) Configured() bool {
	return p.ProjectID != "" && p.OrderEventsTopic != ""
}

type CronConfig struct {
	PendingPaymentSweepInterval time.Duration `envconfig:"BITEKART_CRON_PENDING_SWEEP_INTERVAL" default:"10m"`
}

// RateLimitConfig throttles the abuse-prone surfaces: credential checks and
// client payment verification. Zero limits disable the guard.
type RateLimitConfig struct {
	LoginWindow   time.Duration `envconfig:"BITEKART_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginLimit    int           `envconfig:"BITEKART_RATE_LIMIT_LOGIN_LIMIT" default:"10"`
	PaymentWindow time.Duration `envconfig:"BITEKART_RATE_LIMIT_PAYMENT_WINDOW" default:"1m"`
	PaymentLimit  int           `envconfig:"BITEKART_RATE_LIMIT_PAYMENT_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite      bool   `envconfig:"BITEKART_USE_SQLITE" default:"false"`
	AutoMigrate    bool   `envconfig:"BITEKART_AUTO_MIGRATE" default:"false"`
	StorageBackend string `envconfig:"BITEKART_STORAGE_BACKEND" default:"local"`
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
