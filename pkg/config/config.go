package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	WebPush      WebPushConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Retention    RetentionConfig
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
	Env          string `envconfig:"HANDYHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"HANDYHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HANDYHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HANDYHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HANDYHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HANDYHUB_DB_DSN"`
	Driver string `envconfig:"HANDYHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HANDYHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"HANDYHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HANDYHUB_DB_USER"`
	LegacyPassword string `envconfig:"HANDYHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"HANDYHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"HANDYHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HANDYHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HANDYHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HANDYHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HANDYHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HANDYHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HANDYHUB_REDIS_ADDR"`
	Password     string        `envconfig:"HANDYHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"HANDYHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HANDYHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HANDYHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HANDYHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HANDYHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HANDYHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HANDYHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HANDYHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HANDYHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"HANDYHUB_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

// WebPushConfig carries the VAPID signing material for Web Push delivery.
// Dispatch is refused while the keypair is absent; registration and the
// notification inbox keep working without it.
type WebPushConfig struct {
	VAPIDPublicKey  string        `envconfig:"HANDYHUB_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string        `envconfig:"HANDYHUB_VAPID_PRIVATE_KEY"`
	Subscriber      string        `envconfig:"HANDYHUB_VAPID_SUBSCRIBER" default:"support@handyhub.app"`
	TTL             time.Duration `envconfig:"HANDYHUB_WEBPUSH_TTL" default:"24h"`
	AttemptTimeout  time.Duration `envconfig:"HANDYHUB_WEBPUSH_ATTEMPT_TIMEOUT" default:"10s"`
}

// Configured reports whether the VAPID keypair is present.
func (w WebPushConfig) Configured() bool {
	return strings.TrimSpace(w.VAPIDPublicKey) != "" && strings.TrimSpace(w.VAPIDPrivateKey) != ""
}

// TTLSeconds returns the push message TTL in whole seconds.
func (w WebPushConfig) TTLSeconds() int {
	if w.TTL <= 0 {
		return 0
	}
	return int(w.TTL / time.Second)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HANDYHUB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"HANDYHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HANDYHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"HANDYHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HANDYHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"HANDYHUB_PUBSUB_DOMAIN_TOPIC" default:"hh-domain-events"`
	DomainSubscription string `envconfig:"HANDYHUB_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type RetentionConfig struct {
	NotificationDays      int `envconfig:"HANDYHUB_NOTIFICATION_RETENTION_DAYS" default:"90"`
	SubscriptionAuditDays int `envconfig:"HANDYHUB_SUBSCRIPTION_AUDIT_DAYS" default:"180"`
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
