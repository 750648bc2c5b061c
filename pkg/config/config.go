package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Session  SessionConfig
	GCP      GCPConfig
	GCS      GCSConfig
	GeoIP    GeoIPConfig
	Cron     CronConfig

	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"ATRIUM_APP_ENV" required:"true"`
	Port         string `envconfig:"ATRIUM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ATRIUM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ATRIUM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ATRIUM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ATRIUM_DB_DSN"`
	Driver string `envconfig:"ATRIUM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ATRIUM_DB_HOST"`
	LegacyPort     int    `envconfig:"ATRIUM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ATRIUM_DB_USER"`
	LegacyPassword string `envconfig:"ATRIUM_DB_PASSWORD"`
	LegacyName     string `envconfig:"ATRIUM_DB_NAME"`
	LegacySSLMode  string `envconfig:"ATRIUM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ATRIUM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ATRIUM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ATRIUM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ATRIUM_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	RetryInitialDelay time.Duration `envconfig:"ATRIUM_DB_RETRY_INITIAL_DELAY" default:"2s"`
	RetryMaxDelay     time.Duration `envconfig:"ATRIUM_DB_RETRY_MAX_DELAY" default:"10s"`
	RetryMaxAttempts  int           `envconfig:"ATRIUM_DB_RETRY_MAX_ATTEMPTS" default:"6"`
	RetryMaxElapsed   time.Duration `envconfig:"ATRIUM_DB_RETRY_MAX_ELAPSED" default:"60s"`

	AutoMigrate bool `envconfig:"ATRIUM_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ATRIUM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ATRIUM_REDIS_ADDR"`
	Password     string        `envconfig:"ATRIUM_REDIS_PASSWORD"`
	DB           int           `envconfig:"ATRIUM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ATRIUM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ATRIUM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ATRIUM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ATRIUM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ATRIUM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ATRIUM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ATRIUM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ATRIUM_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ATRIUM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ATRIUM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ATRIUM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ATRIUM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ATRIUM_ARGON_KEY_LEN" default:"32"`
}

type SessionConfig struct {
	InactivityTTL time.Duration `envconfig:"ATRIUM_SESSION_INACTIVITY_TTL" default:"24h"`
	RetentionDays int           `envconfig:"ATRIUM_SESSION_RETENTION_DAYS" default:"90"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ATRIUM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ATRIUM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ATRIUM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"ATRIUM_GCS_BUCKET_NAME"`
}

// Configured reports whether avatar blob storage is usable at all.
func (g GCSConfig) Configured() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

type GeoIPConfig struct {
	BaseURL string        `envconfig:"ATRIUM_GEOIP_BASE_URL" default:"https://ipapi.co"`
	Timeout time.Duration `envconfig:"ATRIUM_GEOIP_TIMEOUT" default:"3s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"ATRIUM_CRON_INTERVAL" default:"1h"`
}

// AuthRateLimitConfig throttles the credential-bearing auth endpoints. A zero
// window or limit disables that counter.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ATRIUM_AUTH_RL_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"ATRIUM_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginIdentityLimit int           `envconfig:"ATRIUM_AUTH_RL_LOGIN_IDENTITY_LIMIT" default:"5"`

	RegisterWindow        time.Duration `envconfig:"ATRIUM_AUTH_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit       int           `envconfig:"ATRIUM_AUTH_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterIdentityLimit int           `envconfig:"ATRIUM_AUTH_RL_REGISTER_IDENTITY_LIMIT" default:"3"`
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
