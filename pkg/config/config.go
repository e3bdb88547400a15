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

	EnvDBDSN  = "DISBURSER_DB_DSN"
	EnvDBHost = "DISBURSER_DB_HOST"
	EnvDBUser = "DISBURSER_DB_USER"
	EnvDBName = "DISBURSER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Method       MethodConfig
	Disbursement DisbursementConfig
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
	if err := cfg.Disbursement.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DISBURSER_APP_ENV" required:"true"`
	Port         string `envconfig:"DISBURSER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DISBURSER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DISBURSER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DISBURSER_DB_DSN"`
	Driver string `envconfig:"DISBURSER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DISBURSER_DB_HOST"`
	LegacyPort     int    `envconfig:"DISBURSER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DISBURSER_DB_USER"`
	LegacyPassword string `envconfig:"DISBURSER_DB_PASSWORD"`
	LegacyName     string `envconfig:"DISBURSER_DB_NAME"`
	LegacySSLMode  string `envconfig:"DISBURSER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DISBURSER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DISBURSER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DISBURSER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DISBURSER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DISBURSER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DISBURSER_REDIS_ADDR"`
	Password     string        `envconfig:"DISBURSER_REDIS_PASSWORD"`
	DB           int           `envconfig:"DISBURSER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DISBURSER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DISBURSER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DISBURSER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DISBURSER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DISBURSER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// MethodConfig carries credentials for the external payment-network API.
type MethodConfig struct {
	APIKey      string        `envconfig:"DISBURSER_METHOD_API_KEY" required:"true"`
	BaseURL     string        `envconfig:"DISBURSER_METHOD_BASE_URL"`
	Env         string        `envconfig:"DISBURSER_METHOD_ENV" default:"dev"`
	HTTPTimeout time.Duration `envconfig:"DISBURSER_METHOD_HTTP_TIMEOUT" default:"30s"`
}

// Environment returns the normalized Method environment (dev/production).
func (m MethodConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "dev"
	}
	return env
}

// DisbursementConfig tunes the orchestrator: how wide a concurrent group is and
// how rate-limited instructions back off.
type DisbursementConfig struct {
	GroupSize         int           `envconfig:"DISBURSER_GROUP_SIZE" default:"20"`
	MaxAttempts       int           `envconfig:"DISBURSER_MAX_ATTEMPTS" default:"4"`
	InitialBackoff    time.Duration `envconfig:"DISBURSER_INITIAL_BACKOFF" default:"1s"`
	BackoffMultiplier int           `envconfig:"DISBURSER_BACKOFF_MULTIPLIER" default:"2"`
}

func (d DisbursementConfig) validate() error {
	if d.GroupSize <= 0 {
		return fmt.Errorf("disbursement group size must be positive")
	}
	if d.MaxAttempts <= 0 {
		return fmt.Errorf("disbursement max attempts must be positive")
	}
	if d.InitialBackoff <= 0 {
		return fmt.Errorf("disbursement initial backoff must be positive")
	}
	if d.BackoffMultiplier < 2 {
		return fmt.Errorf("disbursement backoff multiplier must be at least 2")
	}
	return nil
}

// RateLimitConfig caps mutating batch calls over a fixed window.
type RateLimitConfig struct {
	Requests int64         `envconfig:"DISBURSER_RATE_LIMIT_REQUESTS" default:"30"`
	Window   time.Duration `envconfig:"DISBURSER_RATE_LIMIT_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DISBURSER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DISBURSER_AUTO_MIGRATE" default:"false"`
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
