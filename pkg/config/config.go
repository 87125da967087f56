package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "kerjalink"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Midtrans     MidtransConfig
	Encryption   EncryptionConfig
	Cron         CronConfig
	Withdraw     WithdrawConfig
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
	Env          string `envconfig:"KERJALINK_APP_ENV" required:"true"`
	Port         string `envconfig:"KERJALINK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"KERJALINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KERJALINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KERJALINK_DB_DSN"`
	Driver string `envconfig:"KERJALINK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KERJALINK_DB_HOST"`
	Port     int    `envconfig:"KERJALINK_DB_PORT" default:"5432"`
	User     string `envconfig:"KERJALINK_DB_USER"`
	Password string `envconfig:"KERJALINK_DB_PASSWORD"`
	Name     string `envconfig:"KERJALINK_DB_NAME"`
	SSLMode  string `envconfig:"KERJALINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KERJALINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KERJALINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KERJALINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KERJALINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either KERJALINK_DB_DSN or host/user/name must be set")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"KERJALINK_REDIS_URL"`
	Address      string        `envconfig:"KERJALINK_REDIS_ADDR"`
	Password     string        `envconfig:"KERJALINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"KERJALINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KERJALINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KERJALINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KERJALINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KERJALINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KERJALINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"KERJALINK_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"KERJALINK_JWT_ISSUER" required:"true"`
}

// MidtransConfig configures the Snap payment gateway client.
type MidtransConfig struct {
	ServerKey   string        `envconfig:"KERJALINK_MIDTRANS_SERVER_KEY" required:"true"`
	ClientKey   string        `envconfig:"KERJALINK_MIDTRANS_CLIENT_KEY"`
	Environment string        `envconfig:"KERJALINK_MIDTRANS_ENV" default:"sandbox"`
	Timeout     time.Duration `envconfig:"KERJALINK_MIDTRANS_TIMEOUT" default:"10s"`
}

// EncryptionConfig configures at-rest encryption of withdraw account numbers.
type EncryptionConfig struct {
	Passphrase string `envconfig:"KERJALINK_ENCRYPTION_PASSPHRASE" required:"true"`
	Salt       string `envconfig:"KERJALINK_ENCRYPTION_SALT" required:"true"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"KERJALINK_CRON_INTERVAL" default:"10m"`
	LockTTL           time.Duration `envconfig:"KERJALINK_CRON_LOCK_TTL" default:"15m"`
	AutoApproveMaxAge time.Duration `envconfig:"KERJALINK_CRON_AUTO_APPROVE_MAX_AGE" default:"24h"`
}

type WithdrawConfig struct {
	MaxMethodsPerUser int `envconfig:"KERJALINK_WITHDRAW_MAX_METHODS" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KERJALINK_AUTO_MIGRATE" default:"false"`
}
