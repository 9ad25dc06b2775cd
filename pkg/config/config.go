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
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Stripe   StripeConfig
	SMTP     SMTPConfig
	Frontend FrontendConfig
	Features FeatureFlagsConfig
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
	Env          string `envconfig:"SHOPSTREAM_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPSTREAM_APP_PORT" default:"5000"`
	LogLevel     string `envconfig:"SHOPSTREAM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPSTREAM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPSTREAM_DB_DSN"`
	Driver string `envconfig:"SHOPSTREAM_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SHOPSTREAM_DB_HOST"`
	Port     int    `envconfig:"SHOPSTREAM_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPSTREAM_DB_USER"`
	Password string `envconfig:"SHOPSTREAM_DB_PASSWORD"`
	Name     string `envconfig:"SHOPSTREAM_DB_NAME"`
	SSLMode  string `envconfig:"SHOPSTREAM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPSTREAM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPSTREAM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPSTREAM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPSTREAM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPSTREAM_REDIS_URL"`
	Address      string        `envconfig:"SHOPSTREAM_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPSTREAM_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPSTREAM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPSTREAM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPSTREAM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPSTREAM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPSTREAM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPSTREAM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	AccessSecret  string `envconfig:"SHOPSTREAM_ACCESS_TOKEN_SECRET" required:"true"`
	RefreshSecret string `envconfig:"SHOPSTREAM_REFRESH_TOKEN_SECRET" required:"true"`
	ResetSecret   string `envconfig:"SHOPSTREAM_RESET_TOKEN_SECRET" required:"true"`
	Issuer        string `envconfig:"SHOPSTREAM_JWT_ISSUER" default:"shopstream"`

	AccessTTLMinutes  int `envconfig:"SHOPSTREAM_ACCESS_TOKEN_TTL_MINUTES" default:"15"`
	RefreshTTLMinutes int `envconfig:"SHOPSTREAM_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
	ResetTTLMinutes   int `envconfig:"SHOPSTREAM_RESET_TOKEN_TTL_MINUTES" default:"10"`
}

// AccessTTL returns the access token lifetime (15 minutes by default).
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime (7 days by default).
func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTTLMinutes) * time.Minute
}

// ResetTTL returns the password-reset token lifetime.
func (j JWTConfig) ResetTTL() time.Duration {
	return time.Duration(j.ResetTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPSTREAM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPSTREAM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPSTREAM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPSTREAM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPSTREAM_ARGON_KEY_LEN" default:"32"`
}

type StripeConfig struct {
	APIKey string `envconfig:"SHOPSTREAM_STRIPE_API_KEY"`
	Env    string `envconfig:"SHOPSTREAM_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SMTPConfig struct {
	Host     string `envconfig:"SHOPSTREAM_SMTP_HOST" default:"smtp.gmail.com"`
	Port     int    `envconfig:"SHOPSTREAM_SMTP_PORT" default:"587"`
	Username string `envconfig:"SHOPSTREAM_SMTP_USERNAME"`
	Password string `envconfig:"SHOPSTREAM_SMTP_PASSWORD"`
	From     string `envconfig:"SHOPSTREAM_SMTP_FROM"`
}

type FrontendConfig struct {
	// BaseURL is used for checkout redirect and password-reset links.
	BaseURL string `envconfig:"SHOPSTREAM_FRONTEND_URL" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPSTREAM_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
