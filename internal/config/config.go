package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "SPARKSHOP"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Configはアプリ全体の設定
type Config struct {
	App     AppConfig
	DB      DBConfig
	Catalog CatalogConfig
	Redis   RedisConfig
	Auth    AuthConfig
}

type AppConfig struct {
	Env       string `envconfig:"SPARKSHOP_APP_ENV" default:"dev"`
	Port      string `envconfig:"SPARKSHOP_PORT" default:"8080"` // サーバーポート
	LogLevel  string `envconfig:"SPARKSHOP_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"SPARKSHOP_LOG_FORMAT" default:"json"` // json / console
}

// 端末ローカルのストア（既定はsqlite）
type DBConfig struct {
	Driver          string        `envconfig:"SPARKSHOP_DB_DRIVER" default:"sqlite"`
	DSN             string        `envconfig:"SPARKSHOP_DB_DSN" default:"file:sparkshop.db?_foreign_keys=on"`
	MaxOpenConns    int           `envconfig:"SPARKSHOP_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SPARKSHOP_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SPARKSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	Debug           bool          `envconfig:"SPARKSHOP_DB_DEBUG" default:"false"`
}

// リモートカタログ
type CatalogConfig struct {
	BaseURL string        `envconfig:"SPARKSHOP_CATALOG_BASE_URL" default:"https://dummyjson.com"`
	Path    string        `envconfig:"SPARKSHOP_CATALOG_PATH" default:"/products"`
	Timeout time.Duration `envconfig:"SPARKSHOP_CATALOG_TIMEOUT" default:"60s"`
}

// 空なら変更通知はプロセス内だけで行う
type RedisConfig struct {
	URL string `envconfig:"SPARKSHOP_REDIS_URL"`
}

type AuthConfig struct {
	Required   bool          `envconfig:"SPARKSHOP_AUTH_REQUIRED" default:"false"` // カタログ・カートをログイン必須にする
	JWTSecret  string        `envconfig:"SPARKSHOP_JWT_SECRET" default:"dev_secret_change_me"`
	JWTTTL     time.Duration `envconfig:"SPARKSHOP_JWT_TTL" default:"15m"`
	BcryptCost int           `envconfig:"SPARKSHOP_BCRYPT_COST" default:"12"`
}

// Loadは環境変数から読む
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres: %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("CATALOG_BASE_URL is required")
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive")
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, "prod")
}

// ":8080" 形式に
func (a AppConfig) Addr() string {
	if strings.HasPrefix(a.Port, ":") {
		return a.Port
	}
	return ":" + a.Port
}
