package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from environment
// variables and an optional config.yaml.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	Environment string `mapstructure:"APP_ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DatabaseDSN string `mapstructure:"DATABASE_DSN"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
	RedisDB   int    `mapstructure:"REDIS_DB"`
	RedisPass string `mapstructure:"REDIS_PASSWORD"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	CookieSameSite string        `mapstructure:"COOKIE_SAMESITE"`
	CookieDomain   string        `mapstructure:"COOKIE_DOMAIN"`

	AllowAdminSignup bool `mapstructure:"ALLOW_ADMIN_SIGNUP"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `mapstructure:"GOOGLE_CALLBACK_URL"`
	FrontendURL        string `mapstructure:"FRONTEND_URL"`

	SwaggerHost string `mapstructure:"SWAGGER_HOST"`

	SeedAdminName     string `mapstructure:"SEED_ADMIN_NAME"`
	SeedAdminEmail    string `mapstructure:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `mapstructure:"SEED_ADMIN_PASSWORD"`
}

var defaults = map[string]any{
	"SERVER_PORT":          "8080",
	"APP_ENV":              "development",
	"LOG_LEVEL":            "info",
	"DB_DRIVER":            "mysql",
	"DATABASE_DSN":         "user:password@tcp(localhost:3306)/app?charset=utf8mb4&parseTime=True&loc=UTC",
	"REDIS_ADDR":           "localhost:6379",
	"REDIS_DB":             0,
	"REDIS_PASSWORD":       "",
	"JWT_SECRET":           "",
	"TOKEN_TTL":            "1h",
	"COOKIE_SAMESITE":      "strict",
	"COOKIE_DOMAIN":        "",
	"ALLOW_ADMIN_SIGNUP":   false,
	"GOOGLE_CLIENT_ID":     "",
	"GOOGLE_CLIENT_SECRET": "",
	"GOOGLE_CALLBACK_URL":  "http://localhost:8080/api/auth/google/callback",
	"FRONTEND_URL":         "http://localhost:3000",
	"SWAGGER_HOST":         "",
	"SEED_ADMIN_NAME":      "Admin User",
	"SEED_ADMIN_EMAIL":     "admin@example.com",
	"SEED_ADMIN_PASSWORD":  "admin123",
}

// Load builds Config from environment and config file with sensible defaults.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/userdir/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("missing JWT_SECRET")
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch strings.ToLower(c.CookieSameSite) {
	case "strict", "lax", "none":
	default:
		return fmt.Errorf("unsupported COOKIE_SAMESITE %q", c.CookieSameSite)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// SameSite converts the configured policy to its net/http value.
func (c *Config) SameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
