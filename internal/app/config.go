package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the MailForge backend.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Email     EmailConfig     `mapstructure:"email"`
	Audit     AuditConfig     `mapstructure:"audit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Env         string `mapstructure:"env"`
	LogLevel    string `mapstructure:"log_level"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures authentication-related settings.
type AuthConfig struct {
	JWT        JWTSettings `mapstructure:"jwt"`
	BcryptCost int         `mapstructure:"bcrypt_cost"`
}

// JWTSettings configures JWT access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// RateLimitConfig controls the fixed-window limiter. WindowMS mirrors the
// legacy millisecond environment variable and takes precedence when set.
type RateLimitConfig struct {
	Window      time.Duration `mapstructure:"window"`
	WindowMS    int           `mapstructure:"window_ms"`
	MaxRequests int           `mapstructure:"max_requests"`
}

// EffectiveWindow resolves the configured window, preferring the
// millisecond override.
func (c RateLimitConfig) EffectiveWindow() time.Duration {
	if c.WindowMS > 0 {
		return time.Duration(c.WindowMS) * time.Millisecond
	}
	return c.Window
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig defines SMTP dialer settings for sending invitation email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuditConfig controls retention of the audit trail. Zero disables cleanup.
type AuditConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// LoadConfig initialises application configuration using Viper with sensible
// defaults. Flat legacy environment names (PORT, DB_HOST, JWT_SECRET, ...)
// are bound alongside the MAILFORGE_ prefixed ones.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("MAILFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate checks the invariants that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWT.Secret) == "" {
		return errors.New("config: auth.jwt.secret (JWT_SECRET) is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.frontend_url", "")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/mailforge.sqlite")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.mysql.port", 3306)

	v.SetDefault("auth.jwt.issuer", "mailforge")
	v.SetDefault("auth.jwt.access_token_ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("ratelimit.window", "15m")
	v.SetDefault("ratelimit.max_requests", 100)

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("audit.retention_days", 0)
}

// bindLegacyEnv maps the flat environment variables used by earlier
// deployments onto the structured keys.
func bindLegacyEnv(v *viper.Viper) {
	aliases := map[string]string{
		"server.port":                "PORT",
		"server.env":                 "NODE_ENV",
		"server.log_level":           "LOG_LEVEL",
		"server.frontend_url":        "FRONTEND_URL",
		"database.postgres.host":     "DB_HOST",
		"database.postgres.port":     "DB_PORT",
		"database.postgres.database": "DB_NAME",
		"database.postgres.username": "DB_USER",
		"database.postgres.password": "DB_PASSWORD",
		"auth.jwt.secret":            "JWT_SECRET",
		"auth.bcrypt_cost":           "BCRYPT_ROUNDS",
		"ratelimit.window_ms":        "RATE_LIMIT_WINDOW_MS",
		"ratelimit.max_requests":     "RATE_LIMIT_MAX_REQUESTS",
	}
	for key, env := range aliases {
		_ = v.BindEnv(key, env)
	}
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
