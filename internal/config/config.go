// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and redirects.
	BaseURL string

	// SPAOrigin is the origin of the storefront frontend, allowed by CORS.
	SPAOrigin string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// TrustedProxies is the list of CIDRs whose forwarding headers are
	// trusted when resolving client IPs.
	TrustedProxies []string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds authentication and session settings.
	Auth AuthConfig

	// Security holds login throttling and inactivity settings.
	Security SecurityConfig

	// Discord holds the OAuth application settings.
	Discord DiscordConfig

	// Storage holds the avatar object-storage settings.
	Storage StorageConfig

	// Mail holds the SMTP settings for password-reset email.
	Mail MailConfig

	// Checkout holds the simulated PIX checkout settings.
	Checkout CheckoutConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// are read from separate env vars so container orchestrators can manage
// each independently. If DATABASE_URL is set, it takes precedence.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "warningweb").
	User string

	// Password is the MariaDB password (default: "warningweb").
	Password string

	// Name is the database name (default: "warningweb").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration

	// AutoMigrate applies pending migrations on server startup when true.
	AutoMigrate bool

	// MigrationsPath is the directory containing migration SQL files.
	MigrationsPath string
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// fields using the driver's Config.FormatDSN() to safely handle special
// characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds authentication settings. Sessions and CSRF both use
// random server-side tokens, so there is no signing secret here.
type AuthConfig struct {
	// SessionTTL is the hard ceiling on session age. Sessions older than
	// this are rejected regardless of activity (default: 24h).
	SessionTTL time.Duration

	// ResetTokenTTL is how long a password reset link stays valid.
	ResetTokenTTL time.Duration
}

// SecurityConfig holds login throttling and inactivity settings.
type SecurityConfig struct {
	// MaxLoginAttempts is the failed-attempt threshold per email before
	// the lockout engages.
	MaxLoginAttempts int

	// LockoutDuration is how long an email stays locked out after the
	// threshold is reached.
	LockoutDuration time.Duration

	// IdleWarning is the inactivity span after which a warning activity
	// is recorded for the session.
	IdleWarning time.Duration

	// IdleLogout is the inactivity span after which the session is
	// destroyed.
	IdleLogout time.Duration
}

// DiscordConfig holds the Discord OAuth application settings. OAuth login
// is disabled when the client credentials are empty.
type DiscordConfig struct {
	ClientID     string
	ClientSecret string

	// RedirectURL is the callback URL registered with the Discord app.
	// Defaults to BaseURL + /api/auth/discord/callback.
	RedirectURL string
}

// Enabled reports whether Discord OAuth login is configured.
func (d DiscordConfig) Enabled() bool {
	return d.ClientID != "" && d.ClientSecret != ""
}

// StorageConfig holds the MinIO object-storage settings for avatars.
// Avatar storage is disabled when Endpoint is empty.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// MaxAvatarSize is the maximum avatar upload size in bytes.
	MaxAvatarSize int64
}

// Enabled reports whether object storage is configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != ""
}

// MailConfig holds SMTP settings. Mail is disabled when Host is empty;
// in development the reset link is logged instead of emailed.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	FromAddress string
	FromName    string

	// Encryption is one of "starttls" (default), "ssl", or "none".
	Encryption string
}

// Enabled reports whether SMTP is configured.
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

// CheckoutConfig holds the simulated PIX checkout settings.
type CheckoutConfig struct {
	// MerchantName and MerchantCity appear in the generated PIX payload.
	MerchantName string
	MerchantCity string
	PostalCode   string

	// SupportInvite is the Discord invite shown after checkout.
	SupportInvite string

	// PaymentWindow is how long a pending order stays payable (default: 15m).
	PaymentWindow time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing in production.
func Load() (*Config, error) {
	cfg := &Config{
		Env:       getEnv("ENV", "development"),
		Port:      getEnvInt("PORT", 8080),
		BaseURL:   getEnv("BASE_URL", "http://localhost:8080"),
		SPAOrigin: getEnv("SPA_ORIGIN", "http://localhost:5173"),
		LogLevel:  getEnv("LOG_LEVEL", "debug"),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{"127.0.0.1/8", "10.0.0.0/8", "172.16.0.0/12"}),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "warningweb"),
			Password:        getEnv("DB_PASSWORD", "warningweb"),
			Name:            getEnv("DB_NAME", "warningweb"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
			ResetTokenTTL: getEnvDuration("RESET_TOKEN_TTL", time.Hour),
		},

		Security: SecurityConfig{
			MaxLoginAttempts: getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
			LockoutDuration:  getEnvDuration("LOCKOUT_DURATION", 15*time.Minute),
			IdleWarning:      getEnvDuration("IDLE_WARNING", 10*time.Minute),
			IdleLogout:       getEnvDuration("IDLE_LOGOUT", 30*time.Minute),
		},

		Discord: DiscordConfig{
			ClientID:     getEnv("DISCORD_CLIENT_ID", ""),
			ClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("DISCORD_REDIRECT_URL", ""),
		},

		Storage: StorageConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			Bucket:        getEnv("MINIO_BUCKET", "avatars"),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			MaxAvatarSize: getEnvInt64("MAX_AVATAR_SIZE", 5*1024*1024), // 5MB
		},

		Mail: MailConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromAddress: getEnv("SMTP_FROM_ADDRESS", "no-reply@warningbypass.example.com"),
			FromName:    getEnv("SMTP_FROM_NAME", "Warning Bypass"),
			Encryption:  getEnv("SMTP_ENCRYPTION", "starttls"),
		},

		Checkout: CheckoutConfig{
			MerchantName:  getEnv("PIX_MERCHANT_NAME", "Warning Bypass"),
			MerchantCity:  getEnv("PIX_MERCHANT_CITY", "SAO PAULO"),
			PostalCode:    getEnv("PIX_POSTAL_CODE", "01000-000"),
			SupportInvite: getEnv("SUPPORT_DISCORD_INVITE", "https://discord.gg/warningbypass"),
			PaymentWindow: getEnvDuration("PAYMENT_WINDOW", 15*time.Minute),
		},
	}

	if cfg.Discord.RedirectURL == "" {
		cfg.Discord.RedirectURL = cfg.BaseURL + "/api/auth/discord/callback"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode. Gates the
// simulate-payment checkout control among other dev-only behavior.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvInt64 reads an int64 env var or returns the default.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default.
func getEnvList(key string, defaultVal []string) []string {
	if val, ok := os.LookupEnv(key); ok {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultVal
}

// getEnvBool reads a boolean env var or returns the default.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "24h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
