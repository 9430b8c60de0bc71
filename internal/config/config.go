// Package config loads application configuration from environment
// variables, after an optional .env file. It provides a centralized
// Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"net/url"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// defaultDBPassword is rejected in production.
const defaultDBPassword = "changeme"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port     string `env:"APP_PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"development"` // "development", "production", "testing"
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Which backend holds posts and categories: "postgres" or "mongo".
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	// PostgreSQL connection
	DBHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	DBPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	DBUser     string `env:"POSTGRES_USER" envDefault:"portfolio"`
	DBPassword string `env:"POSTGRES_PASSWORD" envDefault:"changeme"`
	DBName     string `env:"POSTGRES_DB" envDefault:"portfolio"`
	DBSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// MongoDB connection. Category deletion needs a replica set.
	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/?replicaSet=rs0"`
	MongoDB  string `env:"MONGO_DB" envDefault:"portfolio"`

	// Valkey (sessions and the upload tracker)
	ValkeyHost     string `env:"VALKEY_HOST" envDefault:"localhost"`
	ValkeyPort     string `env:"VALKEY_PORT" envDefault:"6379"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`

	// The single admin identity
	AdminEmail        string `env:"ADMIN_EMAIL"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	AdminTOTPSecret   string `env:"ADMIN_TOTP_SECRET"`

	// Featured image host: "cloudinary" or "s3". Missing credentials are
	// reported when an upload is attempted, not here.
	ImageHost              string `env:"IMAGE_HOST" envDefault:"cloudinary"`
	CloudinaryCloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryUploadPreset string `env:"CLOUDINARY_UPLOAD_PRESET"`
	CloudinaryAPIBase      string `env:"CLOUDINARY_API_BASE" envDefault:"https://api.cloudinary.com"`
	S3Endpoint             string `env:"S3_ENDPOINT"`
	S3Region               string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey            string `env:"S3_ACCESS_KEY"`
	S3SecretKey            string `env:"S3_SECRET_KEY"`
	S3Bucket               string `env:"S3_BUCKET"`
	S3PublicURL            string `env:"S3_PUBLIC_URL"`

	// Error reporting (optional)
	SentryDSN string `env:"SENTRY_DSN"`

	// Reverse proxies (CIDR blocks or bare IPs) whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means the app faces clients
	// directly and those headers are ignored.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
	proxies        []netip.Prefix

	// Site metadata used in page titles and share links
	SiteName string `env:"SITE_NAME" envDefault:"Portfolio"`
	SiteURL  string `env:"SITE_URL" envDefault:"http://localhost:8080"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return Parse(env.ToMap(os.Environ()))
}

// Parse builds a Config from environ and validates it. Returns an error
// if critical values are missing or defaults are left in production.
func Parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "postgres", "mongo":
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres or mongo, got %q", c.StoreDriver)
	}
	switch c.ImageHost {
	case "cloudinary", "s3":
	default:
		return fmt.Errorf("IMAGE_HOST must be cloudinary or s3, got %q", c.ImageHost)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	proxies, err := parsePrefixes(c.TrustedProxies)
	if err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	c.proxies = proxies

	if c.AdminPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.AdminPasswordHash)); err != nil {
			return fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
	}

	if c.IsProduction() {
		if c.StoreDriver == "postgres" && c.DBPassword == defaultDBPassword {
			return fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if c.AdminEmail == "" || c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH must be set in production")
		}
		if !strings.HasPrefix(c.SiteURL, "https://") {
			return fmt.Errorf("SITE_URL must use https in production, got %q", c.SiteURL)
		}
	} else if c.AdminEmail == "" || c.AdminPasswordHash == "" {
		slog.Warn("admin identity not configured, sign-in is disabled",
			"hint", "set ADMIN_EMAIL and ADMIN_PASSWORD_HASH (go run ./cmd/totpgen -password ...)")
	}
	return nil
}

// DSN returns the PostgreSQL connection string. Credentials are escaped,
// so passwords may contain URL delimiters.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

// TrustedProxyPrefixes returns TRUSTED_PROXIES parsed by Parse.
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	return c.proxies
}

// parsePrefixes accepts CIDR blocks ("10.0.0.0/8") and bare IPs.
func parsePrefixes(values []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true if the application is running in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.SiteURL, "https://")
}

// SlogLevel returns LOG_LEVEL as a slog level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}
