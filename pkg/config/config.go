// Package config loads the process configuration from the environment.
// Configuration is built once at startup and passed into the components
// that need it; nothing reads the environment after boot.
package config

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/chriswk/auth-app/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("CONFIG")

var (
	CodeInvalidCookieDuration = ErrRegistry.Register("INVALID_COOKIE_DURATION", errx.TypeValidation, http.StatusInternalServerError, "Invalid cookie lifetime")
	CodeInvalidSecret         = ErrRegistry.Register("INVALID_SECRET", errx.TypeValidation, http.StatusInternalServerError, "Secret must be exactly 32 bytes")
	CodeMissingValue          = ErrRegistry.Register("MISSING_VALUE", errx.TypeValidation, http.StatusInternalServerError, "Required configuration value missing")
)

// DatabaseConfig holds Postgres pool settings.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds connection settings for the optional Redis state store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProviderConfig holds the identity provider endpoints and credentials.
// The endpoint URLs default to Google and are overridable for tests.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	Timeout      time.Duration
}

// CookieConfig describes the session cookie this service issues.
type CookieConfig struct {
	Name     string
	Domain   string
	Lifetime time.Duration
	Secure   bool
}

// AppConfig is the immutable process configuration.
type AppConfig struct {
	Port    int
	RunMode string

	Database DatabaseConfig
	Redis    RedisConfig
	Provider ProviderConfig
	Cookie   CookieConfig

	// Secret is the 32-byte symmetric key sealing session tokens.
	Secret []byte

	// SharedSecret guards the internal instance API.
	SharedSecret string

	// BaseURL is the template host for tenant sign-in links.
	BaseURL string

	// PostLoginRedirect is where a successful callback sends the browser.
	PostLoginRedirect string

	// StateStore selects "memory" or "redis" for pending authorizations.
	StateStore string
	// StateTTL bounds how long an abandoned login attempt is kept.
	StateTTL time.Duration

	// NotifyMode selects "off", "console" or "ses" access notifications.
	NotifyMode string
	NotifyFrom string
}

// Load reads the configuration from the environment and validates it.
// Validation failures here are fatal at boot, never handled per request.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:    getEnvInt("PORT", 1500),
		RunMode: getEnv("RUN_MODE", "development"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_CONNECTIONS", 2),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 2),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Provider: ProviderConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
			AuthURL:      getEnv("PROVIDER_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth"),
			TokenURL:     getEnv("PROVIDER_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			UserInfoURL:  getEnv("PROVIDER_USERINFO_URL", "https://openidconnect.googleapis.com/v1/userinfo"),
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
			Timeout:      getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),
		},
		Cookie: CookieConfig{
			Name:   getEnv("COOKIE_NAME", "auth_app_session"),
			Domain: getEnv("COOKIE_DOMAIN", "localhost"),
			Secure: getEnvBool("COOKIE_SECURE", false),
		},
		SharedSecret:      os.Getenv("SHARED_SECRET"),
		BaseURL:           getEnv("BASE_URL", "app.example.com"),
		PostLoginRedirect: getEnv("POST_LOGIN_REDIRECT", "/"),
		StateStore:        getEnv("STATE_STORE", "memory"),
		StateTTL:          getEnvDuration("STATE_TTL", 10*time.Minute),
		NotifyMode:        getEnv("NOTIFY_MODE", "off"),
		NotifyFrom:        os.Getenv("NOTIFY_FROM"),
	}

	secret := os.Getenv("SECRET")
	if len(secret) != 32 {
		return nil, ErrRegistry.New(CodeInvalidSecret).WithDetail("length", len(secret))
	}
	cfg.Secret = []byte(secret)

	if cfg.Database.URL == "" {
		return nil, ErrRegistry.New(CodeMissingValue).WithDetail("key", "DATABASE_URL")
	}

	lifetimeSecs := getEnv("COOKIE_LIFETIME_SECS", "3600")
	secs, err := strconv.Atoi(lifetimeSecs)
	if err != nil || secs <= 0 {
		return nil, ErrRegistry.New(CodeInvalidCookieDuration).WithDetail("value", lifetimeSecs)
	}
	cfg.Cookie.Lifetime = time.Duration(secs) * time.Second

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
