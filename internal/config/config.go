package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Auth     AuthConfig
	Hunter   HunterConfig
	Clearbit ClearbitConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	RateLimit         float64
	RateLimitBurst    int
	AllowedOrigins    []string
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	UseMock         bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string
	Format string
}

// AuthConfig holds token signing and session settings.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	TokenHeader string
	Session     SessionConfig
}

// SessionConfig controls the cookie session that mirrors the login token.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// HunterConfig configures the email verification oracle.
type HunterConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Disabled bool
}

// ClearbitConfig configures the best-effort enrichment oracle. An empty
// APIKey disables enrichment.
type ClearbitConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Load reads an optional .env file, inspects the environment and builds a
// Config value.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		ReadHeaderTimeout: parseDurationWithDefault(os.Getenv("SERVER_READ_HEADER_TIMEOUT"), 5*time.Second),
		RateLimit:         parseFloatWithDefault(os.Getenv("RATE_LIMIT"), 50),
		RateLimitBurst:    parseIntWithDefault(os.Getenv("RATE_LIMIT_BURST"), 100),
		AllowedOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
		MaxIdleConns:    parseIntWithDefault(firstNonEmpty(os.Getenv("DATABASE_MAX_IDLE_CONNS"), os.Getenv("DB_MAX_IDLE_CONNS")), 0),
		MaxOpenConns:    parseIntWithDefault(firstNonEmpty(os.Getenv("DATABASE_MAX_OPEN_CONNS"), os.Getenv("DB_MAX_OPEN_CONNS")), 0),
		ConnMaxLifetime: parseDurationWithDefault(firstNonEmpty(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), os.Getenv("DB_CONN_MAX_LIFETIME")), 0),
		ConnMaxIdleTime: parseDurationWithDefault(firstNonEmpty(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), os.Getenv("DB_CONN_MAX_IDLE_TIME")), 0),
	}

	cfg.Logging = LoggingConfig{
		Level:  firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
		Format: firstNonEmpty(os.Getenv("LOG_FORMAT"), "text"),
	}

	cfg.Auth = AuthConfig{
		TokenSecret: os.Getenv("TOKEN_SECRET"),
		TokenTTL:    parseDurationWithDefault(os.Getenv("TOKEN_TTL"), 30*time.Minute),
		TokenHeader: firstNonEmpty(os.Getenv("TOKEN_HEADER"), "access_token"),
		Session: SessionConfig{
			Lifetime:     parseDurationWithDefault(os.Getenv("SESSION_LIFETIME"), 12*time.Hour),
			CookieName:   firstNonEmpty(os.Getenv("SESSION_COOKIE_NAME"), "cookbook_session"),
			CookieDomain: os.Getenv("SESSION_COOKIE_DOMAIN"),
			CookieSecure: parseBoolWithDefault(os.Getenv("SESSION_COOKIE_SECURE"), false),
		},
	}

	cfg.Hunter = HunterConfig{
		APIKey:   os.Getenv("HUNTER_API_KEY"),
		BaseURL:  os.Getenv("HUNTER_BASE_URL"),
		Timeout:  parseDurationWithDefault(os.Getenv("HUNTER_TIMEOUT"), 10*time.Second),
		Disabled: parseBoolWithDefault(os.Getenv("EMAIL_VERIFICATION_DISABLED"), false),
	}

	cfg.Clearbit = ClearbitConfig{
		APIKey:  os.Getenv("CLEARBIT_API_KEY"),
		BaseURL: os.Getenv("CLEARBIT_BASE_URL"),
		Timeout: parseDurationWithDefault(os.Getenv("CLEARBIT_TIMEOUT"), 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if strings.TrimSpace(c.Auth.TokenSecret) == "" {
		return fmt.Errorf("TOKEN_SECRET must be set")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if !c.Hunter.Disabled && strings.TrimSpace(c.Hunter.APIKey) == "" {
		return fmt.Errorf("HUNTER_API_KEY must be set unless EMAIL_VERIFICATION_DISABLED=true")
	}
	if !c.Database.UseMock && strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL must be set unless DATABASE_USE_MOCK=true")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseFloatWithDefault(value string, def float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
