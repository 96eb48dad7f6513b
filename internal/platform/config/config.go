package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultForbiddenWords is used when neither FORBIDDEN_WORDS nor FORBIDDEN_WORDS_FILE is set.
var DefaultForbiddenWords = []string{
	"казино",
	"криптовалюта",
	"крипта",
	"биржа",
	"дешево",
	"бесплатно",
	"обман",
	"полиция",
	"радар",
}

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	JWT        JWTConfig        `json:"jwt"`
	Email      EmailConfig      `json:"email"`
	App        AppConfig        `json:"app"`
	Cache      CacheConfig      `json:"cache"`
	RateLimits RateLimitsConfig `json:"rateLimits"`
	Mailing    MailingConfig    `json:"mailing"`
	Metrics    MetricsConfig    `json:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Debug           bool          `json:"debug"`
	CORSOrigins     string        `json:"corsOrigins"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Postgres    PostgreSQLConfig `json:"postgres"`
	AutoMigrate bool             `json:"autoMigrate"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	Database        string        `json:"database"`
	Schema          string        `json:"schema"`
	DSN             string        `json:"dsn"`
	SSLMode         string        `json:"sslMode"`
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// EmailConfig holds the SMTP relay settings.
type EmailConfig struct {
	SMTPEmail string `json:"smtpEmail"`
	FromName  string `json:"fromName"`
	SMTPHost  string `json:"smtpHost"`
	SMTPPort  int    `json:"smtpPort"`
	SMTPUser  string `json:"smtpUser"`
	SMTPPass  string `json:"smtpPass"`
}

// AppConfig holds application-related configuration
type AppConfig struct {
	WebDomain string `json:"webDomain"`
	Name      string `json:"name"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	MaxMemory       int64          `json:"maxMemory"`
	TTL             time.Duration  `json:"ttl"`
	DetailTTL       time.Duration  `json:"detailTtl"`
	StatisticsTTL   time.Duration  `json:"statisticsTtl"`
	Enabled         bool           `json:"enabled"`
	Backend         string         `json:"backend"`
	Prefix          string         `json:"prefix"`
	CleanupInterval time.Duration  `json:"cleanupInterval"`
	Keys            CacheKeyConfig `json:"keys"`
	Redis           RedisConfig    `json:"redis"`
}

// CacheKeyConfig names the key prefix used for each cached list.
type CacheKeyConfig struct {
	Recipients string `json:"recipients"`
	Messages   string `json:"messages"`
	Mailings   string `json:"mailings"`
	Attempts   string `json:"attempts"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Address      string `json:"address"`
	Password     string `json:"password"`
	Database     int    `json:"database"`
	PoolSize     int    `json:"poolSize"`
	MinIdleConns int    `json:"minIdleConns"`
}

// RateLimitConfig holds rate limiting configuration for a specific endpoint
type RateLimitConfig struct {
	Enabled  bool          `json:"enabled"`
	Max      int           `json:"max"`
	Duration time.Duration `json:"duration"`
}

// RateLimitsConfig holds rate limiting configuration for all endpoints
type RateLimitsConfig struct {
	Register      RateLimitConfig `json:"register"`
	Login         RateLimitConfig `json:"login"`
	PasswordReset RateLimitConfig `json:"passwordReset"`
}

// MailingConfig controls the send loop and content validation.
type MailingConfig struct {
	SendInterval       time.Duration `json:"sendInterval"`
	MaxCycles          int           `json:"maxCycles"`
	MaxConcurrent      int           `json:"maxConcurrent"`
	ForbiddenWords     []string      `json:"forbiddenWords"`
	ForbiddenWordsFile string        `json:"forbiddenWordsFile"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoadFromEnv loads configuration from the environment.
// Explicit environment variables win over values from a .env file,
// which in turn win over the defaults below.
func LoadFromEnv() (*Config, error) {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	var loadErr error
	for _, envPath := range envPaths {
		loadErr = godotenv.Load(envPath)
		if loadErr == nil {
			break
		}
	}

	if loadErr != nil {
		fmt.Println("INFO: .env file not found, using environment variables and defaults.")
	}

	return build(source(os.LookupEnv))
}

// LoadFromMap loads configuration from an in-memory map.
// Tests use it to exercise configuration logic without touching the process environment.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	return build(func(key string) (string, bool) {
		value, ok := envMap[key]
		return value, ok
	})
}

type source func(key string) (string, bool)

func (s source) get(key, defaultValue string) string {
	if value, ok := s(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func (s source) getInt(key string, defaultValue int) int {
	if value, ok := s(key); ok && value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (s source) getInt64(key string, defaultValue int64) int64 {
	if value, ok := s(key); ok && value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (s source) getBool(key string, defaultValue bool) bool {
	if value, ok := s(key); ok && value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func (s source) getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := s(key); ok && value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getList splits a comma separated value, dropping empty items.
func (s source) getList(key string, defaultValue []string) []string {
	value, ok := s(key)
	if !ok || strings.TrimSpace(value) == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func build(s source) (*Config, error) {
	webDomain := s.get("WEB_DOMAIN", "http://localhost:8080")

	config := &Config{
		Server: ServerConfig{
			Host:            s.get("HOST", "0.0.0.0"),
			Port:            s.getInt("SERVER_PORT", 8080),
			Debug:           s.getBool("DEBUG", false),
			CORSOrigins:     s.get("CORS_ORIGINS", "*"),
			ShutdownTimeout: s.getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			AutoMigrate: s.getBool("DB_AUTO_MIGRATE", false),
			Postgres: PostgreSQLConfig{
				Host:            s.get("POSTGRES_HOST", "localhost"),
				Port:            s.getInt("POSTGRES_PORT", 5432),
				Username:        s.get("POSTGRES_USERNAME", ""),
				Password:        s.get("POSTGRES_PASSWORD", ""),
				Database:        s.get("POSTGRES_DATABASE", "mailer"),
				Schema:          s.get("POSTGRES_SCHEMA", ""),
				DSN:             s.get("POSTGRES_DSN", ""),
				SSLMode:         s.get("POSTGRES_SSL_MODE", "disable"),
				MaxOpenConns:    s.getInt("POSTGRES_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    s.getInt("POSTGRES_MAX_IDLE_CONNS", 25),
				ConnMaxLifetime: time.Duration(s.getInt("POSTGRES_CONN_MAX_LIFETIME", 300)) * time.Second,
			},
		},
		JWT: JWTConfig{
			PublicKey:  s.get("JWT_PUBLIC_KEY", ""),
			PrivateKey: s.get("JWT_PRIVATE_KEY", ""),
		},
		Email: EmailConfig{
			SMTPEmail: s.get("SMTP_EMAIL", "noreply@localhost"),
			FromName:  s.get("SMTP_FROM_NAME", ""),
			SMTPHost:  s.get("SMTP_HOST", ""),
			SMTPPort:  s.getInt("SMTP_PORT", 587),
			SMTPUser:  s.get("SMTP_USER", ""),
			SMTPPass:  s.get("SMTP_PASS", ""),
		},
		App: AppConfig{
			WebDomain: webDomain,
			Name:      s.get("APP_NAME", "Mailer"),
		},
		Cache: CacheConfig{
			MaxMemory:       s.getInt64("CACHE_MAX_MEMORY", 100*1024*1024),
			TTL:             s.getDuration("CACHE_TTL", 5*time.Minute),
			DetailTTL:       s.getDuration("CACHE_DETAIL_TTL", time.Minute),
			StatisticsTTL:   s.getDuration("CACHE_STATISTICS_TTL", 15*time.Minute),
			Enabled:         s.getBool("CACHE_ENABLED", true),
			Backend:         s.get("CACHE_BACKEND", "memory"),
			Prefix:          s.get("CACHE_PREFIX", "mailer:"),
			CleanupInterval: s.getDuration("CACHE_CLEANUP_INTERVAL", 5*time.Minute),
			Keys: CacheKeyConfig{
				Recipients: s.get("CACHE_KEY_RECIPIENTS", "recipients"),
				Messages:   s.get("CACHE_KEY_MESSAGES", "messages"),
				Mailings:   s.get("CACHE_KEY_MAILINGS", "mailings"),
				Attempts:   s.get("CACHE_KEY_ATTEMPTS", "attempts"),
			},
			Redis: RedisConfig{
				Address:      s.get("REDIS_ADDRESS", "localhost:6379"),
				Password:     s.get("REDIS_PASSWORD", ""),
				Database:     s.getInt("REDIS_DATABASE", 0),
				PoolSize:     s.getInt("REDIS_POOL_SIZE", 10),
				MinIdleConns: s.getInt("REDIS_MIN_IDLE_CONNS", 5),
			},
		},
		RateLimits: RateLimitsConfig{
			Register: RateLimitConfig{
				Enabled:  s.getBool("RATE_LIMIT_REGISTER_ENABLED", true),
				Max:      s.getInt("RATE_LIMIT_REGISTER_MAX", 10),
				Duration: s.getDuration("RATE_LIMIT_REGISTER_DURATION", time.Hour),
			},
			Login: RateLimitConfig{
				Enabled:  s.getBool("RATE_LIMIT_LOGIN_ENABLED", true),
				Max:      s.getInt("RATE_LIMIT_LOGIN_MAX", 5),
				Duration: s.getDuration("RATE_LIMIT_LOGIN_DURATION", 15*time.Minute),
			},
			PasswordReset: RateLimitConfig{
				Enabled:  s.getBool("RATE_LIMIT_PASSWORD_RESET_ENABLED", true),
				Max:      s.getInt("RATE_LIMIT_PASSWORD_RESET_MAX", 3),
				Duration: s.getDuration("RATE_LIMIT_PASSWORD_RESET_DURATION", time.Hour),
			},
		},
		Mailing: MailingConfig{
			SendInterval:       s.getDuration("MAILING_SEND_INTERVAL", 30*time.Second),
			MaxCycles:          s.getInt("MAILING_MAX_CYCLES", 0),
			MaxConcurrent:      s.getInt("MAILING_MAX_CONCURRENT", 8),
			ForbiddenWords:     s.getList("FORBIDDEN_WORDS", DefaultForbiddenWords),
			ForbiddenWordsFile: s.get("FORBIDDEN_WORDS_FILE", ""),
		},
		Metrics: MetricsConfig{
			Enabled: s.getBool("METRICS_ENABLED", true),
			Path:    s.get("METRICS_PATH", "/metrics"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration for required fields
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.JWT.PublicKey) == "" {
		errors = append(errors, "JWT_PUBLIC_KEY is required")
	}
	if strings.TrimSpace(c.JWT.PrivateKey) == "" {
		errors = append(errors, "JWT_PRIVATE_KEY is required")
	}

	validBackends := []string{"memory", "redis"}
	if !contains(validBackends, c.Cache.Backend) {
		errors = append(errors, fmt.Sprintf("CACHE_BACKEND must be one of: %s", strings.Join(validBackends, ", ")))
	}

	if c.Mailing.SendInterval <= 0 {
		errors = append(errors, "MAILING_SEND_INTERVAL must be positive")
	}
	if c.Mailing.MaxCycles < 0 {
		errors = append(errors, "MAILING_MAX_CYCLES must not be negative")
	}
	if c.Mailing.MaxConcurrent <= 0 {
		errors = append(errors, "MAILING_MAX_CONCURRENT must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// PostgresDSN returns POSTGRES_DSN when set, otherwise a DSN built from the parts.
func (p PostgreSQLConfig) PostgresDSN() string {
	if p.DSN != "" {
		return p.DSN
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.Username, p.Password, p.Database, p.SSLMode)
	if p.Schema != "" {
		dsn += " search_path=" + p.Schema
	}
	return dsn
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
