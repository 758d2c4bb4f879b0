// Package config loads service settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"

	"floodrelief/internal/auth/models"
	"floodrelief/internal/auth/password"
	strs "floodrelief/pkg/platform/strings"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Config is the complete service configuration.
type Config struct {
	Server    Server
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Records   RecordsConfig
	Bootstrap BootstrapAdmin
	Audit     AuditConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// DatabaseConfig selects PostgreSQL; an empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig selects the Redis session store; an empty URL keeps sessions in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type AuthConfig struct {
	JWTSigningKey string
	// SessionTTL of zero keeps sessions until logout.
	SessionTTL         time.Duration
	PasswordIterations int
}

type RecordsConfig struct {
	AllowAnonymousSubmissions bool
}

// BootstrapAdmin is registered at startup when Password is set and no admin
// account exists yet.
type BootstrapAdmin struct {
	Login    string
	Password string
	Email    string
	Contact  string
}

func (b BootstrapAdmin) Enabled() bool {
	return b.Password != ""
}

// AuditConfig enables the Kafka audit sink when brokers are configured.
type AuditConfig struct {
	KafkaBrokers []string
	Topic        string
	Partitions   int
	BufferSize   int
}

// RateLimitConfig bounds auth requests per client IP. Zero disables it.
type RateLimitConfig struct {
	AuthRequests int
	Window       time.Duration
}

func (r RateLimitConfig) Enabled() bool {
	return r.AuthRequests > 0
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env if present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		Server: Server{
			Addr:               getEnv("ADDR", ":8080"),
			CORSAllowedOrigins: strs.SplitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
			ShutdownTimeout:    p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    p.int("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    p.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Auth: AuthConfig{
			JWTSigningKey:      getEnv("JWT_SIGNING_KEY", devSigningKey),
			SessionTTL:         p.duration("SESSION_TTL", 0),
			PasswordIterations: p.int("PASSWORD_ITERATIONS", password.MinIterations),
		},
		Records: RecordsConfig{
			AllowAnonymousSubmissions: p.bool("ALLOW_ANONYMOUS_SUBMISSIONS", false),
		},
		Bootstrap: BootstrapAdmin{
			Login:    getEnv("BOOTSTRAP_ADMIN_LOGIN", "admin"),
			Password: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
			Email:    getEnv("BOOTSTRAP_ADMIN_EMAIL", "admin@floodrelief.local"),
			Contact:  getEnv("BOOTSTRAP_ADMIN_CONTACT", "00000000000"),
		},
		Audit: AuditConfig{
			KafkaBrokers: strs.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:        getEnv("AUDIT_TOPIC", "floodrelief.audit"),
			Partitions:   p.int("AUDIT_TOPIC_PARTITIONS", 3),
			BufferSize:   p.int("AUDIT_BUFFER_SIZE", 1024),
		},
		RateLimit: RateLimitConfig{
			AuthRequests: p.int("RATE_LIMIT_AUTH_REQUESTS", 20),
			Window:       p.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service must not start with.
func (c *Config) Validate() error {
	if c.Auth.PasswordIterations < password.MinIterations {
		return fmt.Errorf("PASSWORD_ITERATIONS must be at least %d", password.MinIterations)
	}
	if c.Auth.SessionTTL < 0 {
		return errors.New("SESSION_TTL must not be negative")
	}
	if strings.TrimSpace(c.Auth.JWTSigningKey) == "" {
		return errors.New("JWT_SIGNING_KEY must not be blank")
	}
	if c.RateLimit.AuthRequests < 0 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_AUTH_REQUESTS must not be negative and RATE_LIMIT_WINDOW must be positive")
	}
	if c.Bootstrap.Enabled() && len(c.Bootstrap.Password) < 6 {
		return errors.New("BOOTSTRAP_ADMIN_PASSWORD must be at least 6 characters")
	}
	if c.Bootstrap.Enabled() {
		for _, f := range []struct {
			key   string
			value string
			max   int
		}{
			{"BOOTSTRAP_ADMIN_LOGIN", c.Bootstrap.Login, models.MaxLoginLength},
			{"BOOTSTRAP_ADMIN_EMAIL", c.Bootstrap.Email, models.MaxEmailLength},
			{"BOOTSTRAP_ADMIN_CONTACT", c.Bootstrap.Contact, models.MaxContactLength},
		} {
			if utf8.RuneCountInString(strings.TrimSpace(f.value)) > f.max {
				return fmt.Errorf("%s must be at most %d characters", f.key, f.max)
			}
		}
	}
	return nil
}

// UsingDevSigningKey reports whether the built-in development key is in use.
func (c *Config) UsingDevSigningKey() bool {
	return c.Auth.JWTSigningKey == devSigningKey
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser records the first malformed variable.
type parser struct {
	err error
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}
