package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"ADDR", "DATABASE_URL", "REDIS_URL", "SESSION_TTL", "PASSWORD_ITERATIONS",
		"ALLOW_ANONYMOUS_SUBMISSIONS", "BOOTSTRAP_ADMIN_PASSWORD", "BOOTSTRAP_ADMIN_LOGIN", "BOOTSTRAP_ADMIN_EMAIL",
		"BOOTSTRAP_ADMIN_CONTACT", "KAFKA_BROKERS", "JWT_SIGNING_KEY", "RATE_LIMIT_AUTH_REQUESTS", "RATE_LIMIT_WINDOW"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Zero(t, cfg.Auth.SessionTTL, "sessions do not expire by default")
	assert.Equal(t, 100_000, cfg.Auth.PasswordIterations)
	assert.False(t, cfg.Records.AllowAnonymousSubmissions)
	assert.False(t, cfg.Bootstrap.Enabled())
	assert.Equal(t, BootstrapAdmin{Login: "admin", Email: "admin@floodrelief.local", Contact: "00000000000"}, cfg.Bootstrap)
	assert.Empty(t, cfg.Audit.KafkaBrokers)
	assert.Equal(t, RateLimitConfig{AuthRequests: 20, Window: time.Minute}, cfg.RateLimit)
	assert.Equal(t, 3, cfg.Audit.Partitions)
	assert.True(t, cfg.UsingDevSigningKey())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("SESSION_TTL", "12h")
	t.Setenv("PASSWORD_ITERATIONS", "250000")
	t.Setenv("ALLOW_ANONYMOUS_SUBMISSIONS", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,k1:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://doacoes.example")
	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "changeme")
	t.Setenv("JWT_SIGNING_KEY", "prod-key")
	t.Setenv("RATE_LIMIT_AUTH_REQUESTS", "0")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 250_000, cfg.Auth.PasswordIterations)
	assert.True(t, cfg.Records.AllowAnonymousSubmissions)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.KafkaBrokers)
	assert.Equal(t, []string{"https://doacoes.example"}, cfg.Server.CORSAllowedOrigins)
	assert.True(t, cfg.Bootstrap.Enabled())
	assert.Equal(t, "admin", cfg.Bootstrap.Login)
	assert.False(t, cfg.UsingDevSigningKey())
	assert.False(t, cfg.RateLimit.Enabled())
}

func TestFromEnv_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "weak work factor", key: "PASSWORD_ITERATIONS", value: "1000"},
		{name: "malformed iterations", key: "PASSWORD_ITERATIONS", value: "lots"},
		{name: "malformed ttl", key: "SESSION_TTL", value: "forever"},
		{name: "negative ttl", key: "SESSION_TTL", value: "-1h"},
		{name: "malformed flag", key: "ALLOW_ANONYMOUS_SUBMISSIONS", value: "maybe"},
		{name: "short bootstrap password", key: "BOOTSTRAP_ADMIN_PASSWORD", value: "abc"},
		{name: "negative rate limit", key: "RATE_LIMIT_AUTH_REQUESTS", value: "-1"},
		{name: "zero rate window", key: "RATE_LIMIT_WINDOW", value: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
		})
	}
}

func TestFromEnv_BootstrapWidths(t *testing.T) {
	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "changeme")
	t.Setenv("BOOTSTRAP_ADMIN_CONTACT", "")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "")

	_, err := FromEnv()
	require.NoError(t, err, "the default bootstrap admin fits the accounts columns")

	t.Setenv("BOOTSTRAP_ADMIN_CONTACT", "51 99999-0000 ramal 12")
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOOTSTRAP_ADMIN_CONTACT")

	t.Setenv("BOOTSTRAP_ADMIN_CONTACT", "")
	t.Setenv("BOOTSTRAP_ADMIN_LOGIN", strings.Repeat("a", 51))
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOOTSTRAP_ADMIN_LOGIN")
}
