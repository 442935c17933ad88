package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/trips?sslmode=disable")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.RedisURL)
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("REPORT_CACHE_TTL", "0s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Zero(t, cfg.ReportCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestFromEnv_CollectsEveryProblem(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("JWT_TTL", "soon")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := FromEnv()
	require.Error(t, err)
	for _, want := range []string{"JWT_TTL", "DATABASE_URL", "JWT_SECRET", "LOG_FORMAT"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_SendGridNeedsSender(t *testing.T) {
	cfg := &Config{
		Port:           "8080",
		DatabaseURL:    "postgres://x",
		JWTSecret:      "0123456789abcdef",
		JWTTTL:         time.Hour,
		SendGridAPIKey: "SG.key",
		LogFormat:      "json",
	}
	assert.ErrorContains(t, cfg.Validate(), "SENDGRID_FROM_EMAIL")

	cfg.SendGridFrom = "trips@example.com"
	assert.NoError(t, cfg.Validate())
}
