package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payreview/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "feedback", cfg.S3.FeedbackPrefix)
	assert.Equal(t, 5, cfg.Feedback.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Feedback.PollInterval())
	assert.True(t, cfg.Review.ReturnReasonsEnabled)
	assert.Equal(t, "EUR", cfg.Review.DefaultCurrency)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAYREVIEW_STORE_DRIVER", "BOLT")
	t.Setenv("PAYREVIEW_STORE_BOLT_PATH", "/tmp/reviews.db")
	t.Setenv("PAYREVIEW_S3_FEEDBACK_PREFIX", "/archive/")
	t.Setenv("PAYREVIEW_FEEDBACK_CONCURRENCY", "9")
	t.Setenv("PAYREVIEW_REVIEW_RETURN_REASONS_ENABLED", "false")
	t.Setenv("PAYREVIEW_CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverBolt, cfg.Store.Driver)
	assert.Equal(t, "/tmp/reviews.db", cfg.Store.BoltPath)
	assert.Equal(t, "archive", cfg.S3.FeedbackPrefix)
	assert.Equal(t, 9, cfg.Feedback.Concurrency)
	assert.False(t, cfg.Review.ReturnReasonsEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_PortEnv(t *testing.T) {
	t.Run("platform_port_used", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Server.Port)
	})

	t.Run("explicit_port_wins", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("PAYREVIEW_SERVER_PORT", ":7000")
		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Server.Port)
	})
}

func TestLoad_UnknownStoreDriver(t *testing.T) {
	t.Setenv("PAYREVIEW_STORE_DRIVER", "mysql")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	db := config.DBConfig{User: "u", Password: "p", Host: "h", Port: 5433, Name: "n", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=require", db.DSN())
}
