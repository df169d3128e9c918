package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverBolt     = "bolt"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Store    StoreConfig
	JWT      JWTConfig
	S3       S3Config
	Log      LogConfig
	CORS     CORSConfig
	Feedback FeedbackConfig
	Review   ReviewConfig
}

// ReviewConfig holds review session behaviour settings.
type ReviewConfig struct {
	ReturnReasonsEnabled bool   `mapstructure:"return_reasons_enabled"`
	DefaultCurrency      string `mapstructure:"default_currency"`
}

// FeedbackConfig holds feedback delivery worker settings.
type FeedbackConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxAttempts      int `mapstructure:"max_attempts"`
	Concurrency      int `mapstructure:"concurrency"`
}

// PollInterval returns the poll interval as a duration.
func (f *FeedbackConfig) PollInterval() time.Duration {
	return time.Duration(f.PollIntervalSecs) * time.Second
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	BoltPath string `mapstructure:"bolt_path"`
}

// JWTConfig holds JWT validation settings. Tokens are issued by the identity
// provider; IssueToken exists for tooling and tests.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer            string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings for the feedback archive.
type S3Config struct {
	Region         string        `mapstructure:"region"`
	Bucket         string        `mapstructure:"bucket"`
	Endpoint       string        `mapstructure:"endpoint"`
	AccessKey      string        `mapstructure:"access_key"`
	SecretKey      string        `mapstructure:"secret_key"`
	FeedbackPrefix string        `mapstructure:"feedback_prefix"`
	PresignExpiry  time.Duration `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the PAYREVIEW_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAYREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "payreview")
	v.SetDefault("db.password", "payreview_secret")
	v.SetDefault("db.name", "payreview_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Store defaults
	v.SetDefault("store.driver", StoreDriverPostgres)
	v.SetDefault("store.bolt_path", "payreview.db")

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.issuer", "payreview")

	// S3 defaults
	v.SetDefault("s3.region", "eu-central-1")
	v.SetDefault("s3.bucket", "payreview-feedback")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.feedback_prefix", "feedback")
	v.SetDefault("s3.presign_expiry", "15m")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Feedback worker defaults
	v.SetDefault("feedback.poll_interval_secs", 10)
	v.SetDefault("feedback.max_attempts", 5)
	v.SetDefault("feedback.concurrency", 4)

	// Review defaults
	v.SetDefault("review.return_reasons_enabled", true)
	v.SetDefault("review.default_currency", "EUR")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                   "PAYREVIEW_SERVER_PORT",
		"server.read_timeout":           "PAYREVIEW_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "PAYREVIEW_SERVER_WRITE_TIMEOUT",
		"server.environment":            "PAYREVIEW_SERVER_ENVIRONMENT",
		"db.host":                       "PAYREVIEW_DB_HOST",
		"db.port":                       "PAYREVIEW_DB_PORT",
		"db.user":                       "PAYREVIEW_DB_USER",
		"db.password":                   "PAYREVIEW_DB_PASSWORD",
		"db.name":                       "PAYREVIEW_DB_NAME",
		"db.sslmode":                    "PAYREVIEW_DB_SSLMODE",
		"db.max_open":                   "PAYREVIEW_DB_MAX_OPEN",
		"db.max_idle":                   "PAYREVIEW_DB_MAX_IDLE",
		"store.driver":                  "PAYREVIEW_STORE_DRIVER",
		"store.bolt_path":               "PAYREVIEW_STORE_BOLT_PATH",
		"jwt.secret":                    "PAYREVIEW_JWT_SECRET",
		"jwt.access_expiry":             "PAYREVIEW_JWT_ACCESS_EXPIRY",
		"jwt.issuer":                    "PAYREVIEW_JWT_ISSUER",
		"s3.region":                     "PAYREVIEW_S3_REGION",
		"s3.bucket":                     "PAYREVIEW_S3_BUCKET",
		"s3.endpoint":                   "PAYREVIEW_S3_ENDPOINT",
		"s3.access_key":                 "PAYREVIEW_S3_ACCESS_KEY",
		"s3.secret_key":                 "PAYREVIEW_S3_SECRET_KEY",
		"s3.feedback_prefix":            "PAYREVIEW_S3_FEEDBACK_PREFIX",
		"s3.presign_expiry":             "PAYREVIEW_S3_PRESIGN_EXPIRY",
		"log.level":                     "PAYREVIEW_LOG_LEVEL",
		"log.format":                    "PAYREVIEW_LOG_FORMAT",
		"cors.allowed_origins":          "PAYREVIEW_CORS_ALLOWED_ORIGINS",
		"feedback.poll_interval_secs":   "PAYREVIEW_FEEDBACK_POLL_INTERVAL_SECS",
		"feedback.max_attempts":         "PAYREVIEW_FEEDBACK_MAX_ATTEMPTS",
		"feedback.concurrency":          "PAYREVIEW_FEEDBACK_CONCURRENCY",
		"review.return_reasons_enabled": "PAYREVIEW_REVIEW_RETURN_REASONS_ENABLED",
		"review.default_currency":       "PAYREVIEW_REVIEW_DEFAULT_CURRENCY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if PAYREVIEW_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PAYREVIEW_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Store = StoreConfig{
		Driver:   strings.ToLower(v.GetString("store.driver")),
		BoltPath: v.GetString("store.bolt_path"),
	}
	switch cfg.Store.Driver {
	case StoreDriverPostgres, StoreDriverBolt:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:            v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:         v.GetString("s3.region"),
		Bucket:         v.GetString("s3.bucket"),
		Endpoint:       v.GetString("s3.endpoint"),
		AccessKey:      v.GetString("s3.access_key"),
		SecretKey:      v.GetString("s3.secret_key"),
		FeedbackPrefix: strings.Trim(v.GetString("s3.feedback_prefix"), "/"),
		PresignExpiry:  v.GetDuration("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Feedback = FeedbackConfig{
		PollIntervalSecs: v.GetInt("feedback.poll_interval_secs"),
		MaxAttempts:      v.GetInt("feedback.max_attempts"),
		Concurrency:      v.GetInt("feedback.concurrency"),
	}

	cfg.Review = ReviewConfig{
		ReturnReasonsEnabled: v.GetBool("review.return_reasons_enabled"),
		DefaultCurrency:      strings.ToUpper(v.GetString("review.default_currency")),
	}

	return cfg, nil
}
