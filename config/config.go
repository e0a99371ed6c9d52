package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultEnv                   = "development"
	DefaultPort                  = "8080"
	DefaultAttemptStore          = "postgres"
	DefaultAccessTokenExpiryMin  = 10
	DefaultRefreshTokenExpiryMin = 10080
	DefaultConfirmationCodeTTL   = 10
	DefaultRateLimitMaxAttempts  = 5
	DefaultRateLimitWindowSec    = 10
	DefaultAttemptRetentionMin   = 60
	DefaultBcryptCost            = 10
	DefaultBasicAuthLogin        = "admin"
	DefaultBasicAuthPassword     = "qwerty"
	DefaultSMTPPort              = 587
	DefaultFrontendURL           = "https://somesite.com"
	DefaultLogLevel              = "info"
)

type Config struct {
	Env                   string
	Port                  string
	DBURL                 string
	RedisURL              string
	AttemptStore          string
	AccessTokenSecret     string
	RefreshTokenSecret    string
	AccessExpiryMin       int
	RefreshExpiryMin      int
	ConfirmationCodeTTL   int
	RateLimitMaxAttempts  int
	RateLimitWindowSec    int
	AttemptRetentionMin   int
	BcryptCost            int
	StrictRefreshRotation bool
	BasicAuth             BasicAuthConfig
	SMTP                  SMTPConfig
	FrontendURL           string
	LogLevel              string
}

type BasicAuthConfig struct {
	Login    string
	Password string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool
}

func (c *Config) AccessTokenExpiry() time.Duration {
	return time.Duration(c.AccessExpiryMin) * time.Minute
}

func (c *Config) RefreshTokenExpiry() time.Duration {
	return time.Duration(c.RefreshExpiryMin) * time.Minute
}

func (c *Config) CodeTTL() time.Duration {
	return time.Duration(c.ConfirmationCodeTTL) * time.Minute
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

func (c *Config) AttemptRetention() time.Duration {
	return time.Duration(c.AttemptRetentionMin) * time.Minute
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads config/.env.dev or config/.env.prod (picked by ENV) and lets
// environment variables override any value from the file. Missing required
// keys are fatal.
func Load() *Config {
	env := getEnv("ENV", DefaultEnv)

	v := viper.New()
	v.SetConfigFile(filepath.Join("config", envFileName(env)))
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			log.Printf("Could not read config file, using environment only: %v", err)
		}
	}

	setDefaults(v)

	cfg := &Config{
		Env:                   env,
		Port:                  v.GetString("PORT"),
		DBURL:                 mustGetString(v, "DB_URL"),
		RedisURL:              v.GetString("REDIS_URL"),
		AttemptStore:          v.GetString("ATTEMPT_STORE"),
		AccessTokenSecret:     mustGetString(v, "ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret:    mustGetString(v, "REFRESH_TOKEN_SECRET"),
		AccessExpiryMin:       getInt(v, "ACCESS_TOKEN_EXPIRY", DefaultAccessTokenExpiryMin),
		RefreshExpiryMin:      getInt(v, "REFRESH_TOKEN_EXPIRY", DefaultRefreshTokenExpiryMin),
		ConfirmationCodeTTL:   getInt(v, "CONFIRMATION_CODE_TTL", DefaultConfirmationCodeTTL),
		RateLimitMaxAttempts:  getInt(v, "RATE_LIMIT_MAX_ATTEMPTS", DefaultRateLimitMaxAttempts),
		RateLimitWindowSec:    getInt(v, "RATE_LIMIT_WINDOW", DefaultRateLimitWindowSec),
		AttemptRetentionMin:   getInt(v, "ATTEMPT_RETENTION", DefaultAttemptRetentionMin),
		BcryptCost:            getInt(v, "BCRYPT_COST", DefaultBcryptCost),
		StrictRefreshRotation: v.GetBool("STRICT_REFRESH_ROTATION"),
		BasicAuth: BasicAuthConfig{
			Login:    v.GetString("BASIC_AUTH_LOGIN"),
			Password: v.GetString("BASIC_AUTH_PASSWORD"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     getInt(v, "SMTP_PORT", DefaultSMTPPort),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
			TLS:      v.GetBool("SMTP_TLS"),
		},
		FrontendURL: v.GetString("FRONTEND_URL"),
		LogLevel:    v.GetString("LOG_LEVEL"),
	}
	clampAttemptRetention(cfg)

	return cfg
}

// clampAttemptRetention keeps attempts at least as long as the rate-limit
// window looks back, rounded up to whole minutes.
func clampAttemptRetention(cfg *Config) {
	if cfg.AttemptRetention() >= cfg.RateLimitWindow() {
		return
	}
	minutes := (cfg.RateLimitWindowSec + 59) / 60
	log.Printf("ATTEMPT_RETENTION %dm is shorter than RATE_LIMIT_WINDOW %ds, using %dm",
		cfg.AttemptRetentionMin, cfg.RateLimitWindowSec, minutes)
	cfg.AttemptRetentionMin = minutes
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("ATTEMPT_STORE", DefaultAttemptStore)
	v.SetDefault("STRICT_REFRESH_ROTATION", true)
	v.SetDefault("BASIC_AUTH_LOGIN", DefaultBasicAuthLogin)
	v.SetDefault("BASIC_AUTH_PASSWORD", DefaultBasicAuthPassword)
	v.SetDefault("SMTP_TLS", true)
	v.SetDefault("FRONTEND_URL", DefaultFrontendURL)
	v.SetDefault("LOG_LEVEL", DefaultLogLevel)
}

func envFileName(env string) string {
	if env == "production" {
		return ".env.prod"
	}
	return ".env.dev"
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetString(v *viper.Viper, key string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	log.Fatalf("Missing required config: %s", key)
	return ""
}

// getInt falls back to defaultVal for missing, malformed or non-positive values.
func getInt(v *viper.Viper, key string, defaultVal int) int {
	if !v.IsSet(key) || v.GetString(key) == "" {
		return defaultVal
	}
	val := v.GetInt(key)
	if val <= 0 {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
