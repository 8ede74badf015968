// Package config loads the server configuration from the environment.
//
// Values come from, in order of precedence:
//  1. real environment variables
//  2. a .env file in the working directory (optional, loaded with godotenv)
//  3. the defaults below
//
// Viper does the env lookup and defaulting; Load turns the raw values into a
// typed Config and Validate rejects unsafe production settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds every setting the server reads at startup.
type Config struct {
	Port           int
	Env            string
	DBPath         string
	JWTSecret      string
	JWTExpire      time.Duration
	LogLevel       slog.Level
	AllowedOrigins []string
	StaticDir      string
	RequestTimeout time.Duration

	// TrustProxy makes the server take the client address from X-Forwarded-For
	// and X-Real-IP. Enable it only behind a reverse proxy that sets them.
	TrustProxy bool

	// Failed logins allowed per client IP inside LoginRateWindow.
	LoginRateLimit  int
	LoginRateWindow time.Duration

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads .env (if present) and the environment into a Config and validates it.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 5000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_PATH", "data/blog.db")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRE", "30d")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_WINDOW", "15m")
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("GITHUB_CALLBACK_URL", "")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:               v.GetInt("PORT"),
		Env:                strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		DBPath:             v.GetString("DB_PATH"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		AllowedOrigins:     splitList(v.GetString("ALLOWED_ORIGINS")),
		StaticDir:          v.GetString("STATIC_DIR"),
		TrustProxy:         v.GetBool("TRUST_PROXY"),
		LoginRateLimit:     v.GetInt("LOGIN_RATE_LIMIT"),
		GitHubClientID:     v.GetString("GITHUB_CLIENT_ID"),
		GitHubClientSecret: v.GetString("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  v.GetString("GITHUB_CALLBACK_URL"),
	}

	var err error
	if cfg.JWTExpire, err = ParseExpiry(v.GetString("JWT_EXPIRE")); err != nil {
		return nil, fmt.Errorf("config: JWT_EXPIRE: %w", err)
	}
	if cfg.RequestTimeout, err = time.ParseDuration(v.GetString("REQUEST_TIMEOUT")); err != nil {
		return nil, fmt.Errorf("config: REQUEST_TIMEOUT: %w", err)
	}
	if cfg.LoginRateWindow, err = time.ParseDuration(v.GetString("LOGIN_RATE_WINDOW")); err != nil {
		return nil, fmt.Errorf("config: LOGIN_RATE_WINDOW: %w", err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/api/auth/github/callback", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate ensures required values are present and production settings are safe.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.JWTExpire <= 0 {
		return errors.New("JWT_EXPIRE must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.LoginRateLimit < 1 {
		return errors.New("LOGIN_RATE_LIMIT must be at least 1")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		for _, o := range c.AllowedOrigins {
			if o == "*" {
				return errors.New("ALLOWED_ORIGINS must not be '*' in production")
			}
		}
	}

	return nil
}

// ParseExpiry parses a token lifetime. Besides Go durations ("720h") it accepts
// a whole number of days with a "d" suffix ("30d").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
