// Package config loads the server configuration from environment variables.
//
// Every setting has a default except JWT_SECRET; Validate reports anything the
// server cannot start without.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	HTTP struct {
		Port           int
		AllowedOrigins []string
	}

	DB struct {
		Path string
	}

	Auth struct {
		JWTSecret  string
		TokenTTL   time.Duration
		BcryptCost int
	}

	GitHub struct {
		ClientID     string
		ClientSecret string
		CallbackURL  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		TTL      time.Duration
	}

	// malformed holds values New could not parse; Validate reports them.
	malformed []error
}

// New reads the environment. A malformed number or duration leaves the
// default in place and is reported by Validate, so TOKEN_TTL=24 (no unit)
// stops the server instead of quietly meaning 24h.
func New() *Config {
	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "mentorship-api")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// HTTP
	cfg.HTTP.Port = cfg.getEnvInt("PORT", 8080)
	cfg.HTTP.AllowedOrigins = splitList(getEnvDefault("CORS_ALLOWED_ORIGINS",
		"http://localhost:3000,http://localhost:5500,http://127.0.0.1:5500"))

	// Database
	cfg.DB.Path = getEnvDefault("DB_PATH", "data/mentorship.db")

	// Auth
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.TokenTTL = cfg.getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.Auth.BcryptCost = cfg.getEnvInt("BCRYPT_COST", 12)

	// GitHub sign-in is optional
	cfg.GitHub.ClientID = os.Getenv("GITHUB_CLIENT_ID")
	cfg.GitHub.ClientSecret = os.Getenv("GITHUB_CLIENT_SECRET")
	cfg.GitHub.CallbackURL = getEnvDefault("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.HTTP.Port))

	// Redis (empty address disables the discovery cache)
	cfg.Redis.Addr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = cfg.getEnvInt("REDIS_DB", 0)
	cfg.Redis.TTL = cfg.getEnvDuration("CACHE_TTL", 5*time.Minute)

	return cfg
}

// Validate reports configuration the server cannot run with.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.malformed...)
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be set and at least 16 characters"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.HTTP.Port))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d must be between 4 and 31", c.Auth.BcryptCost))
	}
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// GitHubEnabled reports whether both OAuth credentials are present.
func (c *Config) GitHubEnabled() bool {
	return c.GitHub.ClientID != "" && c.GitHub.ClientSecret != ""
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func (c *Config) getEnvInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.malformed = append(c.malformed, fmt.Errorf("%s=%q is not an integer", k, v))
		return def
	}
	return n
}

func (c *Config) getEnvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.malformed = append(c.malformed, fmt.Errorf("%s=%q is not a duration such as 90m or 24h", k, v))
		return def
	}
	return d
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
