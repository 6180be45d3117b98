package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// MinJWTSecretLen is the shortest accepted HS512 signing secret, in bytes.
const MinJWTSecretLen = 64

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Email     EmailConfig     `yaml:"email"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	StaticDir   string   `yaml:"static_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
	// TrustProxy makes the rate limiter key on X-Forwarded-For/X-Real-IP.
	// Enable only when a reverse proxy sets those headers.
	TrustProxy  bool     `yaml:"trust_proxy"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	RatePerMinute int           `yaml:"rate_per_minute"`
}

// RedisConfig is optional. With an empty Addr, revoked tokens are tracked
// in process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EmailConfig is optional. With an empty ResendAPIKey, outgoing mail is
// logged instead of sent.
type EmailConfig struct {
	ResendAPIKey string `yaml:"resend_api_key"`
	From         string `yaml:"from"`
	BaseURL      string `yaml:"base_url"`
}

type CalendarConfig struct {
	Timezone string `yaml:"timezone"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location resolves the calendar time zone. Load has already validated it.
func (c CalendarConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix GYMBUCKET_ and underscore-separated paths:
//
//	GYMBUCKET_SERVER_HOST, GYMBUCKET_SERVER_PORT, GYMBUCKET_SERVER_STATIC_DIR,
//	GYMBUCKET_SERVER_CORS_ORIGINS (comma separated), GYMBUCKET_SERVER_TRUST_PROXY,
//	GYMBUCKET_DB_HOST, GYMBUCKET_DB_PORT, GYMBUCKET_DB_NAME,
//	GYMBUCKET_DB_USER, GYMBUCKET_DB_PASSWORD, GYMBUCKET_DB_SSLMODE,
//	GYMBUCKET_AUTH_JWT_SECRET, GYMBUCKET_REDIS_ADDR, GYMBUCKET_REDIS_PASSWORD,
//	GYMBUCKET_EMAIL_RESEND_API_KEY, GYMBUCKET_EMAIL_FROM, GYMBUCKET_EMAIL_BASE_URL,
//	GYMBUCKET_CALENDAR_TIMEZONE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("GYMBUCKET_SERVER_HOST", &cfg.Server.Host)
	num("GYMBUCKET_SERVER_PORT", &cfg.Server.Port)
	str("GYMBUCKET_SERVER_STATIC_DIR", &cfg.Server.StaticDir)
	if v := os.Getenv("GYMBUCKET_SERVER_TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.TrustProxy = b
		}
	}
	if v := os.Getenv("GYMBUCKET_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.CORSOrigins = append(cfg.Server.CORSOrigins, o)
			}
		}
	}

	str("GYMBUCKET_DB_HOST", &cfg.Database.Host)
	num("GYMBUCKET_DB_PORT", &cfg.Database.Port)
	str("GYMBUCKET_DB_NAME", &cfg.Database.Name)
	str("GYMBUCKET_DB_USER", &cfg.Database.User)
	str("GYMBUCKET_DB_PASSWORD", &cfg.Database.Password)
	str("GYMBUCKET_DB_SSLMODE", &cfg.Database.SSLMode)

	str("GYMBUCKET_AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)

	str("GYMBUCKET_REDIS_ADDR", &cfg.Redis.Addr)
	str("GYMBUCKET_REDIS_PASSWORD", &cfg.Redis.Password)

	str("GYMBUCKET_EMAIL_RESEND_API_KEY", &cfg.Email.ResendAPIKey)
	str("GYMBUCKET_EMAIL_FROM", &cfg.Email.From)
	str("GYMBUCKET_EMAIL_BASE_URL", &cfg.Email.BaseURL)

	str("GYMBUCKET_CALENDAR_TIMEZONE", &cfg.Calendar.Timezone)
}

func applyDefaults(cfg *Config) {
	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = 24 * time.Hour
	}
	if cfg.Auth.RefreshTTL == 0 {
		cfg.Auth.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Auth.RatePerMinute == 0 {
		cfg.Auth.RatePerMinute = 20
	}
	if cfg.Calendar.Timezone == "" {
		cfg.Calendar.Timezone = "UTC"
	}
	if cfg.Email.From == "" {
		cfg.Email.From = "GymBucket <no-reply@gymbucket.app>"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "gymbucket"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLen {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinJWTSecretLen)
	}
	if c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		return fmt.Errorf("auth.refresh_ttl must be longer than auth.access_ttl")
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("calendar.timezone: %w", err)
	}
	if c.Email.ResendAPIKey != "" && c.Email.BaseURL == "" {
		return fmt.Errorf("email.base_url is required when email is enabled")
	}
	return nil
}
