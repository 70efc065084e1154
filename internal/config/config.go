package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// TrustedProxies lists the addresses or CIDR ranges whose forwarding
	// headers name the client. Requests from anywhere else are keyed by
	// their socket address.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// TrustedPrefixes parses TrustedProxies. A bare address is a single-host range.
func (s ServerConfig) TrustedPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("server.trusted_proxies: %w", err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("server.trusted_proxies: %w", err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

type DatabaseConfig struct {
	// URL, when set, is used verbatim and the discrete fields are ignored.
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	SecretKey                string `yaml:"secret_key"`
	Algorithm                string `yaml:"algorithm"`
	AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes"`
}

// TokenTTL returns the access token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.AccessTokenExpireMinutes) * time.Minute
}

// RateLimitConfig throttles /register and /token per client IP.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix GYMTRACK_ and underscore-separated paths:
//
//	GYMTRACK_SERVER_HOST, GYMTRACK_SERVER_PORT,
//	GYMTRACK_SERVER_TRUSTED_PROXIES (comma-separated),
//	GYMTRACK_DB_HOST, GYMTRACK_DB_PORT, GYMTRACK_DB_NAME,
//	GYMTRACK_DB_USER, GYMTRACK_DB_PASSWORD, GYMTRACK_DB_SSLMODE,
//	GYMTRACK_AUTH_SECRET_KEY, GYMTRACK_AUTH_ALGORITHM,
//	GYMTRACK_AUTH_ACCESS_TOKEN_EXPIRE_MINUTES,
//	GYMTRACK_TAILSCALE_ENABLED, GYMTRACK_TAILSCALE_HOSTNAME
//
// DATABASE_URL replaces the whole database section.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000},
		Auth: AuthConfig{
			Algorithm:                "HS256",
			AccessTokenExpireMinutes: 30,
		},
		RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 5},
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},
		Tailscale: TailscaleConfig{Hostname: "gymtrack"},
	}
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("GYMTRACK_SERVER_HOST", &cfg.Server.Host)
	setInt("GYMTRACK_SERVER_PORT", &cfg.Server.Port)
	if v := os.Getenv("GYMTRACK_SERVER_TRUSTED_PROXIES"); v != "" {
		cfg.Server.TrustedProxies = strings.Split(v, ",")
	}
	setString("GYMTRACK_DB_HOST", &cfg.Database.Host)
	setInt("GYMTRACK_DB_PORT", &cfg.Database.Port)
	setString("GYMTRACK_DB_NAME", &cfg.Database.Name)
	setString("GYMTRACK_DB_USER", &cfg.Database.User)
	setString("GYMTRACK_DB_PASSWORD", &cfg.Database.Password)
	setString("GYMTRACK_DB_SSLMODE", &cfg.Database.SSLMode)
	setString("DATABASE_URL", &cfg.Database.URL)
	setString("GYMTRACK_AUTH_SECRET_KEY", &cfg.Auth.SecretKey)
	setString("GYMTRACK_AUTH_ALGORITHM", &cfg.Auth.Algorithm)
	setInt("GYMTRACK_AUTH_ACCESS_TOKEN_EXPIRE_MINUTES", &cfg.Auth.AccessTokenExpireMinutes)
	setBool("GYMTRACK_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled)
	setString("GYMTRACK_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if _, err := c.Server.TrustedPrefixes(); err != nil {
		return err
	}
	if c.Database.URL == "" {
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
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("auth.secret_key is required")
	}
	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("auth.algorithm must be HS256, HS384 or HS512")
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("auth.access_token_expire_minutes must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit.requests_per_second and rate_limit.burst must be positive")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
