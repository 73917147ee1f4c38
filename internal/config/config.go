// Package config loads the gateway configuration.
//
// Values are layered: built-in defaults, then an optional YAML file
// (CONFIG_FILE), then an optional dotenv file (ENV_FILE), then the process
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	VerifierRemote = "remote"
	VerifierJWT    = "jwt"

	RoleStoreSupabase = "supabase"
	RoleStorePostgres = "postgres"
)

// Config holds the gateway settings.
type Config struct {
	ListenAddr      string        `yaml:"listen_addr" env:"LISTEN_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	SupabaseURL            string        `yaml:"supabase_url" env:"SUPABASE_URL"`
	SupabaseAnonKey        string        `yaml:"-" env:"SUPABASE_ANON_KEY"`
	SupabaseServiceRoleKey string        `yaml:"-" env:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseJWTSecret      string        `yaml:"-" env:"SUPABASE_JWT_SECRET"`
	SupabaseTimeout        time.Duration `yaml:"supabase_timeout" env:"SUPABASE_TIMEOUT"`
	AllowInsecureSupabase  bool          `yaml:"allow_insecure_supabase" env:"ALLOW_INSECURE_SUPABASE"`

	BreakerFailureThreshold int           `yaml:"breaker_failure_threshold" env:"BREAKER_FAILURE_THRESHOLD"`
	BreakerCooldown         time.Duration `yaml:"breaker_cooldown" env:"BREAKER_COOLDOWN"`

	AuthVerifier string `yaml:"auth_verifier" env:"AUTH_VERIFIER"`
	JWTAudience  string `yaml:"jwt_audience" env:"JWT_AUDIENCE"`

	RoleStore   string `yaml:"role_store" env:"ROLE_STORE"`
	DatabaseURL string `yaml:"-" env:"DATABASE_URL"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE"`
	AdminRole   string `yaml:"admin_role" env:"ADMIN_ROLE"`

	StrictStatusCodes bool `yaml:"strict_status_codes" env:"STRICT_STATUS_CODES"`

	RateLimitRPS   int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		ListenAddr:              ":8080",
		ShutdownTimeout:         15 * time.Second,
		SupabaseTimeout:         10 * time.Second,
		BreakerFailureThreshold: 5,
		BreakerCooldown:         30 * time.Second,
		AuthVerifier:            VerifierRemote,
		JWTAudience:             "authenticated",
		RoleStore:               RoleStoreSupabase,
		AdminRole:               "admin",
		RateLimitRPS:            5,
		RateLimitBurst:          10,
		LogLevel:                "info",
		LogFormat:               "json",
	}
}

// Load builds the configuration from CONFIG_FILE, ENV_FILE and the
// environment, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if envFile := strings.TrimSpace(os.Getenv("ENV_FILE")); envFile != "" {
		// godotenv.Load does not override variables already in the environment.
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads a YAML file over the defaults without consulting the
// environment.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	err := envdecode.Decode(c)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to decode environment: %w", err)
	}
	return nil
}

// Validate checks required settings and cross-field constraints.
func (c *Config) Validate() error {
	c.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.SupabaseURL), "/")
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	parsed, err := url.Parse(c.SupabaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("SUPABASE_URL must be a valid URL")
	}
	if parsed.User != nil {
		return fmt.Errorf("SUPABASE_URL must not include user info")
	}
	if parsed.Scheme != "https" && !c.AllowInsecureSupabase {
		return fmt.Errorf("SUPABASE_URL must use https")
	}

	if strings.TrimSpace(c.SupabaseServiceRoleKey) == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}

	switch c.AuthVerifier {
	case VerifierRemote:
	case VerifierJWT:
		if strings.TrimSpace(c.SupabaseJWTSecret) == "" {
			return fmt.Errorf("SUPABASE_JWT_SECRET is required when AUTH_VERIFIER=jwt")
		}
	default:
		return fmt.Errorf("unknown AUTH_VERIFIER %q", c.AuthVerifier)
	}

	switch c.RoleStore {
	case RoleStoreSupabase:
	case RoleStorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when ROLE_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown ROLE_STORE %q", c.RoleStore)
	}

	if c.AutoMigrate && c.RoleStore != RoleStorePostgres {
		return fmt.Errorf("AUTO_MIGRATE requires ROLE_STORE=postgres")
	}

	if strings.TrimSpace(c.AdminRole) == "" {
		return fmt.Errorf("ADMIN_ROLE must not be empty")
	}
	if c.SupabaseTimeout <= 0 {
		return fmt.Errorf("SUPABASE_TIMEOUT must be positive")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set")
	}
	return nil
}

// APIKey is the key sent as the apikey header on caller-token requests.
// Supabase accepts either project key there; the anon key is preferred.
func (c *Config) APIKey() string {
	if c.SupabaseAnonKey != "" {
		return c.SupabaseAnonKey
	}
	return c.SupabaseServiceRoleKey
}

// LogFields returns the settings that are safe to log.
func (c *Config) LogFields() map[string]interface{} {
	return map[string]interface{}{
		"listen_addr":         c.ListenAddr,
		"supabase_url":        c.SupabaseURL,
		"supabase_timeout":    c.SupabaseTimeout.String(),
		"auth_verifier":       c.AuthVerifier,
		"role_store":          c.RoleStore,
		"auto_migrate":        c.AutoMigrate,
		"admin_role":          c.AdminRole,
		"strict_status_codes": c.StrictStatusCodes,
		"rate_limit_rps":      c.RateLimitRPS,
		"rate_limit_burst":    c.RateLimitBurst,
	}
}
