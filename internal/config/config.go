package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor OTAMS_CONFIG is set
const DefaultPath = "config/config.yml"

// MinSecretLength is the shortest accepted HS256 signing secret, in bytes
const MinSecretLength = 32

type AppConfig struct {
	Port            int    `yaml:"port"`
	GinMode         string `yaml:"gin_mode"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	RequestTimeout  string `yaml:"request_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	AccessTTL  string `yaml:"access_ttl"`
	RefreshTTL string `yaml:"refresh_ttl"`
}

type SecurityConfig struct {
	BcryptCost           int    `yaml:"bcrypt_cost"`
	LoginMaxFailures     int    `yaml:"login_max_failures"`
	LoginFailureWindow   string `yaml:"login_failure_window"`
	RevokeLineageOnReuse *bool  `yaml:"revoke_lineage_on_reuse"`
	CookieSecure         *bool  `yaml:"cookie_secure"`
}

type JanitorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Interval  string `yaml:"interval"`
	Retention string `yaml:"retention"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Security SecurityConfig `yaml:"security"`
	Janitor  JanitorConfig  `yaml:"janitor"`
}

type Config struct {
	Port            string
	GinMode         string
	LogLevel        string
	LogFormat       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DSN          string
	MaxOpenConns int
	MaxIdleConns int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	JWTIssuer  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	BcryptCost           int
	LoginMaxFailures     int
	LoginFailureWindow   time.Duration
	RevokeLineageOnReuse bool
	CookieSecure         bool

	JanitorEnabled   bool
	JanitorInterval  time.Duration
	JanitorRetention time.Duration
}

// Default returns the configuration used when a key is absent from the file
func Default() *Config {
	return &Config{
		Port:                 "8080",
		GinMode:              "release",
		LogLevel:             "info",
		LogFormat:            "json",
		RequestTimeout:       5 * time.Second,
		ShutdownTimeout:      10 * time.Second,
		MaxOpenConns:         25,
		MaxIdleConns:         5,
		JWTIssuer:            "otams",
		AccessTTL:            15 * time.Minute,
		RefreshTTL:           7 * 24 * time.Hour,
		BcryptCost:           12,
		LoginMaxFailures:     5,
		LoginFailureWindow:   15 * time.Minute,
		RevokeLineageOnReuse: true,
		CookieSecure:         true,
		JanitorInterval:      time.Hour,
		JanitorRetention:     30 * 24 * time.Hour,
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// ResolvePath picks the config file: explicit flag, then OTAMS_CONFIG, then DefaultPath
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return env("OTAMS_CONFIG", DefaultPath)
}

// Load reads an optional .env, the yaml file at path (missing file means
// defaults only), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	file, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg, err := fromFile(file)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ConfigFile{}, nil
		}
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

// parseDuration leaves dst untouched for an empty value
func parseDuration(name, value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}

func fromFile(f *ConfigFile) (*Config, error) {
	cfg := Default()

	if f.App.Port != 0 {
		cfg.Port = strconv.Itoa(f.App.Port)
	}
	if f.App.GinMode != "" {
		cfg.GinMode = f.App.GinMode
	}
	if f.App.LogLevel != "" {
		cfg.LogLevel = f.App.LogLevel
	}
	if f.App.LogFormat != "" {
		cfg.LogFormat = f.App.LogFormat
	}

	cfg.DSN = f.Database.DSN
	if f.Database.MaxOpenConns != 0 {
		cfg.MaxOpenConns = f.Database.MaxOpenConns
	}
	if f.Database.MaxIdleConns != 0 {
		cfg.MaxIdleConns = f.Database.MaxIdleConns
	}

	cfg.RedisAddr = f.Redis.Addr
	cfg.RedisPassword = f.Redis.Password
	cfg.RedisDB = f.Redis.DB

	cfg.JWTSecret = f.JWT.Secret
	if f.JWT.Issuer != "" {
		cfg.JWTIssuer = f.JWT.Issuer
	}

	if f.Security.BcryptCost != 0 {
		cfg.BcryptCost = f.Security.BcryptCost
	}
	if f.Security.LoginMaxFailures != 0 {
		cfg.LoginMaxFailures = f.Security.LoginMaxFailures
	}
	if f.Security.RevokeLineageOnReuse != nil {
		cfg.RevokeLineageOnReuse = *f.Security.RevokeLineageOnReuse
	}
	if f.Security.CookieSecure != nil {
		cfg.CookieSecure = *f.Security.CookieSecure
	}

	cfg.JanitorEnabled = f.Janitor.Enabled

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"app request timeout", f.App.RequestTimeout, &cfg.RequestTimeout},
		{"app shutdown timeout", f.App.ShutdownTimeout, &cfg.ShutdownTimeout},
		{"JWT access TTL", f.JWT.AccessTTL, &cfg.AccessTTL},
		{"JWT refresh TTL", f.JWT.RefreshTTL, &cfg.RefreshTTL},
		{"login failure window", f.Security.LoginFailureWindow, &cfg.LoginFailureWindow},
		{"janitor interval", f.Janitor.Interval, &cfg.JanitorInterval},
		{"janitor retention", f.Janitor.Retention, &cfg.JanitorRetention},
	}
	for _, d := range durations {
		if err := parseDuration(d.name, d.value, d.dst); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = env("APP_PORT", c.Port)
	c.GinMode = env("GIN_MODE", c.GinMode)
	c.LogLevel = env("LOG_LEVEL", c.LogLevel)
	c.LogFormat = env("LOG_FORMAT", c.LogFormat)
	c.DSN = env("DATABASE_DSN", c.DSN)
	c.RedisAddr = env("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = env("REDIS_PASSWORD", c.RedisPassword)
	c.JWTSecret = env("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = env("JWT_ISSUER", c.JWTIssuer)

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		c.RedisDB = db
	}
	if err := parseDuration("JWT_ACCESS_TTL", os.Getenv("JWT_ACCESS_TTL"), &c.AccessTTL); err != nil {
		return err
	}
	return parseDuration("JWT_REFRESH_TTL", os.Getenv("JWT_REFRESH_TTL"), &c.RefreshTTL)
}

// Validate rejects configurations the service cannot run safely with
func (c *Config) Validate() error {
	var errs []error
	if c.DSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if len(c.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	} else if c.AccessTTL >= c.RefreshTTL {
		errs = append(errs, errors.New("access TTL must be shorter than refresh TTL"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.LoginMaxFailures <= 0 || c.LoginFailureWindow <= 0 {
		errs = append(errs, errors.New("login throttle limits must be positive"))
	}
	if c.JanitorEnabled && (c.JanitorInterval <= 0 || c.JanitorRetention < 0) {
		errs = append(errs, errors.New("janitor interval must be positive and retention non-negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ThrottleEnabled reports whether a redis address was configured
func (c *Config) ThrottleEnabled() bool {
	return c.RedisAddr != ""
}
