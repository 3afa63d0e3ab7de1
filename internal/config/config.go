package config

import (
	"errors"
	"fmt"
	"time"
)

// Supported db_driver values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MinSessionSecretLength is the shortest accepted HMAC secret in bytes.
const MinSessionSecretLength = 16

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	DBDriver     string        `mapstructure:"db_driver" yaml:"db_driver"`
	DBDSN        string        `mapstructure:"db_dsn" yaml:"db_dsn"`
	StoreTimeout time.Duration `mapstructure:"store_timeout" yaml:"store_timeout"`

	SessionSecret string        `mapstructure:"session_secret" yaml:"session_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	JWTIssuer     string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience   string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	BcryptCost    int           `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" yaml:"cors_allowed_origins"`
	// Gzip is a pointer so UpdateFrom can tell "off" from "unset".
	Gzip *bool `mapstructure:"gzip" yaml:"gzip"`
	// AuthRateLimit is requests per minute per client on /auth routes; 0 disables it.
	AuthRateLimit int `mapstructure:"auth_rate_limit" yaml:"auth_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		LogFormat:          "console",
		DBDriver:           DriverSQLite,
		DBDSN:              "messagely.db",
		StoreTimeout:       5 * time.Second,
		TokenTTL:           24 * time.Hour,
		JWTIssuer:          "messagely",
		JWTAudience:        "messagely",
		BcryptCost:         12,
		CORSAllowedOrigins: []string{"*"},
		Gzip:               boolPtr(true),
		AuthRateLimit:      30,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DBDriver != "" {
		c.DBDriver = other.DBDriver
	}
	if other.DBDSN != "" {
		c.DBDSN = other.DBDSN
	}
	if other.StoreTimeout != 0 {
		c.StoreTimeout = other.StoreTimeout
	}
	if other.SessionSecret != "" {
		c.SessionSecret = other.SessionSecret
	}
	if other.TokenTTL != 0 {
		c.TokenTTL = other.TokenTTL
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.BcryptCost != 0 {
		c.BcryptCost = other.BcryptCost
	}
	if len(other.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = other.CORSAllowedOrigins
	}
	if other.Gzip != nil {
		c.Gzip = boolPtr(*other.Gzip)
	}
	if other.AuthRateLimit != 0 {
		c.AuthRateLimit = other.AuthRateLimit
	}
}

// GzipEnabled reports whether responses are compressed; unset means on.
func (c *Config) GzipEnabled() bool {
	return c.Gzip == nil || *c.Gzip
}

func boolPtr(b bool) *bool {
	return &b
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("db_driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("db_dsn is required"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("store_timeout must be positive"))
	}
	if len(c.SessionSecret) < MinSessionSecretLength {
		errs = append(errs, fmt.Errorf("session_secret must be at least %d bytes", MinSessionSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt_cost must be within 4..31, got %d", c.BcryptCost))
	}
	if c.AuthRateLimit < 0 {
		errs = append(errs, errors.New("auth_rate_limit must not be negative"))
	}

	return errors.Join(errs...)
}
