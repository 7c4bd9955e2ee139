package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverMongoDB = "mongodb"
	DriverMemory  = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	MongoDB   MongoDBConfig   `mapstructure:"mongodb"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Blacklist BlacklistConfig `mapstructure:"blacklist"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	LogLevel  string          `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	AllowedHosts   []string      `mapstructure:"allowed_hosts"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig selects the entity store implementation
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	// ExpiresIn is the session lifetime in seconds
	ExpiresIn int `mapstructure:"expires_in"`
}

// RedisConfig configures the optional lookup cache. An empty Addr disables it.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	LookupTTL time.Duration `mapstructure:"lookup_ttl"`
}

// BlacklistConfig holds record lifecycle settings
type BlacklistConfig struct {
	DefaultExpiryDays int `mapstructure:"default_expiry_days"`
}

// BootstrapConfig seeds the first super_admin on an empty user store
type BootstrapConfig struct {
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
}

// TokenTTL is the session token lifetime
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpiresIn) * time.Second
}

// DefaultExpiry is the expiry applied to records submitted without one
func (c *Config) DefaultExpiry() time.Duration {
	return time.Duration(c.Blacklist.DefaultExpiryDays) * 24 * time.Hour
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets default values for configuration.
// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.allowed_hosts", []string{"localhost:3000"})
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("storage.driver", DriverMongoDB)
	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "blacklisthub")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expires_in", 24*60*60) // 24 hours
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lookup_ttl", 60*time.Second)
	v.SetDefault("blacklist.default_expiry_days", 180)
	v.SetDefault("bootstrap.admin_username", "")
	v.SetDefault("bootstrap.admin_password", "")
	v.SetDefault("log_level", "info")
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMongoDB:
		if c.JWT.Secret == "" {
			return errors.New("jwt.secret is required with the mongodb storage driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("jwt.expires_in must be positive")
	}
	if c.Blacklist.DefaultExpiryDays <= 0 {
		return errors.New("blacklist.default_expiry_days must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	if c.Redis.Addr != "" && c.Redis.LookupTTL <= 0 {
		return errors.New("redis.lookup_ttl must be positive when redis is enabled")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
