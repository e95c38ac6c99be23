// Package config loads process configuration from an optional YAML file,
// an optional .env file and PORTFOLIO_ prefixed environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/goliatone/go-portfolio-crm/cache"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, so server.port is read
// from PORTFOLIO_SERVER_PORT.
const EnvPrefix = "PORTFOLIO"

type Server struct {
	Port string `mapstructure:"port"`
	// Mode is debug or release.
	Mode string `mapstructure:"mode"`
}

type Database struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type Cache struct {
	Capacity           int           `mapstructure:"capacity"`
	NumShards          int           `mapstructure:"num_shards"`
	TTL                time.Duration `mapstructure:"ttl"`
	EvictionPercentage int           `mapstructure:"eviction_percentage"`
	EvictionInterval   time.Duration `mapstructure:"eviction_interval"`
}

// Blob locates the local attachment store.
type Blob struct {
	Root    string `mapstructure:"root"`
	BaseURL string `mapstructure:"base_url"`
}

// API holds the external API credentials. An empty token disables the
// external routes.
type API struct {
	Token string `mapstructure:"token"`
}

// Config is the full process configuration.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Cache    Cache    `mapstructure:"cache"`
	Blob     Blob     `mapstructure:"blob"`
	API      API      `mapstructure:"api"`
}

// Options select the optional sources Load reads.
type Options struct {
	// File is a YAML config file. Empty skips it.
	File string
	// EnvFiles are .env files loaded into the environment when present.
	// Nil loads ".env".
	EnvFiles []string
}

func setDefaults(v *viper.Viper) {
	cacheDefaults := cache.DefaultConfig()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("cache.capacity", cacheDefaults.Capacity)
	v.SetDefault("cache.num_shards", cacheDefaults.NumShards)
	v.SetDefault("cache.ttl", cacheDefaults.TTL)
	v.SetDefault("cache.eviction_percentage", cacheDefaults.EvictionPercentage)
	v.SetDefault("cache.eviction_interval", cacheDefaults.EvictionInterval)
	v.SetDefault("blob.root", "uploads")
	v.SetDefault("blob.base_url", "/uploads")
	v.SetDefault("api.token", "")
}

// Load reads and validates the configuration.
func Load(opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CacheConfig converts the cache section for cache.NewCacheService.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Capacity:           c.Cache.Capacity,
		NumShards:          c.Cache.NumShards,
		TTL:                c.Cache.TTL,
		EvictionPercentage: c.Cache.EvictionPercentage,
		EvictionInterval:   c.Cache.EvictionInterval,
	}
}

// Validate fails on settings the process cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return &ConfigError{Field: "server.port", Message: "is required"}
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return &ConfigError{Field: "server.mode", Message: "must be debug or release"}
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return &ConfigError{Field: "database.driver", Message: "must be sqlite or postgres"}
	}
	if c.Database.DSN == "" {
		return &ConfigError{Field: "database.dsn", Message: "is required"}
	}
	if c.Cache.TTL > cache.MaxTTL {
		return &ConfigError{Field: "cache.ttl", Message: "must not exceed " + cache.MaxTTL.String()}
	}
	if err := c.CacheConfig().Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if c.Blob.Root == "" {
		return &ConfigError{Field: "blob.root", Message: "is required"}
	}
	return nil
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s: %s", e.Field, e.Message)
}
