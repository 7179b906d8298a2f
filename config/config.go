// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-datamapper/cache"
	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/store/sqlstore"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Relation naming strategies.
const (
	NamingSame   = "same"
	NamingPlural = "plural"
)

// Config is the full process configuration.
type Config struct {
	Store StoreConfig
	Cache CacheConfig
	Log   LogConfig

	// RelationNaming selects how relations are named for types that do not
	// name one: NamingSame or NamingPlural.
	RelationNaming string `env:"RELATION_NAMING" envDefault:"same"`
}

// StoreConfig selects the relational store.
type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DSN    string `env:"STORE_DSN" envDefault:"file:datamapper.db?_pragma=foreign_keys(1)"`
}

// CacheConfig holds the cache-aside settings.
type CacheConfig struct {
	Backends  []string `env:"CACHE_BACKENDS" envSeparator:";" envDefault:"redis;session"`
	Namespace string   `env:"CACHE_NAMESPACE"`

	RedisURL         string        `env:"CACHE_REDIS_URL"`
	RedisAddr        string        `env:"CACHE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword    string        `env:"CACHE_REDIS_PASSWORD"`
	RedisDB          int           `env:"CACHE_REDIS_DB" envDefault:"0"`
	RedisDialTimeout time.Duration `env:"CACHE_REDIS_DIAL_TIMEOUT" envDefault:"2s"`

	LocalCapacity           int           `env:"CACHE_LOCAL_CAPACITY" envDefault:"10000"`
	LocalShards             int           `env:"CACHE_LOCAL_SHARDS" envDefault:"256"`
	LocalTTL                time.Duration `env:"CACHE_LOCAL_TTL" envDefault:"24h"`
	LocalEvictionPercentage int           `env:"CACHE_LOCAL_EVICTION_PERCENTAGE" envDefault:"10"`

	ShortTTL time.Duration `env:"CACHE_TIMEOUT_SHORT" envDefault:"60s"`
	LongTTL  time.Duration `env:"CACHE_TIMEOUT_LONG" envDefault:"1h"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// Load reads the configuration from the process environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errs.Configuration("parse env: %v", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads the configuration from vars instead of the process
// environment. Unset variables take their defaults.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, errs.Configuration("parse env: %v", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.RelationNaming, validation.In(NamingSame, NamingPlural)),
	); err != nil {
		return errs.Configuration("%v", err)
	}
	if err := c.Store.Validate(); err != nil {
		return errs.Configuration("store: %v", err)
	}
	if err := c.Log.Validate(); err != nil {
		return errs.Configuration("log: %v", err)
	}
	if err := c.Cache.Options().Validate(); err != nil {
		return errs.Configuration("cache: %v", err)
	}
	return nil
}

// Validate checks the store section.
func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required,
			validation.In(sqlstore.DriverSQLite, sqlstore.DriverSQLite3, sqlstore.DriverPostgres)),
		validation.Field(&s.DSN, validation.Required),
	)
}

// Validate checks the log section.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.By(func(any) error {
			_, err := zapcore.ParseLevel(l.Level)
			return err
		})),
	)
}

// Options converts the section to the cache package configuration.
func (c CacheConfig) Options() cache.Config {
	backends := make([]string, 0, len(c.Backends))
	for _, name := range c.Backends {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			backends = append(backends, name)
		}
	}

	return cache.Config{
		Backends:  backends,
		Namespace: c.Namespace,
		Redis: cache.RedisConfig{
			URL:         c.RedisURL,
			Addr:        c.RedisAddr,
			Password:    c.RedisPassword,
			DB:          c.RedisDB,
			DialTimeout: c.RedisDialTimeout,
		},
		Local: cache.LocalConfig{
			Capacity:           c.LocalCapacity,
			NumShards:          c.LocalShards,
			TTL:                c.LocalTTL,
			EvictionPercentage: c.LocalEvictionPercentage,
		},
		ShortTTL: c.ShortTTL,
		LongTTL:  c.LongTTL,
	}
}

// NewLogger builds the process logger: JSON at the configured level, or the
// development console encoder when Development is set.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if l.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("config: build logger: %w", err)
	}
	return logger, nil
}
