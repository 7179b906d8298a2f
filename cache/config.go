package cache

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-datamapper/internal/cacheinfra"
)

// Backend names accepted in Config.Backends.
const (
	BackendRedis   = "redis"
	BackendSession = "session"
	BackendLocal   = "local"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	// Backends is the ordered candidate list. The first that constructs wins.
	Backends  []string
	Namespace string
	Redis     RedisConfig
	Local     LocalConfig
	ShortTTL  time.Duration
	LongTTL   time.Duration
}

// RedisConfig mirrors the networked backend's connection settings.
type RedisConfig struct {
	URL         string
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// LocalConfig mirrors the underlying sturdyc options.
type LocalConfig struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults: Redis
// first, then the caller's session.
func DefaultConfig() Config {
	return Config{
		Backends: []string{BackendRedis, BackendSession},
		Redis:    redisFromInternal(cacheinfra.DefaultRedisConfig()),
		Local:    localFromInternal(cacheinfra.DefaultLocalConfig()),
		ShortTTL: TTLShort,
		LongTTL:  TTLLong,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Backends, validation.Each(validation.In(BackendRedis, BackendSession, BackendLocal))),
		validation.Field(&c.ShortTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.LongTTL, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return err
	}

	for _, name := range c.Backends {
		switch name {
		case BackendRedis:
			if err := c.Redis.toInternal().Validate(); err != nil {
				return err
			}
		case BackendLocal:
			if err := c.Local.toInternal().Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Candidates turns the configured backend names into constructors. sessions
// may be nil, in which case the session candidate fails when tried.
func (c Config) Candidates(sessions *Sessions) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(c.Backends))
	for _, name := range c.Backends {
		switch name {
		case BackendRedis:
			candidates = append(candidates, RedisCandidate(c.Redis))
		case BackendSession:
			candidates = append(candidates, SessionCandidate(sessions))
		case BackendLocal:
			candidates = append(candidates, LocalCandidate(c.Local))
		default:
			return nil, fmt.Errorf("cache: unknown backend %q", name)
		}
	}
	return candidates, nil
}

// NewAsideFromConfig validates cfg and selects a backend from its candidate list.
func NewAsideFromConfig(ctx context.Context, cfg Config, sessions *Sessions, opts ...Option) (*Aside, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	candidates, err := cfg.Candidates(sessions)
	if err != nil {
		return nil, err
	}
	return NewAside(ctx, candidates, opts...), nil
}

func (c RedisConfig) toInternal() cacheinfra.RedisConfig {
	return cacheinfra.RedisConfig{
		URL:         c.URL,
		Addr:        c.Addr,
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: c.DialTimeout,
	}
}

func redisFromInternal(cfg cacheinfra.RedisConfig) RedisConfig {
	return RedisConfig{
		URL:         cfg.URL,
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	}
}

func (c LocalConfig) toInternal() cacheinfra.LocalConfig {
	return cacheinfra.LocalConfig{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func localFromInternal(cfg cacheinfra.LocalConfig) LocalConfig {
	return LocalConfig{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
