package config

import (
	"testing"
	"time"

	"github.com/goliatone/go-datamapper/cache"
	"github.com/goliatone/go-datamapper/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.NotEmpty(t, cfg.Store.DSN)
	assert.Equal(t, []string{"redis", "session"}, cfg.Cache.Backends)
	assert.Equal(t, 60*time.Second, cfg.Cache.ShortTTL)
	assert.Equal(t, time.Hour, cfg.Cache.LongTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
	assert.Equal(t, NamingSame, cfg.RelationNaming)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"STORE_DRIVER":        "postgres",
		"STORE_DSN":           "postgres://localhost/crafting?sslmode=disable",
		"CACHE_BACKENDS":      "local; Session",
		"CACHE_NAMESPACE":     "craft",
		"CACHE_TIMEOUT_SHORT": "5s",
		"LOG_LEVEL":           "debug",
		"LOG_DEVELOPMENT":     "true",
		"RELATION_NAMING":     "plural",
	})
	require.NoError(t, err)

	opts := cfg.Cache.Options()
	assert.Equal(t, []string{cache.BackendLocal, cache.BackendSession}, opts.Backends)
	assert.Equal(t, "craft", opts.Namespace)
	assert.Equal(t, 5*time.Second, opts.ShortTTL)
	assert.Equal(t, 10000, opts.Local.Capacity)
	assert.Equal(t, "localhost:6379", opts.Redis.Addr)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, NamingPlural, cfg.RelationNaming)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{name: "unknown driver", vars: map[string]string{"STORE_DRIVER": "mysql"}},
		{name: "unknown backend", vars: map[string]string{"CACHE_BACKENDS": "memcached"}},
		{name: "bad level", vars: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "bad naming", vars: map[string]string{"RELATION_NAMING": "kebab"}},
		{name: "bad duration", vars: map[string]string{"CACHE_TIMEOUT_LONG": "forever"}},
		{name: "local without capacity", vars: map[string]string{"CACHE_BACKENDS": "local", "CACHE_LOCAL_CAPACITY": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}

func TestLogConfig_NewLogger(t *testing.T) {
	logger, err := LogConfig{Level: "warn"}.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	dev, err := LogConfig{Level: "debug", Development: true}.NewLogger()
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zap.DebugLevel))

	_, err = LogConfig{Level: "loud"}.NewLogger()
	assert.Error(t, err)
}
