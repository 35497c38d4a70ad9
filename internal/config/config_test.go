package config

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/btlib/pkg/adapters/file"
	"github.com/aretw0/btlib/pkg/adapters/memory"
	"github.com/aretw0/btlib/pkg/adapters/redis"
	"github.com/aretw0/btlib/pkg/adapters/sqlite"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
store:
  backend: redis
  addr: redis:6379
  ttl: 1h
  lock: true
coverage:
  threshold: 0.9
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Addr)
	assert.Equal(t, time.Hour, cfg.Store.TTL)
	assert.Equal(t, 30*time.Second, cfg.Store.LockTTL)
	assert.True(t, cfg.Store.Lock)
	assert.Equal(t, 0.9, cfg.Coverage.Threshold)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"Bad YAML", "store: [", "failed to parse config"},
		{"Unknown Key", "colour: red", "failed to decode config"},
		{"Bad Duration", "store:\n  ttl: soon", "failed to decode config"},
		{"Unknown Backend", "store:\n  backend: etcd", `unknown store backend "etcd"`},
		{"Threshold Range", "coverage:\n  threshold: 2", "coverage threshold"},
		{"Port Range", "server:\n  port: 70000", "invalid server port"},
		{"Log Format", "log_format: xml", "unknown log format"},
		{"Short Key", "store:\n  encryption_key: c2hvcnQ=", "active key must be 32 bytes"},
		{"Bad Key", "store:\n  encryption_key: '!!'", "invalid encryption_key"},
		{"Fallback Only", "store:\n  fallback_keys: [a]", "fallback_keys need an encryption_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("Missing Default File", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("Missing Explicit File", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read config")
	})

	t.Run("Default File", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("server:\n  port: 9090\n"), 0644))
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
	})
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name       string
		cfg        StoreConfig
		wantStore  any
		wantLocker bool
	}{
		{"Memory", StoreConfig{Backend: BackendMemory}, &memory.Store{}, false},
		{"File", StoreConfig{Backend: BackendFile, Path: dir, Lock: true}, &file.Store{}, true},
		{"Redis", StoreConfig{Backend: BackendRedis, Addr: mr.Addr(), Prefix: "test:", Lock: true}, &redis.Store{}, true},
		{"SQLite", StoreConfig{Backend: BackendSQLite, Path: ":memory:"}, &sqlite.Store{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := OpenStore(tt.cfg)
			require.NoError(t, err)
			defer b.Close()

			assert.IsType(t, tt.wantStore, b.Store)
			assert.Equal(t, tt.wantLocker, b.Locker != nil)

			record := &domain.Telemetry{Runs: []string{"r1"}}
			require.NoError(t, b.Store.Save(ctx, "k", record))
			got, err := b.Store.Load(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []string{"r1"}, got.Runs)
		})
	}

	_, err := OpenStore(StoreConfig{Backend: "etcd"})
	assert.Error(t, err)
}

func TestOpenStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))

	b, err := OpenStore(StoreConfig{Backend: BackendFile, Path: dir, EncryptionKey: key})
	require.NoError(t, err)
	defer b.Close()

	record := &domain.Telemetry{Counts: domain.ValueMap{10: domain.CountValue(2)}, Runs: []string{"r1"}}
	require.NoError(t, b.Store.Save(ctx, "k", record))

	raw, err := file.New(dir).Load(ctx, "k")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Nil(t, raw.Counts)

	got, err := b.Store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, domain.CountValue(2), got.Counts[10])
}
