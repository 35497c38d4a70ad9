package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/btlib/pkg/adapters/file"
	"github.com/aretw0/btlib/pkg/adapters/memory"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/aretw0/btlib/pkg/persistence/middleware"
	"github.com/aretw0/btlib/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleRecord() *domain.Telemetry {
	return &domain.Telemetry{
		Fingerprint: "abc",
		Counts:      domain.ValueMap{10: nil, 100: domain.CountValue(3)},
		Histograms:  domain.ValueMap{10: nil, 100: domain.HistogramValue(0, 1, 2, 0)},
		Runs:        []string{"run-1"},
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "robot", sampleRecord()))

	stored, err := underlying.Load(ctx, "robot")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Sealed)
	assert.Empty(t, stored.Counts, "counts must only live in the sealed payload")
	assert.Equal(t, "abc", stored.Fingerprint)
	assert.Equal(t, []string{"run-1"}, stored.Runs)

	loaded, err := secure.Load(ctx, "robot")
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), loaded)

	keys, err := secure.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"robot"}, keys)
	require.NoError(t, secure.Delete(ctx, "robot"))
	_, err = secure.Load(ctx, "robot")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := file.New(t.TempDir())
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, secureOld.Save(ctx, "robot", sampleRecord()))

	secureNew := middleware.Chain(underlying, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	}))
	loaded, err := secureNew.Load(ctx, "robot")
	require.NoError(t, err, "fallback key must open old records")
	assert.Equal(t, domain.CountValue(3), loaded.Counts[100])

	// Saving again re-seals with the new key.
	require.NoError(t, secureNew.Save(ctx, "robot", loaded))
	_, err = secureOld.Load(ctx, "robot")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "robot", sampleRecord()))

	var secure ports.TelemetryStore = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "robot")
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
	assert.Error(t, middleware.EncryptionConfig{
		ActiveKey:    make([]byte, middleware.KeySize),
		FallbackKeys: [][]byte{[]byte("old")},
	}.Validate())
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunTelemetryStoreContract(t, mw(memory.NewStore()))
}
