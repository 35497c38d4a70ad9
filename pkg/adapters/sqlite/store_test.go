package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/btlib/pkg/adapters/sqlite"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/aretw0/btlib/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ports.RunTelemetryStoreContract(t, store)
}

func TestSQLiteStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "telemetry.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "robot", &domain.Telemetry{
		Fingerprint: "f1",
		Counts:      domain.ValueMap{1: domain.CountValue(4)},
		Runs:        []string{"r1", "r2"},
	}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	record, err := reopened.Load(ctx, "robot")
	require.NoError(t, err)
	assert.Equal(t, domain.CountValue(4), record.Counts[1])
	assert.Equal(t, []string{"r1", "r2"}, record.Runs)
}

func TestSQLiteStore_KeysForTree(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", &domain.Telemetry{Fingerprint: "f1"}))
	require.NoError(t, store.Save(ctx, "b", &domain.Telemetry{Fingerprint: "f2"}))
	require.NoError(t, store.Save(ctx, "c", &domain.Telemetry{Fingerprint: "f1"}))

	keys, err := store.KeysForTree(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, keys)
}
