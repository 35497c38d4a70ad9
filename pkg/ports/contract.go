package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/btlib/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractRecord() *domain.Telemetry {
	return &domain.Telemetry{
		Fingerprint: "contract",
		Counts: domain.ValueMap{
			10:  domain.CountValue(3),
			100: nil,
		},
		Histograms: domain.ValueMap{
			10:  domain.HistogramValue(0, 1, 2, 0),
			100: nil,
		},
		Runs: []string{"run-a"},
	}
}

// RunTelemetryStoreContract runs a suite of tests to verify that a TelemetryStore
// implementation adheres to the defined interface contract.
func RunTelemetryStoreContract(t *testing.T, store TelemetryStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		record := contractRecord()

		err := store.Save(ctx, key, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.Fingerprint, loaded.Fingerprint)
		assert.Equal(t, record.Counts, loaded.Counts)
		assert.Equal(t, record.Histograms, loaded.Histograms)
		assert.Equal(t, record.Runs, loaded.Runs)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		record := contractRecord()
		record.Counts[100] = domain.CountValue(1)
		record.Runs = append(record.Runs, "run-b")
		require.NoError(t, store.Save(ctx, key, record))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, domain.CountValue(1), loaded.Counts[100])
		assert.Equal(t, []string{"run-a", "run-b"}, loaded.Runs)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		loaded.Counts[10].Count = 999

		again, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 3, again.Counts[10].Count, "mutating a loaded record must not change the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, contractRecord()))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound, "Load after Delete should return ErrRecordNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Delete of a missing key should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, contractRecord())
		_ = store.Save(ctx, id2, contractRecord())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
		assert.NotContains(t, keys, key)
	})
}
