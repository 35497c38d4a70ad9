package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/btlib/pkg/adapters/file"
	"github.com/aretw0/btlib/pkg/adapters/memory"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/aretw0/btlib/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency so unsynchronized read-merge-write cycles
// would lose updates.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, key string) (*domain.Telemetry, error) {
	time.Sleep(2 * time.Millisecond) // Simulate IO
	return s.Store.Load(ctx, key)
}

type countingLocker struct {
	locks   atomic.Int32
	unlocks atomic.Int32
	err     error
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locks.Add(1)
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func testTree(t *testing.T, leaf string) *domain.Tree {
	t.Helper()
	b := domain.NewTreeBuilder()
	require.NoError(t, b.AddNode(domain.Node{ID: 10, Name: domain.NameBehaviorTree, Category: domain.CategoryRoot}))
	require.NoError(t, b.AddNode(domain.Node{ID: 100, Name: leaf}))
	require.NoError(t, b.AddEdge(domain.Edge{Parent: 10, Child: 100}))
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}

func TestRecorder_Record(t *testing.T) {
	n := 0
	rec := New(memory.NewStore(), WithRunIDs(func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}))
	ctx := context.Background()
	tree := testTree(t, "Dock")

	_, err := rec.Record(ctx, "robot", tree, []domain.Event{{NodeID: 100, Status: domain.StatusRunning}})
	require.NoError(t, err)
	merged, err := rec.Record(ctx, "robot", tree, []domain.Event{{NodeID: 100, Status: domain.StatusSuccess}})
	require.NoError(t, err)

	assert.Equal(t, []string{"run-1", "run-2"}, merged.Runs)
	assert.Equal(t, domain.CountValue(2), merged.Counts[100])
	assert.Nil(t, merged.Counts[10])
	assert.Equal(t, domain.HistogramValue(0, 1, 1, 0), merged.Histograms[100])
	assert.Equal(t, tree.Fingerprint(), merged.Fingerprint)

	loaded, err := rec.Load(ctx, "robot")
	require.NoError(t, err)
	assert.Equal(t, merged, loaded)
}

func TestRecorder_RejectsOtherTree(t *testing.T) {
	rec := New(memory.NewStore())
	ctx := context.Background()

	_, err := rec.Record(ctx, "robot", testTree(t, "Dock"), nil)
	require.NoError(t, err)
	_, err = rec.Record(ctx, "robot", testTree(t, "Undock"), nil)
	assert.ErrorIs(t, err, domain.ErrConsistency)

	record, err := rec.Load(ctx, "robot")
	require.NoError(t, err)
	assert.Len(t, record.Runs, 1, "failed merge must not be saved")
}

func TestRecorder_UnknownNode(t *testing.T) {
	rec := New(memory.NewStore())
	ctx := context.Background()

	_, err := rec.Record(ctx, "robot", testTree(t, "Dock"), []domain.Event{{NodeID: 5}})
	assert.ErrorIs(t, err, domain.ErrConsistency)

	_, err = rec.Load(ctx, "robot")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestRecorder_ConcurrentRecords(t *testing.T) {
	rec := New(slowStore{memory.NewStore()})
	ctx := context.Background()
	tree := testTree(t, "Dock")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rec.Record(ctx, "robot", tree, []domain.Event{{NodeID: 100, Status: domain.StatusSuccess}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	record, err := rec.Load(ctx, "robot")
	require.NoError(t, err)
	assert.Equal(t, domain.CountValue(10), record.Counts[100], "no run may be lost")
	assert.Len(t, record.Runs, 10)
}

func TestRecorder_LockLifecycle(t *testing.T) {
	rec := New(memory.NewStore())
	ctx := context.Background()
	tree := testTree(t, "Dock")

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("robot-%d", i)
		_, _ = rec.Record(ctx, key, tree, nil)
		_ = rec.Delete(ctx, key)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.locks, "lock map should be empty after use")
}

func TestRecorder_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	rec := New(memory.NewStore(), WithLocker(locker), WithLockTTL(time.Second))
	ctx := context.Background()

	_, err := rec.Record(ctx, "robot", testTree(t, "Dock"), nil)
	require.NoError(t, err)
	_, err = rec.Load(ctx, "robot")
	require.NoError(t, err)

	assert.Equal(t, int32(2), locker.locks.Load())
	assert.Equal(t, int32(2), locker.unlocks.Load())

	locker.err = errors.New("unreachable")
	_, err = rec.Record(ctx, "robot", testTree(t, "Dock"), nil)
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}

func TestRecorder_FileBackend(t *testing.T) {
	dir := t.TempDir()
	rec := New(file.New(dir), WithLocker(file.NewLocker(dir)))
	ctx := context.Background()
	tree := testTree(t, "Dock")

	for i := 0; i < 3; i++ {
		_, err := rec.Record(ctx, "robot", tree, []domain.Event{{NodeID: 100, Status: domain.StatusFailure}})
		require.NoError(t, err)
	}

	record, err := rec.Load(ctx, "robot")
	require.NoError(t, err)
	assert.Equal(t, domain.HistogramValue(0, 0, 0, 3), record.Histograms[100])
}

func TestRecorder_List(t *testing.T) {
	rec := New(memory.NewStore())
	ctx := context.Background()
	tree := testTree(t, "Dock")
	for _, key := range []string{"b", "a"} {
		_, err := rec.Record(ctx, key, tree, nil)
		require.NoError(t, err)
	}

	keys, err := rec.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}
