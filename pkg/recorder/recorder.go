package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/btlib/internal/logging"
	"github.com/aretw0/btlib/internal/telemetry"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/aretw0/btlib/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Recorder orchestrates read-merge-write cycles on stored telemetry.
// It uses reference counting to garbage collect unused locks.
type Recorder struct {
	store ports.TelemetryStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Recorder) {
		r.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(r *Recorder) {
		r.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Recorder.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithRunIDs replaces the run identifier generator (random UUIDs by default).
func WithRunIDs(fn func() string) Option {
	return func(r *Recorder) {
		r.newID = fn
	}
}

// New creates a Recorder on top of store.
func New(store ports.TelemetryStore, opts ...Option) *Recorder {
	r := &Recorder{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (r *Recorder) acquire(key string) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.locks[key]
	if !exists {
		entry = &lockEntry{}
		r.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (r *Recorder) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(r.locks, key)
	}
}

// Record aggregates one run of tree and merges it into the record stored
// under key. The run gets a fresh identifier. It returns the merged record.
func (r *Recorder) Record(ctx context.Context, key string, tree *domain.Tree, events []domain.Event) (*domain.Telemetry, error) {
	counts, histograms, err := telemetry.Aggregate(events, tree)
	if err != nil {
		return nil, err
	}
	run := &domain.Telemetry{
		Fingerprint: tree.Fingerprint(),
		Counts:      counts,
		Histograms:  histograms,
		Runs:        []string{r.newID()},
	}
	return r.Merge(ctx, key, run)
}

// Merge folds an already aggregated record into the record stored under key.
func (r *Recorder) Merge(ctx context.Context, key string, run *domain.Telemetry) (*domain.Telemetry, error) {
	var merged *domain.Telemetry
	err := r.WithLock(ctx, key, func(ctx context.Context) error {
		current, err := r.store.Load(ctx, key)
		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Errorf("failed to load record: %w", err)
		}
		merged, err = telemetry.MergeTelemetry(current, run)
		if err != nil {
			return err
		}
		if err := r.store.Save(ctx, key, merged); err != nil {
			return fmt.Errorf("failed to save record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Run recorded", "key", key, "runs", len(merged.Runs))
	return merged, nil
}

// Load retrieves the record stored under key.
func (r *Recorder) Load(ctx context.Context, key string) (*domain.Telemetry, error) {
	var record *domain.Telemetry
	err := r.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		record, err = r.store.Load(ctx, key)
		return err
	})
	return record, err
}

// Delete removes the record stored under key.
func (r *Recorder) Delete(ctx context.Context, key string) error {
	return r.WithLock(ctx, key, func(ctx context.Context) error {
		return r.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (r *Recorder) List(ctx context.Context) ([]string, error) {
	return r.store.List(ctx)
}

// Store returns the underlying store.
func (r *Recorder) Store() ports.TelemetryStore {
	return r.store
}

// WithLock executes fn while holding the lock for key.
func (r *Recorder) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := r.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		r.release(key)
	}()

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, key, r.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				r.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
