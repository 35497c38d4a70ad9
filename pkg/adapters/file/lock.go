package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/btlib/pkg/ports"
	"github.com/gofrs/flock"
)

// Locker implements ports.DistributedLocker with advisory file locks, one
// ".lock" file per key next to the records. It coordinates processes that
// share the same directory; the TTL is not enforced since the OS releases
// the lock when the holder exits.
type Locker struct {
	BasePath string
	// RetryDelay is the polling interval while waiting for a held lock.
	RetryDelay time.Duration
}

// NewLocker creates a locker for the directory of a Store.
func NewLocker(basePath string) *Locker {
	if basePath == "" {
		basePath = filepath.Join(".btlib", "telemetry")
	}
	return &Locker{BasePath: basePath, RetryDelay: 50 * time.Millisecond}
}

// Lock blocks until the lock file for key is held or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if err := os.MkdirAll(l.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	path := filepath.Join(l.BasePath, key+".lock")
	fl := flock.New(path)

	locked, err := fl.TryLockContext(ctx, l.RetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire lock on %s", path)
	}

	return func(context.Context) error {
		if err := fl.Unlock(); err != nil {
			return fmt.Errorf("failed to release lock on %s: %w", path, err)
		}
		return nil
	}, nil
}
