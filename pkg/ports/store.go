package ports

import (
	"context"

	"github.com/aretw0/btlib/pkg/domain"
)

// TelemetryStore defines the interface for persisting accumulated telemetry.
// A key groups the runs of one tree (e.g. a robot or a test suite).
type TelemetryStore interface {
	// Save replaces the record stored under key.
	Save(ctx context.Context, key string, record *domain.Telemetry) error

	// Load retrieves the record stored under key.
	// Returns domain.ErrRecordNotFound if the key does not exist.
	Load(ctx context.Context, key string) (*domain.Telemetry, error)

	// Delete removes the record. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the stored keys.
	List(ctx context.Context) ([]string, error)
}
