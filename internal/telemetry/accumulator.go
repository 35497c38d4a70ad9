package telemetry

import (
	"fmt"
	"sync"

	"github.com/aretw0/btlib/pkg/domain"
)

// MergeTelemetry combines two records of the same tree and concatenates
// their run lists. Either side may be nil. Records carrying different tree
// fingerprints are rejected.
func MergeTelemetry(a, b *domain.Telemetry) (*domain.Telemetry, error) {
	if a == nil {
		return b.Clone(), nil
	}
	if b == nil {
		return a.Clone(), nil
	}
	fingerprint := a.Fingerprint
	switch {
	case fingerprint == "":
		fingerprint = b.Fingerprint
	case b.Fingerprint != "" && b.Fingerprint != fingerprint:
		return nil, fmt.Errorf("%w: records belong to different trees", domain.ErrConsistency)
	}
	counts, err := Merge(a.Counts, b.Counts)
	if err != nil {
		return nil, fmt.Errorf("counts: %w", err)
	}
	histograms, err := Merge(a.Histograms, b.Histograms)
	if err != nil {
		return nil, fmt.Errorf("histograms: %w", err)
	}
	runs := make([]string, 0, len(a.Runs)+len(b.Runs))
	runs = append(runs, a.Runs...)
	runs = append(runs, b.Runs...)
	return &domain.Telemetry{
		Fingerprint: fingerprint,
		Counts:      counts,
		Histograms:  histograms,
		Runs:        runs,
	}, nil
}

// Accumulator folds the telemetry of several runs of one tree. The first
// run fixes the tree; later runs must have the same structure.
// It is safe for concurrent use.
type Accumulator struct {
	mu     sync.Mutex
	tree   *domain.Tree
	record *domain.Telemetry
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add aggregates events against tree and merges the result. runID is
// recorded in the run list when not empty.
func (a *Accumulator) Add(tree *domain.Tree, events []domain.Event, runID string) error {
	counts, histograms, err := Aggregate(events, tree)
	if err != nil {
		return err
	}
	run := &domain.Telemetry{Fingerprint: tree.Fingerprint(), Counts: counts, Histograms: histograms}
	if runID != "" {
		run.Runs = []string{runID}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tree != nil && !a.tree.SameStructure(tree) {
		return fmt.Errorf("%w: run %q was recorded on a different tree", domain.ErrConsistency, runID)
	}
	merged, err := MergeTelemetry(a.record, run)
	if err != nil {
		return err
	}
	if a.tree == nil {
		a.tree = tree
	}
	a.record = merged
	return nil
}

// Tree returns the tree of the accumulated runs, or nil before the first run.
func (a *Accumulator) Tree() *domain.Tree {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tree
}

// Telemetry returns a copy of the accumulated record, or nil before the
// first run.
func (a *Accumulator) Telemetry() *domain.Telemetry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record.Clone()
}
