package btlib

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/btlib/internal/compiler"
	"github.com/aretw0/btlib/internal/fbl"
	"github.com/aretw0/btlib/internal/logging"
	"github.com/aretw0/btlib/internal/telemetry"
	"github.com/aretw0/btlib/internal/validator"
	"github.com/aretw0/btlib/pkg/adapters/memory"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/aretw0/btlib/pkg/ports"
	"github.com/aretw0/btlib/pkg/recorder"
	"github.com/google/uuid"
)

// Summary is a per-node coverage report over recorded runs.
type Summary = telemetry.Summary

// NodeSummary is one line of a Summary.
type NodeSummary = telemetry.NodeSummary

// Analyzer is the high-level entry point for the library. It parses and
// decodes behavior trees, aggregates their execution logs, compiles them to
// automata and records runs in a TelemetryStore.
type Analyzer struct {
	parser   *compiler.Parser
	recorder *recorder.Recorder

	store   ports.TelemetryStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
}

// Option defines a functional option for configuring the Analyzer.
type Option func(*Analyzer)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithStore sets where recorded runs are kept (in memory by default).
func WithStore(store ports.TelemetryStore) Option {
	return func(a *Analyzer) {
		a.store = store
	}
}

// WithLocker serializes run recording across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(a *Analyzer) {
		a.locker = locker
	}
}

// WithLockTTL overrides recorder.DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(a *Analyzer) {
		a.lockTTL = ttl
	}
}

// WithRunIDs replaces the run identifier generator.
func WithRunIDs(fn func() string) Option {
	return func(a *Analyzer) {
		a.newID = fn
	}
}

// New initializes an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	if a.store == nil {
		a.store = memory.NewStore()
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}

	a.parser = compiler.NewParser(compiler.WithParserLogger(a.logger))

	recOpts := []recorder.Option{
		recorder.WithLogger(a.logger),
		recorder.WithRunIDs(a.newID),
	}
	if a.locker != nil {
		recOpts = append(recOpts, recorder.WithLocker(a.locker))
	}
	if a.lockTTL > 0 {
		recOpts = append(recOpts, recorder.WithLockTTL(a.lockTTL))
	}
	a.recorder = recorder.New(a.store, recOpts...)
	return a
}

// Recorder exposes the run recorder.
func (a *Analyzer) Recorder() *recorder.Recorder {
	return a.recorder
}

// ParseDefinition builds a tree from definition text.
func (a *Analyzer) ParseDefinition(text []byte) (*domain.Tree, error) {
	return a.parser.Parse(text)
}

// ParseDefinitionFile reads and parses an .xml definition file.
func (a *Analyzer) ParseDefinitionFile(path string) (*domain.Tree, error) {
	return a.parser.ParseFile(path)
}

// DecodeTrace builds a tree from an .fbl trace buffer.
func (a *Analyzer) DecodeTrace(buf []byte) (*domain.Tree, error) {
	return fbl.DecodeTrace(buf)
}

// DecodeLog decodes the binary status change records of an .fbl buffer.
func (a *Analyzer) DecodeLog(buf []byte) ([]domain.Event, error) {
	return fbl.DecodeLog(buf)
}

// DecodeTextLog decodes a console status change log.
func (a *Analyzer) DecodeTextLog(r io.Reader) ([]domain.Event, error) {
	return fbl.DecodeTextLog(r)
}

// Aggregate folds events onto tree.
func (a *Analyzer) Aggregate(events []domain.Event, tree *domain.Tree) (counts, histograms domain.ValueMap, err error) {
	return telemetry.Aggregate(events, tree)
}

// Merge adds two value maps of the same tree.
func (a *Analyzer) Merge(x, y domain.ValueMap) (domain.ValueMap, error) {
	return telemetry.Merge(x, y)
}

// Coverage returns the share of observed nodes in values.
func (a *Analyzer) Coverage(values domain.ValueMap) (float64, error) {
	return telemetry.Coverage(values)
}

// CompileFSM compiles tree into an automaton.
func (a *Analyzer) CompileFSM(tree *domain.Tree) (*domain.Automaton, error) {
	fsm, err := compiler.CompileFSM(tree)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Tree compiled",
		"nodes", tree.Len(),
		"states", len(fsm.States()),
		"transitions", len(fsm.Transitions()),
	)
	return fsm, nil
}

// Validate reports every structural issue of tree at once.
func (a *Analyzer) Validate(tree *domain.Tree) error {
	return validator.ValidateTree(tree)
}

// Analyze decodes a complete .fbl buffer (trace snapshot followed by log
// records) and aggregates it as a single run.
func (a *Analyzer) Analyze(buf []byte) (*domain.Tree, *domain.Telemetry, error) {
	tree, err := fbl.DecodeTrace(buf)
	if err != nil {
		return nil, nil, err
	}
	events, err := fbl.DecodeLog(buf)
	if err != nil {
		return nil, nil, err
	}
	counts, histograms, err := telemetry.Aggregate(events, tree)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("Run decoded", "nodes", tree.Len(), "events", len(events))
	return tree, &domain.Telemetry{
		Fingerprint: tree.Fingerprint(),
		Counts:      counts,
		Histograms:  histograms,
		Runs:        []string{a.newID()},
	}, nil
}

// LoadFile reads a tree from path: .xml definitions yield no events, .fbl
// files yield the trace tree and its log.
func (a *Analyzer) LoadFile(path string) (*domain.Tree, []domain.Event, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		tree, err := a.parser.ParseFile(path)
		return tree, nil, err
	case ".fbl":
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read trace: %w", err)
		}
		tree, err := fbl.DecodeTrace(buf)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		events, err := fbl.DecodeLog(buf)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return tree, events, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported file %s (want .xml or .fbl)", domain.ErrFormat, path)
	}
}

// Ingest decodes an .fbl buffer and merges it as a new run into the record
// stored under key.
func (a *Analyzer) Ingest(ctx context.Context, key string, buf []byte) (*domain.Telemetry, error) {
	_, run, err := a.Analyze(buf)
	if err != nil {
		return nil, err
	}
	return a.recorder.Merge(ctx, key, run)
}

// Record merges an already decoded run into the record stored under key.
func (a *Analyzer) Record(ctx context.Context, key string, tree *domain.Tree, events []domain.Event) (*domain.Telemetry, error) {
	return a.recorder.Record(ctx, key, tree, events)
}

// Summarize builds a coverage report of tree over record.
func (a *Analyzer) Summarize(tree *domain.Tree, record *domain.Telemetry) (Summary, error) {
	return telemetry.Summarize(tree, record)
}
