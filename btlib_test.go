package btlib_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/btlib"
	"github.com/aretw0/btlib/internal/fbl"
	"github.com/aretw0/btlib/pkg/adapters/memory"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doorXML = `<root>
  <BehaviorTree>
    <Fallback>
      <Condition ID="IsOpen"/>
      <Sequence>
        <Action ID="Unlock"/>
        <Action ID="Open"/>
      </Sequence>
    </Fallback>
  </BehaviorTree>
</root>`

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

// doorFile encodes the door tree with the given events as an .fbl buffer.
func doorFile(t *testing.T, a *btlib.Analyzer, events ...domain.Event) []byte {
	t.Helper()
	tree, err := a.ParseDefinition([]byte(doorXML))
	require.NoError(t, err)
	buf, err := fbl.EncodeFile(tree, events)
	require.NoError(t, err)
	return buf
}

func TestAnalyzer_CompileDefinition(t *testing.T) {
	a := btlib.New()

	tree, err := a.ParseDefinition([]byte(doorXML))
	require.NoError(t, err)
	require.NoError(t, a.Validate(tree))

	fsm, err := a.CompileFSM(tree)
	require.NoError(t, err)
	assert.Len(t, fsm.States(), 7)
	label, ok := fsm.Label("1000_IsOpen", "10010_Unlock")
	assert.True(t, ok)
	assert.Equal(t, domain.OnFailure, label)
}

func TestAnalyzer_Analyze(t *testing.T) {
	a := btlib.New(btlib.WithRunIDs(counter()))
	buf := doorFile(t, a,
		domain.Event{NodeID: 1000, Status: domain.StatusRunning},
		domain.Event{NodeID: 1000, Status: domain.StatusFailure},
		domain.Event{NodeID: 10010, Status: domain.StatusSuccess},
	)

	tree, run, err := a.Analyze(buf)
	require.NoError(t, err)
	assert.Equal(t, 6, tree.Len())
	assert.Equal(t, []string{"run-1"}, run.Runs)
	assert.Equal(t, domain.CountValue(2), run.Counts[1000])
	assert.Equal(t, domain.HistogramValue(0, 1, 0, 1), run.Histograms[1000])

	cov, err := a.Coverage(run.Counts)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/6.0, cov, 1e-9)

	summary, err := a.Summarize(tree, run)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Runs)
	assert.Len(t, summary.Nodes, 6)
}

func TestAnalyzer_Ingest(t *testing.T) {
	store := memory.NewStore()
	a := btlib.New(btlib.WithStore(store), btlib.WithRunIDs(counter()))
	ctx := context.Background()

	first := doorFile(t, a, domain.Event{NodeID: 1000, Status: domain.StatusSuccess})
	second := doorFile(t, a, domain.Event{NodeID: 1000, Status: domain.StatusFailure})

	_, err := a.Ingest(ctx, "door", first)
	require.NoError(t, err)
	record, err := a.Ingest(ctx, "door", second)
	require.NoError(t, err)

	assert.Equal(t, []string{"run-1", "run-2"}, record.Runs)
	assert.Equal(t, domain.HistogramValue(0, 0, 1, 1), record.Histograms[1000])

	stored, err := store.Load(ctx, "door")
	require.NoError(t, err)
	assert.Equal(t, record, stored)

	_, err = a.Ingest(ctx, "door", []byte{1})
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestAnalyzer_LoadFile(t *testing.T) {
	a := btlib.New()
	dir := t.TempDir()

	xmlPath := filepath.Join(dir, "door.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(doorXML), 0644))
	fblPath := filepath.Join(dir, "door.fbl")
	require.NoError(t, os.WriteFile(fblPath, doorFile(t, a, domain.Event{NodeID: 100, Status: domain.StatusRunning}), 0644))

	tree, events, err := a.LoadFile(xmlPath)
	require.NoError(t, err)
	assert.Nil(t, events)
	assert.Equal(t, 6, tree.Len())

	traced, events, err := a.LoadFile(fblPath)
	require.NoError(t, err)
	assert.Equal(t, []domain.Event{{NodeID: 100, Status: domain.StatusRunning}}, events)
	assert.Equal(t, tree.IDs(), traced.IDs())

	_, _, err = a.LoadFile(filepath.Join(dir, "door.json"))
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestAnalyzer_MergeAcrossRuns(t *testing.T) {
	a := btlib.New()
	tree, err := a.ParseDefinition([]byte(doorXML))
	require.NoError(t, err)

	c1, _, err := a.Aggregate([]domain.Event{{NodeID: 1000, Status: domain.StatusSuccess}}, tree)
	require.NoError(t, err)
	c2, _, err := a.Aggregate([]domain.Event{{NodeID: 100, Status: domain.StatusRunning}}, tree)
	require.NoError(t, err)

	merged, err := a.Merge(c1, c2)
	require.NoError(t, err)
	cov, err := a.Coverage(merged)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/6.0, cov, 1e-9)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, btlib.Version)
	assert.NotContains(t, btlib.Version, "\n")
}
