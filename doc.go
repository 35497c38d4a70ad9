/*
Package btlib turns behavior trees into data you can reason about.

It reads a tree from one of two representations, a nested-element XML
definition or a binary .fbl trace snapshot, into one canonical graph
(pkg/domain.Tree). From there it can:

  - Compile the tree into a finite-state automaton that makes the Sequence,
    Fallback and Inverter semantics explicit.
  - Decode the execution log carried by an .fbl file into status change
    events and aggregate them into per-node counts and status histograms.
  - Merge telemetry across runs of the same tree and compute coverage.
  - Record runs in a TelemetryStore (memory, file, redis or sqlite).

# Usage

	a := btlib.New()

	tree, err := a.ParseDefinitionFile("door.xml")
	if err != nil {
		log.Fatal(err)
	}
	fsm, err := a.CompileFSM(tree)
	if err != nil {
		log.Fatal(err)
	}

	buf, _ := os.ReadFile("door.fbl")
	record, err := a.Ingest(ctx, "door", buf)

Every failure wraps one of the sentinel errors in pkg/domain (ErrFormat,
ErrStructural, ErrConsistency, ErrUnsupportedConstruct) so callers can
branch with errors.Is.
*/
package btlib
