package telemetry

import (
	"github.com/aretw0/btlib/pkg/domain"
)

// NodeSummary is the per-node line of a coverage report.
type NodeSummary struct {
	ID        domain.NodeID   `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Category  domain.Category `json:"category" yaml:"category"`
	Count     int             `json:"count" yaml:"count"`
	Histogram []int           `json:"histogram" yaml:"histogram"`
	Visited   bool            `json:"visited" yaml:"visited"`
}

// Summary is a coverage report of a tree over its recorded runs.
type Summary struct {
	Coverage float64       `json:"coverage" yaml:"coverage"`
	Runs     int           `json:"runs" yaml:"runs"`
	Nodes    []NodeSummary `json:"nodes" yaml:"nodes"`
}

// Summarize lists every node of tree in document order with its recorded
// telemetry. Coverage is computed over the execution counts.
func Summarize(tree *domain.Tree, record *domain.Telemetry) (Summary, error) {
	if record == nil {
		record = &domain.Telemetry{}
	}
	counts := record.Counts
	if counts == nil {
		counts = make(domain.ValueMap, tree.Len())
		for _, id := range tree.IDs() {
			counts[id] = nil
		}
	}
	cov, err := Coverage(counts)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Coverage: cov, Runs: len(record.Runs)}
	for _, n := range tree.Nodes() {
		ns := NodeSummary{
			ID:        n.ID,
			Name:      n.Name,
			Category:  n.Category,
			Histogram: make([]int, domain.HistogramSlots),
		}
		if v := counts[n.ID]; v != nil && v.Kind == domain.KindCount {
			ns.Count = v.Count
			ns.Visited = v.Count > 0
		}
		if v := record.Histograms[n.ID]; v != nil && v.Kind == domain.KindHistogram {
			copy(ns.Histogram, v.Histogram)
		}
		s.Nodes = append(s.Nodes, ns)
	}
	return s, nil
}
