// Package telemetry folds decoded status change events onto a tree and
// combines the resulting value maps across runs.
package telemetry

import (
	"fmt"

	"github.com/aretw0/btlib/pkg/domain"
)

// Aggregate counts how often each node of tree changed status and how often
// it reported each status. Every node of the tree gets an entry; nodes
// without events stay nil.
func Aggregate(events []domain.Event, tree *domain.Tree) (counts, histograms domain.ValueMap, err error) {
	ids := tree.IDs()
	counts = make(domain.ValueMap, len(ids))
	histograms = make(domain.ValueMap, len(ids))
	for _, id := range ids {
		counts[id] = nil
		histograms[id] = nil
	}

	for i, ev := range events {
		if !tree.Has(ev.NodeID) {
			return nil, nil, fmt.Errorf("%w: event %d references unknown node %d", domain.ErrConsistency, i, ev.NodeID)
		}
		slot := ev.Status.Slot()
		if slot < 0 || slot >= domain.HistogramSlots {
			return nil, nil, fmt.Errorf("%w: event %d has unknown state %d", domain.ErrConsistency, i, ev.Status)
		}

		if counts[ev.NodeID] == nil {
			counts[ev.NodeID] = domain.CountValue(0)
		}
		counts[ev.NodeID].Count++

		if histograms[ev.NodeID] == nil {
			histograms[ev.NodeID] = domain.HistogramValue(make([]int, domain.HistogramSlots)...)
		}
		histograms[ev.NodeID].Histogram[slot]++
	}
	return counts, histograms, nil
}

// Merge adds two value maps of the same tree. A nil map is the identity;
// otherwise both maps must hold the same node ids and, per node, values of
// the same shape. Unobserved entries take the other side's value.
func Merge(a, b domain.ValueMap) (domain.ValueMap, error) {
	if a == nil {
		return b.Clone(), nil
	}
	if b == nil {
		return a.Clone(), nil
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: values must have the same length (%d != %d)", domain.ErrConsistency, len(a), len(b))
	}

	out := make(domain.ValueMap, len(a))
	for id, av := range a {
		bv, ok := b[id]
		if !ok {
			return nil, fmt.Errorf("%w: node %d missing from one side", domain.ErrConsistency, id)
		}
		v, err := mergeValue(av, bv)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		out[id] = v
	}
	return out, nil
}

func mergeValue(a, b *domain.Value) (*domain.Value, error) {
	switch {
	case a == nil:
		return b.Clone(), nil
	case b == nil:
		return a.Clone(), nil
	case a.Kind != b.Kind:
		return nil, fmt.Errorf("%w: cannot merge %s with %s", domain.ErrConsistency, a.Kind, b.Kind)
	}

	switch a.Kind {
	case domain.KindCount:
		return domain.CountValue(a.Count + b.Count), nil
	case domain.KindHistogram:
		if len(a.Histogram) != len(b.Histogram) {
			return nil, fmt.Errorf("%w: histogram sizes differ (%d != %d)", domain.ErrConsistency, len(a.Histogram), len(b.Histogram))
		}
		sum := make([]int, len(a.Histogram))
		for i := range sum {
			sum[i] = a.Histogram[i] + b.Histogram[i]
		}
		return domain.HistogramValue(sum...), nil
	default:
		return nil, fmt.Errorf("%w: unknown value kind %s", domain.ErrConsistency, a.Kind)
	}
}

// Coverage returns the share of entries with a positive observation: a count
// above zero, or a histogram whose largest slot is above zero. Unobserved
// entries count towards the total. An empty map has coverage 0.
func Coverage(values domain.ValueMap) (float64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	covered := 0
	for id, v := range values {
		ok, err := isCovered(v)
		if err != nil {
			return 0, fmt.Errorf("node %d: %w", id, err)
		}
		if ok {
			covered++
		}
	}
	return float64(covered) / float64(len(values)), nil
}

func isCovered(v *domain.Value) (bool, error) {
	if v == nil {
		return false, nil
	}
	switch v.Kind {
	case domain.KindCount:
		return v.Count > 0, nil
	case domain.KindHistogram:
		for _, n := range v.Histogram {
			if n > 0 {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown value kind %s", domain.ErrConsistency, v.Kind)
	}
}

// Visited reports whether v records at least one observation. Values of an
// unknown kind are not visited.
func Visited(v *domain.Value) bool {
	ok, _ := isCovered(v)
	return ok
}
