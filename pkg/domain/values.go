package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ValueKind is the shape of a telemetry value.
type ValueKind uint8

const (
	// KindCount is a scalar execution count.
	KindCount ValueKind = iota + 1
	// KindHistogram is a per-status histogram indexed by Status.Slot.
	KindHistogram
)

func (k ValueKind) String() string {
	switch k {
	case KindCount:
		return "count"
	case KindHistogram:
		return "histogram"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is the telemetry recorded for one node.
type Value struct {
	Kind      ValueKind
	Count     int
	Histogram []int
}

// CountValue returns a scalar value.
func CountValue(n int) *Value {
	return &Value{Kind: KindCount, Count: n}
}

// HistogramValue returns a histogram value with the given slots.
func HistogramValue(slots ...int) *Value {
	return &Value{Kind: KindHistogram, Histogram: append([]int(nil), slots...)}
}

// Clone returns a deep copy of the value.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := *v
	c.Histogram = append([]int(nil), v.Histogram...)
	return &c
}

// MarshalJSON encodes counts as numbers and histograms as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindCount:
		return json.Marshal(v.Count)
	case KindHistogram:
		if v.Histogram == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Histogram)
	default:
		return nil, fmt.Errorf("%w: cannot encode value of kind %s", ErrConsistency, v.Kind)
	}
}

// MarshalYAML mirrors MarshalJSON.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.Kind {
	case KindCount:
		return v.Count, nil
	case KindHistogram:
		if v.Histogram == nil {
			return []int{}, nil
		}
		return v.Histogram, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode value of kind %s", ErrConsistency, v.Kind)
	}
}

// UnmarshalJSON accepts either a number (count) or an array (histogram).
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var slots []int
		if err := json.Unmarshal(data, &slots); err != nil {
			return fmt.Errorf("%w: invalid histogram: %v", ErrFormat, err)
		}
		*v = Value{Kind: KindHistogram, Histogram: slots}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: invalid count: %v", ErrFormat, err)
	}
	*v = Value{Kind: KindCount, Count: n}
	return nil
}

// ValueMap maps node ids to their telemetry. A nil entry means the node was
// never observed; a nil map means no telemetry at all.
type ValueMap map[NodeID]*Value

// Clone returns a deep copy of the map.
func (m ValueMap) Clone() ValueMap {
	if m == nil {
		return nil
	}
	out := make(ValueMap, len(m))
	for id, v := range m {
		out[id] = v.Clone()
	}
	return out
}

// Telemetry is the accumulated record of one or more runs of the same tree.
type Telemetry struct {
	// Fingerprint identifies the tree structure the runs were recorded on.
	Fingerprint string   `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Counts      ValueMap `json:"counts" yaml:"counts"`
	Histograms  ValueMap `json:"histograms" yaml:"histograms"`
	// Runs lists the identifiers of the runs folded into this record.
	Runs []string `json:"runs,omitempty" yaml:"runs,omitempty"`
	// Sealed carries the encrypted record when it is kept by an encrypting
	// store. A sealed record has no counts or histograms of its own.
	Sealed string `json:"sealed,omitempty" yaml:"sealed,omitempty"`
}

// Clone returns a deep copy of the record.
func (t *Telemetry) Clone() *Telemetry {
	if t == nil {
		return nil
	}
	return &Telemetry{
		Fingerprint: t.Fingerprint,
		Counts:      t.Counts.Clone(),
		Histograms:  t.Histograms.Clone(),
		Runs:        append([]string(nil), t.Runs...),
		Sealed:      t.Sealed,
	}
}
