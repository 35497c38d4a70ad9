package domain

import "fmt"

// Status is the outcome a node reports when it changes state. The numeric
// values are the producer's wire codes and must not be reordered.
type Status uint8

const (
	StatusIdle Status = iota
	StatusRunning
	StatusSuccess
	StatusFailure
)

// HistogramSlots is the number of slots in a per-status histogram.
const HistogramSlots = 4

var statusNames = [...]string{"IDLE", "RUNNING", "SUCCESS", "FAILURE"}

// StatusFromCode maps a wire status code to a Status.
func StatusFromCode(code uint8) (Status, error) {
	if int(code) >= len(statusNames) {
		return 0, fmt.Errorf("%w: unknown state %d", ErrFormat, code)
	}
	return Status(code), nil
}

// Statuses returns every status in slot order.
func Statuses() []Status {
	return []Status{StatusIdle, StatusRunning, StatusSuccess, StatusFailure}
}

// Slot returns the histogram slot of the status. Slots follow the 1-based
// ordinal of the status enum minus one: IDLE, RUNNING, SUCCESS, FAILURE.
func (s Status) Slot() int {
	return int(s)
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("%w: unknown state %d", ErrFormat, uint8(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown state %q", ErrFormat, string(text))
}

// Event is one decoded status change of a node, in log order.
type Event struct {
	NodeID NodeID `json:"node_id"`
	Status Status `json:"status"`
}
