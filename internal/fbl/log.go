package fbl

import (
	"encoding/binary"
	"fmt"

	"github.com/aretw0/btlib/pkg/domain"
)

const (
	// RecordSize is the stride of one status change record.
	RecordSize = 12

	uidOffset    = 8
	statusOffset = 11
)

// DecodeLog returns the status change events of a trace file in file order.
// Records start behind the header announced by the u16 at offset 0; a
// trailing remainder shorter than RecordSize is ignored.
func DecodeLog(buf []byte) ([]domain.Event, error) {
	start, err := recordsStart(buf)
	if err != nil {
		return nil, err
	}
	var events []domain.Event
	if n := (len(buf) - start) / RecordSize; n > 0 {
		events = make([]domain.Event, 0, n)
	}
	for i := start; i+RecordSize <= len(buf); i += RecordSize {
		rec := buf[i : i+RecordSize]
		status, err := domain.StatusFromCode(rec[statusOffset])
		if err != nil {
			return nil, fmt.Errorf("record at offset %d: %w", i, err)
		}
		events = append(events, domain.Event{
			NodeID: domain.NodeID(binary.LittleEndian.Uint16(rec[uidOffset:])),
			Status: status,
		})
	}
	return events, nil
}

func recordsStart(buf []byte) (int, error) {
	if len(buf) < 2 {
		return 0, fmt.Errorf("%w: log too short (%d bytes)", domain.ErrFormat, len(buf))
	}
	return int(binary.LittleEndian.Uint16(buf)) + headerOffset, nil
}
