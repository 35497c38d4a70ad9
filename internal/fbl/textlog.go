package fbl

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/btlib/pkg/domain"
)

var (
	ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	// [timestamp] (uid): name PREVIOUS -> CURRENT
	logLine = regexp.MustCompile(`^\s*\[[^\]]*\]\s*\(\s*(\d+)\s*\)\s*:(.*)->(.*)$`)
)

// ParseLogLine parses one line of the console logger output, e.g.
//
//	[1674644299.406561] (  9): Inverter  RUNNING -> SUCCESS
//
// Terminal color sequences are ignored. The event carries the new status.
func ParseLogLine(line string) (domain.Event, error) {
	plain := ansiEscape.ReplaceAllString(line, "")
	m := logLine.FindStringSubmatch(plain)
	if m == nil {
		return domain.Event{}, fmt.Errorf("%w: could not parse line %q", domain.ErrFormat, line)
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: could not parse node id in line %q", domain.ErrFormat, line)
	}
	current := strings.TrimSpace(m[3])
	for _, s := range domain.Statuses() {
		if strings.Contains(current, s.String()) {
			return domain.Event{NodeID: domain.NodeID(id), Status: s}, nil
		}
	}
	return domain.Event{}, fmt.Errorf("%w: could not find return state in %q", domain.ErrFormat, current)
}

// DecodeTextLog parses every non-blank line of r with ParseLogLine.
func DecodeTextLog(r io.Reader) ([]domain.Event, error) {
	var events []domain.Event
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ev, err := ParseLogLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return events, nil
}
