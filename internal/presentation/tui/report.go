package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/btlib/internal/telemetry"
	"github.com/muesli/termenv"
)

// CoverageMarkdown renders a coverage summary as a markdown report with one
// table row per node.
func CoverageMarkdown(title string, s telemetry.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "**Coverage:** %.1f%% over %d run(s)\n\n", s.Coverage*100, s.Runs)
	sb.WriteString("| Node | Name | Category | Count | IDLE | RUNNING | SUCCESS | FAILURE |\n")
	sb.WriteString("| ---: | --- | --- | ---: | ---: | ---: | ---: | ---: |\n")
	for _, n := range s.Nodes {
		mark := ""
		if n.Visited {
			mark = " ✓"
		}
		fmt.Fprintf(&sb, "| %d | %s%s | %s | %d |", n.ID, n.Name, mark, n.Category, n.Count)
		for _, c := range n.Histogram {
			fmt.Fprintf(&sb, " %d |", c)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Verdict formats the pass/fail line of a coverage gate. A threshold of 0
// always passes.
func Verdict(coverage, threshold float64) (string, bool) {
	ok := coverage >= threshold
	p := termenv.EnvColorProfile()
	if ok {
		return p.String(fmt.Sprintf("PASS coverage %.1f%% >= %.1f%%", coverage*100, threshold*100)).
			Foreground(p.Color("#22c55e")).Bold().String(), true
	}
	return p.String(fmt.Sprintf("FAIL coverage %.1f%% < %.1f%%", coverage*100, threshold*100)).
		Foreground(p.Color("#ef4444")).Bold().String(), false
}

// WriteMarkdown renders markdown with glamour when w is a terminal and
// writes it verbatim otherwise.
func WriteMarkdown(w io.Writer, markdown string) error {
	if f, ok := w.(*os.File); ok && IsTerminal(f) {
		out, err := NewRenderer()(markdown)
		if err == nil {
			_, err = io.WriteString(w, out)
			return err
		}
	}
	_, err := io.WriteString(w, markdown)
	return err
}
