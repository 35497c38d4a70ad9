package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the btview ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Subtle gradient (Indigo/Violet)
	lines := []struct{ text, color string }{
		{"  _     _          _", "#818cf8"},
		{" | |__ | |___   __(_) _____      __", "#a78bfa"},
		{" | '_ \\| __\\ \\ / /| |/ _ \\ \\ /\\ / /", "#c084fc"},
		{" | |_) | |_ \\ V / | |  __/\\ V  V /", "#e879f9"},
		{" |_.__/ \\__| \\_/  |_|\\___| \\_/\\_/", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
