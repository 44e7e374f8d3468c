package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the homeward banner with the running version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _                                                _", "#38bdf8"},
		{"| |__   ___  _ __ ___   _____      ____ _ _ __ __| |", "#22d3ee"},
		{"| '_ \\ / _ \\| '_ ` _ \\ / _ \\ \\ /\\ / / _` | '__/ _` |", "#2dd4bf"},
		{"| | | | (_) | | | | | |  __/\\ V  V / (_| | | | (_| |", "#34d399"},
		{"|_| |_|\\___/|_| |_| |_|\\___| \\_/\\_/ \\__,_|_|  \\__,_|", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}

// Highlight returns a styler that bolds text when the terminal supports it.
func Highlight() func(string) string {
	p := termenv.ColorProfile()
	return func(s string) string {
		return termenv.String(s).Foreground(p.Color("#fbbf24")).Bold().String()
	}
}
