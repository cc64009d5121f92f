package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`     _             _ _       _         _     _`, "#38bdf8"},
	{` ___| |_ _   _  __| (_) ___ | |__  _ __(_) __| | __ _  ___`, "#22d3ee"},
	{`/ __| __| | | |/ _' | |/ _ \| '_ \| '__| |/ _' |/ _' |/ _ \`, "#2dd4bf"},
	{`\__ \ |_| |_| | (_| | | (_) | |_) | |  | | (_| | (_| |  __/`, "#34d399"},
	{`|___/\__|\__,_|\__,_|_|\___/|_.__/|_|  |_|\__,_|\__, |\___|`, "#4ade80"},
	{`                                                |___/`, "#a3e635"},
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PrintBanner writes the startup banner and the listen address to w.
func PrintBanner(w io.Writer, apiURL string, gui string) {
	out := termenv.NewOutput(w)

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  API  %s\n", out.String(apiURL).Bold())
	fmt.Fprintf(w, "  GUI  %s\n", out.String(gui).Faint())
	fmt.Fprintln(w)
}
