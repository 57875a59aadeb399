package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct{ text, color string }{
	{` _                __ _`, "#818cf8"},
	{`(_)_ __ ___  _ _ / _| | _____      __`, "#a78bfa"},
	{`| | '__/ _ \| '_ \ |_| |/ _ \ \ /\ / /`, "#c084fc"},
	{`| | | | (_) | | | |  _| | (_) \ V  V /`, "#e879f9"},
	{`|_|_|  \___/|_| |_|_| |_|\___/ \_/\_/`, "#f472b6"},
}

// PrintBanner writes the ironflow banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
