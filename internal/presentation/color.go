package presentation

import (
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Color modes accepted by ui.color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// DetectProfile picks the color profile for w. auto honours NO_COLOR and
// CLICOLOR_FORCE and falls back to plain text when w is not a terminal.
func DetectProfile(w io.Writer, mode string) termenv.Profile {
	switch mode {
	case ColorNever:
		return termenv.Ascii
	case ColorAlways:
		return termenv.ANSI256
	}

	if termenv.EnvNoColor() {
		return termenv.Ascii
	}
	if v, ok := os.LookupEnv("TERM"); ok && strings.EqualFold(strings.TrimSpace(v), "dumb") {
		return termenv.Ascii
	}
	if v, ok := os.LookupEnv("CLICOLOR_FORCE"); ok && truthy(v) {
		return termenv.EnvColorProfile()
	}
	if f, ok := w.(*os.File); ok {
		if term.IsTerminal(int(f.Fd())) {
			return termenv.NewOutput(w).ColorProfile()
		}
		return termenv.Ascii
	}
	return termenv.Ascii
}

// TerminalWidth returns the width of w, or 0 when w is not a terminal.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
