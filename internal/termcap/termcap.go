// Package termcap probes the controlling terminal for color support.
//
// Detection goes through termenv's profile negotiation (COLORTERM, TERM,
// terminfo) with a TTY gate from golang.org/x/term, so the rest of the
// pipeline only ever sees a depth plus two capability flags.
package termcap

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Caps describes the negotiated terminal capabilities.
type Caps struct {
	HasColors    bool
	Has256Color  bool
	HasTrueColor bool
}

// Depth returns the color depth the pipeline uses:
// 0=none, 1=8-color, 2=256-color, 3=truecolor.
func (c Caps) Depth() int {
	switch {
	case c.HasTrueColor:
		return 3
	case c.Has256Color:
		return 2
	case c.HasColors:
		return 1
	default:
		return 0
	}
}

// Detect probes stdout. A non-TTY, NO_COLOR, or TERM=dumb environment
// yields no color at all.
func Detect() Caps {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return Caps{}
	}
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return Caps{}
	}
	if os.Getenv("TERM") == "dumb" {
		return Caps{}
	}
	return FromProfile(termenv.ColorProfile())
}

// FromProfile maps a termenv profile onto Caps.
func FromProfile(p termenv.Profile) Caps {
	switch p {
	case termenv.TrueColor:
		return Caps{HasColors: true, Has256Color: true, HasTrueColor: true}
	case termenv.ANSI256:
		return Caps{HasColors: true, Has256Color: true}
	case termenv.ANSI:
		return Caps{HasColors: true}
	default:
		return Caps{}
	}
}
