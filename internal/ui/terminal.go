// Package ui provides terminal styling and output helpers for the
// implexa CLI.
package ui

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal returns true if stdout is connected to a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor follows the NO_COLOR / CLICOLOR conventions, falling
// back to TTY detection.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	return IsTerminal() && ColorProfile() != termenv.Ascii
}

// ColorProfile reports the terminal's detected color capability
// (truecolor, 256, 16, or none), from TERM/COLORTERM.
func ColorProfile() termenv.Profile {
	return termenv.EnvColorProfile()
}

// GetWidth returns the terminal width, or a sane default when it can't
// be determined (piped output, non-TTY).
func GetWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 100
	}
	return w
}
