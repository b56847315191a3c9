// Package telnet provides the Telnet listener, line connection, and ANSI
// styling used by the text battle front end.
package telnet

import (
	"fmt"
	"regexp"
	"strings"
)

// ANSI SGR sequences.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"

	BrightBlack  = "\033[90m"
	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"

	ClearScreen = "\033[2J\033[H"
)

var ansiPattern = regexp.MustCompile("\033\\[[0-9;]*[A-Za-z]")

// Colorize wraps text in color followed by Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf formats and wraps the result in color followed by Reset.
func Colorf(color, format string, args ...any) string {
	return color + fmt.Sprintf(format, args...) + Reset
}

// StripANSI removes escape sequences, leaving the printable text.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// HPColor picks green above half, yellow above a fifth, red otherwise.
func HPColor(current, max int) string {
	if max <= 0 {
		return Red
	}
	switch {
	case current*2 > max:
		return Green
	case current*5 > max:
		return Yellow
	default:
		return Red
	}
}

// HPBar renders a width-cell gauge of current out of max hit points.
//
// Precondition: width > 0.
// Postcondition: StripANSI(result) is exactly width+2 runes long.
func HPBar(current, max, width int) string {
	filled := 0
	if max > 0 && current > 0 {
		filled = (current*width + max - 1) / max
		if filled > width {
			filled = width
		}
	}
	return "[" + Colorize(HPColor(current, max), strings.Repeat("=", filled)) +
		strings.Repeat(" ", width-filled) + "]"
}
