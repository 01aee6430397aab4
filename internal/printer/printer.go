// Package printer writes coloured, human-oriented CLI output.
package printer

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/dyluth/headcount/pkg/protocol"
	"github.com/fatih/color"
)

func init() {
	// Users can disable colour with NO_COLOR.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed, color.Bold)
	cyan    = color.New(color.FgCyan)
	magenta = color.New(color.FgMagenta)
	blue    = color.New(color.FgBlue)
	bold    = color.New(color.Bold)

	// Out and ErrOut are where messages go; tests replace them.
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

// Success prints a message in green with a checkmark prefix.
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(Out, msg)
}

// Info prints a message in the default colour.
func Info(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}

// Warning prints a message in yellow with a warning prefix.
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(Out, msg)
}

// Step prints a progress message.
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a titled error with an explanation and suggestions to
// ErrOut and returns an error carrying only the title, for Cobra.
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error with key/value details, printed in key order.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(ErrOut, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(ErrOut, "%s\n", explanation)
	}

	if len(context) > 0 {
		fmt.Fprintln(ErrOut)
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(ErrOut, "  %s: %s\n", k, context[k])
		}
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(ErrOut, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(ErrOut, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(ErrOut, "  %d. %s\n", i+1, s)
		}
	}

	return fmt.Errorf("%s", title)
}

// Phase returns the phase name coloured by the part of the protocol it
// belongs to.
func Phase(p protocol.Phase) string {
	switch p {
	case protocol.PhaseUpperBound:
		return yellow.Sprint(p)
	case protocol.PhaseFlash, protocol.PhaseCoinFlip:
		return magenta.Sprint(p)
	case protocol.PhaseRefine1, protocol.PhaseRefine2,
		protocol.PhaseUnnumberedAnnounce, protocol.PhaseCoinAnnounce, protocol.PhaseCandidateAnnounce:
		return blue.Sprint(p)
	case protocol.PhaseFinal:
		return green.Sprint(p)
	default:
		return string(p)
	}
}

// Heading prints a bold line.
func Heading(format string, a ...any) {
	bold.Fprintf(Out, format, a...)
}
