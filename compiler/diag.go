package compiler

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Diagnostics collects skip notices emitted while filtering and
// generating. Skips are not failures: the run succeeds as long as the
// structural output is complete and internally consistent. Strict mode
// promotes any skip to a generation failure.
type Diagnostics struct {
	Skips []Skip
	out   io.Writer
	color bool
}

// Skip records one entity omitted from the output and why.
type Skip struct {
	Entity string // "Class.Member" or bare class name
	Reason string
}

// NewDiagnostics creates a collector writing notices to stderr, with
// ANSI color when stderr is a terminal. SCHEMABIND_FORCE_COLOR overrides
// the terminal check; NO_COLOR wins over both.
func NewDiagnostics() *Diagnostics {
	color := (term.IsTerminal(int(os.Stderr.Fd())) || os.Getenv("SCHEMABIND_FORCE_COLOR") != "") &&
		os.Getenv("NO_COLOR") == ""
	return &Diagnostics{out: os.Stderr, color: color}
}

// Quiet returns a collector that records skips without printing them.
// Used by tests and by callers that render diagnostics themselves.
func Quiet() *Diagnostics {
	return &Diagnostics{out: io.Discard}
}

// Skipf records a skip for entity and prints the notice.
func (d *Diagnostics) Skipf(entity, format string, args ...any) {
	reason := fmt.Sprintf(format, args...)
	d.Skips = append(d.Skips, Skip{Entity: entity, Reason: reason})
	if d.color {
		fmt.Fprintf(d.out, "  \x1b[33mskip\x1b[0m %s: %s\n", entity, reason)
	} else {
		fmt.Fprintf(d.out, "  skip %s: %s\n", entity, reason)
	}
}

// Infof prints a progress line without recording anything.
func (d *Diagnostics) Infof(format string, args ...any) {
	fmt.Fprintf(d.out, format+"\n", args...)
}

// Err returns an error summarizing all skips, or nil when none were
// recorded. Used by strict mode.
func (d *Diagnostics) Err() error {
	if len(d.Skips) == 0 {
		return nil
	}
	return fmt.Errorf("strict mode: %d entities skipped (first: %s: %s)",
		len(d.Skips), d.Skips[0].Entity, d.Skips[0].Reason)
}
