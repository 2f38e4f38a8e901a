package compiler

import (
	"fmt"
	"strings"
)

// srcWriter manages indented source output for the code generators.
// It encapsulates the output buffer and indentation level so the
// backends never juggle tab strings by hand.
type srcWriter struct {
	sb     strings.Builder
	indent int
}

// Linef writes an indented, formatted line with a trailing newline.
func (w *srcWriter) Linef(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if line != "" {
		w.sb.WriteString(strings.Repeat("\t", w.indent))
		w.sb.WriteString(line)
	}
	w.sb.WriteByte('\n')
}

// Blank writes an empty line.
func (w *srcWriter) Blank() {
	w.sb.WriteByte('\n')
}

// Raw writes unindented text directly to the buffer.
func (w *srcWriter) Raw(s string) {
	w.sb.WriteString(s)
}

// Indent increases the indentation level.
func (w *srcWriter) Indent() { w.indent++ }

// Dedent decreases the indentation level.
func (w *srcWriter) Dedent() { w.indent-- }

// String returns the accumulated output.
func (w *srcWriter) String() string { return w.sb.String() }
