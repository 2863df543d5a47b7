// Package output renders check results and errors as text or JSON.
package output

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects how results are written.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatAuto Format = "auto"
)

// Color modes accepted by output.color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Formatter carries the resolved output format and color choice for a run.
type Formatter struct {
	format Format
	writer io.Writer
	color  bool
}

// NewFormatter returns a formatter for w. Color stays off until SetColor.
func NewFormatter(format Format, w io.Writer) *Formatter {
	return &Formatter{format: format, writer: w}
}

// Format returns the resolved format.
func (f *Formatter) Format() Format { return f.format }

// Writer returns the writer the formatter was created for.
func (f *Formatter) Writer() io.Writer { return f.writer }

// IsJSON reports whether output is JSON.
func (f *Formatter) IsJSON() bool { return f.format == FormatJSON }

// SetColor turns ANSI styling of text output on or off.
func (f *Formatter) SetColor(enabled bool) { f.color = enabled }

// Color reports whether text output is styled. JSON never is.
func (f *Formatter) Color() bool { return f.color && !f.IsJSON() }

// writeJSON encodes v as one line, or indented for whole documents.
func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term.IsTerminal
}

// DetectFormat resolves FormatAuto: text on a terminal, JSON when piped.
// Explicit formats pass through.
func DetectFormat(w io.Writer, explicit Format) Format {
	switch {
	case explicit != FormatAuto:
		return explicit
	case IsTerminal(w):
		return FormatText
	default:
		return FormatJSON
	}
}

// DetectColor resolves a color mode against w.
func DetectColor(w io.Writer, mode string) bool {
	switch normalize(mode) {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return IsTerminal(w)
	}
}

// ParseFormat maps a flag or config value to a Format. Unknown values
// mean auto.
func ParseFormat(s string) Format {
	switch f := Format(normalize(s)); f {
	case FormatJSON, FormatText:
		return f
	default:
		return FormatAuto
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
