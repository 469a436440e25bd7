// Package output renders alarms, events and statistics for the terminal
// and for scripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Format is the --format value.
type Format string

const (
	FormatCLI   Format = "cli"
	FormatJSON  Format = "json"
	FormatPlain Format = "plain"
)

// ColorMode is the --color value.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

var (
	formats    = map[string]Format{"": FormatCLI, "cli": FormatCLI, "json": FormatJSON, "plain": FormatPlain}
	colorModes = map[string]ColorMode{"": ColorAuto, "auto": ColorAuto, "always": ColorAlways, "never": ColorNever}
)

// ParseFormat maps a --format flag value to a Format. Empty means cli.
func ParseFormat(s string) (Format, bool) {
	f, ok := formats[s]
	return f, ok
}

// ParseColorMode maps a --color flag value to a ColorMode. Empty means auto.
func ParseColorMode(s string) (ColorMode, bool) {
	m, ok := colorModes[s]
	return m, ok
}

// Formatter is the shared sink for every renderer.
type Formatter struct {
	Writer    io.Writer
	Format    Format
	ColorMode ColorMode
}

// NewFormatter writes cli output to stdout.
func NewFormatter() *Formatter {
	return &Formatter{Writer: os.Stdout, Format: FormatCLI, ColorMode: ColorAuto}
}

// IsJSON reports whether output should be machine readable.
func (f *Formatter) IsJSON() bool {
	return f.Format == FormatJSON
}

// IsColorEnabled resolves auto mode against NO_COLOR and whether the
// writer is a terminal.
func (f *Formatter) IsColorEnabled() bool {
	switch f.ColorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := f.Writer.(*os.File)
	return ok && (isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd()))
}

func (f *Formatter) Print(a ...any)                 { fmt.Fprint(f.Writer, a...) }
func (f *Formatter) Println(a ...any)               { fmt.Fprintln(f.Writer, a...) }
func (f *Formatter) Printf(format string, a ...any) { fmt.Fprintf(f.Writer, format, a...) }

// JSON writes v indented, one document per call.
func (f *Formatter) JSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintJSON is JSON under the name the commands use.
func (f *Formatter) PrintJSON(v any) error {
	return f.JSON(v)
}

// FormatDuration renders snooze and dismiss delays: "45s", "9m", "1h 30m".
// Seconds are dropped once the duration reaches an hour.
func FormatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	h, m, s := int(d/time.Hour), int(d/time.Minute)%60, int(d/time.Second)%60

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatTime is a local timestamp for logs and status lines.
func FormatTime(t time.Time) string {
	return t.Local().Format(time.DateTime)
}

// FormatDate is a local calendar date.
func FormatDate(t time.Time) string {
	return t.Local().Format(time.DateOnly)
}
