package runtime

import (
	"fmt"
	"strings"

	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/output"
)

// ErrorReport is the user-facing rendering of a command failure.
type ErrorReport struct {
	Code       string
	Message    string
	Suggestion string
	Examples   []string
	ExitCode   int
}

// NewErrorReport classifies err for display.
func NewErrorReport(err error) ErrorReport {
	r := ErrorReport{
		Code:     errors.KindOf(err).String(),
		Message:  err.Error(),
		ExitCode: errors.ExitCode(err),
	}
	if ue, ok := errors.AsUserError(err); ok && ue.Err != nil && r.Code == "validation_failed" {
		r.Code = codeOf(ue.Err)
	}
	r.Suggestion = errors.GetSuggestion(err)
	if r.Suggestion == "" {
		r.Suggestion = errors.GetCategorySuggestion(err)
	}
	r.Examples = errors.GetExamples(err)
	return r
}

// codeOf turns a sentinel message into a snake_case code.
func codeOf(err error) string {
	return strings.ReplaceAll(strings.ToLower(err.Error()), " ", "_")
}

// String renders the report for a terminal.
func (r ErrorReport) String() string {
	var sb strings.Builder
	sb.WriteString(r.Message)
	if r.Suggestion != "" {
		sb.WriteString("\n" + r.Suggestion)
	}
	if len(r.Examples) > 0 {
		sb.WriteString("\n\nExamples:")
		for _, ex := range r.Examples {
			sb.WriteString("\n  " + ex)
		}
	}
	return sb.String()
}

// FormatError formats an error with optional suggestion.
func FormatError(err error) string {
	return NewErrorReport(err).String()
}

// ReportError writes err in the active output format and returns its exit code.
func ReportError(f *output.Formatter, err error) int {
	r := NewErrorReport(err)
	if f.IsJSON() {
		j := output.NewJSONFormatter(f)
		if jerr := j.PrintError("error", r.Code, r.Message, r.Suggestion); jerr != nil {
			fmt.Fprintln(f.Writer, r.Message)
		}
		return r.ExitCode
	}

	cli := output.NewCLIFormatter(f)
	cli.Error(r.Message)
	if r.Suggestion != "" {
		cli.Muted(r.Suggestion)
	}
	for _, ex := range r.Examples {
		cli.Muted("  " + ex)
	}
	return r.ExitCode
}
