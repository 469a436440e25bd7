package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/output"
	"github.com/manav03panchal/waketime/internal/parser"
	"github.com/manav03panchal/waketime/internal/runtime"
)

// now is the command clock. Tests pin it.
var now = time.Now

// stdinIsTerminal reports whether interactive prompts can be shown.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// stdoutIsTerminal reports whether full-screen views can be shown.
var stdoutIsTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// findAlarm resolves an id, id prefix or label to one alarm.
func findAlarm(c context.Context, ref string) (*model.Alarm, error) {
	a, err := ctx.Alarms.Resolve(c, ref)
	if err == nil || !errors.IsNotFound(err) {
		return a, err
	}

	list, lerr := ctx.Alarms.List(c)
	if lerr != nil {
		return nil, lerr
	}
	var matches []*model.Alarm
	for _, candidate := range list {
		if strings.EqualFold(candidate.Label, strings.TrimSpace(ref)) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, err
	case 1:
		return matches[0], nil
	default:
		ue := errors.NewUserErrorWithField("alarm", ref,
			fmt.Sprintf("%d alarms are labelled %q", len(matches), ref),
			"Use the alarm id from 'waketime list' instead")
		ue.Err = errors.ErrAmbiguousID
		return nil, ue
	}
}

// inputError turns parser errors into user errors so they exit with the
// user-error code and carry their examples.
func inputError(err error) error {
	var pe *parser.ParseError
	if stderrors.As(err, &pe) {
		return pe.ToUserError()
	}
	return err
}

// confirm asks a yes/no question with a single keypress.
func confirm(prompt string) (bool, error) {
	if !stdinIsTerminal() {
		return false, errors.NewUserError("Refusing to ask for confirmation without a terminal",
			"Pass --yes to skip the prompt")
	}

	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return false, err
	}
	defer func() {
		term.Restore(fd, oldState)
		fmt.Fprintln(os.Stderr)
	}()

	buf := make([]byte, 1)
	if _, err := os.Stdin.Read(buf); err != nil {
		return false, err
	}
	return buf[0] == 'y' || buf[0] == 'Y', nil
}

// newFormatter builds a formatter for commands that run without a store.
func newFormatter(opts runtime.Options) *output.Formatter {
	f := output.NewFormatter()
	f.Writer = stdout
	f.Format = opts.Format
	f.ColorMode = opts.ColorMode
	return f
}

func newCLI(f *output.Formatter) *output.CLIFormatter {
	return output.NewCLIFormatter(f).WithClock(now)
}
