package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/lifecycle"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/output"
	"github.com/manav03panchal/waketime/internal/runtime"
	"github.com/manav03panchal/waketime/internal/tui"
)

// Ring command flags.
var (
	ringFlagResume   string
	ringFlagNoScreen bool
	resolveFlagEvent string
)

// ringCmd represents the ring command.
var ringCmd = &cobra.Command{
	Use:     "ring [ALARM]",
	Aliases: []string{"test", "fire"},
	Short:   "Test-fire an alarm or answer one that is ringing",
	Long: `Fire an alarm now and open the ring screen, where s snoozes and d
dismisses. Left alone, the alarm snoozes itself after the escalation timeout.

With --resume the screen opens on the alarm's unresolved event instead of
firing a new one. Without arguments the only ringing alarm is resumed.

Examples:
  waketime ring work
  waketime ring --resume work
  waketime ring
  waketime ring gym --no-screen`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeAlarms,
	Annotations:       map[string]string{annotationNoStore: ""},
	RunE:              runRing,
}

// snoozeCmd represents the snooze command.
var snoozeCmd = &cobra.Command{
	Use:               "snooze ALARM",
	Aliases:           []string{"zz"},
	Short:             "Snooze a ringing alarm",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeAlarms,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResolve(cmd, args[0], false)
	},
}

// dismissCmd represents the dismiss command.
var dismissCmd = &cobra.Command{
	Use:               "dismiss ALARM",
	Aliases:           []string{"stop", "dis"},
	Short:             "Dismiss a ringing alarm",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeAlarms,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResolve(cmd, args[0], true)
	},
}

func init() {
	ringCmd.Flags().StringVar(&ringFlagResume, "resume", "", "Open the ring screen for ALARM's unresolved event")
	ringCmd.Flags().BoolVar(&ringFlagNoScreen, "no-screen", false, "Fire without opening the ring screen")
	ringCmd.RegisterFlagCompletionFunc("resume", completeAlarms)

	for _, c := range []*cobra.Command{snoozeCmd, dismissCmd} {
		c.Flags().StringVar(&resolveFlagEvent, "event", "", "Event id (defaults to the unresolved event)")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(ringCmd)
}

func runRing(cmd *cobra.Command, args []string) error {
	c := commandContext(cmd)

	rc, err := openRuntime(c)
	if err != nil {
		return err
	}
	ctx = rc
	res, status, err := ringTarget(c, args)
	ctx = nil
	// the screen reopens the store per action so the daemon can keep polling
	closeErr := rc.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	f := rc.Formatter
	if f.IsJSON() || ringFlagNoScreen || !stdoutIsTerminal() {
		return printEvent(f, status, res.Alarm, res.Event)
	}

	outcome, err := tui.RunRing(tui.RingConfig{
		Resolution: res,
		Engine:     storeResolver{open: openRuntime},
		Timeout:    rc.Config.Alarm.EscalationTimeout,
	})
	if err != nil {
		return err
	}

	cli := output.NewCLIFormatter(f).WithClock(now)
	switch {
	case outcome.Left:
		cli.Warning(fmt.Sprintf("%s is still ringing. Run 'waketime ring --resume %s' to answer it.",
			res.Alarm.Label, res.Alarm.ShortID()))
	case outcome.Event != nil:
		printResolved(cli, res.Alarm, *outcome.Event)
	}
	return nil
}

// ringTarget fires or resumes the alarm the arguments name.
func ringTarget(c context.Context, args []string) (*lifecycle.Resolution, string, error) {
	switch {
	case ringFlagResume != "":
		a, err := findAlarm(c, ringFlagResume)
		if err != nil {
			return nil, "", err
		}
		res, err := ctx.Engine.Resolve(c, a.ID, "")
		return res, "ringing", err

	case len(args) == 1:
		a, err := findAlarm(c, args[0])
		if err != nil {
			return nil, "", err
		}
		ev, err := ctx.Engine.Fire(c, a.ID, model.SourceTest)
		if err != nil {
			return nil, "", err
		}
		res, err := ctx.Engine.Resolve(c, a.ID, ev.ID)
		if err != nil {
			return nil, "", err
		}
		res.Resumed = false
		return res, "fired", nil
	}

	list, err := ctx.Alarms.List(c)
	if err != nil {
		return nil, "", err
	}
	ringing := ringingAlarms(list)
	switch len(ringing) {
	case 0:
		return nil, "", errors.NewUserError("Nothing is ringing",
			"Name an alarm to test-fire it: waketime ring ALARM")
	case 1:
		res, err := ctx.Engine.Resolve(c, ringing[0].ID, "")
		return res, "ringing", err
	default:
		return nil, "", errors.NewUserError(fmt.Sprintf("%d alarms are ringing", len(ringing)),
			"Pick one with: waketime ring --resume ALARM")
	}
}

func runResolve(cmd *cobra.Command, ref string, dismiss bool) error {
	c := commandContext(cmd)
	a, err := findAlarm(c, ref)
	if err != nil {
		return err
	}

	eventID := resolveFlagEvent
	if eventID == "" {
		_, pending, err := ctx.Engine.Pending(c, a.ID)
		if err != nil {
			return err
		}
		eventID = pending.ID
	}

	var ev *model.TriggerEvent
	status := "snoozed"
	if dismiss {
		status = "dismissed"
		ev, err = ctx.Engine.Dismiss(c, a.ID, eventID)
	} else {
		ev, err = ctx.Engine.Snooze(c, a.ID, eventID)
	}
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintEvent(status, a, *ev)
	}
	printResolved(ctx.CLIFormatter().WithClock(now), a, *ev)
	return nil
}

// printEvent reports a fired or resumed event without the ring screen.
func printEvent(f *output.Formatter, status string, a *model.Alarm, ev model.TriggerEvent) error {
	if f.IsJSON() {
		return output.NewJSONFormatter(f).PrintEvent(status, a, ev)
	}
	cli := output.NewCLIFormatter(f).WithClock(now)
	cli.Warning(fmt.Sprintf("%s %s is ringing (since %s)",
		clock.FormatTimeOfDay(a.Time), a.Label, clock.FormatTriggerDate(ev.TriggeredAt, now())))
	cli.Muted(fmt.Sprintf("  waketime snooze %s | waketime dismiss %s", a.ShortID(), a.ShortID()))
	return nil
}

// printResolved reports a snooze or dismissal.
func printResolved(cli *output.CLIFormatter, a *model.Alarm, ev model.TriggerEvent) {
	switch ev.Status {
	case model.StatusDismissed:
		msg := fmt.Sprintf("Dismissed %s", a.Label)
		if d, ok := ev.TimeToDismiss(); ok {
			msg += fmt.Sprintf(" after %s", output.FormatDuration(d))
		}
		if ev.SnoozeCount > 0 {
			msg += fmt.Sprintf(" and %d snoozes", ev.SnoozeCount)
		}
		cli.Success(msg)
	case model.StatusSnoozed:
		until := now().Add(a.SnoozeSettings.Interval())
		cli.Warning(fmt.Sprintf("Snoozed %s until %s (snooze #%d)",
			a.Label, clock.FormatTime(until.Hour(), until.Minute()), ev.SnoozeCount))
	default:
		cli.Warning(fmt.Sprintf("%s is ringing", a.Label))
	}
}

// storeResolver drives the lifecycle engine with a store opened per call.
type storeResolver struct {
	open func(context.Context) (*runtime.Context, error)
}

func (r storeResolver) with(c context.Context, fn func(*lifecycle.Engine) error) error {
	rc, err := r.open(c)
	if err != nil {
		return err
	}
	defer rc.Close()
	return fn(rc.Engine)
}

func (r storeResolver) Snooze(c context.Context, alarmID, eventID string) (ev *model.TriggerEvent, err error) {
	err = r.with(c, func(e *lifecycle.Engine) error {
		ev, err = e.Snooze(c, alarmID, eventID)
		return err
	})
	return ev, err
}

func (r storeResolver) AutoSnooze(c context.Context, alarmID, eventID string) (ev *model.TriggerEvent, err error) {
	err = r.with(c, func(e *lifecycle.Engine) error {
		ev, err = e.AutoSnooze(c, alarmID, eventID)
		return err
	})
	return ev, err
}

func (r storeResolver) Dismiss(c context.Context, alarmID, eventID string) (ev *model.TriggerEvent, err error) {
	err = r.with(c, func(e *lifecycle.Engine) error {
		ev, err = e.Dismiss(c, alarmID, eventID)
		return err
	})
	return ev, err
}

func (r storeResolver) Resolve(c context.Context, alarmID, eventID string) (res *lifecycle.Resolution, err error) {
	err = r.with(c, func(e *lifecycle.Engine) error {
		res, err = e.Resolve(c, alarmID, eventID)
		return err
	})
	return res, err
}
