package export

import (
	"io"
	"strconv"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/model"
)

// ProductID identifies waketime as the calendar producer.
const ProductID = "-//waketime//alarms//EN"

// floatingLayout is an iCalendar DATE-TIME without a zone: the alarm rings
// at the same wall-clock time wherever the calendar is opened.
const floatingLayout = "20060102T150405"

var rruleDays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// RecurrenceRule is the weekly rule of an alarm, anchored at its next ring.
func RecurrenceRule(a *model.Alarm, now time.Time) (*rrule.ROption, bool) {
	start, ok := clock.NextOccurrence(a.Time, a.Schedule, now)
	if !ok {
		return nil, false
	}
	opt := &rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: start,
	}
	for _, d := range a.Schedule.Days() {
		opt.Byweekday = append(opt.Byweekday, rruleDays[d])
	}
	return opt, true
}

// BuildCalendar converts enabled alarms into one recurring VEVENT each,
// with a display VALARM at the start. Alarms without days are skipped.
func BuildCalendar(alarms []*model.Alarm, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for _, a := range alarms {
		if !a.Enabled {
			continue
		}
		rule, ok := RecurrenceRule(a, now)
		if !ok {
			continue
		}
		cal.Children = append(cal.Children, buildEvent(a, rule, now).Component)
	}
	return cal
}

func buildEvent(a *model.Alarm, rule *rrule.ROption, now time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, a.ID+"@waketime")
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetText(ical.PropSummary, a.Label)
	event.Props.SetText(ical.PropDescription, clock.FormatSchedule(a.Schedule)+" at "+clock.FormatTimeOfDay(a.Time))

	start := ical.NewProp(ical.PropDateTimeStart)
	start.Value = rule.Dtstart.Format(floatingLayout)
	event.Props.Set(start)

	dur := ical.NewProp(ical.PropDuration)
	dur.Value = "PT" + strconv.Itoa(a.SnoozeSettings.Duration) + "M"
	if a.SnoozeSettings.Duration <= 0 {
		dur.Value = "PT1M"
	}
	event.Props.Set(dur)

	rr := ical.NewProp(ical.PropRecurrenceRule)
	rr.Value = rule.RRuleString()
	event.Props.Set(rr)

	alarm := ical.NewComponent(ical.CompAlarm)
	alarm.Props.SetText(ical.PropAction, "DISPLAY")
	alarm.Props.SetText(ical.PropDescription, a.Label)
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = "PT0S"
	alarm.Props.Set(trigger)
	event.Children = append(event.Children, alarm)

	return event
}

// WriteICal encodes alarms as an iCalendar stream.
func WriteICal(w io.Writer, alarms []*model.Alarm, now time.Time) error {
	return ical.NewEncoder(w).Encode(BuildCalendar(alarms, now))
}
