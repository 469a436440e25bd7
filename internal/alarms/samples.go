package alarms

import (
	"time"

	"github.com/manav03panchal/waketime/internal/model"
)

type sampleRing struct {
	daysAgo int
	snoozes int
	// minutes from the last snooze (or the ring) to dismissal
	dismissAfter int
}

type sampleAlarm struct {
	label          string
	at             model.TimeOfDay
	days           []time.Weekday
	sound          string
	enabled        bool
	snooze         int
	createdDaysAgo int
	rings          []sampleRing
}

var (
	weekdaySet = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	everyDay   = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
)

var samples = []sampleAlarm{
	{
		label: "Morning Workout", at: model.TimeOfDay{Hour: 7}, days: weekdaySet,
		sound: "gentle-chime", enabled: true, snooze: 10, createdDaysAgo: 30,
		rings: []sampleRing{{0, 0, 1}, {1, 1, 1}, {2, 2, 2}, {3, 0, 2}, {4, 3, 5}, {7, 1, 5}},
	},
	{
		label: "Work Standup", at: model.TimeOfDay{Hour: 9}, days: weekdaySet,
		sound: "beep", enabled: true, snooze: 5, createdDaysAgo: 60,
		rings: []sampleRing{{0, 1, 3}, {1, 0, 1}, {2, 1, 2}, {3, 2, 2}},
	},
	{
		label: "Bedtime Reminder", at: model.TimeOfDay{Hour: 22}, days: everyDay,
		sound: "soft-bell", enabled: true, snooze: 15, createdDaysAgo: 14,
		rings: []sampleRing{{0, 0, 0}, {1, 1, 1}, {2, 0, 1}},
	},
	{
		label: "Early Gym", at: model.TimeOfDay{Hour: 6, Minute: 30}, days: []time.Weekday{time.Wednesday, time.Saturday},
		sound: "energetic", enabled: false, snooze: 10, createdDaysAgo: 20,
		rings: []sampleRing{{4, 5, 5}, {11, 3, 5}},
	},
	{
		label: "Lunch Break", at: model.TimeOfDay{Hour: 12}, days: weekdaySet,
		sound: "gentle-chime", enabled: true, snooze: 10, createdDaysAgo: 45,
		rings: []sampleRing{{0, 0, 0}, {1, 0, 1}, {2, 1, 2}},
	},
}

// Samples builds a demo collection with a few weeks of plausible history
// relative to now. Rings that would lie in the future are left out.
func Samples(now time.Time) []*model.Alarm {
	out := make([]*model.Alarm, 0, len(samples))
	for _, s := range samples {
		a := model.NewAlarm(s.label, s.at, model.ScheduleOf(s.days...), s.snooze)
		a.Sound = s.sound
		a.Enabled = s.enabled
		a.CreatedAt = s.at.On(now.AddDate(0, 0, -s.createdDaysAgo))

		for _, r := range s.rings {
			at := s.at.On(now.AddDate(0, 0, -r.daysAgo))
			if at.After(now) {
				continue
			}
			ev := model.NewTriggerEvent(at, model.SourceScheduled)
			last := at
			for i := 0; i < r.snoozes; i++ {
				last = last.Add(a.SnoozeSettings.Interval())
				ev.Apply(model.SnoozePatch(ev, last))
			}
			ev.Apply(model.DismissPatch(last.Add(time.Duration(r.dismissAfter) * time.Minute)))
			a.History = append(a.History, ev)
		}
		out = append(out, a)
	}
	return out
}
