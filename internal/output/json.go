package output

import (
	"time"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/stats"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// AlarmOutput represents an alarm in JSON output.
type AlarmOutput struct {
	ID              string   `json:"id"`
	Time            string   `json:"time"`
	Label           string   `json:"label"`
	Days            []string `json:"days"`
	Repeats         string   `json:"repeats"`
	Sound           string   `json:"sound"`
	Enabled         bool     `json:"enabled"`
	SnoozeMinutes   int      `json:"snooze_minutes"`
	NotificationIDs []string `json:"notification_ids"`
	CreatedAt       string   `json:"created_at"`
	NextAt          string   `json:"next_at,omitempty"`
	Events          int      `json:"events"`
}

// NewAlarmOutput creates an AlarmOutput from an Alarm.
func NewAlarmOutput(a *model.Alarm, now time.Time) *AlarmOutput {
	// three-letter English names, independent of the list display
	days := make([]string, 0, 7)
	for _, d := range a.Schedule.Days() {
		days = append(days, d.String()[:3])
	}
	out := &AlarmOutput{
		ID:              a.ID,
		Time:            a.Time.String(),
		Label:           a.Label,
		Days:            days,
		Repeats:         clock.FormatSchedule(a.Schedule),
		Sound:           a.SoundOrDefault(),
		Enabled:         a.Enabled,
		SnoozeMinutes:   a.SnoozeSettings.Duration,
		NotificationIDs: append([]string{}, a.NotificationIDs...),
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
		Events:          len(a.History),
	}
	if a.Enabled {
		if at, ok := clock.NextOccurrence(a.Time, a.Schedule, now); ok {
			out.NextAt = at.Format(time.RFC3339)
		}
	}
	return out
}

// AlarmResponse wraps a single alarm after a mutation.
type AlarmResponse struct {
	Status string       `json:"status"`
	Alarm  *AlarmOutput `json:"alarm"`
}

// AlarmsResponse represents the alarm list output in JSON.
type AlarmsResponse struct {
	Alarms     []*AlarmOutput `json:"alarms"`
	TotalCount int            `json:"total_count"`
	Enabled    int            `json:"enabled"`
}

// NewAlarmsResponse creates an AlarmsResponse from alarms.
func NewAlarmsResponse(alarms []*model.Alarm, now time.Time) *AlarmsResponse {
	resp := &AlarmsResponse{
		Alarms:     make([]*AlarmOutput, len(alarms)),
		TotalCount: len(alarms),
	}
	for i, a := range alarms {
		resp.Alarms[i] = NewAlarmOutput(a, now)
		if a.Enabled {
			resp.Enabled++
		}
	}
	return resp
}

// EventOutput represents a trigger event in JSON output.
type EventOutput struct {
	ID               string   `json:"id"`
	AlarmID          string   `json:"alarm_id"`
	AlarmLabel       string   `json:"alarm_label"`
	TriggeredAt      string   `json:"triggered_at"`
	Status           string   `json:"status"`
	Source           string   `json:"source,omitempty"`
	SnoozeCount      int      `json:"snooze_count"`
	SnoozeTimestamps []string `json:"snooze_timestamps"`
	DismissedAt      string   `json:"dismissed_at,omitempty"`
	SecondsToDismiss int64    `json:"seconds_to_dismiss,omitempty"`
	Level            string   `json:"level"`
}

// NewEventOutput creates an EventOutput from a timeline entry.
func NewEventOutput(e stats.Entry) *EventOutput {
	out := &EventOutput{
		ID:               e.Event.ID,
		AlarmID:          e.AlarmID,
		AlarmLabel:       e.AlarmLabel,
		TriggeredAt:      e.Event.TriggeredAt.Format(time.RFC3339),
		Status:           string(e.Event.Status),
		Source:           string(e.Event.Source),
		SnoozeCount:      e.Event.SnoozeCount,
		SnoozeTimestamps: make([]string, len(e.Event.SnoozeTimestamps)),
		Level:            string(e.Level),
	}
	for i, ts := range e.Event.SnoozeTimestamps {
		out.SnoozeTimestamps[i] = ts.Format(time.RFC3339)
	}
	if e.Event.DismissedAt != nil {
		out.DismissedAt = e.Event.DismissedAt.Format(time.RFC3339)
	}
	if d, ok := e.Event.TimeToDismiss(); ok {
		out.SecondsToDismiss = int64(d.Seconds())
	}
	return out
}

// EventResponse reports the outcome of a snooze, dismiss or fire.
type EventResponse struct {
	Status  string       `json:"status"`
	AlarmID string       `json:"alarm_id"`
	Event   *EventOutput `json:"event"`
}

// HistoryResponse represents the history output in JSON.
type HistoryResponse struct {
	Events     []*EventOutput `json:"events"`
	TotalCount int            `json:"total_count"`
}

// OccurrenceOutput represents an upcoming ring.
type OccurrenceOutput struct {
	AlarmID string `json:"alarm_id"`
	Label   string `json:"label"`
	At      string `json:"at"`
	InSecs  int64  `json:"in_seconds"`
}

// NextResponse represents the next command output in JSON.
type NextResponse struct {
	Upcoming []*OccurrenceOutput `json:"upcoming"`
}

// StatsResponse represents statistics output in JSON.
type StatsResponse struct {
	Since   string             `json:"since,omitempty"`
	Summary stats.Summary      `json:"summary"`
	Alarms  []stats.AlarmStats `json:"alarms"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PrintAlarm outputs one alarm with a status word.
func (j *JSONFormatter) PrintAlarm(status string, a *model.Alarm, now time.Time) error {
	return j.JSON(AlarmResponse{Status: status, Alarm: NewAlarmOutput(a, now)})
}

// PrintAlarms outputs the alarm list.
func (j *JSONFormatter) PrintAlarms(alarms []*model.Alarm, now time.Time) error {
	return j.JSON(NewAlarmsResponse(alarms, now))
}

// PrintEvent outputs the result of a lifecycle action.
func (j *JSONFormatter) PrintEvent(status string, a *model.Alarm, e model.TriggerEvent) error {
	entry := stats.Entry{
		AlarmID:    a.ID,
		AlarmLabel: a.Label,
		AlarmTime:  a.Time,
		Event:      e,
		Level:      stats.Level(e.SnoozeCount),
	}
	return j.JSON(EventResponse{Status: status, AlarmID: a.ID, Event: NewEventOutput(entry)})
}

// PrintHistory outputs timeline entries.
func (j *JSONFormatter) PrintHistory(entries []stats.Entry) error {
	resp := HistoryResponse{
		Events:     make([]*EventOutput, len(entries)),
		TotalCount: len(entries),
	}
	for i, e := range entries {
		resp.Events[i] = NewEventOutput(e)
	}
	return j.JSON(resp)
}

// PrintUpcoming outputs the next rings.
func (j *JSONFormatter) PrintUpcoming(occ []clock.Occurrence, now time.Time) error {
	resp := NextResponse{Upcoming: make([]*OccurrenceOutput, len(occ))}
	for i, o := range occ {
		resp.Upcoming[i] = &OccurrenceOutput{
			AlarmID: o.AlarmID,
			Label:   o.Label,
			At:      o.At.Format(time.RFC3339),
			InSecs:  int64(o.At.Sub(now).Seconds()),
		}
	}
	return j.JSON(resp)
}

// PrintStats outputs overall and per-alarm statistics.
func (j *JSONFormatter) PrintStats(w stats.Window, summary stats.Summary, perAlarm []stats.AlarmStats) error {
	resp := StatsResponse{Summary: summary, Alarms: perAlarm}
	if !w.Since.IsZero() {
		resp.Since = w.Since.Format(time.RFC3339)
	}
	if resp.Alarms == nil {
		resp.Alarms = []stats.AlarmStats{}
	}
	return j.JSON(resp)
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(status, errMsg, message, suggestion string) error {
	return j.JSON(ErrorResponse{
		Status:     status,
		Error:      errMsg,
		Message:    message,
		Suggestion: suggestion,
	})
}
