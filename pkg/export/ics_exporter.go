package export

import (
	"bytes"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// WeeklyEvent is a meeting that repeats every week of a term.
type WeeklyEvent struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Weekday     time.Weekday
	// Start and End are 24h "HH:MM" wall-clock times. An End not after Start falls on the next day.
	Start string
	End   string
}

// ICSExporter renders weekly events as an iCalendar feed.
type ICSExporter struct {
	location  *time.Location
	termStart time.Time
	weeks     int
	now       func() time.Time
}

// NewICSExporter builds an exporter. A zero termStart means "the current week"; timezone falls back to UTC.
func NewICSExporter(timezone string, termStart time.Time, weeks int) (*ICSExporter, error) {
	location := time.UTC
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %s: %w", timezone, err)
		}
		location = loc
	}
	if weeks <= 0 {
		weeks = 14
	}
	return &ICSExporter{location: location, termStart: termStart, weeks: weeks, now: time.Now}, nil
}

// Render produces the calendar. Each event recurs weekly for the configured number of weeks.
func (e *ICSExporter) Render(name string, events []WeeklyEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//routine-planner-api//EN")
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(e.location.String())

	anchor := e.anchor()
	stamp := e.now().UTC()
	for _, ev := range events {
		start, err := e.firstOccurrence(anchor, ev.Weekday, ev.Start)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.UID, err)
		}
		end, err := e.firstOccurrence(anchor, ev.Weekday, ev.End)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.UID, err)
		}
		if !end.After(start) {
			end = end.AddDate(0, 0, 1)
		}

		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(ev.Summary)
		if ev.Location != "" {
			event.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
		event.AddProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", e.weeks))
	}

	buf := &bytes.Buffer{}
	if err := cal.SerializeTo(buf); err != nil {
		return nil, fmt.Errorf("serialize calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *ICSExporter) anchor() time.Time {
	base := e.termStart
	if base.IsZero() {
		base = e.now()
	}
	base = base.In(e.location)
	return time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, e.location)
}

// firstOccurrence returns the first date on or after anchor that falls on weekday, at clock.
func (e *ICSExporter) firstOccurrence(anchor time.Time, weekday time.Weekday, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock %q", clock)
	}
	offset := (int(weekday) - int(anchor.Weekday()) + 7) % 7
	day := anchor.AddDate(0, 0, offset)
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, e.location), nil
}
