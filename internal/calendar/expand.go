package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ExpandDay turns raw events into the concrete occurrences landing on the
// calendar day containing `day`. An event contributes at most one occurrence
// per day: an override whose replacement start falls on the day wins over the
// event's own instance, and an override that moves an instance off the day
// removes it entirely. All-day events are excluded; only timed events drive
// the indicators. The result is unsorted and may contain overlaps.
func ExpandDay(events []RawEvent, day time.Time) []Occurrence {
	if len(events) == 0 {
		return nil
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	occurrences := make([]Occurrence, 0, len(events))
	for _, event := range events {
		if strings.TrimSpace(event.UID) == "" || event.AllDay {
			continue
		}
		if occ, ok := expandOne(event, dayStart, dayEnd); ok {
			occurrences = append(occurrences, occ)
		}
	}
	return occurrences
}

func expandOne(event RawEvent, dayStart, dayEnd time.Time) (Occurrence, bool) {
	duration := event.End.Sub(event.Start)
	if duration <= 0 {
		duration = 30 * time.Minute
	}

	// Overrides first: a replacement landing on the day fully substitutes
	// for whatever instance the master would have contributed.
	for _, override := range event.Overrides {
		if !within(override.Start, dayStart, dayEnd) {
			continue
		}
		end := override.End
		if !end.After(override.Start) {
			end = override.Start.Add(duration)
		}
		attendees := override.Attendees
		if len(attendees) == 0 {
			attendees = event.Attendees
		}
		title := override.Summary
		if strings.TrimSpace(title) == "" {
			title = event.Summary
		}
		return Occurrence{
			UID:       event.UID,
			Title:     sanitize(title),
			Start:     override.Start,
			End:       end,
			Attendees: attendees,
		}, true
	}

	start, ok := instanceStart(event, dayStart, dayEnd)
	if !ok {
		return Occurrence{}, false
	}

	// An override pointing at this instance moved it off the day.
	for _, override := range event.Overrides {
		if within(override.RecurrenceAt, dayStart, dayEnd) {
			return Occurrence{}, false
		}
	}

	return Occurrence{
		UID:       event.UID,
		Title:     sanitize(event.Summary),
		Start:     start,
		End:       start.Add(duration),
		Attendees: event.Attendees,
	}, true
}

// instanceStart resolves the event's own instance on the day: the primary
// start for a plain event, or the recurrence rule's instance for a master.
func instanceStart(event RawEvent, dayStart, dayEnd time.Time) (time.Time, bool) {
	if strings.TrimSpace(event.RRULE) == "" {
		if within(event.Start, dayStart, dayEnd) {
			return event.Start, true
		}
		return time.Time{}, false
	}

	starts := expandRRuleStarts(event, dayStart, dayEnd)
	if len(starts) == 0 {
		return time.Time{}, false
	}
	return starts[0], true
}

func expandRRuleStarts(event RawEvent, windowStart, windowEnd time.Time) []time.Time {
	opt, err := rrule.StrToROption(event.RRULE)
	if err != nil {
		return fallbackStarts(event, windowStart, windowEnd)
	}

	opt.Dtstart = event.Start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return fallbackStarts(event, windowStart, windowEnd)
	}

	set := &rrule.Set{}
	set.RRule(rule)
	for _, exdate := range event.ExDates {
		set.ExDate(exdate)
	}
	for _, rdate := range event.RDates {
		set.RDate(rdate)
	}

	starts := set.Between(windowStart, windowEnd.Add(-time.Nanosecond), true)
	sort.Slice(starts, func(i, j int) bool {
		return starts[i].Before(starts[j])
	})
	return starts
}

func fallbackStarts(event RawEvent, windowStart, windowEnd time.Time) []time.Time {
	if within(event.Start, windowStart, windowEnd) {
		return []time.Time{event.Start}
	}
	return nil
}

func within(t, windowStart, windowEnd time.Time) bool {
	return !t.Before(windowStart) && t.Before(windowEnd)
}

func sanitize(value string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(value)), " ")
}
