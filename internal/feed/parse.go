package feed

import (
	"bytes"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/isaacw/deckcal/internal/calendar"
)

// Parse decodes an ICS payload into raw events. Override components
// (RECURRENCE-ID) are folded into their master's exception set by UID; an
// override without a master in the same feed stands alone as a plain event.
func Parse(payload []byte) ([]calendar.RawEvent, error) {
	parsed, err := ics.ParseCalendar(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	type component struct {
		event        calendar.RawEvent
		recurrenceAt *time.Time
	}

	components := make([]component, 0, len(parsed.Events()))
	for _, vevent := range parsed.Events() {
		event, recurrenceAt, mapErr := mapEvent(vevent)
		if mapErr != nil {
			continue
		}
		components = append(components, component{event: event, recurrenceAt: recurrenceAt})
	}

	masters := make(map[string]int)
	events := make([]calendar.RawEvent, 0, len(components))
	for _, comp := range components {
		if comp.recurrenceAt != nil {
			continue
		}
		masters[comp.event.UID] = len(events)
		events = append(events, comp.event)
	}

	for _, comp := range components {
		if comp.recurrenceAt == nil {
			continue
		}
		idx, ok := masters[comp.event.UID]
		if !ok {
			// Orphan override; treat as a standalone timed event.
			events = append(events, comp.event)
			continue
		}
		events[idx].Overrides = append(events[idx].Overrides, calendar.Override{
			RecurrenceAt: *comp.recurrenceAt,
			Summary:      comp.event.Summary,
			Start:        comp.event.Start,
			End:          comp.event.End,
			Attendees:    comp.event.Attendees,
		})
	}

	return events, nil
}

func mapEvent(event *ics.VEvent) (calendar.RawEvent, *time.Time, error) {
	start, err := event.GetStartAt()
	if err != nil {
		if start, err = event.GetAllDayStartAt(); err != nil {
			return calendar.RawEvent{}, nil, err
		}
	}

	end, err := event.GetEndAt()
	if err != nil {
		end, err = event.GetAllDayEndAt()
	}
	if err != nil || !end.After(start) {
		end = start.Add(30 * time.Minute)
	}

	uid := propertyValue(event.GetProperty(ics.ComponentPropertyUniqueId))
	if strings.TrimSpace(uid) == "" {
		uid = strings.TrimSpace(propertyValue(event.GetProperty(ics.ComponentPropertySummary)))
	}

	var recurrenceAt *time.Time
	if prop := event.GetProperty(ics.ComponentPropertyRecurrenceId); prop != nil {
		if at, parseErr := parseICSTimeValue(prop.Value, prop.ICalParameters); parseErr == nil {
			recurrenceAt = &at
		}
	}

	raw := calendar.RawEvent{
		UID:       strings.TrimSpace(uid),
		Summary:   strings.TrimSpace(propertyValue(event.GetProperty(ics.ComponentPropertySummary))),
		Start:     start,
		End:       end,
		AllDay:    isAllDay(event.GetProperty(ics.ComponentPropertyDtStart)),
		RRULE:     strings.TrimSpace(propertyValue(event.GetProperty(ics.ComponentPropertyRrule))),
		RDates:    collectDateTimes(event.GetProperties(ics.ComponentPropertyRdate)),
		ExDates:   collectDateTimes(event.GetProperties(ics.ComponentPropertyExdate)),
		Attendees: collectAttendees(event.GetProperties(ics.ComponentPropertyAttendee)),
	}
	return raw, recurrenceAt, nil
}

// collectAttendees normalizes every ATTENDEE shape to one response-set
// entry: a bare mailto value carries no status, a parameterized one maps its
// PARTSTAT, and repeated properties form the multi-attendee set.
func collectAttendees(properties []*ics.IANAProperty) []calendar.Attendee {
	if len(properties) == 0 {
		return nil
	}

	attendees := make([]calendar.Attendee, 0, len(properties))
	for _, property := range properties {
		if property == nil {
			continue
		}
		email := strings.TrimSpace(property.Value)
		email = strings.TrimPrefix(email, "mailto:")
		email = strings.TrimPrefix(email, "MAILTO:")

		status := calendar.StatusUnspecified
		if values, ok := property.ICalParameters["PARTSTAT"]; ok && len(values) > 0 {
			switch strings.ToUpper(strings.TrimSpace(values[0])) {
			case "ACCEPTED":
				status = calendar.StatusAccepted
			case "DECLINED":
				status = calendar.StatusDeclined
			case "TENTATIVE":
				status = calendar.StatusTentative
			case "NEEDS-ACTION":
				status = calendar.StatusNeedsAction
			}
		}

		attendees = append(attendees, calendar.Attendee{Email: email, Status: status})
	}
	return attendees
}

func collectDateTimes(properties []*ics.IANAProperty) []time.Time {
	if len(properties) == 0 {
		return nil
	}

	results := make([]time.Time, 0, len(properties))
	for _, property := range properties {
		if property == nil {
			continue
		}
		for _, value := range strings.Split(property.Value, ",") {
			parsed, err := parseICSTimeValue(strings.TrimSpace(value), property.ICalParameters)
			if err != nil {
				continue
			}
			results = append(results, parsed)
		}
	}
	return results
}

func parseICSTimeValue(value string, params map[string][]string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errEmptyTimeValue
	}

	var location *time.Location
	if tzIDs, ok := params["TZID"]; ok && len(tzIDs) > 0 && strings.TrimSpace(tzIDs[0]) != "" {
		if loaded, err := time.LoadLocation(strings.TrimSpace(tzIDs[0])); err == nil {
			location = loaded
		}
	}

	layouts := []string{
		"20060102T150405Z",
		"20060102T1504Z",
		"20060102T150405",
		"20060102T1504",
		"20060102",
	}

	for _, layout := range layouts {
		if strings.HasSuffix(layout, "Z") {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed, nil
			}
			continue
		}

		loc := time.Local
		if location != nil {
			loc = location
		}
		if parsed, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, errUnparsableTimeValue
}

var (
	errEmptyTimeValue      = errValue("empty time value")
	errUnparsableTimeValue = errValue("unparsable time value")
)

type errValue string

func (e errValue) Error() string { return string(e) }

func isAllDay(property *ics.IANAProperty) bool {
	if property == nil {
		return false
	}
	if values, ok := property.ICalParameters["VALUE"]; ok {
		for _, value := range values {
			if strings.EqualFold(strings.TrimSpace(value), "DATE") {
				return true
			}
		}
	}
	return len(strings.TrimSpace(property.Value)) == 8
}

func propertyValue(property *ics.IANAProperty) string {
	if property == nil {
		return ""
	}
	return property.Value
}
