package calendar

import "time"

// ResponseStatus is an attendee's reply to an event invitation, as carried
// by the feed's PARTSTAT parameter.
type ResponseStatus string

const (
	StatusUnspecified ResponseStatus = ""
	StatusAccepted    ResponseStatus = "ACCEPTED"
	StatusDeclined    ResponseStatus = "DECLINED"
	StatusTentative   ResponseStatus = "TENTATIVE"
	StatusNeedsAction ResponseStatus = "NEEDS-ACTION"
)

// Attendee is one entry in an event's response set.
type Attendee struct {
	Email  string
	Status ResponseStatus
}

// Override replaces a single instance of a recurring event. RecurrenceAt is
// the start of the instance being replaced; Start/End/Summary describe the
// replacement. An empty Attendees slice means the master's response set
// applies to the overridden instance too.
type Override struct {
	RecurrenceAt time.Time
	Summary      string
	Start        time.Time
	End          time.Time
	Attendees    []Attendee
}

// RawEvent is one calendar entry as parsed from the feed, with any
// RECURRENCE-ID components folded into Overrides. Immutable after parse.
type RawEvent struct {
	UID     string
	Summary string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRULE   string
	RDates  []time.Time
	ExDates []time.Time

	Overrides []Override
	Attendees []Attendee
}

// Occurrence is one concrete event instance pinned to a specific day. The
// response set rides along so decline resolution can distinguish the
// single-attendee and multi-attendee forms.
type Occurrence struct {
	UID       string
	Title     string
	Start     time.Time
	End       time.Time
	Attendees []Attendee
}

// Selection is the current/next pair picked against a single instant.
// Recomputed on every query, never cached.
type Selection struct {
	Current *Occurrence
	Next    *Occurrence
}
