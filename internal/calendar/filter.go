package calendar

import (
	"sort"
	"strings"
)

// DropDeclined removes occurrences the viewer has declined. Order-preserving.
//
// Resolution is deliberately asymmetric: a single-entry response set is used
// directly no matter whose identity it names (solo-attendee events carry the
// event's own status in that slot), while a multi-entry set only suppresses
// the occurrence when the viewer's own entry says DECLINED. No matching
// entry means keep.
func DropDeclined(items []Occurrence, viewerEmail string) []Occurrence {
	if len(items) == 0 {
		return nil
	}

	kept := make([]Occurrence, 0, len(items))
	for _, item := range items {
		if viewerStatus(item.Attendees, viewerEmail) == StatusDeclined {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func viewerStatus(attendees []Attendee, viewerEmail string) ResponseStatus {
	if len(attendees) == 0 {
		return StatusUnspecified
	}
	if len(attendees) == 1 {
		return attendees[0].Status
	}
	for _, attendee := range attendees {
		if strings.EqualFold(strings.TrimSpace(attendee.Email), strings.TrimSpace(viewerEmail)) {
			return attendee.Status
		}
	}
	return StatusUnspecified
}

// SortOccurrences orders by start ascending, then end, then title, so a
// single forward scan can pick current and next.
func SortOccurrences(items []Occurrence) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Start.Equal(items[j].Start) {
			return items[i].Start.Before(items[j].Start)
		}
		if !items[i].End.Equal(items[j].End) {
			return items[i].End.Before(items[j].End)
		}
		return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
	})
}
