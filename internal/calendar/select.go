package calendar

import "time"

// Select picks the in-progress and upcoming occurrences relative to now.
// items must already be sorted by SortOccurrences; a single forward scan
// then finds the earliest interval containing now (current) and the first
// start strictly after now (next). Stateless and idempotent.
func Select(items []Occurrence, now time.Time) Selection {
	var selection Selection
	for i := range items {
		item := items[i]
		if selection.Current == nil && !item.Start.After(now) && item.End.After(now) {
			current := item
			selection.Current = &current
			continue
		}
		if item.Start.After(now) {
			next := item
			selection.Next = &next
			break
		}
	}
	return selection
}
