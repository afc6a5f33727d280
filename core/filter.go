package core

import (
	"time"
)

// IsUpcoming reports whether the event starts at or after ref.
// Events whose date or time cannot be parsed are never upcoming.
func IsUpcoming(event Event, ref time.Time, loc *time.Location) bool {
	ts, err := event.Timestamp(loc)
	if err != nil {
		return false
	}

	return !ts.Before(ref)
}

// FilterUpcoming returns, in their original order, the events that are not
// earlier than ref. The input slice is left untouched.
func FilterUpcoming(events []Event, ref time.Time, loc *time.Location) []Event {
	upcoming := make([]Event, 0, len(events))

	for _, event := range events {
		if IsUpcoming(event, ref, loc) {
			upcoming = append(upcoming, event)
		}
	}

	return upcoming
}
