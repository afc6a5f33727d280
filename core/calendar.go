package core

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const calendarProductID = "-//EventMappr//Upcoming Events//EN"

// BuildCalendar renders events as an iCalendar feed. Events whose timestamp
// does not parse are left out.
func BuildCalendar(events []Event, loc *time.Location, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("EventMappr")

	for _, e := range events {
		start, err := e.Timestamp(loc)
		if err != nil {
			continue
		}

		ev := cal.AddEvent(eventUID(e))
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetSummary(e.Name)
		ev.SetLocation(e.Address)

		if e.Type != "" {
			ev.SetProperty(ics.ComponentPropertyCategories, e.Type)
		}
	}

	return cal.Serialize()
}

// eventUID is stable across feeds for the same event fields.
func eventUID(e Event) string {
	key := strings.Join([]string{e.Name, e.Type, e.Date, e.Time, e.Address}, "\x1f")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("eventmappr:"+key)).String() + "@eventmappr"
}
