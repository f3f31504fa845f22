package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"readycal/internal/model"
)

// Export serializes canonical events into an ICS calendar, the inverse of
// the feed-import path. Facet fields map back onto standard VEVENT
// properties (CATEGORIES, LOCATION); the tooltip note becomes DESCRIPTION.
func Export(events []model.CalendarEvent) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//readycal//calendar export//EN")

	now := time.Now().UTC()

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(now)
		ve.SetSummary(ev.Title)

		if ev.AllDay {
			ve.SetAllDayStartAt(ev.Start)
			ve.SetAllDayEndAt(ev.End)
		} else {
			ve.SetStartAt(ev.Start)
			ve.SetEndAt(ev.End)
		}

		if ev.ExtendedProps.Location != "" {
			ve.SetLocation(ev.ExtendedProps.Location)
		}
		if ev.ExtendedProps.EventType != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, ev.ExtendedProps.EventType)
		}
		if ev.ExtendedProps.Note != "" {
			ve.SetDescription(ev.ExtendedProps.Note)
		}
	}

	return cal.Serialize()
}
