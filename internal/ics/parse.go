// Package ics bridges iCalendar feeds and the canonical event model: it
// parses VEVENTs, expands recurrences within a visible window, and exports
// merged events back out as an ICS calendar.
package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "readycal/internal/log"
)

// Feed identifies a subscribed ICS source.
type Feed struct {
	// ID is an internal identifier used for logging and event ids.
	ID string
	// Name is a human-friendly label.
	Name string
}

// parsedEvent is the normalized representation of a VEVENT before
// recurrence expansion.
type parsedEvent struct {
	Feed Feed

	UID string

	Summary     string
	Description string
	Location    string
	Category    string // first CATEGORIES value, used as the fine-grained event type

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID (if present)
	IsOverride bool       // true if this VEVENT overrides a recurring instance
}

// parseICS parses a single ICS payload into parsedEvents.
//
//   - It relies on the underlying library's VTIMEZONE/TZID handling to
//     construct proper time.Time values.
//   - It detects all-day events by inspecting the DTSTART value format.
//   - It records RRULE/EXDATE/RECURRENCE-ID but does not expand recurrences;
//     expansion is done in expand.go.
func parseICS(feed Feed, body []byte) ([]parsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", feed.ID)
		return nil, err
	}

	events := make([]parsedEvent, 0)

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(feed, comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr, "id", feed.ID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "id", feed.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(feed Feed, ve *ical.VEvent) (parsedEvent, error) {
	var out parsedEvent
	out.Feed = feed

	// UID
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	// Summary / Description / Location
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	// CATEGORIES: the first entry is taken as the fine-grained event type
	// (e.g. "TRAINING_SESSION"). Additional entries are ignored.
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		parts := strings.Split(p.Value, ",")
		if len(parts) > 0 {
			out.Category = strings.TrimSpace(parts[0])
		}
	}

	// DTSTART / DTEND. We use the library's helpers for timezone logic.
	start, _ := ve.GetStartAt()
	end, _ := ve.GetEndAt()
	out.Start = start
	out.End = end

	// Detect all-day: VALUE=DATE or YYYYMMDD form in DTSTART.
	allDay := false
	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		if params := dtStartProp.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				allDay = true
			}
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			allDay = true
		}
	}
	out.AllDay = allDay

	// RRULE (raw string only; expansion happens in expand.go).
	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE (can appear multiple times, each possibly comma-separated).
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	// RECURRENCE-ID (overridden instance)
	if ridProp := ve.GetProperty("RECURRENCE-ID"); ridProp != nil {
		if t, err := parseICSTime(ridProp.Value); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string into time.Time.
// Simplified helper for EXDATE/RECURRENCE-ID where we do not have full
// parameter context; expansion handles timezone normalization later.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		return time.Parse(layout, v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		return time.ParseInLocation(layout, v, time.Local)
	}

	// Date-only (all-day), e.g., 20250101
	const layoutDate = "20060102"
	return time.ParseInLocation(layoutDate, v, time.Local)
}
