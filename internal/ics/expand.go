package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "readycal/internal/log"
	"readycal/internal/model"
	"readycal/internal/taxonomy"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls how feeds are expanded into calendar events.
type ExpandConfig struct {
	// DisplayLocation is the timezone to which all occurrences will be
	// converted. If nil, time.UTC is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or extremely
	// large expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// EventsFromICS parses an ICS payload and expands it into canonical
// calendar events within the configured window. It handles:
//
//   - Single non-recurring events
//   - RRULE-based recurrence (DAILY/WEEKLY/MONTHLY/YEARLY, etc.)
//   - EXDATE for exception removal
//   - RECURRENCE-ID overrides
//   - All-day semantics
//
// The VEVENT's first CATEGORIES value becomes the event's fine-grained
// eventType; its display category is looked up in the shared taxonomy, with
// unmapped tags falling back to "Uncategorized".
func EventsFromICS(feed Feed, body []byte, cfg ExpandConfig) ([]model.CalendarEvent, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.UTC
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	parsed, err := parseICS(feed, body)
	if err != nil {
		return nil, err
	}

	// Group base events and overrides by UID.
	baseByUID := make(map[string][]parsedEvent)
	overridesByUID := make(map[string][]parsedEvent)

	for _, ev := range parsed {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	out := make([]model.CalendarEvent, 0)

	for uid, baseEvents := range baseByUID {
		ov := overridesByUID[uid]
		truncated := false

		for _, ev := range baseEvents {
			occ, hitCap := expandEvent(ev, ov, cfg)
			if hitCap {
				truncated = true
			}
			out = append(out, occ...)
		}

		if truncated {
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	return out, nil
}

// expandEvent expands a single base VEVENT with its possible overrides,
// returning events and whether the occurrence cap was hit.
func expandEvent(ev parsedEvent, overrides []parsedEvent, cfg ExpandConfig) ([]model.CalendarEvent, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev parsedEvent, overrides []parsedEvent, cfg ExpandConfig) []model.CalendarEvent {
	var out []model.CalendarEvent

	// Quick range check: skip events outside [RangeStart, RangeEnd].
	if !timeRangesOverlap(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return out
	}

	baseStart := ev.Start
	baseEnd := ev.End

	// Apply any override whose RECURRENCE-ID matches this start.
	if o, ok := findOverrideForStart(overrides, baseStart); ok {
		baseStart = o.Start
		baseEnd = o.End
		ev = o
	}

	out = append(out, makeEvent(ev, baseStart, baseEnd, cfg.DisplayLocation))
	return out
}

func expandRecurringEvent(ev parsedEvent, overrides []parsedEvent, cfg ExpandConfig) ([]model.CalendarEvent, bool) {
	out := make([]model.CalendarEvent, 0)
	hitCap := false

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}

	// Ensure Dtstart is set to the event's DTSTART.
	r.DTStart(ev.Start)

	// Build a set so we can apply EXDATE.
	var set rrule.Set
	set.RRule(r)

	for _, ex := range ev.ExDates {
		// Best effort: align EXDATE location with event's start.
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Adjust range into the event's original location for Between().
	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)

	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			// All-day: treat as [date 00:00, next day 00:00) in event's timezone.
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			occEnd = date.Add(24 * time.Hour)
		} else {
			// Preserve original duration.
			occEnd = occStart.Add(ev.End.Sub(ev.Start))
		}

		baseStart := occStart
		baseEnd := occEnd
		baseEv := ev

		if o, ok := findOverrideForStart(overrides, occStart); ok {
			baseStart = o.Start
			baseEnd = o.End
			baseEv = o
		}

		out = append(out, makeEvent(baseEv, baseStart, baseEnd, cfg.DisplayLocation))
	}

	return out, hitCap
}

// findOverrideForStart finds an override event whose RECURRENCE-ID matches
// the given baseStart with exact time equality.
func findOverrideForStart(overrides []parsedEvent, baseStart time.Time) (parsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		rid := ov.Recurrence.In(baseStart.Location())
		if rid.Equal(baseStart) {
			return ov, true
		}
	}
	return parsedEvent{}, false
}

// makeEvent converts a (possibly overridden) parsedEvent + concrete
// start/end into a canonical CalendarEvent normalized into displayLoc.
func makeEvent(ev parsedEvent, start, end time.Time, displayLoc *time.Location) model.CalendarEvent {
	startLocal := start.In(displayLoc)
	endLocal := end.In(displayLoc)

	category := taxonomy.CategoryOf(ev.Category)
	if category == "" {
		category = "Uncategorized"
	}

	return model.CalendarEvent{
		// Feed id + UID + instance start gives a stable per-occurrence id.
		ID:     ev.Feed.ID + "/" + ev.UID + "/" + startLocal.Format(time.RFC3339),
		Title:  ev.Summary,
		Start:  startLocal,
		End:    endLocal,
		AllDay: ev.AllDay,
		ExtendedProps: model.ExtendedProps{
			EventType:        ev.Category,
			CalendarCategory: category,
			Location:         ev.Location,
			Note:             ev.Description,
		},
	}
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
