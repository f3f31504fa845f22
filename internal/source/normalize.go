// Package source loads the heterogeneous event collections and normalizes
// them into the canonical CalendarEvent shape before merging.
package source

import (
	appLog "readycal/internal/log"
	"readycal/internal/model"
)

// Kind identifies which collection an event came from; normalization rules
// differ per kind.
type Kind string

const (
	// KindBase is the plain calendar-event collection. Base events may carry
	// a url field which is stripped: navigation-by-click is replaced by the
	// tooltip, except for the explicit modifier-click path.
	KindBase Kind = "base"
	// KindCategory is the per-category event collection.
	KindCategory Kind = "category"
	// KindExtra is the comprehensive readiness-event collection.
	KindExtra Kind = "extra"
)

// uncategorized is the calendarCategory assigned when a category/extra event
// does not declare one.
const uncategorized = "Uncategorized"

// Normalize applies per-kind rules and returns a fresh slice; inputs are
// never mutated.
func Normalize(kind Kind, events []model.CalendarEvent) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		switch kind {
		case KindBase:
			ev.URL = ""
		case KindCategory, KindExtra:
			if ev.ExtendedProps.CalendarCategory == "" {
				ev.ExtendedProps.CalendarCategory = uncategorized
			}
		}
		out = append(out, ev)
	}
	return out
}

// Merge concatenates the normalized collections in the fixed order
// base → nutrition → category → extra. Colliding ids are kept (both events
// survive) but logged so they are visible.
func Merge(base, nutrition, category, extra []model.CalendarEvent) []model.CalendarEvent {
	merged := make([]model.CalendarEvent, 0, len(base)+len(nutrition)+len(category)+len(extra))
	seen := make(map[string]bool)

	for _, group := range [][]model.CalendarEvent{base, nutrition, category, extra} {
		for _, ev := range group {
			if ev.ID != "" && seen[ev.ID] {
				appLog.Warn("merge: duplicate event id across sources", "id", ev.ID, "title", ev.Title)
			}
			seen[ev.ID] = true
			merged = append(merged, ev)
		}
	}

	return merged
}
