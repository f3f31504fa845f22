// Package filter applies the faceted event filter: an AND across four facet
// checks, where each facet check is an OR of "nothing selected", "event has
// no value for this facet", and "event value intersects the selection".
package filter

import (
	"sort"

	"readycal/internal/model"
	"readycal/internal/taxonomy"
)

// Apply returns the subset of events matching the selection. Empty facet
// arrays impose no restriction, and events lacking a facet field always pass
// that facet's check. Apply never mutates its inputs.
func Apply(events []model.CalendarEvent, sel model.FilterSelection) []model.CalendarEvent {
	// Types come in as display-category names; expand once up front.
	selectedTags := taxonomy.Expand(sel.Types)

	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if !passesSquad(ev, sel.Squads) {
			continue
		}
		if !passesType(ev, sel.Types, selectedTags) {
			continue
		}
		if !passesLocation(ev, sel.Locations) {
			continue
		}
		if !passesAttendees(ev, sel.Attendees) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func passesSquad(ev model.CalendarEvent, squads []string) bool {
	if len(squads) == 0 || ev.ExtendedProps.Squad == "" {
		return true
	}
	return contains(squads, ev.ExtendedProps.Squad)
}

func passesType(ev model.CalendarEvent, selected []string, selectedTags map[string]bool) bool {
	if len(selected) == 0 || ev.ExtendedProps.EventType == "" {
		return true
	}
	return selectedTags[ev.ExtendedProps.EventType]
}

func passesLocation(ev model.CalendarEvent, locations []string) bool {
	if len(locations) == 0 || ev.ExtendedProps.Location == "" {
		return true
	}
	return contains(locations, ev.ExtendedProps.Location)
}

func passesAttendees(ev model.CalendarEvent, attendees []string) bool {
	if len(attendees) == 0 || len(ev.ExtendedProps.Attendees) == 0 {
		return true
	}
	// Pass when the intersection is non-empty.
	for _, a := range ev.ExtendedProps.Attendees {
		if contains(attendees, a) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Options holds the distinct facet values present in a merged event set;
// the sidebar builds its checkbox lists from this.
type Options struct {
	Squads    []string `json:"squads"`
	Types     []string `json:"types"`
	Locations []string `json:"locations"`
	Attendees []string `json:"attendees"`
}

// IsEmpty reports whether no facet has any value at all.
func (o Options) IsEmpty() bool {
	return len(o.Squads) == 0 && len(o.Types) == 0 &&
		len(o.Locations) == 0 && len(o.Attendees) == 0
}

// DeriveOptions scans the merged set and collects distinct squads,
// unified display types, locations, and attendees. Squads, locations and
// attendees are sorted; types keep the taxonomy's category order.
func DeriveOptions(events []model.CalendarEvent) Options {
	squads := make(map[string]bool)
	tags := make(map[string]bool)
	locations := make(map[string]bool)
	attendees := make(map[string]bool)

	for _, ev := range events {
		p := ev.ExtendedProps
		if p.Squad != "" {
			squads[p.Squad] = true
		}
		if p.EventType != "" {
			tags[p.EventType] = true
		}
		if p.Location != "" {
			locations[p.Location] = true
		}
		for _, a := range p.Attendees {
			if a != "" {
				attendees[a] = true
			}
		}
	}

	return Options{
		Squads:    sortedKeys(squads),
		Types:     taxonomy.Unify(tags),
		Locations: sortedKeys(locations),
		Attendees: sortedKeys(attendees),
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
