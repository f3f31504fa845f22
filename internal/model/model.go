package model

import "time"

// CalendarEvent is the canonical event shape every source is normalized
// into. Start/End are absolute instants; JSON encoding uses RFC3339 so the
// wire form matches the ISO-8601 timestamps the fixtures carry.
type CalendarEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"allDay"`

	BackgroundColor string `json:"backgroundColor,omitempty"`
	BorderColor     string `json:"borderColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`

	// URL is only ever populated on raw base-source events; the normalizer
	// strips it so click handling goes through the tooltip path instead.
	URL string `json:"url,omitempty"`

	ExtendedProps ExtendedProps `json:"extendedProps"`
}

// ExtendedProps carries the faceting fields plus domain payloads. Facet
// fields are explicitly optional: an empty EventType / Squad / Location or a
// nil Attendees slice means "this event does not participate in that facet"
// and the filter engine must pass it through.
type ExtendedProps struct {
	EventType        string   `json:"eventType,omitempty"`
	CalendarCategory string   `json:"calendarCategory,omitempty"`
	Squad            string   `json:"squad,omitempty"`
	Location         string   `json:"location,omitempty"`
	Attendees        []string `json:"attendees,omitempty"`

	// Domain payloads, present depending on the producing source.
	Nutrition          *Nutrition    `json:"nutrition,omitempty"`
	Activity           *ActivityInfo `json:"activity,omitempty"`
	Note               string        `json:"note,omitempty"`
	Summary            *DaySummary   `json:"summary,omitempty"`
	MealPercentOfDaily *int          `json:"mealPercentOfDaily,omitempty"`
}

// FilterSelection is the current choice for each facet. The load-bearing
// semantic: an empty slice means "no restriction on that facet", never
// "exclude everything". Types holds display-category names, not raw tags;
// the taxonomy mapper expands them before matching.
type FilterSelection struct {
	Squads    []string `json:"squads"`
	Types     []string `json:"types"`
	Locations []string `json:"locations"`
	Attendees []string `json:"attendees"`
}

// Nutrition holds per-item macro values.
type Nutrition struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein,omitempty"`
	Carbs    float64 `json:"carbs,omitempty"`
	Fats     float64 `json:"fats,omitempty"`
}

// ActivityInfo describes a scheduled activity item (training, session).
type ActivityInfo struct {
	Details   string `json:"details,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// MacroProgress is one macro's consumed/target pair in a day summary.
type MacroProgress struct {
	Consumed int    `json:"consumed"`
	Target   int    `json:"target"`
	Unit     string `json:"unit"`
}

// DaySummary is the per-day macro rollup of a nutrition schedule.
type DaySummary struct {
	Calories MacroProgress `json:"calories"`
	Protein  MacroProgress `json:"protein"`
	Carbs    MacroProgress `json:"carbs"`
	Fats     MacroProgress `json:"fats"`
}

// ScheduleItem is one entry in a nutrition day schedule. Type is one of
// "meal", "activity" or "note". Meals and notes carry Time; activities carry
// StartTime and optionally EndTime (all "HH:MM" wall-clock strings).
type ScheduleItem struct {
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Time      string     `json:"time,omitempty"`
	StartTime string     `json:"startTime,omitempty"`
	EndTime   string     `json:"endTime,omitempty"`
	Nutrition *Nutrition `json:"nutrition,omitempty"`
	Details   string     `json:"details,omitempty"`
}

// DaySchedule is one weekday of a nutrition week.
type DaySchedule struct {
	Summary  *DaySummary    `json:"summary,omitempty"`
	Schedule []ScheduleItem `json:"schedule"`
}

// NutritionWeek maps lowercase English weekday names ("monday".."sunday")
// to their schedules. Days may be absent.
type NutritionWeek struct {
	Week map[string]DaySchedule `json:"week"`
}
