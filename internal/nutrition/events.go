// Package nutrition derives calendar events from a weekly nutrition
// schedule: meals, activities and notes become timed events with fixed
// colors, short meal titles, and per-meal percent-of-daily-target
// annotations.
package nutrition

import (
	"fmt"
	"math"
	"strings"
	"time"

	appLog "readycal/internal/log"
	"readycal/internal/model"
)

// Item type discriminators in the schedule JSON.
const (
	ItemMeal     = "meal"
	ItemActivity = "activity"
	ItemNote     = "note"
)

// Fixed durations per item type. Activities without an explicit end time
// default to one hour.
const (
	mealDuration            = 15 * time.Minute
	noteDuration            = 5 * time.Minute
	defaultActivityDuration = 60 * time.Minute
)

// defaultTimeOfDay is used when a schedule item carries no time at all.
const defaultTimeOfDay = "08:00"

// dayOrder fixes the weekday keys and their offsets relative to the plan's
// base Monday. Day keys outside this table are ignored.
var dayOrder = []string{
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
	"sunday",
}

// mealCodes maps common meal titles to the short codes shown on the
// calendar grid. Unknown titles fall back to uppercased word initials.
var mealCodes = map[string]string{
	"Breakfast":         "BRK",
	"Lunch":             "LCH",
	"Dinner":            "DIN",
	"Snack":             "SNK",
	"Morning Snack":     "MS",
	"Afternoon Snack":   "AS",
	"Evening Snack":     "ES",
	"Pre-Workout Meal":  "PWM",
	"Post-Workout Meal": "POM",
	"Hydration":         "HYD",
}

// Color triples per item type.
var (
	mealColors     = colorTriple{"#1bbc9c", "#15a086", "#ffffff"}
	activityColors = colorTriple{"#3a8dee", "#0e478a", "#ffffff"}
	noteColors     = colorTriple{"#9b58b5", "#8f44ad", "#ffffff"}
)

type colorTriple struct {
	background string
	border     string
	text       string
}

// Options controls week-to-event expansion.
type Options struct {
	// SoldierID identifies the plan owner; part of every generated id.
	SoldierID int
	// BaseMonday is the Monday the first generated week starts on. Time of
	// day and location are ignored; events are generated in UTC.
	BaseMonday time.Time
	// Weeks is the number of sequential week copies to generate (minimum 1).
	Weeks int
}

// WeekToEvents expands a weekly nutrition schedule into calendar events.
//
// Ids are derived deterministically from soldier id, week index, day key and
// item index, so regenerating from the same inputs yields the same ids and a
// caller that replaces (rather than appends) never accumulates duplicates.
//
// Malformed input (missing week map) yields an empty slice and a warning,
// never an error: a broken plan degrades to "no nutrition events shown".
func WeekToEvents(week model.NutritionWeek, opts Options) []model.CalendarEvent {
	if week.Week == nil {
		appLog.Warn("nutrition week data missing 'week' map; producing no events",
			"soldier_id", opts.SoldierID)
		return []model.CalendarEvent{}
	}

	weeks := opts.Weeks
	if weeks < 1 {
		weeks = 1
	}

	base := time.Date(
		opts.BaseMonday.Year(), opts.BaseMonday.Month(), opts.BaseMonday.Day(),
		0, 0, 0, 0, time.UTC,
	)

	events := make([]model.CalendarEvent, 0)

	for w := 0; w < weeks; w++ {
		for offset, dayKey := range dayOrder {
			day, ok := week.Week[dayKey]
			if !ok {
				continue
			}
			dayStart := base.AddDate(0, 0, w*7+offset)

			for i, item := range day.Schedule {
				ev := itemToEvent(item, day, dayStart)
				ev.ID = fmt.Sprintf("nutrition-%d-w%d-%s-%d", opts.SoldierID, w, dayKey, i)
				events = append(events, ev)
			}
		}
	}

	return events
}

func itemToEvent(item model.ScheduleItem, day model.DaySchedule, dayStart time.Time) model.CalendarEvent {
	start := dayStart.Add(timeOfDay(item))

	var (
		end    time.Time
		colors colorTriple
		title  string
		props  model.ExtendedProps
	)

	switch item.Type {
	case ItemActivity:
		if d, ok := parseClock(item.EndTime); ok {
			end = dayStart.Add(d)
		} else {
			end = start.Add(defaultActivityDuration)
		}
		colors = activityColors
		title = item.Title
		props.EventType = "TRAINING_SESSION"
		props.Activity = &model.ActivityInfo{
			Details:   item.Details,
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
		}

	case ItemMeal:
		end = start.Add(mealDuration)
		colors = mealColors
		title = mealTitle(item)
		props.EventType = "NUTRITION"
		props.Nutrition = item.Nutrition
		props.Summary = day.Summary
		props.MealPercentOfDaily = mealPercent(item, day)

	default: // notes, and anything unrecognized is treated as a note
		end = start.Add(noteDuration)
		colors = noteColors
		title = item.Title
		props.EventType = "NUTRITION"
		props.Note = item.Details
	}

	props.CalendarCategory = "Nutrition"

	return model.CalendarEvent{
		Title:           title,
		Start:           start,
		End:             end,
		BackgroundColor: colors.background,
		BorderColor:     colors.border,
		TextColor:       colors.text,
		ExtendedProps:   props,
	}
}

// timeOfDay resolves the item's wall-clock offset from midnight. Meals and
// notes carry Time; activities carry StartTime. Anything unparseable falls
// back to 08:00.
func timeOfDay(item model.ScheduleItem) time.Duration {
	raw := item.Time
	if item.Type == ItemActivity {
		raw = item.StartTime
	}
	if d, ok := parseClock(raw); ok {
		return d
	}
	d, _ := parseClock(defaultTimeOfDay)
	return d
}

// parseClock parses "HH:MM" into an offset from midnight.
func parseClock(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

// mealTitle builds the short calendar title for a meal: its code plus the
// calorie count when nutrition data is present, e.g. "BRK 450kcal".
func mealTitle(item model.ScheduleItem) string {
	code, ok := mealCodes[item.Title]
	if !ok {
		code = initials(item.Title)
	}
	if item.Nutrition != nil {
		return fmt.Sprintf("%s %dkcal", code, item.Nutrition.Calories)
	}
	return code
}

// initials uppercases the first rune of each word, e.g. "recovery shake"
// becomes "RS".
func initials(title string) string {
	var b strings.Builder
	for _, word := range strings.Fields(title) {
		r := []rune(word)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// mealPercent computes the meal's share of the day's calorie target, rounded
// to the nearest percent. Nil when either side is missing.
func mealPercent(item model.ScheduleItem, day model.DaySchedule) *int {
	if item.Nutrition == nil || day.Summary == nil {
		return nil
	}
	target := day.Summary.Calories.Target
	if target <= 0 {
		return nil
	}
	pct := int(math.Round(float64(item.Nutrition.Calories) / float64(target) * 100))
	return &pct
}
