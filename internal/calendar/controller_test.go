package calendar

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readycal/internal/config"
	"readycal/internal/model"
	"readycal/internal/source"
	"readycal/internal/tooltip"
)

const testBaseEvents = `[
  {
    "id": "evt-1",
    "title": "Range Day",
    "start": "2025-09-29T09:00:00Z",
    "end": "2025-09-29T12:00:00Z",
    "extendedProps": {
      "eventType": "RANGE_DAY",
      "squad": "Battalion 1",
      "location": "Range 3",
      "attendees": ["Cohen"]
    }
  },
  {
    "id": "evt-2",
    "title": "Checkup",
    "start": "2025-09-30T10:00:00Z",
    "end": "2025-09-30T10:30:00Z",
    "extendedProps": {
      "eventType": "MEDICAL_CHECKUP",
      "squad": "Battalion 2",
      "location": "Clinic"
    }
  }
]`

const testNutrition = `{
  "week": {
    "monday": {
      "summary": {"calories": {"consumed": 0, "target": 2800, "unit": "kcal"}},
      "schedule": [
        {"type": "meal", "title": "Breakfast", "time": "08:00", "nutrition": {"calories": 450}}
      ]
    }
  }
}`

func newTestController(t *testing.T) *Controller {
	t.Helper()

	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.json")
	require.NoError(t, os.WriteFile(basePath, []byte(testBaseEvents), 0o600))
	nutritionPath := filepath.Join(dir, "nutrition.json")
	require.NoError(t, os.WriteFile(nutritionPath, []byte(testNutrition), 0o600))

	cfg := &config.Config{
		Sources: config.SourcesConfig{
			BaseEvents: basePath,
			Nutrition:  nutritionPath,
		},
		NutritionPlan: config.NutritionPlanConfig{
			SoldierID:  9,
			BaseMonday: "2025-09-29",
			Weeks:      1,
		},
	}
	cfg.Normalize()

	c := New(source.NewLoader(cfg, t.TempDir()), 9)
	c.Load(context.Background())
	return c
}

func TestLoadMergesOnceAndInitializesSelection(t *testing.T) {
	c := newTestController(t)

	require.Len(t, c.Events(), 3)

	// Selection starts as "everything selected".
	sel := c.Selection()
	assert.Equal(t, []string{"Battalion 1", "Battalion 2"}, sel.Squads)
	assert.Equal(t, []string{"Medical", "Nutrition", "Training"}, sel.Types)
	assert.Equal(t, []string{"Clinic", "Range 3"}, sel.Locations)
	assert.Equal(t, []string{"Cohen"}, sel.Attendees)

	// A second Load is a no-op, not a re-merge.
	c.Load(context.Background())
	assert.Len(t, c.Events(), 3)
}

func TestLoadFailureDegradesToEmptyCalendar(t *testing.T) {
	cfg := &config.Config{
		Sources: config.SourcesConfig{
			BaseEvents: filepath.Join(t.TempDir(), "missing.json"),
		},
	}
	cfg.Normalize()

	c := New(source.NewLoader(cfg, t.TempDir()), 1)
	c.Load(context.Background())

	assert.Empty(t, c.Events())
	assert.True(t, c.Options().IsEmpty())
}

func TestFilteredEventsFollowSelection(t *testing.T) {
	c := newTestController(t)

	c.SetSelection(model.FilterSelection{Squads: []string{"Battalion 2"}})
	got := c.FilteredEvents()

	// evt-2 matches; the nutrition event has no squad and passes.
	require.Len(t, got, 2)
	assert.Equal(t, "evt-2", got[0].ID)
	assert.Equal(t, "nutrition-9-w0-monday-0", got[1].ID)
}

func TestRefreshKeepsManualSelectionAndEvents(t *testing.T) {
	c := newTestController(t)

	manual := model.FilterSelection{Squads: []string{"Battalion 1"}}
	c.SetSelection(manual)

	added := c.AddEvent(model.CalendarEvent{
		Title: "Ad-hoc debrief",
		Start: time.Date(2025, 10, 2, 15, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 10, 2, 16, 0, 0, 0, time.UTC),
	})
	require.NotEmpty(t, added.ID)

	c.Refresh(context.Background())

	// Source events are rebuilt, the manual addition survives, and the
	// user's selection is not overwritten.
	assert.Len(t, c.Events(), 4)
	assert.Equal(t, manual.Squads, c.Selection().Squads)

	found := false
	for _, ev := range c.Events() {
		if ev.ID == added.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestUpdateAndDeleteEvents(t *testing.T) {
	c := newTestController(t)

	ev := c.Events()[0]
	ev.Title = "Range Day (moved)"
	require.True(t, c.UpdateEvent(ev))
	assert.Equal(t, "Range Day (moved)", c.Events()[0].Title)

	assert.False(t, c.UpdateEvent(model.CalendarEvent{ID: "nope"}))

	require.True(t, c.DeleteEvent("evt-1"))
	assert.Len(t, c.Events(), 2)
	assert.False(t, c.DeleteEvent("evt-1"))
}

func TestDuplicateEventShiftsOneWeek(t *testing.T) {
	c := newTestController(t)

	clone, ok := c.DuplicateEvent("evt-1")
	require.True(t, ok)

	assert.NotEqual(t, "evt-1", clone.ID)
	assert.Equal(t, time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC), clone.Start)
	assert.Equal(t, time.Date(2025, 10, 6, 12, 0, 0, 0, time.UTC), clone.End)

	// evt-1 carries no colors, so the clone gets the neutral defaults.
	assert.Equal(t, "#9e9e9e", clone.BackgroundColor)
	assert.Equal(t, "#757575", clone.BorderColor)
	assert.Equal(t, "#ffffff", clone.TextColor)

	assert.Len(t, c.Events(), 4)

	_, ok = c.DuplicateEvent("nope")
	assert.False(t, ok)
}

func TestViewAndNavigation(t *testing.T) {
	c := newTestController(t)

	assert.Equal(t, ViewMonth, c.CurrentView())
	assert.Error(t, c.SetView("listYear"))
	require.NoError(t, c.SetView(ViewWeek))

	c.SetDate(time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC))

	require.NoError(t, c.Navigate(NavNext))
	assert.Equal(t, time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC), c.CurrentDate())

	require.NoError(t, c.Navigate(NavPrev))
	assert.Equal(t, time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC), c.CurrentDate())

	require.NoError(t, c.SetView(ViewMonth))
	require.NoError(t, c.Navigate(NavNext))
	assert.Equal(t, time.Date(2025, 10, 29, 0, 0, 0, 0, time.UTC), c.CurrentDate())

	assert.Error(t, c.Navigate("sideways"))
}

var (
	testAnchor   = tooltip.Rect{Left: 100, Top: 80, Right: 200, Bottom: 100}
	testSize     = tooltip.Size{Width: 320, Height: 260}
	testViewport = tooltip.Viewport{Width: 1920, Height: 1080}
)

func TestClickShowsTooltip(t *testing.T) {
	c := newTestController(t)

	res, err := c.Click("evt-1", false, testAnchor, testSize, testViewport)
	require.NoError(t, err)

	assert.Equal(t, ActionShowTooltip, res.Action)
	require.NotNil(t, res.Event)
	assert.Equal(t, "evt-1", res.Event.ID)
	require.NotNil(t, res.Tooltip)
	assert.True(t, res.Tooltip.Visible)
	assert.Equal(t, 108.0, res.Tooltip.Position.Y)

	state := c.Tooltip()
	assert.True(t, state.Visible)
	assert.Equal(t, "evt-1", state.EventID)
}

func TestClickNutritionEventOpensDailyPlan(t *testing.T) {
	c := newTestController(t)

	res, err := c.Click("nutrition-9-w0-monday-0", false, testAnchor, testSize, testViewport)
	require.NoError(t, err)

	assert.Equal(t, ActionOpenDailyPlan, res.Action)
	assert.Equal(t, "/soldiers/9/daily-plan/2025-09-29", res.PlanRef)
	assert.False(t, c.Tooltip().Visible)
}

func TestModifierClickWithURLOpensIt(t *testing.T) {
	c := newTestController(t)

	added := c.AddEvent(model.CalendarEvent{
		Title: "External briefing",
		URL:   "https://example.com/briefing",
		Start: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC),
	})

	res, err := c.Click(added.ID, true, testAnchor, testSize, testViewport)
	require.NoError(t, err)
	assert.Equal(t, ActionOpenURL, res.Action)
	assert.Equal(t, "https://example.com/briefing", res.URL)
	assert.False(t, c.Tooltip().Visible)

	// Without the modifier the same event shows a tooltip.
	res, err = c.Click(added.ID, false, testAnchor, testSize, testViewport)
	require.NoError(t, err)
	assert.Equal(t, ActionShowTooltip, res.Action)
}

func TestTooltipDismissalTransitions(t *testing.T) {
	c := newTestController(t)

	for _, reason := range []CloseReason{CloseEscape, CloseOutsideClick, CloseExplicit} {
		_, err := c.Click("evt-1", false, testAnchor, testSize, testViewport)
		require.NoError(t, err)
		require.True(t, c.Tooltip().Visible)

		c.CloseTooltip(reason)
		assert.False(t, c.Tooltip().Visible)
	}

	// Navigation dismisses too.
	_, err := c.Click("evt-1", false, testAnchor, testSize, testViewport)
	require.NoError(t, err)
	require.NoError(t, c.Navigate(NavNext))
	assert.False(t, c.Tooltip().Visible)

	// Deleting the shown event hides its tooltip.
	_, err = c.Click("evt-1", false, testAnchor, testSize, testViewport)
	require.NoError(t, err)
	require.True(t, c.DeleteEvent("evt-1"))
	assert.False(t, c.Tooltip().Visible)
}

func TestRepositionRecomputesWhileShown(t *testing.T) {
	c := newTestController(t)

	// Hidden: reposition is a no-op.
	state := c.Reposition(testAnchor, testSize, testViewport)
	assert.False(t, state.Visible)

	_, err := c.Click("evt-1", false, testAnchor, testSize, testViewport)
	require.NoError(t, err)

	// Content grew; the taller tooltip fits neither below nor above and
	// clamps to 1080 - 1000 - 8.
	tall := tooltip.Size{Width: 320, Height: 1000}
	state = c.Reposition(testAnchor, tall, testViewport)
	assert.True(t, state.Visible)
	assert.Equal(t, 72.0, state.Position.Y)
}

func TestClickUnknownEvent(t *testing.T) {
	c := newTestController(t)
	_, err := c.Click("nope", false, testAnchor, testSize, testViewport)
	assert.Error(t, err)
}
