// Package calendar owns the merged event list and every piece of page
// state derived from it: filter selection, available options, the current
// view/date cursor, and the tooltip state machine. All mutation goes
// through the Controller; readers get copies.
package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"readycal/internal/filter"
	appLog "readycal/internal/log"
	"readycal/internal/model"
	"readycal/internal/source"
	"readycal/internal/tooltip"
)

// View is the calendar display mode.
type View string

const (
	ViewMonth View = "dayGridMonth"
	ViewWeek  View = "timeGridWeek"
)

// NavAction moves the date cursor.
type NavAction string

const (
	NavPrev  NavAction = "prev"
	NavNext  NavAction = "next"
	NavToday NavAction = "today"
)

// CloseReason names the transition that dismissed the tooltip.
type CloseReason string

const (
	CloseEscape       CloseReason = "escape"
	CloseOutsideClick CloseReason = "outsideClick"
	CloseExplicit     CloseReason = "explicit"
	CloseNavigation   CloseReason = "navigation"
)

// TooltipState is the tooltip's current machine state: hidden, or shown for
// one event at a computed position.
type TooltipState struct {
	Visible  bool             `json:"visible"`
	EventID  string           `json:"eventId,omitempty"`
	Position tooltip.Position `json:"position"`
}

// ClickAction is what a click on an event resolves to.
type ClickAction string

const (
	// ActionShowTooltip displays the detail tooltip at the computed position.
	ActionShowTooltip ClickAction = "showTooltip"
	// ActionOpenURL opens the event's URL in a new tab (modifier click).
	ActionOpenURL ClickAction = "openURL"
	// ActionOpenDailyPlan navigates to the per-soldier daily nutrition plan.
	ActionOpenDailyPlan ClickAction = "openDailyPlan"
)

// ClickResult tells the caller how to react to an event click.
type ClickResult struct {
	Action  ClickAction          `json:"action"`
	URL     string               `json:"url,omitempty"`
	PlanRef string               `json:"planRef,omitempty"`
	Event   *model.CalendarEvent `json:"event,omitempty"`
	Tooltip *TooltipState        `json:"tooltip,omitempty"`
}

// Gray defaults applied to duplicated events missing colors.
const (
	grayBackground = "#9e9e9e"
	grayBorder     = "#757575"
	grayText       = "#ffffff"
)

// Controller orchestrates the pipeline for one calendar page. It loads and
// merges all sources exactly once, re-derives options whenever the merged
// set changes, and serializes every state change behind one mutex.
type Controller struct {
	mu sync.RWMutex

	loader    *source.Loader
	soldierID int

	loaded bool
	events []model.CalendarEvent // merged list; all CRUD goes through here
	manual []model.CalendarEvent // API-added events, re-applied after refresh

	options       filter.Options
	selection     model.FilterSelection
	selectionInit bool

	view        View
	currentDate time.Time

	tooltip TooltipState
}

// New creates a Controller. soldierID identifies whose daily plan a
// Nutrition-event click navigates to.
func New(loader *source.Loader, soldierID int) *Controller {
	return &Controller{
		loader:      loader,
		soldierID:   soldierID,
		events:      []model.CalendarEvent{},
		manual:      []model.CalendarEvent{},
		view:        ViewMonth,
		currentDate: time.Now().UTC(),
	}
}

// Load performs the one-time initial merge. Calling it again is a no-op.
// A source failure degrades to an empty calendar (logged), never an error
// surfaced to the caller.
func (c *Controller) Load(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return
	}
	c.loaded = true

	c.rebuildLocked(ctx)
}

// Refresh re-runs source loading and re-applies manually added events.
// Deterministic transformer ids make this safe: regenerated events replace
// their previous copies wholesale instead of accumulating.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return
	}
	c.rebuildLocked(ctx)
}

func (c *Controller) rebuildLocked(ctx context.Context) {
	merged, err := c.loader.Load(ctx)
	if err != nil {
		// No partial-merge recovery: reset to empty and log.
		appLog.Error("event source load failed; showing empty calendar", err)
		merged = []model.CalendarEvent{}
	}

	c.events = append(merged, c.manual...)
	c.recomputeOptionsLocked()
}

// recomputeOptionsLocked re-derives available options and, the first time
// options become non-empty, initializes the selection to everything
// selected. It never overwrites a user's selection afterwards.
func (c *Controller) recomputeOptionsLocked() {
	c.options = filter.DeriveOptions(c.events)

	if !c.selectionInit && !c.options.IsEmpty() {
		c.selection = model.FilterSelection{
			Squads:    append([]string(nil), c.options.Squads...),
			Types:     append([]string(nil), c.options.Types...),
			Locations: append([]string(nil), c.options.Locations...),
			Attendees: append([]string(nil), c.options.Attendees...),
		}
		c.selectionInit = true
	}
}

// Events returns a copy of the full merged list.
func (c *Controller) Events() []model.CalendarEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.CalendarEvent(nil), c.events...)
}

// FilteredEvents applies the current selection to the merged list.
func (c *Controller) FilteredEvents() []model.CalendarEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filter.Apply(c.events, c.selection)
}

// Options returns the facet values available in the merged set.
func (c *Controller) Options() filter.Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.options
}

// Selection returns the current filter selection.
func (c *Controller) Selection() model.FilterSelection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selection
}

// SetSelection replaces the filter selection. Manual changes stick: the
// initialize-once flag is set so a later refresh never overwrites them.
func (c *Controller) SetSelection(sel model.FilterSelection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = sel
	c.selectionInit = true
}

// AddEvent appends an event to the merged list. An empty id gets a
// generated one. The event is also remembered so refreshes keep it.
func (c *Controller) AddEvent(ev model.CalendarEvent) model.CalendarEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	c.events = append(c.events, ev)
	c.manual = append(c.manual, ev)
	c.recomputeOptionsLocked()
	return ev
}

// UpdateEvent replaces the event with the same id. Returns false when no
// such event exists.
func (c *Controller) UpdateEvent(ev model.CalendarEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	for i := range c.events {
		if c.events[i].ID == ev.ID {
			c.events[i] = ev
			found = true
		}
	}
	if !found {
		return false
	}
	for i := range c.manual {
		if c.manual[i].ID == ev.ID {
			c.manual[i] = ev
		}
	}
	c.recomputeOptionsLocked()
	return true
}

// DeleteEvent removes the event with the given id (the confirmation step
// lives in the caller). Returns false when no such event exists.
func (c *Controller) DeleteEvent(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.events[:0]
	found := false
	for _, ev := range c.events {
		if ev.ID == id {
			found = true
			continue
		}
		kept = append(kept, ev)
	}
	c.events = kept

	keptManual := c.manual[:0]
	for _, ev := range c.manual {
		if ev.ID != id {
			keptManual = append(keptManual, ev)
		}
	}
	c.manual = keptManual

	if found {
		if c.tooltip.Visible && c.tooltip.EventID == id {
			c.tooltip = TooltipState{}
		}
		c.recomputeOptionsLocked()
	}
	return found
}

// DuplicateEvent clones an event with a fresh id and start/end shifted
// forward by exactly seven days. Missing colors default to neutral gray so
// the clone is visible on any background.
func (c *Controller) DuplicateEvent(id string) (model.CalendarEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ev := range c.events {
		if ev.ID != id {
			continue
		}

		clone := ev
		clone.ID = uuid.NewString()
		clone.Start = ev.Start.AddDate(0, 0, 7)
		clone.End = ev.End.AddDate(0, 0, 7)
		if clone.BackgroundColor == "" {
			clone.BackgroundColor = grayBackground
		}
		if clone.BorderColor == "" {
			clone.BorderColor = grayBorder
		}
		if clone.TextColor == "" {
			clone.TextColor = grayText
		}
		if len(ev.ExtendedProps.Attendees) > 0 {
			clone.ExtendedProps.Attendees = append([]string(nil), ev.ExtendedProps.Attendees...)
		}

		c.events = append(c.events, clone)
		c.manual = append(c.manual, clone)
		c.recomputeOptionsLocked()
		return clone, true
	}

	return model.CalendarEvent{}, false
}

// CurrentView returns the active display mode.
func (c *Controller) CurrentView() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// SetView switches between month and week display modes.
func (c *Controller) SetView(v View) error {
	switch v {
	case ViewMonth, ViewWeek:
	default:
		return fmt.Errorf("unknown view %q", v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
	return nil
}

// CurrentDate returns the navigation cursor.
func (c *Controller) CurrentDate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentDate
}

// SetDate moves the navigation cursor to an explicit date.
func (c *Controller) SetDate(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentDate = t
}

// Navigate steps the cursor by one view unit (month or week) or jumps to
// today. Navigation also dismisses an open tooltip.
func (c *Controller) Navigate(action NavAction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := 0
	switch action {
	case NavPrev:
		step = -1
	case NavNext:
		step = 1
	case NavToday:
		c.currentDate = time.Now().UTC()
		c.closeTooltipLocked(CloseNavigation)
		return nil
	default:
		return fmt.Errorf("unknown navigation action %q", action)
	}

	if c.view == ViewWeek {
		c.currentDate = c.currentDate.AddDate(0, 0, 7*step)
	} else {
		c.currentDate = c.currentDate.AddDate(0, step, 0)
	}
	c.closeTooltipLocked(CloseNavigation)
	return nil
}

// Click routes a click on an event:
//
//   - modifier (Cmd/Ctrl) click on an event carrying a URL opens the URL
//     and bypasses the tooltip entirely;
//   - a click on a Nutrition-category event navigates straight to the
//     soldier's daily plan for that date;
//   - anything else shows the tooltip at a viewport-aware position.
func (c *Controller) Click(eventID string, modifier bool, anchor tooltip.Rect, size tooltip.Size, vp tooltip.Viewport) (ClickResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ev *model.CalendarEvent
	for i := range c.events {
		if c.events[i].ID == eventID {
			ev = &c.events[i]
			break
		}
	}
	if ev == nil {
		return ClickResult{}, fmt.Errorf("unknown event %q", eventID)
	}

	if modifier && ev.URL != "" {
		return ClickResult{Action: ActionOpenURL, URL: ev.URL}, nil
	}

	if ev.ExtendedProps.CalendarCategory == "Nutrition" {
		ref := fmt.Sprintf("/soldiers/%d/daily-plan/%s", c.soldierID, ev.Start.Format("2006-01-02"))
		return ClickResult{Action: ActionOpenDailyPlan, PlanRef: ref}, nil
	}

	c.tooltip = TooltipState{
		Visible:  true,
		EventID:  ev.ID,
		Position: tooltip.Compute(anchor, size, vp),
	}

	evCopy := *ev
	state := c.tooltip
	return ClickResult{
		Action:  ActionShowTooltip,
		Event:   &evCopy,
		Tooltip: &state,
	}, nil
}

// Reposition recomputes the shown tooltip's position, e.g. after its
// content (and therefore measured size) changed. No-op while hidden.
func (c *Controller) Reposition(anchor tooltip.Rect, size tooltip.Size, vp tooltip.Viewport) TooltipState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tooltip.Visible {
		c.tooltip.Position = tooltip.Compute(anchor, size, vp)
	}
	return c.tooltip
}

// CloseTooltip transitions the tooltip to hidden. All dismissal triggers
// (escape, outside click, explicit close, navigation) funnel through here.
func (c *Controller) CloseTooltip(reason CloseReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeTooltipLocked(reason)
}

func (c *Controller) closeTooltipLocked(reason CloseReason) {
	if !c.tooltip.Visible {
		return
	}
	appLog.Debug("tooltip closed", "reason", string(reason), "event_id", c.tooltip.EventID)
	c.tooltip = TooltipState{}
}

// Tooltip returns the current tooltip state.
func (c *Controller) Tooltip() TooltipState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tooltip
}
