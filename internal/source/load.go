package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"readycal/internal/config"
	"readycal/internal/ics"
	appLog "readycal/internal/log"
	"readycal/internal/model"
	"readycal/internal/nutrition"
)

// Loader resolves the configured collections into one merged, normalized
// event list. JSON collection failures are treated as a whole-load failure
// (the caller resets to an empty set); nutrition weeks that unmarshal but
// are structurally malformed degrade to zero events with a warning; ICS
// feeds are best-effort and skipped individually on error.
type Loader struct {
	cfg     *config.Config
	fetcher *Fetcher
}

// NewLoader creates a Loader using the given cache directory for remote
// source bodies.
func NewLoader(cfg *config.Config, cacheDir string) *Loader {
	return &Loader{
		cfg:     cfg,
		fetcher: NewFetcher(cacheDir),
	}
}

// Load fetches, normalizes and merges all configured sources in the fixed
// order base → nutrition → category → extra, with ICS feed occurrences
// joining the base group.
func (l *Loader) Load(ctx context.Context) ([]model.CalendarEvent, error) {
	base, err := l.loadEvents(ctx, KindBase, l.cfg.Sources.BaseEvents)
	if err != nil {
		return nil, err
	}

	icsEvents := l.loadICSFeeds(ctx)
	base = append(base, icsEvents...)

	nutritionEvents, err := l.loadNutrition(ctx)
	if err != nil {
		return nil, err
	}

	category, err := l.loadEvents(ctx, KindCategory, l.cfg.Sources.CategoryEvents)
	if err != nil {
		return nil, err
	}

	extra, err := l.loadEvents(ctx, KindExtra, l.cfg.Sources.ExtraEvents)
	if err != nil {
		return nil, err
	}

	merged := Merge(base, nutritionEvents, category, extra)

	appLog.Info("sources loaded",
		"base", len(base),
		"nutrition", len(nutritionEvents),
		"category", len(category),
		"extra", len(extra),
		"merged", len(merged),
	)

	return merged, nil
}

// loadEvents fetches one JSON collection and normalizes it. A missing
// location yields an empty group, not an error.
func (l *Loader) loadEvents(ctx context.Context, kind Kind, location string) ([]model.CalendarEvent, error) {
	if location == "" {
		return []model.CalendarEvent{}, nil
	}

	body, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("load %s events: %w", kind, err)
	}

	var events []model.CalendarEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode %s events: %w", kind, err)
	}

	return Normalize(kind, events), nil
}

// loadNutrition fetches the weekly nutrition schedule and expands it into
// events. A schedule that decodes but lacks the week map is handled inside
// the transformer (warning + empty result).
func (l *Loader) loadNutrition(ctx context.Context) ([]model.CalendarEvent, error) {
	location := l.cfg.Sources.Nutrition
	if location == "" {
		return []model.CalendarEvent{}, nil
	}

	body, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("load nutrition schedule: %w", err)
	}

	var week model.NutritionWeek
	if err := json.Unmarshal(body, &week); err != nil {
		// Malformed schedule degrades to "no nutrition events shown".
		appLog.Warn("nutrition schedule did not decode; producing no events", "err", err)
		return []model.CalendarEvent{}, nil
	}

	baseMonday, err := time.Parse("2006-01-02", l.cfg.NutritionPlan.BaseMonday)
	if err != nil {
		appLog.Warn("nutrition plan base_monday invalid; producing no events",
			"base_monday", l.cfg.NutritionPlan.BaseMonday)
		return []model.CalendarEvent{}, nil
	}

	return nutrition.WeekToEvents(week, nutrition.Options{
		SoldierID:  l.cfg.NutritionPlan.SoldierID,
		BaseMonday: baseMonday,
		Weeks:      l.cfg.NutritionPlan.Weeks,
	}), nil
}

// loadICSFeeds fetches and expands every configured ICS feed. Individual
// feed failures are logged and skipped so one broken subscription does not
// empty the whole calendar.
func (l *Loader) loadICSFeeds(ctx context.Context) []model.CalendarEvent {
	if len(l.cfg.ICS) == 0 {
		return nil
	}

	loc := time.UTC
	if l.cfg.Timezone != "" {
		if parsed, err := time.LoadLocation(l.cfg.Timezone); err == nil {
			loc = parsed
		}
	}

	now := time.Now().In(loc)
	expandCfg := ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      now.AddDate(0, 0, -7),
		RangeEnd:        now.AddDate(0, 0, l.cfg.HorizonDays),
	}

	out := make([]model.CalendarEvent, 0)

	for _, feedCfg := range l.cfg.ICS {
		if feedCfg.URL == "" {
			continue
		}
		id := feedCfg.ID
		if id == "" {
			if feedCfg.Name != "" {
				id = feedCfg.Name
			} else {
				id = feedCfg.URL
			}
		}

		body, err := l.fetcher.Fetch(ctx, feedCfg.URL)
		if err != nil {
			appLog.Error("ics feed fetch failed; skipping", err, "id", id)
			continue
		}

		events, err := ics.EventsFromICS(ics.Feed{ID: id, Name: feedCfg.Name}, body, expandCfg)
		if err != nil {
			appLog.Error("ics feed expand failed; skipping", err, "id", id)
			continue
		}
		out = append(out, events...)
	}

	return out
}
