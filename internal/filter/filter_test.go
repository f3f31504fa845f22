package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"readycal/internal/model"
	"readycal/internal/taxonomy"
)

func mkEvent(id, eventType, squad, location string, attendees ...string) model.CalendarEvent {
	return model.CalendarEvent{
		ID:    id,
		Title: id,
		Start: time.Date(2025, 9, 29, 8, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 9, 29, 9, 0, 0, 0, time.UTC),
		ExtendedProps: model.ExtendedProps{
			EventType: eventType,
			Squad:     squad,
			Location:  location,
			Attendees: attendees,
		},
	}
}

func ids(events []model.CalendarEvent) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ID)
	}
	return out
}

func TestApplyEmptySelectionIsIdentity(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("a", "TRAINING_SESSION", "Battalion 1", "Gym A"),
		mkEvent("b", "", "", ""),
		mkEvent("c", "MEDICAL_REHAB", "Battalion 2", "Clinic", "Cohen", "Levi"),
	}

	got := Apply(events, model.FilterSelection{})
	assert.Equal(t, events, got)
}

func TestApplyPermissiveOnMissingFields(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("no-squad", "TRAINING_SESSION", "", "Gym A"),
		mkEvent("squadded", "TRAINING_SESSION", "Battalion 2", "Gym A"),
	}

	got := Apply(events, model.FilterSelection{Squads: []string{"Battalion 1"}})

	// The event with no squad passes regardless of the squad selection;
	// the mismatching squadded event is excluded.
	assert.Equal(t, []string{"no-squad"}, ids(got))
}

func TestApplyTypeFacetExpandsCategories(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("training", "TRAINING_SESSION", "", ""),
		mkEvent("drill", "DRILL", "", ""),
		mkEvent("rehab", "MEDICAL_REHAB", "", ""),
		mkEvent("untyped", "", "", ""),
		mkEvent("raw", "ZULU_BRIEF", "", ""),
	}

	got := Apply(events, model.FilterSelection{Types: []string{taxonomy.CategoryTraining}})
	assert.Equal(t, []string{"training", "drill", "untyped"}, ids(got))

	// Passthrough raw tags are matched literally.
	got = Apply(events, model.FilterSelection{Types: []string{"ZULU_BRIEF"}})
	assert.Equal(t, []string{"untyped", "raw"}, ids(got))
}

func TestApplyAttendeeIntersection(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("both", "", "", "", "Cohen", "Levi"),
		mkEvent("other", "", "", "", "Mizrahi"),
		mkEvent("none", "", "", ""),
	}

	got := Apply(events, model.FilterSelection{Attendees: []string{"Levi", "Peretz"}})

	// "both" intersects the selection, "none" has no attendees at all and
	// passes, "other" is excluded.
	assert.Equal(t, []string{"both", "none"}, ids(got))
}

func TestApplyIsANDAcrossFacets(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("match", "TRAINING_SESSION", "Battalion 1", "Gym A"),
		mkEvent("wrong-location", "TRAINING_SESSION", "Battalion 1", "Clinic"),
		mkEvent("wrong-squad", "TRAINING_SESSION", "Battalion 2", "Gym A"),
	}

	got := Apply(events, model.FilterSelection{
		Squads:    []string{"Battalion 1"},
		Types:     []string{taxonomy.CategoryTraining},
		Locations: []string{"Gym A"},
	})
	assert.Equal(t, []string{"match"}, ids(got))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("a", "TRAINING_SESSION", "Battalion 1", "Gym A"),
	}
	_ = Apply(events, model.FilterSelection{Squads: []string{"Battalion 2"}})
	assert.Equal(t, "Battalion 1", events[0].ExtendedProps.Squad)
}

func TestDeriveOptions(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("a", "TRAINING_SESSION", "Battalion 2", "Gym A", "Cohen"),
		mkEvent("b", "NUTRITION", "Battalion 1", "", "Levi", "Cohen"),
		mkEvent("c", "ZULU_BRIEF", "", "Clinic"),
	}

	opts := DeriveOptions(events)

	assert.Equal(t, []string{"Battalion 1", "Battalion 2"}, opts.Squads)
	assert.Equal(t, []string{taxonomy.CategoryNutrition, taxonomy.CategoryTraining, "ZULU_BRIEF"}, opts.Types)
	assert.Equal(t, []string{"Clinic", "Gym A"}, opts.Locations)
	assert.Equal(t, []string{"Cohen", "Levi"}, opts.Attendees)
	assert.False(t, opts.IsEmpty())

	assert.True(t, DeriveOptions(nil).IsEmpty())
}
