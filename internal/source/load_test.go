package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readycal/internal/config"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const baseEventsJSON = `[
  {
    "id": "evt-1",
    "title": "Company Briefing",
    "start": "2025-09-29T09:00:00Z",
    "end": "2025-09-29T10:00:00Z",
    "url": "https://example.com/briefing",
    "extendedProps": {
      "eventType": "BRIEFING",
      "squad": "Battalion 1",
      "location": "HQ",
      "attendees": ["Cohen", "Levi"]
    }
  }
]`

const categoryEventsJSON = `[
  {
    "id": "evt-2",
    "title": "Physio",
    "start": "2025-09-30T11:00:00Z",
    "end": "2025-09-30T11:45:00Z",
    "extendedProps": {
      "eventType": "PHYSIOTHERAPY"
    }
  }
]`

const nutritionJSON = `{
  "week": {
    "monday": {
      "summary": {
        "calories": {"consumed": 1800, "target": 2800, "unit": "kcal"},
        "protein": {"consumed": 120, "target": 160, "unit": "g"},
        "carbs": {"consumed": 200, "target": 320, "unit": "g"},
        "fats": {"consumed": 50, "target": 80, "unit": "g"}
      },
      "schedule": [
        {"type": "meal", "title": "Breakfast", "time": "08:00", "nutrition": {"calories": 450}}
      ]
    }
  }
}`

func loaderFor(t *testing.T, cfg *config.Config) *Loader {
	t.Helper()
	cfg.Normalize()
	return NewLoader(cfg, t.TempDir())
}

func TestLoaderMergesAllSources(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Sources: config.SourcesConfig{
			BaseEvents:     writeFixture(t, dir, "base.json", baseEventsJSON),
			CategoryEvents: writeFixture(t, dir, "category.json", categoryEventsJSON),
			Nutrition:      writeFixture(t, dir, "nutrition.json", nutritionJSON),
		},
		NutritionPlan: config.NutritionPlanConfig{
			SoldierID:  9,
			BaseMonday: "2025-09-29",
			Weeks:      1,
		},
	}

	merged, err := loaderFor(t, cfg).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, merged, 3)

	// Base first: url stripped, facets preserved.
	assert.Equal(t, "evt-1", merged[0].ID)
	assert.Empty(t, merged[0].URL)
	assert.Equal(t, "Battalion 1", merged[0].ExtendedProps.Squad)

	// Nutrition second: derived from the weekly schedule.
	assert.Equal(t, "nutrition-9-w0-monday-0", merged[1].ID)
	assert.Equal(t, "BRK 450kcal", merged[1].Title)

	// Category third: missing calendarCategory defaulted.
	assert.Equal(t, "evt-2", merged[2].ID)
	assert.Equal(t, "Uncategorized", merged[2].ExtendedProps.CalendarCategory)
}

func TestLoaderMissingLocationsYieldEmptyGroups(t *testing.T) {
	cfg := &config.Config{}
	merged, err := loaderFor(t, cfg).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestLoaderFailsOnUnreadableCollection(t *testing.T) {
	cfg := &config.Config{
		Sources: config.SourcesConfig{
			BaseEvents: filepath.Join(t.TempDir(), "missing.json"),
		},
	}
	_, err := loaderFor(t, cfg).Load(context.Background())
	assert.Error(t, err)
}

func TestLoaderMalformedNutritionDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Sources: config.SourcesConfig{
			Nutrition: writeFixture(t, dir, "nutrition.json", `{"weeks": "not-a-week"}`),
		},
		NutritionPlan: config.NutritionPlanConfig{
			SoldierID:  9,
			BaseMonday: "2025-09-29",
			Weeks:      1,
		},
	}

	merged, err := loaderFor(t, cfg).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, merged)
}
