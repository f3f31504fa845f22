// Package taxonomy groups fine-grained event-type tags into the small set of
// display categories the filter UI exposes, and expands selected display
// categories back into concrete tag sets for filtering. Both directions live
// here so the sidebar and the calendar controller share one mapping.
package taxonomy

import "sort"

// Display category names. Tags outside the map pass through verbatim as
// their own pseudo-category.
const (
	CategoryPhysical      = "Physical"
	CategoryMedical       = "Medical"
	CategoryNutrition     = "Nutrition"
	CategoryPsychological = "Psychological"
	CategorySleep         = "Sleep"
	CategoryAppointments  = "Appointments"
	CategoryTraining      = "Training"
)

// categoryOrder fixes the order display categories appear in Unify output.
var categoryOrder = []string{
	CategoryPhysical,
	CategoryMedical,
	CategoryNutrition,
	CategoryPsychological,
	CategorySleep,
	CategoryAppointments,
	CategoryTraining,
}

// categoryTags maps each display category to its member tags. This is
// configuration data; adding a tag here is enough to route it into a
// category everywhere (sidebar options and filtering both derive from it).
var categoryTags = map[string][]string{
	CategoryPhysical: {
		"PHYSICAL_TRAINING",
		"STRENGTH_SESSION",
		"CONDITIONING",
		"FITNESS_TEST",
	},
	CategoryMedical: {
		"MEDICAL_CHECKUP",
		"MEDICAL_REHAB",
		"PHYSIOTHERAPY",
		"VACCINATION",
	},
	CategoryNutrition: {
		"NUTRITION",
		"MEAL_PLAN",
		"DIET_CONSULT",
	},
	CategoryPsychological: {
		"PSYCHOLOGICAL_SESSION",
		"COUNSELING",
		"STRESS_ASSESSMENT",
	},
	CategorySleep: {
		"SLEEP_LOG",
		"SLEEP_STUDY",
	},
	CategoryAppointments: {
		"APPOINTMENT",
		"BRIEFING",
		"ADMIN_MEETING",
	},
	CategoryTraining: {
		"TRAINING_SESSION",
		"FIELD_EXERCISE",
		"DRILL",
		"RANGE_DAY",
	},
}

// tagToCategory is the inverse index, built once at init.
var tagToCategory = func() map[string]string {
	m := make(map[string]string)
	for cat, tags := range categoryTags {
		for _, tag := range tags {
			m[tag] = cat
		}
	}
	return m
}()

// CategoryOf returns the display category a tag belongs to, or "" if the tag
// is not covered by the map.
func CategoryOf(tag string) string {
	return tagToCategory[tag]
}

// Unify reduces the set of available fine-grained tags to display
// categories. A category is included only when at least one of its member
// tags is available. Tags covered by no category surface verbatim as their
// own pseudo-category, sorted, after the known categories.
func Unify(availableTags map[string]bool) []string {
	out := make([]string, 0, len(categoryOrder))

	for _, cat := range categoryOrder {
		for _, tag := range categoryTags[cat] {
			if availableTags[tag] {
				out = append(out, cat)
				break
			}
		}
	}

	var leftovers []string
	for tag, ok := range availableTags {
		if !ok {
			continue
		}
		if _, covered := tagToCategory[tag]; !covered {
			leftovers = append(leftovers, tag)
		}
	}
	sort.Strings(leftovers)

	return append(out, leftovers...)
}

// Expand converts selected display names back into the concrete tag set to
// filter with. Known categories contribute all their member tags; anything
// else is a passthrough raw tag and contributes itself.
func Expand(selected []string) map[string]bool {
	out := make(map[string]bool)
	for _, name := range selected {
		if tags, ok := categoryTags[name]; ok {
			for _, tag := range tags {
				out[tag] = true
			}
			continue
		}
		out[name] = true
	}
	return out
}
