package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tagSet(tags ...string) map[string]bool {
	out := make(map[string]bool, len(tags))
	for _, t := range tags {
		out[t] = true
	}
	return out
}

func TestUnify(t *testing.T) {
	t.Run("covered tags collapse to their categories", func(t *testing.T) {
		got := Unify(tagSet("TRAINING_SESSION", "NUTRITION"))
		assert.Equal(t, []string{CategoryNutrition, CategoryTraining}, got)
	})

	t.Run("category appears once even with multiple member tags", func(t *testing.T) {
		got := Unify(tagSet("TRAINING_SESSION", "FIELD_EXERCISE", "DRILL"))
		assert.Equal(t, []string{CategoryTraining}, got)
	})

	t.Run("uncovered tags pass through verbatim after categories", func(t *testing.T) {
		got := Unify(tagSet("MEDICAL_REHAB", "ZULU_BRIEF", "ALPHA_CHECK"))
		assert.Equal(t, []string{CategoryMedical, "ALPHA_CHECK", "ZULU_BRIEF"}, got)
	})

	t.Run("empty input yields no categories", func(t *testing.T) {
		assert.Empty(t, Unify(nil))
	})
}

func TestExpand(t *testing.T) {
	t.Run("known category expands to all member tags", func(t *testing.T) {
		got := Expand([]string{CategorySleep})
		assert.Equal(t, tagSet("SLEEP_LOG", "SLEEP_STUDY"), got)
	})

	t.Run("unknown name is a passthrough raw tag", func(t *testing.T) {
		got := Expand([]string{"ZULU_BRIEF"})
		assert.Equal(t, tagSet("ZULU_BRIEF"), got)
	})

	t.Run("mixed selection", func(t *testing.T) {
		got := Expand([]string{CategorySleep, "ZULU_BRIEF"})
		assert.True(t, got["SLEEP_LOG"])
		assert.True(t, got["SLEEP_STUDY"])
		assert.True(t, got["ZULU_BRIEF"])
		assert.Len(t, got, 3)
	})
}

// Re-unifying the expansion of a unified set must reproduce the original
// display categories, for any input drawn from the taxonomy's known tags.
func TestUnifyExpandRoundTrip(t *testing.T) {
	inputs := []map[string]bool{
		tagSet("TRAINING_SESSION"),
		tagSet("TRAINING_SESSION", "NUTRITION"),
		tagSet("MEDICAL_REHAB", "SLEEP_LOG", "COUNSELING"),
		tagSet("PHYSICAL_TRAINING", "FITNESS_TEST", "APPOINTMENT", "DRILL"),
	}

	for _, s := range inputs {
		unified := Unify(s)
		again := Unify(Expand(unified))
		assert.Equal(t, unified, again)
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryTraining, CategoryOf("TRAINING_SESSION"))
	assert.Equal(t, CategoryMedical, CategoryOf("VACCINATION"))
	assert.Equal(t, "", CategoryOf("NOT_A_TAG"))
}
