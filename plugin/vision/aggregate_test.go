package vision

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, obs Observation) string {
	t.Helper()
	raw, err := json.Marshal(obs)
	require.NoError(t, err)
	return string(raw)
}

func TestAggregate(t *testing.T) {
	t.Run("most common value wins per category", func(t *testing.T) {
		samples := []string{
			encode(t, Observation{Posture: "Upright", Expressions: "Composed", Distractions: "None"}),
			encode(t, Observation{Posture: "Upright", Expressions: "Tense", Distractions: "None"}),
			encode(t, Observation{Posture: "Slouched", Expressions: "Composed", Distractions: "Phone visible"}),
		}
		result := Aggregate(samples)
		assert.Equal(t, "Upright", result.Posture)
		assert.Equal(t, "Composed", result.Expressions)
		assert.Equal(t, "None", result.Distractions)
	})

	t.Run("generic markers are skipped", func(t *testing.T) {
		samples := []string{
			encode(t, Observation{Posture: "not fully clear", Expressions: "No feedback available"}),
			encode(t, Observation{Posture: "Upright"}),
		}
		result := Aggregate(samples)
		assert.Equal(t, "Upright", result.Posture)
		assert.Equal(t, NoFeedback, result.Expressions)
	})

	t.Run("unparseable samples are ignored", func(t *testing.T) {
		samples := []string{
			"not json at all",
			encode(t, Observation{Posture: "Upright"}),
		}
		result := Aggregate(samples)
		assert.Equal(t, "Upright", result.Posture)
	})

	t.Run("empty input degrades everywhere", func(t *testing.T) {
		result := Aggregate(nil)
		assert.Equal(t, NoFeedback, result.Posture)
		assert.Equal(t, NoFeedback, result.Expressions)
		assert.Equal(t, NoFeedback, result.Distractions)
	})
}

func TestEncodeObservationRoundTrip(t *testing.T) {
	obs := Observation{Posture: "Upright", Expressions: "Composed", Distractions: "None"}
	raw, err := EncodeObservation(&obs)
	require.NoError(t, err)

	result := Aggregate([]string{raw})
	assert.Equal(t, obs, result)
}
