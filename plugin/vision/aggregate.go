package vision

import (
	"encoding/json"
	"strings"
)

// genericMarkers disqualify an observation from the aggregate: they carry no
// information a report reader can act on.
var genericMarkers = []string{
	"no feedback",
	"not fully clear",
}

// Aggregate folds per-frame observations into one observation per category,
// picking the most frequent non-generic value. Categories with nothing
// usable degrade to NoFeedback. Raw entries are the JSON-encoded per-frame
// observations stored on the session.
func Aggregate(rawSamples []string) Observation {
	postures := map[string]int{}
	expressions := map[string]int{}
	distractions := map[string]int{}

	for _, raw := range rawSamples {
		var obs Observation
		if err := json.Unmarshal([]byte(raw), &obs); err != nil {
			continue
		}
		countIfUsable(postures, obs.Posture)
		countIfUsable(expressions, obs.Expressions)
		countIfUsable(distractions, obs.Distractions)
	}

	return Observation{
		Posture:      mostCommon(postures),
		Expressions:  mostCommon(expressions),
		Distractions: mostCommon(distractions),
	}
}

// EncodeObservation renders an observation in the form Aggregate consumes.
func EncodeObservation(obs *Observation) (string, error) {
	raw, err := json.Marshal(obs)
	return string(raw), err
}

func countIfUsable(counts map[string]int, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	lower := strings.ToLower(value)
	for _, marker := range genericMarkers {
		if strings.Contains(lower, marker) {
			return
		}
	}
	counts[value]++
}

func mostCommon(counts map[string]int) string {
	best := NoFeedback
	bestCount := 0
	for value, count := range counts {
		if count > bestCount || (count == bestCount && bestCount > 0 && value < best) {
			best = value
			bestCount = count
		}
	}
	return best
}
