package ai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/voxhire/voxhire/store"
)

// Model output is unreliable: sometimes clean JSON, sometimes JSON inside a
// fenced block or prose, sometimes not JSON at all. parseRatings tries four
// layers in order of strictness before giving up.

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	braceRe      = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

	ratingFieldRes = map[string]*regexp.Regexp{
		"technical":       regexp.MustCompile(`"technical"\s*:\s*(\d+(?:\.\d+)?)`),
		"communication":   regexp.MustCompile(`"communication"\s*:\s*(\d+(?:\.\d+)?)`),
		"problem_solving": regexp.MustCompile(`"problem_solving"\s*:\s*(\d+(?:\.\d+)?)`),
		"time_management":      regexp.MustCompile(`"time_management"\s*:\s*(\d+(?:\.\d+)?)`),
		"overall":         regexp.MustCompile(`"overall"\s*:\s*(\d+(?:\.\d+)?)`),
	}
)

var requiredRatingKeys = []string{"technical", "communication", "problem_solving", "time_management", "overall"}

// parseRatings extracts a full rating tuple from raw model output.
func parseRatings(response string) (*store.Rating, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, errors.New("empty evaluation response")
	}

	// Layer 1: the whole response is a JSON object.
	if rating, ok := ratingFromJSON(response); ok {
		return rating, nil
	}

	// Layer 2: a fenced code block holds the object.
	if m := fencedJSONRe.FindStringSubmatch(response); m != nil {
		if rating, ok := ratingFromJSON(m[1]); ok {
			return rating, nil
		}
	}

	// Layer 3: any brace-balanced substring.
	for _, candidate := range braceRe.FindAllString(response, -1) {
		if rating, ok := ratingFromJSON(candidate); ok {
			return rating, nil
		}
	}

	// Layer 4: per-field regexes. All five must match.
	values := map[string]float64{}
	for key, re := range ratingFieldRes {
		m := re.FindStringSubmatch(response)
		if m == nil {
			return nil, errors.Errorf("could not extract ratings from response (%d chars)", len(response))
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad value for %s", key)
		}
		values[key] = v
	}
	return ratingFromMap(values)
}

func ratingFromJSON(raw string) (*store.Rating, bool) {
	var values map[string]float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, false
	}
	rating, err := ratingFromMap(values)
	if err != nil {
		return nil, false
	}
	return rating, true
}

func ratingFromMap(values map[string]float64) (*store.Rating, error) {
	for _, key := range requiredRatingKeys {
		if _, ok := values[key]; !ok {
			return nil, errors.Errorf("missing rating key: %s", key)
		}
	}

	normalizeScale(values)

	return &store.Rating{
		Technical:      values["technical"],
		Communication:  values["communication"],
		ProblemSolving: values["problem_solving"],
		TimeManagement: values["time_management"],
		Overall:        values["overall"],
	}, nil
}

// normalizeScale rescales tuples emitted on the wrong scale. A tuple capped
// at 1 is treated as 0-1, a tuple capped at 5 as 1-5; anything else is
// clamped into [1, 10] per value.
func normalizeScale(values map[string]float64) {
	maxVal := 0.0
	minVal := values[requiredRatingKeys[0]]
	for _, key := range requiredRatingKeys {
		if values[key] > maxVal {
			maxVal = values[key]
		}
		if values[key] < minVal {
			minVal = values[key]
		}
	}

	switch {
	case minVal >= 0 && maxVal <= 1.0:
		for _, key := range requiredRatingKeys {
			values[key] = values[key]*9 + 1
		}
	case minVal >= 1.0 && maxVal <= 5.0:
		for _, key := range requiredRatingKeys {
			values[key] = (values[key]-1)*(9.0/4.0) + 1
		}
	default:
		for _, key := range requiredRatingKeys {
			values[key] = clampRating(values[key])
		}
	}
}

func clampRating(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
