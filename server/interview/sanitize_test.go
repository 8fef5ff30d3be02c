package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeQuestion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain question untouched",
			input:    "What is a goroutine?",
			expected: "What is a goroutine?",
		},
		{
			name:     "inline label stripped",
			input:    "Question 1: What is a goroutine?",
			expected: "What is a goroutine?",
		},
		{
			name:     "bold markers stripped",
			input:    "**What is a goroutine?**",
			expected: "What is a goroutine?",
		},
		{
			name:     "header line dropped",
			input:    "**Question 2:**\nExplain channels in Go.",
			expected: "Explain channels in Go.",
		},
		{
			name:     "bullet prefix stripped",
			input:    "- Explain channels in Go.",
			expected: "Explain channels in Go.",
		},
		{
			name:     "nbsp and whitespace collapsed",
			input:    "What is   a\n goroutine?",
			expected: "What is a goroutine?",
		},
		{
			name:     "empty after cleanup",
			input:    "**Question 3:**",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeQuestion(tt.input))
		})
	}
}

func TestSanitizeQuestionIdempotent(t *testing.T) {
	inputs := []string{
		"Question 1: **Tell us about yourself.**",
		"- What programming languages do you know?",
		"Explain a basic project you've worked on.",
	}
	for _, input := range inputs {
		once := SanitizeQuestion(input)
		assert.Equal(t, once, SanitizeQuestion(once), "input: %q", input)
	}
}

func TestBuildQuestionSet(t *testing.T) {
	t.Run("five clean questions pass through", func(t *testing.T) {
		raw := []string{"A?", "B?", "C?", "D?", "E?"}
		assert.Equal(t, raw, buildQuestionSet(raw, 5))
	})

	t.Run("duplicates removed and padded from fallback", func(t *testing.T) {
		raw := []string{"A?", "A?", "Question 1: A?", "B?"}
		result := buildQuestionSet(raw, 5)
		assert.Len(t, result, 5)
		assert.Equal(t, "A?", result[0])
		assert.Equal(t, "B?", result[1])
		assert.Equal(t, fallbackQuestions[0], result[2])
	})

	t.Run("excess questions truncated", func(t *testing.T) {
		raw := []string{"A?", "B?", "C?", "D?", "E?", "F?", "G?"}
		result := buildQuestionSet(raw, 5)
		assert.Len(t, result, 5)
		assert.NotContains(t, result, "F?")
	})

	t.Run("empty input yields the fallback set", func(t *testing.T) {
		assert.Equal(t, fallbackQuestions, buildQuestionSet(nil, 5))
	})

	t.Run("fallback entries never duplicated", func(t *testing.T) {
		raw := []string{fallbackQuestions[0], fallbackQuestions[1]}
		result := buildQuestionSet(raw, 5)
		assert.Len(t, result, 5)
		seen := map[string]bool{}
		for _, q := range result {
			assert.False(t, seen[q], "duplicate question %q", q)
			seen[q] = true
		}
	})
}
