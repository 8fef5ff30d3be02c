package interview

import (
	"regexp"
	"strings"
)

// Model-produced questions arrive with markdown leftovers: bold markers,
// bullet prefixes, "Question N:" labels, stray header lines. SanitizeQuestion
// strips all of it. The function is idempotent: sanitizing a sanitized
// question returns it unchanged, which the re-serve path relies on.

var (
	headerOnlyLineRe = regexp.MustCompile(`(?i)^\s*(?:\*\*)?\s*question\s*\d*\s*[:.\-]?\s*(?:\*\*)?\s*$`)
	inlineLabelRe    = regexp.MustCompile(`(?i)(?:\*\*)?\s*question\s*\d+\s*[:.\-]\s*(?:\*\*)?`)
	boldRe           = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	leadingJunkRe    = regexp.MustCompile(`^[\s*\-•>#]+`)
	trailingJunkRe   = regexp.MustCompile(`[\s*\-•]+$`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// SanitizeQuestion normalizes one question for display and speech.
func SanitizeQuestion(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")

	// Drop lines that are nothing but a question header.
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if headerOnlyLineRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	text = strings.Join(kept, " ")

	text = inlineLabelRe.ReplaceAllString(text, " ")
	text = boldRe.ReplaceAllString(text, "$1")
	text = leadingJunkRe.ReplaceAllString(text, "")
	text = trailingJunkRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// fallbackQuestions pads a generated set that came back short after
// sanitization and deduplication. Order is fixed so padding is deterministic.
var fallbackQuestions = []string{
	"Tell us about yourself.",
	"What programming languages do you know?",
	"Explain a basic project you've worked on.",
	"Describe a challenge you faced and how you resolved it.",
	"Where do you see yourself improving technically?",
}

// buildQuestionSet sanitizes, deduplicates and pads raw questions to exactly
// count entries.
func buildQuestionSet(raw []string, count int) []string {
	seen := map[string]bool{}
	result := make([]string, 0, count)

	for _, q := range raw {
		clean := SanitizeQuestion(q)
		if clean == "" || seen[clean] {
			continue
		}
		seen[clean] = true
		result = append(result, clean)
		if len(result) == count {
			return result
		}
	}

	for _, q := range fallbackQuestions {
		if len(result) == count {
			break
		}
		if seen[q] {
			continue
		}
		seen[q] = true
		result = append(result, q)
	}

	return result
}
