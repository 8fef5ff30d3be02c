package ai

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// NormalizeDifficulty maps free-form difficulty labels onto the three levels
// the pipeline understands.
func NormalizeDifficulty(difficulty string) string {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "easy", "beginner":
		return "beginner"
	case "hard", "advanced":
		return "advanced"
	default:
		return "medium"
	}
}

// NormalizeLanguage maps free-form language labels onto english, hindi or
// bilingual.
func NormalizeLanguage(language string) string {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "hindi", "hi":
		return "hindi"
	case "bilingual", "hinglish", "english+hindi", "en+hi":
		return "bilingual"
	default:
		return "english"
	}
}

var (
	questionLineRe = regexp.MustCompile(`(?i)^\s*(?:\*\*)?question\s*\d+\s*[:.\-]\s*`)
	bulletLineRe   = regexp.MustCompile(`^\s*[-*•]\s+`)
	numberedLineRe = regexp.MustCompile(`^\s*\d+\s*[.)]\s*`)
)

// Generator produces the interview question set from a job description.
type Generator struct {
	provider ChatProvider
}

// NewGenerator creates a question generator.
func NewGenerator(provider ChatProvider) *Generator {
	return &Generator{provider: provider}
}

// Generate returns candidate questions for the JD at the given difficulty.
// The caller owns sanitization, deduplication and padding to the final count;
// this layer only needs to return a usable raw list. When the model is
// unreachable a difficulty-keyed static set is returned instead.
func (g *Generator) Generate(ctx context.Context, jdText, difficulty, language string) ([]string, error) {
	difficulty = NormalizeDifficulty(difficulty)
	language = NormalizeLanguage(language)

	response, err := g.provider.Chat(ctx, []Message{
		{Role: openai.ChatMessageRoleSystem, Content: questionSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: questionUserPrompt(jdText, difficulty, language)},
	})
	if err != nil {
		slog.Warn("question generation degraded to static set", "difficulty", difficulty, "error", err)
		return staticQuestions(difficulty), nil
	}

	questions := parseQuestions(response)
	if len(questions) == 0 {
		slog.Warn("question generation returned nothing parseable, using static set", "difficulty", difficulty)
		return staticQuestions(difficulty), nil
	}
	return questions, nil
}

const questionSystemPrompt = `You are an interviewer preparing a short screening round. ` +
	`Produce exactly 5 questions: 1 introduction question, 3 technical questions grounded in the job description, ` +
	`and 1 behavioral question. Write each on its own line in the form "Question N: <text>". No other output.`

func questionUserPrompt(jdText, difficulty, language string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Job description:\n%s\n\nDifficulty: %s.", jdText, difficulty)
	switch language {
	case "hindi":
		sb.WriteString(" Write the questions in Hindi.")
	case "bilingual":
		sb.WriteString(" Write the questions in simple English suitable for a Hindi-English bilingual candidate.")
	}
	return sb.String()
}

// parseQuestions pulls question lines out of model output, most structured
// format first: "Question N:" labels, then bullets, then bare lines.
func parseQuestions(response string) []string {
	lines := strings.Split(response, "\n")

	labeled := []string{}
	for _, line := range lines {
		if questionLineRe.MatchString(line) {
			labeled = append(labeled, questionLineRe.ReplaceAllString(line, ""))
		}
	}
	if len(labeled) >= 5 {
		return labeled
	}

	bullets := []string{}
	for _, line := range lines {
		if bulletLineRe.MatchString(line) || numberedLineRe.MatchString(line) {
			text := bulletLineRe.ReplaceAllString(line, "")
			text = numberedLineRe.ReplaceAllString(text, "")
			bullets = append(bullets, text)
		}
	}
	if len(bullets) >= 5 {
		return bullets
	}

	if len(labeled) > 0 {
		return labeled
	}
	if len(bullets) > 0 {
		return bullets
	}

	raw := []string{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && strings.Contains(line, "?") {
			raw = append(raw, line)
		}
	}
	return raw
}

// staticQuestions are the last-resort sets served when the model cannot be
// reached at all.
func staticQuestions(difficulty string) []string {
	switch difficulty {
	case "beginner":
		return []string{
			"Tell us about yourself and why you chose this field.",
			"What programming languages have you studied so far?",
			"Explain a basic project you have worked on.",
			"What is the difference between a list and an array?",
			"Describe a time you asked for help and what you learned.",
		}
	case "advanced":
		return []string{
			"Walk us through the most complex system you have designed or maintained.",
			"How do you approach performance profiling in production?",
			"Explain a trade-off you made between consistency and availability.",
			"How do you design a service to degrade gracefully under load?",
			"Describe a technical decision you later reversed and why.",
		}
	default:
		return []string{
			"Tell us about yourself and your recent work.",
			"What technologies are you most comfortable with and why?",
			"Explain a project where you solved a non-trivial technical problem.",
			"How do you debug an issue you cannot reproduce locally?",
			"Describe a disagreement with a teammate and how you resolved it.",
		}
	}
}
