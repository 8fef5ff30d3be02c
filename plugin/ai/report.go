package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/yuin/goldmark"

	"github.com/voxhire/voxhire/store"
)

// BandPolicy maps an overall percentage onto a verdict label. Thresholds are
// tunable per deployment.
type BandPolicy struct {
	VeryGood float64
	Good     float64
	Average  float64
}

// DefaultBandPolicy returns the default thresholds.
func DefaultBandPolicy() BandPolicy {
	return BandPolicy{VeryGood: 80, Good: 65, Average: 50}
}

// Band returns the verdict label for a percentage.
func (p BandPolicy) Band(percentage float64) string {
	switch {
	case percentage >= p.VeryGood:
		return "Very Good"
	case percentage >= p.Good:
		return "Good"
	case percentage >= p.Average:
		return "Average"
	default:
		return "Poor"
	}
}

// AverageRating returns the arithmetic mean of each category. An empty input
// yields the zero rating.
func AverageRating(ratings []store.Rating) store.Rating {
	if len(ratings) == 0 {
		return store.Rating{}
	}
	var sum store.Rating
	for _, r := range ratings {
		sum.Technical += r.Technical
		sum.Communication += r.Communication
		sum.ProblemSolving += r.ProblemSolving
		sum.TimeManagement += r.TimeManagement
		sum.Overall += r.Overall
	}
	n := float64(len(ratings))
	return store.Rating{
		Technical:      sum.Technical / n,
		Communication:  sum.Communication / n,
		ProblemSolving: sum.ProblemSolving / n,
		TimeManagement: sum.TimeManagement / n,
		Overall:        sum.Overall / n,
	}
}

// OverallPercentage converts a 1-10 overall score to a percentage.
func OverallPercentage(avg store.Rating) float64 {
	return avg.Overall * 10
}

// Narrative is the qualitative half of a performance report.
type Narrative struct {
	StrengthsHTML    string
	ImprovementsHTML string
}

// Narrator writes the strengths/improvements narrative for a finished
// interview. Model failures degrade to a deterministic numeric summary, so a
// report can always be produced.
type Narrator struct {
	provider ChatProvider
}

// NewNarrator creates a narrator.
func NewNarrator(provider ChatProvider) *Narrator {
	return &Narrator{provider: provider}
}

const narrativeSystemPrompt = `You review interview transcripts. Respond with ONLY a JSON object ` +
	`{"strengths": ["...", ...], "improvements": ["...", ...]} with 2 to 4 short items per list. ` +
	`Plain sentences or simple markdown, no headings.`

// Compose builds the narrative from the transcript and the averaged scores.
func (n *Narrator) Compose(ctx context.Context, history []store.Turn, avg store.Rating) Narrative {
	var sb strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&sb, "%s: %s\n", turn.Speaker, turn.Text)
	}

	response, err := n.provider.Chat(ctx, []Message{
		{Role: openai.ChatMessageRoleSystem, Content: narrativeSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: sb.String()},
	})
	if err == nil {
		if narrative, ok := parseNarrative(response); ok {
			return narrative
		}
		slog.Warn("narrative response unparseable, using numeric summary")
	} else {
		slog.Warn("narrative generation failed, using numeric summary", "error", err)
	}

	return numericNarrative(avg)
}

func parseNarrative(response string) (Narrative, bool) {
	raw := strings.TrimSpace(response)
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	var parsed struct {
		Strengths    []string `json:"strengths"`
		Improvements []string `json:"improvements"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Narrative{}, false
	}
	if len(parsed.Strengths) == 0 && len(parsed.Improvements) == 0 {
		return Narrative{}, false
	}

	return Narrative{
		StrengthsHTML:    renderList(parsed.Strengths),
		ImprovementsHTML: renderList(parsed.Improvements),
	}, true
}

// renderList renders narrative items, passing each through a markdown
// converter since models often emphasize with ** despite instructions.
func renderList(items []string) string {
	var sb strings.Builder
	sb.WriteString("<ul>")
	for _, item := range items {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(item), &buf); err != nil {
			sb.WriteString("<li>" + item + "</li>")
			continue
		}
		html := strings.TrimSpace(buf.String())
		html = strings.TrimPrefix(html, "<p>")
		html = strings.TrimSuffix(html, "</p>")
		sb.WriteString("<li>" + html + "</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// numericNarrative is the graceful-degradation narrative built from scores
// alone.
func numericNarrative(avg store.Rating) Narrative {
	strengths := []string{}
	improvements := []string{}

	categories := []struct {
		name  string
		score float64
	}{
		{"technical knowledge", avg.Technical},
		{"communication", avg.Communication},
		{"problem solving", avg.ProblemSolving},
		{"time management", avg.TimeManagement},
	}
	for _, c := range categories {
		if c.score >= 6.5 {
			strengths = append(strengths, fmt.Sprintf("Showed solid %s (%.1f/10).", c.name, c.score))
		} else {
			improvements = append(improvements, fmt.Sprintf("Work on %s (%.1f/10).", c.name, c.score))
		}
	}
	if len(strengths) == 0 {
		strengths = append(strengths, "Completed the interview and attempted every question.")
	}
	if len(improvements) == 0 {
		improvements = append(improvements, "Keep practicing to maintain this level of performance.")
	}

	return Narrative{
		StrengthsHTML:    renderList(strengths),
		ImprovementsHTML: renderList(improvements),
	}
}
