package ai

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/voxhire/voxhire/internal/errors"
	"github.com/voxhire/voxhire/plugin/ai/cache"
	"github.com/voxhire/voxhire/store"
)

const (
	// Answers shorter than this are not worth a model round trip.
	minAnswerLength = 20

	// evalMaxAttempts bounds the chat+parse cycle. The provider retries
	// transport errors on its own; this loop also re-asks when the model
	// returns text no parser layer can score.
	evalMaxAttempts = 3

	evalCacheCapacity = 1000
	evalCacheTTL      = time.Hour
)

// shortAnswerRating is the fixed low tuple for answers below the length floor.
var shortAnswerRating = store.Rating{
	Technical:      4.0,
	Communication:  4.0,
	ProblemSolving: 4.0,
	TimeManagement: 4.0,
	Overall:        4.0,
}

// fallbackRatings are the conservative difficulty-keyed tuples used when
// every evaluation attempt fails and strict mode is off.
var fallbackRatings = map[string]store.Rating{
	"beginner": {Technical: 5.5, Communication: 6.0, ProblemSolving: 5.5, TimeManagement: 6.0, Overall: 5.8},
	"medium":   {Technical: 6.0, Communication: 6.0, ProblemSolving: 6.0, TimeManagement: 6.0, Overall: 6.0},
	"advanced": {Technical: 6.5, Communication: 6.0, ProblemSolving: 6.5, TimeManagement: 6.0, Overall: 6.3},
}

// ChatProvider is the LLM surface the evaluation pipeline needs.
type ChatProvider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Evaluator scores candidate answers. Results are cached by answer
// fingerprint so repeated submissions of the same answer are free.
type Evaluator struct {
	provider ChatProvider
	cache    *cache.LRUCache
	strict   bool
}

// NewEvaluator creates an evaluator. With strict true, unparseable model
// output fails the evaluation instead of degrading to a fallback tuple.
func NewEvaluator(provider ChatProvider, strict bool) *Evaluator {
	return &Evaluator{
		provider: provider,
		cache:    cache.NewLRUCache(evalCacheCapacity, evalCacheTTL),
		strict:   strict,
	}
}

// Evaluate scores one answer against its question. Every returned rating has
// all five categories in [1, 10].
func (e *Evaluator) Evaluate(ctx context.Context, question, answer, difficulty string) (*store.Rating, error) {
	difficulty = NormalizeDifficulty(difficulty)

	if utf8.RuneCountInString(strings.TrimSpace(answer)) < minAnswerLength {
		rating := shortAnswerRating
		return &rating, nil
	}

	key := evalCacheKey(question, answer, difficulty)
	if raw, ok := e.cache.Get(key); ok {
		var rating store.Rating
		if err := json.Unmarshal(raw, &rating); err == nil {
			return &rating, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= evalMaxAttempts; attempt++ {
		response, err := e.provider.Chat(ctx, []Message{
			{Role: openai.ChatMessageRoleSystem, Content: evalSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: evalUserPrompt(question, answer, difficulty)},
		})
		if err == nil {
			rating, perr := parseRatings(response)
			if perr == nil {
				if raw, merr := json.Marshal(rating); merr == nil {
					e.cache.Set(key, raw, 0)
				}
				return rating, nil
			}
			err = perr
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		slog.Warn("evaluation attempt failed", "attempt", attempt, "error", err)
	}

	if e.strict {
		return nil, errors.EvaluationFailed("could not score answer", lastErr)
	}

	slog.Warn("evaluation degraded to fallback rating", "difficulty", difficulty, "error", lastErr)
	rating := fallbackRatings["medium"]
	if r, ok := fallbackRatings[difficulty]; ok {
		rating = r
	}
	return &rating, nil
}

const evalSystemPrompt = `You are a strict technical interviewer scoring one answer. ` +
	`Respond with ONLY a JSON object of the form ` +
	`{"technical": N, "communication": N, "problem_solving": N, "time_management": N, "overall": N} ` +
	`where each N is a number from 1 to 10. No prose, no markdown.`

func evalUserPrompt(question, answer, difficulty string) string {
	return fmt.Sprintf("Difficulty: %s\n\nQuestion: %s\n\nCandidate answer: %s", difficulty, question, answer)
}

// evalCacheKey fingerprints the (answer, question, difficulty) triple. Only
// the first 100 runes of each text participate, matching the cache's purpose
// of deduplicating retries rather than acting as a lookup table.
func evalCacheKey(question, answer, difficulty string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%s", truncateRunes(answer, 100), truncateRunes(question, 100), difficulty)))
	return "eval:" + hex.EncodeToString(sum[:])
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

