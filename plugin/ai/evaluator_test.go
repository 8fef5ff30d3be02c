package ai

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/voxhire/voxhire/internal/errors"
)

type scriptedChat struct {
	response  string
	responses []string // consumed in order before falling back to response
	err       error
	calls     int
}

func (s *scriptedChat) Chat(context.Context, []Message) (string, error) {
	s.calls++
	if len(s.responses) > 0 {
		next := s.responses[0]
		s.responses = s.responses[1:]
		return next, nil
	}
	return s.response, s.err
}

const goodResponse = `{"technical": 7, "communication": 8, "problem_solving": 6, "time_management": 7, "overall": 7}`

const longAnswer = "I would reach for goroutines and channels to fan the work out across workers."

func TestEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("short answers get the fixed low tuple without a model call", func(t *testing.T) {
		chat := &scriptedChat{response: goodResponse}
		e := NewEvaluator(chat, false)

		rating, err := e.Evaluate(ctx, "What is Go?", "idk", "medium")
		require.NoError(t, err)
		assert.Equal(t, shortAnswerRating, *rating)
		assert.Equal(t, 0, chat.calls)
	})

	t.Run("successful evaluation parses the model response", func(t *testing.T) {
		chat := &scriptedChat{response: goodResponse}
		e := NewEvaluator(chat, false)

		rating, err := e.Evaluate(ctx, "Concurrency?", longAnswer, "medium")
		require.NoError(t, err)
		assert.Equal(t, 7.0, rating.Technical)
		assert.Equal(t, 8.0, rating.Communication)
	})

	t.Run("repeated answers hit the cache", func(t *testing.T) {
		chat := &scriptedChat{response: goodResponse}
		e := NewEvaluator(chat, false)

		_, err := e.Evaluate(ctx, "Concurrency?", longAnswer, "medium")
		require.NoError(t, err)
		_, err = e.Evaluate(ctx, "Concurrency?", longAnswer, "medium")
		require.NoError(t, err)
		assert.Equal(t, 1, chat.calls)
	})

	t.Run("different difficulty misses the cache", func(t *testing.T) {
		chat := &scriptedChat{response: goodResponse}
		e := NewEvaluator(chat, false)

		_, err := e.Evaluate(ctx, "Concurrency?", longAnswer, "medium")
		require.NoError(t, err)
		_, err = e.Evaluate(ctx, "Concurrency?", longAnswer, "advanced")
		require.NoError(t, err)
		assert.Equal(t, 2, chat.calls)
	})

	t.Run("provider failure degrades to the difficulty fallback", func(t *testing.T) {
		chat := &scriptedChat{err: errors.New("connection refused")}
		e := NewEvaluator(chat, false)

		rating, err := e.Evaluate(ctx, "Concurrency?", longAnswer, "advanced")
		require.NoError(t, err)
		assert.Equal(t, fallbackRatings["advanced"], *rating)
		assert.Equal(t, evalMaxAttempts, chat.calls)
	})

	t.Run("garbage output is re-asked before falling back", func(t *testing.T) {
		chat := &scriptedChat{responses: []string{"the candidate did fine I suppose", goodResponse}}
		e := NewEvaluator(chat, false)

		rating, err := e.Evaluate(ctx, "Concurrency?", longAnswer, "medium")
		require.NoError(t, err)
		assert.Equal(t, 7.0, rating.Technical)
		assert.Equal(t, 2, chat.calls)
	})

	t.Run("unparseable output on every attempt degrades", func(t *testing.T) {
		chat := &scriptedChat{response: "the candidate did fine I suppose"}
		e := NewEvaluator(chat, false)

		rating, err := e.Evaluate(ctx, "Concurrency?", longAnswer, "easy")
		require.NoError(t, err)
		assert.Equal(t, fallbackRatings["beginner"], *rating)
		assert.Equal(t, evalMaxAttempts, chat.calls)
	})

	t.Run("strict mode surfaces the failure after all attempts", func(t *testing.T) {
		chat := &scriptedChat{response: "not json"}
		e := NewEvaluator(chat, true)

		_, err := e.Evaluate(ctx, "Concurrency?", longAnswer, "medium")
		require.Error(t, err)
		assert.True(t, ierrors.IsCode(err, ierrors.ErrCodeEvaluationFailed))
		assert.Equal(t, evalMaxAttempts, chat.calls)
	})
}

func TestEvalCacheKey(t *testing.T) {
	// Only the first 100 runes of answer and question participate.
	long := make([]rune, 150)
	for i := range long {
		long[i] = 'a'
	}
	base := string(long[:100])
	assert.Equal(t,
		evalCacheKey("q", base, "medium"),
		evalCacheKey("q", string(long), "medium"))
	assert.NotEqual(t,
		evalCacheKey("q", base, "medium"),
		evalCacheKey("q", base, "advanced"))
}
