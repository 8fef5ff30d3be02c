package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/voxhire/store"
)

func TestInterviewStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	// Unknown users get a fresh state, never an error.
	state := ts.GetInterviewState(ctx, "nobody", "")
	require.NotNil(t, state)
	assert.False(t, state.InterviewStarted)
	assert.NotNil(t, state.Questions)

	state.InterviewStarted = true
	state.Questions = []string{"What is Go?", "Why Go?"}
	state.CurrentQuestion = 1
	state.DifficultyLevel = "medium"
	state.ConversationHistory = []store.Turn{{Speaker: "bot", Text: "What is Go?"}}
	state.Ratings = []store.Rating{{Technical: 7, Communication: 7, ProblemSolving: 7, TimeManagement: 7, Overall: 7}}
	ts.SaveInterviewState(ctx, "u1", "s1", state)

	loaded := ts.GetInterviewState(ctx, "u1", "s1")
	assert.True(t, loaded.InterviewStarted)
	assert.Equal(t, []string{"What is Go?", "Why Go?"}, loaded.Questions)
	assert.Equal(t, 1, loaded.CurrentQuestion)
	require.Len(t, loaded.Ratings, 1)
	assert.Equal(t, 7.0, loaded.Ratings[0].Overall)

	// Saving again replaces the row rather than duplicating it.
	loaded.CurrentQuestion = 2
	ts.SaveInterviewState(ctx, "u1", "s1", loaded)
	again := ts.GetInterviewState(ctx, "u1", "s1")
	assert.Equal(t, 2, again.CurrentQuestion)

	// Another user's session stays untouched.
	other := ts.GetInterviewState(ctx, "u2", "s1")
	assert.False(t, other.InterviewStarted)
}

func TestInterviewStateLatestWinsWithoutRef(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	first := store.NewInterviewState()
	first.DifficultyLevel = "beginner"
	ts.SaveInterviewState(ctx, "u1", "s1", first)

	second := store.NewInterviewState()
	second.DifficultyLevel = "advanced"
	ts.SaveInterviewState(ctx, "u1", "s2", second)

	// Both saves land within the same second, so the tiebreaker decides.
	loaded := ts.GetInterviewState(ctx, "u1", "")
	assert.Equal(t, "advanced", loaded.DifficultyLevel)

	third := store.NewInterviewState()
	third.DifficultyLevel = "medium"
	ts.SaveInterviewState(ctx, "u1", "s3", third)

	loaded = ts.GetInterviewState(ctx, "u1", "")
	assert.Equal(t, "medium", loaded.DifficultyLevel)
}

func TestClearInterviewState(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	state := store.NewInterviewState()
	state.InterviewStarted = true
	ts.SaveInterviewState(ctx, "u1", "s1", state)
	ts.SaveInterviewState(ctx, "u1", "s2", state)

	ts.ClearInterviewState(ctx, "u1")
	assert.False(t, ts.GetInterviewState(ctx, "u1", "s1").InterviewStarted)
	assert.False(t, ts.GetInterviewState(ctx, "u1", "s2").InterviewStarted)
}

func TestExpiredSessions(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	// An already-expired row is invisible to reads and swept by the cleaner.
	_, err := ts.GetDriver().UpsertSession(ctx, &store.UpsertSession{
		UserID:     "u1",
		SessionRef: "expired",
		State:      store.NewInterviewState(),
		TTL:        -time.Second,
	})
	require.NoError(t, err)

	state := store.NewInterviewState()
	state.InterviewStarted = true
	ts.SaveInterviewState(ctx, "u2", "live", state)

	assert.False(t, ts.GetInterviewState(ctx, "u1", "expired").InterviewStarted)

	count, err := ts.CountActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	deleted, err := ts.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = ts.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
