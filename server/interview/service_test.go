package interview

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/voxhire/internal/errors"
	"github.com/voxhire/voxhire/internal/profile"
	"github.com/voxhire/voxhire/plugin/ai"
	"github.com/voxhire/voxhire/plugin/vision"
	"github.com/voxhire/voxhire/store"
)

// fakeStore mirrors the store facade contract: reads never fail and always
// return a usable state, writes are swallowed on error. States round-trip
// through JSON so mutations after save do not leak between calls.
type fakeStore struct {
	states    map[string]string
	schedules map[string]*store.Schedule
	jds       map[string]string

	ratingRows []*store.RatingRecord
	visualRows []*store.VisualFeedback
	reportRows []*store.PerformanceReport

	scheduleUpdates []store.UpdateSchedule
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		states:    map[string]string{},
		schedules: map[string]*store.Schedule{},
		jds:       map[string]string{},
	}
}

func (f *fakeStore) key(userID, sessionRef string) string { return userID + "|" + sessionRef }

func (f *fakeStore) GetInterviewState(_ context.Context, userID, sessionRef string) *store.InterviewState {
	state := store.NewInterviewState()
	if raw, ok := f.states[f.key(userID, sessionRef)]; ok {
		_ = json.Unmarshal([]byte(raw), state)
	}
	return state
}

func (f *fakeStore) SaveInterviewState(_ context.Context, userID, sessionRef string, state *store.InterviewState) {
	raw, _ := json.Marshal(state)
	f.states[f.key(userID, sessionRef)] = string(raw)
}

func (f *fakeStore) ClearInterviewState(_ context.Context, userID string) {
	for key := range f.states {
		if len(key) > len(userID) && key[:len(userID)+1] == userID+"|" {
			delete(f.states, key)
		}
	}
}

func (f *fakeStore) LatestScheduleFor(_ context.Context, rollNo string) (*store.Schedule, error) {
	return f.schedules[rollNo], nil
}

func (f *fakeStore) GetJobDescriptionText(_ context.Context, jdID string) (string, error) {
	return f.jds[jdID], nil
}

func (f *fakeStore) UpdateSchedule(_ context.Context, update *store.UpdateSchedule) error {
	f.scheduleUpdates = append(f.scheduleUpdates, *update)
	for _, sched := range f.schedules {
		if sched.ID == update.ID && update.Status != nil {
			sched.Status = *update.Status
		}
	}
	return nil
}

func (f *fakeStore) CreateRatingRecord(_ context.Context, create *store.RatingRecord) (*store.RatingRecord, error) {
	f.ratingRows = append(f.ratingRows, create)
	return create, nil
}

func (f *fakeStore) UpsertVisualFeedback(_ context.Context, upsert *store.VisualFeedback) (*store.VisualFeedback, error) {
	f.visualRows = append(f.visualRows, upsert)
	return upsert, nil
}

func (f *fakeStore) CreatePerformanceReport(_ context.Context, create *store.PerformanceReport) (*store.PerformanceReport, error) {
	f.reportRows = append(f.reportRows, create)
	return create, nil
}

func (f *fakeStore) GetPerformanceReport(_ context.Context, find *store.FindPerformanceReport) (*store.PerformanceReport, error) {
	for _, row := range f.reportRows {
		if find.RollNo != nil && row.RollNo == *find.RollNo {
			return row, nil
		}
	}
	return nil, nil
}

type fakeGenerator struct {
	questions []string
	err       error
	calls     int
}

func (f *fakeGenerator) Generate(context.Context, string, string, string) ([]string, error) {
	f.calls++
	return f.questions, f.err
}

type fakeEvaluator struct {
	rating store.Rating
	err    error
	calls  int
}

func (f *fakeEvaluator) Evaluate(context.Context, string, string, string) (*store.Rating, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rating := f.rating
	return &rating, nil
}

type fakeNarrator struct{}

func (fakeNarrator) Compose(context.Context, []store.Turn, store.Rating) ai.Narrative {
	return ai.Narrative{
		StrengthsHTML:    "<ol><li>Clear answers</li></ol>",
		ImprovementsHTML: "<ol><li>More depth</li></ol>",
	}
}

type fakeTranslator struct {
	out   string
	calls int
}

func (f *fakeTranslator) Translate(_ context.Context, text, _ string) (string, error) {
	f.calls++
	if f.out == "" {
		return text, nil
	}
	return f.out, nil
}

type fakeSpeech struct{ calls int }

func (f *fakeSpeech) Synthesize(context.Context, string, string) (string, error) {
	f.calls++
	return "QVVESU8=", nil
}

type fakeObserver struct {
	calls   int
	forgets []string
}

func (f *fakeObserver) Analyze(context.Context, string, string, string) (*vision.Observation, error) {
	f.calls++
	return &vision.Observation{Posture: "Upright", Expressions: "Composed", Distractions: "None visible"}, nil
}

func (f *fakeObserver) Forget(userID string) { f.forgets = append(f.forgets, userID) }

type fakeDetector struct {
	speech bool
	ratio  float64
}

func (f *fakeDetector) Detect([]byte) (bool, float64) { return f.speech, f.ratio }

type fakeRegistry struct {
	begins int
	ends   []string
}

func (f *fakeRegistry) Begin(string, string, string, int) { f.begins++ }
func (f *fakeRegistry) Touch(string, int)                 {}
func (f *fakeRegistry) End(_, outcome string)             { f.ends = append(f.ends, outcome) }

type harness struct {
	svc        *Service
	store      *fakeStore
	generator  *fakeGenerator
	evaluator  *fakeEvaluator
	translator *fakeTranslator
	speech     *fakeSpeech
	observer   *fakeObserver
	detector   *fakeDetector
	registry   *fakeRegistry
	clock      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store: newFakeStore(),
		generator: &fakeGenerator{questions: []string{
			"What is a goroutine?",
			"Explain channels in Go.",
			"How does the garbage collector work?",
			"Describe error handling in Go.",
			"What is an interface?",
		}},
		evaluator:  &fakeEvaluator{rating: store.Rating{Technical: 7, Communication: 7, ProblemSolving: 7, TimeManagement: 7, Overall: 7}},
		translator: &fakeTranslator{},
		speech:     &fakeSpeech{},
		observer:   &fakeObserver{},
		detector:   &fakeDetector{},
		registry:   &fakeRegistry{},
		clock:      time.Unix(1_700_000_000, 0),
	}
	p := &profile.Profile{
		InterviewDuration: 900 * time.Second,
		PauseThreshold:    40 * time.Second,
		FrameInterval:     3 * time.Second,
		VisualEnabled:     true,
		BandVeryGood:      80,
		BandGood:          65,
		BandAverage:       50,
	}
	h.svc = NewService(p, h.store, h.generator, h.evaluator, fakeNarrator{}, h.translator, h.speech, h.observer, h.detector, h.registry)
	h.svc.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) advance(d time.Duration) { h.clock = h.clock.Add(d) }

func (h *harness) start(t *testing.T, userID string) string {
	t.Helper()
	result, err := h.svc.Start(context.Background(), userID, StartRequest{
		JDText:     "Backend engineer, Go and SQL.",
		Difficulty: "medium",
		Language:   "english",
		StudentInfo: store.StudentInfo{
			Name:   "Asha",
			RollNo: "R-" + userID,
		},
	})
	require.NoError(t, err)
	return result.SessionRef
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("requires difficulty", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Start(ctx, "u1", StartRequest{JDText: "Go developer"})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
	})

	t.Run("requires job description", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Start(ctx, "u1", StartRequest{Difficulty: "medium"})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
	})

	t.Run("resolves jd and difficulty from schedule", func(t *testing.T) {
		h := newHarness(t)
		h.store.schedules["R-99"] = &store.Schedule{
			ID: 1, RollNo: "R-99", Difficulty: "advanced", Language: "hindi",
			JDID: "jd-1", Status: store.ScheduleStatusScheduled,
		}
		h.store.jds["jd-1"] = "Site reliability engineer."

		result, err := h.svc.Start(ctx, "u1", StartRequest{
			StudentInfo: store.StudentInfo{RollNo: "R-99"},
		})
		require.NoError(t, err)
		assert.Equal(t, 5, result.TotalQuestions)
		assert.Equal(t, 900.0, result.Duration)

		state := h.store.GetInterviewState(ctx, "u1", result.SessionRef)
		assert.Equal(t, "advanced", state.DifficultyLevel)
		assert.Equal(t, "hindi", state.Language)
		assert.Equal(t, "Site reliability engineer.", state.JDText)
		assert.True(t, state.InterviewStarted)
	})

	t.Run("pads short generation from the fallback pool", func(t *testing.T) {
		h := newHarness(t)
		h.generator.questions = []string{"Question 1: What is Go?", "What is Go?", ""}

		result, err := h.svc.Start(ctx, "u1", StartRequest{JDText: "Go dev", Difficulty: "easy"})
		require.NoError(t, err)
		assert.Equal(t, 5, result.TotalQuestions)

		state := h.store.GetInterviewState(ctx, "u1", result.SessionRef)
		require.Len(t, state.Questions, 5)
		assert.Equal(t, "What is Go?", state.Questions[0])
		assert.Equal(t, fallbackQuestions[0], state.Questions[1])
	})

	t.Run("normalizes difficulty and language", func(t *testing.T) {
		h := newHarness(t)
		result, err := h.svc.Start(ctx, "u1", StartRequest{JDText: "Go dev", Difficulty: "HARD", Language: "Hinglish"})
		require.NoError(t, err)

		state := h.store.GetInterviewState(ctx, "u1", result.SessionRef)
		assert.Equal(t, "advanced", state.DifficultyLevel)
		assert.Equal(t, "bilingual", state.Language)
	})

	t.Run("registers the run", func(t *testing.T) {
		h := newHarness(t)
		h.start(t, "u1")
		assert.Equal(t, 1, h.registry.begins)
	})
}

func TestNextQuestion(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a started interview", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.NextQuestion(ctx, "u1", "s1")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInterviewNotStarted))
	})

	t.Run("serves questions with audio and numbering", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")

		payload, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, payload.Status)
		assert.Equal(t, "What is a goroutine?", payload.Question)
		assert.Equal(t, 1, payload.QuestionNumber)
		assert.Equal(t, 5, payload.TotalQuestions)
		assert.NotEmpty(t, payload.AudioB64)
		assert.InDelta(t, 900, payload.RemainingTime, 1)
	})

	t.Run("re-serves the pending question without advancing", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")

		first, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)
		second, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)

		assert.Equal(t, first.Question, second.Question)
		assert.Equal(t, first.QuestionNumber, second.QuestionNumber)

		state := h.store.GetInterviewState(ctx, "u1", ref)
		botTurns := 0
		for _, turn := range state.ConversationHistory {
			if turn.Speaker == "bot" {
				botTurns++
			}
		}
		assert.Equal(t, 1, botTurns)
	})

	t.Run("completes when the time budget is exhausted", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")
		h.advance(901 * time.Second)

		payload, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)
		assert.Equal(t, StatusInterviewComplete, payload.Status)

		state := h.store.GetInterviewState(ctx, "u1", ref)
		assert.NotZero(t, state.EndTime)
		assert.Contains(t, h.registry.ends, "timed_out")
	})
}

func TestProcessAnswer(t *testing.T) {
	ctx := context.Background()

	answer := func(h *harness, ref string, req AnswerRequest) (*AnswerResult, error) {
		return h.svc.ProcessAnswer(ctx, "u1", ref, req)
	}

	t.Run("partial chunks accumulate until the final chunk", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")
		_, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)

		result, err := answer(h, ref, AnswerRequest{Answer: "I use goroutines", IsFinal: false})
		require.NoError(t, err)
		assert.Equal(t, StatusPartialSaved, result.Status)

		result, err = answer(h, ref, AnswerRequest{Answer: "for concurrent work", IsFinal: false})
		require.NoError(t, err)
		assert.Equal(t, StatusPartialSaved, result.Status)
		assert.Equal(t, 0, h.evaluator.calls)

		result, err = answer(h, ref, AnswerRequest{IsFinal: true})
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, result.Status)
		assert.Equal(t, 1, h.evaluator.calls)

		state := h.store.GetInterviewState(ctx, "u1", ref)
		require.Len(t, state.Answers, 1)
		assert.Equal(t, "I use goroutines for concurrent work", state.Answers[0])
		assert.Equal(t, 1, state.CurrentQuestion)
		assert.Len(t, state.Ratings, 1)
		assert.Empty(t, state.CurrentAnswer)
	})

	t.Run("empty final answer is rejected", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")
		_, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)

		_, err = answer(h, ref, AnswerRequest{IsFinal: true})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
	})

	t.Run("speaking time accumulates", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")
		_, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)

		_, err = answer(h, ref, AnswerRequest{Answer: "part one", IsFinal: false, SpeakingTime: 4.5})
		require.NoError(t, err)
		_, err = answer(h, ref, AnswerRequest{Answer: "part two", IsFinal: true, SpeakingTime: 3.5})
		require.NoError(t, err)

		state := h.store.GetInterviewState(ctx, "u1", ref)
		assert.InDelta(t, 8.0, state.InterviewTimeUsed, 0.001)
	})

	t.Run("camera frames are throttled", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")
		_, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)

		frame := AnswerRequest{Answer: "chunk", IsFinal: false, FrameB64: "ZnJhbWU="}
		_, err = answer(h, ref, frame)
		require.NoError(t, err)
		_, err = answer(h, ref, frame)
		require.NoError(t, err)
		assert.Equal(t, 1, h.observer.calls)

		h.advance(4 * time.Second)
		_, err = answer(h, ref, frame)
		require.NoError(t, err)
		assert.Equal(t, 2, h.observer.calls)

		state := h.store.GetInterviewState(ctx, "u1", ref)
		assert.Len(t, state.VisualFeedbackData, 2)
	})

	t.Run("bilingual answers are translated for the transcript", func(t *testing.T) {
		h := newHarness(t)
		h.translator.out = "I write Go services."
		ref := mustStart(t, h, "u1", "bilingual")
		_, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)

		result, err := answer(h, ref, AnswerRequest{Answer: "मैं Go सेवाएँ लिखता हूँ", IsFinal: true})
		require.NoError(t, err)
		assert.Equal(t, "I write Go services.", result.Answer)
		assert.Equal(t, 1, h.translator.calls)

		state := h.store.GetInterviewState(ctx, "u1", ref)
		assert.Equal(t, "मैं Go सेवाएँ लिखता हूँ", state.Answers[0])
	})

	t.Run("rejects a final answer before a question is served", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")

		_, err := answer(h, ref, AnswerRequest{Answer: "eager answer", IsFinal: true})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
		assert.Equal(t, 0, h.evaluator.calls)
	})

	t.Run("rejects a duplicate final submission", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")
		_, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)

		_, err = answer(h, ref, AnswerRequest{Answer: "my answer", IsFinal: true})
		require.NoError(t, err)

		// A reconnecting client re-sends the same final chunk.
		_, err = answer(h, ref, AnswerRequest{Answer: "my answer", IsFinal: true})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))

		state := h.store.GetInterviewState(ctx, "u1", ref)
		assert.Len(t, state.Answers, 1)
		assert.Len(t, state.Ratings, 1)
		assert.Equal(t, 1, state.CurrentQuestion)
		userTurns := 0
		for _, turn := range state.ConversationHistory {
			if turn.Speaker == "user" {
				userTurns++
			}
		}
		assert.Equal(t, 1, userTurns)
		assert.Equal(t, 1, h.evaluator.calls)
	})

	t.Run("strict evaluation failure keeps the question pending", func(t *testing.T) {
		h := newHarness(t)
		h.evaluator.err = errors.EvaluationFailed("model response unusable", nil)
		ref := h.start(t, "u1")
		_, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)

		_, err = answer(h, ref, AnswerRequest{Answer: "my answer", IsFinal: true})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeEvaluationFailed))

		state := h.store.GetInterviewState(ctx, "u1", ref)
		assert.Equal(t, 0, state.CurrentQuestion)
		assert.Empty(t, state.Ratings)
		assert.Len(t, state.Answers, 1)
	})

	t.Run("a retried evaluation does not re-record the answer", func(t *testing.T) {
		h := newHarness(t)
		h.evaluator.err = errors.EvaluationFailed("model response unusable", nil)
		ref := h.start(t, "u1")
		_, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)

		_, err = answer(h, ref, AnswerRequest{Answer: "my answer", IsFinal: true})
		require.Error(t, err)

		h.evaluator.err = nil
		result, err := answer(h, ref, AnswerRequest{Answer: "my answer", IsFinal: true})
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, result.Status)

		state := h.store.GetInterviewState(ctx, "u1", ref)
		assert.Len(t, state.Answers, 1)
		assert.Len(t, state.Ratings, 1)
		assert.Equal(t, 1, state.CurrentQuestion)

		// The remaining four questions must still be served before the run
		// can complete.
		for i := 0; i < 4; i++ {
			_, err := h.svc.NextQuestion(ctx, "u1", ref)
			require.NoError(t, err)
			result, err = answer(h, ref, AnswerRequest{Answer: "a solid answer", IsFinal: true})
			require.NoError(t, err)
		}
		assert.Equal(t, StatusInterviewComplete, result.Status)

		state = h.store.GetInterviewState(ctx, "u1", ref)
		assert.Len(t, state.Answers, 5)
		assert.Len(t, state.Ratings, 5)
		botTurns := 0
		for _, turn := range state.ConversationHistory {
			if turn.Speaker == "bot" {
				botTurns++
			}
		}
		assert.Equal(t, 5, botTurns)
	})

	t.Run("final answer to the last question completes the run", func(t *testing.T) {
		h := newHarness(t)
		h.store.schedules["R-u1"] = &store.Schedule{
			ID: 7, RollNo: "R-u1", Status: store.ScheduleStatusScheduled,
		}
		ref := h.start(t, "u1")

		var result *AnswerResult
		for i := 0; i < 5; i++ {
			_, err := h.svc.NextQuestion(ctx, "u1", ref)
			require.NoError(t, err)
			var err2 error
			result, err2 = answer(h, ref, AnswerRequest{Answer: "a solid answer", IsFinal: true})
			require.NoError(t, err2)
		}

		assert.Equal(t, StatusInterviewComplete, result.Status)
		state := h.store.GetInterviewState(ctx, "u1", ref)
		assert.NotZero(t, state.EndTime)
		assert.Equal(t, store.ScheduleStatusCompleted, h.store.schedules["R-u1"].Status)
		assert.Contains(t, h.registry.ends, "completed")
	})

	t.Run("time budget exhaustion marks the schedule timed out", func(t *testing.T) {
		h := newHarness(t)
		h.store.schedules["R-u1"] = &store.Schedule{
			ID: 8, RollNo: "R-u1", Status: store.ScheduleStatusScheduled,
		}
		ref := h.start(t, "u1")
		_, err := h.svc.NextQuestion(ctx, "u1", ref)
		require.NoError(t, err)
		h.advance(1000 * time.Second)

		result, err := answer(h, ref, AnswerRequest{Answer: "late", IsFinal: true})
		require.NoError(t, err)
		assert.Equal(t, StatusInterviewComplete, result.Status)
		assert.Equal(t, store.ScheduleStatusTimedOut, h.store.schedules["R-u1"].Status)
	})
}

func TestTwoUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	refA := h.start(t, "alice")
	refB := h.start(t, "bob")

	_, err := h.svc.NextQuestion(ctx, "alice", refA)
	require.NoError(t, err)
	_, err = h.svc.ProcessAnswer(ctx, "alice", refA, AnswerRequest{Answer: "alice's answer", IsFinal: true})
	require.NoError(t, err)

	stateA := h.store.GetInterviewState(ctx, "alice", refA)
	stateB := h.store.GetInterviewState(ctx, "bob", refB)
	assert.Len(t, stateA.Answers, 1)
	assert.Empty(t, stateB.Answers)
	assert.Equal(t, 0, stateB.CurrentQuestion)
}

func TestCheckSpeech(t *testing.T) {
	ctx := context.Background()

	t.Run("speech refreshes the pause clock", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")
		h.detector.speech = true
		h.detector.ratio = 0.8

		status, err := h.svc.CheckSpeech(ctx, "u1", ref, []byte{1, 2})
		require.NoError(t, err)
		assert.True(t, status.SpeechDetected)
		assert.False(t, status.SpeechEnded)
		assert.InDelta(t, 0.8, status.SpeechRatio, 0.001)
	})

	t.Run("silence past the threshold ends speech", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")

		h.detector.speech = true
		_, err := h.svc.CheckSpeech(ctx, "u1", ref, []byte{1, 2})
		require.NoError(t, err)

		h.detector.speech = false
		h.advance(41 * time.Second)
		status, err := h.svc.CheckSpeech(ctx, "u1", ref, []byte{1, 2})
		require.NoError(t, err)
		assert.True(t, status.SpeechEnded)
	})

	t.Run("no speech yet means no pause", func(t *testing.T) {
		h := newHarness(t)
		ref := h.start(t, "u1")
		h.advance(120 * time.Second)

		status, err := h.svc.CheckSpeech(ctx, "u1", ref, []byte{1, 2})
		require.NoError(t, err)
		assert.False(t, status.SpeechEnded)
	})
}

func TestStatusAndReset(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	ref := h.start(t, "u1")
	_, err := h.svc.NextQuestion(ctx, "u1", ref)
	require.NoError(t, err)

	status := h.svc.Status(ctx, "u1", ref)
	assert.True(t, status.InterviewStarted)
	assert.True(t, status.WaitingForAnswer)
	assert.Equal(t, 1, status.QuestionsAsked)
	assert.Equal(t, 5, status.TotalQuestions)

	h.svc.Reset(ctx, "u1")
	status = h.svc.Status(ctx, "u1", ref)
	assert.False(t, status.InterviewStarted)
	assert.Contains(t, h.observer.forgets, "u1")
	assert.Contains(t, h.registry.ends, "reset")
}

func TestGenerateReport(t *testing.T) {
	ctx := context.Background()

	finishRun := func(t *testing.T, h *harness) string {
		t.Helper()
		ref := h.start(t, "u1")
		for i := 0; i < 5; i++ {
			_, err := h.svc.NextQuestion(ctx, "u1", ref)
			require.NoError(t, err)
			_, err = h.svc.ProcessAnswer(ctx, "u1", ref, AnswerRequest{
				Answer: "a solid answer", IsFinal: true, FrameB64: "ZnJhbWU=",
			})
			require.NoError(t, err)
			h.advance(10 * time.Second)
		}
		return ref
	}

	t.Run("requires evaluated answers", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.GenerateReport(ctx, "u1", "s1")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
	})

	t.Run("computes percentage and band", func(t *testing.T) {
		h := newHarness(t)
		ref := finishRun(t, h)

		report, err := h.svc.GenerateReport(ctx, "u1", ref)
		require.NoError(t, err)
		assert.InDelta(t, 70.0, report.Percentage, 0.001)
		assert.Equal(t, "Good", report.Band)
		assert.InDelta(t, 7.0, report.Average.Overall, 0.001)
		assert.NotEmpty(t, report.StrengthsHTML)
		assert.NotEmpty(t, report.ImprovementsHTML)
		assert.Contains(t, report.ReportHTML, "Asha")
		assert.Contains(t, report.ReportHTML, "70.0")
	})

	t.Run("aggregates visual observations", func(t *testing.T) {
		h := newHarness(t)
		ref := finishRun(t, h)

		report, err := h.svc.GenerateReport(ctx, "u1", ref)
		require.NoError(t, err)
		assert.Equal(t, "Upright", report.Visual.Posture)
		assert.Equal(t, "None visible", report.Visual.Distractions)
	})

	t.Run("persists rows exactly once", func(t *testing.T) {
		h := newHarness(t)
		ref := finishRun(t, h)

		_, err := h.svc.GenerateReport(ctx, "u1", ref)
		require.NoError(t, err)
		_, err = h.svc.GenerateReport(ctx, "u1", ref)
		require.NoError(t, err)

		assert.Len(t, h.store.ratingRows, 1)
		assert.Len(t, h.store.visualRows, 1)
		assert.Len(t, h.store.reportRows, 1)
		assert.Equal(t, "R-u1", h.store.ratingRows[0].RollNo)
	})
}

func mustStart(t *testing.T, h *harness, userID, language string) string {
	t.Helper()
	result, err := h.svc.Start(context.Background(), userID, StartRequest{
		JDText:     "Backend engineer.",
		Difficulty: "medium",
		Language:   language,
		StudentInfo: store.StudentInfo{
			Name:   "Asha",
			RollNo: "R-" + userID,
		},
	})
	require.NoError(t, err)
	return result.SessionRef
}
