// Package interview orchestrates a timed interview run: question generation
// and serving, answer intake, evaluation, speech monitoring and report
// assembly. All run state lives on the session document, so any server
// instance can carry a run forward.
package interview

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/voxhire/voxhire/internal/errors"
	"github.com/voxhire/voxhire/internal/profile"
	"github.com/voxhire/voxhire/plugin/ai"
	"github.com/voxhire/voxhire/plugin/vision"
	"github.com/voxhire/voxhire/store"
)

const questionCount = 5

// SessionStore is the persistence surface the service needs. *store.Store
// satisfies it.
type SessionStore interface {
	GetInterviewState(ctx context.Context, userID, sessionRef string) *store.InterviewState
	SaveInterviewState(ctx context.Context, userID, sessionRef string, state *store.InterviewState)
	ClearInterviewState(ctx context.Context, userID string)
	LatestScheduleFor(ctx context.Context, rollNo string) (*store.Schedule, error)
	GetJobDescriptionText(ctx context.Context, jdID string) (string, error)
	UpdateSchedule(ctx context.Context, update *store.UpdateSchedule) error
	CreateRatingRecord(ctx context.Context, create *store.RatingRecord) (*store.RatingRecord, error)
	UpsertVisualFeedback(ctx context.Context, upsert *store.VisualFeedback) (*store.VisualFeedback, error)
	CreatePerformanceReport(ctx context.Context, create *store.PerformanceReport) (*store.PerformanceReport, error)
	GetPerformanceReport(ctx context.Context, find *store.FindPerformanceReport) (*store.PerformanceReport, error)
}

// QuestionGenerator produces raw interview questions for a JD.
type QuestionGenerator interface {
	Generate(ctx context.Context, jdText, difficulty, language string) ([]string, error)
}

// ResponseEvaluator scores one answer.
type ResponseEvaluator interface {
	Evaluate(ctx context.Context, question, answer, difficulty string) (*store.Rating, error)
}

// ReportNarrator composes strengths and improvements prose for the report.
type ReportNarrator interface {
	Compose(ctx context.Context, history []store.Turn, avg store.Rating) ai.Narrative
}

// Translator renders bilingual answers into English for the transcript.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// SpeechSynthesizer voices questions.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, language string) (string, error)
}

// VisualObserver analyzes throttled camera frames.
type VisualObserver interface {
	Analyze(ctx context.Context, userID, frameB64, candidateCtx string) (*vision.Observation, error)
	Forget(userID string)
}

// SpeechDetector reports whether a PCM clip contains speech.
type SpeechDetector interface {
	Detect(pcm []byte) (bool, float64)
}

// Registry tracks live runs for the monitoring surface. A nil registry is a
// no-op.
type Registry interface {
	Begin(userID, rollNo, difficulty string, totalQuestions int)
	Touch(userID string, questionsAnswered int)
	End(userID, outcome string)
}

// Service drives interview runs end to end.
type Service struct {
	profile    *profile.Profile
	store      SessionStore
	generator  QuestionGenerator
	evaluator  ResponseEvaluator
	narrator   ReportNarrator
	translator Translator
	speech     SpeechSynthesizer
	observer   VisualObserver
	detector   SpeechDetector
	registry   Registry

	// now is swapped in tests to control the clock.
	now func() time.Time
}

// NewService wires the interview orchestrator. observer, translator, speech
// and registry may be nil; the corresponding features degrade silently.
func NewService(
	p *profile.Profile,
	sessionStore SessionStore,
	generator QuestionGenerator,
	evaluator ResponseEvaluator,
	narrator ReportNarrator,
	translator Translator,
	speech SpeechSynthesizer,
	observer VisualObserver,
	detector SpeechDetector,
	registry Registry,
) *Service {
	return &Service{
		profile:    p,
		store:      sessionStore,
		generator:  generator,
		evaluator:  evaluator,
		narrator:   narrator,
		translator: translator,
		speech:     speech,
		observer:   observer,
		detector:   detector,
		registry:   registry,
		now:        time.Now,
	}
}

// StartRequest carries everything a run can be seeded with. Missing fields
// fall back to the stored session, then to the candidate's latest schedule.
type StartRequest struct {
	SessionRef  string
	JDText      string
	JDID        string
	Difficulty  string
	Language    string
	StudentInfo store.StudentInfo
	InterviewTs string
}

// StartResult reports a freshly started run.
type StartResult struct {
	SessionRef     string  `json:"session_ref"`
	TotalQuestions int     `json:"total_questions"`
	Duration       float64 `json:"duration"`
}

// Start begins a run: resolves JD and difficulty, generates and normalizes
// the question set and resets run state. JD and difficulty must resolve from
// the request, the stored session or a schedule; they are never defaulted.
func (s *Service) Start(ctx context.Context, userID string, req StartRequest) (*StartResult, error) {
	sessionRef := req.SessionRef
	if sessionRef == "" {
		sessionRef = shortuuid.New()
	}

	state := s.store.GetInterviewState(ctx, userID, sessionRef)
	if req.StudentInfo.RollNo != "" {
		state.StudentInfo = req.StudentInfo
	}
	if req.InterviewTs != "" {
		state.InterviewTs = req.InterviewTs
	}

	var schedule *store.Schedule
	if state.StudentInfo.RollNo != "" {
		var err error
		schedule, err = s.store.LatestScheduleFor(ctx, state.StudentInfo.RollNo)
		if err != nil {
			slog.Warn("schedule lookup failed", "roll_no", state.StudentInfo.RollNo, "error", err)
		}
	}

	jdText, err := s.resolveJD(ctx, req, state, schedule)
	if err != nil {
		return nil, err
	}

	difficulty := firstNonEmpty(req.Difficulty, state.DifficultyLevel)
	if difficulty == "" && schedule != nil {
		difficulty = schedule.Difficulty
	}
	if difficulty == "" {
		return nil, errors.InvalidArgument("difficulty level is required and has no scheduled value")
	}
	difficulty = ai.NormalizeDifficulty(difficulty)

	language := firstNonEmpty(req.Language, state.Language)
	if language == "" && schedule != nil {
		language = schedule.Language
	}
	language = ai.NormalizeLanguage(language)

	raw, err := s.generator.Generate(ctx, jdText, difficulty, language)
	if err != nil {
		return nil, errors.LLMUnavailable("question generation failed").WithContext("cause", err.Error())
	}
	questions := buildQuestionSet(raw, questionCount)

	state.ResetRun()
	state.JDText = jdText
	state.DifficultyLevel = difficulty
	state.Language = language
	state.Questions = questions
	state.InterviewStarted = true
	now := s.now().Unix()
	state.StartTime = now
	state.LastActivityTime = now
	if state.InterviewTs == "" {
		state.InterviewTs = s.now().Format("2006-01-02 15:04:05")
	}

	s.store.SaveInterviewState(ctx, userID, sessionRef, state)
	if s.registry != nil {
		s.registry.Begin(userID, state.StudentInfo.RollNo, difficulty, len(questions))
	}

	return &StartResult{
		SessionRef:     sessionRef,
		TotalQuestions: len(questions),
		Duration:       s.profile.InterviewDuration.Seconds(),
	}, nil
}

func (s *Service) resolveJD(ctx context.Context, req StartRequest, state *store.InterviewState, schedule *store.Schedule) (string, error) {
	if text := strings.TrimSpace(req.JDText); text != "" {
		return text, nil
	}
	if state.JDText != "" {
		return state.JDText, nil
	}

	jdID := req.JDID
	if jdID == "" && schedule != nil {
		jdID = schedule.JDID
	}
	if jdID != "" {
		text, err := s.store.GetJobDescriptionText(ctx, jdID)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		slog.Warn("job description lookup failed", "jd_id", jdID, "error", err)
	}

	return "", errors.InvalidArgument("job description is required and has no scheduled value")
}

// QuestionPayload is one served question.
type QuestionPayload struct {
	Status         string  `json:"status"`
	Question       string  `json:"question,omitempty"`
	QuestionNumber int     `json:"question_number,omitempty"`
	TotalQuestions int     `json:"total_questions,omitempty"`
	AudioB64       string  `json:"audio,omitempty"`
	RemainingTime  float64 `json:"remaining_time"`
}

// StatusInterviewComplete signals the run is over; other statuses are
// per-operation successes.
const (
	StatusSuccess           = "success"
	StatusPartialSaved      = "partial_saved"
	StatusInterviewComplete = "interview_complete"
)

// NextQuestion serves the current question. While an answer is pending the
// same question is re-served unchanged, so clients can poll without advancing
// the run. Serving past the last question or past the time budget completes
// the run.
func (s *Service) NextQuestion(ctx context.Context, userID, sessionRef string) (*QuestionPayload, error) {
	state := s.store.GetInterviewState(ctx, userID, sessionRef)
	if !state.InterviewStarted {
		return nil, errors.InterviewNotStarted("no interview in progress")
	}

	remaining := s.remaining(state)
	if remaining <= 0 {
		s.complete(ctx, userID, sessionRef, state, store.ScheduleStatusTimedOut)
		return &QuestionPayload{Status: StatusInterviewComplete}, nil
	}

	if state.WaitingForAnswer && state.CurrentQuestion < len(state.Questions) {
		question := state.Questions[state.CurrentQuestion]
		return &QuestionPayload{
			Status:         StatusSuccess,
			Question:       question,
			QuestionNumber: state.CurrentQuestion + 1,
			TotalQuestions: len(state.Questions),
			AudioB64:       s.voice(ctx, question, state.Language),
			RemainingTime:  remaining,
		}, nil
	}

	idx := state.CurrentQuestion
	for idx < len(state.Questions) && s.alreadyAsked(state, state.Questions[idx]) {
		idx++
	}
	if idx >= len(state.Questions) {
		s.complete(ctx, userID, sessionRef, state, store.ScheduleStatusCompleted)
		return &QuestionPayload{Status: StatusInterviewComplete}, nil
	}

	question := state.Questions[idx]
	state.CurrentQuestion = idx
	state.WaitingForAnswer = true
	state.CurrentAnswer = ""
	state.SpeechDetected = false
	state.ConversationHistory = append(state.ConversationHistory, store.Turn{Speaker: "bot", Text: question})
	state.LastActivityTime = s.now().Unix()
	s.store.SaveInterviewState(ctx, userID, sessionRef, state)

	return &QuestionPayload{
		Status:         StatusSuccess,
		Question:       question,
		QuestionNumber: idx + 1,
		TotalQuestions: len(state.Questions),
		AudioB64:       s.voice(ctx, question, state.Language),
		RemainingTime:  remaining,
	}, nil
}

func (s *Service) alreadyAsked(state *store.InterviewState, question string) bool {
	for _, turn := range state.ConversationHistory {
		if turn.Speaker == "bot" && turn.Text == question {
			return true
		}
	}
	return false
}

// AnswerRequest is one answer submission. Non-final chunks accumulate into
// the pending buffer; the final chunk closes out the question.
type AnswerRequest struct {
	Answer       string
	IsFinal      bool
	SpeakingTime float64
	AudioPCM     []byte
	FrameB64     string
}

// AnswerResult reports the outcome of one submission.
type AnswerResult struct {
	Status         string  `json:"status"`
	QuestionNumber int     `json:"question_number"`
	TotalQuestions int     `json:"total_questions"`
	RemainingTime  float64 `json:"remaining_time"`
	Answer         string  `json:"answer,omitempty"`
}

// ProcessAnswer ingests an answer chunk plus any audio and camera evidence
// attached to it. Final chunks are evaluated and advance the run.
func (s *Service) ProcessAnswer(ctx context.Context, userID, sessionRef string, req AnswerRequest) (*AnswerResult, error) {
	state := s.store.GetInterviewState(ctx, userID, sessionRef)
	if !state.InterviewStarted {
		return nil, errors.InterviewNotStarted("no interview in progress")
	}

	remaining := s.remaining(state)
	if remaining <= 0 {
		s.complete(ctx, userID, sessionRef, state, store.ScheduleStatusTimedOut)
		return &AnswerResult{Status: StatusInterviewComplete, TotalQuestions: len(state.Questions)}, nil
	}

	now := s.now().Unix()
	s.sampleFrame(ctx, userID, state, req.FrameB64, now)

	if len(req.AudioPCM) > 0 && s.detector != nil {
		if speech, _ := s.detector.Detect(req.AudioPCM); speech {
			state.SpeechDetected = true
			state.LastSpeechTime = now
		}
	}

	if req.SpeakingTime > 0 {
		state.InterviewTimeUsed += req.SpeakingTime
	}
	state.LastActivityTime = now

	if !req.IsFinal {
		chunk := strings.TrimSpace(req.Answer)
		if chunk != "" {
			if state.CurrentAnswer == "" {
				state.CurrentAnswer = chunk
			} else {
				state.CurrentAnswer += " " + chunk
			}
		}
		s.store.SaveInterviewState(ctx, userID, sessionRef, state)
		return &AnswerResult{
			Status:         StatusPartialSaved,
			QuestionNumber: state.CurrentQuestion + 1,
			TotalQuestions: len(state.Questions),
			RemainingTime:  remaining,
		}, nil
	}

	if state.CurrentQuestion >= len(state.Questions) {
		return nil, errors.InvalidArgument("no question is awaiting an answer")
	}
	question := state.Questions[state.CurrentQuestion]

	// An answer that was recorded but never rated is a failed evaluation
	// awaiting retry. Everything else with no pending question is a duplicate
	// or out-of-order submission.
	retrying := !state.WaitingForAnswer && len(state.Answers) > len(state.Ratings)

	var answer, transcript string
	if retrying {
		answer = state.Answers[len(state.Answers)-1]
		transcript = answer
		for i := len(state.ConversationHistory) - 1; i >= 0; i-- {
			if state.ConversationHistory[i].Speaker == "user" {
				transcript = state.ConversationHistory[i].Text
				break
			}
		}
	} else {
		if !state.WaitingForAnswer {
			return nil, errors.InvalidArgument("no question is awaiting an answer")
		}
		answer = strings.TrimSpace(req.Answer)
		if answer == "" {
			answer = strings.TrimSpace(state.CurrentAnswer)
		}
		if answer == "" {
			return nil, errors.InvalidArgument("answer is empty")
		}
		transcript = s.transcriptText(ctx, answer, state.Language)
		state.Answers = append(state.Answers, answer)
		state.ConversationHistory = append(state.ConversationHistory, store.Turn{Speaker: "user", Text: transcript})
		state.CurrentAnswer = ""
		state.WaitingForAnswer = false
	}

	rating, err := s.evaluator.Evaluate(ctx, question, answer, state.DifficultyLevel)
	if err != nil {
		// Strict evaluation: the answer stays recorded, the question is not
		// advanced, and the client may retry the submission.
		s.store.SaveInterviewState(ctx, userID, sessionRef, state)
		return nil, err
	}
	state.Ratings = append(state.Ratings, *rating)
	state.CurrentQuestion++

	result := &AnswerResult{
		Status:         StatusSuccess,
		QuestionNumber: state.CurrentQuestion,
		TotalQuestions: len(state.Questions),
		RemainingTime:  remaining,
		Answer:         transcript,
	}
	if state.CurrentQuestion >= len(state.Questions) {
		s.complete(ctx, userID, sessionRef, state, store.ScheduleStatusCompleted)
		result.Status = StatusInterviewComplete
		return result, nil
	}

	s.store.SaveInterviewState(ctx, userID, sessionRef, state)
	if s.registry != nil {
		s.registry.Touch(userID, len(state.Answers))
	}
	return result, nil
}

// sampleFrame feeds a camera frame to the observer, throttled to one frame
// per configured interval. Failures never affect the answer path.
func (s *Service) sampleFrame(ctx context.Context, userID string, state *store.InterviewState, frameB64 string, now int64) {
	if frameB64 == "" || s.observer == nil || !s.profile.VisualEnabled {
		return
	}
	if now-state.LastFrameTime < int64(s.profile.FrameInterval.Seconds()) {
		return
	}
	state.LastFrameTime = now

	obs, err := s.observer.Analyze(ctx, userID, frameB64, "answering question "+strconv.Itoa(state.CurrentQuestion+1))
	if err != nil {
		slog.Warn("frame analysis failed", "user_id", userID, "error", err)
		return
	}
	if raw, err := vision.EncodeObservation(obs); err == nil {
		state.VisualFeedbackData = append(state.VisualFeedbackData, store.VisualSample{Timestamp: now, Feedback: raw})
	}
}

// transcriptText returns the text recorded in the conversation history.
// Bilingual answers are translated to English when possible.
func (s *Service) transcriptText(ctx context.Context, answer, language string) string {
	if language != "bilingual" || s.translator == nil {
		return answer
	}
	translated, err := s.translator.Translate(ctx, answer, "English")
	if err != nil || strings.TrimSpace(translated) == "" {
		slog.Warn("transcript translation failed, keeping original", "error", err)
		return answer
	}
	return translated
}

// SpeechStatus reports pause detection for the active answer.
type SpeechStatus struct {
	SpeechDetected bool    `json:"speech_detected"`
	SpeechEnded    bool    `json:"speech_ended"`
	SpeechRatio    float64 `json:"speech_ratio"`
	RemainingTime  float64 `json:"remaining_time"`
}

// CheckSpeech runs voice activity detection on a monitoring clip and reports
// whether the candidate has paused longer than the configured threshold since
// last speaking.
func (s *Service) CheckSpeech(ctx context.Context, userID, sessionRef string, pcm []byte) (*SpeechStatus, error) {
	state := s.store.GetInterviewState(ctx, userID, sessionRef)
	if !state.InterviewStarted {
		return nil, errors.InterviewNotStarted("no interview in progress")
	}

	now := s.now().Unix()
	var ratio float64
	if s.detector != nil && len(pcm) > 0 {
		var speech bool
		speech, ratio = s.detector.Detect(pcm)
		if speech {
			state.SpeechDetected = true
			state.LastSpeechTime = now
		}
	}
	state.LastActivityTime = now

	ended := state.SpeechDetected &&
		state.LastSpeechTime > 0 &&
		now-state.LastSpeechTime > int64(s.profile.PauseThreshold.Seconds())

	s.store.SaveInterviewState(ctx, userID, sessionRef, state)
	return &SpeechStatus{
		SpeechDetected: state.SpeechDetected,
		SpeechEnded:    ended,
		SpeechRatio:    ratio,
		RemainingTime:  s.remaining(state),
	}, nil
}

// StatusResult is a read-only snapshot of the run.
type StatusResult struct {
	InterviewStarted bool    `json:"interview_started"`
	WaitingForAnswer bool    `json:"waiting_for_answer"`
	CurrentQuestion  int     `json:"current_question"`
	TotalQuestions   int     `json:"total_questions"`
	QuestionsAsked   int     `json:"questions_asked"`
	RemainingTime    float64 `json:"remaining_time"`
	TimeUsed         float64 `json:"time_used"`
	ReportGenerated  bool    `json:"report_generated"`
}

// Status reports run progress without mutating state.
func (s *Service) Status(ctx context.Context, userID, sessionRef string) *StatusResult {
	state := s.store.GetInterviewState(ctx, userID, sessionRef)
	asked := 0
	for _, turn := range state.ConversationHistory {
		if turn.Speaker == "bot" {
			asked++
		}
	}
	return &StatusResult{
		InterviewStarted: state.InterviewStarted,
		WaitingForAnswer: state.WaitingForAnswer,
		CurrentQuestion:  state.CurrentQuestion,
		TotalQuestions:   len(state.Questions),
		QuestionsAsked:   asked,
		RemainingTime:    s.remaining(state),
		TimeUsed:         state.InterviewTimeUsed,
		ReportGenerated:  state.ReportGenerated,
	}
}

// Reset discards the run immediately. Storage errors are swallowed by the
// store facade, so reset always succeeds from the caller's view.
func (s *Service) Reset(ctx context.Context, userID string) {
	s.store.ClearInterviewState(ctx, userID)
	if s.observer != nil {
		s.observer.Forget(userID)
	}
	if s.registry != nil {
		s.registry.End(userID, "reset")
	}
}

// remaining returns wall-clock seconds left in the run budget.
func (s *Service) remaining(state *store.InterviewState) float64 {
	if !state.InterviewStarted || state.StartTime == 0 {
		return 0
	}
	elapsed := float64(s.now().Unix() - state.StartTime)
	left := s.profile.InterviewDuration.Seconds() - elapsed
	if left < 0 {
		return 0
	}
	return left
}

// complete ends the run and pushes the terminal status to the candidate's
// schedule when one exists.
func (s *Service) complete(ctx context.Context, userID, sessionRef string, state *store.InterviewState, scheduleStatus string) {
	if state.EndTime == 0 {
		state.EndTime = s.now().Unix()
	}
	state.WaitingForAnswer = false
	s.store.SaveInterviewState(ctx, userID, sessionRef, state)

	if s.registry != nil {
		outcome := "completed"
		if scheduleStatus == store.ScheduleStatusTimedOut {
			outcome = "timed_out"
		}
		s.registry.End(userID, outcome)
	}

	if state.StudentInfo.RollNo == "" {
		return
	}
	schedule, err := s.store.LatestScheduleFor(ctx, state.StudentInfo.RollNo)
	if err != nil || schedule == nil || schedule.Status != store.ScheduleStatusScheduled {
		return
	}
	if err := s.store.UpdateSchedule(ctx, &store.UpdateSchedule{ID: schedule.ID, Status: &scheduleStatus}); err != nil {
		slog.Warn("schedule status update failed", "schedule_id", schedule.ID, "error", err)
	}
}

// voice synthesizes question audio. Failures degrade to text-only serving.
func (s *Service) voice(ctx context.Context, question, language string) string {
	if s.speech == nil {
		return ""
	}
	audio, err := s.speech.Synthesize(ctx, question, language)
	if err != nil {
		slog.Warn("question speech synthesis failed", "error", err)
		return ""
	}
	return audio
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
