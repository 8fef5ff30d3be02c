package store

import (
	"time"
)

// StudentInfo carries the candidate identity attached to a session.
type StudentInfo struct {
	Name     string `json:"name"`
	RollNo   string `json:"roll_no"`
	BatchNo  string `json:"batch_no"`
	Center   string `json:"center"`
	Course   string `json:"course"`
	EvalDate string `json:"eval_date"`
}

// Turn is a single exchange in the interview transcript.
type Turn struct {
	Speaker string `json:"speaker"` // "bot" or "user"
	Text    string `json:"text"`
}

// Rating holds the five category scores for one answer, each in [1, 10].
type Rating struct {
	Technical      float64 `json:"technical"`
	Communication  float64 `json:"communication"`
	ProblemSolving float64 `json:"problem_solving"`
	TimeManagement float64 `json:"time_management"`
	Overall        float64 `json:"overall"`
}

// VisualSample is one throttled camera-frame observation.
type VisualSample struct {
	Timestamp int64  `json:"timestamp"`
	Feedback  string `json:"feedback"`
}

// InterviewState is the full per-candidate run state. It is serialized as a
// JSON document into the session row, so a crashed or restarted server can
// pick an interview back up from storage.
type InterviewState struct {
	Questions           []string       `json:"questions"`
	Answers             []string       `json:"answers"`
	Ratings             []Rating       `json:"ratings"`
	CurrentQuestion     int            `json:"current_question"`
	InterviewStarted    bool           `json:"interview_started"`
	ConversationHistory []Turn         `json:"conversation_history"`
	JDText              string         `json:"jd_text"`
	DifficultyLevel     string         `json:"difficulty_level"`
	Language            string         `json:"language"`
	StudentInfo         StudentInfo    `json:"student_info"`
	InterviewTs         string         `json:"interview_ts"`
	StartTime           int64          `json:"start_time"` // unix seconds, 0 = not started
	EndTime             int64          `json:"end_time"`
	LastActivityTime    int64          `json:"last_activity_time"`
	LastFrameTime       int64          `json:"last_frame_time"`
	LastSpeechTime      int64          `json:"last_speech_time"`
	SpeechDetected      bool           `json:"speech_detected"`
	CurrentAnswer       string         `json:"current_answer"`
	InterviewTimeUsed   float64        `json:"interview_time_used"` // cumulative speaking seconds
	VisualFeedbackData  []VisualSample `json:"visual_feedback_data"`
	WaitingForAnswer    bool           `json:"waiting_for_answer"`
	ReportGenerated     bool           `json:"report_generated"`
}

// NewInterviewState returns a zeroed run state with non-nil slices.
func NewInterviewState() *InterviewState {
	return &InterviewState{
		Questions:           []string{},
		Answers:             []string{},
		Ratings:             []Rating{},
		ConversationHistory: []Turn{},
		VisualFeedbackData:  []VisualSample{},
	}
}

// ResetRun clears run-scoped fields while keeping identity fields
// (student info, JD, difficulty, language) intact.
func (s *InterviewState) ResetRun() {
	s.Questions = []string{}
	s.Answers = []string{}
	s.Ratings = []Rating{}
	s.CurrentQuestion = 0
	s.InterviewStarted = false
	s.ConversationHistory = []Turn{}
	s.StartTime = 0
	s.EndTime = 0
	s.LastActivityTime = 0
	s.LastFrameTime = 0
	s.LastSpeechTime = 0
	s.SpeechDetected = false
	s.CurrentAnswer = ""
	s.InterviewTimeUsed = 0
	s.VisualFeedbackData = []VisualSample{}
	s.WaitingForAnswer = false
	s.ReportGenerated = false
}

// Session is one stored interview session row.
type Session struct {
	UserID     string
	SessionRef string
	State      *InterviewState
	CreatedTs  int64
	UpdatedTs  int64
	ExpiresTs  int64
}

// UpsertSession creates or refreshes a session row keyed by (user_id, session_ref).
type UpsertSession struct {
	UserID     string
	SessionRef string
	State      *InterviewState
	TTL        time.Duration
}

// FindSession locates sessions. With SessionRef nil the latest live row for
// the user wins.
type FindSession struct {
	UserID     string
	SessionRef *string
}

// DeleteSession removes sessions. With SessionRef nil all rows for the user go.
type DeleteSession struct {
	UserID     string
	SessionRef *string
}
