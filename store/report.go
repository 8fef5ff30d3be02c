package store

// RatingRecord is the persisted per-interview aggregate of category scores.
type RatingRecord struct {
	ID             int32
	RollNo         string
	InterviewTs    string
	Technical      float64
	Communication  float64
	ProblemSolving float64
	TimeManagement float64
	Overall        float64
	CreatedTs      int64
}

type FindRatingRecord struct {
	RollNo      *string
	InterviewTs *string
	Limit       *int
}

// VisualFeedback is the persisted camera-presence summary for one interview.
type VisualFeedback struct {
	ID           int32
	RollNo       string
	InterviewTs  string
	Posture      string
	Expressions  string
	Distractions string
	CreatedTs    int64
}

type FindVisualFeedback struct {
	RollNo      *string
	InterviewTs *string
}

// PerformanceReport is the rendered report document. At most one row exists
// per (roll_no, interview_ts).
type PerformanceReport struct {
	ID          int32
	RollNo      string
	InterviewTs string
	Name        string
	BatchNo     string
	Center      string
	Course      string
	EvalDate    string
	ReportHTML  string
	CreatedTs   int64
}

type FindPerformanceReport struct {
	RollNo      *string
	InterviewTs *string
}
