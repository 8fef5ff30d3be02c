package store

// Schedule is a recruiter-created interview booking. The latest scheduled row
// for a candidate supplies difficulty, language and JD when the session does
// not carry them yet.
type Schedule struct {
	ID          int32
	Name        string
	RollNo      string
	BatchNo     string
	Center      string
	Course      string
	EvalDate    string
	InterviewTs string
	Difficulty  string
	Language    string
	JDID        string
	Status      string // "Scheduled", "Completed" or "TimedOut"
	CreatedTs   int64
}

const (
	ScheduleStatusScheduled = "Scheduled"
	ScheduleStatusCompleted = "Completed"
	ScheduleStatusTimedOut  = "TimedOut"
)

type FindSchedule struct {
	ID     *int32
	RollNo *string
	Status *string
	Limit  *int
}

type UpdateSchedule struct {
	ID     int32
	Status *string
}

type DeleteSchedule struct {
	ID int32
}

// JobDescription is an uploaded JD document that schedules point at.
type JobDescription struct {
	JDID      string
	Text      string
	AdminID   string
	CreatedTs int64
}

type FindJobDescription struct {
	JDID  *string
	Limit *int
}
