// Package monitor tracks live interview runs and coarse service counters for
// the admin monitoring surface. This is a lightweight in-process view, not an
// enterprise monitoring solution.
package monitor

import (
	"sync"
	"time"
)

const historySize = 100

// ActiveRun is one interview currently in progress.
type ActiveRun struct {
	UserID            string    `json:"user_id"`
	RollNo            string    `json:"roll_no"`
	Difficulty        string    `json:"difficulty"`
	TotalQuestions    int       `json:"total_questions"`
	QuestionsAnswered int       `json:"questions_answered"`
	StartedAt         time.Time `json:"started_at"`
	LastActivityAt    time.Time `json:"last_activity_at"`
}

// FinishedRun is one completed history entry.
type FinishedRun struct {
	UserID            string    `json:"user_id"`
	RollNo            string    `json:"roll_no"`
	Difficulty        string    `json:"difficulty"`
	QuestionsAnswered int       `json:"questions_answered"`
	Outcome           string    `json:"outcome"` // "completed", "timed_out", "reset"
	StartedAt         time.Time `json:"started_at"`
	EndedAt           time.Time `json:"ended_at"`
}

// Registry tracks live runs and keeps a bounded history of finished ones.
type Registry struct {
	mu      sync.RWMutex
	active  map[string]*ActiveRun
	history []FinishedRun

	now func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]*ActiveRun),
		now:    time.Now,
	}
}

// Begin records a freshly started run. A second Begin for the same user
// replaces the previous entry.
func (r *Registry) Begin(userID, rollNo, difficulty string, totalQuestions int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.active[userID] = &ActiveRun{
		UserID:         userID,
		RollNo:         rollNo,
		Difficulty:     difficulty,
		TotalQuestions: totalQuestions,
		StartedAt:      now,
		LastActivityAt: now,
	}
}

// Touch refreshes activity for a run.
func (r *Registry) Touch(userID string, questionsAnswered int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.active[userID]
	if !ok {
		return
	}
	run.QuestionsAnswered = questionsAnswered
	run.LastActivityAt = r.now()
}

// End moves a run into history with the given outcome. Unknown users are
// ignored so End is safe to call from reset paths.
func (r *Registry) End(userID, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endLocked(userID, outcome)
}

func (r *Registry) endLocked(userID, outcome string) {
	run, ok := r.active[userID]
	if !ok {
		return
	}
	delete(r.active, userID)

	r.history = append(r.history, FinishedRun{
		UserID:            run.UserID,
		RollNo:            run.RollNo,
		Difficulty:        run.Difficulty,
		QuestionsAnswered: run.QuestionsAnswered,
		Outcome:           outcome,
		StartedAt:         run.StartedAt,
		EndedAt:           r.now(),
	})
	if len(r.history) > historySize {
		r.history = r.history[len(r.history)-historySize:]
	}
}

// CleanupStale ends runs idle longer than staleAfter with a timed_out
// outcome and returns how many were cleaned.
func (r *Registry) CleanupStale(staleAfter time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-staleAfter)
	cleaned := 0
	for userID, run := range r.active {
		if run.LastActivityAt.Before(cutoff) {
			r.endLocked(userID, "timed_out")
			cleaned++
		}
	}
	return cleaned
}

// Active returns a snapshot of live runs.
func (r *Registry) Active() []ActiveRun {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]ActiveRun, 0, len(r.active))
	for _, run := range r.active {
		runs = append(runs, *run)
	}
	return runs
}

// History returns a snapshot of finished runs, newest last.
func (r *Registry) History() []FinishedRun {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := make([]FinishedRun, len(r.history))
	copy(history, r.history)
	return history
}

// Counters are coarse request counters for the whole service.
type Counters struct {
	mu        sync.Mutex
	requests  int64
	errors    int64
	startedAt time.Time
}

// NewCounters creates counters anchored at the current time.
func NewCounters() *Counters {
	return &Counters{startedAt: time.Now()}
}

// CountRequest records one handled request.
func (c *Counters) CountRequest() {
	c.mu.Lock()
	c.requests++
	c.mu.Unlock()
}

// CountError records one failed request.
func (c *Counters) CountError() {
	c.mu.Lock()
	c.errors++
	c.mu.Unlock()
}

// CountersSnapshot is the serialized counter view.
type CountersSnapshot struct {
	Requests      int64   `json:"requests"`
	Errors        int64   `json:"errors"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Snapshot returns current counter values.
func (c *Counters) Snapshot() CountersSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CountersSnapshot{
		Requests:      c.requests,
		Errors:        c.errors,
		UptimeSeconds: time.Since(c.startedAt).Seconds(),
	}
}
