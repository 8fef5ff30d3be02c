package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/voxhire/voxhire/internal/profile"
	"github.com/voxhire/voxhire/store/pool"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	sessionTTL time.Duration
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	sessionTTL := 4600 * time.Second
	if profile != nil && profile.SessionTTL > 0 {
		sessionTTL = profile.SessionTTL
	}

	return &Store{
		driver:     driver,
		profile:    profile,
		sessionTTL: sessionTTL,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// PoolStats reports the driver connection pool snapshot.
func (s *Store) PoolStats() pool.Stats {
	return s.driver.PoolStats()
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// GetInterviewState loads the run state for a user. A missing row, an expired
// row and a storage failure all yield a fresh state: the interview layer must
// keep serving candidates even when the backing store is degraded, so errors
// are logged and swallowed here.
func (s *Store) GetInterviewState(ctx context.Context, userID, sessionRef string) *InterviewState {
	find := &FindSession{UserID: userID}
	if sessionRef != "" {
		find.SessionRef = &sessionRef
	}
	session, err := s.driver.GetSession(ctx, find)
	if err != nil {
		slog.Error("failed to load interview session", "user_id", userID, "error", err)
		return NewInterviewState()
	}
	if session == nil || session.State == nil {
		return NewInterviewState()
	}
	return session.State
}

// SaveInterviewState upserts the run state, refreshing the row TTL.
// Storage failures are logged and swallowed for the same reason as above.
func (s *Store) SaveInterviewState(ctx context.Context, userID, sessionRef string, state *InterviewState) {
	_, err := s.driver.UpsertSession(ctx, &UpsertSession{
		UserID:     userID,
		SessionRef: sessionRef,
		State:      state,
		TTL:        s.sessionTTL,
	})
	if err != nil {
		slog.Error("failed to save interview session", "user_id", userID, "error", err)
	}
}

// ClearInterviewState deletes all session rows for a user.
func (s *Store) ClearInterviewState(ctx context.Context, userID string) {
	if err := s.driver.DeleteSession(ctx, &DeleteSession{UserID: userID}); err != nil {
		slog.Error("failed to clear interview session", "user_id", userID, "error", err)
	}
}

func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	return s.driver.DeleteExpiredSessions(ctx)
}

func (s *Store) CountActiveSessions(ctx context.Context) (int, error) {
	return s.driver.CountActiveSessions(ctx)
}

// LatestScheduleFor returns the most recent scheduled booking for a candidate,
// or nil when none exists.
func (s *Store) LatestScheduleFor(ctx context.Context, rollNo string) (*Schedule, error) {
	limit := 1
	schedules, err := s.driver.ListSchedules(ctx, &FindSchedule{
		RollNo: &rollNo,
		Limit:  &limit,
	})
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, nil
	}
	return schedules[0], nil
}

func (s *Store) CreateJobDescription(ctx context.Context, create *JobDescription) (*JobDescription, error) {
	return s.driver.CreateJobDescription(ctx, create)
}

func (s *Store) ListJobDescriptions(ctx context.Context, find *FindJobDescription) ([]*JobDescription, error) {
	return s.driver.ListJobDescriptions(ctx, find)
}

// GetJobDescriptionText resolves a JD id to its text, "" when absent.
func (s *Store) GetJobDescriptionText(ctx context.Context, jdID string) (string, error) {
	if jdID == "" {
		return "", nil
	}
	jds, err := s.driver.ListJobDescriptions(ctx, &FindJobDescription{JDID: &jdID})
	if err != nil {
		return "", err
	}
	if len(jds) == 0 {
		return "", nil
	}
	return jds[0].Text, nil
}

func (s *Store) CreateSchedule(ctx context.Context, create *Schedule) (*Schedule, error) {
	return s.driver.CreateSchedule(ctx, create)
}

func (s *Store) ListSchedules(ctx context.Context, find *FindSchedule) ([]*Schedule, error) {
	return s.driver.ListSchedules(ctx, find)
}

func (s *Store) UpdateSchedule(ctx context.Context, update *UpdateSchedule) error {
	return s.driver.UpdateSchedule(ctx, update)
}

func (s *Store) CreateRatingRecord(ctx context.Context, create *RatingRecord) (*RatingRecord, error) {
	return s.driver.CreateRatingRecord(ctx, create)
}

func (s *Store) ListRatingRecords(ctx context.Context, find *FindRatingRecord) ([]*RatingRecord, error) {
	return s.driver.ListRatingRecords(ctx, find)
}

func (s *Store) UpsertVisualFeedback(ctx context.Context, upsert *VisualFeedback) (*VisualFeedback, error) {
	return s.driver.UpsertVisualFeedback(ctx, upsert)
}

func (s *Store) GetVisualFeedback(ctx context.Context, find *FindVisualFeedback) (*VisualFeedback, error) {
	return s.driver.GetVisualFeedback(ctx, find)
}

func (s *Store) CreatePerformanceReport(ctx context.Context, create *PerformanceReport) (*PerformanceReport, error) {
	return s.driver.CreatePerformanceReport(ctx, create)
}

func (s *Store) GetPerformanceReport(ctx context.Context, find *FindPerformanceReport) (*PerformanceReport, error) {
	return s.driver.GetPerformanceReport(ctx, find)
}
