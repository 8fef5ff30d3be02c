package store

import (
	"context"
	"database/sql"

	"github.com/voxhire/voxhire/store/pool"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	PoolStats() pool.Stats
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Session model related methods.
	UpsertSession(ctx context.Context, upsert *UpsertSession) (*Session, error)
	GetSession(ctx context.Context, find *FindSession) (*Session, error)
	ListSessions(ctx context.Context, find *FindSession) ([]*Session, error)
	DeleteSession(ctx context.Context, delete *DeleteSession) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
	CountActiveSessions(ctx context.Context) (int, error)

	// JobDescription model related methods.
	CreateJobDescription(ctx context.Context, create *JobDescription) (*JobDescription, error)
	ListJobDescriptions(ctx context.Context, find *FindJobDescription) ([]*JobDescription, error)

	// Schedule model related methods.
	CreateSchedule(ctx context.Context, create *Schedule) (*Schedule, error)
	ListSchedules(ctx context.Context, find *FindSchedule) ([]*Schedule, error)
	UpdateSchedule(ctx context.Context, update *UpdateSchedule) error
	DeleteSchedule(ctx context.Context, delete *DeleteSchedule) error

	// RatingRecord model related methods.
	CreateRatingRecord(ctx context.Context, create *RatingRecord) (*RatingRecord, error)
	ListRatingRecords(ctx context.Context, find *FindRatingRecord) ([]*RatingRecord, error)

	// VisualFeedback model related methods.
	UpsertVisualFeedback(ctx context.Context, upsert *VisualFeedback) (*VisualFeedback, error)
	GetVisualFeedback(ctx context.Context, find *FindVisualFeedback) (*VisualFeedback, error)

	// PerformanceReport model related methods.
	CreatePerformanceReport(ctx context.Context, create *PerformanceReport) (*PerformanceReport, error)
	GetPerformanceReport(ctx context.Context, find *FindPerformanceReport) (*PerformanceReport, error)
}
