package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/voxhire/voxhire/internal/profile"
	"github.com/voxhire/voxhire/store"
	"github.com/voxhire/voxhire/store/pool"
)

// SQLite is intended for development and small single-node deployments.
// PostgreSQL is the reference driver for production.

type DB struct {
	db      *sql.DB
	pool    *pool.Pool
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	driver := DB{
		db:      db,
		profile: profile,
		pool: pool.New(db, pool.Config{
			MaxConns:       profile.PoolMaxConns,
			AcquireTimeout: profile.PoolAcquireTimeout,
		}),
	}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) PoolStats() pool.Stats {
	return d.pool.Stats()
}

func (d *DB) Close() error {
	d.pool.Close()
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'interview_session'").Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return count > 0, nil
}

const latestSchema = `
CREATE TABLE IF NOT EXISTS interview_session (
	user_id TEXT NOT NULL,
	session_ref TEXT NOT NULL,
	state TEXT NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL,
	expires_ts BIGINT NOT NULL,
	PRIMARY KEY (user_id, session_ref)
);

CREATE INDEX IF NOT EXISTS idx_interview_session_expires ON interview_session (expires_ts);

CREATE TABLE IF NOT EXISTS job_description (
	jd_id TEXT PRIMARY KEY,
	jd_text TEXT NOT NULL,
	admin_id TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS interview_schedule (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL DEFAULT '',
	roll_no TEXT NOT NULL,
	batch_no TEXT NOT NULL DEFAULT '',
	center TEXT NOT NULL DEFAULT '',
	course TEXT NOT NULL DEFAULT '',
	eval_date TEXT NOT NULL DEFAULT '',
	interview_ts TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	jd_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'Scheduled',
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interview_schedule_roll_no ON interview_schedule (roll_no);

CREATE TABLE IF NOT EXISTS interview_rating (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	roll_no TEXT NOT NULL,
	interview_ts TEXT NOT NULL,
	technical REAL NOT NULL,
	communication REAL NOT NULL,
	problem_solving REAL NOT NULL,
	time_management REAL NOT NULL,
	overall REAL NOT NULL,
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS visual_feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	roll_no TEXT NOT NULL,
	interview_ts TEXT NOT NULL,
	posture TEXT NOT NULL DEFAULT '',
	expressions TEXT NOT NULL DEFAULT '',
	distractions TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL,
	UNIQUE (roll_no, interview_ts)
);

CREATE TABLE IF NOT EXISTS performance_report (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	roll_no TEXT NOT NULL,
	interview_ts TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	batch_no TEXT NOT NULL DEFAULT '',
	center TEXT NOT NULL DEFAULT '',
	course TEXT NOT NULL DEFAULT '',
	eval_date TEXT NOT NULL DEFAULT '',
	report_html TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL,
	UNIQUE (roll_no, interview_ts)
);
`

// Migrate applies the latest schema. Statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}
