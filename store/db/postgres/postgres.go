package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/voxhire/voxhire/internal/profile"
	"github.com/voxhire/voxhire/store"
	"github.com/voxhire/voxhire/store/pool"
)

// PostgreSQL is the reference driver for production deployments with many
// concurrent interviews. SQLite covers development and small installs.

type DB struct {
	db      *sql.DB
	pool    *pool.Pool
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// Keep database/sql's own limits slightly above the checkout pool so the
	// direct-connection fallback still has headroom.
	db.SetMaxOpenConns(profile.PoolMaxConns + 5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

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
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_catalog = current_database() AND table_name = 'interview_session' AND table_type = 'BASE TABLE')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

const latestSchema = `
CREATE TABLE IF NOT EXISTS interview_session (
	id BIGSERIAL,
	user_id TEXT NOT NULL,
	session_ref TEXT NOT NULL,
	state JSONB NOT NULL DEFAULT '{}',
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
	id SERIAL PRIMARY KEY,
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
	id SERIAL PRIMARY KEY,
	roll_no TEXT NOT NULL,
	interview_ts TEXT NOT NULL,
	technical DOUBLE PRECISION NOT NULL,
	communication DOUBLE PRECISION NOT NULL,
	problem_solving DOUBLE PRECISION NOT NULL,
	time_management DOUBLE PRECISION NOT NULL,
	overall DOUBLE PRECISION NOT NULL,
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS visual_feedback (
	id SERIAL PRIMARY KEY,
	roll_no TEXT NOT NULL,
	interview_ts TEXT NOT NULL,
	posture TEXT NOT NULL DEFAULT '',
	expressions TEXT NOT NULL DEFAULT '',
	distractions TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL,
	UNIQUE (roll_no, interview_ts)
);

CREATE TABLE IF NOT EXISTS performance_report (
	id SERIAL PRIMARY KEY,
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
