package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxhire/voxhire/store"
)

func (d *DB) CreateSchedule(ctx context.Context, create *store.Schedule) (*store.Schedule, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	if create.Status == "" {
		create.Status = store.ScheduleStatusScheduled
	}
	create.CreatedTs = time.Now().Unix()

	fields := []string{
		"name", "roll_no", "batch_no", "center", "course", "eval_date",
		"interview_ts", "difficulty", "language", "jd_id", "status", "created_ts",
	}
	values := []any{
		create.Name, create.RollNo, create.BatchNo, create.Center, create.Course, create.EvalDate,
		create.InterviewTs, create.Difficulty, create.Language, create.JDID, create.Status, create.CreatedTs,
	}

	stmt := `INSERT INTO interview_schedule (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(values)) + `)
		RETURNING id`

	if err := h.Querier().QueryRowContext(ctx, stmt, values...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	return create, nil
}

func (d *DB) ListSchedules(ctx context.Context, find *store.FindSchedule) ([]*store.Schedule, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RollNo; v != nil {
		where, args = append(where, "roll_no = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, name, roll_no, batch_no, center, course, eval_date,
			interview_ts, difficulty, language, jd_id, status, created_ts
		FROM interview_schedule
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := h.Querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Schedule, 0)
	for rows.Next() {
		var schedule store.Schedule
		if err := rows.Scan(
			&schedule.ID,
			&schedule.Name,
			&schedule.RollNo,
			&schedule.BatchNo,
			&schedule.Center,
			&schedule.Course,
			&schedule.EvalDate,
			&schedule.InterviewTs,
			&schedule.Difficulty,
			&schedule.Language,
			&schedule.JDID,
			&schedule.Status,
			&schedule.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		list = append(list, &schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateSchedule(ctx context.Context, update *store.UpdateSchedule) error {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer d.pool.Release(ctx, h)

	set, args := []string{}, []any{}
	if v := update.Status; v != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, update.ID)
	stmt := `UPDATE interview_schedule SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := h.Querier().ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

func (d *DB) DeleteSchedule(ctx context.Context, delete *store.DeleteSchedule) error {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer d.pool.Release(ctx, h)

	if _, err := h.Querier().ExecContext(ctx,
		"DELETE FROM interview_schedule WHERE id = "+placeholder(1), delete.ID); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

func (d *DB) CreateJobDescription(ctx context.Context, create *store.JobDescription) (*store.JobDescription, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	create.CreatedTs = time.Now().Unix()
	stmt := `INSERT INTO job_description (jd_id, jd_text, admin_id, created_ts)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (jd_id) DO UPDATE SET jd_text = excluded.jd_text`
	if _, err := h.Querier().ExecContext(ctx, stmt,
		create.JDID, create.Text, create.AdminID, create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create job description: %w", err)
	}
	return create, nil
}

func (d *DB) ListJobDescriptions(ctx context.Context, find *store.FindJobDescription) ([]*store.JobDescription, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	where, args := []string{"1 = 1"}, []any{}
	if v := find.JDID; v != nil {
		where, args = append(where, "jd_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT jd_id, jd_text, admin_id, created_ts
		FROM job_description
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := h.Querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query job descriptions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.JobDescription, 0)
	for rows.Next() {
		var jd store.JobDescription
		if err := rows.Scan(&jd.JDID, &jd.Text, &jd.AdminID, &jd.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan job description: %w", err)
		}
		list = append(list, &jd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job descriptions: %w", err)
	}

	return list, nil
}
