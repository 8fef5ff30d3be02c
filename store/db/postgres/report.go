package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxhire/voxhire/store"
)

func (d *DB) CreateRatingRecord(ctx context.Context, create *store.RatingRecord) (*store.RatingRecord, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	create.CreatedTs = time.Now().Unix()
	stmt := `INSERT INTO interview_rating
		(roll_no, interview_ts, technical, communication, problem_solving, time_management, overall, created_ts)
		VALUES (` + placeholders(8) + `)
		RETURNING id`
	if err := h.Querier().QueryRowContext(ctx, stmt,
		create.RollNo, create.InterviewTs,
		create.Technical, create.Communication, create.ProblemSolving, create.TimeManagement, create.Overall,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create rating record: %w", err)
	}
	return create, nil
}

func (d *DB) ListRatingRecords(ctx context.Context, find *store.FindRatingRecord) ([]*store.RatingRecord, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	where, args := []string{"1 = 1"}, []any{}
	if v := find.RollNo; v != nil {
		where, args = append(where, "roll_no = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.InterviewTs; v != nil {
		where, args = append(where, "interview_ts = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, roll_no, interview_ts, technical, communication, problem_solving, time_management, overall, created_ts
		FROM interview_rating
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := h.Querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating records: %w", err)
	}
	defer rows.Close()

	list := make([]*store.RatingRecord, 0)
	for rows.Next() {
		var record store.RatingRecord
		if err := rows.Scan(
			&record.ID,
			&record.RollNo,
			&record.InterviewTs,
			&record.Technical,
			&record.Communication,
			&record.ProblemSolving,
			&record.TimeManagement,
			&record.Overall,
			&record.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rating record: %w", err)
		}
		list = append(list, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rating records: %w", err)
	}

	return list, nil
}

func (d *DB) UpsertVisualFeedback(ctx context.Context, upsert *store.VisualFeedback) (*store.VisualFeedback, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	upsert.CreatedTs = time.Now().Unix()
	stmt := `INSERT INTO visual_feedback
		(roll_no, interview_ts, posture, expressions, distractions, created_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (roll_no, interview_ts) DO UPDATE SET
			posture = excluded.posture,
			expressions = excluded.expressions,
			distractions = excluded.distractions`
	if _, err := h.Querier().ExecContext(ctx, stmt,
		upsert.RollNo, upsert.InterviewTs,
		upsert.Posture, upsert.Expressions, upsert.Distractions,
		upsert.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert visual feedback: %w", err)
	}
	return upsert, nil
}

func (d *DB) GetVisualFeedback(ctx context.Context, find *store.FindVisualFeedback) (*store.VisualFeedback, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	where, args := []string{"1 = 1"}, []any{}
	if v := find.RollNo; v != nil {
		where, args = append(where, "roll_no = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.InterviewTs; v != nil {
		where, args = append(where, "interview_ts = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, roll_no, interview_ts, posture, expressions, distractions, created_ts
		FROM visual_feedback
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC LIMIT 1`

	var feedback store.VisualFeedback
	err = h.Querier().QueryRowContext(ctx, query, args...).Scan(
		&feedback.ID,
		&feedback.RollNo,
		&feedback.InterviewTs,
		&feedback.Posture,
		&feedback.Expressions,
		&feedback.Distractions,
		&feedback.CreatedTs,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get visual feedback: %w", err)
	}
	return &feedback, nil
}

func (d *DB) CreatePerformanceReport(ctx context.Context, create *store.PerformanceReport) (*store.PerformanceReport, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	create.CreatedTs = time.Now().Unix()
	stmt := `INSERT INTO performance_report
		(roll_no, interview_ts, name, batch_no, center, course, eval_date, report_html, created_ts)
		VALUES (` + placeholders(9) + `)
		ON CONFLICT (roll_no, interview_ts) DO NOTHING`
	if _, err := h.Querier().ExecContext(ctx, stmt,
		create.RollNo, create.InterviewTs,
		create.Name, create.BatchNo, create.Center, create.Course, create.EvalDate,
		create.ReportHTML, create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create performance report: %w", err)
	}
	return create, nil
}

func (d *DB) GetPerformanceReport(ctx context.Context, find *store.FindPerformanceReport) (*store.PerformanceReport, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	where, args := []string{"1 = 1"}, []any{}
	if v := find.RollNo; v != nil {
		where, args = append(where, "roll_no = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.InterviewTs; v != nil {
		where, args = append(where, "interview_ts = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, roll_no, interview_ts, name, batch_no, center, course, eval_date, report_html, created_ts
		FROM performance_report
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC LIMIT 1`

	var report store.PerformanceReport
	err = h.Querier().QueryRowContext(ctx, query, args...).Scan(
		&report.ID,
		&report.RollNo,
		&report.InterviewTs,
		&report.Name,
		&report.BatchNo,
		&report.Center,
		&report.Course,
		&report.EvalDate,
		&report.ReportHTML,
		&report.CreatedTs,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get performance report: %w", err)
	}
	return &report, nil
}
