package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/voxhire/voxhire/store"
)

func (d *DB) UpsertSession(ctx context.Context, upsert *store.UpsertSession) (*store.Session, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	state, err := json.Marshal(upsert.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session state: %w", err)
	}

	now := time.Now().Unix()
	expires := now + int64(upsert.TTL.Seconds())

	stmt := `INSERT INTO interview_session (user_id, session_ref, state, created_ts, updated_ts, expires_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (user_id, session_ref) DO UPDATE SET
			state = excluded.state,
			updated_ts = excluded.updated_ts,
			expires_ts = excluded.expires_ts`

	if _, err := h.Querier().ExecContext(ctx, stmt,
		upsert.UserID, upsert.SessionRef, string(state), now, now, expires,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert session: %w", err)
	}

	return &store.Session{
		UserID:     upsert.UserID,
		SessionRef: upsert.SessionRef,
		State:      upsert.State,
		CreatedTs:  now,
		UpdatedTs:  now,
		ExpiresTs:  expires,
	}, nil
}

func (d *DB) GetSession(ctx context.Context, find *store.FindSession) (*store.Session, error) {
	limit := 1
	sessions, err := d.listSessions(ctx, find, &limit)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return sessions[0], nil
}

func (d *DB) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	return d.listSessions(ctx, find, nil)
}

func (d *DB) listSessions(ctx context.Context, find *store.FindSession, limit *int) ([]*store.Session, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Release(ctx, h)

	where, args := []string{"expires_ts > " + placeholder(1)}, []any{time.Now().Unix()}

	if find.UserID != "" {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, find.UserID)
	}
	if v := find.SessionRef; v != nil {
		where, args = append(where, "session_ref = "+placeholder(len(args)+1)), append(args, *v)
	}

	// rowid breaks updated_ts ties, which have second granularity.
	query := `
		SELECT user_id, session_ref, state, created_ts, updated_ts, expires_ts
		FROM interview_session
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY updated_ts DESC, rowid DESC`
	if limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *limit)
	}

	rows, err := h.Querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Session, 0)
	for rows.Next() {
		var session store.Session
		var rawState string
		if err := rows.Scan(
			&session.UserID,
			&session.SessionRef,
			&rawState,
			&session.CreatedTs,
			&session.UpdatedTs,
			&session.ExpiresTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		state := store.NewInterviewState()
		if err := json.Unmarshal([]byte(rawState), state); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
		}
		session.State = state
		list = append(list, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteSession(ctx context.Context, delete *store.DeleteSession) error {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer d.pool.Release(ctx, h)

	where, args := []string{"user_id = " + placeholder(1)}, []any{delete.UserID}
	if v := delete.SessionRef; v != nil {
		where, args = append(where, "session_ref = "+placeholder(len(args)+1)), append(args, *v)
	}

	stmt := `DELETE FROM interview_session WHERE ` + strings.Join(where, " AND ")
	if _, err := h.Querier().ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (d *DB) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Release(ctx, h)

	result, err := h.Querier().ExecContext(ctx,
		"DELETE FROM interview_session WHERE expires_ts <= "+placeholder(1), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

func (d *DB) CountActiveSessions(ctx context.Context) (int, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Release(ctx, h)

	var count int
	err = h.Querier().QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT user_id) FROM interview_session WHERE expires_ts > "+placeholder(1),
		time.Now().Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}
	return count, nil
}
