package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bidwatch/bidwatch/models"
)

// CreateScriptLog persists one run-summary record. Logs are append-only.
func (s *Store) CreateScriptLog(ctx context.Context, l models.ScriptLog) (models.ScriptLog, error) {
	if l.Script == "" {
		return models.ScriptLog{}, fmt.Errorf("script name required")
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	data, err := json.Marshal(l.Data)
	if err != nil {
		return models.ScriptLog{}, fmt.Errorf("marshal log data: %w", err)
	}
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO script_logs (id, script, message, success_count, fail_count, dup_count, junk_count, elapsed, data)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING created_at
`, l.ID, l.Script, l.Message, l.SuccessCount, l.FailCount, l.DupCount, l.JunkCount, l.Elapsed, data)
	if err := row.Scan(&l.CreatedAt); err != nil {
		return models.ScriptLog{}, err
	}
	return l, nil
}

// LatestScriptLog returns the most recent log for a script, used to recover
// resumable-session bookmarks and the last-run time for scheduling.
func (s *Store) LatestScriptLog(ctx context.Context, script string) (models.ScriptLog, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, script, message, success_count, fail_count, dup_count, junk_count, elapsed, data, created_at
FROM script_logs WHERE script=$1 ORDER BY created_at DESC LIMIT 1
`, script)
	l, err := scanScriptLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ScriptLog{}, false, nil
		}
		return models.ScriptLog{}, false, err
	}
	return l, true, nil
}

// ListScriptLogs returns logs newest first, optionally filtered by script.
func (s *Store) ListScriptLogs(ctx context.Context, script string, limit int) ([]models.ScriptLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		rows *sql.Rows
		err  error
	)
	if script == "" {
		rows, err = s.DB.QueryContext(ctx, `
SELECT id, script, message, success_count, fail_count, dup_count, junk_count, elapsed, data, created_at
FROM script_logs ORDER BY created_at DESC LIMIT $1
`, limit)
	} else {
		rows, err = s.DB.QueryContext(ctx, `
SELECT id, script, message, success_count, fail_count, dup_count, junk_count, elapsed, data, created_at
FROM script_logs WHERE script=$1 ORDER BY created_at DESC LIMIT $2
`, script, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScriptLog
	for rows.Next() {
		l, err := scanScriptLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanScriptLog(r rowScanner) (models.ScriptLog, error) {
	var (
		l    models.ScriptLog
		data []byte
	)
	err := r.Scan(&l.ID, &l.Script, &l.Message, &l.SuccessCount, &l.FailCount,
		&l.DupCount, &l.JunkCount, &l.Elapsed, &data, &l.CreatedAt)
	if err != nil {
		return models.ScriptLog{}, err
	}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &l.Data)
	}
	return l, nil
}
