package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"t00ls_checkin/internal/model"
)

func (s *Store) RecordRun(ctx context.Context, rec model.RunRecord) (model.RunRecord, error) {
	if rec.Username == "" {
		return model.RunRecord{}, errors.New("username is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, username, kind, detail, uid, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Username, string(rec.Kind), rec.Detail, rec.UID, rec.CreatedAt.UnixMilli())
	if err != nil {
		return model.RunRecord{}, err
	}
	return rec, nil
}

func (s *Store) RecentRuns(ctx context.Context, username string, limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, kind, detail, uid, created_at
		FROM runs WHERE username = ?
		ORDER BY created_at DESC LIMIT ?
	`, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		var (
			rec       model.RunRecord
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.Username, &kind, &rec.Detail, &rec.UID, &createdAt); err != nil {
			return nil, err
		}
		rec.Kind = model.OutcomeKind(kind)
		rec.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Streak 统计到 now 为止的连续签到天数（成功或已签都算签上）。
// 按本地日期去重后从今天往回数，中断即停。今天还没签也从昨天起算。
func (s *Store) Streak(ctx context.Context, username string, now time.Time) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT created_at FROM runs
		WHERE username = ? AND kind IN (?, ?)
		ORDER BY created_at DESC LIMIT 400
	`, username, string(model.OutcomeSuccess), string(model.OutcomeAlreadyDone))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	seen := map[string]bool{}
	for rows.Next() {
		var createdAt int64
		if err := rows.Scan(&createdAt); err != nil {
			return 0, err
		}
		seen[dayKey(time.UnixMilli(createdAt).In(now.Location()))] = true
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	day := now
	if !seen[dayKey(day)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for seen[dayKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
