package sqlite

import (
	"context"
	"time"

	"github.com/example/rotation-scheduler/internal/persistence"
)

// SkipWeekRepository implements persistence.SkipWeekRepository using SQLite.
type SkipWeekRepository struct {
	pool *ConnectionPool
}

// NewSkipWeekRepository creates a new SQLite skip week repository.
func NewSkipWeekRepository(pool *ConnectionPool) *SkipWeekRepository {
	return &SkipWeekRepository{pool: pool}
}

// CreateSkipWeek records one exception. The (user, group, period) primary key
// turns a duplicate insert into persistence.ErrDuplicate.
func (r *SkipWeekRepository) CreateSkipWeek(ctx context.Context, skip persistence.SkipWeek) error {
	if skip.UserID == "" || skip.GroupID == "" || skip.PeriodStart == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO skip_weeks (user_id, group_id, period_start, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		skip.UserID,
		skip.GroupID,
		skip.PeriodStart,
		skip.Reason,
		skip.CreatedAt.UTC().Format(time.RFC3339),
	)
	return mapSQLiteError(err)
}

// ListSkipWeeks returns the exceptions declared for one group period.
func (r *SkipWeekRepository) ListSkipWeeks(ctx context.Context, groupID, periodStart string) ([]persistence.SkipWeek, error) {
	return r.list(ctx, `
		SELECT user_id, group_id, period_start, reason, created_at
		FROM skip_weeks WHERE group_id = ? AND period_start = ?
		ORDER BY user_id ASC
	`, groupID, periodStart)
}

// ListSkipWeeksForGroup returns every exception declared for a group.
func (r *SkipWeekRepository) ListSkipWeeksForGroup(ctx context.Context, groupID string) ([]persistence.SkipWeek, error) {
	return r.list(ctx, `
		SELECT user_id, group_id, period_start, reason, created_at
		FROM skip_weeks WHERE group_id = ?
		ORDER BY period_start ASC, user_id ASC
	`, groupID)
}

func (r *SkipWeekRepository) list(ctx context.Context, query string, args ...any) ([]persistence.SkipWeek, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var skips []persistence.SkipWeek
	for rows.Next() {
		var skip persistence.SkipWeek
		var createdAtStr string
		if err := rows.Scan(&skip.UserID, &skip.GroupID, &skip.PeriodStart, &skip.Reason, &createdAtStr); err != nil {
			return nil, mapSQLiteError(err)
		}
		if skip.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, err
		}
		skips = append(skips, skip)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return skips, nil
}
