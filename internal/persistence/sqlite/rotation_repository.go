package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/rotation-scheduler/internal/persistence"
)

// RotationRepository implements persistence.RotationRepository using SQLite.
type RotationRepository struct {
	pool *ConnectionPool
}

// NewRotationRepository creates a new SQLite rotation repository.
func NewRotationRepository(pool *ConnectionPool) *RotationRepository {
	return &RotationRepository{pool: pool}
}

const rotationColumns = `id, group_id, assigned_user_id, period_start, calendar_event_id, status, created_at, swapped_at`

// CreateRotation inserts a new rotation record.
func (r *RotationRepository) CreateRotation(ctx context.Context, rotation persistence.Rotation) error {
	if rotation.ID == "" {
		return persistence.ErrConstraintViolation
	}

	var swappedAt sql.NullString
	if rotation.SwappedAt != nil {
		swappedAt = sql.NullString{String: rotation.SwappedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO rotations (`+rotationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rotation.ID,
		rotation.GroupID,
		rotation.AssignedUserID,
		rotation.PeriodStart,
		rotation.CalendarEventID,
		rotation.Status,
		rotation.CreatedAt.UTC().Format(time.RFC3339),
		swappedAt,
	)
	return mapSQLiteError(err)
}

// GetRotation retrieves one rotation by id.
func (r *RotationRepository) GetRotation(ctx context.Context, id string) (persistence.Rotation, error) {
	if id == "" {
		return persistence.Rotation{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+rotationColumns+` FROM rotations WHERE id = ?`, id)
	return scanRotation(row)
}

// UpdateRotation replaces the stored rotation row.
func (r *RotationRepository) UpdateRotation(ctx context.Context, rotation persistence.Rotation) error {
	if rotation.ID == "" {
		return persistence.ErrNotFound
	}

	var swappedAt sql.NullString
	if rotation.SwappedAt != nil {
		swappedAt = sql.NullString{String: rotation.SwappedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE rotations
		SET group_id = ?, assigned_user_id = ?, period_start = ?, calendar_event_id = ?, status = ?, swapped_at = ?
		WHERE id = ?
	`,
		rotation.GroupID,
		rotation.AssignedUserID,
		rotation.PeriodStart,
		rotation.CalendarEventID,
		rotation.Status,
		swappedAt,
		rotation.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// DeleteRotation removes one rotation by id.
func (r *RotationRepository) DeleteRotation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM rotations WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// ListRotations returns rotations matching the filter ordered by period start
// then id. Empty filter fields are ignored.
func (r *RotationRepository) ListRotations(ctx context.Context, filter persistence.RotationFilter) ([]persistence.Rotation, error) {
	var conditions []string
	var args []any

	if filter.GroupID != "" {
		conditions = append(conditions, "group_id = ?")
		args = append(args, filter.GroupID)
	}
	if filter.AssignedUserID != "" {
		conditions = append(conditions, "assigned_user_id = ?")
		args = append(args, filter.AssignedUserID)
	}
	if filter.PeriodStart != "" {
		conditions = append(conditions, "period_start = ?")
		args = append(args, filter.PeriodStart)
	}
	if filter.PeriodFrom != "" {
		conditions = append(conditions, "period_start >= ?")
		args = append(args, filter.PeriodFrom)
	}

	query := `SELECT ` + rotationColumns + ` FROM rotations`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY period_start ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var rotations []persistence.Rotation
	for rows.Next() {
		rotation, err := scanRotation(rows)
		if err != nil {
			return nil, err
		}
		rotations = append(rotations, rotation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return rotations, nil
}

func scanRotation(row rowScanner) (persistence.Rotation, error) {
	var rotation persistence.Rotation
	var createdAtStr string
	var swappedAtStr sql.NullString

	err := row.Scan(
		&rotation.ID,
		&rotation.GroupID,
		&rotation.AssignedUserID,
		&rotation.PeriodStart,
		&rotation.CalendarEventID,
		&rotation.Status,
		&createdAtStr,
		&swappedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Rotation{}, persistence.ErrNotFound
		}
		return persistence.Rotation{}, mapSQLiteError(err)
	}

	if rotation.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Rotation{}, fmt.Errorf("parse created_at: %w", err)
	}
	if swappedAtStr.Valid && swappedAtStr.String != "" {
		swappedAt, err := time.Parse(time.RFC3339, swappedAtStr.String)
		if err != nil {
			return persistence.Rotation{}, fmt.Errorf("parse swapped_at: %w", err)
		}
		rotation.SwappedAt = &swappedAt
	}
	return rotation, nil
}
