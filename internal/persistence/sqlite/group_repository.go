package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/rotation-scheduler/internal/persistence"
)

// GroupRepository implements persistence.GroupRepository using SQLite.
type GroupRepository struct {
	pool *ConnectionPool
}

// NewGroupRepository creates a new SQLite group repository.
func NewGroupRepository(pool *ConnectionPool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// CreateGroup inserts a group together with its initial member list.
func (r *GroupRepository) CreateGroup(ctx context.Context, group persistence.Group) error {
	if group.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO groups (id, name, description, weekday, time_of_day, timezone, cursor, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.Exec(query,
			group.ID,
			group.Name,
			group.Description,
			int(group.Weekday),
			group.TimeOfDay,
			group.Timezone,
			group.Cursor,
			group.Active,
			group.CreatedAt.UTC().Format(time.RFC3339),
			group.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return mapSQLiteError(err)
		}
		for _, member := range group.Members {
			if err := insertMember(tx, group.ID, member); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateGroup replaces the group's scalar attributes. Membership is managed
// through AddMember and RemoveMember.
func (r *GroupRepository) UpdateGroup(ctx context.Context, group persistence.Group) error {
	if group.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE groups
		SET name = ?, description = ?, weekday = ?, time_of_day = ?, timezone = ?, cursor = ?, active = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		group.Name,
		group.Description,
		int(group.Weekday),
		group.TimeOfDay,
		group.Timezone,
		group.Cursor,
		group.Active,
		time.Now().UTC().Format(time.RFC3339),
		group.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// GetGroup retrieves a group with its members ordered by rotation position.
func (r *GroupRepository) GetGroup(ctx context.Context, id string) (persistence.Group, error) {
	if id == "" {
		return persistence.Group{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, name, description, weekday, time_of_day, timezone, cursor, active, created_at, updated_at
		FROM groups WHERE id = ?
	`, id)

	group, err := scanGroup(row)
	if err != nil {
		return persistence.Group{}, err
	}

	if group.Members, err = r.listMembers(ctx, group.ID); err != nil {
		return persistence.Group{}, err
	}
	return group, nil
}

// ListGroups returns groups ordered by name, optionally only active ones.
func (r *GroupRepository) ListGroups(ctx context.Context, onlyActive bool) ([]persistence.Group, error) {
	query := `
		SELECT id, name, description, weekday, time_of_day, timezone, cursor, active, created_at, updated_at
		FROM groups
	`
	if onlyActive {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var groups []persistence.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}

	for i := range groups {
		if groups[i].Members, err = r.listMembers(ctx, groups[i].ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// DeleteGroup removes a group; members, skip weeks and rotations cascade.
func (r *GroupRepository) DeleteGroup(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// UpdateCursor persists the group's round-robin position.
func (r *GroupRepository) UpdateCursor(ctx context.Context, groupID string, cursor int) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE groups SET cursor = ?, updated_at = ? WHERE id = ?
	`, cursor, time.Now().UTC().Format(time.RFC3339), groupID)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// AddMember appends a user at an order position.
func (r *GroupRepository) AddMember(ctx context.Context, groupID string, member persistence.GroupMember) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return insertMember(tx, groupID, member)
	})
}

// RemoveMember detaches the user from the group. Removing an absent member
// is not an error.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	_, err := r.pool.db.ExecContext(ctx, `
		DELETE FROM group_members WHERE group_id = ? AND user_id = ?
	`, groupID, userID)
	return mapSQLiteError(err)
}

func (r *GroupRepository) listMembers(ctx context.Context, groupID string) ([]persistence.GroupMember, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT user_id, order_position FROM group_members
		WHERE group_id = ? ORDER BY order_position ASC
	`, groupID)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var members []persistence.GroupMember
	for rows.Next() {
		var member persistence.GroupMember
		if err := rows.Scan(&member.UserID, &member.OrderPosition); err != nil {
			return nil, mapSQLiteError(err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return members, nil
}

func insertMember(tx *sql.Tx, groupID string, member persistence.GroupMember) error {
	_, err := tx.Exec(`
		INSERT INTO group_members (group_id, user_id, order_position)
		VALUES (?, ?, ?)
	`, groupID, member.UserID, member.OrderPosition)
	return mapSQLiteError(err)
}

func scanGroup(row rowScanner) (persistence.Group, error) {
	var group persistence.Group
	var weekday int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&weekday,
		&group.TimeOfDay,
		&group.Timezone,
		&group.Cursor,
		&group.Active,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Group{}, persistence.ErrNotFound
		}
		return persistence.Group{}, mapSQLiteError(err)
	}

	group.Weekday = time.Weekday(weekday)
	if group.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Group{}, fmt.Errorf("parse created_at: %w", err)
	}
	if group.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Group{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return group, nil
}
