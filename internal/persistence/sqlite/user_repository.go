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

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, display_name, password_hash, is_admin,
	calendar_access_token, calendar_refresh_token, calendar_token_expiry,
	created_at, updated_at`

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	accessToken, refreshToken, expiry := credentialColumns(user.Credentials)

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		user.ID,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.PasswordHash,
		user.IsAdmin,
		accessToken,
		refreshToken,
		expiry,
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapSQLiteError(err)
}

// UpdateUser replaces the stored row for the user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	accessToken, refreshToken, expiry := credentialColumns(user.Credentials)

	query := `
		UPDATE users
		SET email = ?, display_name = ?, password_hash = ?, is_admin = ?,
			calendar_access_token = ?, calendar_refresh_token = ?, calendar_token_expiry = ?,
			updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.PasswordHash,
		user.IsAdmin,
		accessToken,
		refreshToken,
		expiry,
		time.Now().UTC().Format(time.RFC3339),
		user.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// GetUser retrieves a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by normalized email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
	return scanUser(row)
}

// ListUsers returns all users ordered by creation time then id.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return users, nil
}

// UpdateCalendarCredentials persists refreshed calendar tokens for the user.
func (r *UserRepository) UpdateCalendarCredentials(ctx context.Context, userID string, creds persistence.CalendarCredentials) error {
	if userID == "" {
		return persistence.ErrNotFound
	}

	accessToken, refreshToken, expiry := credentialColumns(&creds)

	query := `
		UPDATE users
		SET calendar_access_token = ?, calendar_refresh_token = ?, calendar_token_expiry = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		accessToken,
		refreshToken,
		expiry,
		time.Now().UTC().Format(time.RFC3339),
		userID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var accessToken, refreshToken, expiryStr sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.IsAdmin,
		&accessToken,
		&refreshToken,
		&expiryStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapSQLiteError(err)
	}

	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("parse updated_at: %w", err)
	}

	if accessToken.Valid && accessToken.String != "" {
		creds := persistence.CalendarCredentials{
			AccessToken:  accessToken.String,
			RefreshToken: refreshToken.String,
		}
		if expiryStr.Valid && expiryStr.String != "" {
			if creds.Expiry, err = time.Parse(time.RFC3339, expiryStr.String); err != nil {
				return persistence.User{}, fmt.Errorf("parse calendar_token_expiry: %w", err)
			}
		}
		user.Credentials = &creds
	}

	return user, nil
}

func credentialColumns(creds *persistence.CalendarCredentials) (accessToken, refreshToken, expiry sql.NullString) {
	if creds == nil {
		return
	}
	accessToken = sql.NullString{String: creds.AccessToken, Valid: creds.AccessToken != ""}
	refreshToken = sql.NullString{String: creds.RefreshToken, Valid: creds.RefreshToken != ""}
	if !creds.Expiry.IsZero() {
		expiry = sql.NullString{String: creds.Expiry.UTC().Format(time.RFC3339), Valid: true}
	}
	return
}

func requireRowsAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
