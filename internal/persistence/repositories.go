package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateCalendarCredentials(ctx context.Context, userID string, creds CalendarCredentials) error
}

// GroupRepository stores rotation groups and their ordered members.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group Group) error
	UpdateGroup(ctx context.Context, group Group) error
	GetGroup(ctx context.Context, id string) (Group, error)
	ListGroups(ctx context.Context, onlyActive bool) ([]Group, error)
	DeleteGroup(ctx context.Context, id string) error
	UpdateCursor(ctx context.Context, groupID string, cursor int) error
	AddMember(ctx context.Context, groupID string, member GroupMember) error
	// RemoveMember detaches the user from the group. Removing an absent
	// member is not an error.
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// SkipWeekRepository stores declared rotation exceptions.
type SkipWeekRepository interface {
	// CreateSkipWeek fails with ErrDuplicate when the
	// (user, group, period) triple already exists.
	CreateSkipWeek(ctx context.Context, skip SkipWeek) error
	ListSkipWeeks(ctx context.Context, groupID, periodStart string) ([]SkipWeek, error)
	ListSkipWeeksForGroup(ctx context.Context, groupID string) ([]SkipWeek, error)
}

// RotationFilter narrows rotation queries. Empty fields are ignored.
type RotationFilter struct {
	GroupID        string
	AssignedUserID string
	PeriodStart    string
	// PeriodFrom keeps rotations whose PeriodStart is on or after the
	// given canonical date.
	PeriodFrom string
}

// RotationRepository stores rotation assignments.
type RotationRepository interface {
	CreateRotation(ctx context.Context, rotation Rotation) error
	GetRotation(ctx context.Context, id string) (Rotation, error)
	UpdateRotation(ctx context.Context, rotation Rotation) error
	DeleteRotation(ctx context.Context, id string) error
	ListRotations(ctx context.Context, filter RotationFilter) ([]Rotation, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
