package application

import (
	"context"
	"errors"

	"github.com/example/rotation-scheduler/internal/calendar"
	"github.com/example/rotation-scheduler/internal/persistence"
)

// GroupStore captures the persistence interactions for rotation groups.
type GroupStore interface {
	CreateGroup(ctx context.Context, group Group) error
	GetGroup(ctx context.Context, id string) (Group, error)
	ListGroups(ctx context.Context, onlyActive bool) ([]Group, error)
	UpdateCursor(ctx context.Context, groupID string, cursor int) error
	AddMember(ctx context.Context, groupID string, member GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// UserStore exposes user lookup operations required by the rotation services.
type UserStore interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// SkipWeekStore captures the persistence interactions for skip weeks.
type SkipWeekStore interface {
	CreateSkipWeek(ctx context.Context, skip SkipWeek) error
	ListSkipWeeks(ctx context.Context, groupID, periodStart string) ([]SkipWeek, error)
}

// RotationFilter narrows rotation queries. Empty fields are ignored.
type RotationFilter struct {
	GroupID        string
	AssignedUserID string
	PeriodStart    string
	PeriodFrom     string
}

// RotationStore captures the persistence interactions for rotations.
type RotationStore interface {
	CreateRotation(ctx context.Context, rotation Rotation) error
	GetRotation(ctx context.Context, id string) (Rotation, error)
	UpdateRotation(ctx context.Context, rotation Rotation) error
	DeleteRotation(ctx context.Context, id string) error
	ListRotations(ctx context.Context, filter RotationFilter) ([]Rotation, error)
}

// Synchronizer mirrors the calendar synchronizer surface consumed by the
// rotation service.
type Synchronizer interface {
	CreateEvent(ctx context.Context, userID string, creds *calendar.Credentials, event calendar.Event) (string, error)
	DeleteEvent(ctx context.Context, userID string, creds *calendar.Credentials, eventID string) error
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
