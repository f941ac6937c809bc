package application

import (
	"time"

	"github.com/example/rotation-scheduler/internal/calendar"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// User represents a rotation member exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	Credentials *calendar.Credentials
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// GroupMember associates a user with a group at a rotation order position.
type GroupMember struct {
	UserID        string
	OrderPosition int
}

// GroupSchedule is the group's recurring visit slot.
type GroupSchedule struct {
	Weekday   time.Weekday
	TimeOfDay string
	Timezone  string
}

// Group represents a rotation unit. Cursor is the round-robin pointer,
// interpreted modulo the live member count sorted by order position. It is a
// positional index, not a member identity: membership changes reinterpret
// what the cursor points at.
type Group struct {
	ID          string
	Name        string
	Description string
	Members     []GroupMember
	Schedule    GroupSchedule
	Cursor      int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GroupInput captures caller provided group fields.
type GroupInput struct {
	Name        string
	Description string
	Weekday     int
	TimeOfDay   string
	Timezone    string
	Active      *bool
}

// CreateGroupParams wraps the data required to create a group.
type CreateGroupParams struct {
	Principal Principal
	Input     GroupInput
}

// AddMemberParams wraps the data required to append a member to a group.
type AddMemberParams struct {
	Principal     Principal
	GroupID       string
	UserID        string
	OrderPosition int
}

// RemoveMemberParams wraps the data required to remove a member from a group.
type RemoveMemberParams struct {
	Principal Principal
	GroupID   string
	UserID    string
}

// RemoveMemberResult reports the outcome of a member removal.
type RemoveMemberResult struct {
	RemovedRotationCount int
}

// SkipWeek removes one user's eligibility for one group/period pair.
type SkipWeek struct {
	UserID      string
	GroupID     string
	PeriodStart string
	Reason      string
	CreatedAt   time.Time
}

// RecordSkipWeekParams wraps the data required to declare a skip week.
type RecordSkipWeekParams struct {
	Principal   Principal
	GroupID     string
	UserID      string
	PeriodStart string
	Reason      string
}

// Rotation statuses.
const (
	RotationStatusScheduled = "scheduled"
	RotationStatusCompleted = "completed"
	RotationStatusCancelled = "cancelled"
)

// Rotation represents one concrete assignment of a user to a group for a
// specific period. PeriodStart is the canonical Monday in YYYY-MM-DD form,
// independent of the actual visit weekday.
type Rotation struct {
	ID              string
	GroupID         string
	AssignedUserID  string
	PeriodStart     string
	CalendarEventID string
	Status          string
	CreatedAt       time.Time
	SwappedAt       *time.Time
}

// ScheduleRotationsParams wraps the data required to schedule a batch of
// rotation periods.
type ScheduleRotationsParams struct {
	Principal   Principal
	GroupID     string
	PeriodCount int
	StartPeriod string
}

// SwapParams wraps the data required to swap one period's assignee.
type SwapParams struct {
	Principal   Principal
	GroupID     string
	PeriodStart string
	FromUserID  string
	ToUserID    string
}

// ListRotationsParams wraps the data required to list a group's rotations.
type ListRotationsParams struct {
	Principal  Principal
	GroupID    string
	FutureOnly bool
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
