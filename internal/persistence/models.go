package persistence

import "time"

// CalendarCredentials holds the external calendar tokens stored for a user.
type CalendarCredentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// User represents a member account in the rotation domain.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	Credentials  *CalendarCredentials
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GroupMember associates a user with a group at a rotation order position.
type GroupMember struct {
	UserID        string
	OrderPosition int
}

// Group represents a rotation unit with an ordered member list and a
// round-robin cursor. The cursor is an index into the member list sorted by
// order position, modulo the live member count; it is not tied to a member
// identity.
type Group struct {
	ID          string
	Name        string
	Description string
	Members     []GroupMember
	Weekday     time.Weekday
	TimeOfDay   string
	Timezone    string
	Cursor      int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SkipWeek removes one user's eligibility for one group/period pair.
// The (UserID, GroupID, PeriodStart) triple is unique.
type SkipWeek struct {
	UserID      string
	GroupID     string
	PeriodStart string
	Reason      string
	CreatedAt   time.Time
}

// Rotation statuses.
const (
	RotationStatusScheduled = "scheduled"
	RotationStatusCompleted = "completed"
	RotationStatusCancelled = "cancelled"
)

// Rotation represents one concrete assignment of a user to a group for a
// specific period. PeriodStart is the canonical Monday in YYYY-MM-DD form.
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

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
