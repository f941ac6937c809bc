package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/rotation-scheduler/internal/application"
	"github.com/example/rotation-scheduler/internal/calendar"
	"github.com/example/rotation-scheduler/internal/persistence"
)

var (
	userCounter     uint64
	groupCounter    uint64
	rotationCounter uint64
	skipWeekCounter uint64
	sessionCounter  uint64
)

// referenceTime is a Monday so period arithmetic in fixtures starts from a
// canonical period boundary.
var referenceTime = time.Date(2026, time.February, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferencePeriod returns the canonical period start, in YYYY-MM-DD form,
// offset by the given number of weeks from the reference Monday.
func ReferencePeriod(weeksAhead int) string {
	return referenceTime.AddDate(0, 0, 7*weeksAhead).Format("2006-01-02")
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	Password     string
	PasswordHash string
	IsAdmin      bool
	Calendar     *calendar.Credentials
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
// Users carry live calendar credentials by default so rotation fixtures can be
// synchronized without extra setup.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		Password:     fmt.Sprintf("password-%03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		IsAdmin:      false,
		Calendar: &calendar.Credentials{
			AccessToken:  fmt.Sprintf("access-%03d", idx),
			RefreshToken: fmt.Sprintf("refresh-%03d", idx),
			Expiry:       referenceTime.Add(24 * time.Hour),
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// WithUserPassword sets both the plaintext password and its stand-in hash.
func WithUserPassword(password, hash string) UserOption {
	return func(f *UserFixture) {
		f.Password = password
		f.PasswordHash = hash
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// WithUserCalendar sets the calendar credentials on the fixture.
func WithUserCalendar(creds calendar.Credentials) UserOption {
	return func(f *UserFixture) {
		value := creds
		f.Calendar = &value
	}
}

// WithoutUserCalendar clears the calendar credentials, producing a user that
// cannot have events created on their behalf.
func WithoutUserCalendar() UserOption {
	return func(f *UserFixture) {
		f.Calendar = nil
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	var creds *calendar.Credentials
	if f.Calendar != nil {
		value := *f.Calendar
		creds = &value
	}
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		IsAdmin:     f.IsAdmin,
		Credentials: creds,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	var creds *persistence.CalendarCredentials
	if f.Calendar != nil {
		creds = &persistence.CalendarCredentials{
			AccessToken:  f.Calendar.AccessToken,
			RefreshToken: f.Calendar.RefreshToken,
			Expiry:       f.Calendar.Expiry,
		}
	}
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin,
		Credentials:  creds,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Input returns the fixture as an application.UserInput.
func (f UserFixture) Input() application.UserInput {
	return application.UserInput{
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Password:    f.Password,
		IsAdmin:     f.IsAdmin,
	}
}

// ----------------------------- Group fixtures ----------------------------

// GroupFixture represents a deterministic rotation group record.
type GroupFixture struct {
	ID          string
	Name        string
	Description string
	MemberIDs   []string
	Weekday     time.Weekday
	TimeOfDay   string
	Timezone    string
	Cursor      int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GroupOption configures the generated group fixture.
type GroupOption func(*GroupFixture)

// NewGroupFixture returns a deterministic group fixture with optional
// overrides. Members occupy order positions matching their slice index.
func NewGroupFixture(opts ...GroupOption) GroupFixture {
	idx := atomic.AddUint64(&groupCounter, 1)
	id := fmt.Sprintf("group-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := GroupFixture{
		ID:        id,
		Name:      fmt.Sprintf("Group %03d", idx),
		Weekday:   time.Monday,
		TimeOfDay: "10:00",
		Timezone:  "UTC",
		Cursor:    0,
		Active:    true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithGroupID overrides the generated group ID.
func WithGroupID(id string) GroupOption {
	return func(f *GroupFixture) {
		f.ID = id
	}
}

// WithGroupName overrides the generated group name.
func WithGroupName(name string) GroupOption {
	return func(f *GroupFixture) {
		f.Name = name
	}
}

// WithGroupDescription sets the description field.
func WithGroupDescription(description string) GroupOption {
	return func(f *GroupFixture) {
		f.Description = description
	}
}

// WithGroupMembers sets the member IDs in rotation order.
func WithGroupMembers(userIDs ...string) GroupOption {
	return func(f *GroupFixture) {
		f.MemberIDs = append([]string(nil), userIDs...)
	}
}

// WithGroupSlot sets the recurring visit slot.
func WithGroupSlot(weekday time.Weekday, timeOfDay, timezone string) GroupOption {
	return func(f *GroupFixture) {
		f.Weekday = weekday
		f.TimeOfDay = timeOfDay
		f.Timezone = timezone
	}
}

// WithGroupCursor sets the round-robin cursor position.
func WithGroupCursor(cursor int) GroupOption {
	return func(f *GroupFixture) {
		f.Cursor = cursor
	}
}

// WithGroupActive sets the active flag.
func WithGroupActive(active bool) GroupOption {
	return func(f *GroupFixture) {
		f.Active = active
	}
}

// WithGroupTimestamps sets both created and updated timestamps.
func WithGroupTimestamps(created, updated time.Time) GroupOption {
	return func(f *GroupFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

func (f GroupFixture) members() []persistence.GroupMember {
	members := make([]persistence.GroupMember, 0, len(f.MemberIDs))
	for position, userID := range f.MemberIDs {
		members = append(members, persistence.GroupMember{UserID: userID, OrderPosition: position})
	}
	return members
}

// Application returns the fixture as an application.Group value.
func (f GroupFixture) Application() application.Group {
	members := make([]application.GroupMember, 0, len(f.MemberIDs))
	for position, userID := range f.MemberIDs {
		members = append(members, application.GroupMember{UserID: userID, OrderPosition: position})
	}
	return application.Group{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Members:     members,
		Schedule: application.GroupSchedule{
			Weekday:   f.Weekday,
			TimeOfDay: f.TimeOfDay,
			Timezone:  f.Timezone,
		},
		Cursor:    f.Cursor,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Group value.
func (f GroupFixture) Persistence() persistence.Group {
	return persistence.Group{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Members:     f.members(),
		Weekday:     f.Weekday,
		TimeOfDay:   f.TimeOfDay,
		Timezone:    f.Timezone,
		Cursor:      f.Cursor,
		Active:      f.Active,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Input returns the fixture as an application.GroupInput.
func (f GroupFixture) Input() application.GroupInput {
	active := f.Active
	return application.GroupInput{
		Name:        f.Name,
		Description: f.Description,
		Weekday:     int(f.Weekday),
		TimeOfDay:   f.TimeOfDay,
		Timezone:    f.Timezone,
		Active:      &active,
	}
}

// --------------------------- Rotation fixtures ---------------------------

// RotationFixture represents a deterministic rotation assignment record.
type RotationFixture struct {
	ID              string
	GroupID         string
	AssignedUserID  string
	PeriodStart     string
	CalendarEventID string
	Status          string
	CreatedAt       time.Time
	SwappedAt       *time.Time
}

// RotationOption configures the generated rotation fixture.
type RotationOption func(*RotationFixture)

// NewRotationFixture returns a deterministic rotation fixture with optional
// overrides. Successive fixtures occupy successive periods.
func NewRotationFixture(opts ...RotationOption) RotationFixture {
	idx := atomic.AddUint64(&rotationCounter, 1)
	fixture := RotationFixture{
		ID:              fmt.Sprintf("rotation-%03d", idx),
		GroupID:         fmt.Sprintf("group-%03d", idx),
		AssignedUserID:  fmt.Sprintf("user-%03d", idx),
		PeriodStart:     ReferencePeriod(int(idx)),
		CalendarEventID: fmt.Sprintf("event-%03d", idx),
		Status:          persistence.RotationStatusScheduled,
		CreatedAt:       referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRotationID overrides the rotation ID.
func WithRotationID(id string) RotationOption {
	return func(f *RotationFixture) {
		f.ID = id
	}
}

// WithRotationGroup sets the owning group ID.
func WithRotationGroup(groupID string) RotationOption {
	return func(f *RotationFixture) {
		f.GroupID = groupID
	}
}

// WithRotationAssignee sets the assigned user ID.
func WithRotationAssignee(userID string) RotationOption {
	return func(f *RotationFixture) {
		f.AssignedUserID = userID
	}
}

// WithRotationPeriod sets the period start date.
func WithRotationPeriod(periodStart string) RotationOption {
	return func(f *RotationFixture) {
		f.PeriodStart = periodStart
	}
}

// WithRotationEvent sets the calendar event ID.
func WithRotationEvent(eventID string) RotationOption {
	return func(f *RotationFixture) {
		f.CalendarEventID = eventID
	}
}

// WithoutRotationEvent clears the calendar event ID.
func WithoutRotationEvent() RotationOption {
	return func(f *RotationFixture) {
		f.CalendarEventID = ""
	}
}

// WithRotationStatus sets the rotation status.
func WithRotationStatus(status string) RotationOption {
	return func(f *RotationFixture) {
		f.Status = status
	}
}

// WithRotationSwappedAt marks the rotation as swapped at the given time.
func WithRotationSwappedAt(t time.Time) RotationOption {
	return func(f *RotationFixture) {
		swapped := t
		f.SwappedAt = &swapped
	}
}

// WithRotationCreatedAt sets the created timestamp.
func WithRotationCreatedAt(t time.Time) RotationOption {
	return func(f *RotationFixture) {
		f.CreatedAt = t
	}
}

// Application returns the fixture as an application.Rotation value.
func (f RotationFixture) Application() application.Rotation {
	var swapped *time.Time
	if f.SwappedAt != nil {
		t := *f.SwappedAt
		swapped = &t
	}
	return application.Rotation{
		ID:              f.ID,
		GroupID:         f.GroupID,
		AssignedUserID:  f.AssignedUserID,
		PeriodStart:     f.PeriodStart,
		CalendarEventID: f.CalendarEventID,
		Status:          f.Status,
		CreatedAt:       f.CreatedAt,
		SwappedAt:       swapped,
	}
}

// Persistence returns the fixture as a persistence.Rotation value.
func (f RotationFixture) Persistence() persistence.Rotation {
	var swapped *time.Time
	if f.SwappedAt != nil {
		t := *f.SwappedAt
		swapped = &t
	}
	return persistence.Rotation{
		ID:              f.ID,
		GroupID:         f.GroupID,
		AssignedUserID:  f.AssignedUserID,
		PeriodStart:     f.PeriodStart,
		CalendarEventID: f.CalendarEventID,
		Status:          f.Status,
		CreatedAt:       f.CreatedAt,
		SwappedAt:       swapped,
	}
}

// --------------------------- Skip week fixtures --------------------------

// SkipWeekFixture represents a deterministic skip week declaration.
type SkipWeekFixture struct {
	UserID      string
	GroupID     string
	PeriodStart string
	Reason      string
	CreatedAt   time.Time
}

// SkipWeekOption configures the generated skip week fixture.
type SkipWeekOption func(*SkipWeekFixture)

// NewSkipWeekFixture returns a deterministic skip week fixture with optional
// overrides.
func NewSkipWeekFixture(opts ...SkipWeekOption) SkipWeekFixture {
	idx := atomic.AddUint64(&skipWeekCounter, 1)
	fixture := SkipWeekFixture{
		UserID:      fmt.Sprintf("user-%03d", idx),
		GroupID:     fmt.Sprintf("group-%03d", idx),
		PeriodStart: ReferencePeriod(int(idx)),
		Reason:      "vacation",
		CreatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSkipWeekUser sets the skipping user ID.
func WithSkipWeekUser(userID string) SkipWeekOption {
	return func(f *SkipWeekFixture) {
		f.UserID = userID
	}
}

// WithSkipWeekGroup sets the group ID.
func WithSkipWeekGroup(groupID string) SkipWeekOption {
	return func(f *SkipWeekFixture) {
		f.GroupID = groupID
	}
}

// WithSkipWeekPeriod sets the period start date.
func WithSkipWeekPeriod(periodStart string) SkipWeekOption {
	return func(f *SkipWeekFixture) {
		f.PeriodStart = periodStart
	}
}

// WithSkipWeekReason sets the reason text.
func WithSkipWeekReason(reason string) SkipWeekOption {
	return func(f *SkipWeekFixture) {
		f.Reason = reason
	}
}

// Application returns the fixture as an application.SkipWeek value.
func (f SkipWeekFixture) Application() application.SkipWeek {
	return application.SkipWeek{
		UserID:      f.UserID,
		GroupID:     f.GroupID,
		PeriodStart: f.PeriodStart,
		Reason:      f.Reason,
		CreatedAt:   f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.SkipWeek value.
func (f SkipWeekFixture) Persistence() persistence.SkipWeek {
	return persistence.SkipWeek{
		UserID:      f.UserID,
		GroupID:     f.GroupID,
		PeriodStart: f.PeriodStart,
		Reason:      f.Reason,
		CreatedAt:   f.CreatedAt,
	}
}

// ---------------------------- Session fixtures ---------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(24 * time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionUserID sets the user ID.
func WithSessionUserID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = id
	}
}

// WithSessionToken overrides the token value.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiration timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt sets the optional revoked timestamp.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	var revoked *time.Time
	if f.RevokedAt != nil {
		t := *f.RevokedAt
		revoked = &t
	}
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: revoked,
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	var revoked *time.Time
	if f.RevokedAt != nil {
		t := *f.RevokedAt
		revoked = &t
	}
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: revoked,
	}
}
