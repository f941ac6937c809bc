package main

import (
	"context"
	"time"

	"github.com/example/rotation-scheduler/internal/application"
	"github.com/example/rotation-scheduler/internal/calendar"
	"github.com/example/rotation-scheduler/internal/persistence"
)

// The application services consume their own model types; these adapters map
// them onto the persistence repositories.

type groupStoreAdapter struct {
	repo persistence.GroupRepository
}

func newGroupStoreAdapter(repo persistence.GroupRepository) *groupStoreAdapter {
	return &groupStoreAdapter{repo: repo}
}

func (a *groupStoreAdapter) CreateGroup(ctx context.Context, group application.Group) error {
	return a.repo.CreateGroup(ctx, toPersistenceGroup(group))
}

func (a *groupStoreAdapter) GetGroup(ctx context.Context, id string) (application.Group, error) {
	stored, err := a.repo.GetGroup(ctx, id)
	if err != nil {
		return application.Group{}, err
	}
	return toApplicationGroup(stored), nil
}

func (a *groupStoreAdapter) ListGroups(ctx context.Context, onlyActive bool) ([]application.Group, error) {
	models, err := a.repo.ListGroups(ctx, onlyActive)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	groups := make([]application.Group, 0, len(models))
	for _, model := range models {
		groups = append(groups, toApplicationGroup(model))
	}
	return groups, nil
}

func (a *groupStoreAdapter) UpdateCursor(ctx context.Context, groupID string, cursor int) error {
	return a.repo.UpdateCursor(ctx, groupID, cursor)
}

func (a *groupStoreAdapter) AddMember(ctx context.Context, groupID string, member application.GroupMember) error {
	return a.repo.AddMember(ctx, groupID, persistence.GroupMember{
		UserID:        member.UserID,
		OrderPosition: member.OrderPosition,
	})
}

func (a *groupStoreAdapter) RemoveMember(ctx context.Context, groupID, userID string) error {
	return a.repo.RemoveMember(ctx, groupID, userID)
}

type userStoreAdapter struct {
	repo persistence.UserRepository
}

func newUserStoreAdapter(repo persistence.UserRepository) *userStoreAdapter {
	return &userStoreAdapter{repo: repo}
}

func (a *userStoreAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) error {
	return a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash))
}

func (a *userStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type credentialDirectoryAdapter struct {
	repo persistence.UserRepository
}

func newCredentialDirectoryAdapter(repo persistence.UserRepository) *credentialDirectoryAdapter {
	return &credentialDirectoryAdapter{repo: repo}
}

func (a *credentialDirectoryAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialDirectoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type skipWeekStoreAdapter struct {
	repo persistence.SkipWeekRepository
}

func newSkipWeekStoreAdapter(repo persistence.SkipWeekRepository) *skipWeekStoreAdapter {
	return &skipWeekStoreAdapter{repo: repo}
}

func (a *skipWeekStoreAdapter) CreateSkipWeek(ctx context.Context, skip application.SkipWeek) error {
	return a.repo.CreateSkipWeek(ctx, persistence.SkipWeek{
		UserID:      skip.UserID,
		GroupID:     skip.GroupID,
		PeriodStart: skip.PeriodStart,
		Reason:      skip.Reason,
		CreatedAt:   skip.CreatedAt,
	})
}

func (a *skipWeekStoreAdapter) ListSkipWeeks(ctx context.Context, groupID, periodStart string) ([]application.SkipWeek, error) {
	models, err := a.repo.ListSkipWeeks(ctx, groupID, periodStart)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	skips := make([]application.SkipWeek, 0, len(models))
	for _, model := range models {
		skips = append(skips, application.SkipWeek{
			UserID:      model.UserID,
			GroupID:     model.GroupID,
			PeriodStart: model.PeriodStart,
			Reason:      model.Reason,
			CreatedAt:   model.CreatedAt,
		})
	}
	return skips, nil
}

type rotationStoreAdapter struct {
	repo persistence.RotationRepository
}

func newRotationStoreAdapter(repo persistence.RotationRepository) *rotationStoreAdapter {
	return &rotationStoreAdapter{repo: repo}
}

func (a *rotationStoreAdapter) CreateRotation(ctx context.Context, rotation application.Rotation) error {
	return a.repo.CreateRotation(ctx, toPersistenceRotation(rotation))
}

func (a *rotationStoreAdapter) GetRotation(ctx context.Context, id string) (application.Rotation, error) {
	stored, err := a.repo.GetRotation(ctx, id)
	if err != nil {
		return application.Rotation{}, err
	}
	return toApplicationRotation(stored), nil
}

func (a *rotationStoreAdapter) UpdateRotation(ctx context.Context, rotation application.Rotation) error {
	return a.repo.UpdateRotation(ctx, toPersistenceRotation(rotation))
}

func (a *rotationStoreAdapter) DeleteRotation(ctx context.Context, id string) error {
	return a.repo.DeleteRotation(ctx, id)
}

func (a *rotationStoreAdapter) ListRotations(ctx context.Context, filter application.RotationFilter) ([]application.Rotation, error) {
	models, err := a.repo.ListRotations(ctx, persistence.RotationFilter{
		GroupID:        filter.GroupID,
		AssignedUserID: filter.AssignedUserID,
		PeriodStart:    filter.PeriodStart,
		PeriodFrom:     filter.PeriodFrom,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	rotations := make([]application.Rotation, 0, len(models))
	for _, model := range models {
		rotations = append(rotations, toApplicationRotation(model))
	}
	return rotations, nil
}

type sessionStoreAdapter struct {
	repo persistence.SessionRepository
}

func newSessionStoreAdapter(repo persistence.SessionRepository) *sessionStoreAdapter {
	return &sessionStoreAdapter{repo: repo}
}

func (a *sessionStoreAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

// calendarCredentialAdapter writes refreshed provider tokens back onto the
// owning user record.
type calendarCredentialAdapter struct {
	repo persistence.UserRepository
}

func newCalendarCredentialAdapter(repo persistence.UserRepository) *calendarCredentialAdapter {
	return &calendarCredentialAdapter{repo: repo}
}

func (a *calendarCredentialAdapter) SaveCredentials(ctx context.Context, userID string, creds calendar.Credentials) error {
	return a.repo.UpdateCalendarCredentials(ctx, userID, persistence.CalendarCredentials{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.Expiry,
	})
}

func toApplicationUser(model persistence.User) application.User {
	var creds *calendar.Credentials
	if model.Credentials != nil {
		creds = &calendar.Credentials{
			AccessToken:  model.Credentials.AccessToken,
			RefreshToken: model.Credentials.RefreshToken,
			Expiry:       model.Credentials.Expiry,
		}
	}
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		IsAdmin:     model.IsAdmin,
		Credentials: creds,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	var creds *persistence.CalendarCredentials
	if user.Credentials != nil {
		creds = &persistence.CalendarCredentials{
			AccessToken:  user.Credentials.AccessToken,
			RefreshToken: user.Credentials.RefreshToken,
			Expiry:       user.Credentials.Expiry,
		}
	}
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: passwordHash,
		IsAdmin:      user.IsAdmin,
		Credentials:  creds,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationGroup(model persistence.Group) application.Group {
	members := make([]application.GroupMember, 0, len(model.Members))
	for _, member := range model.Members {
		members = append(members, application.GroupMember{
			UserID:        member.UserID,
			OrderPosition: member.OrderPosition,
		})
	}
	return application.Group{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		Members:     members,
		Schedule: application.GroupSchedule{
			Weekday:   model.Weekday,
			TimeOfDay: model.TimeOfDay,
			Timezone:  model.Timezone,
		},
		Cursor:    model.Cursor,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceGroup(group application.Group) persistence.Group {
	members := make([]persistence.GroupMember, 0, len(group.Members))
	for _, member := range group.Members {
		members = append(members, persistence.GroupMember{
			UserID:        member.UserID,
			OrderPosition: member.OrderPosition,
		})
	}
	return persistence.Group{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		Members:     members,
		Weekday:     group.Schedule.Weekday,
		TimeOfDay:   group.Schedule.TimeOfDay,
		Timezone:    group.Schedule.Timezone,
		Cursor:      group.Cursor,
		Active:      group.Active,
		CreatedAt:   group.CreatedAt,
		UpdatedAt:   group.UpdatedAt,
	}
}

func toApplicationRotation(model persistence.Rotation) application.Rotation {
	return application.Rotation{
		ID:              model.ID,
		GroupID:         model.GroupID,
		AssignedUserID:  model.AssignedUserID,
		PeriodStart:     model.PeriodStart,
		CalendarEventID: model.CalendarEventID,
		Status:          model.Status,
		CreatedAt:       model.CreatedAt,
		SwappedAt:       cloneTime(model.SwappedAt),
	}
}

func toPersistenceRotation(rotation application.Rotation) persistence.Rotation {
	return persistence.Rotation{
		ID:              rotation.ID,
		GroupID:         rotation.GroupID,
		AssignedUserID:  rotation.AssignedUserID,
		PeriodStart:     rotation.PeriodStart,
		CalendarEventID: rotation.CalendarEventID,
		Status:          rotation.Status,
		CreatedAt:       rotation.CreatedAt,
		SwappedAt:       cloneTime(rotation.SwappedAt),
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
