package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// UserAccountStore captures the persistence interactions for user accounts.
type UserAccountStore interface {
	CreateUser(ctx context.Context, user User, passwordHash string) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// UserService manages member accounts on the request surface. Accounts are
// normally provisioned by the identity flow on first sign-in; this service
// carries the administrative path.
type UserService struct {
	users       UserAccountStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for user operations.
func NewUserService(users UserAccountStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateUser provisions a member account. Only administrators may create
// accounts directly.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	if !params.Principal.IsAdmin {
		return User{}, ErrUnauthorized
	}

	input := params.Input
	vErr := &ValidationError{}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		vErr.add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		vErr.add("email", "email is invalid")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		vErr.add("display_name", "display name is required")
	}
	if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := CreatePasswordHash(input.Password, DefaultArgon2idParams)
	if err != nil {
		return User{}, err
	}

	createdAt := s.now()
	user := User{
		ID:          s.idGenerator(),
		Email:       email,
		DisplayName: strings.TrimSpace(input.DisplayName),
		IsAdmin:     input.IsAdmin,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	if err := s.users.CreateUser(ctx, user, hash); err != nil {
		return User{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "UserService", "CreateUser").InfoContext(ctx, "user created",
		"user_id", user.ID,
		"email", user.Email,
	)
	return user, nil
}

// GetUser fetches one user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return User{}, mapRepoError(err)
	}
	return user, nil
}

// ListUsers enumerates accounts ordered by display name.
func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	ordered := make([]User, len(users))
	copy(ordered, users)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DisplayName == ordered[j].DisplayName {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].DisplayName < ordered[j].DisplayName
	})
	return ordered, nil
}
