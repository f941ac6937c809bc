package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CredentialDirectory exposes user credential lookup operations required by the auth service.
type CredentialDirectory interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
}

// SessionStore captures the persistence interactions for issued sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates login, session validation and logout for the
// request surface.
type AuthService struct {
	credentials    CredentialDirectory
	sessions       SessionStore
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialDirectory, sessions SessionStore, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil || s.sessions == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "authentication succeeded", "user_id", result.User.ID)
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	creds, lookupErr := s.credentials.GetUserCredentialsByEmail(ctx, email)
	if lookupErr != nil {
		if isNotFoundError(lookupErr) {
			err = ErrInvalidCredentials
			return
		}
		err = lookupErr
		return
	}

	if verifyErr := s.verifyPassword(creds.PasswordHash, password); verifyErr != nil {
		err = ErrInvalidCredentials
		return
	}

	issuedAt := s.now()
	session := Session{
		ID:        s.tokenGenerator(),
		UserID:    creds.User.ID,
		Token:     s.tokenGenerator(),
		ExpiresAt: issuedAt.Add(s.sessionTTL),
		CreatedAt: issuedAt,
		UpdatedAt: issuedAt,
	}

	stored, createErr := s.sessions.CreateSession(ctx, session)
	if createErr != nil {
		err = createErr
		return
	}

	result = AuthenticateResult{User: creds.User, Session: stored}
	return
}

// ValidateSession resolves a session token into the acting principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.sessions == nil {
		return Principal{}, fmt.Errorf("auth repositories not configured")
	}
	if strings.TrimSpace(token) == "" {
		return Principal{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if isNotFoundError(err) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}

	now := s.now()
	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(now) {
		return Principal{}, ErrSessionExpired
	}

	if s.credentials == nil {
		return Principal{UserID: session.UserID}, nil
	}
	user, err := s.lookupUser(ctx, session.UserID)
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

// RevokeSession invalidates one session token. Revoking an unknown token is
// reported as ErrNotFound.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("auth repositories not configured")
	}
	if strings.TrimSpace(token) == "" {
		return ErrNotFound
	}
	if _, err := s.sessions.RevokeSession(ctx, token, s.now()); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// PurgeExpiredSessions deletes sessions that expired before now.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("auth repositories not configured")
	}
	return s.sessions.DeleteExpiredSessions(ctx, s.now())
}

// UserLookup is implemented by credential directories that can also resolve
// users by id; ValidateSession uses it to attach admin status.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (User, error)
}

func (s *AuthService) lookupUser(ctx context.Context, id string) (User, error) {
	lookup, ok := s.credentials.(UserLookup)
	if !ok {
		return User{ID: id}, nil
	}
	user, err := lookup.GetUser(ctx, id)
	if err != nil {
		if isNotFoundError(err) {
			return User{}, errors.Join(ErrUnauthorized, err)
		}
		return User{}, err
	}
	return user, nil
}
