package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnauthenticated indicates the user has no usable calendar credentials
// and they could not be refreshed.
var ErrUnauthenticated = errors.New("calendar: missing or unrefreshable credentials")

// Reminder offsets applied to every created event: one day and one hour
// before the visit.
var reminderMinutes = []int{24 * 60, 60}

// Synchronizer keeps the external calendar in step with rotation state. It
// owns the credential refresh handshake, rate limits outbound calls and
// retries transient provider failures with backoff.
type Synchronizer struct {
	client      Client
	tokens      TokenSource
	credentials CredentialStore
	limiter     *rate.Limiter
	maxAttempts int
	callTimeout time.Duration
	retryDelay  time.Duration
	expirySkew  time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// SynchronizerConfig wires dependencies and tuning knobs for a Synchronizer.
type SynchronizerConfig struct {
	Client      Client
	Tokens      TokenSource
	Credentials CredentialStore
	// RatePerSec bounds outbound provider calls. Zero disables limiting.
	RatePerSec int
	MaxAttempts int
	CallTimeout time.Duration
	RetryDelay  time.Duration
	ExpirySkew  time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewSynchronizer constructs a Synchronizer, applying defaults for unset
// tuning values.
func NewSynchronizer(cfg SynchronizerConfig) *Synchronizer {
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.ExpirySkew <= 0 {
		cfg.ExpirySkew = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Synchronizer{
		client:      cfg.Client,
		tokens:      cfg.Tokens,
		credentials: cfg.Credentials,
		limiter:     limiter,
		maxAttempts: cfg.MaxAttempts,
		callTimeout: cfg.CallTimeout,
		retryDelay:  cfg.RetryDelay,
		expirySkew:  cfg.ExpirySkew,
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
}

// CreateEvent ensures valid credentials for the user, then creates one
// provider event with the fixed reminder overrides and returns its id.
func (s *Synchronizer) CreateEvent(ctx context.Context, userID string, creds *Credentials, event Event) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("calendar: synchronizer not configured")
	}

	ready, err := s.ensureCredentials(ctx, userID, creds)
	if err != nil {
		return "", err
	}

	event.ReminderMinutes = append([]int(nil), reminderMinutes...)

	var eventID string
	err = s.withRetry(ctx, "create_event", userID, func(callCtx context.Context) error {
		id, callErr := s.client.CreateEvent(callCtx, ready.AccessToken, event)
		if callErr != nil {
			return callErr
		}
		eventID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return eventID, nil
}

// DeleteEvent ensures valid credentials for the user, then deletes the
// provider event. The provider's "not found" is surfaced like any other
// failure; callers decide tolerance.
func (s *Synchronizer) DeleteEvent(ctx context.Context, userID string, creds *Credentials, eventID string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("calendar: synchronizer not configured")
	}

	ready, err := s.ensureCredentials(ctx, userID, creds)
	if err != nil {
		return err
	}

	return s.withRetry(ctx, "delete_event", userID, func(callCtx context.Context) error {
		return s.client.DeleteEvent(callCtx, ready.AccessToken, eventID)
	})
}

// ensureCredentials validates the credential precondition and refreshes an
// expired token before the provider call. The refreshed credentials are
// written back through the credential store so the next load observes them.
func (s *Synchronizer) ensureCredentials(ctx context.Context, userID string, creds *Credentials) (Credentials, error) {
	if creds == nil || (creds.AccessToken == "" && creds.RefreshToken == "") {
		return Credentials{}, ErrUnauthenticated
	}

	if !creds.Expired(s.now(), s.expirySkew) {
		return *creds, nil
	}

	if s.tokens == nil || creds.RefreshToken == "" {
		return Credentials{}, ErrUnauthenticated
	}

	refreshed, err := s.tokens.Refresh(ctx, *creds)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if s.credentials != nil {
		if err := s.credentials.SaveCredentials(ctx, userID, refreshed); err != nil {
			return Credentials{}, fmt.Errorf("calendar: persisting refreshed credentials: %w", err)
		}
	}

	*creds = refreshed
	return refreshed, nil
}

// withRetry applies the rate limit, per-call timeout and bounded retries
// with linear backoff around one provider call.
func (s *Synchronizer) withRetry(ctx context.Context, operation, userID string, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		err := call(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.WarnContext(ctx, "calendar call failed",
			"operation", operation,
			"user_id", userID,
			"attempt", attempt,
			"error", err,
		)

		if attempt < s.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.retryDelay):
			}
		}
	}
	return fmt.Errorf("calendar: %s failed after %d attempts: %w", operation, s.maxAttempts, lastErr)
}
