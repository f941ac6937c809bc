package calendar

import (
	"context"
	"time"
)

// Credentials holds the external calendar tokens for one user.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Expired reports whether the access token is unusable at the reference
// time, applying a small skew so calls issued near the boundary do not race
// the provider's own expiry check.
func (c Credentials) Expired(reference time.Time, skew time.Duration) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return !c.Expiry.After(reference.Add(skew))
}

// Event describes the payload sent to the external calendar provider.
type Event struct {
	Summary         string
	Description     string
	Start           time.Time
	End             time.Time
	Timezone        string
	ReminderMinutes []int
}

// Client issues raw event operations against the external provider. Errors
// are opaque to callers; in particular "already deleted" is not
// distinguished from any other delete failure.
type Client interface {
	CreateEvent(ctx context.Context, accessToken string, event Event) (string, error)
	DeleteEvent(ctx context.Context, accessToken, eventID string) error
}

// TokenSource exchanges an expired credential set for a fresh one via the
// identity collaborator.
type TokenSource interface {
	Refresh(ctx context.Context, creds Credentials) (Credentials, error)
}

// CredentialStore persists refreshed credentials back to the owning user
// record.
type CredentialStore interface {
	SaveCredentials(ctx context.Context, userID string, creds Credentials) error
}
