package calendar

import (
	"context"
	"errors"
	"testing"
	"time"
)

type clientStub struct {
	createCalls  int
	deleteCalls  int
	failuresLeft int
	lastToken    string
	lastEvent    Event
	lastEventID  string
	eventID      string
	err          error
}

func (c *clientStub) CreateEvent(ctx context.Context, accessToken string, event Event) (string, error) {
	c.createCalls++
	c.lastToken = accessToken
	c.lastEvent = event
	if c.failuresLeft > 0 {
		c.failuresLeft--
		return "", errors.New("provider unavailable")
	}
	if c.err != nil {
		return "", c.err
	}
	if c.eventID == "" {
		return "evt-1", nil
	}
	return c.eventID, nil
}

func (c *clientStub) DeleteEvent(ctx context.Context, accessToken, eventID string) error {
	c.deleteCalls++
	c.lastToken = accessToken
	c.lastEventID = eventID
	if c.failuresLeft > 0 {
		c.failuresLeft--
		return errors.New("provider unavailable")
	}
	return c.err
}

type tokenSourceStub struct {
	refreshed Credentials
	err       error
	calls     int
}

func (t *tokenSourceStub) Refresh(ctx context.Context, creds Credentials) (Credentials, error) {
	t.calls++
	if t.err != nil {
		return Credentials{}, t.err
	}
	return t.refreshed, nil
}

type credentialStoreStub struct {
	userID string
	saved  Credentials
	err    error
	calls  int
}

func (s *credentialStoreStub) SaveCredentials(ctx context.Context, userID string, creds Credentials) error {
	s.calls++
	s.userID = userID
	s.saved = creds
	return s.err
}

func fixedNow() time.Time {
	return time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
}

func newTestSynchronizer(client Client, tokens TokenSource, store CredentialStore) *Synchronizer {
	return NewSynchronizer(SynchronizerConfig{
		Client:      client,
		Tokens:      tokens,
		Credentials: store,
		MaxAttempts: 3,
		CallTimeout: time.Second,
		RetryDelay:  time.Millisecond,
		Now:         fixedNow,
	})
}

func TestSynchronizer_CreateEvent_RequiresCredentials(t *testing.T) {
	t.Parallel()

	sync := newTestSynchronizer(&clientStub{}, &tokenSourceStub{}, &credentialStoreStub{})

	_, err := sync.CreateEvent(context.Background(), "user-1", nil, Event{})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("nil credentials: expected ErrUnauthenticated, got %v", err)
	}

	_, err = sync.CreateEvent(context.Background(), "user-1", &Credentials{}, Event{})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("empty credentials: expected ErrUnauthenticated, got %v", err)
	}
}

func TestSynchronizer_CreateEvent_AppliesFixedReminders(t *testing.T) {
	t.Parallel()

	client := &clientStub{eventID: "evt-77"}
	sync := newTestSynchronizer(client, &tokenSourceStub{}, &credentialStoreStub{})
	creds := &Credentials{AccessToken: "tok", Expiry: fixedNow().Add(time.Hour)}

	id, err := sync.CreateEvent(context.Background(), "user-1", creds, Event{Summary: "Visit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "evt-77" {
		t.Fatalf("event id: got %s, want evt-77", id)
	}
	if len(client.lastEvent.ReminderMinutes) != 2 ||
		client.lastEvent.ReminderMinutes[0] != 1440 ||
		client.lastEvent.ReminderMinutes[1] != 60 {
		t.Fatalf("reminders: got %v, want [1440 60]", client.lastEvent.ReminderMinutes)
	}
}

func TestSynchronizer_CreateEvent_RefreshesExpiredCredentials(t *testing.T) {
	t.Parallel()

	client := &clientStub{}
	tokens := &tokenSourceStub{refreshed: Credentials{
		AccessToken:  "fresh",
		RefreshToken: "refresh",
		Expiry:       fixedNow().Add(time.Hour),
	}}
	store := &credentialStoreStub{}
	sync := newTestSynchronizer(client, tokens, store)

	creds := &Credentials{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		Expiry:       fixedNow().Add(-time.Minute),
	}

	if _, err := sync.CreateEvent(context.Background(), "user-9", creds, Event{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tokens.calls != 1 {
		t.Fatalf("refresh calls: got %d, want 1", tokens.calls)
	}
	if client.lastToken != "fresh" {
		t.Fatalf("provider call used token %q, want fresh", client.lastToken)
	}
	if store.calls != 1 || store.userID != "user-9" || store.saved.AccessToken != "fresh" {
		t.Fatalf("refreshed credentials not persisted: %+v", store)
	}
	if creds.AccessToken != "fresh" {
		t.Fatalf("caller credentials not updated in place: %+v", creds)
	}
}

func TestSynchronizer_CreateEvent_RefreshFailureIsUnauthenticated(t *testing.T) {
	t.Parallel()

	tokens := &tokenSourceStub{err: errors.New("identity provider down")}
	sync := newTestSynchronizer(&clientStub{}, tokens, &credentialStoreStub{})
	creds := &Credentials{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		Expiry:       fixedNow().Add(-time.Minute),
	}

	_, err := sync.CreateEvent(context.Background(), "user-1", creds, Event{})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSynchronizer_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	client := &clientStub{failuresLeft: 2}
	sync := newTestSynchronizer(client, &tokenSourceStub{}, &credentialStoreStub{})
	creds := &Credentials{AccessToken: "tok", Expiry: fixedNow().Add(time.Hour)}

	if _, err := sync.CreateEvent(context.Background(), "user-1", creds, Event{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.createCalls != 3 {
		t.Fatalf("create calls: got %d, want 3", client.createCalls)
	}
}

func TestSynchronizer_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	client := &clientStub{failuresLeft: 10}
	sync := newTestSynchronizer(client, &tokenSourceStub{}, &credentialStoreStub{})
	creds := &Credentials{AccessToken: "tok", Expiry: fixedNow().Add(time.Hour)}

	err := sync.DeleteEvent(context.Background(), "user-1", creds, "evt-1")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if client.deleteCalls != 3 {
		t.Fatalf("delete calls: got %d, want 3", client.deleteCalls)
	}
}

func TestCredentials_Expired(t *testing.T) {
	t.Parallel()

	reference := fixedNow()
	cases := []struct {
		name string
		c    Credentials
		want bool
	}{
		{"zero expiry never expires", Credentials{AccessToken: "tok"}, false},
		{"future expiry", Credentials{Expiry: reference.Add(time.Hour)}, false},
		{"past expiry", Credentials{Expiry: reference.Add(-time.Second)}, true},
		{"inside skew window", Credentials{Expiry: reference.Add(30 * time.Second)}, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.c.Expired(reference, time.Minute); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
