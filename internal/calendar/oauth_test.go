package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGoogleTokenSource_Refresh(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type: got %q", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "refresh-1" {
			t.Errorf("refresh_token: got %q", got)
		}
		if got := r.PostForm.Get("client_id"); got != "client-abc" {
			t.Errorf("client_id: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"access_token":"fresh-1","expires_in":3600}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer server.Close()

	now := time.Date(2026, 2, 19, 10, 0, 0, 0, time.UTC)
	source := NewGoogleTokenSource(server.Client(), "client-abc", "secret")
	source.tokenURL = server.URL
	source.now = func() time.Time { return now }

	refreshed, err := source.Refresh(context.Background(), Credentials{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refreshed.AccessToken != "fresh-1" {
		t.Fatalf("access token: got %s", refreshed.AccessToken)
	}
	if refreshed.RefreshToken != "refresh-1" {
		t.Fatal("expected the original refresh token to be retained")
	}
	if !refreshed.Expiry.Equal(now.Add(time.Hour)) {
		t.Fatalf("expiry: got %v", refreshed.Expiry)
	}
}

func TestGoogleTokenSource_Refresh_RequiresRefreshToken(t *testing.T) {
	t.Parallel()

	source := NewGoogleTokenSource(nil, "client-abc", "secret")
	_, err := source.Refresh(context.Background(), Credentials{AccessToken: "stale"})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGoogleTokenSource_Refresh_SurfacesProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	source := NewGoogleTokenSource(server.Client(), "client-abc", "secret")
	source.tokenURL = server.URL

	if _, err := source.Refresh(context.Background(), Credentials{RefreshToken: "revoked"}); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
