package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/rotation-scheduler/internal/persistence"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	pool, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := Migrate(context.Background(), pool); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return pool
}

func seedUser(t *testing.T, pool *ConnectionPool, id string) persistence.User {
	t.Helper()

	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	user := persistence.User{
		ID:           id,
		Email:        id + "@example.com",
		DisplayName:  id,
		PasswordHash: "hash-" + id,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := NewUserRepository(pool).CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
	return user
}

func seedGroup(t *testing.T, pool *ConnectionPool, id string, members ...persistence.GroupMember) persistence.Group {
	t.Helper()

	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	group := persistence.Group{
		ID:        id,
		Name:      "Group " + id,
		Weekday:   time.Monday,
		TimeOfDay: "10:00",
		Timezone:  "UTC",
		Members:   members,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := NewGroupRepository(pool).CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("failed to seed group %s: %v", id, err)
	}
	return group
}

func TestUserRepository_CalendarCredentials(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	seedUser(t, pool, "u1")

	stored, err := repo.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if stored.Credentials != nil {
		t.Fatalf("expected no credentials, got %+v", stored.Credentials)
	}

	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	creds := persistence.CalendarCredentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}
	if err := repo.UpdateCalendarCredentials(ctx, "u1", creds); err != nil {
		t.Fatalf("UpdateCalendarCredentials returned error: %v", err)
	}

	stored, err = repo.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if stored.Credentials == nil {
		t.Fatal("expected credentials after update")
	}
	if stored.Credentials.AccessToken != "access" || stored.Credentials.RefreshToken != "refresh" {
		t.Fatalf("unexpected credentials: %+v", stored.Credentials)
	}
	if !stored.Credentials.Expiry.Equal(expiry) {
		t.Fatalf("expiry: got %v, want %v", stored.Credentials.Expiry, expiry)
	}

	if err := repo.UpdateCalendarCredentials(ctx, "missing", creds); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	seedUser(t, pool, "u1")

	dup := persistence.User{
		ID:           "u2",
		Email:        "U1@Example.com",
		DisplayName:  "dup",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGroupRepository_MembersAndCursor(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewGroupRepository(pool)

	seedUser(t, pool, "v1")
	seedUser(t, pool, "v3")
	seedGroup(t, pool, "g1", persistence.GroupMember{UserID: "v1", OrderPosition: 0})

	if err := repo.AddMember(ctx, "g1", persistence.GroupMember{UserID: "v3", OrderPosition: 1}); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}

	// Duplicate user and taken order position both violate constraints.
	if err := repo.AddMember(ctx, "g1", persistence.GroupMember{UserID: "v3", OrderPosition: 2}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for duplicate user, got %v", err)
	}
	if err := repo.AddMember(ctx, "g1", persistence.GroupMember{UserID: "v1", OrderPosition: 1}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for taken position, got %v", err)
	}

	if err := repo.UpdateCursor(ctx, "g1", 1); err != nil {
		t.Fatalf("UpdateCursor returned error: %v", err)
	}

	group, err := repo.GetGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGroup returned error: %v", err)
	}
	if group.Cursor != 1 {
		t.Fatalf("cursor: got %d, want 1", group.Cursor)
	}
	if len(group.Members) != 2 || group.Members[0].UserID != "v1" || group.Members[1].UserID != "v3" {
		t.Fatalf("members not ordered by position: %+v", group.Members)
	}

	if err := repo.RemoveMember(ctx, "g1", "v1"); err != nil {
		t.Fatalf("RemoveMember returned error: %v", err)
	}
	// Removing again is a no-op.
	if err := repo.RemoveMember(ctx, "g1", "v1"); err != nil {
		t.Fatalf("second RemoveMember returned error: %v", err)
	}

	group, err = repo.GetGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGroup returned error: %v", err)
	}
	if len(group.Members) != 1 || group.Members[0].UserID != "v3" {
		t.Fatalf("members after removal: %+v", group.Members)
	}
}

func TestSkipWeekRepository_DuplicateTriple(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewSkipWeekRepository(pool)

	seedUser(t, pool, "v1")
	seedGroup(t, pool, "g1", persistence.GroupMember{UserID: "v1", OrderPosition: 0})

	skip := persistence.SkipWeek{
		UserID:      "v1",
		GroupID:     "g1",
		PeriodStart: "2026-02-16",
		CreatedAt:   time.Now(),
	}
	if err := repo.CreateSkipWeek(ctx, skip); err != nil {
		t.Fatalf("CreateSkipWeek returned error: %v", err)
	}
	if err := repo.CreateSkipWeek(ctx, skip); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	skips, err := repo.ListSkipWeeks(ctx, "g1", "2026-02-16")
	if err != nil {
		t.Fatalf("ListSkipWeeks returned error: %v", err)
	}
	if len(skips) != 1 {
		t.Fatalf("stored skips: got %d, want 1", len(skips))
	}
}

func TestRotationRepository_Filter(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewRotationRepository(pool)

	seedUser(t, pool, "v1")
	seedUser(t, pool, "v3")
	seedGroup(t, pool, "g1", persistence.GroupMember{UserID: "v1", OrderPosition: 0})

	records := []persistence.Rotation{
		{ID: "r1", GroupID: "g1", AssignedUserID: "v1", PeriodStart: "2026-02-09", Status: persistence.RotationStatusScheduled, CreatedAt: time.Now()},
		{ID: "r2", GroupID: "g1", AssignedUserID: "v1", PeriodStart: "2026-02-16", Status: persistence.RotationStatusScheduled, CreatedAt: time.Now()},
		{ID: "r3", GroupID: "g1", AssignedUserID: "v3", PeriodStart: "2026-02-16", Status: persistence.RotationStatusScheduled, CreatedAt: time.Now()},
	}
	for _, record := range records {
		if err := repo.CreateRotation(ctx, record); err != nil {
			t.Fatalf("CreateRotation(%s) returned error: %v", record.ID, err)
		}
	}

	matched, err := repo.ListRotations(ctx, persistence.RotationFilter{
		GroupID:        "g1",
		AssignedUserID: "v1",
		PeriodFrom:     "2026-02-10",
	})
	if err != nil {
		t.Fatalf("ListRotations returned error: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != "r2" {
		t.Fatalf("filter result: %+v", matched)
	}

	all, err := repo.ListRotations(ctx, persistence.RotationFilter{GroupID: "g1"})
	if err != nil {
		t.Fatalf("ListRotations returned error: %v", err)
	}
	if len(all) != 3 || all[0].ID != "r1" {
		t.Fatalf("unordered or incomplete listing: %+v", all)
	}
}

func TestRotationRepository_SwapRoundTrip(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewRotationRepository(pool)

	seedUser(t, pool, "v1")
	seedUser(t, pool, "v9")
	seedGroup(t, pool, "g1", persistence.GroupMember{UserID: "v1", OrderPosition: 0})

	record := persistence.Rotation{
		ID:              "r1",
		GroupID:         "g1",
		AssignedUserID:  "v1",
		PeriodStart:     "2026-02-16",
		CalendarEventID: "evt-1",
		Status:          persistence.RotationStatusScheduled,
		CreatedAt:       time.Now(),
	}
	if err := repo.CreateRotation(ctx, record); err != nil {
		t.Fatalf("CreateRotation returned error: %v", err)
	}

	swappedAt := time.Date(2026, 2, 12, 8, 0, 0, 0, time.UTC)
	record.AssignedUserID = "v9"
	record.CalendarEventID = "evt-2"
	record.SwappedAt = &swappedAt
	if err := repo.UpdateRotation(ctx, record); err != nil {
		t.Fatalf("UpdateRotation returned error: %v", err)
	}

	stored, err := repo.GetRotation(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRotation returned error: %v", err)
	}
	if stored.AssignedUserID != "v9" || stored.CalendarEventID != "evt-2" {
		t.Fatalf("swap not persisted: %+v", stored)
	}
	if stored.SwappedAt == nil || !stored.SwappedAt.Equal(swappedAt) {
		t.Fatalf("swappedAt: got %v, want %v", stored.SwappedAt, swappedAt)
	}

	if err := repo.DeleteRotation(ctx, "r1"); err != nil {
		t.Fatalf("DeleteRotation returned error: %v", err)
	}
	if _, err := repo.GetRotation(ctx, "r1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewSessionRepository(pool)

	seedUser(t, pool, "u1")

	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	session := persistence.Session{
		ID:        "s1",
		UserID:    "u1",
		Token:     "tok-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	stored, err := repo.GetSession(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if stored.UserID != "u1" || stored.RevokedAt != nil {
		t.Fatalf("unexpected session: %+v", stored)
	}

	revoked, err := repo.RevokeSession(ctx, "tok-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("RevokeSession returned error: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatal("session not marked revoked")
	}

	if err := repo.DeleteExpiredSessions(ctx, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("DeleteExpiredSessions returned error: %v", err)
	}
	if _, err := repo.GetSession(ctx, "tok-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after purge, got %v", err)
	}
}
