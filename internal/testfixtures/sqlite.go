package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/rotation-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Users     *sqlite.UserRepository
	Groups    *sqlite.GroupRepository
	SkipWeeks *sqlite.SkipWeekRepository
	Rotations *sqlite.RotationRepository
	Sessions  *sqlite.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	dsn := "file:" + filepath.Join(dir, "rotationd.db")

	pool, err := sqlite.Open(dsn)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Users:     sqlite.NewUserRepository(pool),
		Groups:    sqlite.NewGroupRepository(pool),
		SkipWeeks: sqlite.NewSkipWeekRepository(pool),
		Rotations: sqlite.NewRotationRepository(pool),
		Sessions:  sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
