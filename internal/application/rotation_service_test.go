package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/rotation-scheduler/internal/calendar"
)

type groupsStub struct {
	group         Group
	err           error
	cursorUpdates []int
	removed       []string
}

func (g *groupsStub) CreateGroup(ctx context.Context, group Group) error {
	g.group = group
	return g.err
}

func (g *groupsStub) GetGroup(ctx context.Context, id string) (Group, error) {
	if g.err != nil {
		return Group{}, g.err
	}
	if g.group.ID != id {
		return Group{}, ErrNotFound
	}
	return g.group, nil
}

func (g *groupsStub) ListGroups(ctx context.Context, onlyActive bool) ([]Group, error) {
	return []Group{g.group}, g.err
}

func (g *groupsStub) UpdateCursor(ctx context.Context, groupID string, cursor int) error {
	if g.err != nil {
		return g.err
	}
	g.group.Cursor = cursor
	g.cursorUpdates = append(g.cursorUpdates, cursor)
	return nil
}

func (g *groupsStub) AddMember(ctx context.Context, groupID string, member GroupMember) error {
	g.group.Members = append(g.group.Members, member)
	return g.err
}

func (g *groupsStub) RemoveMember(ctx context.Context, groupID, userID string) error {
	g.removed = append(g.removed, userID)
	kept := g.group.Members[:0]
	for _, member := range g.group.Members {
		if member.UserID != userID {
			kept = append(kept, member)
		}
	}
	g.group.Members = kept
	return g.err
}

type usersStub struct {
	users map[string]User
}

func (u *usersStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := u.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

type rotationsStub struct {
	records   map[string]Rotation
	createErr error
	updated   []Rotation
}

func newRotationsStub(records ...Rotation) *rotationsStub {
	stub := &rotationsStub{records: make(map[string]Rotation)}
	for _, record := range records {
		stub.records[record.ID] = record
	}
	return stub
}

func (r *rotationsStub) CreateRotation(ctx context.Context, rotation Rotation) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.records[rotation.ID] = rotation
	return nil
}

func (r *rotationsStub) GetRotation(ctx context.Context, id string) (Rotation, error) {
	record, ok := r.records[id]
	if !ok {
		return Rotation{}, ErrNotFound
	}
	return record, nil
}

func (r *rotationsStub) UpdateRotation(ctx context.Context, rotation Rotation) error {
	if _, ok := r.records[rotation.ID]; !ok {
		return ErrNotFound
	}
	r.records[rotation.ID] = rotation
	r.updated = append(r.updated, rotation)
	return nil
}

func (r *rotationsStub) DeleteRotation(ctx context.Context, id string) error {
	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *rotationsStub) ListRotations(ctx context.Context, filter RotationFilter) ([]Rotation, error) {
	var out []Rotation
	for _, record := range r.records {
		if filter.GroupID != "" && record.GroupID != filter.GroupID {
			continue
		}
		if filter.AssignedUserID != "" && record.AssignedUserID != filter.AssignedUserID {
			continue
		}
		if filter.PeriodStart != "" && record.PeriodStart != filter.PeriodStart {
			continue
		}
		if filter.PeriodFrom != "" && record.PeriodStart < filter.PeriodFrom {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

type skipsStub struct {
	skips []SkipWeek
	err   error
}

func (s *skipsStub) CreateSkipWeek(ctx context.Context, skip SkipWeek) error {
	for _, existing := range s.skips {
		if existing.UserID == skip.UserID && existing.GroupID == skip.GroupID && existing.PeriodStart == skip.PeriodStart {
			return ErrAlreadyExists
		}
	}
	s.skips = append(s.skips, skip)
	return s.err
}

func (s *skipsStub) ListSkipWeeks(ctx context.Context, groupID, periodStart string) ([]SkipWeek, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []SkipWeek
	for _, skip := range s.skips {
		if skip.GroupID == groupID && skip.PeriodStart == periodStart {
			out = append(out, skip)
		}
	}
	return out, nil
}

type syncStub struct {
	createCalls int
	deleteCalls int
	failAtCall  int
	createErr   error
	deleteErr   error
	events      []calendar.Event
	eventUsers  []string
	deleted     []string
}

func (s *syncStub) CreateEvent(ctx context.Context, userID string, creds *calendar.Credentials, event calendar.Event) (string, error) {
	s.createCalls++
	if s.failAtCall != 0 && s.createCalls == s.failAtCall {
		return "", errors.New("provider unavailable")
	}
	if s.createErr != nil {
		return "", s.createErr
	}
	s.events = append(s.events, event)
	s.eventUsers = append(s.eventUsers, userID)
	return fmt.Sprintf("evt-%d", s.createCalls), nil
}

func (s *syncStub) DeleteEvent(ctx context.Context, userID string, creds *calendar.Credentials, eventID string) error {
	s.deleteCalls++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, eventID)
	return nil
}

func testNow() time.Time {
	return time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
}

func testGroup(cursor int, memberIDs ...string) Group {
	members := make([]GroupMember, 0, len(memberIDs))
	for i, id := range memberIDs {
		members = append(members, GroupMember{UserID: id, OrderPosition: i})
	}
	return Group{
		ID:      "g1",
		Name:    "North Side",
		Members: members,
		Schedule: GroupSchedule{
			Weekday:   time.Monday,
			TimeOfDay: "10:00",
			Timezone:  "UTC",
		},
		Cursor: cursor,
		Active: true,
	}
}

func testUsers(ids ...string) *usersStub {
	users := make(map[string]User, len(ids))
	for _, id := range ids {
		users[id] = User{
			ID:          id,
			Email:       id + "@example.com",
			DisplayName: id,
			Credentials: &calendar.Credentials{AccessToken: "tok-" + id, Expiry: testNow().Add(time.Hour)},
		}
	}
	return &usersStub{users: users}
}

func newTestRotationService(groups *groupsStub, users *usersStub, rotations *rotationsStub, skips *skipsStub, sync *syncStub) *RotationService {
	counter := 0
	idGen := func() string {
		counter++
		return fmt.Sprintf("rot-%d", counter)
	}
	return NewRotationService(groups, users, rotations, skips, sync, NewGroupLocks(), idGen, testNow, nil)
}

func TestScheduleRotations_RoundRobin(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0, "v1", "v3")}
	sync := &syncStub{}
	svc := newTestRotationService(groups, testUsers("v1", "v3"), newRotationsStub(), &skipsStub{}, sync)

	applied, err := svc.ScheduleRotations(context.Background(), ScheduleRotationsParams{
		GroupID:     "g1",
		PeriodCount: 3,
		StartPeriod: "2026-02-16",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		period   string
		assignee string
	}{
		{"2026-02-16", "v1"},
		{"2026-02-23", "v3"},
		{"2026-03-02", "v1"},
	}
	if len(applied) != len(want) {
		t.Fatalf("applied rotations: got %d, want %d", len(applied), len(want))
	}
	for i, expect := range want {
		got := applied[i]
		if got.PeriodStart != expect.period || got.AssignedUserID != expect.assignee {
			t.Fatalf("rotation %d: got (%s, %s), want (%s, %s)", i, got.PeriodStart, got.AssignedUserID, expect.period, expect.assignee)
		}
		if got.Status != RotationStatusScheduled {
			t.Fatalf("rotation %d: status %s, want scheduled", i, got.Status)
		}
		if got.CalendarEventID == "" {
			t.Fatalf("rotation %d: missing calendar event id", i)
		}
	}

	if groups.group.Cursor != 1 {
		t.Fatalf("final cursor: got %d, want 1", groups.group.Cursor)
	}
	if sync.createCalls != 3 {
		t.Fatalf("calendar creates: got %d, want 3", sync.createCalls)
	}

	// Events land on the group's Monday slot for each period.
	first := sync.events[0]
	wantStart := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	if !first.Start.Equal(wantStart) {
		t.Fatalf("first event start: got %v, want %v", first.Start, wantStart)
	}
	if !first.End.Equal(wantStart.Add(time.Hour)) {
		t.Fatalf("first event end: got %v, want one hour after start", first.End)
	}
}

func TestScheduleRotations_SkipAdjustedBatch(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0, "v1", "v3")}
	skips := &skipsStub{skips: []SkipWeek{{UserID: "v1", GroupID: "g1", PeriodStart: "2026-02-16"}}}
	svc := newTestRotationService(groups, testUsers("v1", "v3"), newRotationsStub(), skips, &syncStub{})

	applied, err := svc.ScheduleRotations(context.Background(), ScheduleRotationsParams{
		GroupID:     "g1",
		PeriodCount: 3,
		StartPeriod: "2026-02-16",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantAssignees := []string{"v3", "v1", "v3"}
	for i, want := range wantAssignees {
		if applied[i].AssignedUserID != want {
			t.Fatalf("rotation %d: got %s, want %s", i, applied[i].AssignedUserID, want)
		}
	}
}

func TestScheduleRotations_AllSkippedLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0, "solo")}
	skips := &skipsStub{skips: []SkipWeek{{UserID: "solo", GroupID: "g1", PeriodStart: "2026-02-16"}}}
	rotations := newRotationsStub()
	sync := &syncStub{}
	svc := newTestRotationService(groups, testUsers("solo"), rotations, skips, sync)

	applied, err := svc.ScheduleRotations(context.Background(), ScheduleRotationsParams{
		GroupID:     "g1",
		PeriodCount: 1,
		StartPeriod: "2026-02-16",
	})
	if !errors.Is(err, ErrAllSkipped) {
		t.Fatalf("expected ErrAllSkipped, got %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("applied rotations: got %d, want 0", len(applied))
	}
	if groups.group.Cursor != 0 || len(groups.cursorUpdates) != 0 {
		t.Fatalf("cursor mutated on AllSkipped: cursor=%d updates=%v", groups.group.Cursor, groups.cursorUpdates)
	}
	if sync.createCalls != 0 {
		t.Fatalf("calendar called on AllSkipped: %d", sync.createCalls)
	}
}

func TestScheduleRotations_EmptyGroup(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0)}
	svc := newTestRotationService(groups, testUsers(), newRotationsStub(), &skipsStub{}, &syncStub{})

	_, err := svc.ScheduleRotations(context.Background(), ScheduleRotationsParams{
		GroupID:     "g1",
		PeriodCount: 1,
		StartPeriod: "2026-02-16",
	})
	if !errors.Is(err, ErrEmptyGroup) {
		t.Fatalf("expected ErrEmptyGroup, got %v", err)
	}
}

func TestScheduleRotations_MidBatchCalendarFailureIsPartiallyApplied(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0, "v1", "v3")}
	rotations := newRotationsStub()
	sync := &syncStub{failAtCall: 2}
	svc := newTestRotationService(groups, testUsers("v1", "v3"), rotations, &skipsStub{}, sync)

	applied, err := svc.ScheduleRotations(context.Background(), ScheduleRotationsParams{
		GroupID:     "g1",
		PeriodCount: 3,
		StartPeriod: "2026-02-16",
	})
	if !errors.Is(err, ErrExternalSync) {
		t.Fatalf("expected ErrExternalSync, got %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("applied rotations: got %d, want 1", len(applied))
	}
	if len(rotations.records) != 1 {
		t.Fatalf("stored rotations: got %d, want 1", len(rotations.records))
	}
	// The failing iteration's cursor advance has already been persisted;
	// the batch is reported as partially applied, not rolled back.
	if len(groups.cursorUpdates) != 2 {
		t.Fatalf("cursor updates: got %v, want two advances", groups.cursorUpdates)
	}
}

func TestScheduleRotations_UnauthenticatedAssignee(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0, "v1")}
	sync := &syncStub{createErr: calendar.ErrUnauthenticated}
	svc := newTestRotationService(groups, testUsers("v1"), newRotationsStub(), &skipsStub{}, sync)

	_, err := svc.ScheduleRotations(context.Background(), ScheduleRotationsParams{
		GroupID:     "g1",
		PeriodCount: 1,
		StartPeriod: "2026-02-16",
	})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestScheduleRotations_ValidatesInput(t *testing.T) {
	t.Parallel()

	svc := newTestRotationService(&groupsStub{group: testGroup(0, "v1")}, testUsers("v1"), newRotationsStub(), &skipsStub{}, &syncStub{})

	_, err := svc.ScheduleRotations(context.Background(), ScheduleRotationsParams{
		GroupID:     "g1",
		PeriodCount: 0,
		StartPeriod: "not-a-date",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["period_count"]; !ok {
		t.Fatalf("expected period_count error, got %v", vErr.FieldErrors)
	}
	if _, ok := vErr.FieldErrors["start_period"]; !ok {
		t.Fatalf("expected start_period error, got %v", vErr.FieldErrors)
	}
}

func TestSwap_ReplacesAssigneeWithoutTouchingCursor(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(1, "v1", "v3")}
	existing := Rotation{
		ID:              "rot-existing",
		GroupID:         "g1",
		AssignedUserID:  "v1",
		PeriodStart:     "2026-02-16",
		CalendarEventID: "evt-old",
		Status:          RotationStatusScheduled,
	}
	rotations := newRotationsStub(existing)
	sync := &syncStub{}
	svc := newTestRotationService(groups, testUsers("v1", "v3", "v9"), rotations, &skipsStub{}, sync)

	swapped, err := svc.Swap(context.Background(), SwapParams{
		GroupID:     "g1",
		PeriodStart: "2026-02-16",
		FromUserID:  "v1",
		ToUserID:    "v9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if swapped.AssignedUserID != "v9" {
		t.Fatalf("assignee: got %s, want v9", swapped.AssignedUserID)
	}
	if swapped.CalendarEventID == "" || swapped.CalendarEventID == "evt-old" {
		t.Fatalf("calendar event id not replaced: %s", swapped.CalendarEventID)
	}
	if swapped.SwappedAt == nil || !swapped.SwappedAt.Equal(testNow()) {
		t.Fatalf("swappedAt: got %v, want %v", swapped.SwappedAt, testNow())
	}
	if sync.deleteCalls != 1 || sync.deleted[0] != "evt-old" {
		t.Fatalf("old event not deleted exactly once: calls=%d deleted=%v", sync.deleteCalls, sync.deleted)
	}
	if sync.createCalls != 1 {
		t.Fatalf("new event creates: got %d, want 1", sync.createCalls)
	}
	if groups.group.Cursor != 1 || len(groups.cursorUpdates) != 0 {
		t.Fatalf("cursor changed by swap: cursor=%d updates=%v", groups.group.Cursor, groups.cursorUpdates)
	}
}

func TestSwap_NotFound(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0, "v1")}
	svc := newTestRotationService(groups, testUsers("v1", "v9"), newRotationsStub(), &skipsStub{}, &syncStub{})

	_, err := svc.Swap(context.Background(), SwapParams{
		GroupID:     "g1",
		PeriodStart: "2026-02-16",
		FromUserID:  "v1",
		ToUserID:    "v9",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSwap_EventDeleteFailureAborts(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0, "v1", "v3")}
	existing := Rotation{
		ID:              "rot-existing",
		GroupID:         "g1",
		AssignedUserID:  "v1",
		PeriodStart:     "2026-02-16",
		CalendarEventID: "evt-old",
		Status:          RotationStatusScheduled,
	}
	rotations := newRotationsStub(existing)
	sync := &syncStub{deleteErr: errors.New("provider unavailable")}
	svc := newTestRotationService(groups, testUsers("v1", "v9"), rotations, &skipsStub{}, sync)

	_, err := svc.Swap(context.Background(), SwapParams{
		GroupID:     "g1",
		PeriodStart: "2026-02-16",
		FromUserID:  "v1",
		ToUserID:    "v9",
	})
	if !errors.Is(err, ErrExternalSync) {
		t.Fatalf("expected ErrExternalSync, got %v", err)
	}
	if sync.createCalls != 0 {
		t.Fatal("new event created despite aborted swap")
	}
	stored := rotations.records["rot-existing"]
	if stored.AssignedUserID != "v1" || stored.CalendarEventID != "evt-old" || stored.SwappedAt != nil {
		t.Fatalf("rotation mutated despite aborted swap: %+v", stored)
	}
}

func TestCancel_RemovesRotationAndEvent(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(1, "v1", "v3")}
	existing := Rotation{
		ID:              "rot-1",
		GroupID:         "g1",
		AssignedUserID:  "v1",
		PeriodStart:     "2026-02-16",
		CalendarEventID: "evt-1",
		Status:          RotationStatusScheduled,
	}
	rotations := newRotationsStub(existing)
	sync := &syncStub{}
	svc := newTestRotationService(groups, testUsers("v1"), rotations, &skipsStub{}, sync)

	if err := svc.Cancel(context.Background(), Principal{}, "rot-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rotations.records["rot-1"]; ok {
		t.Fatal("rotation still stored after cancel")
	}
	if sync.deleteCalls != 1 || sync.deleted[0] != "evt-1" {
		t.Fatalf("event delete: calls=%d deleted=%v", sync.deleteCalls, sync.deleted)
	}
	if groups.group.Cursor != 1 || len(groups.cursorUpdates) != 0 {
		t.Fatal("cursor changed by cancel")
	}
}

func TestCancel_EventDeleteFailureKeepsRotation(t *testing.T) {
	t.Parallel()

	existing := Rotation{
		ID:              "rot-1",
		GroupID:         "g1",
		AssignedUserID:  "v1",
		PeriodStart:     "2026-02-16",
		CalendarEventID: "evt-1",
	}
	rotations := newRotationsStub(existing)
	sync := &syncStub{deleteErr: errors.New("provider unavailable")}
	svc := newTestRotationService(&groupsStub{group: testGroup(0, "v1")}, testUsers("v1"), rotations, &skipsStub{}, sync)

	err := svc.Cancel(context.Background(), Principal{}, "rot-1")
	if !errors.Is(err, ErrExternalSync) {
		t.Fatalf("expected ErrExternalSync, got %v", err)
	}
	if _, ok := rotations.records["rot-1"]; !ok {
		t.Fatal("rotation removed despite failed event delete")
	}
}

func TestCancel_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestRotationService(&groupsStub{group: testGroup(0, "v1")}, testUsers("v1"), newRotationsStub(), &skipsStub{}, &syncStub{})

	if err := svc.Cancel(context.Background(), Principal{}, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveMember_RemovesOnlyFutureRotations(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0, "v1", "v3")}
	rotations := newRotationsStub(
		Rotation{ID: "rot-past", GroupID: "g1", AssignedUserID: "v1", PeriodStart: "2026-02-02", CalendarEventID: "evt-past"},
		Rotation{ID: "rot-f1", GroupID: "g1", AssignedUserID: "v1", PeriodStart: "2026-02-16", CalendarEventID: "evt-f1"},
		Rotation{ID: "rot-f2", GroupID: "g1", AssignedUserID: "v1", PeriodStart: "2026-02-23", CalendarEventID: "evt-f2"},
		Rotation{ID: "rot-other", GroupID: "g1", AssignedUserID: "v3", PeriodStart: "2026-02-16", CalendarEventID: "evt-other"},
	)
	sync := &syncStub{}
	svc := newTestRotationService(groups, testUsers("v1", "v3"), rotations, &skipsStub{}, sync)

	result, err := svc.RemoveMember(context.Background(), RemoveMemberParams{GroupID: "g1", UserID: "v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RemovedRotationCount != 2 {
		t.Fatalf("removed count: got %d, want 2", result.RemovedRotationCount)
	}

	if len(groups.group.Members) != 1 || groups.group.Members[0].UserID != "v3" {
		t.Fatalf("members after removal: %+v", groups.group.Members)
	}
	if _, ok := rotations.records["rot-past"]; !ok {
		t.Fatal("past rotation removed")
	}
	if _, ok := rotations.records["rot-other"]; !ok {
		t.Fatal("other member's rotation removed")
	}
	if _, ok := rotations.records["rot-f1"]; ok {
		t.Fatal("future rotation rot-f1 not removed")
	}
	if sync.deleteCalls != 2 {
		t.Fatalf("event deletes: got %d, want 2", sync.deleteCalls)
	}
}

func TestRemoveMember_ToleratesEventDeleteFailures(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0, "v1")}
	rotations := newRotationsStub(
		Rotation{ID: "rot-f1", GroupID: "g1", AssignedUserID: "v1", PeriodStart: "2026-02-16", CalendarEventID: "evt-f1"},
		Rotation{ID: "rot-f2", GroupID: "g1", AssignedUserID: "v1", PeriodStart: "2026-02-23", CalendarEventID: "evt-f2"},
	)
	sync := &syncStub{deleteErr: errors.New("provider unavailable")}
	svc := newTestRotationService(groups, testUsers("v1"), rotations, &skipsStub{}, sync)

	result, err := svc.RemoveMember(context.Background(), RemoveMemberParams{GroupID: "g1", UserID: "v1"})
	if err != nil {
		t.Fatalf("expected tolerant removal, got error: %v", err)
	}
	if result.RemovedRotationCount != 2 {
		t.Fatalf("removed count: got %d, want 2", result.RemovedRotationCount)
	}
	if len(rotations.records) != 0 {
		t.Fatalf("rotations kept despite removal: %v", rotations.records)
	}
}

func TestRemoveMember_IdempotentForAbsentMember(t *testing.T) {
	t.Parallel()

	groups := &groupsStub{group: testGroup(0, "v1")}
	svc := newTestRotationService(groups, testUsers("v1"), newRotationsStub(), &skipsStub{}, &syncStub{})

	result, err := svc.RemoveMember(context.Background(), RemoveMemberParams{GroupID: "g1", UserID: "stranger"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RemovedRotationCount != 0 {
		t.Fatalf("removed count: got %d, want 0", result.RemovedRotationCount)
	}
}

func TestListRotations_OrderedByPeriod(t *testing.T) {
	t.Parallel()

	rotations := newRotationsStub(
		Rotation{ID: "b", GroupID: "g1", AssignedUserID: "v1", PeriodStart: "2026-03-02"},
		Rotation{ID: "a", GroupID: "g1", AssignedUserID: "v3", PeriodStart: "2026-02-16"},
		Rotation{ID: "c", GroupID: "other", AssignedUserID: "v1", PeriodStart: "2026-02-16"},
	)
	svc := newTestRotationService(&groupsStub{group: testGroup(0, "v1")}, testUsers("v1"), rotations, &skipsStub{}, &syncStub{})

	listed, err := svc.ListRotations(context.Background(), ListRotationsParams{GroupID: "g1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed rotations: got %d, want 2", len(listed))
	}
	if listed[0].ID != "a" || listed[1].ID != "b" {
		t.Fatalf("order: got [%s %s], want [a b]", listed[0].ID, listed[1].ID)
	}
}
