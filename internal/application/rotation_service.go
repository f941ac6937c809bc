package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/rotation-scheduler/internal/calendar"
	"github.com/example/rotation-scheduler/internal/rotation"
)

// RotationService orchestrates the scheduling workflow and the rotation
// mutation operations (swap, cancel, member removal). All operations
// targeting one group are serialized through the shared lock registry.
type RotationService struct {
	groups       GroupStore
	users        UserStore
	rotations    RotationStore
	skips        SkipWeekStore
	synchronizer Synchronizer
	locks        *GroupLocks
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewRotationService wires dependencies for rotation operations.
func NewRotationService(groups GroupStore, users UserStore, rotations RotationStore, skips SkipWeekStore, synchronizer Synchronizer, locks *GroupLocks, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RotationService {
	if locks == nil {
		locks = NewGroupLocks()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RotationService{
		groups:       groups,
		users:        users,
		rotations:    rotations,
		skips:        skips,
		synchronizer: synchronizer,
		locks:        locks,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *RotationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RotationService", operation, attrs...)
}

// ScheduleRotations assigns the next eligible member for each of the
// requested periods, creating one calendar event and one rotation record per
// period. Iterations are applied sequentially and are not rolled back: on a
// mid-batch failure the rotations already produced are returned alongside
// the error, and the group cursor keeps any advances already persisted.
func (s *RotationService) ScheduleRotations(ctx context.Context, params ScheduleRotationsParams) ([]Rotation, error) {
	if s == nil {
		return nil, fmt.Errorf("RotationService is nil")
	}
	if s.groups == nil || s.rotations == nil {
		return nil, fmt.Errorf("rotation repositories not configured")
	}

	vErr := &ValidationError{}
	if params.PeriodCount < 1 {
		vErr.add("period_count", "period count must be at least 1")
	}
	startPeriod, err := rotation.ParsePeriod(params.StartPeriod)
	if err != nil {
		vErr.add("start_period", "start period must be a YYYY-MM-DD date")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	logger := s.loggerWith(ctx, "ScheduleRotations",
		"group_id", params.GroupID,
		"period_count", params.PeriodCount,
	)

	release := s.locks.Acquire(params.GroupID)
	defer release()

	group, err := s.groups.GetGroup(ctx, params.GroupID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	loc := scheduleLocation(group.Schedule)

	applied := make([]Rotation, 0, params.PeriodCount)
	for i := 0; i < params.PeriodCount; i++ {
		target := rotation.AddPeriods(startPeriod, i)
		targetPeriod := rotation.FormatPeriod(target)

		skipped, err := s.skippedUsers(ctx, group.ID, targetPeriod)
		if err != nil {
			return applied, err
		}

		selection, err := rotation.SelectNext(selectorMembers(group.Members), group.Cursor, skipped)
		if err != nil {
			// Selector failures abort the batch with no mutation for
			// the failing iteration.
			return applied, mapSelectorError(err)
		}

		if err := s.groups.UpdateCursor(ctx, group.ID, selection.NewCursor); err != nil {
			return applied, mapRepoError(err)
		}
		group.Cursor = selection.NewCursor

		assignee, err := s.users.GetUser(ctx, selection.UserID)
		if err != nil {
			return applied, mapRepoError(err)
		}

		eventID, err := s.createVisitEvent(ctx, group, assignee, target, loc)
		if err != nil {
			// The cursor advance for this iteration has already been
			// persisted; the batch is reported as partially applied.
			return applied, err
		}

		record := Rotation{
			ID:              s.idGenerator(),
			GroupID:         group.ID,
			AssignedUserID:  assignee.ID,
			PeriodStart:     targetPeriod,
			CalendarEventID: eventID,
			Status:          RotationStatusScheduled,
			CreatedAt:       s.now(),
		}
		if err := s.rotations.CreateRotation(ctx, record); err != nil {
			return applied, mapRepoError(err)
		}

		applied = append(applied, record)
		logger.InfoContext(ctx, "rotation scheduled",
			"period_start", targetPeriod,
			"assigned_user_id", assignee.ID,
			"cursor", group.Cursor,
		)
	}

	return applied, nil
}

// Swap replaces one period's assignee. The old calendar event is deleted and
// a new one created for the incoming assignee; any failure aborts the swap
// before the rotation record changes. The group cursor is never touched: a
// swap is a one-off override decoupled from future round-robin order.
func (s *RotationService) Swap(ctx context.Context, params SwapParams) (Rotation, error) {
	if s == nil {
		return Rotation{}, fmt.Errorf("RotationService is nil")
	}
	if s.groups == nil || s.rotations == nil {
		return Rotation{}, fmt.Errorf("rotation repositories not configured")
	}

	periodStart, err := rotation.ParsePeriod(params.PeriodStart)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("period_start", "period start must be a YYYY-MM-DD date")
		return Rotation{}, vErr
	}
	targetPeriod := rotation.FormatPeriod(periodStart)

	release := s.locks.Acquire(params.GroupID)
	defer release()

	group, err := s.groups.GetGroup(ctx, params.GroupID)
	if err != nil {
		return Rotation{}, mapRepoError(err)
	}

	matches, err := s.rotations.ListRotations(ctx, RotationFilter{
		GroupID:        params.GroupID,
		AssignedUserID: params.FromUserID,
		PeriodStart:    targetPeriod,
	})
	if err != nil && !isNotFoundError(err) {
		return Rotation{}, err
	}
	if len(matches) == 0 {
		return Rotation{}, ErrNotFound
	}
	record := matches[0]

	toUser, err := s.users.GetUser(ctx, params.ToUserID)
	if err != nil {
		return Rotation{}, mapRepoError(err)
	}

	if record.CalendarEventID != "" {
		fromUser, err := s.users.GetUser(ctx, params.FromUserID)
		if err != nil {
			return Rotation{}, mapRepoError(err)
		}
		if err := s.synchronizer.DeleteEvent(ctx, fromUser.ID, fromUser.Credentials, record.CalendarEventID); err != nil {
			return Rotation{}, mapSyncError(err)
		}
	}

	eventID, err := s.createVisitEvent(ctx, group, toUser, periodStart, scheduleLocation(group.Schedule))
	if err != nil {
		return Rotation{}, err
	}

	swappedAt := s.now()
	record.AssignedUserID = toUser.ID
	record.CalendarEventID = eventID
	record.SwappedAt = &swappedAt
	if err := s.rotations.UpdateRotation(ctx, record); err != nil {
		return Rotation{}, mapRepoError(err)
	}

	s.loggerWith(ctx, "Swap", "group_id", params.GroupID).InfoContext(ctx, "rotation swapped",
		"period_start", targetPeriod,
		"from_user_id", params.FromUserID,
		"to_user_id", params.ToUserID,
	)
	return record, nil
}

// Cancel voids one rotation. The calendar event is deleted first; if that
// fails the rotation record is kept so store and calendar stay consistent.
// The assignee's turn is not re-offered to the cursor sequence.
func (s *RotationService) Cancel(ctx context.Context, principal Principal, rotationID string) error {
	if s == nil {
		return fmt.Errorf("RotationService is nil")
	}
	if s.rotations == nil {
		return fmt.Errorf("rotation repositories not configured")
	}

	record, err := s.rotations.GetRotation(ctx, rotationID)
	if err != nil {
		return mapRepoError(err)
	}

	release := s.locks.Acquire(record.GroupID)
	defer release()

	// Re-read under the lock; a concurrent swap may have replaced the
	// calendar event in the meantime.
	record, err = s.rotations.GetRotation(ctx, rotationID)
	if err != nil {
		return mapRepoError(err)
	}

	if record.CalendarEventID != "" {
		assignee, err := s.users.GetUser(ctx, record.AssignedUserID)
		if err != nil {
			return mapRepoError(err)
		}
		if err := s.synchronizer.DeleteEvent(ctx, assignee.ID, assignee.Credentials, record.CalendarEventID); err != nil {
			return mapSyncError(err)
		}
	}

	if err := s.rotations.DeleteRotation(ctx, rotationID); err != nil {
		return mapRepoError(err)
	}

	s.loggerWith(ctx, "Cancel", "group_id", record.GroupID).InfoContext(ctx, "rotation cancelled",
		"rotation_id", rotationID,
		"period_start", record.PeriodStart,
	)
	return nil
}

// RemoveMember detaches a user from a group and clears their future
// rotations. Calendar-side delete failures are logged and counted but never
// abort the removal; the matched rotation records are removed regardless.
// The group cursor is left as stored: it is a modulo position, so the next
// selection reinterprets it against the shrunken member list.
func (s *RotationService) RemoveMember(ctx context.Context, params RemoveMemberParams) (RemoveMemberResult, error) {
	if s == nil {
		return RemoveMemberResult{}, fmt.Errorf("RotationService is nil")
	}
	if s.groups == nil || s.rotations == nil {
		return RemoveMemberResult{}, fmt.Errorf("rotation repositories not configured")
	}

	logger := s.loggerWith(ctx, "RemoveMember",
		"group_id", params.GroupID,
		"user_id", params.UserID,
	)

	release := s.locks.Acquire(params.GroupID)
	defer release()

	group, err := s.groups.GetGroup(ctx, params.GroupID)
	if err != nil {
		return RemoveMemberResult{}, mapRepoError(err)
	}

	if err := s.groups.RemoveMember(ctx, group.ID, params.UserID); err != nil {
		return RemoveMemberResult{}, mapRepoError(err)
	}

	today := s.now().In(scheduleLocation(group.Schedule)).Format("2006-01-02")
	future, err := s.rotations.ListRotations(ctx, RotationFilter{
		GroupID:        group.ID,
		AssignedUserID: params.UserID,
		PeriodFrom:     today,
	})
	if err != nil && !isNotFoundError(err) {
		return RemoveMemberResult{}, err
	}

	var user User
	var userErr error
	if len(future) > 0 {
		user, userErr = s.users.GetUser(ctx, params.UserID)
	}

	removed := 0
	for _, record := range future {
		if record.CalendarEventID != "" {
			if userErr != nil {
				logger.WarnContext(ctx, "skipping event delete, user lookup failed",
					"rotation_id", record.ID, "error", userErr)
			} else if err := s.synchronizer.DeleteEvent(ctx, user.ID, user.Credentials, record.CalendarEventID); err != nil {
				logger.WarnContext(ctx, "failed to delete calendar event",
					"rotation_id", record.ID,
					"calendar_event_id", record.CalendarEventID,
					"error", err,
				)
			}
		}
		if err := s.rotations.DeleteRotation(ctx, record.ID); err != nil {
			return RemoveMemberResult{RemovedRotationCount: removed}, mapRepoError(err)
		}
		removed++
	}

	logger.InfoContext(ctx, "member removed", "removed_rotation_count", removed)
	return RemoveMemberResult{RemovedRotationCount: removed}, nil
}

// ListRotations enumerates a group's rotations ordered by period start.
func (s *RotationService) ListRotations(ctx context.Context, params ListRotationsParams) ([]Rotation, error) {
	if s == nil {
		return nil, fmt.Errorf("RotationService is nil")
	}
	if s.rotations == nil {
		return nil, fmt.Errorf("rotation repositories not configured")
	}

	filter := RotationFilter{GroupID: params.GroupID}
	if params.FutureOnly {
		filter.PeriodFrom = s.now().Format("2006-01-02")
	}

	records, err := s.rotations.ListRotations(ctx, filter)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	ordered := make([]Rotation, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].PeriodStart == ordered[j].PeriodStart {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].PeriodStart < ordered[j].PeriodStart
	})
	return ordered, nil
}

func (s *RotationService) skippedUsers(ctx context.Context, groupID, periodStart string) (map[string]bool, error) {
	if s.skips == nil {
		return nil, nil
	}
	skips, err := s.skips.ListSkipWeeks(ctx, groupID, periodStart)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(skips) == 0 {
		return nil, nil
	}
	skipped := make(map[string]bool, len(skips))
	for _, skip := range skips {
		skipped[skip.UserID] = true
	}
	return skipped, nil
}

func (s *RotationService) createVisitEvent(ctx context.Context, group Group, assignee User, periodStart time.Time, loc *time.Location) (string, error) {
	if s.synchronizer == nil {
		return "", nil
	}

	start, end, err := rotation.VisitWindow(periodStart, group.Schedule.Weekday, group.Schedule.TimeOfDay, loc)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("time_of_day", "schedule slot must be an HH:MM time")
		return "", vErr
	}

	event := calendar.Event{
		Summary:     fmt.Sprintf("Visit: %s", group.Name),
		Description: fmt.Sprintf("Rotation visit for %s, week of %s.", group.Name, rotation.FormatPeriod(periodStart)),
		Start:       start,
		End:         end,
		Timezone:    group.Schedule.Timezone,
	}

	eventID, err := s.synchronizer.CreateEvent(ctx, assignee.ID, assignee.Credentials, event)
	if err != nil {
		return "", mapSyncError(err)
	}
	return eventID, nil
}

func selectorMembers(members []GroupMember) []rotation.Member {
	out := make([]rotation.Member, 0, len(members))
	for _, member := range members {
		out = append(out, rotation.Member{UserID: member.UserID, OrderPosition: member.OrderPosition})
	}
	return out
}

func scheduleLocation(schedule GroupSchedule) *time.Location {
	if schedule.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mapSelectorError(err error) error {
	switch {
	case errors.Is(err, rotation.ErrEmptyGroup):
		return ErrEmptyGroup
	case errors.Is(err, rotation.ErrAllSkipped):
		return ErrAllSkipped
	}
	return err
}

func mapSyncError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, calendar.ErrUnauthenticated) {
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if errors.As(err, new(*ValidationError)) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrExternalSync, err)
}
