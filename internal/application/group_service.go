package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/rotation-scheduler/internal/rotation"
)

// GroupService manages rotation groups, their membership and skip weeks.
type GroupService struct {
	groups      GroupStore
	users       UserStore
	skips       SkipWeekStore
	locks       *GroupLocks
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewGroupService wires dependencies for group operations.
func NewGroupService(groups GroupStore, users UserStore, skips SkipWeekStore, locks *GroupLocks, idGenerator func() string, now func() time.Time, logger *slog.Logger) *GroupService {
	if locks == nil {
		locks = NewGroupLocks()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &GroupService{
		groups:      groups,
		users:       users,
		skips:       skips,
		locks:       locks,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *GroupService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "GroupService", operation, attrs...)
}

// CreateGroup validates the request before delegating to persistence. New
// groups start with an empty member list and the cursor at zero.
func (s *GroupService) CreateGroup(ctx context.Context, params CreateGroupParams) (Group, error) {
	if s == nil {
		return Group{}, fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return Group{}, fmt.Errorf("group repository not configured")
	}

	input := params.Input
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Weekday < 0 || input.Weekday > 6 {
		vErr.add("weekday", "weekday must be between 0 (Sunday) and 6 (Saturday)")
	}
	if _, _, err := rotation.ParseTimeOfDay(input.TimeOfDay); err != nil {
		vErr.add("time_of_day", "schedule slot must be an HH:MM time")
	}
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			vErr.add("timezone", "timezone must be a valid IANA zone name")
		}
	}
	if vErr.HasErrors() {
		return Group{}, vErr
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	createdAt := s.now()
	group := Group{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Schedule: GroupSchedule{
			Weekday:   time.Weekday(input.Weekday),
			TimeOfDay: input.TimeOfDay,
			Timezone:  input.Timezone,
		},
		Cursor:    0,
		Active:    active,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	if err := s.groups.CreateGroup(ctx, group); err != nil {
		return Group{}, mapRepoError(err)
	}

	s.loggerWith(ctx, "CreateGroup").InfoContext(ctx, "group created", "group_id", group.ID, "name", group.Name)
	return group, nil
}

// GetGroup fetches one group by id.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (Group, error) {
	if s == nil || s.groups == nil {
		return Group{}, fmt.Errorf("group repository not configured")
	}
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return Group{}, mapRepoError(err)
	}
	return group, nil
}

// ListGroups enumerates groups ordered by name.
func (s *GroupService) ListGroups(ctx context.Context, onlyActive bool) ([]Group, error) {
	if s == nil || s.groups == nil {
		return nil, fmt.Errorf("group repository not configured")
	}
	groups, err := s.groups.ListGroups(ctx, onlyActive)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	ordered := make([]Group, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Name == ordered[j].Name {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Name < ordered[j].Name
	})
	return ordered, nil
}

// AddMember appends a user to the group's rotation order. Order positions
// must stay unique within a group; the selector relies on them defining a
// total order.
func (s *GroupService) AddMember(ctx context.Context, params AddMemberParams) (Group, error) {
	if s == nil {
		return Group{}, fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return Group{}, fmt.Errorf("group repository not configured")
	}

	release := s.locks.Acquire(params.GroupID)
	defer release()

	group, err := s.groups.GetGroup(ctx, params.GroupID)
	if err != nil {
		return Group{}, mapRepoError(err)
	}

	if s.users != nil {
		if _, err := s.users.GetUser(ctx, params.UserID); err != nil {
			return Group{}, mapRepoError(err)
		}
	}

	vErr := &ValidationError{}
	for _, member := range group.Members {
		if member.UserID == params.UserID {
			vErr.add("user_id", "user is already a member of the group")
			break
		}
		if member.OrderPosition == params.OrderPosition {
			vErr.add("order_position", "order position is already taken")
			break
		}
	}
	if vErr.HasErrors() {
		return Group{}, vErr
	}

	member := GroupMember{UserID: params.UserID, OrderPosition: params.OrderPosition}
	if err := s.groups.AddMember(ctx, group.ID, member); err != nil {
		return Group{}, mapRepoError(err)
	}

	group.Members = append(group.Members, member)
	sort.SliceStable(group.Members, func(i, j int) bool {
		return group.Members[i].OrderPosition < group.Members[j].OrderPosition
	})

	s.loggerWith(ctx, "AddMember", "group_id", group.ID).InfoContext(ctx, "member added",
		"user_id", params.UserID,
		"order_position", params.OrderPosition,
	)
	return group, nil
}

// RecordSkipWeek declares one user ineligible for one group period. The
// (user, group, period) triple is unique; a duplicate fails with
// ErrDuplicateSkip and leaves state unchanged.
func (s *GroupService) RecordSkipWeek(ctx context.Context, params RecordSkipWeekParams) (SkipWeek, error) {
	if s == nil {
		return SkipWeek{}, fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil || s.skips == nil {
		return SkipWeek{}, fmt.Errorf("group repositories not configured")
	}

	periodStart, err := rotation.ParsePeriod(params.PeriodStart)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("period_start", "period start must be a YYYY-MM-DD date")
		return SkipWeek{}, vErr
	}

	release := s.locks.Acquire(params.GroupID)
	defer release()

	group, err := s.groups.GetGroup(ctx, params.GroupID)
	if err != nil {
		return SkipWeek{}, mapRepoError(err)
	}

	isMember := false
	for _, member := range group.Members {
		if member.UserID == params.UserID {
			isMember = true
			break
		}
	}
	if !isMember {
		vErr := &ValidationError{}
		vErr.add("user_id", "user is not a member of the group")
		return SkipWeek{}, vErr
	}

	skip := SkipWeek{
		UserID:      params.UserID,
		GroupID:     group.ID,
		PeriodStart: rotation.FormatPeriod(periodStart),
		Reason:      params.Reason,
		CreatedAt:   s.now(),
	}

	if err := s.skips.CreateSkipWeek(ctx, skip); err != nil {
		mapped := mapRepoError(err)
		if errors.Is(mapped, ErrAlreadyExists) || errors.Is(mapped, ErrDuplicateSkip) {
			return SkipWeek{}, ErrDuplicateSkip
		}
		return SkipWeek{}, mapped
	}

	s.loggerWith(ctx, "RecordSkipWeek", "group_id", group.ID).InfoContext(ctx, "skip week recorded",
		"user_id", params.UserID,
		"period_start", skip.PeriodStart,
	)
	return skip, nil
}
