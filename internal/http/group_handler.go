package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/rotation-scheduler/internal/application"
)

type groupService interface {
	CreateGroup(ctx context.Context, params application.CreateGroupParams) (application.Group, error)
	GetGroup(ctx context.Context, groupID string) (application.Group, error)
	ListGroups(ctx context.Context, onlyActive bool) ([]application.Group, error)
	AddMember(ctx context.Context, params application.AddMemberParams) (application.Group, error)
	RecordSkipWeek(ctx context.Context, params application.RecordSkipWeekParams) (application.SkipWeek, error)
}

type memberRemover interface {
	RemoveMember(ctx context.Context, params application.RemoveMemberParams) (application.RemoveMemberResult, error)
}

type GroupHandler struct {
	service   groupService
	members   memberRemover
	responder responder
	logger    *slog.Logger
}

func NewGroupHandler(service groupService, members memberRemover, logger *slog.Logger) *GroupHandler {
	base := defaultLogger(logger)
	return &GroupHandler{service: service, members: members, responder: newResponder(base), logger: base}
}

func (h *GroupHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "GroupHandler", operation, attrs...)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode group request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	group, err := h.service.CreateGroup(r.Context(), application.CreateGroupParams{
		Principal: principal,
		Input: application.GroupInput{
			Name:        req.Name,
			Description: req.Description,
			Weekday:     req.Weekday,
			TimeOfDay:   req.TimeOfDay,
			Timezone:    req.Timezone,
			Active:      req.Active,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "group creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("group_id", group.ID).InfoContext(r.Context(), "group created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, groupResponse{Group: toGroupDTO(group)})
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	logger := h.log(r.Context(), "Get", "group_id", groupID)

	group, err := h.service.GetGroup(r.Context(), groupID)
	if err != nil {
		logger.ErrorContext(r.Context(), "group lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, groupResponse{Group: toGroupDTO(group)})
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	onlyActive := r.URL.Query().Get("active") == "true"
	logger := h.log(r.Context(), "List", "only_active", onlyActive)

	groups, err := h.service.ListGroups(r.Context(), onlyActive)
	if err != nil {
		logger.ErrorContext(r.Context(), "group list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(groups)).InfoContext(r.Context(), "groups listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listGroupsResponse{Groups: toGroupDTOs(groups)})
}

func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "AddMember", "group_id", groupID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode member request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "AddMember", "group_id", groupID, "user_id", req.UserID)

	group, err := h.service.AddMember(r.Context(), application.AddMemberParams{
		Principal:     principal,
		GroupID:       groupID,
		UserID:        req.UserID,
		OrderPosition: req.OrderPosition,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "member addition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "member added")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, groupResponse{Group: toGroupDTO(group)})
}

func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request, userID string) {
	if h == nil || h.members == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}
	if strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "RemoveMember", "group_id", groupID, "user_id", userID)

	result, err := h.members.RemoveMember(r.Context(), application.RemoveMemberParams{
		Principal: principal,
		GroupID:   groupID,
		UserID:    userID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "member removal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("removed_rotation_count", result.RemovedRotationCount).InfoContext(r.Context(), "member removed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, removeMemberResponse{
		RemovedRotationCount: result.RemovedRotationCount,
	})
}

func (h *GroupHandler) RecordSkipWeek(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req skipWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "RecordSkipWeek", "group_id", groupID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode skip week request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "RecordSkipWeek", "group_id", groupID, "user_id", req.UserID)

	skip, err := h.service.RecordSkipWeek(r.Context(), application.RecordSkipWeekParams{
		Principal:   principal,
		GroupID:     groupID,
		UserID:      req.UserID,
		PeriodStart: req.PeriodStart,
		Reason:      req.Reason,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "skip week failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("period_start", skip.PeriodStart).InfoContext(r.Context(), "skip week recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, skipWeekResponse{SkipWeek: toSkipWeekDTO(skip)})
}

type groupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Weekday     int    `json:"weekday"`
	TimeOfDay   string `json:"time_of_day"`
	Timezone    string `json:"timezone"`
	Active      *bool  `json:"active"`
}

type addMemberRequest struct {
	UserID        string `json:"user_id"`
	OrderPosition int    `json:"order_position"`
}

type skipWeekRequest struct {
	UserID      string `json:"user_id"`
	PeriodStart string `json:"period_start"`
	Reason      string `json:"reason"`
}

type groupResponse struct {
	Group groupDTO `json:"group"`
}

type listGroupsResponse struct {
	Groups []groupDTO `json:"groups"`
}

type removeMemberResponse struct {
	RemovedRotationCount int `json:"removed_rotation_count"`
}

type skipWeekResponse struct {
	SkipWeek skipWeekDTO `json:"skip_week"`
}

type groupDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Members     []groupMemberDTO `json:"members"`
	Weekday     int              `json:"weekday"`
	TimeOfDay   string           `json:"time_of_day"`
	Timezone    string           `json:"timezone,omitempty"`
	Cursor      int              `json:"cursor"`
	Active      bool             `json:"active"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

type groupMemberDTO struct {
	UserID        string `json:"user_id"`
	OrderPosition int    `json:"order_position"`
}

type skipWeekDTO struct {
	UserID      string `json:"user_id"`
	GroupID     string `json:"group_id"`
	PeriodStart string `json:"period_start"`
	Reason      string `json:"reason,omitempty"`
}

func toGroupDTO(group application.Group) groupDTO {
	members := make([]groupMemberDTO, 0, len(group.Members))
	for _, member := range group.Members {
		members = append(members, groupMemberDTO{
			UserID:        member.UserID,
			OrderPosition: member.OrderPosition,
		})
	}
	return groupDTO{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		Members:     members,
		Weekday:     int(group.Schedule.Weekday),
		TimeOfDay:   group.Schedule.TimeOfDay,
		Timezone:    group.Schedule.Timezone,
		Cursor:      group.Cursor,
		Active:      group.Active,
		CreatedAt:   group.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   group.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toGroupDTOs(groups []application.Group) []groupDTO {
	if len(groups) == 0 {
		return nil
	}
	out := make([]groupDTO, 0, len(groups))
	for _, group := range groups {
		out = append(out, toGroupDTO(group))
	}
	return out
}

func toSkipWeekDTO(skip application.SkipWeek) skipWeekDTO {
	return skipWeekDTO{
		UserID:      skip.UserID,
		GroupID:     skip.GroupID,
		PeriodStart: skip.PeriodStart,
		Reason:      skip.Reason,
	}
}
