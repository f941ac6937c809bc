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

type rotationService interface {
	ScheduleRotations(ctx context.Context, params application.ScheduleRotationsParams) ([]application.Rotation, error)
	ListRotations(ctx context.Context, params application.ListRotationsParams) ([]application.Rotation, error)
	Swap(ctx context.Context, params application.SwapParams) (application.Rotation, error)
	Cancel(ctx context.Context, principal application.Principal, rotationID string) error
}

type RotationHandler struct {
	service   rotationService
	responder responder
	logger    *slog.Logger
}

func NewRotationHandler(service rotationService, logger *slog.Logger) *RotationHandler {
	base := defaultLogger(logger)
	return &RotationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RotationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RotationHandler", operation, attrs...)
}

// Schedule runs the rotation workflow for the requested periods. The batch is
// not transactional: rotations applied before a mid-batch failure are kept
// and returned alongside the error payload.
func (h *RotationHandler) Schedule(w http.ResponseWriter, r *http.Request) {
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

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Schedule", "group_id", groupID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode schedule request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Schedule", "group_id", groupID, "period_count", req.PeriodCount)

	applied, err := h.service.ScheduleRotations(r.Context(), application.ScheduleRotationsParams{
		Principal:   principal,
		GroupID:     groupID,
		PeriodCount: req.PeriodCount,
		StartPeriod: req.StartPeriod,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "scheduling failed", "error", err, "error_kind", application.ErrorKind(err), "applied_count", len(applied))
		if len(applied) > 0 {
			status, body := serviceErrorBody(err)
			h.responder.writeJSON(r.Context(), w, status, scheduleResponse{
				Rotations: toRotationDTOs(applied),
				ErrorCode: body.ErrorCode,
				Message:   body.Message,
			})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("applied_count", len(applied)).InfoContext(r.Context(), "rotations scheduled")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, scheduleResponse{Rotations: toRotationDTOs(applied)})
}

func (h *RotationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	futureOnly := r.URL.Query().Get("future") == "true"
	logger := h.log(r.Context(), "List", "group_id", groupID, "future_only", futureOnly)

	rotations, err := h.service.ListRotations(r.Context(), application.ListRotationsParams{
		GroupID:    groupID,
		FutureOnly: futureOnly,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "rotation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(rotations)).InfoContext(r.Context(), "rotations listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRotationsResponse{Rotations: toRotationDTOs(rotations)})
}

func (h *RotationHandler) Swap(w http.ResponseWriter, r *http.Request) {
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

	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Swap", "group_id", groupID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode swap request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Swap",
		"group_id", groupID,
		"period_start", req.PeriodStart,
		"from_user_id", req.FromUserID,
		"to_user_id", req.ToUserID,
	)

	swapped, err := h.service.Swap(r.Context(), application.SwapParams{
		Principal:   principal,
		GroupID:     groupID,
		PeriodStart: req.PeriodStart,
		FromUserID:  req.FromUserID,
		ToUserID:    req.ToUserID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "swap failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "rotation swapped")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, rotationResponse{Rotation: toRotationDTO(swapped)})
}

func (h *RotationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rotationID, ok := RotationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(rotationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRotationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "rotation_id", rotationID)

	if err := h.service.Cancel(r.Context(), principal, rotationID); err != nil {
		logger.ErrorContext(r.Context(), "cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "rotation cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type scheduleRequest struct {
	PeriodCount int    `json:"period_count"`
	StartPeriod string `json:"start_period"`
}

type swapRequest struct {
	PeriodStart string `json:"period_start"`
	FromUserID  string `json:"from_user_id"`
	ToUserID    string `json:"to_user_id"`
}

type scheduleResponse struct {
	Rotations []rotationDTO `json:"rotations"`
	ErrorCode string        `json:"error_code,omitempty"`
	Message   string        `json:"message,omitempty"`
}

type rotationResponse struct {
	Rotation rotationDTO `json:"rotation"`
}

type listRotationsResponse struct {
	Rotations []rotationDTO `json:"rotations"`
}

type rotationDTO struct {
	ID              string `json:"id"`
	GroupID         string `json:"group_id"`
	AssignedUserID  string `json:"assigned_user_id"`
	PeriodStart     string `json:"period_start"`
	CalendarEventID string `json:"calendar_event_id,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	SwappedAt       string `json:"swapped_at,omitempty"`
}

func toRotationDTO(rotation application.Rotation) rotationDTO {
	dto := rotationDTO{
		ID:              rotation.ID,
		GroupID:         rotation.GroupID,
		AssignedUserID:  rotation.AssignedUserID,
		PeriodStart:     rotation.PeriodStart,
		CalendarEventID: rotation.CalendarEventID,
		Status:          rotation.Status,
		CreatedAt:       rotation.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if rotation.SwappedAt != nil {
		dto.SwappedAt = rotation.SwappedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func toRotationDTOs(rotations []application.Rotation) []rotationDTO {
	if len(rotations) == 0 {
		return nil
	}
	out := make([]rotationDTO, 0, len(rotations))
	for _, rotation := range rotations {
		out = append(out, toRotationDTO(rotation))
	}
	return out
}
