package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/rotation-scheduler/internal/application"
)

var (
	errBadRequestBody      = errors.New("request body is not valid JSON")
	errInvalidUserID       = errors.New("a user id is required")
	errInvalidGroupID      = errors.New("a group id is required")
	errInvalidRotationID   = errors.New("a rotation id is required")
	errMissingSessionToken = errors.New("a session token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// serviceErrorBody maps a service error to a response status and body.
func serviceErrorBody(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, errorResponse{
			ErrorCode: "NOT_FOUND",
			Message:   "the requested resource was not found",
		}
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		}
	case errors.Is(err, application.ErrEmptyGroup):
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "EMPTY_GROUP",
			Message:   "the group has no members to rotate through",
		}
	case errors.Is(err, application.ErrAllSkipped):
		return http.StatusConflict, errorResponse{
			ErrorCode: "ALL_SKIPPED",
			Message:   "every member is skipped for the requested period",
		}
	case errors.Is(err, application.ErrDuplicateSkip):
		return http.StatusConflict, errorResponse{
			ErrorCode: "DUPLICATE_SKIP",
			Message:   "a skip week for this user and period already exists",
		}
	case errors.Is(err, application.ErrAlreadyExists):
		return http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "the resource already exists",
		}
	case errors.Is(err, application.ErrUnauthenticated):
		return http.StatusConflict, errorResponse{
			ErrorCode: "CALENDAR_UNAUTHENTICATED",
			Message:   "the assignee has no usable calendar credentials",
		}
	case errors.Is(err, application.ErrExternalSync):
		return http.StatusBadGateway, errorResponse{
			ErrorCode: "EXTERNAL_SYNC_FAILURE",
			Message:   "the calendar provider could not be reached",
		}
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   "the request contains invalid values",
			Errors:    vErr.FieldErrors,
		}
	}

	return http.StatusInternalServerError, errorResponse{Message: "an internal error occurred"}
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}
	status, body := serviceErrorBody(err)
	r.writeJSON(ctx, w, status, body)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
