package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique resource would be created twice.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrEmptyGroup is returned when a rotation group has no members to assign.
	ErrEmptyGroup = errors.New("application: group has no members")
	// ErrAllSkipped is returned when every candidate holds a skip week for the target period.
	ErrAllSkipped = errors.New("application: all candidates skipped")
	// ErrDuplicateSkip is returned when a skip week already exists for the
	// same user, group and period.
	ErrDuplicateSkip = errors.New("application: duplicate skip week")
	// ErrUnauthenticated is returned when a user has no usable calendar
	// credentials and they could not be refreshed.
	ErrUnauthenticated = errors.New("application: calendar credentials missing or unrefreshable")
	// ErrExternalSync is returned when the external calendar rejects an
	// event operation.
	ErrExternalSync = errors.New("application: external calendar sync failed")
	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a presented session token has expired.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a presented session token was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
