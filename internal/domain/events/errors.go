package events

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("event not found")
	ErrParticipantConflict = errors.New("participant already registered")
	ErrQuotaFull           = errors.New("event quota full")
	ErrInvalidTimeRange    = errors.New("end time must be after start time")

	// Identity lookup outcomes. ErrIdentityUnavailable must never be
	// collapsed into a not-found: "could not check" is not "no such person".
	ErrIdentityNotFound    = errors.New("resident not found in identity service")
	ErrIdentityConflict    = errors.New("identity service reported a conflict")
	ErrIdentityUnavailable = errors.New("identity service unavailable")
)

// FilterError is a validation failure for one request parameter.
type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
