package booking

import (
	"errors"
	"fmt"

	"residency/internal/domain"
)

var (
	ErrNotFound         = errors.New("booking not found")
	ErrFacilityNotFound = errors.New("facility not found")
	ErrForbidden        = errors.New("forbidden")
)

// ValidationError reports a malformed field. It is raised before anything
// reaches the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// ConflictError carries the full list of active bookings overlapping the
// requested interval so the client can render them verbatim.
type ConflictError struct {
	Conflicts []domain.Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("interval conflicts with %d existing booking(s)", len(e.Conflicts))
}

// TransitionError reports a state change the lifecycle does not permit.
// No mutation happens when it is returned.
type TransitionError struct {
	From domain.BookingStatus
	To   domain.BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}
