// Package repository implements data access over MySQL. This file
// defines the error taxonomy shared by the repositories. These
// sentinel values let handlers distinguish failure scenarios and map
// each to a distinct HTTP status and human-readable message. Every
// error raised inside a transaction aborts and rolls back that
// transaction before it propagates.
package repository

import (
	"errors"
	"fmt"
)

// ErrEventNotFound is returned when the referenced event does not
// exist. Handlers translate this into a 404.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when a booking does not exist or has
// already been cancelled. The two cases are deliberately
// indistinguishable: a cancelled booking can never be re-cancelled.
var ErrBookingNotFound = errors.New("booking not found or already cancelled")

// ErrEventExpired is returned when a booking is attempted after the
// event date has passed.
var ErrEventExpired = errors.New("cannot book tickets for past events")

// ErrCancellationWindowClosed is returned when a cancellation is
// attempted strictly inside the cutoff window before the event starts.
var ErrCancellationWindowClosed = errors.New("cannot cancel booking less than 24 hours before the event")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own and lacks the admin role. Handlers
// translate this into a 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update or delete cannot proceed
// because of dependent state, such as shrinking an event's capacity
// below its booked seat count or deleting an event that still has
// confirmed bookings. Handlers translate this into a 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by user creation when the email address
// is already registered.
var ErrEmailExists = errors.New("email already exists")

// InsufficientSeatsError is returned by the booking transaction when
// the requested quantity exceeds the seats still available. It carries
// both numbers so the client can adjust its request without
// re-querying the event.
type InsufficientSeatsError struct {
	Available int
	Requested int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("Only %d seats available. You requested %d seats.", e.Available, e.Requested)
}
