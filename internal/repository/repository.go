// Package repository implements all database queries for the ticketing core.
// It uses pgx directly (no ORM); the store's transactions and constraints are
// the only synchronisation the core relies on.
package repository

import (
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/eventpass/internal/database"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrSoldOut is returned when a ticket type has no remaining quantity.
var ErrSoldOut = errors.New("tickets sold out")

// ErrAlreadyRegistered is returned when the same user registers twice for an event.
var ErrAlreadyRegistered = errors.New("user already registered for this event")

// ErrInvalidTransition is returned when a status change is not allowed from
// the record's current status.
var ErrInvalidTransition = errors.New("status transition not allowed")

// ErrNotConfirmed is returned when checking in a registration that is not confirmed.
var ErrNotConfirmed = errors.New("registration is not confirmed")

// ErrTransient marks lock timeouts, statement timeouts and lost connections.
// The failed transaction was rolled back and may be retried as a whole.
var ErrTransient = errors.New("transient store failure")

const (
	constraintRegistrationEventUser = "registrations_event_user_key"
	constraintCheckinRegistration   = "check_ins_registration_key"
)

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// wrap annotates err with op and tags store failures that are safe to retry.
func wrap(op string, err error) error {
	if database.IsTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
