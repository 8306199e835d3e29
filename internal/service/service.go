// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
	"github.com/Shivanand-hulikatti/eventpass/internal/ticketcode"
	"github.com/Shivanand-hulikatti/eventpass/lib/validate"
)

// ErrValidation marks malformed input; its message is safe to show verbatim.
var ErrValidation = errors.New("validation failed")

// ErrInvalidTicket is the only failure a scanner operator ever sees for a
// presented code: forged, foreign and unknown tickets are indistinguishable.
var ErrInvalidTicket = errors.New("ticket invalid")

// ErrNoChannels is returned when an event has no active payment channel.
var ErrNoChannels = errors.New("no active payment channels")

// ErrCapacityExhausted is returned when every active channel would exceed
// its daily limit.
var ErrCapacityExhausted = errors.New("all payment channels reached their daily limit")

// ErrDeliveryDisabled is returned when no ticket sender is configured.
var ErrDeliveryDisabled = errors.New("ticket delivery is not configured")

// ErrTooManyAttempts is returned when PIN guesses exceed the attempt budget.
var ErrTooManyAttempts = errors.New("too many attempts")

type EventStore interface {
	Create(ctx context.Context, title string) (*model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	CreateTicketType(ctx context.Context, t model.TicketType) (*model.TicketType, error)
	GetTicketType(ctx context.Context, id string) (*model.TicketType, error)
	ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error)
}

type UserStore interface {
	EnsureByTelegramID(ctx context.Context, telegramID int64, firstName, lastName string) (*model.User, error)
}

type RegistrationStore interface {
	Create(ctx context.Context, eventID, userID, ticketTypeID string, data map[string]any) (*model.Registration, error)
	FindByID(ctx context.Context, id string) (*model.Registration, error)
	FindByQrToken(ctx context.Context, token string) (*model.Registration, error)
	FindByEventAndUser(ctx context.Context, eventID, userID string) (*model.Registration, error)
	ListByEvent(ctx context.Context, eventID string, filter model.RegistrationFilter) ([]model.Registration, error)
	UpdateStatus(ctx context.Context, id string, to model.RegistrationStatus) (*model.Registration, error)
}

type ChannelStore interface {
	Create(ctx context.Context, ch model.PaymentChannel) (*model.PaymentChannel, error)
	SetActive(ctx context.Context, id string, active bool) (*model.PaymentChannel, error)
	ListActiveWithTotals(ctx context.Context, eventID string) ([]model.ChannelLoad, error)
	Stats(ctx context.Context, eventID string) ([]model.ChannelStats, error)
}

type PaymentStore interface {
	CreatePending(ctx context.Context, registrationID, channelID string, amount decimal.Decimal, currency string) (*model.Payment, error)
	AttachProof(ctx context.Context, paymentID, proofRef string) (*model.Payment, error)
	Confirm(ctx context.Context, paymentID, confirmedBy string) (*model.Payment, error)
	Reject(ctx context.Context, paymentID, reason string) (*model.Payment, error)
	ListForReview(ctx context.Context, eventID string) ([]model.Payment, error)
	FindByID(ctx context.Context, id string) (*model.Payment, error)
	LatestByRegistration(ctx context.Context, registrationID string) (*model.Payment, error)
}

type CheckinStore interface {
	CheckIn(ctx context.Context, registrationID, scannedBy string, location *string) (*model.CheckInResult, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.CheckIn, error)
	Stats(ctx context.Context, eventID string) (model.CheckinStats, error)
}

type PinStore interface {
	SetHash(ctx context.Context, eventID, hash string) error
	Hash(ctx context.Context, eventID string) (string, bool, error)
	Delete(ctx context.Context, eventID string) error
}

// TicketCodec encodes and verifies scannable ticket payloads.
type TicketCodec interface {
	Encode(token string) (string, error)
	Decode(payload string) ticketcode.Result
}

// TicketSender delivers a confirmed ticket to its holder.
type TicketSender interface {
	SendTicket(ctx context.Context, registrationID string) error
}

// AttemptLimiter bounds repeated guesses per key.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// checkID rejects identifiers that are not UUIDs before they reach the store.
func checkID(name, id string) error {
	if id == "" {
		return invalid("%s is required", name)
	}
	if _, err := uuid.Parse(id); err != nil {
		return invalid("%s is not a valid id", name)
	}
	return nil
}

// checkStruct runs tag-based validation on request structs.
func checkStruct(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}
