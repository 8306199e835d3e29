package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/eventpass/internal/metrics"
	"github.com/Shivanand-hulikatti/eventpass/internal/model"
	"github.com/Shivanand-hulikatti/eventpass/internal/repository"
	"github.com/Shivanand-hulikatti/eventpass/internal/ticketcode"
	"github.com/Shivanand-hulikatti/eventpass/lib/sl"
)

// Registrations orchestrates events, inventory and registrations.
type Registrations struct {
	events   EventStore
	users    UserStore
	regs     RegistrationStore
	codec    TicketCodec
	delivery *deliverer
	log      *slog.Logger
}

// NewRegistrations constructs a Registrations service. sender may be nil,
// in which case free tickets are not pushed to holders.
func NewRegistrations(events EventStore, users UserStore, regs RegistrationStore, codec TicketCodec, sender TicketSender, log *slog.Logger) *Registrations {
	log = log.With(sl.Module("service.registrations"))
	return &Registrations{
		events:   events,
		users:    users,
		regs:     regs,
		codec:    codec,
		delivery: &deliverer{sender: sender, log: log},
		log:      log,
	}
}

// CreateEvent validates the request and delegates to the repository.
func (s *Registrations) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := checkStruct(&req); err != nil {
		return nil, err
	}
	return s.events.Create(ctx, req.Title)
}

// GetEvent returns a single event by ID.
func (s *Registrations) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if err := checkID("event id", id); err != nil {
		return nil, err
	}
	return s.events.GetByID(ctx, id)
}

func (s *Registrations) ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error) {
	if err := checkID("event id", eventID); err != nil {
		return nil, err
	}
	return s.events.ListTicketTypes(ctx, eventID)
}

func (s *Registrations) CreateTicketType(ctx context.Context, eventID string, req model.CreateTicketTypeRequest) (*model.TicketType, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := checkID("event id", eventID); err != nil {
		return nil, err
	}
	if err := checkStruct(&req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, invalid("price must not be negative")
	}
	return s.events.CreateTicketType(ctx, model.TicketType{
		EventID:  eventID,
		Name:     req.Name,
		Price:    req.Price.Round(2),
		Quantity: req.Quantity,
	})
}

func (s *Registrations) EnsureUser(ctx context.Context, req model.EnsureUserRequest) (*model.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := checkStruct(&req); err != nil {
		return nil, err
	}
	return s.users.EnsureByTelegramID(ctx, req.TelegramID, req.FirstName, req.LastName)
}

// CreateRegistration validates the request and delegates the
// concurrency-safe purchase to the repository. Free tickets come back
// confirmed and are delivered right away.
func (s *Registrations) CreateRegistration(ctx context.Context, eventID string, req model.RegisterRequest) (*model.Registration, error) {
	if err := checkID("event id", eventID); err != nil {
		return nil, err
	}
	if err := checkStruct(&req); err != nil {
		return nil, err
	}
	log := s.log.With(
		slog.String("event_id", eventID),
		slog.String("user_id", req.UserID),
		slog.String("ticket_type_id", req.TicketTypeID),
	)

	// Fast path for the common retry; the store re-checks under the lock.
	if _, err := s.regs.FindByEventAndUser(ctx, eventID, req.UserID); err == nil {
		metrics.Registration("duplicate")
		return nil, repository.ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing registration: %w", err)
	}

	reg, err := s.regs.Create(ctx, eventID, req.UserID, req.TicketTypeID, req.Data)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSoldOut):
			metrics.Registration("sold_out")
		case errors.Is(err, repository.ErrAlreadyRegistered):
			metrics.Registration("duplicate")
		case errors.Is(err, repository.ErrNotFound):
			metrics.Registration("not_found")
		default:
			metrics.Registration("error")
			log.Error("create registration", sl.Err(err))
		}
		return nil, err
	}
	metrics.Registration("created")
	log.Info("registration created",
		slog.String("registration_id", reg.ID),
		slog.String("status", string(reg.Status)))

	if reg.Status == model.StatusConfirmed {
		s.delivery.deliver(ctx, reg.ID)
	}
	return reg, nil
}

func (s *Registrations) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	if err := checkID("registration id", id); err != nil {
		return nil, err
	}
	return s.regs.FindByID(ctx, id)
}

func (s *Registrations) ListRegistrations(ctx context.Context, eventID string, filter model.RegistrationFilter) ([]model.Registration, error) {
	if err := checkID("event id", eventID); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown status %q", filter.Status)
	}
	if filter.TicketTypeID != "" {
		if err := checkID("ticket type id", filter.TicketTypeID); err != nil {
			return nil, err
		}
	}
	return s.regs.ListByEvent(ctx, eventID, filter)
}

// CancelRegistration withdraws a registration. Inventory is not released.
func (s *Registrations) CancelRegistration(ctx context.Context, id string) (*model.Registration, error) {
	if err := checkID("registration id", id); err != nil {
		return nil, err
	}
	reg, err := s.regs.UpdateStatus(ctx, id, model.StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.log.Info("registration cancelled", slog.String("registration_id", id))
	return reg, nil
}

// EncodeTicket returns the scannable payload of a confirmed registration.
func (s *Registrations) EncodeTicket(ctx context.Context, registrationID string) (string, error) {
	reg, err := s.GetRegistration(ctx, registrationID)
	if err != nil {
		return "", err
	}
	if !reg.Status.HoldsTicket() {
		return "", repository.ErrNotConfirmed
	}
	return s.codec.Encode(reg.QrToken)
}

// DecodeTicket verifies a payload without touching the store.
func (s *Registrations) DecodeTicket(payload string) ticketcode.Result {
	return s.codec.Decode(payload)
}
