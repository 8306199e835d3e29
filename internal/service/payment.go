package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/eventpass/internal/metrics"
	"github.com/Shivanand-hulikatti/eventpass/internal/model"
	"github.com/Shivanand-hulikatti/eventpass/internal/repository"
	"github.com/Shivanand-hulikatti/eventpass/lib/sl"
)

// PaymentStart is the pending payment together with the channel the payer
// should transfer to.
type PaymentStart struct {
	Payment *model.Payment        `json:"payment"`
	Channel *model.PaymentChannel `json:"channel"`
}

// Payments orchestrates channel allocation and the payment ledger.
type Payments struct {
	channels ChannelStore
	payments PaymentStore
	regs     RegistrationStore
	events   EventStore
	currency string
	delivery *deliverer
	log      *slog.Logger
}

// NewPayments constructs a Payments service. sender is invoked after a
// confirmation committed and may be nil.
func NewPayments(channels ChannelStore, payments PaymentStore, regs RegistrationStore, events EventStore, currency string, sender TicketSender, log *slog.Logger) *Payments {
	log = log.With(sl.Module("service.payments"))
	return &Payments{
		channels: channels,
		payments: payments,
		regs:     regs,
		events:   events,
		currency: currency,
		delivery: &deliverer{sender: sender, log: log},
		log:      log,
	}
}

func (s *Payments) CreateChannel(ctx context.Context, eventID string, req model.CreateChannelRequest) (*model.PaymentChannel, error) {
	req.Label = strings.TrimSpace(req.Label)
	req.AccountRef = strings.TrimSpace(req.AccountRef)
	if err := checkID("event id", eventID); err != nil {
		return nil, err
	}
	if err := checkStruct(&req); err != nil {
		return nil, err
	}
	if req.DailyLimit != nil && !req.DailyLimit.IsPositive() {
		return nil, invalid("daily_limit must be positive")
	}
	return s.channels.Create(ctx, model.PaymentChannel{
		EventID:    eventID,
		Label:      req.Label,
		AccountRef: req.AccountRef,
		DailyLimit: req.DailyLimit,
		SortOrder:  req.SortOrder,
	})
}

func (s *Payments) SetChannelActive(ctx context.Context, id string, req model.SetChannelActiveRequest) (*model.PaymentChannel, error) {
	if err := checkID("channel id", id); err != nil {
		return nil, err
	}
	if err := checkStruct(&req); err != nil {
		return nil, err
	}
	return s.channels.SetActive(ctx, id, *req.IsActive)
}

func (s *Payments) ChannelStats(ctx context.Context, eventID string) ([]model.ChannelStats, error) {
	if err := checkID("event id", eventID); err != nil {
		return nil, err
	}
	return s.channels.Stats(ctx, eventID)
}

// AllocatePaymentChannel picks the channel that should receive amount.
// The result is advisory; nothing is reserved.
func (s *Payments) AllocatePaymentChannel(ctx context.Context, eventID string, amount decimal.Decimal) (*model.PaymentChannel, error) {
	if err := checkID("event id", eventID); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, invalid("amount must be positive")
	}
	loads, err := s.channels.ListActiveWithTotals(ctx, eventID)
	if err != nil {
		metrics.Allocation("error")
		return nil, err
	}
	ch, err := selectChannel(loads, amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoChannels):
			metrics.Allocation("no_channels")
		case errors.Is(err, ErrCapacityExhausted):
			metrics.Allocation("exhausted")
		}
		s.log.Warn("channel allocation failed",
			slog.String("event_id", eventID),
			slog.String("amount", amount.String()),
			sl.Err(err))
		return nil, err
	}
	metrics.Allocation("allocated")
	return &ch, nil
}

// StartPayment prices the registration's ticket, allocates a channel and
// opens a pending payment on it.
func (s *Payments) StartPayment(ctx context.Context, registrationID string) (*PaymentStart, error) {
	if err := checkID("registration id", registrationID); err != nil {
		return nil, err
	}
	reg, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !reg.Status.CanTransition(model.StatusAwaitingPayment) && reg.Status != model.StatusAwaitingPayment {
		return nil, repository.ErrInvalidTransition
	}
	tt, err := s.events.GetTicketType(ctx, reg.TicketTypeID)
	if err != nil {
		return nil, err
	}
	if tt.IsFree() {
		return nil, invalid("ticket type %q needs no payment", tt.Name)
	}

	ch, err := s.AllocatePaymentChannel(ctx, reg.EventID, tt.Price)
	if err != nil {
		return nil, err
	}
	payment, err := s.payments.CreatePending(ctx, reg.ID, ch.ID, tt.Price, s.currency)
	if err != nil {
		metrics.Payment("create", "error")
		return nil, err
	}
	metrics.Payment("create", "ok")
	s.log.Info("payment started",
		slog.String("registration_id", reg.ID),
		slog.String("payment_id", payment.ID),
		slog.String("channel_id", ch.ID))
	return &PaymentStart{Payment: payment, Channel: ch}, nil
}

func (s *Payments) RecordPaymentProof(ctx context.Context, paymentID string, req model.ProofRequest) (*model.Payment, error) {
	req.ProofRef = strings.TrimSpace(req.ProofRef)
	if err := checkID("payment id", paymentID); err != nil {
		return nil, err
	}
	if err := checkStruct(&req); err != nil {
		return nil, err
	}
	p, err := s.payments.AttachProof(ctx, paymentID, req.ProofRef)
	if err != nil {
		metrics.Payment("proof", "error")
		return nil, err
	}
	metrics.Payment("proof", "ok")
	return p, nil
}

// ConfirmPayment makes the payment and its registration confirmed, then
// delivers the ticket. A delivery failure does not fail the call.
func (s *Payments) ConfirmPayment(ctx context.Context, paymentID string, req model.ConfirmRequest) (*model.Payment, error) {
	req.OperatorID = strings.TrimSpace(req.OperatorID)
	if err := checkID("payment id", paymentID); err != nil {
		return nil, err
	}
	if err := checkStruct(&req); err != nil {
		return nil, err
	}
	p, err := s.payments.Confirm(ctx, paymentID, req.OperatorID)
	if err != nil {
		metrics.Payment("confirm", "error")
		return nil, err
	}
	metrics.Payment("confirm", "ok")
	s.log.Info("payment confirmed",
		slog.String("payment_id", p.ID),
		slog.String("registration_id", p.RegistrationID),
		slog.String("confirmed_by", req.OperatorID))

	s.delivery.deliver(ctx, p.RegistrationID)
	return p, nil
}

func (s *Payments) RejectPayment(ctx context.Context, paymentID string, req model.RejectRequest) (*model.Payment, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := checkID("payment id", paymentID); err != nil {
		return nil, err
	}
	if err := checkStruct(&req); err != nil {
		return nil, err
	}
	p, err := s.payments.Reject(ctx, paymentID, req.Reason)
	if err != nil {
		metrics.Payment("reject", "error")
		return nil, err
	}
	metrics.Payment("reject", "ok")
	s.log.Info("payment rejected", slog.String("payment_id", p.ID))
	return p, nil
}

func (s *Payments) ListForReview(ctx context.Context, eventID string) ([]model.Payment, error) {
	if err := checkID("event id", eventID); err != nil {
		return nil, err
	}
	return s.payments.ListForReview(ctx, eventID)
}

func (s *Payments) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	if err := checkID("payment id", id); err != nil {
		return nil, err
	}
	return s.payments.FindByID(ctx, id)
}

// LatestPayment returns the most recent payment attempt of a registration.
func (s *Payments) LatestPayment(ctx context.Context, registrationID string) (*model.Payment, error) {
	if err := checkID("registration id", registrationID); err != nil {
		return nil, err
	}
	return s.payments.LatestByRegistration(ctx, registrationID)
}

// ResendTicket retries delivery for a confirmed registration. Unlike the
// post-confirmation path, failures are returned to the caller.
func (s *Payments) ResendTicket(ctx context.Context, registrationID string) error {
	if err := checkID("registration id", registrationID); err != nil {
		return err
	}
	if s.delivery.sender == nil {
		return ErrDeliveryDisabled
	}
	reg, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		return err
	}
	if !reg.Status.HoldsTicket() {
		return repository.ErrNotConfirmed
	}
	if err := s.delivery.sender.SendTicket(ctx, reg.ID); err != nil {
		metrics.Delivery("failed")
		return err
	}
	metrics.Delivery("sent")
	return nil
}
