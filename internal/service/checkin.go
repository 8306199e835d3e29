package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/eventpass/internal/metrics"
	"github.com/Shivanand-hulikatti/eventpass/internal/model"
	"github.com/Shivanand-hulikatti/eventpass/internal/repository"
	"github.com/Shivanand-hulikatti/eventpass/lib/sl"
)

// Checkins redeems tickets at the entrance.
type Checkins struct {
	regs     RegistrationStore
	checkins CheckinStore
	codec    TicketCodec
	log      *slog.Logger
}

func NewCheckins(regs RegistrationStore, checkins CheckinStore, codec TicketCodec, log *slog.Logger) *Checkins {
	return &Checkins{
		regs:     regs,
		checkins: checkins,
		codec:    codec,
		log:      log.With(sl.Module("service.checkins")),
	}
}

// Scan verifies a presented code and redeems its registration. Forged,
// foreign and unknown codes all fail with ErrInvalidTicket.
func (s *Checkins) Scan(ctx context.Context, req model.ScanRequest) (*model.CheckInResult, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.OperatorID = strings.TrimSpace(req.OperatorID)
	if err := checkStruct(&req); err != nil {
		return nil, err
	}

	decoded := s.codec.Decode(req.Code)
	if !decoded.Valid {
		metrics.Checkin("invalid")
		s.log.Warn("rejected ticket code", slog.String("operator", req.OperatorID))
		return nil, ErrInvalidTicket
	}
	reg, err := s.regs.FindByQrToken(ctx, decoded.Token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.Checkin("invalid")
			s.log.Warn("signed ticket without registration", slog.String("operator", req.OperatorID))
			return nil, ErrInvalidTicket
		}
		metrics.Checkin("error")
		return nil, err
	}
	return s.redeem(ctx, reg.ID, req.OperatorID, req.Location)
}

// CheckIn redeems a registration by id, for operators resolving a ticket
// by hand.
func (s *Checkins) CheckIn(ctx context.Context, registrationID string, req model.CheckinRequest) (*model.CheckInResult, error) {
	req.OperatorID = strings.TrimSpace(req.OperatorID)
	if err := checkID("registration id", registrationID); err != nil {
		return nil, err
	}
	if err := checkStruct(&req); err != nil {
		return nil, err
	}
	return s.redeem(ctx, registrationID, req.OperatorID, req.Location)
}

func (s *Checkins) redeem(ctx context.Context, registrationID, operator, location string) (*model.CheckInResult, error) {
	var loc *string
	if location = strings.TrimSpace(location); location != "" {
		loc = &location
	}

	res, err := s.checkins.CheckIn(ctx, registrationID, operator, loc)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotConfirmed):
			metrics.Checkin("not_confirmed")
		case errors.Is(err, repository.ErrNotFound):
			metrics.Checkin("not_found")
		default:
			metrics.Checkin("error")
			s.log.Error("check in", slog.String("registration_id", registrationID), sl.Err(err))
		}
		return nil, err
	}

	if res.AlreadyRedeemed {
		metrics.Checkin("already_redeemed")
		s.log.Info("ticket already redeemed",
			slog.String("registration_id", registrationID),
			slog.String("operator", operator),
			slog.String("redeemed_by", res.CheckIn.ScannedBy))
		return res, nil
	}
	metrics.Checkin("checked_in")
	s.log.Info("ticket redeemed",
		slog.String("registration_id", registrationID),
		slog.String("operator", operator))
	return res, nil
}

// Stats returns attendance of an event.
func (s *Checkins) Stats(ctx context.Context, eventID string) (model.CheckinStats, error) {
	if err := checkID("event id", eventID); err != nil {
		return model.CheckinStats{}, err
	}
	return s.checkins.Stats(ctx, eventID)
}

func (s *Checkins) List(ctx context.Context, eventID string) ([]model.CheckIn, error) {
	if err := checkID("event id", eventID); err != nil {
		return nil, err
	}
	return s.checkins.ListByEvent(ctx, eventID)
}
