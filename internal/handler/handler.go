// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
	"github.com/Shivanand-hulikatti/eventpass/internal/repository"
	"github.com/Shivanand-hulikatti/eventpass/internal/service"
	"github.com/Shivanand-hulikatti/eventpass/internal/ticketcode"
	"github.com/Shivanand-hulikatti/eventpass/lib/api/response"
	"github.com/Shivanand-hulikatti/eventpass/lib/sl"
)

const maxBodyBytes = 1 << 20

type RegistrationCore interface {
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	CreateTicketType(ctx context.Context, eventID string, req model.CreateTicketTypeRequest) (*model.TicketType, error)
	ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error)
	EnsureUser(ctx context.Context, req model.EnsureUserRequest) (*model.User, error)
	CreateRegistration(ctx context.Context, eventID string, req model.RegisterRequest) (*model.Registration, error)
	GetRegistration(ctx context.Context, id string) (*model.Registration, error)
	ListRegistrations(ctx context.Context, eventID string, filter model.RegistrationFilter) ([]model.Registration, error)
	CancelRegistration(ctx context.Context, id string) (*model.Registration, error)
	EncodeTicket(ctx context.Context, registrationID string) (string, error)
	DecodeTicket(payload string) ticketcode.Result
}

type PaymentCore interface {
	CreateChannel(ctx context.Context, eventID string, req model.CreateChannelRequest) (*model.PaymentChannel, error)
	SetChannelActive(ctx context.Context, id string, req model.SetChannelActiveRequest) (*model.PaymentChannel, error)
	ChannelStats(ctx context.Context, eventID string) ([]model.ChannelStats, error)
	AllocatePaymentChannel(ctx context.Context, eventID string, amount decimal.Decimal) (*model.PaymentChannel, error)
	StartPayment(ctx context.Context, registrationID string) (*service.PaymentStart, error)
	RecordPaymentProof(ctx context.Context, paymentID string, req model.ProofRequest) (*model.Payment, error)
	ConfirmPayment(ctx context.Context, paymentID string, req model.ConfirmRequest) (*model.Payment, error)
	RejectPayment(ctx context.Context, paymentID string, req model.RejectRequest) (*model.Payment, error)
	ListForReview(ctx context.Context, eventID string) ([]model.Payment, error)
	ResendTicket(ctx context.Context, registrationID string) error
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	LatestPayment(ctx context.Context, registrationID string) (*model.Payment, error)
}

type CheckinCore interface {
	Scan(ctx context.Context, req model.ScanRequest) (*model.CheckInResult, error)
	CheckIn(ctx context.Context, registrationID string, req model.CheckinRequest) (*model.CheckInResult, error)
	Stats(ctx context.Context, eventID string) (model.CheckinStats, error)
	List(ctx context.Context, eventID string) ([]model.CheckIn, error)
}

type GateCore interface {
	SetPin(ctx context.Context, eventID string) (string, error)
	HasPin(ctx context.Context, eventID string) (bool, error)
	RemovePin(ctx context.Context, eventID string) error
	VerifyAttempt(ctx context.Context, eventID, operator, candidate string) (bool, error)
}

// Pinger reports store reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all HTTP handlers of the ticketing API.
type Handler struct {
	regs     RegistrationCore
	payments PaymentCore
	checkins CheckinCore
	gate     GateCore
	db       Pinger
	log      *slog.Logger
}

func New(regs RegistrationCore, payments PaymentCore, checkins CheckinCore, gate GateCore, db Pinger, log *slog.Logger) *Handler {
	return &Handler{
		regs:     regs,
		payments: payments,
		checkins: checkins,
		gate:     gate,
		db:       db,
		log:      log.With(sl.Module("http.handler")),
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func (h *Handler) logger(r *http.Request) *slog.Logger {
	return h.log.With(slog.String("request_id", middleware.GetReqID(r.Context())))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, response.Ok(v))
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, response.Error(msg))
}

func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close()
	return render.DecodeJSON(body, dst)
}

// bind decodes the body like decodeJSON and then runs the payload's own
// validation.
func bind(r *http.Request, dst render.Binder) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return dst.Bind(r)
}

// writeError maps domain errors to status codes. Messages of unexpected
// errors are logged, never returned.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidTicket):
		status, msg = http.StatusBadRequest, service.ErrInvalidTicket.Error()
	case errors.Is(err, repository.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, repository.ErrSoldOut),
		errors.Is(err, repository.ErrAlreadyRegistered),
		errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, repository.ErrNotConfirmed),
		errors.Is(err, service.ErrNoChannels),
		errors.Is(err, service.ErrCapacityExhausted):
		status, msg = http.StatusConflict, rootMessage(err)
	case errors.Is(err, service.ErrTooManyAttempts):
		status, msg = http.StatusTooManyRequests, service.ErrTooManyAttempts.Error()
	case errors.Is(err, service.ErrDeliveryDisabled):
		status, msg = http.StatusServiceUnavailable, service.ErrDeliveryDisabled.Error()
	case errors.Is(err, repository.ErrTransient),
		errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusServiceUnavailable, "temporarily unavailable, retry"
	}
	if status >= http.StatusInternalServerError {
		h.logger(r).Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			sl.Err(err))
	}
	writeMessage(w, r, status, msg)
}

// rootMessage returns the text of the first sentinel matched by err.
func rootMessage(err error) string {
	for _, target := range []error{
		repository.ErrSoldOut,
		repository.ErrAlreadyRegistered,
		repository.ErrInvalidTransition,
		repository.ErrNotConfirmed,
		service.ErrNoChannels,
		service.ErrCapacityExhausted,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

func (h *Handler) bindError(w http.ResponseWriter, r *http.Request, err error) {
	writeMessage(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger(r).Error("health check", sl.Err(err))
			writeMessage(w, r, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound renders unknown routes in the response envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, r, http.StatusNotFound, "requested resource not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
