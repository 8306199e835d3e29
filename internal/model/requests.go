package model

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/eventpass/lib/validate"
)

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// CreateTicketTypeRequest is the payload for adding inventory to an event.
// A missing quantity means unlimited.
type CreateTicketTypeRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Price    decimal.Decimal `json:"price"`
	Quantity *int            `json:"quantity,omitempty" validate:"omitempty,gte=0,lte=1000000"`
}

// EnsureUserRequest registers or refreshes a front-end user.
type EnsureUserRequest struct {
	TelegramID int64  `json:"telegram_id" validate:"required,gt=0"`
	FirstName  string `json:"first_name" validate:"max=100"`
	LastName   string `json:"last_name" validate:"max=100"`
}

// RegisterRequest is the payload for registering for an event.
type RegisterRequest struct {
	UserID       string         `json:"user_id" validate:"required,uuid"`
	TicketTypeID string         `json:"ticket_type_id" validate:"required,uuid"`
	Data         map[string]any `json:"data,omitempty"`
}

// CreateChannelRequest adds a receiving channel to an event.
type CreateChannelRequest struct {
	Label      string           `json:"label" validate:"required,max=100"`
	AccountRef string           `json:"account_ref" validate:"required,max=100"`
	DailyLimit *decimal.Decimal `json:"daily_limit,omitempty"`
	SortOrder  int              `json:"sort_order"`
}

// SetChannelActiveRequest toggles a channel.
type SetChannelActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// AllocateRequest asks which channel should receive amount.
type AllocateRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ProofRequest attaches the payer's proof (e.g. a screenshot file id).
type ProofRequest struct {
	ProofRef string `json:"proof_ref" validate:"required,max=512"`
}

// ConfirmRequest names the operator confirming a payment.
type ConfirmRequest struct {
	OperatorID string `json:"operator_id" validate:"required,max=64"`
}

// RejectRequest carries the reason shown to the payer.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ScanRequest is a scanned ticket code presented at the entrance.
type ScanRequest struct {
	Code       string `json:"code" validate:"required,max=512"`
	OperatorID string `json:"operator_id" validate:"required,max=64"`
	Location   string `json:"location,omitempty" validate:"max=200"`
}

// CheckinRequest redeems a registration by id, bypassing the code.
type CheckinRequest struct {
	OperatorID string `json:"operator_id" validate:"required,max=64"`
	Location   string `json:"location,omitempty" validate:"max=200"`
}

// DecodeRequest carries a raw ticket payload.
type DecodeRequest struct {
	Code string `json:"code" validate:"required,max=512"`
}

func (d *DecodeRequest) Bind(_ *http.Request) error {
	return validate.Struct(d)
}

// VerifyPinRequest is a scanner activation attempt.
type VerifyPinRequest struct {
	OperatorID string `json:"operator_id" validate:"required,max=64"`
	Pin        string `json:"pin" validate:"required,max=32"`
}

func (v *VerifyPinRequest) Bind(_ *http.Request) error {
	return validate.Struct(v)
}
