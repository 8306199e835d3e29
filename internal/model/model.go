// Package model defines the core domain types for the ticketing system.
package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Event is the unit that owns ticket types, payment channels and a scanner PIN.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a ticket holder known to the messaging front-end.
type User struct {
	ID         string    `json:"id"`
	TelegramID *int64    `json:"telegram_id,omitempty"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// TicketType is a sellable inventory line of an event. A nil Quantity means
// unlimited.
type TicketType struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  *int            `json:"quantity,omitempty"`
	SoldCount int             `json:"sold_count"`
	CreatedAt time.Time       `json:"created_at"`
}

// Remaining returns the number of unsold tickets, or -1 when unlimited.
func (t *TicketType) Remaining() int {
	if t.Quantity == nil {
		return -1
	}
	return *t.Quantity - t.SoldCount
}

// IsSoldOut returns true when a quantity cap exists and has been reached.
func (t *TicketType) IsSoldOut() bool {
	return t.Quantity != nil && t.SoldCount >= *t.Quantity
}

// IsFree reports whether the ticket type needs no payment.
func (t *TicketType) IsFree() bool {
	return t.Price.IsZero()
}

type RegistrationStatus string

const (
	StatusPending         RegistrationStatus = "pending"
	StatusAwaitingPayment RegistrationStatus = "awaiting_payment"
	StatusPaymentReview   RegistrationStatus = "payment_review"
	StatusConfirmed       RegistrationStatus = "confirmed"
	StatusCheckedIn       RegistrationStatus = "checked_in"
	StatusCancelled       RegistrationStatus = "cancelled"
)

var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	StatusPending:         {StatusAwaitingPayment, StatusConfirmed, StatusCancelled},
	StatusAwaitingPayment: {StatusPaymentReview, StatusConfirmed, StatusCancelled},
	StatusPaymentReview:   {StatusAwaitingPayment, StatusConfirmed, StatusCancelled},
	StatusConfirmed:       {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn:       nil,
	StatusCancelled:       nil,
}

// Valid reports whether s is a known registration status.
func (s RegistrationStatus) Valid() bool {
	_, ok := registrationTransitions[s]
	return ok
}

// HoldsTicket reports whether a registration in status s has a valid ticket
// that may be shown or delivered.
func (s RegistrationStatus) HoldsTicket() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

// CanTransition reports whether a registration may move from s to next.
func (s RegistrationStatus) CanTransition(next RegistrationStatus) bool {
	for _, allowed := range registrationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionSources lists every status from which to is reachable. Used to
// build compare-and-set updates in the store.
func TransitionSources(to RegistrationStatus) []string {
	var from []string
	for _, s := range orderedStatuses {
		if s.CanTransition(to) {
			from = append(from, string(s))
		}
	}
	return from
}

var orderedStatuses = []RegistrationStatus{
	StatusPending, StatusAwaitingPayment, StatusPaymentReview,
	StatusConfirmed, StatusCheckedIn, StatusCancelled,
}

// Registration is one user's ticket for one event.
type Registration struct {
	ID           string             `json:"id"`
	EventID      string             `json:"event_id"`
	UserID       string             `json:"user_id"`
	TicketTypeID string             `json:"ticket_type_id"`
	Status       RegistrationStatus `json:"status"`
	QrToken      string             `json:"-"`
	QrHmac       string             `json:"-"`
	Data         map[string]any     `json:"data,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// RegistrationFilter narrows ListByEvent. Zero fields match everything.
type RegistrationFilter struct {
	Status       RegistrationStatus
	TicketTypeID string
}

// TicketDetails is everything needed to deliver a ticket to its holder.
type TicketDetails struct {
	RegistrationID string             `json:"registration_id"`
	QrToken        string             `json:"-"`
	Status         RegistrationStatus `json:"status"`
	EventTitle     string             `json:"event_title"`
	TicketTypeName string             `json:"ticket_type_name"`
	Price          decimal.Decimal    `json:"price"`
	FirstName      string             `json:"first_name"`
	LastName       string             `json:"last_name"`
	TelegramID     *int64             `json:"telegram_id,omitempty"`
}

// PaymentChannel is a receiving account payers are directed to.
type PaymentChannel struct {
	ID         string           `json:"id"`
	EventID    string           `json:"event_id"`
	Label      string           `json:"label"`
	AccountRef string           `json:"account_ref"`
	DailyLimit *decimal.Decimal `json:"daily_limit,omitempty"`
	IsActive   bool             `json:"is_active"`
	SortOrder  int              `json:"sort_order"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ChannelLoad pairs a channel with its confirmed total for the current day.
type ChannelLoad struct {
	Channel    PaymentChannel
	TodayTotal decimal.Decimal
}

// Accepts reports whether amount fits under the channel's daily limit.
func (l ChannelLoad) Accepts(amount decimal.Decimal) bool {
	if l.Channel.DailyLimit == nil {
		return true
	}
	return l.TodayTotal.Add(amount).LessThanOrEqual(*l.Channel.DailyLimit)
}

// ChannelStats is the all-time confirmed volume of a channel.
type ChannelStats struct {
	ChannelID    string          `json:"channel_id"`
	Label        string          `json:"label"`
	PaymentCount int             `json:"payment_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "pending"
	PaymentScreenshotSent PaymentStatus = "screenshot_sent"
	PaymentConfirmed      PaymentStatus = "confirmed"
	PaymentRejected       PaymentStatus = "rejected"
)

// Payment is one attempt to pay for a registration.
type Payment struct {
	ID              string          `json:"id"`
	RegistrationID  string          `json:"registration_id"`
	ChannelID       string          `json:"channel_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          PaymentStatus   `json:"status"`
	ProofRef        *string         `json:"proof_ref,omitempty"`
	ConfirmedBy     *string         `json:"confirmed_by,omitempty"`
	ConfirmedAt     *time.Time      `json:"confirmed_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CheckIn is the single redemption record of a registration.
type CheckIn struct {
	ID             string    `json:"id"`
	RegistrationID string    `json:"registration_id"`
	ScannedBy      string    `json:"scanned_by"`
	ScannedAt      time.Time `json:"scanned_at"`
	Location       *string   `json:"location,omitempty"`
}

// CheckInResult tells the caller whether this call created the check-in or
// found one recorded earlier.
type CheckInResult struct {
	CheckIn         CheckIn `json:"checkin"`
	AlreadyRedeemed bool    `json:"already_redeemed"`
}

// CheckinStats summarises attendance of one event.
type CheckinStats struct {
	Total      int `json:"total"`
	CheckedIn  int `json:"checked_in"`
	Percentage int `json:"percentage"`
}

// NewCheckinStats computes the rounded attendance percentage, 0 for an empty event.
func NewCheckinStats(total, checkedIn int) CheckinStats {
	s := CheckinStats{Total: total, CheckedIn: checkedIn}
	if total > 0 {
		s.Percentage = int(math.Round(float64(checkedIn) / float64(total) * 100))
	}
	return s
}
