package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewCheckinStats(t *testing.T) {
	assert.Equal(t, CheckinStats{}, NewCheckinStats(0, 0))
	assert.Equal(t, CheckinStats{Total: 3, CheckedIn: 1, Percentage: 33}, NewCheckinStats(3, 1))
	assert.Equal(t, 67, NewCheckinStats(3, 2).Percentage)
	assert.Equal(t, 100, NewCheckinStats(4, 4).Percentage)
	assert.Equal(t, 1, NewCheckinStats(200, 1).Percentage)
}

func TestHoldsTicket(t *testing.T) {
	for _, s := range orderedStatuses {
		want := s == StatusConfirmed || s == StatusCheckedIn
		assert.Equal(t, want, s.HoldsTicket(), s)
	}
}

func TestRegistrationTransitions(t *testing.T) {
	assert.True(t, StatusConfirmed.CanTransition(StatusCheckedIn))
	assert.True(t, StatusPaymentReview.CanTransition(StatusAwaitingPayment))
	assert.False(t, StatusCheckedIn.CanTransition(StatusConfirmed))
	assert.False(t, StatusCancelled.CanTransition(StatusConfirmed))
	assert.False(t, StatusPending.CanTransition(StatusCheckedIn))
	assert.False(t, StatusConfirmed.CanTransition(StatusConfirmed))

	assert.Equal(t, []string{"confirmed"}, TransitionSources(StatusCheckedIn))
	assert.Equal(t,
		[]string{"pending", "awaiting_payment", "payment_review"},
		TransitionSources(StatusConfirmed))
	assert.Empty(t, TransitionSources(StatusPending))

	assert.True(t, StatusCancelled.Valid())
	assert.False(t, RegistrationStatus("refunded").Valid())
}

func TestTicketTypeInventory(t *testing.T) {
	qty := 2
	tt := TicketType{Quantity: &qty, SoldCount: 1, Price: decimal.RequireFromString("10.00")}
	assert.False(t, tt.IsSoldOut())
	assert.Equal(t, 1, tt.Remaining())
	assert.False(t, tt.IsFree())

	tt.SoldCount = 2
	assert.True(t, tt.IsSoldOut())

	unlimited := TicketType{SoldCount: 1000}
	assert.False(t, unlimited.IsSoldOut())
	assert.Equal(t, -1, unlimited.Remaining())
	assert.True(t, unlimited.IsFree())
}

func TestChannelLoadAccepts(t *testing.T) {
	limit := decimal.NewFromInt(1000)
	load := ChannelLoad{
		Channel:    PaymentChannel{DailyLimit: &limit},
		TodayTotal: decimal.NewFromInt(900),
	}
	assert.True(t, load.Accepts(decimal.NewFromInt(100)))
	assert.False(t, load.Accepts(decimal.RequireFromString("100.01")))

	unlimited := ChannelLoad{TodayTotal: decimal.NewFromInt(1_000_000)}
	assert.True(t, unlimited.Accepts(decimal.NewFromInt(1_000_000)))
}
