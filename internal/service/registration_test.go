package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
	"github.com/Shivanand-hulikatti/eventpass/internal/repository"
	"github.com/Shivanand-hulikatti/eventpass/internal/ticketcode"
)

func testCodec(t *testing.T) *ticketcode.Codec {
	t.Helper()
	c, err := ticketcode.New(ticketcode.DefaultNamespace, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return c
}

func encodeTicket(t *testing.T, c *ticketcode.Codec, token string) string {
	t.Helper()
	payload, err := c.Encode(token)
	require.NoError(t, err)
	return payload
}

type registrationsFixture struct {
	svc    *Registrations
	events *fakeEvents
	regs   *fakeRegs
	sender *fakeSender
	codec  *ticketcode.Codec
}

func newRegistrationsFixture(t *testing.T) *registrationsFixture {
	f := &registrationsFixture{
		events: newFakeEvents(),
		regs:   newFakeRegs(),
		sender: &fakeSender{},
		codec:  testCodec(t),
	}
	f.svc = NewRegistrations(f.events, fakeUsers{}, f.regs, f.codec, f.sender, discardLogger())
	return f
}

func TestCreateRegistrationValidation(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()

	tests := []struct {
		name    string
		eventID string
		req     model.RegisterRequest
	}{
		{"bad event id", "not-a-uuid", model.RegisterRequest{UserID: uuid.New().String(), TicketTypeID: uuid.New().String()}},
		{"missing user", eventID, model.RegisterRequest{TicketTypeID: uuid.New().String()}},
		{"bad ticket type", eventID, model.RegisterRequest{UserID: uuid.New().String(), TicketTypeID: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationsFixture(t)
			_, err := f.svc.CreateRegistration(ctx, tt.eventID, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, f.regs.creates)
		})
	}
}

func TestCreateRegistrationRejectsDuplicateBeforeStore(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationsFixture(t)
	existing := f.regs.add(model.Registration{
		EventID: uuid.New().String(),
		UserID:  uuid.New().String(),
		Status:  model.StatusPending,
	})

	_, err := f.svc.CreateRegistration(ctx, existing.EventID, model.RegisterRequest{
		UserID:       existing.UserID,
		TicketTypeID: uuid.New().String(),
	})
	assert.ErrorIs(t, err, repository.ErrAlreadyRegistered)
	assert.Zero(t, f.regs.creates)
}

func TestCreateRegistrationPassesStoreErrors(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationsFixture(t)
	f.regs.createErr = repository.ErrSoldOut

	_, err := f.svc.CreateRegistration(ctx, uuid.New().String(), model.RegisterRequest{
		UserID:       uuid.New().String(),
		TicketTypeID: uuid.New().String(),
	})
	assert.ErrorIs(t, err, repository.ErrSoldOut)
	assert.Empty(t, f.sender.sent)
}

func TestCreateRegistrationDeliversFreeTicket(t *testing.T) {
	ctx := context.Background()
	req := model.RegisterRequest{UserID: uuid.New().String(), TicketTypeID: uuid.New().String()}

	t.Run("paid stays pending", func(t *testing.T) {
		f := newRegistrationsFixture(t)
		reg, err := f.svc.CreateRegistration(ctx, uuid.New().String(), req)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, reg.Status)
		assert.Empty(t, f.sender.sent)
	})

	t.Run("free is confirmed and sent", func(t *testing.T) {
		f := newRegistrationsFixture(t)
		f.regs.createStatus = model.StatusConfirmed
		reg, err := f.svc.CreateRegistration(ctx, uuid.New().String(), req)
		require.NoError(t, err)
		assert.Equal(t, []string{reg.ID}, f.sender.sent)
	})
}

func TestCreateTicketTypeRejectsNegativePrice(t *testing.T) {
	f := newRegistrationsFixture(t)
	_, err := f.svc.CreateTicketType(context.Background(), uuid.New().String(), model.CreateTicketTypeRequest{
		Name:  "VIP",
		Price: dec("-1"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEncodeTicket(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationsFixture(t)

	pending := f.regs.add(model.Registration{Status: model.StatusPending})
	_, err := f.svc.EncodeTicket(ctx, pending.ID)
	assert.ErrorIs(t, err, repository.ErrNotConfirmed)

	confirmed := f.regs.add(model.Registration{Status: model.StatusConfirmed})
	payload, err := f.svc.EncodeTicket(ctx, confirmed.ID)
	require.NoError(t, err)

	res := f.svc.DecodeTicket(payload)
	assert.True(t, res.Valid)
	assert.Equal(t, confirmed.QrToken, res.Token)

	_, err = f.svc.EncodeTicket(ctx, uuid.New().String())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCancelRegistration(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationsFixture(t)

	reg := f.regs.add(model.Registration{Status: model.StatusAwaitingPayment})
	got, err := f.svc.CancelRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	used := f.regs.add(model.Registration{Status: model.StatusCheckedIn})
	_, err = f.svc.CancelRegistration(ctx, used.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestListRegistrationsRejectsUnknownStatus(t *testing.T) {
	f := newRegistrationsFixture(t)
	_, err := f.svc.ListRegistrations(context.Background(), uuid.New().String(),
		model.RegistrationFilter{Status: "refunded"})
	assert.ErrorIs(t, err, ErrValidation)
}
