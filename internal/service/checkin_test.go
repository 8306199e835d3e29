package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
	"github.com/Shivanand-hulikatti/eventpass/internal/repository"
	"github.com/Shivanand-hulikatti/eventpass/internal/ticketcode"
)

func newCheckinsFixture(t *testing.T) (*Checkins, *fakeRegs, *ticketcode.Codec) {
	regs := newFakeRegs()
	codec := testCodec(t)
	return NewCheckins(regs, newFakeCheckins(regs), codec, discardLogger()), regs, codec
}

func TestScanRedeemsOnce(t *testing.T) {
	ctx := context.Background()
	svc, regs, codec := newCheckinsFixture(t)
	reg := regs.add(model.Registration{Status: model.StatusConfirmed})
	code := encodeTicket(t, codec, reg.QrToken)

	first, err := svc.Scan(ctx, model.ScanRequest{Code: code, OperatorID: "gate-a", Location: "north"})
	require.NoError(t, err)
	assert.False(t, first.AlreadyRedeemed)
	require.NotNil(t, first.CheckIn.Location)
	assert.Equal(t, "north", *first.CheckIn.Location)

	second, err := svc.Scan(ctx, model.ScanRequest{Code: code, OperatorID: "gate-b"})
	require.NoError(t, err)
	assert.True(t, second.AlreadyRedeemed)
	assert.Equal(t, first.CheckIn.ID, second.CheckIn.ID)
	assert.Equal(t, "gate-a", second.CheckIn.ScannedBy)
}

func TestScanConcurrentOperators(t *testing.T) {
	ctx := context.Background()
	svc, regs, codec := newCheckinsFixture(t)
	reg := regs.add(model.Registration{Status: model.StatusConfirmed})
	code := encodeTicket(t, codec, reg.QrToken)

	const n = 10
	results := make([]*model.CheckInResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Scan(ctx, model.ScanRequest{Code: code, OperatorID: "op"})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	fresh := 0
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, results[0].CheckIn.ID, res.CheckIn.ID)
		if !res.AlreadyRedeemed {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}

func TestScanRejectsInvalidCodes(t *testing.T) {
	ctx := context.Background()
	svc, regs, codec := newCheckinsFixture(t)
	reg := regs.add(model.Registration{Status: model.StatusConfirmed})
	valid := encodeTicket(t, codec, reg.QrToken)

	other, err := ticketcode.New(ticketcode.DefaultNamespace, []byte("another-secret-another-secret"))
	require.NoError(t, err)

	tests := []struct {
		name string
		code string
	}{
		{"garbage", "hello"},
		{"wrong key", encodeTicket(t, other, reg.QrToken)},
		{"wrong namespace", strings.Replace(valid, ticketcode.DefaultNamespace, "other", 1)},
		{"unknown token", encodeTicket(t, codec, uuid.New().String())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Scan(ctx, model.ScanRequest{Code: tt.code, OperatorID: "op"})
			assert.ErrorIs(t, err, ErrInvalidTicket)
		})
	}

	got, err := regs.FindByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
}

func TestCheckInRequiresConfirmed(t *testing.T) {
	ctx := context.Background()
	svc, regs, _ := newCheckinsFixture(t)
	reg := regs.add(model.Registration{Status: model.StatusAwaitingPayment})

	_, err := svc.CheckIn(ctx, reg.ID, model.CheckinRequest{OperatorID: "op"})
	assert.ErrorIs(t, err, repository.ErrNotConfirmed)

	_, err = svc.CheckIn(ctx, reg.ID, model.CheckinRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckinStats(t *testing.T) {
	ctx := context.Background()
	svc, regs, _ := newCheckinsFixture(t)
	eventID := uuid.New().String()

	stats, err := svc.Stats(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckinStats{}, stats)

	var first *model.Registration
	for i := 0; i < 3; i++ {
		r := regs.add(model.Registration{EventID: eventID, Status: model.StatusConfirmed})
		if first == nil {
			first = r
		}
	}
	_, err = svc.CheckIn(ctx, first.ID, model.CheckinRequest{OperatorID: "op"})
	require.NoError(t, err)

	stats, err = svc.Stats(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckinStats{Total: 3, CheckedIn: 1, Percentage: 33}, stats)
}
