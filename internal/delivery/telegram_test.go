package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

type fakeBot struct {
	chatID  int64
	caption string
	calls   int
	err     error
}

func (b *fakeBot) SendPhotoWithContext(ctx context.Context, chatId int64, photo gotgbot.InputFileOrString, opts *gotgbot.SendPhotoOpts) (*gotgbot.Message, error) {
	b.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.chatID = chatId
	if opts != nil {
		b.caption = opts.Caption
	}
	return &gotgbot.Message{}, b.err
}

type fakeDetails map[string]*model.TicketDetails

func (f fakeDetails) FindDetails(_ context.Context, id string) (*model.TicketDetails, error) {
	d, ok := f[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return d, nil
}

type fakeEncoder struct{}

func (fakeEncoder) Encode(token string) (string, error) { return "eventhub:" + token + ":sig", nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendTicket(t *testing.T) {
	chat := int64(4242)
	details := fakeDetails{
		"r1": {
			RegistrationID: "r1",
			QrToken:        "tok",
			Status:         model.StatusConfirmed,
			EventTitle:     "GoConf",
			TicketTypeName: "Standard",
			Price:          decimal.RequireFromString("1500"),
			TelegramID:     &chat,
		},
	}
	bot := &fakeBot{}
	sender := NewTelegram(bot, details, fakeEncoder{}, discard())

	require.NoError(t, sender.SendTicket(context.Background(), "r1"))
	assert.Equal(t, 1, bot.calls)
	assert.Equal(t, chat, bot.chatID)
	assert.Contains(t, bot.caption, "GoConf")
	assert.Contains(t, bot.caption, "1500.00")
}

func TestSendTicketRefusesUnconfirmed(t *testing.T) {
	chat := int64(1)
	details := fakeDetails{
		"r1": {RegistrationID: "r1", Status: model.StatusAwaitingPayment, TelegramID: &chat},
		"r2": {RegistrationID: "r2", Status: model.StatusConfirmed},
	}
	bot := &fakeBot{}
	sender := NewTelegram(bot, details, fakeEncoder{}, discard())

	assert.ErrorIs(t, sender.SendTicket(context.Background(), "r1"), ErrNotDeliverable)
	assert.ErrorIs(t, sender.SendTicket(context.Background(), "r2"), ErrNoRecipient)
	assert.Error(t, sender.SendTicket(context.Background(), "missing"))
	assert.Zero(t, bot.calls)
}

func TestSendTicketBotFailure(t *testing.T) {
	chat := int64(7)
	details := fakeDetails{"r1": {RegistrationID: "r1", QrToken: "t", Status: model.StatusConfirmed, TelegramID: &chat}}
	bot := &fakeBot{err: errors.New("telegram down")}
	sender := NewTelegram(bot, details, fakeEncoder{}, discard())

	err := sender.SendTicket(context.Background(), "r1")
	assert.ErrorContains(t, err, "telegram down")
}

func TestSendTicketHonoursContext(t *testing.T) {
	chat := int64(7)
	details := fakeDetails{"r1": {RegistrationID: "r1", QrToken: "t", Status: model.StatusCheckedIn, TelegramID: &chat}}
	bot := &fakeBot{}
	sender := NewTelegram(bot, details, fakeEncoder{}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sender.SendTicket(ctx, "r1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, bot.calls)

	require.NoError(t, sender.SendTicket(context.Background(), "r1"))
}

func TestCaptionOmitsPriceForFreeTickets(t *testing.T) {
	c := Caption(&model.TicketDetails{EventTitle: "Meetup", TicketTypeName: "Free"})
	assert.NotContains(t, c, "Price")
}
