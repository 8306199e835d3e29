// Package delivery sends issued tickets to their holders.
package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/skip2/go-qrcode"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
	"github.com/Shivanand-hulikatti/eventpass/lib/sl"
)

var (
	ErrNoRecipient    = errors.New("ticket holder has no telegram chat")
	ErrNotDeliverable = errors.New("registration is not confirmed")
)

const qrSize = 400

// Bot is the part of *gotgbot.Bot used for delivery.
type Bot interface {
	SendPhotoWithContext(ctx context.Context, chatId int64, photo gotgbot.InputFileOrString, opts *gotgbot.SendPhotoOpts) (*gotgbot.Message, error)
}

type DetailsFinder interface {
	FindDetails(ctx context.Context, registrationID string) (*model.TicketDetails, error)
}

type Encoder interface {
	Encode(token string) (string, error)
}

// Telegram renders the ticket payload as a QR code and sends it as a photo
// to the holder's chat.
type Telegram struct {
	bot     Bot
	details DetailsFinder
	codec   Encoder
	log     *slog.Logger
}

func NewTelegram(bot Bot, details DetailsFinder, codec Encoder, log *slog.Logger) *Telegram {
	return &Telegram{
		bot:     bot,
		details: details,
		codec:   codec,
		log:     log.With(sl.Module("delivery.telegram")),
	}
}

func (t *Telegram) SendTicket(ctx context.Context, registrationID string) error {
	d, err := t.details.FindDetails(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("load ticket: %w", err)
	}
	if !d.Status.HoldsTicket() {
		return ErrNotDeliverable
	}
	if d.TelegramID == nil {
		return ErrNoRecipient
	}

	payload, err := t.codec.Encode(d.QrToken)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return fmt.Errorf("render qr: %w", err)
	}

	_, err = t.bot.SendPhotoWithContext(ctx, *d.TelegramID,
		gotgbot.InputFileByReader("ticket.png", bytes.NewReader(png)),
		&gotgbot.SendPhotoOpts{Caption: Caption(d)},
	)
	if err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	t.log.Debug("ticket sent",
		slog.String("registration_id", registrationID),
		slog.Int64("chat_id", *d.TelegramID))
	return nil
}

// Caption is the text shown under the QR code.
func Caption(d *model.TicketDetails) string {
	caption := fmt.Sprintf("Your ticket is confirmed!\n\n%s\n%s\n", d.EventTitle, d.TicketTypeName)
	if !d.Price.IsZero() {
		caption += fmt.Sprintf("Price: %s\n", d.Price.StringFixed(2))
	}
	return caption + "\nShow this QR code at the entrance."
}
