package service

import (
	"context"
	"log/slog"

	"github.com/Shivanand-hulikatti/eventpass/internal/metrics"
	"github.com/Shivanand-hulikatti/eventpass/lib/sl"
)

// deliverer sends tickets after the confirming transaction committed.
// Failures are logged and counted only: the confirmation already stands and
// delivery can be retried through ResendTicket.
type deliverer struct {
	sender TicketSender
	log    *slog.Logger
}

func (d *deliverer) deliver(ctx context.Context, registrationID string) {
	if d.sender == nil {
		d.log.Debug("ticket delivery disabled", slog.String("registration_id", registrationID))
		return
	}
	if err := d.sender.SendTicket(ctx, registrationID); err != nil {
		metrics.Delivery("failed")
		d.log.Error("ticket delivery failed",
			slog.String("registration_id", registrationID),
			sl.Err(err))
		return
	}
	metrics.Delivery("sent")
}
