package service

import (
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

// selectChannel picks the receiving channel for amount among loads, which
// must be in priority order. Channels whose confirmed total for today plus
// amount would pass their daily limit are skipped; of the rest the one with
// the smallest total wins, earlier priority breaking ties.
//
// The choice is not a reservation. Two concurrent allocations may pick the
// same channel; limits are measured against confirmed payments only.
func selectChannel(loads []model.ChannelLoad, amount decimal.Decimal) (model.PaymentChannel, error) {
	if len(loads) == 0 {
		return model.PaymentChannel{}, ErrNoChannels
	}

	best := -1
	for i, load := range loads {
		if !load.Accepts(amount) {
			continue
		}
		if best == -1 || load.TodayTotal.LessThan(loads[best].TodayTotal) {
			best = i
		}
	}
	if best == -1 {
		return model.PaymentChannel{}, ErrCapacityExhausted
	}
	return loads[best].Channel, nil
}
