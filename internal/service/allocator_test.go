package service

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func load(id string, limit string, today string) model.ChannelLoad {
	ch := model.PaymentChannel{ID: id, IsActive: true}
	if limit != "" {
		l := dec(limit)
		ch.DailyLimit = &l
	}
	return model.ChannelLoad{Channel: ch, TodayTotal: dec(today)}
}

func TestSelectChannel(t *testing.T) {
	tests := []struct {
		name    string
		loads   []model.ChannelLoad
		amount  string
		want    string
		wantErr error
	}{
		{
			name:    "no channels",
			amount:  "100",
			wantErr: ErrNoChannels,
		},
		{
			name:   "least loaded wins",
			loads:  []model.ChannelLoad{load("a", "", "500"), load("b", "", "200"), load("c", "", "300")},
			amount: "100",
			want:   "b",
		},
		{
			name:   "tie broken by priority order",
			loads:  []model.ChannelLoad{load("a", "", "200"), load("b", "", "200")},
			amount: "100",
			want:   "a",
		},
		{
			name:   "channel at limit skipped",
			loads:  []model.ChannelLoad{load("a", "1000", "950"), load("b", "5000", "2000")},
			amount: "100",
			want:   "b",
		},
		{
			name:   "exactly reaching limit is allowed",
			loads:  []model.ChannelLoad{load("a", "1000", "900")},
			amount: "100",
			want:   "a",
		},
		{
			name:    "all channels exhausted",
			loads:   []model.ChannelLoad{load("a", "1000", "950"), load("b", "500", "450")},
			amount:  "100",
			wantErr: ErrCapacityExhausted,
		},
		{
			name:   "unlimited channel never excluded",
			loads:  []model.ChannelLoad{load("a", "100", "0"), load("b", "", "1000000")},
			amount: "150",
			want:   "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := selectChannel(tt.loads, dec(tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ch.ID)
		})
	}
}

// Replays random sequences of confirmed payments and checks that the chosen
// channel always stays within its limit.
func TestSelectChannelNeverExceedsLimit(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		loads := []model.ChannelLoad{
			load("a", "1000", "0"),
			load("b", "2500", "0"),
			load("c", "700", "0"),
		}
		for step := 0; step < 50; step++ {
			amount := decimal.NewFromInt(int64(rng.Intn(400) + 1))
			ch, err := selectChannel(loads, amount)
			if err != nil {
				assert.ErrorIs(t, err, ErrCapacityExhausted)
				for _, l := range loads {
					assert.False(t, l.Accepts(amount))
				}
				continue
			}
			for i := range loads {
				if loads[i].Channel.ID != ch.ID {
					continue
				}
				next := loads[i].TodayTotal.Add(amount)
				require.True(t, next.LessThanOrEqual(*loads[i].Channel.DailyLimit),
					"channel %s would reach %s", ch.ID, next)
				loads[i].TodayTotal = next
			}
		}
	}
}
