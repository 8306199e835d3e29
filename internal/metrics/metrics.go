// Package metrics exposes Prometheus counters for the ticketing flows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventpass_registrations_total",
			Help: "Registration attempts by outcome",
		},
		[]string{"result"},
	)

	checkins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventpass_checkins_total",
			Help: "Check-in attempts by outcome",
		},
		[]string{"result"},
	)

	payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventpass_payment_operations_total",
			Help: "Payment ledger operations by action and outcome",
		},
		[]string{"action", "result"},
	)

	allocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventpass_channel_allocations_total",
			Help: "Payment channel allocations by outcome",
		},
		[]string{"result"},
	)

	deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventpass_ticket_deliveries_total",
			Help: "Ticket deliveries by outcome",
		},
		[]string{"result"},
	)

	pinChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventpass_pin_verifications_total",
			Help: "Scanner PIN verifications by outcome",
		},
		[]string{"result"},
	)
)

func Registration(result string) {
	registrations.WithLabelValues(result).Inc()
}

func Checkin(result string) {
	checkins.WithLabelValues(result).Inc()
}

func Payment(action, result string) {
	payments.WithLabelValues(action, result).Inc()
}

func Allocation(result string) {
	allocations.WithLabelValues(result).Inc()
}

func Delivery(result string) {
	deliveries.WithLabelValues(result).Inc()
}

func PinCheck(result string) {
	pinChecks.WithLabelValues(result).Inc()
}
