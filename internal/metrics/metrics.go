// Package metrics holds the process Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skitro_bookings_created_total",
		Help: "Pending bookings created",
	})
	SeatsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skitro_seats_confirmed_total",
		Help: "Bookings moved to booked/paid with a seat increment",
	})
	RefundsOwed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skitro_refunds_owed_total",
		Help: "Payments confirmed on a trip that was already full",
	})
	ReconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skitro_reconcile_outcomes_total",
		Help: "Reconciliation results by outcome",
	}, []string{"outcome"})
	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skitro_payment_provider_errors_total",
		Help: "Failed payment provider calls",
	}, []string{"op"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
