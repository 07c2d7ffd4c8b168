package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "bunkhouse"

var (
	checkInsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "checkins_total",
		Help:      "Guest check-ins by how the unit was chosen.",
	}, []string{"source"})

	checkOutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "checkouts_total",
		Help:      "Guest check-outs.",
	})

	allocationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "allocation_failures_total",
		Help:      "Check-in or token requests rejected by the allocator.",
	}, []string{"reason"})

	tokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "tokens_total",
		Help:      "Guest token lifecycle transitions.",
	}, []string{"event"})

	problemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "problems_total",
		Help:      "Problem reports by lifecycle event.",
	}, []string{"event"})
)

const (
	sourceManual = "manual"
	sourceAuto   = "auto"
	sourceToken  = "token"
)

func allocationFailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoUnitsAvailable):
		return "no_units_available"
	case errors.Is(err, ErrAssignedUnitNoLongerAvailable):
		return "assigned_unit_unavailable"
	case errors.Is(err, ErrUnitUnavailable):
		return "unit_unavailable"
	default:
		return ""
	}
}
