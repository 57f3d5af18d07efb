package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_requests_total",
			Help: "Entry point calls by kind and outcome",
		},
		[]string{"kind", "result"},
	)

	DecodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_decode_failures_total",
			Help: "Requests rejected before dispatch, by reason",
		},
		[]string{"kind", "reason"},
	)
)
