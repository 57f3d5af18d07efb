package submit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_submissions_total",
			Help: "Ledger submissions by call and outcome",
		},
		[]string{"function", "result"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_submission_duration_seconds",
			Help:    "Time from dispatch to ledger answer",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"function"},
	)

	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_submission_retries_total",
			Help: "Submissions retried after a sequence-too-low rejection",
		},
		[]string{"function"},
	)

	NonceResyncs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_nonce_resyncs_total",
			Help: "Times a signer nonce was re-read from the ledger",
		},
	)

	LedgerClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_ledger_clients",
			Help: "Cached ledger connections",
		},
	)
)
