package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var BreakerOpen = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "bridge_ledger_breaker_open",
		Help: "Ledger dial circuit breaker state (1 = open, 0 = closed)",
	},
)
