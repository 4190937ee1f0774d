package callback

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var callbackOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_callback_total",
		Help: "Number of authentication callbacks by variant and outcome.",
	},
	[]string{"variant", "outcome"},
)
