package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		trialActivationsTotal,
		trialsExpiredTotal,
	)
}

var (
	trialActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trial_activations_total",
			Help: "Free trial activation attempts by outcome.",
		},
		[]string{"outcome"}, // 'granted', 'already_active'
	)

	trialsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trials_expired_total",
			Help: "Trials deactivated by the expiry sweep.",
		},
	)
)

func IncTrialActivation(outcome string) {
	trialActivationsTotal.WithLabelValues(outcome).Inc()
}

func IncTrialsExpired(count int) {
	trialsExpiredTotal.Add(float64(count))
}
