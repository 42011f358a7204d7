package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		redemptionAttemptsTotal,
		codesExpiredTotal,
	)
}

var (
	redemptionAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemption_attempts_total",
			Help: "Redemption attempts by outcome.",
		},
		[]string{"outcome"}, // 'redeemed', 'limit_exceeded', 'code_expired', ...
	)

	codesExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "redemption_codes_expired_total",
			Help: "Codes deactivated by the expiry sweep.",
		},
	)
)

func IncRedemption(outcome string) {
	redemptionAttemptsTotal.WithLabelValues(outcome).Inc()
}

func IncCodesExpired(count int) {
	codesExpiredTotal.Add(float64(count))
}
