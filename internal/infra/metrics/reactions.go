package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(reactionsTotal)
}

var reactionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reactions_total",
		Help: "Reaction operations by outcome.",
	},
	[]string{"outcome"}, // 'applied', 'already_reacted', 'removed', 'not_found'
)

func IncReaction(outcome string) {
	reactionsTotal.WithLabelValues(outcome).Inc()
}
