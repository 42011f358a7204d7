package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(auditEventsDroppedTotal) }

var auditEventsDroppedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "audit_events_dropped_total",
		Help: "Audit events dropped because the dispatcher queue was full or the sink failed.",
	},
)

func IncAuditDropped() {
	auditEventsDroppedTotal.Inc()
}
