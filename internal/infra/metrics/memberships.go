package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		joinRequestsTotal,
		joinReviewsTotal,
		memberCountDriftRepaired,
	)
}

var (
	joinRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "join_requests_total",
			Help: "Join request creations by outcome.",
		},
		[]string{"outcome"}, // 'requested', 'duplicate_pending', 'already_member'
	)

	joinReviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "join_reviews_total",
			Help: "Join request reviews by outcome.",
		},
		[]string{"outcome"}, // 'approved', 'rejected', 'not_pending'
	)

	memberCountDriftRepaired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "member_count_drift_repaired_total",
			Help: "Groups whose denormalized member_count was corrected by the reconciler.",
		},
	)
)

func IncJoinRequest(outcome string) {
	joinRequestsTotal.WithLabelValues(outcome).Inc()
}

func IncJoinReview(outcome string) {
	joinReviewsTotal.WithLabelValues(outcome).Inc()
}

func IncMemberCountRepaired(count int) {
	memberCountDriftRepaired.Add(float64(count))
}
