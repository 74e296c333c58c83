package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for the registration core
var (
	WaitlistJoinsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_joins_total",
			Help: "Waitlist join attempts by outcome",
		},
		[]string{"result"},
	)

	WaitlistLeavesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "waitlist_leaves_total",
			Help: "Entrants that left a waitlist",
		},
	)

	LotteryDrawsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_draws_total",
			Help: "Lottery draws by kind and outcome",
		},
		[]string{"kind", "result"},
	)

	LotteryDrawDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lottery_draw_duration_seconds",
			Help:    "Duration of committed lottery draws",
			Buckets: prometheus.DefBuckets,
		},
	)

	LotteryWinnersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lottery_winners_total",
			Help: "Entrants invited by a draw",
		},
	)

	InviteResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invite_responses_total",
			Help: "Invite responses by kind",
		},
		[]string{"response"},
	)

	NotificationsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Committed notifications by type",
		},
		[]string{"type"},
	)

	DeliveryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_failures_total",
			Help: "Post-commit delivery failures by channel",
		},
		[]string{"channel"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method and status",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

var registerOnce sync.Once

// Register registers all Prometheus metrics. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(WaitlistJoinsTotal)
		prometheus.MustRegister(WaitlistLeavesTotal)
		prometheus.MustRegister(LotteryDrawsTotal)
		prometheus.MustRegister(LotteryDrawDuration)
		prometheus.MustRegister(LotteryWinnersTotal)
		prometheus.MustRegister(InviteResponsesTotal)
		prometheus.MustRegister(NotificationsCreatedTotal)
		prometheus.MustRegister(DeliveryFailuresTotal)
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
	})
}
