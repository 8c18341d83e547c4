package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Turn outcomes recorded by ChatTurns.
const (
	OutcomeOK       = "ok"
	OutcomeBusy     = "busy"
	OutcomeUpstream = "upstream_error"
	OutcomeRejected = "rejected"
)

var (
	ChatTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aichat_chat_turns_total",
			Help: "Chat turns by outcome.",
		},
		[]string{"outcome"},
	)

	BusyRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aichat_busy_rejections_total",
			Help: "Requests rejected because the conversation had a call in flight.",
		},
	)

	HistoryEvicted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aichat_history_evicted_messages_total",
			Help: "Messages dropped by history trimming, by stage (budget, cap).",
		},
		[]string{"stage"},
	)

	CredentialRotations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aichat_credential_rotations_total",
			Help: "Credential rotations by provider.",
		},
		[]string{"provider"},
	)

	UpstreamFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aichat_upstream_failures_total",
			Help: "Model call failures by HTTP status (0 = transport).",
		},
		[]string{"status"},
	)

	PersistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aichat_persistence_failures_total",
			Help: "Local storage failures by operation (load, save).",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(ChatTurns, BusyRejections, HistoryEvicted, CredentialRotations, UpstreamFailures, PersistenceFailures)
}

// ObserveUpstreamFailure counts a failed model call.
func ObserveUpstreamFailure(status int) {
	UpstreamFailures.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveEvictions counts trimmed messages; zero counts are skipped.
func ObserveEvictions(budget, capped int) {
	if budget > 0 {
		HistoryEvicted.WithLabelValues("budget").Add(float64(budget))
	}
	if capped > 0 {
		HistoryEvicted.WithLabelValues("cap").Add(float64(capped))
	}
}
