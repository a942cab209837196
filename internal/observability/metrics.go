package observability

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuestionsCreated counts questions created, labeled by category slug.
	QuestionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quorum_questions_created_total",
		Help: "Total number of questions created",
	}, []string{"category"})

	// AnswersCreated counts answers posted.
	AnswersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quorum_answers_created_total",
		Help: "Total number of answers posted",
	})

	// VotesCast counts votes by target kind and direction.
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quorum_votes_cast_total",
		Help: "Total number of votes cast",
	}, []string{"target", "direction"})

	// KarmaAwarded sums the magnitude of karma deltas applied, labeled by
	// triggering event. Penalty events are distinguished by label, not sign.
	KarmaAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quorum_karma_awarded_total",
		Help: "Total magnitude of karma points applied by event type",
	}, []string{"event"})

	// SessionsSwept counts expired session rows removed by lazy sweeps.
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quorum_sessions_swept_total",
		Help: "Total number of expired session rows removed by lazy sweeps",
	})
)

// InitMetrics creates the HTTP metrics middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}
