package services

import "github.com/prometheus/client_golang/prometheus"

var (
	fastsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fasts_started_total",
			Help: "Total number of fasts started",
		},
		[]string{"fasting_type"},
	)
	fastsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fasts_finished_total",
			Help: "Total number of fasts ended, by outcome and trigger",
		},
		[]string{"status", "trigger"},
	)
	challengeJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_joins_total",
			Help: "Challenge join attempts by result",
		},
		[]string{"result"},
	)
	sagaCompensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_join_compensations_total",
			Help: "Compensating writes run after a failed join step",
		},
		[]string{"step", "result"},
	)
	notificationsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Push notifications handed to the provider",
		},
		[]string{"result"},
	)
	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_job_runs_total",
			Help: "Scheduled job runs by job and result",
		},
		[]string{"job", "result"},
	)
)

// InitMetrics registers the domain counters. Call this from main.go
func InitMetrics(reg prometheus.Registerer) {
	reg.MustRegister(fastsStarted, fastsFinished, challengeJoins, sagaCompensations, notificationsDispatched, jobRuns)
}
