package web

import "github.com/prometheus/client_golang/prometheus"

var (
	intakeAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "download_requests_accepted_total",
			Help: "Total number of accepted download requests.",
		},
	)
	intakeRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "download_requests_rejected_total",
			Help: "Total number of rejected submissions by failing field.",
		},
		[]string{"field"},
	)
	downloadsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloads_served_total",
			Help: "Total number of installer files served by platform.",
		},
		[]string{"platform"},
	)
)

func init() {
	prometheus.MustRegister(intakeAccepted, intakeRejected, downloadsServed)
}
