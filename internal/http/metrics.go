package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	redemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hallaien_redemptions_total",
		Help: "Share code redemption attempts by result.",
	}, []string{"result"})

	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hallaien_signed_sessions_total",
		Help: "Signed session URL requests by result.",
	}, []string{"result"})

	accessDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hallaien_access_decisions_total",
		Help: "Access resolver outcomes for session requests.",
	}, []string{"outcome"})
)
