package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetshare_payment_sessions_total",
		Help: "Payment sessions by outcome (initiated, verified, rejected).",
	}, []string{"outcome"})
	sweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetshare_sweep_runs_total",
		Help: "Orphan sweep runs by result.",
	}, []string{"result"})
	sweepRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assetshare_sweep_removed_objects_total",
		Help: "Stored objects removed because no asset references them.",
	})
)
