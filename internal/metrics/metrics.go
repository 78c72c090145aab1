// Package metrics holds the Prometheus collectors of the simulator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label names
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelStrategy = "strategy"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)
)

// Simulation Metrics
var (
	RoundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_rounds_total",
			Help: "Total number of simulated rounds per strategy",
		},
		[]string{LabelStrategy},
	)

	StrategyBrokeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_strategy_broke_total",
			Help: "Number of strategy lanes that ran out of balance",
		},
		[]string{LabelStrategy},
	)

	WageredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_wagered_total",
			Help: "Total amount staked per strategy",
		},
		[]string{LabelStrategy},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roulette_sessions_active",
			Help: "Number of simulation sessions held in memory",
		},
	)
)
