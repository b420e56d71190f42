package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NodePolls — количество опросов статуса узлов.
	NodePolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dylld_node_polls_total",
		Help: "Total node status polls issued to the platform",
	})

	// WaitOutcomes — результаты ожиданий по причине завершения.
	WaitOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dylld_wait_outcomes_total",
		Help: "Node waits by outcome",
	}, []string{"outcome"})

	// Stages — выполненные этапы по имени и результату.
	Stages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dylld_stages_total",
		Help: "Orchestration stages by name and result",
	}, []string{"stage", "result"})

	// StageDuration — длительность этапов.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dylld_stage_duration_seconds",
		Help:    "Duration of orchestration stages",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"stage"})

	// Branches — завершённые ветки по статусу.
	Branches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dylld_branches_total",
		Help: "Finished branches by status",
	}, []string{"status"})

	// BranchesInFlight — ветки в процессе выполнения.
	BranchesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dylld_branches_in_flight",
		Help: "Branches currently growing",
	})

	// PlatformRequests — HTTP-запросы к платформе.
	PlatformRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dylld_platform_requests_total",
		Help: "HTTP requests issued to the platform by method and status code",
	}, []string{"method", "code"})

	// PlatformRequestDuration — длительность HTTP-запросов к платформе.
	PlatformRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dylld_platform_request_duration_seconds",
		Help:    "Latency of platform HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
