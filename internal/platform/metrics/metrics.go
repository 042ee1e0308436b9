// Package metrics 定义全站的Prometheus指标，通过 /metrics 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "falsifi"

var (
	// HTTPRequestsTotal 按路由、方法和状态码统计请求数
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// EvaluationsTotal 按来源统计评分次数: llm / heuristic / parse_error
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "adjudication",
		Name:      "evaluations_total",
		Help:      "Refutation evaluations by scorer path.",
	}, []string{"source"})

	ScorerFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "adjudication",
		Name:      "scorer_failures_total",
		Help:      "External scorer calls that failed and fell back to the heuristic.",
	})

	// LedgerOperationsTotal / LedgerPointsTotal 按原因统计余额变动
	LedgerOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Balance mutations by reason.",
	}, []string{"reason"})

	LedgerPointsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "points_total",
		Help:      "Points moved by reason.",
	}, []string{"reason"})

	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "settlement",
		Name:      "settlements_total",
		Help:      "Human ratings settled, by bond outcome.",
	}, []string{"bond"})

	LeaderboardRebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "leaderboard",
		Name:      "rebuild_duration_seconds",
		Help:      "Full leaderboard rebuild latency.",
		Buckets:   prometheus.DefBuckets,
	})
)
