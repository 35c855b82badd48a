package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ironlog_sync_requests_total",
		Help: "Sync requests by operation and outcome",
	}, []string{"op", "outcome"})

	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ironlog_sync_duration_seconds",
		Help:    "Time spent serving push and pull",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	syncRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ironlog_sync_records_total",
		Help: "Entities received by push or returned by pull",
	}, []string{"op"})

	tokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ironlog_tokens_issued_total",
		Help: "Device tokens issued",
	})
)

func observeSync(op, outcome string, start time.Time, records int) {
	syncRequestsTotal.WithLabelValues(op, outcome).Inc()
	syncDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if records > 0 {
		syncRecordsTotal.WithLabelValues(op).Add(float64(records))
	}
}
