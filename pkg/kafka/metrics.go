package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	publishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_publish_total",
			Help: "Kafka publish attempts by topic and result",
		},
		[]string{"topic", "result"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_publish_duration_seconds",
			Help:    "Latency of synchronous Kafka writes",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"topic"},
	)
)
