package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	producedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stillbirth_kafka_produced_total",
		Help: "Messages written to Kafka by result.",
	}, []string{"topic", "result"})
	consumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stillbirth_kafka_consumed_total",
		Help: "Messages handled by the consumer by result (ok, retry, skipped).",
	}, []string{"topic", "result"})
)
