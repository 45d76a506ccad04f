package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	samplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aura",
		Subsystem: "monitor",
		Name:      "samples_total",
		Help:      "Count of snapshots produced",
	})

	eventsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aura",
		Subsystem: "monitor",
		Name:      "events_ingested_total",
		Help:      "Count of input events consumed",
	}, []string{"kind"})

	webhookFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aura",
		Subsystem: "monitor",
		Name:      "webhook_failures_total",
		Help:      "Count of failed webhook deliveries",
	})

	grayscaleFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aura",
		Subsystem: "monitor",
		Name:      "grayscale_failures_total",
		Help:      "Count of failed display-filter toggles",
	})
)
