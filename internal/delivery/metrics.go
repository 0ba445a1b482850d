package delivery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "snapbrief"

var (
	deliveryQueueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "queue_size",
			Help:      "Number of briefings in queue by status",
		},
		[]string{"status"},
	)

	deliveriesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "sent_total",
			Help:      "Total briefing deliveries processed",
		},
		[]string{"method", "status"},
	)

	deliverySendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "send_duration_seconds",
			Help:      "Time to send a briefing",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	briefingsEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "enqueued_total",
			Help:      "Total briefings placed on the queue by the scheduler",
		},
	)

	queueFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "queue_fetched_total",
			Help:      "Total briefings fetched from queue (before send attempt). Sum of sent_total should match this.",
		},
	)
)

// recordDeliverySent records a processed delivery metric.
func recordDeliverySent(method, status string) {
	deliveriesSent.WithLabelValues(method, status).Inc()
}

// recordDeliveryDuration records briefing send duration.
func recordDeliveryDuration(method string, duration time.Duration) {
	deliverySendDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// recordEnqueued records briefings placed on the queue.
func recordEnqueued(count int) {
	briefingsEnqueued.Add(float64(count))
}

// recordQueueFetched records the number of items claimed from the queue.
func recordQueueFetched(count int) {
	queueFetched.Add(float64(count))
}

// RecordQueueStats updates queue size metrics.
func RecordQueueStats(stats *QueueStats) {
	deliveryQueueSize.WithLabelValues("pending").Set(float64(stats.Pending))
	deliveryQueueSize.WithLabelValues("processing").Set(float64(stats.Processing))
	deliveryQueueSize.WithLabelValues("sent").Set(float64(stats.Sent))
	deliveryQueueSize.WithLabelValues("failed").Set(float64(stats.Failed))
}
