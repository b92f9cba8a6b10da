package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of domain events published to the broker (count)",
		},
		[]string{"event_type", "status"},
	)

	EventsConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of messages consumed per queue by outcome (count)",
		},
		[]string{"queue", "status"},
	)

	EventProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_processing_duration_ms",
			Help:    "Time from event creation to handler completion in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"queue", "status"},
	)

	MessagesRequeuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_requeued_total",
			Help: "Total number of messages negatively acknowledged with requeue (count)",
		},
		[]string{"queue"},
	)

	MessagesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_dropped_total",
			Help: "Total number of messages rejected permanently without requeue (count)",
		},
		[]string{"queue", "reason"},
	)

	NotificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of per-channel notification attempts by outcome (count)",
		},
		[]string{"channel", "status"},
	)

	NotificationSendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_send_duration_ms",
			Help:    "Duration of a full multi-channel notification send in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"template"},
	)

	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "streaming_connections",
			Help: "Number of live streaming notification connections (count)",
		},
	)

	StreamingEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streaming_events_total",
			Help: "Total number of events pushed to streaming connections by outcome (count)",
		},
		[]string{"status"},
	)

	InventoryAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_alerts_total",
			Help: "Total number of inventory critical events processed by action taken (count)",
		},
		[]string{"service", "action"},
	)

	BrokerReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "broker_reconnects_total",
			Help: "Total number of broker connection attempts after the first (count)",
		},
	)

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache lookups by outcome (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)
)

func RegisterBrokerMetrics() {
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(EventsConsumedTotal)
	prometheus.MustRegister(EventProcessingDuration)
	prometheus.MustRegister(MessagesRequeuedTotal)
	prometheus.MustRegister(MessagesDroppedTotal)
	prometheus.MustRegister(BrokerReconnectsTotal)
}

func RegisterNotificationMetrics() {
	prometheus.MustRegister(NotificationsSentTotal)
	prometheus.MustRegister(NotificationSendDuration)
	prometheus.MustRegister(StreamingConnections)
	prometheus.MustRegister(StreamingEventsTotal)
}

func RegisterInventoryMetrics() {
	prometheus.MustRegister(InventoryAlertsTotal)
}

func RegisterCacheMetrics() {
	prometheus.MustRegister(CacheRequestsTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
}
