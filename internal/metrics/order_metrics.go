package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики сервиса заказов.
type OrderMetrics struct {
	ordersCreated  prometheus.Counter
	ordersDeleted  prometheus.Counter
	statusChanges  *prometheus.CounterVec
	queueOrders    *prometheus.GaugeVec
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter
}

// NewOrderMetrics создаёт метрики в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer создаёт метрики в указанном registry.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "carwash_orders_created_total",
			Help: "Total number of car wash orders created",
		}),
		ordersDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "carwash_orders_deleted_total",
			Help: "Total number of car wash orders deleted",
		}),
		statusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "carwash_order_status_changes_total",
			Help: "Total number of order status changes by target status",
		}, []string{"status"}),
		queueOrders: registerGaugeVec(registerer, prometheus.GaugeOpts{
			Name: "carwash_queue_orders",
			Help: "Current number of orders in the service by status",
		}, []string{"status"}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "carwash_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "carwash_outbox_events_total",
			Help: "Total number of order events enqueued to outbox",
		}),
	}
}

// RecordCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordDeleted увеличивает счётчик удалённых заказов.
func (m *OrderMetrics) RecordDeleted() {
	if m == nil {
		return
	}
	m.ordersDeleted.Inc()
}

// RecordStatusChange учитывает переход заказа в статус status.
func (m *OrderMetrics) RecordStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

// SetQueueOrders выставляет текущее количество заказов по статусам.
func (m *OrderMetrics) SetQueueOrders(byStatus map[string]int) {
	if m == nil {
		return
	}
	m.queueOrders.Reset()
	for status, count := range byStatus {
		m.queueOrders.WithLabelValues(status).Set(float64(count))
	}
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	if m == nil {
		return
	}
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}
