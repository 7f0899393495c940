package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PortalMetrics — метрики клиентского портала.
type PortalMetrics struct {
	submissions *prometheus.CounterVec
	actions     *prometheus.CounterVec
	queueLength prometheus.Gauge
}

// NewPortalMetrics создаёт метрики портала в DefaultRegisterer.
func NewPortalMetrics() *PortalMetrics {
	return NewPortalMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPortalMetricsWithRegisterer создаёт метрики портала в указанном registry.
func NewPortalMetricsWithRegisterer(registerer prometheus.Registerer) *PortalMetrics {
	return &PortalMetrics{
		submissions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "carwash_portal_submissions_total",
			Help: "Order form submissions by persistence mode and result",
		}, []string{"mode", "result"}),
		actions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "carwash_portal_actions_total",
			Help: "Queue actions (complete, cancel, clear) by result",
		}, []string{"action", "result"}),
		queueLength: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "carwash_portal_queue_length",
			Help: "Number of orders currently shown in the portal queue",
		}),
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSubmission учитывает отправку формы.
func (m *PortalMetrics) RecordSubmission(mode string, err error) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(mode, resultLabel(err)).Inc()
}

// RecordAction учитывает действие над очередью.
func (m *PortalMetrics) RecordAction(action string, err error) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, resultLabel(err)).Inc()
}

// SetQueueLength выставляет длину очереди.
func (m *PortalMetrics) SetQueueLength(n int) {
	if m == nil {
		return
	}
	m.queueLength.Set(float64(n))
}
