package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics — метрики HTTP-клиента сервиса заказов на стороне портала.
type ClientMetrics struct {
	requestDuration  *prometheus.HistogramVec
	backendAvailable prometheus.Gauge
}

// NewClientMetrics создаёт метрики клиента в DefaultRegisterer.
func NewClientMetrics() *ClientMetrics {
	return NewClientMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewClientMetricsWithRegisterer создаёт метрики клиента в указанном registry.
func NewClientMetricsWithRegisterer(registerer prometheus.Registerer) *ClientMetrics {
	return &ClientMetrics{
		requestDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "carwash_orderapi_request_duration_seconds",
			Help:    "Duration of order service calls made by the portal",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op", "result"}),
		backendAvailable: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "carwash_orderapi_backend_available",
			Help: "1 if the last availability probe of the order service succeeded",
		}),
	}
}

// ObserveRequest записывает длительность вызова op с результатом ok/error.
func (m *ClientMetrics) ObserveRequest(op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.requestDuration.WithLabelValues(op, result).Observe(duration.Seconds())
}

// SetBackendAvailable фиксирует результат проверки доступности сервиса.
func (m *ClientMetrics) SetBackendAvailable(available bool) {
	if m == nil {
		return
	}
	if available {
		m.backendAvailable.Set(1)
		return
	}
	m.backendAvailable.Set(0)
}
