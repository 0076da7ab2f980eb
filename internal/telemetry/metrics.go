package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shaiso/Lineage/internal/domain"
)

const metricsNamespace = "lineage"

// Metrics владеет счётчиками каталога.
//
// Реализует service.MetricsSink и service.FailureRecorder.
// Счётчики регистрируются на переданном Registerer, поэтому в тестах
// можно использовать отдельный prometheus.NewRegistry().
type Metrics struct {
	datasets         *prometheus.CounterVec
	versions         *prometheus.CounterVec
	observerFailures *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// NewMetrics создаёт и регистрирует счётчики.
// Если reg равен nil, используется prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		datasets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dataset_total",
			Help:      "Dataset writes by namespace and type",
		}, []string{"namespace", "type"}),

		versions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dataset_versions_total",
			Help:      "Dataset version writes by namespace, type and dataset",
		}, []string{"namespace", "type", "dataset"}),

		observerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "observer_failures_total",
			Help:      "Observer errors and panics during dispatch",
		}, []string{"observer"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled by the catalog API",
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.datasets, m.versions, m.observerFailures, m.httpRequests)
	return m
}

// IncDatasetCount учитывает запись dataset.
func (m *Metrics) IncDatasetCount(namespace string, datasetType domain.DatasetType) {
	m.datasets.WithLabelValues(namespace, string(datasetType)).Inc()
}

// IncVersionCount учитывает запись версии dataset.
func (m *Metrics) IncVersionCount(namespace string, datasetType domain.DatasetType, dataset string) {
	m.versions.WithLabelValues(namespace, string(datasetType), dataset).Inc()
}

// IncObserverFailure учитывает сбой наблюдателя.
func (m *Metrics) IncObserverFailure(observer string) {
	m.observerFailures.WithLabelValues(observer).Inc()
}

// ObserveHTTPRequest учитывает обработанный HTTP запрос.
// route должен быть шаблоном маршрута, а не путём, иначе растёт кардинальность.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
