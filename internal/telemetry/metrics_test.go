package telemetry

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shaiso/Lineage/internal/domain"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.IncDatasetCount("warehouse", domain.DatasetTypeDBTable)
	m.IncDatasetCount("warehouse", domain.DatasetTypeDBTable)
	m.IncVersionCount("warehouse", domain.DatasetTypeDBTable, "orders")
	m.IncObserverFailure("mq")

	if got := testutil.ToFloat64(m.datasets.WithLabelValues("warehouse", "DB_TABLE")); got != 2 {
		t.Errorf("expected 2 dataset writes, got %v", got)
	}
	if got := testutil.ToFloat64(m.versions.WithLabelValues("warehouse", "DB_TABLE", "orders")); got != 1 {
		t.Errorf("expected 1 version write, got %v", got)
	}

	expected := `
# HELP lineage_observer_failures_total Observer errors and panics during dispatch
# TYPE lineage_observer_failures_total counter
lineage_observer_failures_total{observer="mq"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "lineage_observer_failures_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestMetrics_HTTPRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveHTTPRequest("GET", "GET /api/v1/runs/{id}", 404)

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /api/v1/runs/{id}", "404")); got != 1 {
		t.Errorf("expected 1 request, got %v", got)
	}
	if n := testutil.CollectAndCount(m.httpRequests); n != 1 {
		t.Errorf("expected 1 series, got %d", n)
	}
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Два экземпляра на разных реестрах не конфликтуют.
	NewMetrics(prometheus.NewRegistry())
	NewMetrics(prometheus.NewRegistry())
}
