package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewOrderMetrics(t *testing.T) {
	m := newOrderMetricsWithRegisterer(prometheus.NewRegistry())

	if m.ordersCreated == nil {
		t.Error("ordersCreated counter should not be nil")
	}
	if m.ordersFailed == nil {
		t.Error("ordersFailed counter vec should not be nil")
	}
	if m.createDuration == nil {
		t.Error("createDuration histogram should not be nil")
	}
	if m.stockUpdates == nil {
		t.Error("stockUpdates counter should not be nil")
	}
	if m.outboxEvents == nil {
		t.Error("outboxEvents counter should not be nil")
	}
}

func TestOrderMetrics_DoubleRegistrationReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newOrderMetricsWithRegisterer(registry)
	second := newOrderMetricsWithRegisterer(registry)

	first.RecordOrderCreated()
	second.RecordOrderCreated()

	if got := counterValue(t, first.ordersCreated); got != 2 {
		t.Fatalf("expected shared counter value 2, got %v", got)
	}
}

func TestOrderMetrics_Recorders(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newOrderMetricsWithRegisterer(registry)

	m.RecordOrderCreated()
	m.RecordOrderFailed("customer_not_found")
	m.RecordOrderFailed("customer_not_found")
	m.RecordCreateDuration(25 * time.Millisecond)
	m.RecordStockUpdate()
	m.RecordOutboxEvent()

	if got := counterValue(t, m.ordersCreated); got != 1 {
		t.Fatalf("ordersCreated = %v, want 1", got)
	}
	if got := counterValue(t, m.ordersFailed.WithLabelValues("customer_not_found")); got != 2 {
		t.Fatalf("ordersFailed = %v, want 2", got)
	}
	if got := counterValue(t, m.stockUpdates); got != 1 {
		t.Fatalf("stockUpdates = %v, want 1", got)
	}
	if got := counterValue(t, m.outboxEvents); got != 1 {
		t.Fatalf("outboxEvents = %v, want 1", got)
	}
}

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}
