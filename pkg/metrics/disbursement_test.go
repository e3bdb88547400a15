package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDisbursementMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDisbursementMetrics(reg)
	metrics.ObserveBatchDuration("processed", 1500*time.Millisecond)
	metrics.IncInstruction("pending")
	metrics.IncInstruction("pending")
	metrics.IncInstruction("failed")
	metrics.IncRateLimitRetry()
	metrics.IncProvision("corporate_entity")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "payment_instructions_total", "outcome", "pending"); err != nil {
		t.Fatalf("fetch pending: %v", err)
	} else if got != 2 {
		t.Fatalf("expected pending=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payment_instructions_total", "outcome", "failed"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "resource_provision_total", "kind", "corporate_entity"); err != nil {
		t.Fatalf("fetch provision: %v", err)
	} else if got != 1 {
		t.Fatalf("expected provision=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "batch_processing_duration_seconds", "outcome", "processed"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestDisbursementMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewDisbursementMetrics(nil)
	metrics.ObserveBatchDuration("processed", time.Second)
	metrics.IncInstruction("pending")
	metrics.IncRateLimitRetry()
	metrics.IncProvision("")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
