package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWrapper(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_FetchCounters(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.StatsFetchInc()
	wrapper.StatsFetchInc()
	wrapper.StatsFetchErrorInc()
	wrapper.MalformedRecordInc()

	if v := testutil.ToFloat64(metrics.StatsFetches); v != 2 {
		t.Errorf("Expected 2 fetches, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.StatsFetchErrors); v != 1 {
		t.Errorf("Expected 1 fetch error, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.MalformedRecords); v != 1 {
		t.Errorf("Expected 1 malformed record, got %f", v)
	}
	// both failure kinds count towards the error total
	if v := testutil.ToFloat64(metrics.ErrorsTotal); v != 2 {
		t.Errorf("Expected 2 errors total, got %f", v)
	}
}

func TestMetricsWrapper_RenderCounters(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.RenderAppliedInc()
	wrapper.RenderSupersededInc()
	wrapper.RenderSupersededInc()

	if v := testutil.ToFloat64(metrics.RendersApplied); v != 1 {
		t.Errorf("Expected 1 applied render, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.RendersSuperseded); v != 2 {
		t.Errorf("Expected 2 superseded renders, got %f", v)
	}
}

func TestMetricsWrapper_Sync(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	wrapper.SyncCompleted(0.2, 3)
	wrapper.SyncCompleted(0.1, 2)
	wrapper.SyncErrorInc()
	wrapper.AccountNAVSet("practice", "primary", 10250.5)

	if v := testutil.ToFloat64(metrics.SyncRuns); v != 2 {
		t.Errorf("Expected 2 sync runs, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.TradesStored); v != 5 {
		t.Errorf("Expected 5 trades stored, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.SyncErrors); v != 1 {
		t.Errorf("Expected 1 sync error, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.AccountNAV.WithLabelValues("practice", "primary")); v != 10250.5 {
		t.Errorf("Expected NAV 10250.5, got %f", v)
	}
	if n := testutil.CollectAndCount(metrics.SyncLatency); n != 1 {
		t.Errorf("Expected 1 latency series, got %d", n)
	}
}

func TestMetricsWrapper_WSClients(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.WSClientsAdd(1)
	wrapper.WSClientsAdd(1)
	wrapper.WSClientsAdd(-1)

	if v := testutil.ToFloat64(metrics.WSClients); v != 1 {
		t.Errorf("Expected 1 client, got %f", v)
	}
}

func TestNewWithRegistry_DuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewWithRegistry(registry)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when registering metrics twice on the same registry")
		}
	}()
	NewWithRegistry(registry)
}
