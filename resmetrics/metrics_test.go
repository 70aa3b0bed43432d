package resmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNew_NilRegisterer_MethodsAreNoOps(t *testing.T) {
	c := New(nil)

	c.ObserveRequest("get", "", time.Millisecond)
	c.IncQueryEvent()
	c.SetQueueDepth(5)
}

func TestObserveRequest_IncrementsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveRequest("call", "double", 2*time.Millisecond)

	mf, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %s", err)
	}

	var found bool
	for _, f := range mf {
		if f.GetName() != "res_requests_total" {
			continue
		}
		for _, m := range f.Metric {
			if labelValue(m, "type") == "call" && labelValue(m, "method") == "double" {
				found = true
				if m.Counter.GetValue() != 1 {
					t.Errorf("expected counter value 1, got %v", m.Counter.GetValue())
				}
			}
		}
	}
	if !found {
		t.Fatal("expected res_requests_total{type=\"call\",method=\"double\"} to be recorded")
	}
}

func TestSetQueueDepth_ReflectsLatestValue(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetQueueDepth(3)
	c.SetQueueDepth(7)

	mf, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %s", err)
	}

	var got float64 = -1
	for _, f := range mf {
		if f.GetName() == "res_queue_depth" {
			got = f.Metric[0].Gauge.GetValue()
		}
	}
	if got != 7 {
		t.Errorf("expected res_queue_depth to be 7, got %v", got)
	}
}

func TestIncQueryEvent_IncrementsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncQueryEvent()
	c.IncQueryEvent()

	mf, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %s", err)
	}

	var got float64 = -1
	for _, f := range mf {
		if f.GetName() == "res_query_events_active" {
			got = f.Metric[0].Gauge.GetValue()
		}
	}
	if got != 2 {
		t.Errorf("expected res_query_events_active to be 2, got %v", got)
	}
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.Label {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
