package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"visionix/internal/state"
)

func TestStateCollector(t *testing.T) {
	store := state.NewStore()
	if err := store.SetStatus(0); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := store.SetOCR(45296); err != nil {
		t.Fatalf("SetOCR: %v", err)
	}

	expected := `
# HELP ac_value AC power status value
# TYPE ac_value gauge
ac_value 1
# HELP camera_value Camera status value
# TYPE camera_value gauge
camera_value 0
# HELP dc_value DC power status value
# TYPE dc_value gauge
dc_value 1
# HELP hdmi_value HDMI status value
# TYPE hdmi_value gauge
hdmi_value 1
# HELP ocr_value_info OCR timestamp value as HH:MM:SS string
# TYPE ocr_value_info gauge
ocr_value_info{value="12:34:56"} 1
# HELP ocr_value_seconds OCR timestamp converted to seconds
# TYPE ocr_value_seconds gauge
ocr_value_seconds 45296
`
	c := NewStateCollector(store)
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected exposition: %v", err)
	}
}

func TestRecordRequest(t *testing.T) {
	m := New(state.NewStore(), zap.NewNop())
	m.RecordRequest("GET", "/status", "200", 5*time.Millisecond)
	m.RecordRequest("GET", "/status", "200", 7*time.Millisecond)
	m.RecordRequest("POST", "/status", "400", time.Millisecond)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/status", "200")); got != 2 {
		t.Fatalf("GET /status 200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "/status", "400")); got != 1 {
		t.Fatalf("POST /status 400 count = %v, want 1", got)
	}
}

func TestHostCollectorPartialFailure(t *testing.T) {
	c := NewHostCollector(zap.NewNop())
	c.probes = []probe{
		{name: "cpu", collect: func(_ context.Context, ch chan<- prometheus.Metric) error {
			ch <- prometheus.MustNewConstMetric(c.cpuDesc, prometheus.GaugeValue, 42)
			return nil
		}},
		{name: "memory", collect: func(context.Context, chan<- prometheus.Metric) error {
			return errors.New("permission denied")
		}},
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var sawCPU, sawMemory bool
	for _, mf := range families {
		switch mf.GetName() {
		case "system_cpu_percent":
			sawCPU = true
		case "system_memory_percent":
			sawMemory = true
		}
	}
	if !sawCPU {
		t.Fatal("surviving probe's metric missing from scrape")
	}
	if sawMemory {
		t.Fatal("failed probe's metric should be omitted from scrape")
	}
}

func TestHostCollectorGathers(t *testing.T) {
	c := NewHostCollector(zap.NewNop())
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one host metric family")
	}
}
