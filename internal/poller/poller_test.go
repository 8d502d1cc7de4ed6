package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"visionix/internal/config"
	"visionix/internal/state"
)

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPollOnceAppliesReadings(t *testing.T) {
	camera := jsonServer(t, `{"camera_value": 0}`)
	ocr := jsonServer(t, `{"ocr_value": "12:34:56"}`)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(down.Close)

	store := state.NewStore()
	p := New(store, zap.NewNop(), []Target{
		{Name: "camera", URL: camera.URL, Field: "camera_value"},
		{Name: "ocr", URL: ocr.URL, Field: "ocr_value"},
		{Name: "hdmi", URL: down.URL, Field: "hdmi_value"},
	}, time.Second, time.Second)

	p.pollOnce(context.Background())

	snap := store.Snapshot()
	if snap.Camera != 0 {
		t.Fatalf("camera = %d, want 0", snap.Camera)
	}
	if snap.OCRSeconds != 45296 {
		t.Fatalf("ocr = %d, want 45296", snap.OCRSeconds)
	}
	if snap.HDMI != 1 {
		t.Fatalf("hdmi changed despite failed probe: %d", snap.HDMI)
	}
}

func TestPollOnceIsolatesInvalidDevice(t *testing.T) {
	camera := jsonServer(t, `{"camera_value": 0}`)
	hdmi := jsonServer(t, `{"hdmi_value": 9}`)

	store := state.NewStore()
	p := New(store, zap.NewNop(), []Target{
		{Name: "camera", URL: camera.URL, Field: "camera_value"},
		{Name: "hdmi", URL: hdmi.URL, Field: "hdmi_value"},
	}, time.Second, time.Second)

	p.pollOnce(context.Background())

	snap := store.Snapshot()
	if snap.Camera != 0 {
		t.Fatalf("healthy camera reading dropped because sibling hdmi device sent an invalid value: camera = %d, want 0", snap.Camera)
	}
	if snap.HDMI != 1 {
		t.Fatalf("invalid hdmi reading applied: %d", snap.HDMI)
	}
}

func TestPollOnceRejectsBadPayload(t *testing.T) {
	bad := jsonServer(t, `{"camera_value": 7}`)
	store := state.NewStore()
	p := New(store, zap.NewNop(), []Target{
		{Name: "camera", URL: bad.URL, Field: "camera_value"},
	}, time.Second, time.Second)

	p.pollOnce(context.Background())

	if store.Status() != 1 {
		t.Fatalf("invalid reading applied: %d", store.Status())
	}
}

func TestPollOnceMissingField(t *testing.T) {
	srv := jsonServer(t, `{"unexpected": 1}`)
	store := state.NewStore()
	p := New(store, zap.NewNop(), []Target{
		{Name: "ac", URL: srv.URL, Field: "ac_value"},
	}, time.Second, time.Second)

	p.pollOnce(context.Background())

	if store.Snapshot().AC != 1 {
		t.Fatal("AC changed despite missing field in response")
	}
}

func TestTargetsFromConfig(t *testing.T) {
	devices := map[string]config.DeviceTarget{
		"camera": {Host: "10.0.0.5", Port: 5001},
		"dc":     {Host: "10.0.0.6", Port: 5005},
	}
	targets := TargetsFromConfig(devices)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].Name != "camera" || targets[0].URL != "http://10.0.0.5:5001/status" || targets[0].Field != "camera_value" {
		t.Fatalf("unexpected camera target: %+v", targets[0])
	}
	if targets[1].Name != "dc" || targets[1].Field != "dc_value" {
		t.Fatalf("unexpected dc target: %+v", targets[1])
	}
}

func TestStartStop(t *testing.T) {
	srv := jsonServer(t, `{"camera_value": 1}`)
	store := state.NewStore()
	p := New(store, zap.NewNop(), []Target{
		{Name: "camera", URL: srv.URL, Field: "camera_value"},
	}, 10*time.Millisecond, time.Second)

	p.Start()
	p.Start() // second Start is a no-op
	time.Sleep(30 * time.Millisecond)
	p.Stop()
	p.Stop() // second Stop is a no-op
}
