package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func newTestCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "visionix"}
	AddFlags(cmd)
	return cmd
}

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.Port != 5000 {
		t.Fatalf("default port = %d, want 5000", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("default log level = %q, want info", cfg.LogLevel)
	}
	if cfg.Poll.Enabled {
		t.Fatal("poller should be disabled by default")
	}
	for i, name := range DeviceNames {
		dev, ok := cfg.Devices[name]
		if !ok {
			t.Fatalf("missing default device %s", name)
		}
		if dev.Port != 5001+i {
			t.Fatalf("device %s port = %d, want %d", name, dev.Port, 5001+i)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VISIONIX_PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEVICE_HOST", "10.0.0.9")
	t.Setenv("CAMERA_HOST", "10.0.0.10")
	t.Setenv("CAMERA_PORT", "6001")
	t.Setenv("POLL_ENABLED", "true")
	t.Setenv("POLL_INTERVAL", "15")

	cfg := NewConfig()
	if err := cfg.Load(newTestCmd(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.LogLevel)
	}
	if !cfg.Poll.Enabled || cfg.Poll.IntervalSeconds != 15 {
		t.Fatalf("poll settings not applied: %+v", cfg.Poll)
	}
	if cfg.Devices["camera"].Host != "10.0.0.10" || cfg.Devices["camera"].Port != 6001 {
		t.Fatalf("camera override not applied: %+v", cfg.Devices["camera"])
	}
	// DEVICE_HOST applies to devices without a specific override.
	if cfg.Devices["hdmi"].Host != "10.0.0.9" {
		t.Fatalf("default host not applied to hdmi: %+v", cfg.Devices["hdmi"])
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("VISIONIX_PORT", "8080")

	cmd := newTestCmd(t)
	if err := cmd.Flags().Set("port", "9090"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg := NewConfig()
	if err := cfg.Load(cmd); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Fatalf("port = %d, want flag value 9090", cfg.Port)
	}
}

func TestYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	data := []byte("port: 6000\nlog_level: warn\npoll:\n  enabled: true\n  interval_seconds: 10\n  timeout_seconds: 2\ndevices:\n  camera:\n    host: 192.168.1.20\n    port: 7001\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newTestCmd(t)
	if err := cmd.Flags().Set("config", path); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg := NewConfig()
	if err := cfg.Load(cmd); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 6000 || cfg.LogLevel != "warn" {
		t.Fatalf("yaml values not applied: port=%d level=%s", cfg.Port, cfg.LogLevel)
	}
	if !cfg.Poll.Enabled || cfg.Poll.IntervalSeconds != 10 {
		t.Fatalf("yaml poll settings not applied: %+v", cfg.Poll)
	}
	if cfg.Devices["camera"].Host != "192.168.1.20" || cfg.Devices["camera"].Port != 7001 {
		t.Fatalf("yaml device not applied: %+v", cfg.Devices["camera"])
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := NewConfig()
	cfg.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}

	cfg = NewConfig()
	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = NewConfig()
	cfg.Devices["camera"] = DeviceTarget{Host: "127.0.0.1", Port: 70000}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range device port")
	}
}
