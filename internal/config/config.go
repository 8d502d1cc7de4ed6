// Package config resolves agent settings from defaults, an optional YAML
// file, environment variables and command-line flags, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Device names understood by the poller, each backed by a probe endpoint on
// the inspection host.
var DeviceNames = []string{"camera", "hdmi", "ocr", "ac", "dc"}

// DeviceField maps a device name to the status field its probe reports.
var DeviceField = map[string]string{
	"camera": "camera_value",
	"hdmi":   "hdmi_value",
	"ocr":    "ocr_value",
	"ac":     "ac_value",
	"dc":     "dc_value",
}

// DeviceTarget is one probe endpoint polled for status.
type DeviceTarget struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

// PollSettings controls the background device poller.
type PollSettings struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds" validate:"min=1"`
	TimeoutSeconds  int  `yaml:"timeout_seconds" validate:"min=1"`
}

// Config is the full agent configuration.
type Config struct {
	Port     int                     `yaml:"port" validate:"min=1,max=65535"`
	LogLevel string                  `yaml:"log_level" validate:"oneof=debug info warn error"`
	Poll     PollSettings            `yaml:"poll"`
	Devices  map[string]DeviceTarget `yaml:"devices" validate:"dive"`
}

// NewConfig returns the defaults: port 5000, info logging, poller off, and
// the conventional probe ports 5001-5005 on localhost.
func NewConfig() *Config {
	devices := make(map[string]DeviceTarget, len(DeviceNames))
	for i, name := range DeviceNames {
		devices[name] = DeviceTarget{Host: "127.0.0.1", Port: 5001 + i}
	}
	return &Config{
		Port:     5000,
		LogLevel: "info",
		Poll: PollSettings{
			Enabled:         false,
			IntervalSeconds: 5,
			TimeoutSeconds:  3,
		},
		Devices: devices,
	}
}

// Load resolves the configuration for the given command: YAML file first
// (when --config is set), then environment, then flags.
func (c *Config) Load(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		path, _ := cmd.Flags().GetString("config")
		if err := c.loadFile(path); err != nil {
			return err
		}
	}

	c.loadFromEnv()

	if cmd.Flags().Changed("port") {
		c.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("poll") {
		c.Poll.Enabled, _ = cmd.Flags().GetBool("poll")
	}

	return c.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if portStr := os.Getenv("VISIONIX_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			c.Port = port
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if enabledStr := os.Getenv("POLL_ENABLED"); enabledStr != "" {
		if enabled, err := strconv.ParseBool(enabledStr); err == nil {
			c.Poll.Enabled = enabled
		}
	}
	if intervalStr := os.Getenv("POLL_INTERVAL"); intervalStr != "" {
		if interval, err := strconv.Atoi(intervalStr); err == nil {
			c.Poll.IntervalSeconds = interval
		}
	}

	defaultHost := os.Getenv("DEVICE_HOST")
	for _, name := range DeviceNames {
		target := c.Devices[name]
		if defaultHost != "" {
			target.Host = defaultHost
		}
		upper := strings.ToUpper(name)
		if host := os.Getenv(upper + "_HOST"); host != "" {
			target.Host = host
		}
		if portStr := os.Getenv(upper + "_PORT"); portStr != "" {
			if port, err := strconv.Atoi(portStr); err == nil {
				target.Port = port
			}
		}
		c.Devices[name] = target
	}
}

// Validate checks ranges and enum fields via struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// AddFlags registers the agent flags on a cobra command.
func AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to YAML config file")
	cmd.Flags().Int("port", 5000, "HTTP listen port")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("poll", false, "Enable the background device poller")
}
