package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/muurk/tc2frames/internal/protocol"
	"github.com/muurk/tc2frames/internal/thermal"
)

// CurrentVersion is the only config file version this build understands.
const CurrentVersion = 1

// Config represents the entire configuration file.
type Config struct {
	Version   int              `yaml:"version"`
	Receiver  *ReceiverConfig  `yaml:"receiver,omitempty"`
	Display   *DisplayConfig   `yaml:"display,omitempty"`
	Discovery *DiscoveryConfig `yaml:"discovery,omitempty"`
	Logging   *LoggingConfig   `yaml:"logging,omitempty"`
}

// ReceiverConfig is the listening side of the frame stream.
type ReceiverConfig struct {
	Host            string        `yaml:"host"`             // Empty listens on all interfaces
	Port            int           `yaml:"port"`             // 0 picks a free port
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // Per-block deadline, 0 disables
	Width           int           `yaml:"width"`            // Frame width in samples
	Height          int           `yaml:"height"`           // Frame height in samples
	TelemetryLength int           `yaml:"telemetry_length"` // Bytes before each frame
}

// DisplayConfig controls how frames are shown.
type DisplayConfig struct {
	Gradient     string        `yaml:"gradient"`
	PollInterval time.Duration `yaml:"poll_interval"`
	WindowWidth  int           `yaml:"window_width"` // Snapshot output size in pixels
	WindowHeight int           `yaml:"window_height"`
}

// DiscoveryConfig controls the mDNS advertisement.
type DiscoveryConfig struct {
	Enabled    bool              `yaml:"enabled"`
	Instance   string            `yaml:"instance"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// LoggingConfig selects the log level and destination.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // Empty disables logging
	File  string `yaml:"file,omitempty"`  // Empty logs to stderr
}

// Default returns a Config with every section filled with defaults.
func Default() *Config {
	return &Config{
		Version:   CurrentVersion,
		Receiver:  defaultReceiver(),
		Display:   defaultDisplay(),
		Discovery: defaultDiscovery(),
		Logging:   &LoggingConfig{},
	}
}

func defaultReceiver() *ReceiverConfig {
	return &ReceiverConfig{
		Port:            34254,
		ReadTimeout:     10 * time.Second,
		Width:           protocol.DefaultWidth,
		Height:          protocol.DefaultHeight,
		TelemetryLength: protocol.TelemetryLength,
	}
}

func defaultDisplay() *DisplayConfig {
	return &DisplayConfig{
		Gradient:     thermal.DefaultGradient,
		PollInterval: 16 * time.Millisecond,
		WindowWidth:  640,
		WindowHeight: 480,
	}
}

func defaultDiscovery() *DiscoveryConfig {
	return &DiscoveryConfig{
		Enabled:  true,
		Instance: "tc2-frames",
		Properties: map[string]string{
			"property_1": "test",
			"property_2": "1234",
		},
	}
}

// fillDefaults replaces sections missing from the file.
func (c *Config) fillDefaults() {
	if c.Receiver == nil {
		c.Receiver = defaultReceiver()
	}
	if c.Display == nil {
		c.Display = defaultDisplay()
	}
	if c.Discovery == nil {
		c.Discovery = defaultDiscovery()
	}
	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
}

// Geometry returns the frame layout the receiver should expect.
func (c *Config) Geometry() protocol.Geometry {
	return protocol.Geometry{
		Width:           c.Receiver.Width,
		Height:          c.Receiver.Height,
		TelemetryLength: c.Receiver.TelemetryLength,
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	c.fillDefaults()

	var errs []error
	if c.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion))
	}

	r := c.Receiver
	if r.Port < 0 || r.Port > 65535 {
		errs = append(errs, fmt.Errorf("receiver.port must be 0-65535, got %d", r.Port))
	}
	if r.ReadTimeout < 0 {
		errs = append(errs, fmt.Errorf("receiver.read_timeout must not be negative, got %v", r.ReadTimeout))
	}
	if err := c.Geometry().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("receiver: %w", err))
	}

	d := c.Display
	if _, err := thermal.GradientByName(d.Gradient); err != nil {
		errs = append(errs, fmt.Errorf("display.gradient: %w", err))
	}
	if d.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("display.poll_interval must be positive, got %v", d.PollInterval))
	}
	if d.WindowWidth <= 0 || d.WindowHeight <= 0 {
		errs = append(errs, fmt.Errorf("display window must be positive, got %dx%d", d.WindowWidth, d.WindowHeight))
	}

	if c.Discovery.Enabled && c.Discovery.Instance == "" {
		errs = append(errs, errors.New("discovery.instance is required when discovery is enabled"))
	}

	return errors.Join(errs...)
}

// PropertyList returns the advertised properties as sorted key=value pairs.
func (d *DiscoveryConfig) PropertyList() []string {
	out := make([]string, 0, len(d.Properties))
	for k, v := range d.Properties {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
