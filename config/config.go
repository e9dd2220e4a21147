// Package config loads the barometer settings from a YAML file. Values not
// present in the file keep their defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is injected at build time.
var Version = "dev"

const (
	AdapterPeriph  = "periph"
	AdapterMCP2221 = "mcp2221"
	AdapterNanoPi  = "nanopi"
	AdapterSim     = "sim"
)

type MQTT struct {
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	QoS      byte          `yaml:"qos"`
	Retained bool          `yaml:"retained"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Config struct {
	Adapter     string        `yaml:"adapter"`
	Device      string        `yaml:"device"`
	Bus         int           `yaml:"bus"`
	Address     uint8         `yaml:"address"`
	Settle      time.Duration `yaml:"settle"`
	Retries     int           `yaml:"retries"`
	Backoff     time.Duration `yaml:"backoff"`
	Format      string        `yaml:"format"`
	MetricsFile string        `yaml:"metrics_file"`
	MQTT        MQTT          `yaml:"mqtt"`
}

func Default() Config {
	return Config{
		Adapter: AdapterPeriph,
		Device:  "/dev/i2c-1",
		Bus:     1,
		Address: 0x60,
		Settle:  3 * time.Millisecond,
		Retries: 5,
		Backoff: time.Second,
		Format:  "human",
		MQTT: MQTT{
			Broker:   "tcp://localhost:1883",
			ClientID: "mpl115a2",
			Topic:    "sensors/mpl115a2/pressure",
			Timeout:  5 * time.Second,
		},
	}
}

// Load reads path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("could not open config file: %w", err)
	}
	defer f.Close()
	if err := Decode(f, &cfg); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays YAML from r onto cfg and validates the result. Unknown
// keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not decode config: %w", err)
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterPeriph, AdapterMCP2221, AdapterNanoPi, AdapterSim:
	default:
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	if c.Address == 0 || c.Address > 0x7F {
		return fmt.Errorf("invalid 7-bit address %#x", c.Address)
	}
	if c.Settle <= 0 {
		return fmt.Errorf("settle interval must be positive, got %s", c.Settle)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	if c.Backoff < 0 {
		return fmt.Errorf("backoff must not be negative, got %s", c.Backoff)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid mqtt qos %d", c.MQTT.QoS)
	}
	return nil
}
