// Package config is the ambient, typed configuration surface of the
// panel core: a single struct bundling every runtime tunable
// spec.md §4.2/§4.3/§4.4/§5 names (connect/read watchdog, reconnect
// backoff floor and ceiling, outbound FIFO depth, file-transfer chunk
// cap), following the same zero-value-defaults-via-Valid shape as
// engine.Config and the teacher's cs104.Config.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amxpanel/icspcore/engine"
	"github.com/amxpanel/icspcore/wire"
)

// Config is the top-level composition-root configuration: a thin
// overlay of engine.Config plus the transport/file-transfer/encoding
// knobs that live outside the engine package.
type Config struct {
	// Addr is "host:port" the panel dials (spec.md §4.2).
	Addr string `yaml:"addr"`

	// TLS turns on encrypted conveyance (spec.md §4.2).
	TLS bool `yaml:"tls"`

	// Encoding selects the G4/G5 string encoding convention (spec.md
	// §9 "mixed encodings"); "g4" or "g5", default "g5".
	Encoding string `yaml:"encoding"`

	// StorageRoot is the directory filexfer.DiskStorage serves
	// uploads/downloads from.
	StorageRoot string `yaml:"storage_root"`

	ReadWriteTimeout time.Duration `yaml:"read_write_timeout"`
	ResetDelay       time.Duration `yaml:"reset_delay"`
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	BackoffMin       time.Duration `yaml:"backoff_min"`
	BackoffMax       time.Duration `yaml:"backoff_max"`

	OutboundQueueDepth       int `yaml:"outbound_queue_depth"`
	InboundCommandQueueDepth int `yaml:"inbound_command_queue_depth"`
	FileChunkCap             int `yaml:"file_chunk_cap"`
}

// DefaultConfig returns a Config with every field at its spec.md
// default.
func DefaultConfig() Config {
	c := Config{}
	_ = c.Valid()
	return c
}

// Valid fills every unspecified field with its default and reports an
// error for combinations that can never be satisfied (mirrors
// engine.Config.Valid, which this delegates the engine-scoped fields
// to).
func (c *Config) Valid() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	if c.Encoding == "" {
		c.Encoding = "g5"
	}
	if c.Encoding != "g4" && c.Encoding != "g5" {
		return fmt.Errorf("config: encoding must be %q or %q, got %q", "g4", "g5", c.Encoding)
	}
	if c.StorageRoot == "" {
		c.StorageRoot = "."
	}
	if c.FileChunkCap == 0 {
		c.FileChunkCap = 2000
	}

	ec := engine.Config{
		ReadWriteTimeout:         c.ReadWriteTimeout,
		ResetDelay:               c.ResetDelay,
		ReconnectDelay:           c.ReconnectDelay,
		BackoffMin:               c.BackoffMin,
		BackoffMax:               c.BackoffMax,
		OutboundQueueDepth:       c.OutboundQueueDepth,
		InboundCommandQueueDepth: c.InboundCommandQueueDepth,
	}
	if err := ec.Valid(); err != nil {
		return err
	}
	c.ReadWriteTimeout = ec.ReadWriteTimeout
	c.ResetDelay = ec.ResetDelay
	c.ReconnectDelay = ec.ReconnectDelay
	c.BackoffMin = ec.BackoffMin
	c.BackoffMax = ec.BackoffMax
	c.OutboundQueueDepth = ec.OutboundQueueDepth
	c.InboundCommandQueueDepth = ec.InboundCommandQueueDepth
	return nil
}

// EngineConfig projects the engine-scoped fields into an engine.Config.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		ReadWriteTimeout:         c.ReadWriteTimeout,
		ResetDelay:               c.ResetDelay,
		ReconnectDelay:           c.ReconnectDelay,
		BackoffMin:               c.BackoffMin,
		BackoffMax:               c.BackoffMax,
		OutboundQueueDepth:       c.OutboundQueueDepth,
		InboundCommandQueueDepth: c.InboundCommandQueueDepth,
	}
}

// Origin maps the Encoding field to the wire.Origin the codec needs.
func (c Config) Origin() wire.Origin {
	if c.Encoding == "g4" {
		return wire.OriginG4
	}
	return wire.OriginG5
}

// LoadFile reads a YAML overlay from path and returns a Config with
// every unspecified field defaulted via Valid. Loading a config file
// is outside spec.md's named scope (its Non-goals exclude operator
// tooling); carrying a typed, validated config struct is not, so this
// is the one place that scope-out feature still gets exercised as a
// convenience for cmd/panelsim.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Valid(); err != nil {
		return Config{}, err
	}
	return c, nil
}
