// Package config loads the proxy/node-link tunables from a YAML file,
// falling back to defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Core holds the tunables shared by the LAN proxy and the node dispatcher.
type Core struct {
	// TickStepMS is the Action Tick Stream's cadence in milliseconds.
	TickStepMS int `yaml:"tick_step_ms"`

	// PlayerSendQueueLen is loaded but not read by the node or proxy: the
	// per-player outbound channel node/server creates has a fixed capacity
	// of 16, whatever this value is.
	PlayerSendQueueLen int `yaml:"player_send_queue_len"`

	// NodeDialTimeout is the node-link dial timeout as a duration string.
	// Only NodeDialTimeoutDuration reads it; no dial in this module applies
	// it.
	NodeDialTimeout string `yaml:"node_dial_timeout"`

	// ClientIdleTimeout is the client idle timeout as a duration string.
	// Only ClientIdleTimeoutDuration reads it; the proxy applies no idle
	// timeout to client connections.
	ClientIdleTimeout string `yaml:"client_idle_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// MetricsListenAddr, if non-empty, serves Prometheus metrics on this
	// address (e.g. "127.0.0.1:9090").
	MetricsListenAddr string `yaml:"metrics_listen_addr"`
}

// NodeDialTimeoutDuration parses NodeDialTimeout, falling back to 5s on an
// empty or unparsable value.
func (c Core) NodeDialTimeoutDuration() time.Duration {
	return parseDurationOr(c.NodeDialTimeout, 5*time.Second)
}

// ClientIdleTimeoutDuration parses ClientIdleTimeout, falling back to 60s
// on an empty or unparsable value.
func (c Core) ClientIdleTimeoutDuration() time.Duration {
	return parseDurationOr(c.ClientIdleTimeout, 60*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// TickStep returns TickStepMS as a time.Duration, defaulting to 30ms (the
// game's native simulation step) when unset.
func (c Core) TickStep() time.Duration {
	if c.TickStepMS <= 0 {
		return 30 * time.Millisecond
	}
	return time.Duration(c.TickStepMS) * time.Millisecond
}

// Default returns Core with the defaults the proxy and node run with when
// no config file is present.
func Default() Core {
	return Core{
		TickStepMS:         30,
		PlayerSendQueueLen: 256,
		NodeDialTimeout:    "5s",
		ClientIdleTimeout:  "60s",
		LogLevel:           "info",
		MetricsListenAddr:  "",
	}
}

// Load reads Core from a YAML file at path, merging over Default. A
// missing file is not an error: it just means the defaults apply.
func Load(path string) (Core, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, nil
}
