// Package config holds this program's runtime configuration and a
// watcher that re-reads a narrow slice of it — the DEBUG flag — into a
// live Config without a restart. Nothing here copies that flag onto a
// running Backburner's DEBUG field.
package config

import (
	"encoding/json"
	"os"
	"sync"
)

// Config is the on-disk shape this program reads at startup and
// re-reads on every watched file change. Only Debug is hot-reloadable;
// Queues and the audit/telemetry settings take effect at startup only.
type Config struct {
	mu sync.RWMutex

	Debug  bool     `json:"debug"`
	Queues []string `json:"queues"`

	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
	OTLP     OTLPConfig     `json:"otlp"`
}

// PostgresConfig configures the Postgres audit sink. DSN empty means
// "not configured" — the program falls back to the SQLite sink.
type PostgresConfig struct {
	DSN string `json:"dsn"`
}

// RedisConfig configures the Redis pub/sub audit sink. Addr empty means
// "not configured" — no live-dashboard fan-out runs.
type RedisConfig struct {
	Addr    string `json:"addr"`
	Channel string `json:"channel"`
}

// OTLPConfig points an OTLP/HTTP trace exporter at a collector. Endpoint
// empty means "not configured" — tracing stays a no-op.
type OTLPConfig struct {
	Endpoint string `json:"endpoint"`
}

// Default returns the built-in configuration used when no file is
// supplied: a single "default" queue, DEBUG off, and no Postgres, Redis
// or OTLP settings (so the program uses its SQLite audit sink).
func Default() *Config {
	return &Config{
		Debug:  false,
		Queues: []string{"default"},
	}
}

// Load reads path as JSON into a fresh Config seeded from Default, so a
// config file only needs to set the fields it wants to override.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDebug reports the current value of Debug.
func (c *Config) IsDebug() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Debug
}

// SetDebug updates Debug. Used by Watcher on every qualifying reload.
func (c *Config) SetDebug(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Debug = v
}
