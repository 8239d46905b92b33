package config

import (
	"fmt"
	"sync/atomic"
)

// Holder publishes the current configuration to concurrent readers. A
// failed reload leaves the previous configuration in place.
type Holder struct {
	cfg atomic.Pointer[Config]
}

// NewHolder returns a holder seeded with cfg.
func NewHolder(cfg *Config) *Holder {
	h := &Holder{}
	h.cfg.Store(cfg)
	return h
}

// Get returns the current configuration. Callers must not modify it.
func (h *Holder) Get() *Config {
	return h.cfg.Load()
}

// Set replaces the current configuration.
func (h *Holder) Set(cfg *Config) {
	h.cfg.Store(cfg)
}

// Reload loads path with environment overrides and publishes the result
// only if it is valid.
func (h *Holder) Reload(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	h.cfg.Store(cfg)
	return nil
}
