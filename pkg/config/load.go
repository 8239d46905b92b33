package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// TORK_GOVERNANCE_DEFAULT_ACTION.
const EnvPrefix = "TORK_"

// Parse decodes YAML, applies defaults and validates. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfig loads configuration from a YAML file at path without
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from path, or the
// defaults when path is empty, then applies TORK_SECTION_FIELD environment
// variables and validates the result. Environment variables take
// precedence over the file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = Default()
	} else if cfg, err = LoadConfig(path); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// envBinding maps one environment variable suffix to a config field.
type envBinding struct {
	key string
	set func(cfg *Config, val string) error
}

func str(f func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		*f(cfg) = val
		return nil
	}
}

func list(f func(*Config) *[]string) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*f(cfg) = out
		return nil
	}
}

func boolean(f func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*f(cfg) = b
		return nil
	}
}

func boolPtr(f func(*Config) **bool) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*f(cfg) = &b
		return nil
	}
}

func integer(f func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*f(cfg) = i
		return nil
	}
}

func int64v(f func(*Config) *int64) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return err
		}
		*f(cfg) = i
		return nil
	}
}

func float(f func(*Config) *float64) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		*f(cfg) = v
		return nil
	}
}

func duration(f func(*Config) *time.Duration) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*f(cfg) = d
		return nil
	}
}

var envBindings = []envBinding{
	{"GOVERNANCE_POLICY_VERSION", str(func(c *Config) *string { return &c.Governance.PolicyVersion })},
	{"GOVERNANCE_DEFAULT_ACTION", str(func(c *Config) *string { return &c.Governance.DefaultAction })},
	{"GOVERNANCE_REGIONS", list(func(c *Config) *[]string { return &c.Governance.Regions })},
	{"GOVERNANCE_INDUSTRY", str(func(c *Config) *string { return &c.Governance.Industry })},
	{"GOVERNANCE_EXTRA_PACK_FILES", list(func(c *Config) *[]string { return &c.Governance.ExtraPackFiles })},

	{"LOGGING_LEVEL", str(func(c *Config) *string { return &c.Logging.Level })},
	{"LOGGING_FORMAT", str(func(c *Config) *string { return &c.Logging.Format })},
	{"LOGGING_ADD_SOURCE", boolean(func(c *Config) *bool { return &c.Logging.AddSource })},
	{"LOGGING_REDACT_PII", boolPtr(func(c *Config) **bool { return &c.Logging.RedactPII })},

	{"METRICS_ENABLED", boolean(func(c *Config) *bool { return &c.Metrics.Enabled })},
	{"METRICS_PATH", str(func(c *Config) *string { return &c.Metrics.Path })},

	{"TRACING_ENABLED", boolean(func(c *Config) *bool { return &c.Tracing.Enabled })},
	{"TRACING_SAMPLER", str(func(c *Config) *string { return &c.Tracing.Sampler })},
	{"TRACING_SAMPLE_RATIO", float(func(c *Config) *float64 { return &c.Tracing.SampleRatio })},

	{"SERVER_LISTEN_ADDRESS", str(func(c *Config) *string { return &c.Server.ListenAddress })},
	{"SERVER_READ_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.Server.ReadTimeout })},
	{"SERVER_WRITE_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.Server.WriteTimeout })},
	{"SERVER_SHUTDOWN_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.Server.ShutdownTimeout })},
	{"SERVER_PROTECTED_PATHS", list(func(c *Config) *[]string { return &c.Server.ProtectedPaths })},
	{"SERVER_SKIP_PATHS", list(func(c *Config) *[]string { return &c.Server.SkipPaths })},
	{"SERVER_TLS_ENABLED", boolean(func(c *Config) *bool { return &c.Server.TLS.Enabled })},
	{"SERVER_TLS_CERT_FILE", str(func(c *Config) *string { return &c.Server.TLS.CertFile })},
	{"SERVER_TLS_KEY_FILE", str(func(c *Config) *string { return &c.Server.TLS.KeyFile })},

	{"RECEIPTS_BACKEND", str(func(c *Config) *string { return &c.Receipts.Backend })},
	{"RECEIPTS_SQLITE_PATH", str(func(c *Config) *string { return &c.Receipts.SQLite.Path })},
	{"RECEIPTS_SQLITE_DRIVER", str(func(c *Config) *string { return &c.Receipts.SQLite.Driver })},
	{"RECEIPTS_ASYNC_BUFFER", integer(func(c *Config) *int { return &c.Receipts.AsyncBuffer })},
	{"RECEIPTS_RETENTION_DAYS", integer(func(c *Config) *int { return &c.Receipts.Retention.Days })},
	{"RECEIPTS_RETENTION_PRUNE_SCHEDULE", str(func(c *Config) *string { return &c.Receipts.Retention.PruneSchedule })},
	{"RECEIPTS_RETENTION_MAX_RECEIPTS", int64v(func(c *Config) *int64 { return &c.Receipts.Retention.MaxReceipts })},
}

// EnvKeys lists every supported environment variable name.
func EnvKeys() []string {
	keys := make([]string, len(envBindings))
	for i, b := range envBindings {
		keys[i] = EnvPrefix + b.key
	}
	return keys
}

// applyEnvOverrides applies TORK_SECTION_FIELD variables. A variable that
// is set but unparsable is an error rather than silently ignored.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		val, ok := lookup(EnvPrefix + b.key)
		if !ok || val == "" {
			continue
		}
		if err := b.set(cfg, val); err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, b.key, val, err)
		}
	}
	return nil
}
