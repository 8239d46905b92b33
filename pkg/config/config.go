package config

import (
	"time"

	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
)

// Config is the root configuration for the tork CLI and server.
type Config struct {
	// Governance controls policy and pattern activation.
	Governance GovernanceConfig `yaml:"governance"`

	// Logging contains log level, format and PII scrubbing settings.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus export settings.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry span settings.
	Tracing TracingConfig `yaml:"tracing"`

	// Server contains HTTP listener and middleware settings.
	Server ServerConfig `yaml:"server"`

	// Receipts selects an optional receipt sink.
	Receipts ReceiptsConfig `yaml:"receipts"`
}

// GovernanceConfig configures a Tork instance.
type GovernanceConfig struct {
	// PolicyVersion is stamped into every receipt.
	// Default: "1.0.0"
	PolicyVersion string `yaml:"policy_version"`

	// DefaultAction applies when PII is detected.
	// Options: "redact", "deny"
	// Default: "redact"
	DefaultAction string `yaml:"default_action"`

	// Regions are the region packs active on every call.
	// Unknown codes are ignored.
	Regions []string `yaml:"regions"`

	// Industry is the industry pack active on every call.
	Industry string `yaml:"industry"`

	// ExtraPackFiles are YAML pattern pack files loaded in addition to the
	// embedded packs.
	ExtraPackFiles []string `yaml:"extra_pack_files"`
}

// EngineConfig converts the section into a policy engine configuration.
// Call Validate first; an unparsable action yields an empty Action.
func (g GovernanceConfig) EngineConfig() engine.Config {
	action, _ := engine.ParseAction(g.DefaultAction)
	return engine.Config{
		PolicyVersion: g.PolicyVersion,
		DefaultAction: action,
	}
}

// GovernOptions returns the per-call options implied by the section.
func (g GovernanceConfig) GovernOptions() pii.GovernOptions {
	regions := make([]string, len(g.Regions))
	copy(regions, g.Regions)
	return pii.GovernOptions{Regions: regions, Industry: g.Industry}
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactPII scrubs core PII patterns from log attributes.
	// Default: true
	RedactPII *bool `yaml:"redact_pii"`
}

// RedactEnabled reports whether log scrubbing is on.
func (l LoggingConfig) RedactEnabled() bool {
	return l.RedactPII == nil || *l.RedactPII
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "tork"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "governance"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets are histogram buckets for govern latency in seconds.
	// Default: [0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains tracing configuration. Spans are kept in-process;
// there is no exporter.
type TracingConfig struct {
	// Enabled installs an SDK tracer provider. When false a no-op tracer
	// is used.
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service name in traces.
	// Default: "tork-governance"
	ServiceName string `yaml:"service_name"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits governed request bodies.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ProtectedPaths are path prefixes governed by the middleware.
	// Default: ["/api/"]
	ProtectedPaths []string `yaml:"protected_paths"`

	// SkipPaths are path prefixes that bypass governance.
	// Default: ["/health", "/metrics"]
	SkipPaths []string `yaml:"skip_paths"`

	// ContentFields are JSON body fields searched for governed text, in order.
	// Default: ["content", "message", "text", "prompt", "query", "input"]
	ContentFields []string `yaml:"content_fields"`

	// APIKeys, when non-empty, are required on the /v1 API and on governed
	// paths, sent as X-API-Key or an Authorization bearer token.
	APIKeys []APIKeyConfig `yaml:"api_keys"`

	// TLS serves HTTPS when enabled.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig configures HTTPS for the serve command.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the certificate files are checked for
	// changes. Zero disables reloading.
	// Default: 1m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// APIKeyConfig is one accepted API key.
type APIKeyConfig struct {
	// Name identifies the key holder in logs. The key itself is never logged.
	Name string `yaml:"name"`

	// Key is the secret value.
	Key string `yaml:"key"`

	// Enabled allows requests with this key.
	// Default: true
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether the key is accepted.
func (k APIKeyConfig) IsEnabled() bool {
	return k.Enabled == nil || *k.Enabled
}

// ReceiptsConfig selects where the server keeps receipts.
type ReceiptsConfig struct {
	// Backend is the receipt sink.
	// Options: "none", "memory", "sqlite"
	// Default: "none"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend settings.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// AsyncBuffer is the recorder queue size.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// Retention contains pruning settings.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite receipt sink settings.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/receipts.db"
	Path string `yaml:"path"`

	// Driver is the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode *bool `yaml:"wal_mode"`
}

// RetentionConfig contains receipt pruning settings.
type RetentionConfig struct {
	// Days is the receipt retention period. A negative value keeps
	// receipts forever.
	// Default: 90
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxReceipts caps the number of stored receipts; 0 is unlimited.
	MaxReceipts int64 `yaml:"max_receipts"`

	// ArchiveBeforeDelete writes pruned receipts to ArchivePath first.
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the archive directory.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`
}
