package config

import (
	"time"

	"tork-hq/governance/pkg/policy/engine"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Fields the
// caller set are left alone.
func ApplyDefaults(cfg *Config) {
	applyGovernanceDefaults(&cfg.Governance)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyTracingDefaults(&cfg.Tracing)
	applyServerDefaults(&cfg.Server)
	applyReceiptsDefaults(&cfg.Receipts)
}

func applyGovernanceDefaults(g *GovernanceConfig) {
	if g.PolicyVersion == "" {
		g.PolicyVersion = engine.DefaultPolicyVersion
	}
	if g.DefaultAction == "" {
		g.DefaultAction = string(engine.ActionRedact)
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "json"
	}
	if l.RedactPII == nil {
		on := true
		l.RedactPII = &on
	}
}

func applyMetricsDefaults(m *MetricsConfig) {
	if m.Path == "" {
		m.Path = "/metrics"
	}
	if m.Namespace == "" {
		m.Namespace = "tork"
	}
	if m.Subsystem == "" {
		m.Subsystem = "governance"
	}
	if len(m.DurationBuckets) == 0 {
		// Governance is CPU-bound; most calls finish well under a millisecond.
		m.DurationBuckets = []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05}
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.Sampler == "" {
		t.Sampler = "ratio"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 0.1
	}
	if t.ServiceName == "" {
		t.ServiceName = "tork-governance"
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = "127.0.0.1:8080"
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = 120 * time.Second
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 30 * time.Second
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = 1 << 20
	}
	if s.ProtectedPaths == nil {
		s.ProtectedPaths = []string{"/api/"}
	}
	if s.SkipPaths == nil {
		s.SkipPaths = []string{"/health", "/metrics"}
	}
	if s.ContentFields == nil {
		s.ContentFields = []string{"content", "message", "text", "prompt", "query", "input"}
	}
	if s.TLS.MinVersion == "" {
		s.TLS.MinVersion = "1.3"
	}
	if s.TLS.ReloadInterval == 0 {
		s.TLS.ReloadInterval = time.Minute
	}
}

func applyReceiptsDefaults(r *ReceiptsConfig) {
	if r.Backend == "" {
		r.Backend = "none"
	}
	if r.SQLite.Path == "" {
		r.SQLite.Path = "data/receipts.db"
	}
	if r.SQLite.Driver == "" {
		r.SQLite.Driver = "sqlite"
	}
	if r.SQLite.WALMode == nil {
		on := true
		r.SQLite.WALMode = &on
	}
	if r.AsyncBuffer == 0 {
		r.AsyncBuffer = 1000
	}
	if r.Retention.Days == 0 {
		r.Retention.Days = 90
	}
	if r.Retention.PruneSchedule == "" {
		r.Retention.PruneSchedule = "0 3 * * *"
	}
	if r.Retention.ArchivePath == "" {
		r.Retention.ArchivePath = "data/archives/"
	}
}
