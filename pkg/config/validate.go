package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/robfig/cron/v3"

	"tork-hq/governance/pkg/evidence/storage"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// carrying every problem found, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateGovernance(&cfg.Governance)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validateTracing(&cfg.Tracing)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateReceipts(&cfg.Receipts)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// Warnings reports settings that are accepted but have no effect, such as
// unrecognized region codes.
func Warnings(cfg *Config) []string {
	var warnings []string
	for _, code := range cfg.Governance.Regions {
		if !pii.IsRegion(strings.ToLower(code)) {
			warnings = append(warnings, fmt.Sprintf("governance.regions: unknown region %q is ignored", code))
		}
	}
	if ind := cfg.Governance.Industry; ind != "" && !pii.IsIndustry(strings.ToLower(ind)) {
		warnings = append(warnings, fmt.Sprintf("governance.industry: unknown industry %q is ignored", ind))
	}
	return warnings
}

func validateGovernance(g *GovernanceConfig) []FieldError {
	var errs []FieldError

	if g.PolicyVersion == "" {
		errs = append(errs, FieldError{"governance.policy_version", "must not be empty"})
	}

	action, err := engine.ParseAction(g.DefaultAction)
	if err != nil {
		errs = append(errs, FieldError{"governance.default_action", fmt.Sprintf("invalid action %q (must be redact or deny)", g.DefaultAction)})
	} else if err := g.EngineConfig().WithDefaultAction(action).Validate(); err != nil {
		errs = append(errs, FieldError{"governance.default_action", err.Error()})
	}

	for i, path := range g.ExtraPackFiles {
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, FieldError{fmt.Sprintf("governance.extra_pack_files[%d]", i), fmt.Sprintf("cannot read pack file: %v", err)})
		}
	}
	return errs
}

func validateLogging(l *LoggingConfig) []FieldError {
	var errs []FieldError

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"logging.level", fmt.Sprintf("invalid level %q (must be debug, info, warn, or error)", l.Level)})
	}

	switch l.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{"logging.format", fmt.Sprintf("invalid format %q (must be json, text, or console)", l.Format)})
	}
	return errs
}

func validateMetrics(m *MetricsConfig) []FieldError {
	var errs []FieldError

	if m.Enabled && !strings.HasPrefix(m.Path, "/") {
		errs = append(errs, FieldError{"metrics.path", fmt.Sprintf("path %q must start with /", m.Path)})
	}
	for i := 1; i < len(m.DurationBuckets); i++ {
		if m.DurationBuckets[i] <= m.DurationBuckets[i-1] {
			errs = append(errs, FieldError{"metrics.duration_buckets", "buckets must be strictly increasing"})
			break
		}
	}
	return errs
}

func validateTracing(t *TracingConfig) []FieldError {
	var errs []FieldError

	switch t.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{"tracing.sampler", fmt.Sprintf("invalid sampler %q (must be always, never, or ratio)", t.Sampler)})
	}
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		errs = append(errs, FieldError{"tracing.sample_ratio", fmt.Sprintf("ratio %v must be between 0.0 and 1.0", t.SampleRatio)})
	}
	return errs
}

func validateServer(s *ServerConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(s.ListenAddress); err != nil {
		errs = append(errs, FieldError{"server.listen_address", fmt.Sprintf("invalid address %q: %v", s.ListenAddress, err)})
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 || s.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{"server", "timeouts must not be negative"})
	}
	if s.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{"server.max_body_bytes", "must not be negative"})
	}

	seen := make(map[string]bool, len(s.APIKeys))
	for i, k := range s.APIKeys {
		field := fmt.Sprintf("server.api_keys[%d]", i)
		switch {
		case k.Name == "":
			errs = append(errs, FieldError{field + ".name", "must not be empty"})
		case k.Key == "":
			errs = append(errs, FieldError{field + ".key", "must not be empty"})
		case seen[k.Key]:
			errs = append(errs, FieldError{field + ".key", "duplicate key"})
		}
		seen[k.Key] = true
	}

	if s.TLS.Enabled {
		if s.TLS.CertFile == "" {
			errs = append(errs, FieldError{"server.tls.cert_file", "required when tls is enabled"})
		}
		if s.TLS.KeyFile == "" {
			errs = append(errs, FieldError{"server.tls.key_file", "required when tls is enabled"})
		}
	}
	switch s.TLS.MinVersion {
	case "", "1.2", "1.3":
	default:
		errs = append(errs, FieldError{"server.tls.min_version", fmt.Sprintf("invalid version %q (must be 1.2 or 1.3)", s.TLS.MinVersion)})
	}
	if s.TLS.ReloadInterval < 0 {
		errs = append(errs, FieldError{"server.tls.reload_interval", "must not be negative"})
	}
	return errs
}

func validateReceipts(r *ReceiptsConfig) []FieldError {
	var errs []FieldError

	switch r.Backend {
	case "none", "memory":
	case "sqlite":
		switch r.SQLite.Driver {
		case storage.DriverPure, storage.DriverCGO:
		default:
			errs = append(errs, FieldError{"receipts.sqlite.driver", fmt.Sprintf("invalid driver %q (must be %s or %s)", r.SQLite.Driver, storage.DriverPure, storage.DriverCGO)})
		}
		if r.SQLite.Path == "" {
			errs = append(errs, FieldError{"receipts.sqlite.path", "must not be empty"})
		}
	default:
		errs = append(errs, FieldError{"receipts.backend", fmt.Sprintf("invalid backend %q (must be none, memory, or sqlite)", r.Backend)})
	}

	if r.AsyncBuffer < 0 {
		errs = append(errs, FieldError{"receipts.async_buffer", "must not be negative"})
	}
	if r.Retention.MaxReceipts < 0 {
		errs = append(errs, FieldError{"receipts.retention.max_receipts", "must not be negative"})
	}
	if r.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(r.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{"receipts.retention.prune_schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}
	if r.Retention.ArchiveBeforeDelete && r.Retention.ArchivePath == "" {
		errs = append(errs, FieldError{"receipts.retention.archive_path", "required when archive_before_delete is set"})
	}
	return errs
}
