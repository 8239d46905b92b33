package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tork-hq/governance/pkg/cli"
	"tork-hq/governance/pkg/config"
	"tork-hq/governance/pkg/evidence"
	"tork-hq/governance/pkg/evidence/storage"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
	"tork-hq/governance/pkg/tork"
)

// newTork builds an instance from the governance section. Extra pack files
// and the configured regions and industry are applied before extra.
func newTork(gc config.GovernanceConfig, ec engine.Config, logger *slog.Logger, extra ...tork.Option) (*tork.Tork, error) {
	opts := []tork.Option{
		tork.WithLogger(logger),
		tork.WithDefaultOptions(gc.GovernOptions()),
	}
	for _, path := range gc.ExtraPackFiles {
		opts = append(opts, tork.WithPackFile(path))
	}
	return tork.NewWithConfig(ec, append(opts, extra...)...)
}

// openStorage opens the configured receipt sink. It returns nil for the
// "none" backend.
func openStorage(rc config.ReceiptsConfig) (evidence.Storage, error) {
	switch rc.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		sc := storage.DefaultSQLiteConfig()
		sc.Path = rc.SQLite.Path
		sc.Driver = rc.SQLite.Driver
		if rc.SQLite.WALMode != nil {
			sc.WALMode = *rc.SQLite.WALMode
		}
		if sc.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(sc.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create receipt directory: %w", err)
			}
		}
		return storage.NewSQLiteStorage(sc)
	default:
		return nil, cli.NewConfigError("receipts.backend", fmt.Sprintf("unsupported backend %q", rc.Backend))
	}
}

// governFlags are the pack selection flags shared by govern, detect and
// patterns.
type governFlags struct {
	regions  []string
	industry string
	file     string
}

// options returns defaults with any pack flags applied. Flags replace the
// configured selection rather than adding to it.
func (f *governFlags) options(defaults pii.GovernOptions, regionsSet, industrySet bool) pii.GovernOptions {
	opts := defaults
	if regionsSet {
		opts.Regions = make([]string, 0, len(f.regions))
		for _, r := range f.regions {
			opts.Regions = append(opts.Regions, strings.ToLower(strings.TrimSpace(r)))
		}
	}
	if industrySet {
		opts.Industry = strings.ToLower(strings.TrimSpace(f.industry))
	}
	return opts
}

// readInput returns the text to govern: the positional argument, the
// --file contents verbatim, or stdin with one trailing newline removed.
func readInput(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(text, "\r"), nil
}
