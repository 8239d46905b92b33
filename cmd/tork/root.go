package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tork-hq/governance/pkg/cli"
	"tork-hq/governance/pkg/config"
	"tork-hq/governance/pkg/telemetry/logging"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tork",
		Short: "Tork - on-device PII governance",
		Long: `Tork detects personally identifiable information in text, redacts or
blocks it according to a policy, and issues a receipt for every decision.

Patterns are organised in packs: a core pack that is always active, region
packs (ae, sa, in, ...) and industry packs (healthcare, finance, legal)
selected per call.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (built-in defaults when empty)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newGovernCmd(opts),
		newDetectCmd(opts),
		newHashCmd(),
		newPatternsCmd(opts),
		newServeCmd(opts),
		newReceiptsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

// loadConfig reads the configuration file (or defaults) with TORK_*
// environment overrides and applies the logging flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(o.configPath)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	switch {
	case o.logLevel != "":
		cfg.Logging.Level = o.logLevel
	case o.verbose:
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the configured logger writing to w.
func (o *rootOptions) newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	lc := logging.FromConfig(cfg.Logging)
	lc.Writer = w
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("logging", err.Error())
	}
	return logger, nil
}
