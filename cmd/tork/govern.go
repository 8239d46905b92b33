package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tork-hq/governance/pkg/cli"
	"tork-hq/governance/pkg/config"
	"tork-hq/governance/pkg/policy/engine"
	"tork-hq/governance/pkg/tork"
)

func newGovernCmd(root *rootOptions) *cobra.Command {
	var (
		flags         governFlags
		deny          bool
		policyVersion string
		store         bool
	)

	cmd := &cobra.Command{
		Use:   "govern [text]",
		Short: "Govern text and print the result with its receipt",
		Long: `Detect PII in text, apply the policy and print the GovernanceResult as JSON.

Text is taken from the argument, from --file, or from stdin.

Examples:
  # Redact with the core pack
  echo "SSN 123-45-6789" | tork govern

  # Block instead of redacting, with UAE and finance packs active
  tork govern --deny --region ae --industry finance --file prompt.txt

  # Persist the receipt in the configured sink
  tork govern --store --config tork.yaml "call +971 50 123 4567"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			logger, err := root.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ec := cfg.Governance.EngineConfig()
			if deny {
				ec = ec.WithDefaultAction(engine.ActionDeny)
			}
			if policyVersion != "" {
				ec = ec.WithPolicyVersion(policyVersion)
			}

			t, err := newTork(cfg.Governance, ec, logger)
			if err != nil {
				return err
			}

			text, err := readInput(args, flags.file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			opts := flags.options(t.DefaultOptions(), cmd.Flags().Changed("region"), cmd.Flags().Changed("industry"))
			result, err := t.GovernContext(cmd.Context(), text, opts)
			if err != nil {
				return err
			}

			if store {
				if err := storeReceipt(cmd, cfg.Receipts, result); err != nil {
					return err
				}
			}

			formatter := &cli.JSONFormatter{Indent: true}
			return formatter.FormatTo(cmd.OutOrStdout(), result)
		},
	}

	addPackFlags(cmd, &flags)
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "read text from file")
	cmd.Flags().BoolVar(&deny, "deny", false, "block text containing PII instead of redacting it")
	cmd.Flags().StringVar(&policyVersion, "policy-version", "", "policy version stamped into the receipt")
	cmd.Flags().BoolVar(&store, "store", false, "persist the receipt in the configured receipt sink")
	return cmd
}

func storeReceipt(cmd *cobra.Command, rc config.ReceiptsConfig, result *tork.GovernanceResult) error {
	store, err := openStorage(rc)
	if err != nil {
		return err
	}
	if store == nil {
		return cli.NewConfigError("receipts.backend", "--store requires a receipt sink (memory or sqlite)")
	}
	defer store.Close()

	if err := store.Store(cmd.Context(), &result.Receipt); err != nil {
		return cli.NewCommandError("govern", fmt.Errorf("failed to store receipt: %w", err))
	}
	return nil
}

func newDetectCmd(root *rootOptions) *cobra.Command {
	var flags governFlags

	cmd := &cobra.Command{
		Use:   "detect [text]",
		Short: "Detect PII without a policy decision",
		Long: `Print the DetectionResult for text: detected types, matches with byte
offsets, and the redacted text. No receipt is issued and stats are not
updated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			logger, err := root.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			t, err := newTork(cfg.Governance, cfg.Governance.EngineConfig(), logger)
			if err != nil {
				return err
			}

			text, err := readInput(args, flags.file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			opts := flags.options(t.DefaultOptions(), cmd.Flags().Changed("region"), cmd.Flags().Changed("industry"))
			result, err := t.DetectPII(text, opts)
			if err != nil {
				return err
			}

			formatter := &cli.JSONFormatter{Indent: true}
			return formatter.FormatTo(cmd.OutOrStdout(), result)
		},
	}

	addPackFlags(cmd, &flags)
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "read text from file")
	return cmd
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <text>",
		Short: "Print the sha256 content hash of text",
		Long: `Print the hash a receipt would carry for text, formatted sha256:<hex>.

Use it to check a stored receipt against the original content.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), tork.HashText(args[0]))
		},
	}
}

func addPackFlags(cmd *cobra.Command, flags *governFlags) {
	cmd.Flags().StringSliceVarP(&flags.regions, "region", "r", nil, "region packs to activate (e.g. ae,in)")
	cmd.Flags().StringVarP(&flags.industry, "industry", "i", "", "industry pack to activate (healthcare, finance, legal)")
}
