package main

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"tork-hq/governance/pkg/cli"
	"tork-hq/governance/pkg/pii/patterns"
)

// patternRow is one line of the patterns listing.
type patternRow struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Pack     string `json:"pack"`
	Kind     string `json:"kind"`
	Priority int    `json:"priority"`
}

type patternTable []patternRow

func (patternTable) Header() []string {
	return []string{"ID", "TYPE", "PACK", "KIND", "PRIORITY"}
}

func (t patternTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, p := range t {
		rows[i] = []string{p.ID, p.Type, p.Pack, p.Kind, strconv.Itoa(p.Priority)}
	}
	return rows
}

// newPatternTable lists active patterns from highest to lowest priority.
// Patterns of equal priority keep registry order.
func newPatternTable(active []*patterns.Pattern) patternTable {
	sorted := make([]*patterns.Pattern, len(active))
	copy(sorted, active)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})

	table := make(patternTable, len(sorted))
	for i, p := range sorted {
		table[i] = patternRow{
			ID:       p.ID,
			Type:     p.Type.String(),
			Pack:     p.Tag,
			Kind:     string(p.Kind),
			Priority: p.Priority(),
		}
	}
	return table
}

func newPatternsCmd(root *rootOptions) *cobra.Command {
	var (
		flags  governFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the active patterns in priority order",
		Long: `List the patterns that govern would run for the selected packs, highest
priority first. Industry patterns outrank region patterns, which outrank
core patterns.

Examples:
  tork patterns
  tork patterns --region ae,sa --industry healthcare --output csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
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

			opts := flags.options(t.DefaultOptions(), cmd.Flags().Changed("region"), cmd.Flags().Changed("industry"))
			table := newPatternTable(t.Registry().Active(opts))
			return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
		},
	}

	addPackFlags(cmd, &flags)
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json, csv")
	return cmd
}
