package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tork-hq/governance/pkg/cli"
	"tork-hq/governance/pkg/evidence"
	"tork-hq/governance/pkg/evidence/export"
	"tork-hq/governance/pkg/evidence/retention"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
)

// receiptFlags select the sink and filter the receipts a subcommand sees.
type receiptFlags struct {
	db            string
	since         time.Duration
	action        string
	piiType       string
	policyVersion string
}

// query builds a receipt query from the filter flags.
func (f *receiptFlags) query(now time.Time) (*evidence.Query, error) {
	q := &evidence.Query{PolicyVersion: f.policyVersion}
	if f.since > 0 {
		start := now.Add(-f.since)
		q.StartTime = &start
	}
	if f.action != "" {
		action, err := engine.ParseAction(f.action)
		if err != nil {
			return nil, err
		}
		q.Action = action
	}
	if f.piiType != "" {
		t, err := pii.ParseType(f.piiType)
		if err != nil {
			return nil, err
		}
		q.PIIType = t
	}
	return q, nil
}

// openReceipts opens the receipt sink. --db selects a SQLite file and
// overrides the configured backend.
func (f *receiptFlags) openReceipts(root *rootOptions) (evidence.Storage, error) {
	cfg, err := root.loadConfig()
	if err != nil {
		return nil, err
	}
	rc := cfg.Receipts
	if f.db != "" {
		rc.Backend = "sqlite"
		rc.SQLite.Path = f.db
	}
	if rc.Backend != "sqlite" {
		return nil, cli.NewConfigError("receipts.backend",
			fmt.Sprintf("receipts commands need the sqlite sink (configured: %q); set receipts.backend or pass --db", rc.Backend))
	}
	return openStorage(rc)
}

func addReceiptFilterFlags(cmd *cobra.Command, f *receiptFlags) {
	cmd.Flags().DurationVar(&f.since, "since", 0, "only receipts newer than this (e.g. 24h)")
	cmd.Flags().StringVar(&f.action, "action", "", "filter by action: allow, redact, deny")
	cmd.Flags().StringVar(&f.piiType, "type", "", "filter by detected PII type (e.g. email)")
	cmd.Flags().StringVar(&f.policyVersion, "policy-version", "", "filter by policy version")
}

func newReceiptsCmd(root *rootOptions) *cobra.Command {
	f := &receiptFlags{}
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Inspect, export and prune stored receipts",
		Long: `Work with receipts persisted by "tork serve" or "tork govern --store".

Subcommands:
  list    - List receipts, newest first
  export  - Stream receipts to JSON or CSV
  prune   - Delete receipts by age or count`,
	}
	cmd.PersistentFlags().StringVar(&f.db, "db", "", "SQLite receipt database (overrides receipts.sqlite.path)")

	cmd.AddCommand(
		newReceiptsListCmd(root, f),
		newReceiptsExportCmd(root, f),
		newReceiptsPruneCmd(root, f),
	)
	return cmd
}

// receiptTable renders receipts as rows.
type receiptTable []*evidence.Receipt

func (receiptTable) Header() []string {
	return []string{"RECEIPT", "TIMESTAMP", "ACTION", "TYPES", "POLICY", "DURATION"}
}

func (t receiptTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, r := range t {
		types := make([]string, len(r.DetectedTypes))
		for j, typ := range r.DetectedTypes {
			types[j] = typ.String()
		}
		rows[i] = []string{
			r.ReceiptID,
			r.Timestamp.Format(time.RFC3339),
			r.Action.String(),
			strings.Join(types, ","),
			r.PolicyVersion,
			time.Duration(r.ProcessingTimeNs).String(),
		}
	}
	return rows
}

func newReceiptsListCmd(root *rootOptions, f *receiptFlags) *cobra.Command {
	var (
		limit  int
		offset int
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored receipts, newest first",
		Long: `List stored receipts, newest first.

Examples:
  tork receipts list --db data/receipts.db --limit 20
  tork receipts list --action deny --since 24h --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			q, err := f.query(time.Now())
			if err != nil {
				return err
			}
			q.Limit, q.Offset = limit, offset
			q.SortBy, q.SortOrder = "timestamp", "desc"

			store, err := f.openReceipts(root)
			if err != nil {
				return err
			}
			defer store.Close()

			receipts, err := store.Query(cmd.Context(), q)
			if err != nil {
				return cli.NewCommandError("receipts list", err)
			}
			if format == cli.FormatJSON {
				return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), receipts)
			}
			return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), receiptTable(receipts))
		},
	}
	addReceiptFilterFlags(cmd, f)
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum receipts to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many receipts")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json, csv")
	return cmd
}

func newReceiptsExportCmd(root *rootOptions, f *receiptFlags) *cobra.Command {
	var (
		format   string
		outPath  string
		pretty   bool
		progress bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export receipts as JSON or CSV",
		Long: `Stream receipts, oldest first, to a file or stdout. JSON output is always
an array; CSV output carries a header row.

Examples:
  tork receipts export --format csv --output receipts.csv
  tork receipts export --since 168h --pretty > week.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := export.ForFormat(format, pretty)
			if err != nil {
				return err
			}
			q, err := f.query(time.Now())
			if err != nil {
				return err
			}
			q.SortBy, q.SortOrder = "timestamp", "asc"

			store, err := f.openReceipts(root)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			if outPath != "" {
				file, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer file.Close()
				w = file
			}

			var reporter cli.ProgressReporter
			if progress {
				reporter = cli.NewProgressReporterWithUnit(cmd.ErrOrStderr(), "receipts")
			}
			n, err := exportReceipts(cmd.Context(), store, q, exporter, w, reporter)
			if err != nil {
				return cli.NewCommandError("receipts export", err)
			}
			if outPath != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d receipts to %s\n", n, outPath)
			}
			return nil
		},
	}
	addReceiptFilterFlags(cmd, f)
	cmd.Flags().StringVar(&format, "format", "json", "export format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	cmd.Flags().BoolVar(&progress, "progress", false, "show a progress bar on stderr")
	return cmd
}

// exportReceipts streams the receipts matching q through exporter and
// returns how many were written. reporter may be nil.
func exportReceipts(ctx context.Context, store evidence.Storage, q *evidence.Query, exporter export.StreamExporter, w io.Writer, reporter cli.ProgressReporter) (n int64, err error) {
	if reporter != nil {
		total, cerr := store.Count(ctx, q)
		if cerr != nil {
			return 0, cerr
		}
		reporter.Start(total)
		defer func() {
			if err != nil {
				reporter.Error(err)
				return
			}
			reporter.Finish()
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	receipts, errCh, err := store.QueryStream(ctx, q)
	if err != nil {
		return 0, err
	}

	counted := make(chan *evidence.Receipt)
	go func() {
		defer close(counted)
		for r := range receipts {
			select {
			case counted <- r:
			case <-ctx.Done():
				return
			}
			n++
			if reporter != nil {
				reporter.Update(n)
			}
		}
	}()

	exportErr := exporter.ExportStream(ctx, counted, w)
	cancel()
	// Wait for the forwarder so n is final.
	for range counted {
	}
	if exportErr != nil {
		return n, exportErr
	}
	if err := <-errCh; err != nil {
		return n, err
	}
	return n, nil
}

func newReceiptsPruneCmd(root *rootOptions, f *receiptFlags) *cobra.Command {
	var (
		days        int
		maxReceipts int64
		archive     string
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete receipts by age or count",
		Long: `Delete receipts older than --days and the oldest receipts beyond --max.
Without flags the configured retention section applies.

Examples:
  tork receipts prune --days 30
  tork receipts prune --max 100000 --archive data/archives/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			rc := retentionConfig(cfg.Receipts.Retention, nil)
			if cmd.Flags().Changed("days") {
				rc.RetentionDays = days
			}
			if cmd.Flags().Changed("max") {
				rc.MaxReceipts = maxReceipts
			}
			if archive != "" {
				rc.ArchiveBeforeDelete = true
				rc.ArchivePath = archive
			}
			if rc.RetentionDays < 0 || rc.MaxReceipts < 0 {
				return cli.NewConfigError("retention", "--days and --max must not be negative")
			}

			store, err := f.openReceipts(root)
			if err != nil {
				return err
			}
			defer store.Close()

			deleted, err := pruneReceipts(cmd.Context(), store, rc)
			if err != nil {
				return cli.NewCommandError("receipts prune", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %s receipts\n", strconv.FormatInt(deleted, 10))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "delete receipts older than this many days (0 keeps all)")
	cmd.Flags().Int64Var(&maxReceipts, "max", 0, "keep at most this many receipts (0 is unlimited)")
	cmd.Flags().StringVar(&archive, "archive", "", "archive pruned receipts to this directory first")
	return cmd
}

func pruneReceipts(ctx context.Context, store evidence.Storage, rc *retention.Config) (int64, error) {
	return retention.NewPruner(store, rc).Prune(ctx)
}
