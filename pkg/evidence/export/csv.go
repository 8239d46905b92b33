package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"tork-hq/governance/pkg/evidence"
)

// CSVExporter exports receipts to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Header lists the CSV columns in order.
var Header = []string{
	"receipt_id", "timestamp",
	"input_hash", "output_hash",
	"policy_version", "detected_types", "action", "processing_time_ns",
}

// Export writes receipts to w in CSV format. Detected types are joined
// with semicolons.
func (e *CSVExporter) Export(ctx context.Context, receipts []*evidence.Receipt, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return evidence.NewExportError("csv", len(receipts), err)
		}
	}

	for _, receipt := range receipts {
		if err := writer.Write(receiptToRow(receipt)); err != nil {
			return evidence.NewExportError("csv", len(receipts), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(receipts), err)
	}
	return nil
}

// ExportStream exports receipts from a channel to CSV format, flushing
// every 100 rows.
func (e *CSVExporter) ExportStream(ctx context.Context, receiptsCh <-chan *evidence.Receipt, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return evidence.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case receipt, ok := <-receiptsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", count, err)
				}
				return nil
			}

			if err := writer.Write(receiptToRow(receipt)); err != nil {
				return evidence.NewExportError("csv", count, err)
			}
			count++

			if count%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", count, err)
				}
			}
		}
	}
}

func receiptToRow(r *evidence.Receipt) []string {
	types := make([]string, len(r.DetectedTypes))
	for i, t := range r.DetectedTypes {
		types[i] = string(t)
	}

	return []string{
		r.ReceiptID,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.InputHash,
		r.OutputHash,
		r.PolicyVersion,
		strings.Join(types, ";"),
		string(r.Action),
		strconv.FormatInt(r.ProcessingTimeNs, 10),
	}
}
