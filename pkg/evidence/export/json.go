package export

import (
	"context"
	"encoding/json"
	"io"

	"tork-hq/governance/pkg/evidence"
)

// JSONExporter exports receipts to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes receipts to w as a JSON array. An empty slice is written
// as "[]".
func (e *JSONExporter) Export(ctx context.Context, receipts []*evidence.Receipt, w io.Writer) error {
	if receipts == nil {
		receipts = []*evidence.Receipt{}
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(receipts, "", "  ")
	} else {
		data, err = json.Marshal(receipts)
	}
	if err != nil {
		return evidence.NewExportError("json", len(receipts), err)
	}

	if _, err := w.Write(data); err != nil {
		return evidence.NewExportError("json", len(receipts), err)
	}
	return nil
}

// ExportStream exports receipts from a channel as a JSON array without
// holding the whole result set in memory.
func (e *JSONExporter) ExportStream(ctx context.Context, receiptsCh <-chan *evidence.Receipt, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return evidence.NewExportError("json", 0, err)
	}

	first := true
	count := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case receipt, ok := <-receiptsCh:
			if !ok {
				if _, err := w.Write([]byte("]")); err != nil {
					return evidence.NewExportError("json", count, err)
				}
				return nil
			}

			if !first {
				sep := ","
				if e.Pretty {
					sep = ",\n"
				}
				if _, err := w.Write([]byte(sep)); err != nil {
					return evidence.NewExportError("json", count, err)
				}
			}
			first = false

			data, err := e.serialize(receipt)
			if err != nil {
				return evidence.NewExportError("json", count, err)
			}
			if _, err := w.Write(data); err != nil {
				return evidence.NewExportError("json", count, err)
			}
			count++
		}
	}
}

func (e *JSONExporter) serialize(receipt *evidence.Receipt) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(receipt, "  ", "  ")
	}
	return json.Marshal(receipt)
}
