package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"tork-hq/governance/pkg/evidence"
)

// StreamExporter is an Exporter that can also consume a receipt stream.
type StreamExporter interface {
	evidence.Exporter
	ExportStream(ctx context.Context, receiptsCh <-chan *evidence.Receipt, w io.Writer) error
}

// Formats lists the supported export format names.
var Formats = []string{"json", "csv"}

// ForFormat returns the exporter for a format name. JSON output is
// indented when pretty is set; CSV output always carries a header.
func ForFormat(format string, pretty bool) (StreamExporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONExporter(pretty), nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, evidence.NewExportError(format, 0,
			fmt.Errorf("unsupported format %q (must be one of %s)", format, strings.Join(Formats, ", ")))
	}
}
