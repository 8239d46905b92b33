// Package export provides receipt exporters for JSON and CSV.
//
// # JSON Export
//
// The JSON exporter always writes an array, "[]" when there are no receipts:
//
//	exporter := export.NewJSONExporter(true)
//	if err := exporter.Export(ctx, receipts, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
//
// # CSV Export
//
// The CSV exporter writes one row per receipt with the columns in Header.
// Detected types are joined with semicolons.
//
// # Streaming
//
// Both exporters implement ExportStream, which consumes the channel returned
// by Storage.QueryStream so large result sets never sit in memory.
//
// # Error Handling
//
// Exporters return *evidence.ExportError for encoding and writer failures.
package export
