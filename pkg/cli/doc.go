// Package cli provides helpers shared by the tork command.
//
// Output formatting supports text, JSON and CSV. Results that render as
// rows implement Table:
//
//	formatter := cli.NewFormatter(cli.FormatCSV)
//	if err := formatter.FormatTo(os.Stdout, patternList); err != nil {
//		return err
//	}
//
// ExitCode maps command errors to process exit codes, so scripts can tell
// a bad configuration from rejected input.
//
// For long exports, SimpleProgress renders a progress bar on stderr.
// SetupSignalHandler and ReloadSignals cover graceful shutdown and
// SIGHUP-triggered configuration reload.
package cli
