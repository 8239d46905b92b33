// Tork is the command-line front end of the governance library.
//
// It governs text from files or stdin, inspects the active pattern packs,
// serves the governance API over HTTP and manages stored receipts.
//
// Usage:
//
//	# Govern text from stdin
//	echo "email me at john@example.com" | tork govern
//
//	# Activate UAE and India packs plus the finance pack
//	tork govern --region ae,in --industry finance --file prompt.txt
//
//	# Start the HTTP server
//	tork serve --config tork.yaml
//
//	# Export stored receipts
//	tork receipts export --format csv --output receipts.csv
package main

import "os"

func main() {
	os.Exit(Execute())
}
