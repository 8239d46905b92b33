package evidence

import (
	"context"
	"io"
	"time"

	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
)

// Receipt is the immutable, self-contained record of a single governance
// decision. The library never persists, indexes or chains receipts; storage
// backends in this package are optional sinks wired by the caller.
type Receipt struct {
	// Identity
	ReceiptID string    `json:"receipt_id"` // rcpt_ + 32 hex chars
	Timestamp time.Time `json:"timestamp"`  // When the decision was made (UTC)

	// Content hashes over the exact bytes, formatted sha256:<hex>
	InputHash  string `json:"input_hash"`  // Original input
	OutputHash string `json:"output_hash"` // Output actually returned (empty for deny)

	// Decision
	PolicyVersion    string        `json:"policy_version"`     // From the active configuration
	DetectedTypes    []pii.PIIType `json:"detected_types"`     // Enum order, empty for allow
	Action           engine.Action `json:"action"`             // allow, redact, deny
	ProcessingTimeNs int64         `json:"processing_time_ns"` // Pipeline wall time
}

// HasType reports whether t was detected.
func (r Receipt) HasType(t pii.PIIType) bool {
	for _, d := range r.DetectedTypes {
		if d == t {
			return true
		}
	}
	return false
}

// Query defines filter parameters for querying stored receipts.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	Action        engine.Action `json:"action,omitempty"`         // "allow", "redact", "deny"
	PolicyVersion string        `json:"policy_version,omitempty"` // Exact policy version
	PIIType       pii.PIIType   `json:"pii_type,omitempty"`       // Receipts that detected this type

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max receipts to return
	Offset int `json:"offset,omitempty"` // Skip N receipts

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "timestamp", "processing_time"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for receipt storage backends.
// Implementations must be thread-safe and support concurrent access.
type Storage interface {
	// Store persists a receipt. Storing an ID twice fails with
	// ErrDuplicateReceipt.
	Store(ctx context.Context, receipt *Receipt) error

	// Get retrieves a receipt by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, receiptID string) (*Receipt, error)

	// Query retrieves receipts matching the query filters.
	// Returns an empty slice if no receipts match.
	Query(ctx context.Context, query *Query) ([]*Receipt, error)

	// QueryStream returns a channel of receipts for memory-efficient streaming.
	//
	// Returns:
	//   - receiptsCh: Channel of receipts (buffered)
	//   - errCh: Channel for errors (buffered, max 1 error)
	//   - error: Immediate error (e.g., invalid query)
	//
	// Both channels are closed when the query completes or errors.
	QueryStream(ctx context.Context, query *Query) (<-chan *Receipt, <-chan error, error)

	// Count returns the number of receipts matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes receipts matching the query filters and returns the
	// number deleted. Used for retention policy enforcement.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter defines the interface for exporting receipts to various formats.
type Exporter interface {
	// Export writes receipts to w in the exporter's format.
	Export(ctx context.Context, receipts []*Receipt, w io.Writer) error
}
