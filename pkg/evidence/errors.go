package evidence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Storage.Get for an unknown receipt ID.
	ErrNotFound = errors.New("receipt not found")

	// ErrDuplicateReceipt is returned by Storage.Store when the receipt ID
	// is already stored. Receipts are write-once.
	ErrDuplicateReceipt = errors.New("receipt already stored")
)

// StorageError is a failed storage operation on one backend.
type StorageError struct {
	Backend   string // "sqlite" or "memory"
	Operation string // "open", "store", "query", "delete", ...
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s storage: %s: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// NewStorageError wraps cause for backend and operation.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// QueryError is a query rejected by validation.
type QueryError struct {
	Query *Query
	Cause error
}

func (e *QueryError) Error() string { return "invalid receipt query: " + e.Cause.Error() }

func (e *QueryError) Unwrap() error { return e.Cause }

// NewQueryError wraps cause for q.
func NewQueryError(q *Query, cause error) *QueryError {
	return &QueryError{Query: q, Cause: cause}
}

// RecorderError is a receipt the recorder could not hand to its sink.
type RecorderError struct {
	ReceiptID string
	Cause     error
}

func (e *RecorderError) Error() string {
	if e.ReceiptID == "" {
		return "receipt dropped: " + e.Cause.Error()
	}
	return fmt.Sprintf("receipt %s dropped: %v", e.ReceiptID, e.Cause)
}

func (e *RecorderError) Unwrap() error { return e.Cause }

// NewRecorderError wraps cause for the receipt with receiptID.
func NewRecorderError(receiptID string, cause error) *RecorderError {
	return &RecorderError{ReceiptID: receiptID, Cause: cause}
}

// RetentionError is a failed pruning run.
type RetentionError struct {
	RetentionDays int
	Cause         error
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("pruning receipts older than %d days: %v", e.RetentionDays, e.Cause)
}

func (e *RetentionError) Unwrap() error { return e.Cause }

// NewRetentionError wraps cause for a run with retentionDays.
func NewRetentionError(retentionDays int, cause error) *RetentionError {
	return &RetentionError{RetentionDays: retentionDays, Cause: cause}
}

// ExportError is a failed export. ReceiptCount is how many receipts had
// been written, or the batch size for non-streaming exports.
type ExportError struct {
	Format       string
	ReceiptCount int
	Cause        error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export after %d receipts: %v", e.Format, e.ReceiptCount, e.Cause)
}

func (e *ExportError) Unwrap() error { return e.Cause }

// NewExportError wraps cause for format.
func NewExportError(format string, receiptCount int, cause error) *ExportError {
	return &ExportError{Format: format, ReceiptCount: receiptCount, Cause: cause}
}
