package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tork-hq/governance/pkg/evidence"
	"tork-hq/governance/pkg/evidence/query"
)

// MemoryStorage implements the Storage interface using an in-memory map.
// Receipts are lost when the process exits.
type MemoryStorage struct {
	receipts map[string]*evidence.Receipt
	mu       sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		receipts: make(map[string]*evidence.Receipt),
	}
}

// copyReceipt returns a deep copy so stored receipts can never be mutated
// through a caller's pointer.
func copyReceipt(r *evidence.Receipt) *evidence.Receipt {
	cp := *r
	cp.DetectedTypes = append(cp.DetectedTypes[:0:0], r.DetectedTypes...)
	return &cp
}

// Store persists a receipt to memory. Receipts are immutable, so storing an
// existing ID is an error.
func (s *MemoryStorage) Store(ctx context.Context, receipt *evidence.Receipt) error {
	if receipt == nil || receipt.ReceiptID == "" {
		return evidence.NewStorageError("memory", "store", fmt.Errorf("receipt id is required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.receipts[receipt.ReceiptID]; exists {
		return evidence.NewStorageError("memory", "store", fmt.Errorf("receipt %s: %w", receipt.ReceiptID, evidence.ErrDuplicateReceipt))
	}
	s.receipts[receipt.ReceiptID] = copyReceipt(receipt)
	return nil
}

// Get retrieves a single receipt by ID.
func (s *MemoryStorage) Get(ctx context.Context, receiptID string) (*evidence.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.receipts[receiptID]
	if !ok {
		return nil, evidence.ErrNotFound
	}
	return copyReceipt(r), nil
}

// Query retrieves receipts matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, q *evidence.Query) ([]*evidence.Receipt, error) {
	if err := query.Validate(q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	results := s.collect(q)
	s.mu.RUnlock()

	return paginate(results, q), nil
}

// QueryStream returns a channel of receipts for memory-efficient streaming.
// The channels are closed when the query completes or errors.
func (s *MemoryStorage) QueryStream(ctx context.Context, q *evidence.Query) (<-chan *evidence.Receipt, <-chan error, error) {
	if err := query.Validate(q); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	results := paginate(s.collect(q), q)
	s.mu.RUnlock()

	receiptsCh := make(chan *evidence.Receipt, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(receiptsCh)
		defer close(errCh)

		for _, r := range results {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case receiptsCh <- r:
			}
		}
	}()

	return receiptsCh, errCh, nil
}

// Count returns the number of receipts matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, q *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, r := range s.receipts {
		if matchesQuery(r, q) {
			count++
		}
	}
	return count, nil
}

// Delete removes receipts matching the query filters. Limit and offset
// apply to the sorted match set, which lets retention keep the newest N.
func (s *MemoryStorage) Delete(ctx context.Context, q *evidence.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	victims := s.collect(q)
	if q.Limit > 0 || q.Offset > 0 {
		victims = paginate(victims, q)
	}

	for _, r := range victims {
		delete(s.receipts, r.ReceiptID)
	}
	return int64(len(victims)), nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.receipts = make(map[string]*evidence.Receipt)
	return nil
}

// Size returns the number of receipts in storage.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.receipts)
}

// collect returns sorted copies of every matching receipt. Callers must hold mu.
func (s *MemoryStorage) collect(q *evidence.Query) []*evidence.Receipt {
	var results []*evidence.Receipt
	for _, r := range s.receipts {
		if matchesQuery(r, q) {
			results = append(results, copyReceipt(r))
		}
	}

	desc := q.SortOrder != "asc"
	byProcessing := q.SortBy == "processing_time"
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		var cmp int
		if byProcessing {
			cmp = compareInt64(a.ProcessingTimeNs, b.ProcessingTimeNs)
		} else {
			cmp = a.Timestamp.Compare(b.Timestamp)
		}
		if cmp == 0 {
			cmp = strings.Compare(a.ReceiptID, b.ReceiptID)
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return results
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func paginate(results []*evidence.Receipt, q *evidence.Query) []*evidence.Receipt {
	start := q.Offset
	if start > len(results) {
		return []*evidence.Receipt{}
	}
	end := len(results)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return results[start:end]
}

// matchesQuery checks if a receipt matches the query filters.
func matchesQuery(r *evidence.Receipt, q *evidence.Query) bool {
	if q.StartTime != nil && r.Timestamp.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.Timestamp.After(*q.EndTime) {
		return false
	}
	if q.Action != "" && r.Action != q.Action {
		return false
	}
	if q.PolicyVersion != "" && r.PolicyVersion != q.PolicyVersion {
		return false
	}
	if q.PIIType != "" && !r.HasType(q.PIIType) {
		return false
	}
	return true
}
