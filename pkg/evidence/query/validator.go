package query

import (
	"fmt"

	"tork-hq/governance/pkg/evidence"
	"tork-hq/governance/pkg/policy/engine"
)

const (
	// DefaultLimit is the default number of receipts to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of receipts that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"timestamp":       true,
	"processing_time": true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// Validate validates a query and returns an error if any parameters are invalid.
func Validate(q *evidence.Query) error {
	if q == nil {
		return evidence.NewQueryError(q, fmt.Errorf("query is nil"))
	}

	if q.Limit < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return evidence.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.Action != "" && !q.Action.Valid() {
		return evidence.NewQueryError(q, fmt.Errorf("invalid action: %s (must be one of %v)", q.Action, engine.Actions))
	}
	if q.PIIType != "" && !q.PIIType.Valid() {
		return evidence.NewQueryError(q, fmt.Errorf("invalid pii type: %s", q.PIIType))
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *evidence.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "timestamp"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}

// ColumnFor maps a sort field to its storage column.
func ColumnFor(sortBy string) string {
	if sortBy == "processing_time" {
		return "processing_time_ns"
	}
	return "timestamp"
}
