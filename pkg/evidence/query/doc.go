// Package query provides validation and defaults for receipt queries.
//
// # Query Validation
//
// The validator ensures query parameters are valid before execution:
//
//   - Limit >= 0 and <= MaxLimit
//   - Offset >= 0
//   - Sort field is valid (timestamp, processing_time)
//   - Sort order is valid (asc, desc)
//   - Time range is valid (start <= end)
//   - Action and PII type filters name known values
//
// # Basic Usage
//
//	q := &evidence.Query{
//	    StartTime: &startTime,
//	    Action:    engine.ActionDeny,
//	    PIIType:   pii.TypeSSN,
//	}
//	if err := query.Validate(q); err != nil {
//	    log.Fatal(err)
//	}
//	query.ApplyDefaults(q)
//	receipts, err := store.Query(ctx, q)
package query
