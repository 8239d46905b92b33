package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
)

// Span attribute keys. Values are type names and counts only; matched text
// is never attached to a span.
const (
	AttrAction        = "tork.action"
	AttrPIICount      = "tork.pii.count"
	AttrPIITypes      = "tork.pii.types"
	AttrPolicyVersion = "tork.policy_version"
	AttrReceiptID     = "tork.receipt_id"
	AttrRegions       = "tork.regions"
	AttrIndustry      = "tork.industry"
	AttrInputBytes    = "tork.input.bytes"
)

// SpanGovern is the span name for one governance call.
const SpanGovern = "tork.govern"

// GovernStartAttributes returns attributes known before detection runs.
func GovernStartAttributes(opts pii.GovernOptions, inputBytes int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Int(AttrInputBytes, inputBytes)}
	if regions := opts.ActiveRegions(); len(regions) > 0 {
		attrs = append(attrs, attribute.StringSlice(AttrRegions, regions))
	}
	if ind := opts.ActiveIndustry(); ind != "" {
		attrs = append(attrs, attribute.String(AttrIndustry, ind))
	}
	return attrs
}

// SetGovernAttributes records the outcome of a governance call on span.
func SetGovernAttributes(span trace.Span, action engine.Action, types []pii.PIIType, count int, policyVersion, receiptID string) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	span.SetAttributes(
		attribute.String(AttrAction, string(action)),
		attribute.Int(AttrPIICount, count),
		attribute.StringSlice(AttrPIITypes, names),
		attribute.String(AttrPolicyVersion, policyVersion),
		attribute.String(AttrReceiptID, receiptID),
	)
}
