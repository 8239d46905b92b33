package tork

import (
	"tork-hq/governance/pkg/evidence"
	"tork-hq/governance/pkg/policy/engine"
)

// GovernanceResult is the outcome of one governance call.
type GovernanceResult struct {
	Action  engine.Action    `json:"action"`
	Output  string           `json:"output"`
	Receipt evidence.Receipt `json:"receipt"`
}

// HasPII reports whether the call detected any PII.
func (r *GovernanceResult) HasPII() bool {
	return len(r.Receipt.DetectedTypes) > 0
}
