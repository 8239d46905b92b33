package recorder

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"tork-hq/governance/pkg/evidence"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
)

// ReceiptIDPrefix is the fixed prefix of every receipt identifier.
const ReceiptIDPrefix = "rcpt_"

// NewReceiptID returns "rcpt_" followed by the 32 hex characters of a random
// UUID v4. Identifiers are collision resistant but carry no information
// about content.
func NewReceiptID() string {
	id := uuid.New()
	return ReceiptIDPrefix + hex.EncodeToString(id[:])
}

// Decision carries the per-call facts stamped into a receipt.
type Decision struct {
	Input         string
	Output        string
	PolicyVersion string
	DetectedTypes []pii.PIIType
	Action        engine.Action
	Elapsed       time.Duration
}

// Mint builds a new receipt for d. The detected types are copied so the
// receipt never aliases caller memory.
func Mint(d Decision) evidence.Receipt {
	types := make([]pii.PIIType, len(d.DetectedTypes))
	copy(types, d.DetectedTypes)

	return evidence.Receipt{
		ReceiptID:        NewReceiptID(),
		Timestamp:        time.Now().UTC(),
		InputHash:        HashText(d.Input),
		OutputHash:       HashText(d.Output),
		PolicyVersion:    d.PolicyVersion,
		DetectedTypes:    types,
		Action:           d.Action,
		ProcessingTimeNs: d.Elapsed.Nanoseconds(),
	}
}
