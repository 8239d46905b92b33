package engine

import (
	"fmt"
	"strings"
)

// Action is the governance decision applied to a piece of text.
type Action string

const (
	// ActionAllow passes the text through unchanged. It only arises when no
	// PII was detected.
	ActionAllow Action = "allow"

	// ActionRedact replaces every detected span with its placeholder.
	ActionRedact Action = "redact"

	// ActionDeny discards the text entirely.
	ActionDeny Action = "deny"
)

// Actions lists every action in a stable order.
var Actions = []Action{ActionAllow, ActionRedact, ActionDeny}

// ParseAction converts a case-insensitive action name into an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionAllow, ActionRedact, ActionDeny:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionAllow, ActionRedact, ActionDeny:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}

// Decision is the result of applying the policy to one call.
type Decision struct {
	// Action is the final governance action.
	Action Action

	// Output is the text returned to the caller: the original for Allow,
	// the redacted text for Redact, empty for Deny.
	Output string
}
