package engine

import (
	"fmt"
)

// DefaultPolicyVersion is stamped into receipts when no version is configured.
const DefaultPolicyVersion = "1.0.0"

// Config controls how detected PII is handled. It is immutable once a
// governance instance has been built from it.
type Config struct {
	// PolicyVersion is an opaque identifier stamped into every receipt.
	// Default: "1.0.0".
	PolicyVersion string `json:"policy_version" yaml:"policy_version"`

	// DefaultAction is applied when at least one PII type is detected.
	// Only ActionRedact and ActionDeny are accepted.
	// Default: ActionRedact.
	DefaultAction Action `json:"default_action" yaml:"default_action"`
}

// DefaultConfig returns the default policy configuration.
func DefaultConfig() Config {
	return Config{
		PolicyVersion: DefaultPolicyVersion,
		DefaultAction: ActionRedact,
	}
}

// Validate validates the policy configuration.
func (c Config) Validate() error {
	switch c.DefaultAction {
	case ActionRedact, ActionDeny:
		// Valid
	case ActionAllow:
		return fmt.Errorf("%w: default action cannot be %q, allow only applies when no PII is found", ErrInvalidConfig, c.DefaultAction)
	default:
		return fmt.Errorf("%w: invalid default action %q", ErrInvalidConfig, c.DefaultAction)
	}
	return nil
}

// WithPolicyVersion returns a copy of c with the policy version set.
func (c Config) WithPolicyVersion(version string) Config {
	c.PolicyVersion = version
	return c
}

// WithDefaultAction returns a copy of c with the default action set.
func (c Config) WithDefaultAction(action Action) Config {
	c.DefaultAction = action
	return c
}
