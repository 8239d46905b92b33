package engine

// Decide maps detection results and configuration to a governance action.
// It is a pure function: absent PII always yields Allow with the original
// text; otherwise the configured default action selects between the
// redacted text and an empty output.
func Decide(hasPII bool, cfg Config, original, redacted string) Decision {
	if !hasPII {
		return Decision{Action: ActionAllow, Output: original}
	}
	if cfg.DefaultAction == ActionDeny {
		return Decision{Action: ActionDeny, Output: ""}
	}
	return Decision{Action: ActionRedact, Output: redacted}
}
