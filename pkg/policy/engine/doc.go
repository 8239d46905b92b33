// Package engine decides the governance action for a call.
//
// The decision table is fixed:
//
//	Detected PII | DefaultAction | Result
//	-------------+---------------+-----------------------------------
//	none         | (any)         | Allow, output = original text
//	>= 1 type    | Redact        | Redact, output = redacted text
//	>= 1 type    | Deny          | Deny, output = "" (original dropped)
//
// Config carries the policy version stamped into receipts and the default
// action. There is no default-allow configuration: Allow only arises when
// nothing was detected.
//
// # Basic Usage
//
//	cfg := engine.DefaultConfig().WithDefaultAction(engine.ActionDeny)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	decision := engine.Decide(red.HasPII, cfg, text, red.Text)
//
// Decide never fails and holds no state, so it is safe for concurrent use.
package engine
