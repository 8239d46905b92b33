// Package tork is the entry point of the governance SDK.
//
// A Tork instance inspects text for PII, redacts or denies it according to
// its configuration, and returns a receipt that proves what was decided
// without retaining the text:
//
//	t, err := tork.New()
//	if err != nil {
//		return err
//	}
//	res, err := t.Govern("My SSN is 123-45-6789")
//	// res.Action == engine.ActionRedact
//	// res.Output == "My SSN is [SSN_REDACTED]"
//
// Region and industry packs are activated per call:
//
//	res, err := t.GovernWithOptions(text, pii.GovernOptions{
//		Regions:  []string{"ae"},
//		Industry: "finance",
//	})
//
// Instances are safe for concurrent use. Receipts are returned to the
// caller and never stored by this package; see the evidence packages for
// optional sinks.
package tork
