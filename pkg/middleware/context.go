package middleware

import (
	"context"

	"tork-hq/governance/pkg/tork"
)

// resultKey stores the governance result in the request context.
type resultKey struct{}

// withResult returns a copy of ctx carrying res.
func withResult(ctx context.Context, res *tork.GovernanceResult) context.Context {
	return context.WithValue(ctx, resultKey{}, res)
}

// ResultFromContext returns the governance result of the request, or nil
// when the request was not governed.
func ResultFromContext(ctx context.Context) *tork.GovernanceResult {
	res, _ := ctx.Value(resultKey{}).(*tork.GovernanceResult)
	return res
}
