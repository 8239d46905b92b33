// Package health serves liveness, readiness and version endpoints for
// tork serve.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("patterns", health.PatternsCheck(registry.Len))
//	checker.RegisterCheck("receipts", health.StorageCheck(store))
//
//	router.HandleFunc("/health", checker.LivenessHandler()).Methods("GET", "HEAD")
//	router.HandleFunc("/ready", checker.ReadinessHandler()).Methods("GET", "HEAD")
//
// Readiness returns 503 with per-check results when any check fails or
// exceeds the timeout.
package health
