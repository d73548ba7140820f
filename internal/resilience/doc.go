// Package resilience contains reliability building blocks for calls to
// external dependencies: retry with exponential backoff (retry), a
// gobreaker-based circuit breaker for infrastructure backends
// (circuitbreaker), and the per-provider cooldown tracker that gates the
// verification fan-out (health).
package resilience
