// Package resilience implements the circuit breaker + fallback wrapper
// around an operation's pipeline: each operation's invocation.Handler is
// wrapped as an endpoint.Middleware backed by one of several breaker
// strategies, and an optional Fallback supplies a synchronous alternative
// result when the breaker is open or the wrapped call fails.
package resilience
