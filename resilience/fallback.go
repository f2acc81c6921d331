package resilience

import (
	"context"

	"github.com/go-kit/feign/endpoint"
)

// Fallback produces an alternative result for an operation when its primary
// pipeline fails — because the circuit is open, or the call itself returned
// an error. It receives the triggering error so the fallback can, for
// example, serve a cached value or a degraded default.
//
// Fallback is restricted to synchronous return types:
// it returns the concrete response value directly rather than a future or
// observable that must later be materialized.
type Fallback func(ctx context.Context, request interface{}, cause error) (interface{}, error)

// WithFallback returns an endpoint.Middleware that invokes fb whenever the
// wrapped endpoint returns an error. fb may itself fail, in which case the
// original cause is not recoverable — callers that need it should capture it
// via closure.
//
// The group/command-key bookkeeping the reference circuit-breaker wrapper
// performs is the caller's responsibility: pass a commandName-scoped
// Fallback (or none) alongside a commandName-scoped breaker, e.g.
//
//	endpoint.Chain(
//		resilience.Hystrix(method.ConfigKey),
//	)(handler.Endpoint())
//	// and separately
//	resilience.WithFallback(fb)(breakerWrapped)
func WithFallback(fb Fallback) endpoint.Middleware {
	if fb == nil {
		return func(next endpoint.Endpoint) endpoint.Endpoint { return next }
	}
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			response, err := next(ctx, request)
			if err == nil {
				return response, nil
			}
			return fb(ctx, request, err)
		}
	}
}
