package ratelimit

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/go-kit/feign/endpoint"
)

// ErrLimited is returned in the request path when the rate limiter is
// triggered and the request is rejected.
var ErrLimited = errors.New("rate limit exceeded")

// NewErroringLimiter returns an endpoint.Middleware that acts as a client-side
// rate limiter. Requests that would exceed the maximum request rate are
// rejected immediately with ErrLimited rather than sent to the transport.
func NewErroringLimiter(limit *rate.Limiter) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			if !limit.Allow() {
				return nil, ErrLimited
			}
			return next(ctx, request)
		}
	}
}

// NewDelayingLimiter returns an endpoint.Middleware that throttles instead of
// rejecting: a request that would exceed the rate blocks until the limiter's
// bucket refills. It fails with the limiter's error instead when the context
// is done, or at once when the wait would outlast the context's deadline.
func NewDelayingLimiter(limit *rate.Limiter) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			if err := limit.Wait(ctx); err != nil {
				return nil, err
			}
			return next(ctx, request)
		}
	}
}
