// Package interceptor provides template-mutating hooks (invocation.Interceptor,
// applied per attempt before target resolution) and endpoint-level
// middleware seams (wrapping a whole invocation, including its retries) for
// cross-cutting concerns like tracing and client-side rate limiting.
package interceptor

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/go-kit/feign/endpoint"
	"github.com/go-kit/feign/invocation"
	"github.com/go-kit/feign/ratelimit"
	"github.com/go-kit/feign/reqtemplate"
)

// Header returns an invocation.Interceptor that sets a fixed header value on
// every attempt. SetHeader replaces any existing entry for name rather than
// appending to it, so applying the same Header interceptor repeatedly (as
// happens once per retry attempt) always leaves the same single value.
func Header(name, value string) invocation.Interceptor {
	return invocation.InterceptorFunc(func(tpl *reqtemplate.Template) error {
		h, err := reqtemplate.NewHeader([]string{value})
		if err != nil {
			return err
		}
		return tpl.SetHeader(name, h)
	})
}

// UserAgent returns an invocation.Interceptor that sets the User-Agent
// header, the client-runtime analogue of transport/http.SetRequestHeader.
func UserAgent(value string) invocation.Interceptor {
	return Header("User-Agent", value)
}

// Tracing is an interface-level seam only: this repository does not wire a
// concrete exporter (opentracing/zipkin/opencensus are external
// collaborators), but any of them can implement Start, returning the
// function that finishes the span, and be passed to WithTracing.
type Tracing interface {
	Start(ctx context.Context, operation string) (context.Context, func(err error))
}

// WithTracing wraps an invocation.Handler's endpoint with a span covering
// the whole invocation, including retries.
func WithTracing(t Tracing, operation string) endpoint.Middleware {
	if t == nil {
		return func(next endpoint.Endpoint) endpoint.Endpoint { return next }
	}
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			ctx, finish := t.Start(ctx, operation)
			response, err := next(ctx, request)
			finish(err)
			return response, err
		}
	}
}

// RateLimit wraps an invocation.Handler's endpoint with a client-side token
// bucket limiter, delaying (rather than rejecting) calls that exceed the
// rate, grounded on ratelimit.NewDelayingLimiter.
func RateLimit(limiter *rate.Limiter) endpoint.Middleware {
	return ratelimit.NewDelayingLimiter(limiter)
}
