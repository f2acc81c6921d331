package endpoint

import (
	"context"
)

// Endpoint is the fundamental building block of servers and clients.
// It represents a single RPC method.
type Endpoint func(ctx context.Context, request interface{}) (response interface{}, err error)

// Nop is an endpoint that does nothing and returns a nil error.
// Useful for tests.
func Nop(context.Context, interface{}) (interface{}, error) { return struct{}{}, nil }

// Middleware is a chainable behavior modifier for endpoints.
type Middleware func(Endpoint) Endpoint

// Chain is a helper function for composing middlewares. Requests will
// traverse them in the order they're declared. That is, the first middleware
// is treated as the outermost middleware.
func Chain(outer Middleware, others ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(others) - 1; i >= 0; i-- { // reverse
			next = others[i](next)
		}
		return outer(next)
	}
}

type contextKey int

// ContextKeyEndpointName is the context key under which
// EndpointNameMiddleware stores the endpoint name.
const ContextKeyEndpointName contextKey = iota

// EndpointNameMiddleware returns a Middleware that stores name in the request
// context under ContextKeyEndpointName before calling the next endpoint.
func EndpointNameMiddleware(name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			return next(context.WithValue(ctx, ContextKeyEndpointName, name), request)
		}
	}
}

// Failer is an interface that should be implemented by response types that
// hold error properties as to separate business errors from transport errors.
// If the response type can hold business errors it is highly advised to
// implement Failer.
// Response encoders can check if responses are Failer, and if so if they've
// failed encode them using a separate write path based on the error.
// Endpoint middlewares can test if a response type failed and also act or
// report upon it.
//
// The addsvc example shows Failer's intended usage.
type Failer interface {
	Failed() error
}
