// Package feign is the top-level entry point: it takes a contract
// Description, parses it into metadata.Method values, and wires each one's
// templatebuilder.Builder and invocation.Handler together behind a shared
// set of cross-cutting options (retryer, target, interceptors, circuit
// breaker, logger), producing a Client that dispatches calls by operation
// name — an explicit dispatch table rather than a dynamic proxy, since Go
// has no runtime proxy mechanism.
package feign

import (
	"context"
	"net/http"

	"github.com/go-kit/log"

	"github.com/go-kit/feign/contract"
	"github.com/go-kit/feign/endpoint"
	"github.com/go-kit/feign/invocation"
	"github.com/go-kit/feign/metadata"
	"github.com/go-kit/feign/reqtemplate"
	"github.com/go-kit/feign/retryer"
	"github.com/go-kit/feign/target"
	"github.com/go-kit/feign/templatebuilder"
)

// HandlerFactory builds the invocation.Handler for one operation, given the
// Builder's resolved defaults. Overriding it is an escape hatch for callers
// that need a Handler field this package doesn't expose directly.
type HandlerFactory func(m *metadata.Method, tb *templatebuilder.Builder, b *Builder) *invocation.Handler

// Builder accumulates the options that apply to every operation of a
// contract.Description, then produces an immutable Client from Build. A
// Builder may be reused to construct multiple Clients.
type Builder struct {
	logger       log.Logger
	retryer      *retryer.Retryer
	target       target.Target
	interceptors []invocation.Interceptor
	middlewares  []endpoint.Middleware
	transport    *http.Client
	decoder      invocation.Decoder
	errorDecoder invocation.ErrorDecoder
	decode404    bool
	unwrap       bool
	rawResponse  bool
	formEncoder      templatebuilder.Encoder
	bodyEncoder      templatebuilder.Encoder
	factory          HandlerFactory
	closeAfterDecode bool
}

// New returns a Builder with the usual defaults: a JSON decoder, a
// never-retrying retryer, http.DefaultClient as the transport, and a body
// that's closed once decoding succeeds.
func New() *Builder {
	return &Builder{
		retryer:          retryer.Never,
		transport:        http.DefaultClient,
		decoder:          invocation.JSONDecoder{},
		errorDecoder:     invocation.DefaultErrorDecoder{},
		decode404:        false,
		closeAfterDecode: true,
	}
}

// WithLogger sets the logger passed to every operation's Handler, used to
// report retries.
func (b *Builder) WithLogger(logger log.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRetryer sets the shared retry policy cloned once per invocation.
func (b *Builder) WithRetryer(r *retryer.Retryer) *Builder {
	b.retryer = r
	return b
}

// WithTarget sets the base-URL strategy applied once per attempt.
func (b *Builder) WithTarget(t target.Target) *Builder {
	b.target = t
	return b
}

// WithInterceptor appends a request interceptor, run in registration order
// on every attempt before the target strategy is applied.
func (b *Builder) WithInterceptor(ic invocation.Interceptor) *Builder {
	b.interceptors = append(b.interceptors, ic)
	return b
}

// WithMiddleware appends an endpoint.Middleware applied around the whole
// invocation (including retries) — the seam resilience.Hystrix/Gobreaker/
// Handy/WithFallback and interceptor.WithTracing/RateLimit attach through.
// Middlewares apply outermost-first in registration order.
func (b *Builder) WithMiddleware(mw endpoint.Middleware) *Builder {
	b.middlewares = append(b.middlewares, mw)
	return b
}

// WithTransport overrides the *http.Client used to send requests.
func (b *Builder) WithTransport(c *http.Client) *Builder {
	b.transport = c
	return b
}

// WithDecoder overrides the response body decoder (default: JSON).
func (b *Builder) WithDecoder(d invocation.Decoder) *Builder {
	b.decoder = d
	return b
}

// WithErrorDecoder overrides the non-2xx response classifier.
func (b *Builder) WithErrorDecoder(d invocation.ErrorDecoder) *Builder {
	b.errorDecoder = d
	return b
}

// WithDecode404 causes a 404 response to decode as a nil result instead of
// an error, an optional not-found convention some operations opt into.
func (b *Builder) WithDecode404(decode404 bool) *Builder {
	b.decode404 = decode404
	return b
}

// WithUnwrap causes Invoke to return a retry-exhausted call's underlying
// cause instead of the wrapping retryer error.
func (b *Builder) WithUnwrap(unwrap bool) *Builder {
	b.unwrap = unwrap
	return b
}

// WithRawResponse causes every operation's Invoke to return the
// *http.Response directly, bypassing decoding; the caller owns the body.
func (b *Builder) WithRawResponse(raw bool) *Builder {
	b.rawResponse = raw
	return b
}

// WithFormEncoder overrides the encoder used for form-encoded operations
// (default: templatebuilder.FormEncoder).
func (b *Builder) WithFormEncoder(e templatebuilder.Encoder) *Builder {
	b.formEncoder = e
	return b
}

// WithBodyEncoder overrides the encoder used for body-encoded operations
// (default: templatebuilder.JSONEncoder).
func (b *Builder) WithBodyEncoder(e templatebuilder.Encoder) *Builder {
	b.bodyEncoder = e
	return b
}

// WithCloseAfterDecode overrides whether the response body is closed once
// Decoder.Decode returns successfully (default: true). Set false for a lazy
// or iterator-style Decoder that keeps reading from the body after Invoke
// returns; the caller then owns closing it.
func (b *Builder) WithCloseAfterDecode(closeAfterDecode bool) *Builder {
	b.closeAfterDecode = closeAfterDecode
	return b
}

// WithInvocationHandlerFactory overrides how each operation's
// invocation.Handler is constructed, an escape hatch for callers that need
// per-operation customization Builder doesn't expose.
func (b *Builder) WithInvocationHandlerFactory(f HandlerFactory) *Builder {
	b.factory = f
	return b
}

// Client dispatches calls to the operations parsed from one contract
// Description, each wrapped with the Builder's shared options.
type Client struct {
	endpoints map[string]endpoint.Endpoint
	configs   map[string]*metadata.Method
}

// Invoke runs the named operation with argv as its bound argument vector.
func (c *Client) Invoke(ctx context.Context, operation string, argv []interface{}) (interface{}, error) {
	ep, ok := c.endpoints[operation]
	if !ok {
		return nil, &invocation.UnknownOperationError{Name: operation}
	}
	return ep(ctx, argv)
}

// Method returns the parsed metadata for operation, for callers that need
// to inspect it (e.g. a generated wrapper building argv).
func (c *Client) Method(operation string) (*metadata.Method, bool) {
	m, ok := c.configs[operation]
	return m, ok
}

// Build parses d and constructs a Client with one invocation pipeline per
// declared HTTP operation. Default (non-HTTP) operations are left unbound
// and not kept on the Client; callers needing them should call BindStatic on the
// resulting Client, since default-method bodies are a Go caller's ordinary
// methods rather than declarative data Build could discover.
func (b *Builder) Build(d contract.Description) (*Client, error) {
	parsed, err := contract.Parse(d)
	if err != nil {
		return nil, err
	}

	endpoints := make(map[string]endpoint.Endpoint, len(parsed.Methods))
	configs := make(map[string]*metadata.Method, len(parsed.Methods))

	for _, m := range parsed.Methods {
		tpl, err := reqtemplate.NewFromRequestLine(m.HTTPMethod, m.URITemplate, m.CollectionFormat)
		if err != nil {
			return nil, err
		}
		for name, values := range m.Headers {
			h, err := reqtemplate.NewHeader(values)
			if err != nil {
				return nil, err
			}
			if err := tpl.SetHeader(name, h); err != nil {
				return nil, err
			}
		}
		if m.BodyTemplate != "" {
			body, err := reqtemplate.NewBodyTemplate(m.BodyTemplate, "")
			if err != nil {
				return nil, err
			}
			if err := tpl.SetBody(body); err != nil {
				return nil, err
			}
		}

		tb := templatebuilder.New(m, tpl, b.formEncoder, b.bodyEncoder)

		var h *invocation.Handler
		if b.factory != nil {
			h = b.factory(m, tb, b)
		} else {
			h = b.defaultHandler(m, tb)
		}

		endpoints[m.ConfigKey] = endpoint.Chain(identityMiddleware, b.middlewares...)(h.Endpoint())
		configs[m.ConfigKey] = m
	}

	return &Client{endpoints: endpoints, configs: configs}, nil
}

func (b *Builder) defaultHandler(m *metadata.Method, tb *templatebuilder.Builder) *invocation.Handler {
	return &invocation.Handler{
		Method:           m,
		Builder:          tb,
		Retryer:          b.retryer,
		Target:           b.target,
		Interceptors:     b.interceptors,
		Transport:        b.transport,
		Decoder:          b.decoder,
		ErrorDecoder:     b.errorDecoder,
		Logger:           b.logger,
		Decode404:        b.decode404,
		Unwrap:           b.unwrap,
		RawResponse:      b.rawResponse,
		CloseAfterDecode: b.closeAfterDecode,
	}
}

func identityMiddleware(next endpoint.Endpoint) endpoint.Endpoint { return next }
