// Package invocation implements the synchronous method handler pipeline:
// per operation, build a
// template from the call's arguments, run it through the interceptor chain
// and target strategy once per attempt, send it, classify the response, and
// retry or decode as appropriate.
//
// Grounded directly on endpoint.Endpoint/endpoint.Middleware/endpoint.Chain
// for the call shape, and on transport/http.Client.Endpoint() for the
// build → encode → before-hooks → send → decode sequence, generalized here
// from one fixed method+target to a per-operation metadata table.
package invocation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-kit/log"
	pkgerrors "github.com/pkg/errors"

	"github.com/go-kit/feign/endpoint"
	"github.com/go-kit/feign/metadata"
	"github.com/go-kit/feign/reqtemplate"
	"github.com/go-kit/feign/retryer"
	"github.com/go-kit/feign/target"
	"github.com/go-kit/feign/templatebuilder"
)

// Interceptor mutates a request template before one transport attempt. It
// runs on every attempt including retries, so it must be idempotent with
// respect to mutations it performs.
type Interceptor interface {
	Intercept(tpl *reqtemplate.Template) error
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(tpl *reqtemplate.Template) error

// Intercept implements Interceptor.
func (f InterceptorFunc) Intercept(tpl *reqtemplate.Template) error { return f(tpl) }

// Decoder decodes a response body into the operation's declared return
// type.
type Decoder interface {
	Decode(body io.Reader, returnType interface{}) (interface{}, error)
}

// ErrorDecoder converts a non-2xx response into an error, optionally a
// retryable one (a *RetryableError or *RetryAfterError).
type ErrorDecoder interface {
	Decode(resp *http.Response) error
}

// RetryableError wraps a cause that the retry loop should treat as
// transient, i.e. worth another attempt.
type RetryableError struct {
	Cause error
}

// Error implements error.
func (e *RetryableError) Error() string { return e.Cause.Error() }

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *RetryableError) Unwrap() error { return e.Cause }

// retryableCause marks both RetryableError and RetryAfterError (which
// promote both methods from the embedded RetryableError) so callers can
// classify and unwrap either variant via a single errors.As check without
// caring which one it is. A plain *RetryableError target wouldn't match a
// *RetryAfterError value here, since RetryAfterError embeds RetryableError
// by value rather than extending it.
type retryableCause interface {
	retryableError()
	cause() error
}

func (e *RetryableError) retryableError() {}
func (e *RetryableError) cause() error    { return e.Cause }

// RetryAfterError is a RetryableError whose retry interval is dictated by an
// explicit deadline (e.g. parsed from a response's Retry-After header)
// instead of the retryer's exponential backoff.
type RetryAfterError struct {
	RetryableError
	At time.Time
}

// RetryAfter implements retryer.RetryAfter.
func (e *RetryAfterError) RetryAfter() time.Time { return e.At }

// Handler dispatches one operation's calls through the HTTP pipeline.
type Handler struct {
	Method       *metadata.Method
	Builder      *templatebuilder.Builder
	Retryer      *retryer.Retryer
	Target       target.Target
	Interceptors []Interceptor
	Transport    *http.Client
	Decoder      Decoder
	ErrorDecoder ErrorDecoder
	Logger       log.Logger

	Decode404 bool
	Unwrap    bool

	// CloseAfterDecode closes the response body once Decoder.Decode returns
	// successfully. Callers using a lazy or iterator-style Decoder that
	// keeps reading after Invoke returns should set this false and take
	// ownership of closing the body themselves.
	CloseAfterDecode bool

	// RawResponse, when true, causes Invoke to return the *http.Response
	// directly instead of decoding it; ownership of the body transfers to
	// the caller.
	RawResponse bool
}

// Endpoint adapts Handler to endpoint.Endpoint, the seam that lets
// resilience.Hystrix/Gobreaker/WithFallback wrap an operation's pipeline the
// same way they wrap any other endpoint. request must be an []interface{}
// argument vector.
func (h *Handler) Endpoint() endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		argv, _ := request.([]interface{})
		return h.Invoke(ctx, argv)
	}
}

// Invoke runs the pipeline for one call: build, intercept, target, send,
// classify, decode or retry.
func (h *Handler) Invoke(ctx context.Context, argv []interface{}) (interface{}, error) {
	return h.invoke(ctx, argv, false)
}

// InvokeStream runs the same pipeline as Invoke, but on a successful
// response returns the body as an io.ReadCloser instead of decoding it,
// regardless of the Handler's Decoder or RawResponse settings — the
// streaming-download escape hatch a generated interface's default method
// can reach for when it wants the bytes directly. The caller owns the
// returned ReadCloser and must close it.
func (h *Handler) InvokeStream(ctx context.Context, argv []interface{}) (io.ReadCloser, error) {
	result, err := h.invoke(ctx, argv, true)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return http.NoBody, nil
	}
	return result.(io.ReadCloser), nil
}

func (h *Handler) invoke(ctx context.Context, argv []interface{}, stream bool) (interface{}, error) {
	tpl, vars, err := h.Builder.Bind(argv)
	if err != nil {
		return nil, err
	}

	r := h.Retryer
	if r == nil {
		r = retryer.Never
	}
	clone := r.Clone()

	for {
		attemptTpl := tpl.Clone()
		for _, ic := range h.Interceptors {
			if err := ic.Intercept(attemptTpl); err != nil {
				return nil, pkgerrors.Wrap(err, "invocation: interceptor")
			}
		}

		if h.Target != nil && attemptTpl.Target == "" {
			base, err := h.Target.Apply(attemptTpl.URITemplateString())
			if err != nil {
				return nil, pkgerrors.Wrapf(err, "invocation: target %s", h.Target.Name())
			}
			if err := attemptTpl.SetTarget(base); err != nil {
				return nil, err
			}
		}

		resolved, err := attemptTpl.Resolve(vars)
		if err != nil {
			return nil, err
		}
		if err := h.Builder.MergeMaps(resolved, argv); err != nil {
			return nil, err
		}

		result, retryable, err := h.attempt(ctx, resolved, stream)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return nil, err
		}

		if !clone.ShouldRetry(err) {
			if h.Unwrap {
				var re retryableCause
				if errors.As(err, &re) {
					return nil, pkgerrors.Cause(re.cause())
				}
			}
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Log("msg", "retrying", "operation", h.Method.ConfigKey, "attempt", clone.Attempt(), "err", err)
		}
	}
}

// attempt runs one transport round-trip and classifies its outcome. The
// bool return reports whether err (if any) should drive the retry loop.
func (h *Handler) attempt(ctx context.Context, resolved *reqtemplate.Resolved, stream bool) (interface{}, bool, error) {
	req, err := resolved.Request(ctx)
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "invocation: building request")
	}

	transport := h.Transport
	if transport == nil {
		transport = http.DefaultClient
	}
	resp, err := transport.Do(req)
	if err != nil {
		return nil, true, &RetryableError{Cause: err}
	}

	if h.RawResponse && !stream {
		return resp, false, nil
	}
	if stream {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp.Body, false, nil
		}
		defer resp.Body.Close()
		if h.ErrorDecoder != nil {
			decodeErr := h.ErrorDecoder.Decode(resp)
			var re retryableCause
			if errors.As(decodeErr, &re) {
				return nil, true, decodeErr
			}
			return nil, false, decodeErr
		}
		body, _ := io.ReadAll(resp.Body)
		return nil, false, pkgerrors.Errorf("invocation: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	shouldClose := true
	defer func() {
		if shouldClose {
			resp.Body.Close()
		}
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result, err := h.decode(resp.Body)
		if err != nil {
			return nil, false, pkgerrors.Wrap(err, "invocation: decoding response")
		}
		if !h.CloseAfterDecode {
			shouldClose = false
		}
		return result, false, nil

	case resp.StatusCode == http.StatusNotFound && h.Decode404:
		return nil, false, nil

	default:
		if h.ErrorDecoder != nil {
			decodeErr := h.ErrorDecoder.Decode(resp)
			var re retryableCause
			if errors.As(decodeErr, &re) {
				return nil, true, decodeErr
			}
			return nil, false, decodeErr
		}
		body, _ := io.ReadAll(resp.Body)
		return nil, false, pkgerrors.Errorf("invocation: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}

func (h *Handler) decode(body io.Reader) (interface{}, error) {
	if h.Decoder != nil {
		return h.Decoder.Decode(body, h.Method.ReturnType)
	}
	return io.ReadAll(body)
}
