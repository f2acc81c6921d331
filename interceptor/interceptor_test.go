package interceptor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/go-kit/feign/endpoint"
	"github.com/go-kit/feign/interceptor"
	"github.com/go-kit/feign/metadata"
	"github.com/go-kit/feign/reqtemplate"
)

func TestHeaderSetsFixedValue(t *testing.T) {
	tpl, err := reqtemplate.New("GET", "/things", metadata.Exploded)
	require.NoError(t, err)

	ic := interceptor.UserAgent("feign-test/1.0")
	require.NoError(t, ic.Intercept(tpl))

	h := tpl.Header("User-Agent")
	require.NotNil(t, h)
	values, ok, err := h.Expand(nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"feign-test/1.0"}, values)
}

func TestHeaderReappliedIdempotentlyAcrossClones(t *testing.T) {
	tpl, err := reqtemplate.New("GET", "/things", metadata.Exploded)
	require.NoError(t, err)

	ic := interceptor.UserAgent("feign-test/1.0")
	require.NoError(t, ic.Intercept(tpl))

	clone := tpl.Clone()
	require.NoError(t, ic.Intercept(clone))

	values, ok, err := clone.Header("User-Agent").Expand(nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"feign-test/1.0"}, values)
}

type fakeTracing struct {
	started  bool
	finished bool
	err      error
}

func (f *fakeTracing) Start(ctx context.Context, operation string) (context.Context, func(err error)) {
	f.started = true
	return ctx, func(err error) {
		f.finished = true
		f.err = err
	}
}

func TestWithTracingRecordsSpanAroundCall(t *testing.T) {
	tracer := &fakeTracing{}
	sentinel := errors.New("boom")
	next := func(ctx context.Context, request interface{}) (interface{}, error) {
		return nil, sentinel
	}

	mw := interceptor.WithTracing(tracer, "Svc#op()")
	_, err := mw(next)(context.Background(), nil)

	assert.Equal(t, sentinel, err)
	assert.True(t, tracer.started)
	assert.True(t, tracer.finished)
	assert.Equal(t, sentinel, tracer.err)
}

func TestWithTracingNilTracerIsNoOp(t *testing.T) {
	mw := interceptor.WithTracing(nil, "Svc#op()")
	called := false
	next := endpoint.Endpoint(func(ctx context.Context, request interface{}) (interface{}, error) {
		called = true
		return "ok", nil
	})

	result, err := mw(next)(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", result)
}

func TestRateLimitDelaysRatherThanRejects(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(10*time.Millisecond), 1)
	calls := 0
	next := endpoint.Endpoint(func(ctx context.Context, request interface{}) (interface{}, error) {
		calls++
		return nil, nil
	})

	mw := interceptor.RateLimit(limiter)
	wrapped := mw(next)

	_, err := wrapped(context.Background(), nil)
	require.NoError(t, err)
	_, err = wrapped(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
