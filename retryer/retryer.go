// Package retryer implements the per-invocation retry state machine: a
// clone of a shared template carries its own attempt counter, exponential
// backoff, and optional Retry-After handling.
//
// The growth curve is period*1.5^(attempt-1) with a hard maxAttempts
// cutoff, rather than an unbounded doubling retry budget.
package retryer

import (
	"errors"
	"math"
	"time"
)

// RetryAfter is implemented by errors that carry an explicit retry deadline
// (e.g. parsed from a response's Retry-After header).
type RetryAfter interface {
	RetryAfter() time.Time
}

// ErrExhausted names the attempts-exhausted condition. ShouldRetry does not
// return it: it reports exhaustion by returning false, and the caller
// propagates the triggering error itself.
var ErrExhausted = errors.New("retryer: attempts exhausted")

// Retryer is the shared, immutable configuration; clone it per invocation
// with Clone before using it, since attempt state must never be shared across
// concurrent calls.
type Retryer struct {
	period      time.Duration
	maxPeriod   time.Duration
	maxAttempts int
	never       bool
}

// New returns a Retryer with the given initial period, maximum period, and
// maximum attempt count (inclusive of the first attempt).
func New(period, maxPeriod time.Duration, maxAttempts int) *Retryer {
	return &Retryer{period: period, maxPeriod: maxPeriod, maxAttempts: maxAttempts}
}

// Never is the always-fail zero-state singleton described in Design Notes:
// its Clone returns a Clone whose ShouldRetry always reports false without
// counting the attempt, computing an interval, or sleeping.
var Never = &Retryer{never: true}

// Clone returns a fresh per-invocation Clone with attempt reset to 1.
func (r *Retryer) Clone() *Clone {
	return &Clone{r: r, attempt: 1}
}

// Clone is the per-invocation retry state: the retryer itself is cloned
// per invocation so its attempt counter is never shared across calls.
type Clone struct {
	r              *Retryer
	attempt        int
	sleptForMillis int64
}

// SleptForMillis returns the cumulative time this clone has slept across
// retries, for diagnostics/testing.
func (c *Clone) SleptForMillis() int64 { return c.sleptForMillis }

// Attempt returns the 1-based attempt number about to be (re)tried.
func (c *Clone) Attempt() int { return c.attempt }

// ShouldRetry decides whether to retry after cause, and if so sleeps for
// the computed interval before returning. It returns false once attempts
// are exhausted or the clone is the Never singleton; the caller must then
// propagate cause.
func (c *Clone) ShouldRetry(cause error) bool {
	if c.r.never {
		return false
	}
	c.attempt++
	if c.attempt > c.r.maxAttempts {
		return false
	}

	interval := c.interval(cause)
	if interval < 0 {
		interval = 0
	}
	if interval > c.r.maxPeriod {
		interval = c.r.maxPeriod
	}
	c.sleptForMillis += interval.Milliseconds()
	time.Sleep(interval)
	return true
}

func (c *Clone) interval(cause error) time.Duration {
	var ra RetryAfter
	if errors.As(cause, &ra) {
		return time.Until(ra.RetryAfter())
	}
	growth := math.Pow(1.5, float64(c.attempt-1))
	return time.Duration(float64(c.r.period) * growth)
}
