package resilience_test

import (
	"testing"

	"github.com/sony/gobreaker"

	"github.com/go-kit/feign/resilience"
)

func TestGobreaker(t *testing.T) {
	primeWith := 100
	shouldPass := func(n int) bool { return n < 2 } // breaker trips once ConsecutiveFailures exceeds 1
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 1
		},
	})
	testFailingEndpoint(t, resilience.Gobreaker(cb), primeWith, shouldPass, "circuit breaker is open")
}
