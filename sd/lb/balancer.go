// Package lb deals with client-side load balancing across multiple base
// URLs of the same remote service, so that the runtime's target strategy can
// pick a (possibly different) endpoint on every retry attempt.
package lb

import "errors"

// Balancer yields a base URL according to some heuristic.
type Balancer interface {
	Endpoint() (string, error)
}

// ErrNoEndpoints is returned when the underlying Subscriber has no endpoints
// to offer.
var ErrNoEndpoints = errors.New("lb: no endpoints available")
