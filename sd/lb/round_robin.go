package lb

import (
	"sync/atomic"

	"github.com/go-kit/feign/sd"
)

// NewRoundRobin returns a Balancer that cycles through the Subscriber's
// endpoints in sequence. Safe for concurrent use; each call to Endpoint
// atomically advances the cursor, so concurrent invocations of the same
// operation fan out across endpoints instead of hammering one.
func NewRoundRobin(s sd.Subscriber) Balancer {
	return &roundRobin{s: s}
}

type roundRobin struct {
	s sd.Subscriber
	c uint64
}

func (rr *roundRobin) Endpoint() (string, error) {
	endpoints, err := rr.s.Endpoints()
	if err != nil {
		return "", err
	}
	if len(endpoints) == 0 {
		return "", ErrNoEndpoints
	}
	old := atomic.AddUint64(&rr.c, 1) - 1
	return endpoints[old%uint64(len(endpoints))], nil
}
