package lb

import (
	"math/rand"
	"sync"

	"github.com/go-kit/feign/sd"
)

// NewRandom returns a Balancer that selects an endpoint uniformly at random
// on each call.
func NewRandom(s sd.Subscriber, seed int64) Balancer {
	return &random{
		s: s,
		r: rand.New(rand.NewSource(seed)),
	}
}

type random struct {
	s sd.Subscriber

	mu sync.Mutex
	r  *rand.Rand
}

func (r *random) Endpoint() (string, error) {
	endpoints, err := r.s.Endpoints()
	if err != nil {
		return "", err
	}
	if len(endpoints) == 0 {
		return "", ErrNoEndpoints
	}
	r.mu.Lock()
	i := r.r.Intn(len(endpoints))
	r.mu.Unlock()
	return endpoints[i], nil
}
