package sd

// FixedSubscriber yields a fixed set of base URLs. Useful for tests, or for
// targets whose endpoint list is supplied at startup rather than discovered.
type FixedSubscriber []string

// Endpoints implements Subscriber.
func (s FixedSubscriber) Endpoints() ([]string, error) { return s, nil }
